// Package protocol implements the GogoGate2 / iSmartGate local API codec.
//
// Everything in this package is pure: no network access, no shared state.
// Randomness (the cipher IV and the request nonce) is drawn from injectable
// sources so every function can be tested against fixed vectors.
//
// # Wire Format
//
// A request is a GET of http://<host>/api.php with query parameters:
//   - data: the encrypted command
//   - t: a random nonce in [1, 100000000] (iSmartGate only)
//   - token: hex(sha1(lower(username) + "@ismartgate")) (iSmartGate only)
//
// The command plaintext is a JSON array of five ASCII-escaped strings:
//
//	["admin", "secret", "activate", "1", "<device code>"]
//
// It is encrypted with AES-128-CBC and PKCS#7 padding. The wire form is the
// 16 ASCII IV bytes followed by the base64 ciphertext. Responses use the same
// form, except device error documents, which are returned in plain text.
//
// # Keys
//
// GogoGate2 hubs share one fixed key. iSmartGate hubs derive the key from
// hex(sha1(lower(username) + password)) by picking fixed character ranges
// around literal separators; see DeriveKey.
//
// # Response Schemas
//
// Decrypted responses are XML documents rooted at <response>. Info documents
// come in two variants, told apart by <gogogatename> or <ismartgatename>,
// and list doors as <door1>, <door2>, ... elements. Command
// acknowledgements carry <result>OK</result>. Failures carry
// <error><errorcode>N</errorcode><errormsg>...</errormsg></error>, where N
// means different things for each family; see DeviceError.Reason.
//
// # Usage Example
//
//	codec, err := protocol.NewCodec(device.FamilyISmartGate, creds)
//	if err != nil {
//	    return err
//	}
//	token, err := codec.Sign(protocol.InfoCommand(creds))
//	if err != nil {
//	    return err
//	}
//	body, err := transport.Send(ctx, protocol.APIURL(creds.Host), token.Params())
//	if err != nil {
//	    return err
//	}
//	info, err := codec.DecodeInfo(body)
package protocol
