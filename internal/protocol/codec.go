package protocol

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/muurk/gogogate/internal/device"
)

// MaxNonce is the upper bound of the iSmartGate t parameter.
const MaxNonce = 100000000

// AuthToken is everything that authenticates one request. It is derived
// afresh for every request and must not be reused.
type AuthToken struct {
	Data  string
	Nonce int
	Token string
}

// Params returns the query parameters carrying the token.
func (a AuthToken) Params() map[string]string {
	params := map[string]string{"data": a.Data}
	if a.Token != "" {
		params["t"] = strconv.Itoa(a.Nonce)
		params["token"] = a.Token
	}
	return params
}

// DeriveAuthToken is the deterministic core of Codec.Sign: the same inputs
// always give the same token.
func DeriveAuthToken(family device.Family, creds device.Credentials, cmd Command, iv string, nonce int) (AuthToken, error) {
	c, err := familyCipher(family, creds)
	if err != nil {
		return AuthToken{}, err
	}
	token := AuthToken{Data: c.Encrypt(cmd.Encode(), iv)}
	if family == device.FamilyISmartGate {
		token.Nonce = nonce
		token.Token = DeriveToken(creds.Username)
	}
	return token, nil
}

func familyCipher(family device.Family, creds device.Credentials) (*Cipher, error) {
	switch family {
	case device.FamilyGogoGate2:
		return NewCipher(GogoGate2Key)
	case device.FamilyISmartGate:
		return NewCipher(DeriveKey(creds.Username, creds.Password))
	default:
		return nil, fmt.Errorf("unsupported device family %v", family)
	}
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithIVSource replaces the random IV generator.
func WithIVSource(fn func() string) CodecOption {
	return func(c *Codec) { c.newIV = fn }
}

// WithNonceSource replaces the random nonce generator.
func WithNonceSource(fn func() int) CodecOption {
	return func(c *Codec) { c.newNonce = fn }
}

// Codec binds the cipher and token of one family and account. The key and
// token are fixed for the credentials; only the IV and nonce vary per call.
type Codec struct {
	family   device.Family
	cipher   *Cipher
	token    string
	newIV    func() string
	newNonce func() int
}

// NewCodec creates a codec for a hub family and account.
func NewCodec(family device.Family, creds device.Credentials, opts ...CodecOption) (*Codec, error) {
	c, err := familyCipher(family, creds)
	if err != nil {
		return nil, err
	}
	codec := &Codec{
		family:   family,
		cipher:   c,
		newIV:    NewIV,
		newNonce: func() int { return rand.IntN(MaxNonce) + 1 },
	}
	if family == device.FamilyISmartGate {
		codec.token = DeriveToken(creds.Username)
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec, nil
}

// Family returns the hub family the codec speaks.
func (c *Codec) Family() device.Family {
	return c.family
}

// Sign encrypts cmd with a fresh IV and, for iSmartGate, a fresh nonce.
func (c *Codec) Sign(cmd Command) AuthToken {
	token := AuthToken{Data: c.cipher.Encrypt(cmd.Encode(), c.newIV())}
	if c.token != "" {
		token.Nonce = c.newNonce()
		token.Token = c.token
	}
	return token
}

// Open turns a raw response body into an XML document. The hub sends error
// documents unencrypted, so a body that does not decrypt is returned as is
// only when it is a <response> carrying an <error>. Anything else that does
// not decrypt, plaintext info documents included, fails with ErrDecrypt.
func (c *Codec) Open(body string) (string, error) {
	plain, err := c.cipher.Decrypt(body)
	if err == nil {
		return plain, nil
	}
	if isErrorDocument(body) {
		return body, nil
	}
	return "", err
}

// DecodeInfo opens and parses an info response.
func (c *Codec) DecodeInfo(body string) (*device.Info, error) {
	doc, err := c.Open(body)
	if err != nil {
		return nil, err
	}
	info, err := ParseDeviceInfo(doc)
	return info, c.tagError(err)
}

// DecodeAck opens and parses the acknowledgement of an activate command.
func (c *Codec) DecodeAck(body string, door int, target device.DoorStatus) (device.CommandResult, error) {
	doc, err := c.Open(body)
	if err != nil {
		return device.CommandResult{}, err
	}
	result, err := ParseCommandAck(doc, door, target)
	return result, c.tagError(err)
}

// tagError records the codec's family on device errors so their codes can
// be interpreted.
func (c *Codec) tagError(err error) error {
	var devErr *DeviceError
	if errors.As(err, &devErr) && devErr.Family == device.FamilyUnknown {
		devErr.Family = c.family
	}
	return err
}

func isErrorDocument(body string) bool {
	r, err := decodeDocument(body)
	return err == nil && r.Error != nil
}
