// Package gate is the client for the local API of GogoGate2 and iSmartGate
// hubs.
//
// A Client is bound to one hub, one account and one Transport:
//
//	t, _ := transport.NewHTTPTransport()
//	c, err := gate.New(device.Credentials{
//	    Host:     "192.168.1.30",
//	    Username: "admin",
//	    Password: "secret",
//	}, device.FamilyISmartGate, t)
//	if err != nil {
//	    return err
//	}
//	info, err := c.Info(ctx)
//
// Every operation has a blocking form and an Async form returning a
// Future. Both sign the request before any waiting happens and share one
// implementation, so they fail identically. The only wait is the transport
// round trip.
//
// OpenDoor and CloseDoor read the door's state first. A door already in
// the requested position is reported with device.OutcomeAlreadyInState
// and nothing is sent. Otherwise an activate command toggles it.
//
// Errors are *Error values whose Kind tells callers what went wrong:
// KindInvalidArgument (nothing was sent), KindTransport, KindDecryption or
// KindProtocol. The client never retries; configure retries on the
// transport if they are wanted.
package gate
