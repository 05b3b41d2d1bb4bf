package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/muurk/gogogate/internal/protocol"
	"github.com/muurk/gogogate/internal/transport"
)

// Kind is the category of a client failure. Each kind maps to its own CLI
// exit code.
type Kind int

const (
	// KindInvalidArgument means the caller passed bad input; nothing was sent
	KindInvalidArgument Kind = iota + 1
	// KindTransport means the request or its response was lost
	KindTransport
	// KindDecryption means the body could not be decrypted with the derived key
	KindDecryption
	// KindProtocol means the body decrypted but was not an acceptable answer
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindTransport:
		return "transport error"
	case KindDecryption:
		return "decryption error"
	case KindProtocol:
		return "protocol error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrInvalidDoor is returned for door indices below 1
	ErrInvalidDoor = errors.New("door index must be a positive integer")

	// ErrDoorNotConfigured is returned when the hub lists the door but it
	// has not been set up
	ErrDoorNotConfigured = errors.New("door is not configured on the hub")

	// ErrDoorStatusUnknown is returned by open and close when the hub
	// cannot tell the door's position
	ErrDoorStatusUnknown = errors.New("door status is unknown")

	// ErrDoorNotFound is returned by DoorSensor when the hub does not list the door
	ErrDoorNotFound = errors.New("door not reported by the hub")
)

// Error is the error type returned by every Client operation.
type Error struct {
	Kind Kind
	Op   string // info, open, close, activate or sensor
	Door int    // zero for info
	Err  error
}

func (e *Error) Error() string {
	if e.Door > 0 {
		return fmt.Sprintf("%s door %d: %s: %v", e.Op, e.Door, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a client error, or zero if err is not one.
func KindOf(err error) Kind {
	var gErr *Error
	if errors.As(err, &gErr) {
		return gErr.Kind
	}
	return 0
}

// IsInvalidArgument checks if err is a KindInvalidArgument error
func IsInvalidArgument(err error) bool { return KindOf(err) == KindInvalidArgument }

// IsTransport checks if err is a KindTransport error
func IsTransport(err error) bool { return KindOf(err) == KindTransport }

// IsDecryption checks if err is a KindDecryption error
func IsDecryption(err error) bool { return KindOf(err) == KindDecryption }

// IsProtocol checks if err is a KindProtocol error
func IsProtocol(err error) bool { return KindOf(err) == KindProtocol }

// transportFailure wraps an error from the transport. Errors that are not
// already *transport.Error are classified first, so callers can always
// reach one with errors.As.
func transportFailure(op string, door int, host string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Door: door, Err: transport.Classify(err, host)}
}

// decodeFailure wraps an error from the codec.
func decodeFailure(op string, door int, err error) *Error {
	kind := KindProtocol
	if errors.Is(err, protocol.ErrDecrypt) {
		kind = KindDecryption
	}
	return &Error{Kind: kind, Op: op, Door: door, Err: err}
}

// canceled builds the error Await returns when its context ends first.
func canceled(ctx context.Context, op string, door int) *Error {
	return transportFailure(op, door, "", ctx.Err())
}

// Hint returns user-facing troubleshooting advice for a client error.
func Hint(err error) []string {
	var gErr *Error
	if !errors.As(err, &gErr) {
		return nil
	}

	switch gErr.Kind {
	case KindInvalidArgument:
		return []string{"Door numbers start at 1"}

	case KindTransport:
		return transport.TroubleshootingHint(gErr.Err)

	case KindDecryption:
		return []string{
			"The hub's answer could not be decrypted",
			"Check --device-type: GogoGate2 and iSmartGate hubs use different keys",
			"iSmartGate keys are derived from the username and password",
		}

	case KindProtocol:
		switch {
		case errors.Is(err, ErrDoorNotConfigured):
			return []string{"Set the door up in the hub's web interface first"}
		case errors.Is(err, ErrDoorStatusUnknown):
			return []string{
				"The hub cannot tell whether the door is open",
				"Check the door sensor, or use 'activate' to toggle the door anyway",
			}
		case errors.Is(err, ErrDoorNotFound):
			return []string{"Run 'info' to list the doors the hub reports"}
		}

		var devErr *protocol.DeviceError
		if errors.As(err, &devErr) {
			return deviceHint(devErr, gErr.Door)
		}
		return []string{
			"The hub sent a response this client does not understand",
			"Check --device-type matches the hub",
		}

	default:
		return nil
	}
}

func deviceHint(devErr *protocol.DeviceError, door int) []string {
	switch devErr.Reason() {
	case protocol.ReasonCredentialsIncorrect, protocol.ReasonCredentialsNotSet:
		return []string{
			"The hub rejected the username or password",
			"Use the credentials of the hub's local web interface",
		}
	case protocol.ReasonTokenNotSet:
		return []string{"The hub expects an iSmartGate token; try --device-type ismartgate"}
	case protocol.ReasonInvalidAPICode:
		return []string{"The hub's activation code changed while the command ran; try again"}
	case protocol.ReasonDoorNotSet, protocol.ReasonInvalidDoor:
		return []string{fmt.Sprintf("The hub has no door %d; run 'info' to list doors", door)}
	case protocol.ReasonCorruptedData:
		return []string{"The hub could not read the request; check --device-type"}
	default:
		return []string{fmt.Sprintf("The hub returned error code %d", devErr.Code)}
	}
}
