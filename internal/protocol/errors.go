package protocol

import (
	"errors"
	"fmt"

	"github.com/muurk/gogogate/internal/device"
)

var (
	// ErrDecrypt means the body was not a valid ciphertext for the key:
	// bad framing, bad base64, bad padding or non UTF-8 plaintext.
	ErrDecrypt = errors.New("response could not be decrypted")

	// ErrSchema means the body decrypted but is not a document the device
	// is known to send.
	ErrSchema = errors.New("response does not match a known schema")

	// ErrRejected means an acknowledgement carried a result other than OK.
	ErrRejected = errors.New("command rejected by device")
)

// Reason is the family-independent meaning of a device error code.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonCredentialsIncorrect
	ReasonCredentialsNotSet
	ReasonTokenNotSet
	ReasonInvalidOption
	ReasonInvalidAPICode
	ReasonDoorNotSet
	ReasonInvalidDoor
	ReasonCorruptedData
)

func (r Reason) String() string {
	switch r {
	case ReasonCredentialsIncorrect:
		return "credentials incorrect"
	case ReasonCredentialsNotSet:
		return "credentials not set"
	case ReasonTokenNotSet:
		return "token not set"
	case ReasonInvalidOption:
		return "invalid option"
	case ReasonInvalidAPICode:
		return "invalid api code"
	case ReasonDoorNotSet:
		return "door not set"
	case ReasonInvalidDoor:
		return "invalid door"
	case ReasonCorruptedData:
		return "corrupted data"
	default:
		return "unknown"
	}
}

var gogogate2Reasons = map[int]Reason{
	1:  ReasonCredentialsIncorrect,
	2:  ReasonCredentialsNotSet,
	5:  ReasonInvalidDoor,
	8:  ReasonDoorNotSet,
	9:  ReasonInvalidOption,
	11: ReasonCorruptedData,
	18: ReasonInvalidAPICode,
}

var ismartgateReasons = map[int]Reason{
	8:  ReasonDoorNotSet,
	9:  ReasonInvalidOption,
	10: ReasonInvalidAPICode,
	11: ReasonCredentialsIncorrect,
	21: ReasonTokenNotSet,
	22: ReasonCredentialsNotSet,
}

// DeviceError is an error document returned by the hub.
type DeviceError struct {
	Family  device.Family
	Code    int
	Message string
}

func (e *DeviceError) Error() string {
	if r := e.Reason(); r != ReasonUnknown {
		return fmt.Sprintf("device error %d (%s): %s", e.Code, r, e.Message)
	}
	return fmt.Sprintf("device error %d: %s", e.Code, e.Message)
}

// Reason maps the code through the table of the hub's family. Codes are
// reused with different meanings across families, so an error whose family
// is unknown always maps to ReasonUnknown.
func (e *DeviceError) Reason() Reason {
	switch e.Family {
	case device.FamilyGogoGate2:
		return gogogate2Reasons[e.Code]
	case device.FamilyISmartGate:
		return ismartgateReasons[e.Code]
	default:
		return ReasonUnknown
	}
}

// IsCredentialsError reports whether err carries a device error about the
// username, password or token.
func IsCredentialsError(err error) bool {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return false
	}
	switch devErr.Reason() {
	case ReasonCredentialsIncorrect, ReasonCredentialsNotSet, ReasonTokenNotSet:
		return true
	default:
		return false
	}
}
