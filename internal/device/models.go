package device

import (
	"fmt"
	"strings"
)

// Family identifies one of the two known hub generations.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyGogoGate2
	FamilyISmartGate
)

// String returns the canonical lowercase family name
func (f Family) String() string {
	switch f {
	case FamilyGogoGate2:
		return "gogogate2"
	case FamilyISmartGate:
		return "ismartgate"
	case FamilyUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// MarshalText implements encoding.TextMarshaler
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseFamily parses a device type name as accepted on the command line.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gogogate2", "gogogate", "gg2":
		return FamilyGogoGate2, nil
	case "ismartgate", "isg":
		return FamilyISmartGate, nil
	default:
		return FamilyUnknown, fmt.Errorf("unknown device type %q (expected gogogate2 or ismartgate)", s)
	}
}

// Credentials identify one hub and the account used to talk to it.
// A Credentials value is read-only once handed to a client.
type Credentials struct {
	Host     string
	Username string
	Password string
}

// Validate reports an error if any field is empty.
func (c Credentials) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("credentials incomplete: %s must not be empty", strings.Join(missing, ", "))
	}
	return nil
}

// DoorStatus is the position a hub reports for a door.
type DoorStatus int

const (
	StatusUnknown DoorStatus = iota
	StatusOpen
	StatusClosed
)

// ParseDoorStatus maps a device status string to a DoorStatus.
// Anything other than "opened" or "closed" decodes to StatusUnknown.
func ParseDoorStatus(s string) DoorStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "opened":
		return StatusOpen
	case "closed":
		return StatusClosed
	default:
		return StatusUnknown
	}
}

func (s DoorStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s DoorStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Actionable reports whether the status is known well enough to decide
// whether an open or close command needs to toggle the door.
func (s DoorStatus) Actionable() bool {
	return s == StatusOpen || s == StatusClosed
}

// DoorMode is the wiring mode configured for a door.
type DoorMode int

const (
	ModeUnknown DoorMode = iota
	ModeGarage
	ModePulse
	ModeOnOff
)

// ParseDoorMode maps a device mode string to a DoorMode.
func ParseDoorMode(s string) DoorMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "garage":
		return ModeGarage
	case "pulse":
		return ModePulse
	case "onoff":
		return ModeOnOff
	default:
		return ModeUnknown
	}
}

func (m DoorMode) String() string {
	switch m {
	case ModeGarage:
		return "garage"
	case ModePulse:
		return "pulse"
	case ModeOnOff:
		return "onoff"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (m DoorMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Door is one door entry of a hub. Index is 1-based and stable per device.
type Door struct {
	Index      int        `json:"index"`
	Name       string     `json:"name"`
	Status     DoorStatus `json:"status"`
	Mode       DoorMode   `json:"mode"`
	Permission bool       `json:"permission"`
	Gate       bool       `json:"gate"`
	Sensor     bool       `json:"sensor"`
	SensorID   string     `json:"sensor_id,omitempty"`
	Camera     bool       `json:"camera"`
	Events     *int       `json:"events,omitempty"`

	// Temperature and Voltage are nil when the hub has no reading.
	Temperature *float64 `json:"temperature,omitempty"`
	Voltage     *int     `json:"voltage,omitempty"`

	// iSmartGate only
	Enabled     bool   `json:"enabled"`
	CustomImage bool   `json:"custom_image"`
	APICode     string `json:"-"`
}

// Configured reports whether the door has been set up on the hub.
// Unconfigured slots are reported with an empty name.
func (d Door) Configured() bool {
	return d.Name != ""
}

// InState reports whether the door is known to be in the target position.
func (d Door) InState(target DoorStatus) bool {
	return target.Actionable() && d.Status == target
}

// HasReadings reports whether the hub returned any sensor reading for the door.
func (d Door) HasReadings() bool {
	return d.Temperature != nil || d.Voltage != nil
}

// Wifi describes the hub's wireless link.
type Wifi struct {
	SSID        string `json:"ssid,omitempty"`
	LinkQuality string `json:"link_quality,omitempty"`
	Signal      string `json:"signal,omitempty"`
}

// Info is a single snapshot of a hub's state.
type Info struct {
	Family              Family `json:"family"`
	Name                string `json:"name"`
	User                string `json:"user"`
	Model               string `json:"model"`
	FirmwareVersion     string `json:"firmware_version"`
	APIVersion          string `json:"api_version"`
	RemoteAccess        string `json:"remote_access,omitempty"`
	RemoteAccessEnabled bool   `json:"remote_access_enabled"`
	IP                  string `json:"ip,omitempty"`
	Wifi                Wifi   `json:"wifi"`

	// GogoGate2 only. APICode authorises activate commands for every door.
	APICode string `json:"-"`
	Outputs []bool `json:"outputs,omitempty"`

	// iSmartGate only. Pin is absent when the hub omits it.
	Pin         *int   `json:"pin,omitempty"`
	Lang        string `json:"lang,omitempty"`
	NewFirmware bool   `json:"new_firmware"`

	// Doors are in the order the hub reported them.
	Doors []Door `json:"doors"`
}

// Door returns the door with the given index.
func (i *Info) Door(index int) (Door, bool) {
	for _, d := range i.Doors {
		if d.Index == index {
			return d, true
		}
	}
	return Door{}, false
}

// ConfiguredDoors returns the doors that have been set up on the hub.
func (i *Info) ConfiguredDoors() []Door {
	var doors []Door
	for _, d := range i.Doors {
		if d.Configured() {
			doors = append(doors, d)
		}
	}
	return doors
}

// ActivationCode returns the device code an activate command for the door
// must carry. GogoGate2 hubs use one code for every door; iSmartGate hubs
// report a code per door. The result is empty when the hub did not list
// the door.
func (i *Info) ActivationCode(index int) string {
	if i.Family == FamilyGogoGate2 {
		return i.APICode
	}
	d, ok := i.Door(index)
	if !ok {
		return ""
	}
	return d.APICode
}

// Outcome describes what an open or close command did.
type Outcome int

const (
	// OutcomeActivated means the hub acknowledged a toggle of the door.
	OutcomeActivated Outcome = iota + 1
	// OutcomeAlreadyInState means the door was already in the requested
	// position and no command was sent.
	OutcomeAlreadyInState
)

func (o Outcome) String() string {
	switch o {
	case OutcomeActivated:
		return "activated"
	case OutcomeAlreadyInState:
		return "already_in_state"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// CommandResult is the outcome of an open, close or activate command.
// Target is StatusUnknown for a raw activate, which toggles without a
// destination.
type CommandResult struct {
	Door    int        `json:"door"`
	Target  DoorStatus `json:"target"`
	Status  DoorStatus `json:"status"`
	Outcome Outcome    `json:"outcome"`
}

// Changed reports whether a command was actually sent to the hub.
func (r CommandResult) Changed() bool {
	return r.Outcome == OutcomeActivated
}
