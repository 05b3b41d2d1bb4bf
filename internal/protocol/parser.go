package protocol

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/muurk/gogogate/internal/device"
)

// NoneValue is the sentinel the hub reports for a missing reading; any
// reading at or below it is treated as absent.
const NoneValue = -100000

var doorTag = regexp.MustCompile(`^door([1-9][0-9]*)$`)

// responseDocument covers every document the hub sends: info snapshots of
// both families, acknowledgements and error documents. Elements that are
// not fixed fields (doors among them) land in Other.
type responseDocument struct {
	Error  *errorElement `xml:"error"`
	Result *string       `xml:"result"`

	GogoGateName   *string `xml:"gogogatename"`
	ISmartGateName *string `xml:"ismartgatename"`

	User                *string `xml:"user"`
	Model               *string `xml:"model"`
	APIVersion          *string `xml:"apiversion"`
	RemoteAccessEnabled string  `xml:"remoteaccessenabled"`
	RemoteAccess        string  `xml:"remoteaccess"`
	FirmwareVersion     *string `xml:"firmwareversion"`
	Network             struct {
		IP string `xml:"ip"`
	} `xml:"network"`
	Wifi struct {
		SSID        string `xml:"SSID"`
		LinkQuality string `xml:"linkquality"`
		Signal      string `xml:"signal"`
	} `xml:"wifi"`

	// GogoGate2
	APICode *string         `xml:"apicode"`
	Outputs *outputsElement `xml:"outputs"`

	// iSmartGate
	Pin         string `xml:"pin"`
	Lang        string `xml:"lang"`
	NewFirmware string `xml:"newfirmware"`

	Other []doorElement `xml:",any"`
}

type errorElement struct {
	Code    *string `xml:"errorcode"`
	Message string  `xml:"errormsg"`
}

type outputsElement struct {
	Output1 string `xml:"output1"`
	Output2 string `xml:"output2"`
	Output3 string `xml:"output3"`
}

type doorElement struct {
	XMLName     xml.Name
	Permission  string  `xml:"permission"`
	Name        string  `xml:"name"`
	Gate        string  `xml:"gate"`
	Mode        *string `xml:"mode"`
	Status      *string `xml:"status"`
	Sensor      string  `xml:"sensor"`
	SensorID    string  `xml:"sensorid"`
	Camera      string  `xml:"camera"`
	Events      string  `xml:"events"`
	Temperature string  `xml:"temperature"`
	Voltage     string  `xml:"voltage"`
	Enabled     string  `xml:"enabled"`
	APICode     string  `xml:"apicode"`
	CustomImage string  `xml:"customimage"`
}

// decodeDocument parses untrusted XML. Document type declarations are
// refused outright; encoding/xml never resolves external entities and
// Strict mode rejects undeclared ones.
func decodeDocument(doc string) (*responseDocument, error) {
	d := xml.NewDecoder(strings.NewReader(doc))
	d.Strict = true

	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty document", ErrSchema)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed XML: %v", ErrSchema, err)
		}

		switch t := tok.(type) {
		case xml.Directive:
			return nil, fmt.Errorf("%w: document type declarations are not accepted", ErrSchema)
		case xml.StartElement:
			if t.Name.Local != "response" {
				return nil, fmt.Errorf("%w: unexpected root element <%s>", ErrSchema, t.Name.Local)
			}
			var r responseDocument
			if err := d.DecodeElement(&r, &t); err != nil {
				return nil, fmt.Errorf("%w: malformed XML: %v", ErrSchema, err)
			}
			return &r, nil
		}
	}
}

// deviceError converts an error element, if any, into a DeviceError.
func (r *responseDocument) deviceError() error {
	if r.Error == nil {
		return nil
	}
	if r.Error.Code == nil {
		return fmt.Errorf("%w: error document without errorcode", ErrSchema)
	}
	code, err := strconv.Atoi(strings.TrimSpace(*r.Error.Code))
	if err != nil {
		return fmt.Errorf("%w: non-numeric errorcode %q", ErrSchema, *r.Error.Code)
	}
	return &DeviceError{Code: code, Message: strings.TrimSpace(r.Error.Message)}
}

// ParseDeviceInfo parses a decrypted info document. The family is decided
// by which name tag is present before any family-specific field is read.
// An error document yields a *DeviceError.
func ParseDeviceInfo(doc string) (*device.Info, error) {
	r, err := decodeDocument(doc)
	if err != nil {
		return nil, err
	}
	if err := r.deviceError(); err != nil {
		return nil, err
	}

	switch {
	case r.GogoGateName != nil && r.ISmartGateName != nil:
		return nil, fmt.Errorf("%w: document names both hub families", ErrSchema)
	case r.GogoGateName != nil:
		return parseGogoGate2(r)
	case r.ISmartGateName != nil:
		return parseISmartGate(r)
	default:
		return nil, fmt.Errorf("%w: neither gogogatename nor ismartgatename present", ErrSchema)
	}
}

func parseGogoGate2(r *responseDocument) (*device.Info, error) {
	info, err := parseCommon(r, device.FamilyGogoGate2, *r.GogoGateName)
	if err != nil {
		return nil, err
	}
	if r.APICode == nil {
		return nil, fmt.Errorf("%w: missing <apicode>", ErrSchema)
	}
	info.APICode = strings.TrimSpace(*r.APICode)
	info.RemoteAccessEnabled = strings.TrimSpace(r.RemoteAccessEnabled) == "1"
	if r.Outputs != nil {
		info.Outputs = []bool{isOn(r.Outputs.Output1), isOn(r.Outputs.Output2), isOn(r.Outputs.Output3)}
	}
	return info, nil
}

func parseISmartGate(r *responseDocument) (*device.Info, error) {
	info, err := parseCommon(r, device.FamilyISmartGate, *r.ISmartGateName)
	if err != nil {
		return nil, err
	}
	info.RemoteAccessEnabled = isYes(r.RemoteAccessEnabled)
	info.Pin = optionalInt(r.Pin, false)
	info.Lang = strings.TrimSpace(r.Lang)
	info.NewFirmware = isYes(r.NewFirmware)
	return info, nil
}

func parseCommon(r *responseDocument, family device.Family, name string) (*device.Info, error) {
	required := []struct {
		tag   string
		value *string
	}{
		{"user", r.User},
		{"model", r.Model},
		{"apiversion", r.APIVersion},
		{"firmwareversion", r.FirmwareVersion},
	}
	for _, f := range required {
		if f.value == nil {
			return nil, fmt.Errorf("%w: missing <%s>", ErrSchema, f.tag)
		}
	}

	info := &device.Info{
		Family:          family,
		Name:            strings.TrimSpace(name),
		User:            strings.TrimSpace(*r.User),
		Model:           strings.TrimSpace(*r.Model),
		APIVersion:      strings.TrimSpace(*r.APIVersion),
		FirmwareVersion: strings.TrimSpace(*r.FirmwareVersion),
		RemoteAccess:    strings.TrimSpace(r.RemoteAccess),
		IP:              strings.TrimSpace(r.Network.IP),
		Wifi: device.Wifi{
			SSID:        strings.TrimSpace(r.Wifi.SSID),
			LinkQuality: strings.TrimSpace(r.Wifi.LinkQuality),
			Signal:      strings.TrimSpace(r.Wifi.Signal),
		},
	}

	seen := make(map[int]bool)
	for _, el := range r.Other {
		m := doorTag.FindStringSubmatch(el.XMLName.Local)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: door index %q out of range", ErrSchema, m[1])
		}
		if seen[index] {
			return nil, fmt.Errorf("%w: duplicate <%s>", ErrSchema, el.XMLName.Local)
		}
		seen[index] = true

		door, err := parseDoor(index, el, family)
		if err != nil {
			return nil, err
		}
		info.Doors = append(info.Doors, door)
	}

	return info, nil
}

func parseDoor(index int, el doorElement, family device.Family) (device.Door, error) {
	if el.Status == nil {
		return device.Door{}, fmt.Errorf("%w: <door%d> missing <status>", ErrSchema, index)
	}
	if el.Mode == nil {
		return device.Door{}, fmt.Errorf("%w: <door%d> missing <mode>", ErrSchema, index)
	}

	door := device.Door{
		Index:       index,
		Name:        strings.TrimSpace(el.Name),
		Status:      device.ParseDoorStatus(*el.Status),
		Mode:        device.ParseDoorMode(*el.Mode),
		Permission:  isYes(el.Permission),
		Sensor:      isYes(el.Sensor),
		SensorID:    strings.TrimSpace(el.SensorID),
		Camera:      isYes(el.Camera),
		Events:      optionalInt(el.Events, false),
		Temperature: optionalReading(el.Temperature),
		Voltage:     optionalInt(el.Voltage, true),
	}
	if family == device.FamilyISmartGate {
		door.Gate = isYes(el.Gate)
		door.Enabled = isYes(el.Enabled)
		door.CustomImage = isYes(el.CustomImage)
		door.APICode = strings.TrimSpace(el.APICode)
	}
	return door, nil
}

// ParseCommandAck parses the acknowledgement of an activate command for
// door. target is the position the command was sent to reach, or
// StatusUnknown for a bare toggle.
func ParseCommandAck(doc string, door int, target device.DoorStatus) (device.CommandResult, error) {
	r, err := decodeDocument(doc)
	if err != nil {
		return device.CommandResult{}, err
	}
	if err := r.deviceError(); err != nil {
		return device.CommandResult{}, err
	}
	if r.Result == nil {
		return device.CommandResult{}, fmt.Errorf("%w: missing <result>", ErrSchema)
	}
	if result := strings.TrimSpace(*r.Result); !strings.EqualFold(result, "ok") {
		return device.CommandResult{}, fmt.Errorf("%w: result %q", ErrRejected, result)
	}

	return device.CommandResult{
		Door:    door,
		Target:  target,
		Status:  target,
		Outcome: device.OutcomeActivated,
	}, nil
}

func isYes(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "yes")
}

func isOn(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "on")
}

// optionalReading parses a temperature. Missing, malformed and sentinel
// values are all absent.
func optionalReading(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= NoneValue {
		return nil
	}
	return &v
}

func optionalInt(s string, sentinel bool) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || (sentinel && v <= NoneValue) {
		return nil
	}
	return &v
}
