package device

import (
	"fmt"
	"strings"
)

// Summary returns a one-line summary of the hub
func (i *Info) Summary() string {
	name := i.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s %s %q (FW: %s, API: %s)", i.Family, i.Model, name, i.FirmwareVersion, i.APIVersion)
}

// FormatDeviceInfo returns the hub identification block
func (i *Info) FormatDeviceInfo() string {
	var b strings.Builder

	b.WriteString("=== Device Information ===\n")
	b.WriteString(fmt.Sprintf("Family:         %s\n", i.Family))
	b.WriteString(fmt.Sprintf("Name:           %s\n", i.Name))
	b.WriteString(fmt.Sprintf("Model:          %s\n", i.Model))
	b.WriteString(fmt.Sprintf("Firmware:       %s\n", i.FirmwareVersion))
	b.WriteString(fmt.Sprintf("API Version:    %s\n", i.APIVersion))
	b.WriteString(fmt.Sprintf("User:           %s\n", i.User))
	if i.Family == FamilyISmartGate {
		b.WriteString(fmt.Sprintf("Language:       %s\n", i.Lang))
		b.WriteString(fmt.Sprintf("New Firmware:   %s\n", yesNo(i.NewFirmware)))
	}

	return b.String()
}

// FormatNetwork returns the network and remote access block
func (i *Info) FormatNetwork() string {
	var b strings.Builder

	b.WriteString("=== Network ===\n")
	b.WriteString(fmt.Sprintf("IP Address:     %s\n", orNone(i.IP)))
	b.WriteString(fmt.Sprintf("WiFi SSID:      %s\n", orNone(i.Wifi.SSID)))
	b.WriteString(fmt.Sprintf("Link Quality:   %s\n", orNone(i.Wifi.LinkQuality)))
	b.WriteString(fmt.Sprintf("Signal:         %s\n", orNone(i.Wifi.Signal)))
	b.WriteString(fmt.Sprintf("Remote Access:  %s", yesNo(i.RemoteAccessEnabled)))
	if i.RemoteAccess != "" {
		b.WriteString(fmt.Sprintf(" (%s)", i.RemoteAccess))
	}
	b.WriteString("\n")

	return b.String()
}

// FormatDoors returns one block per door, configured or not
func (i *Info) FormatDoors() string {
	var b strings.Builder

	b.WriteString("=== Doors ===\n")
	if len(i.Doors) == 0 {
		b.WriteString("(none reported)\n")
		return b.String()
	}
	for _, d := range i.Doors {
		b.WriteString(d.StatusLine())
		b.WriteString("\n")
		if !d.Configured() {
			continue
		}
		b.WriteString(fmt.Sprintf("    Mode: %s  Gate: %s  Sensor: %s  Camera: %s\n",
			d.Mode, yesNo(d.Gate), yesNo(d.Sensor), yesNo(d.Camera)))
		if d.HasReadings() {
			b.WriteString("    " + d.ReadingsLine() + "\n")
		}
	}

	return b.String()
}

// FormatDetailed returns every block in display order
func (i *Info) FormatDetailed() string {
	var b strings.Builder

	b.WriteString(i.FormatDeviceInfo())
	b.WriteString("\n")
	b.WriteString(i.FormatNetwork())
	b.WriteString("\n")
	b.WriteString(i.FormatDoors())

	return b.String()
}

// FormatCompact returns a short multi-line view listing configured doors only
func (i *Info) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Device:   %s\n", i.Summary()))
	doors := i.ConfiguredDoors()
	if len(doors) == 0 {
		b.WriteString("Doors:    (none configured)\n")
		return b.String()
	}
	for _, d := range doors {
		b.WriteString(fmt.Sprintf("Door %d:   %s [%s]\n", d.Index, d.Name, d.Status))
	}

	return b.String()
}

// StatusLine renders a door as "Door N: name [status]"
func (d Door) StatusLine() string {
	if !d.Configured() {
		return fmt.Sprintf("Door %d: (not configured)", d.Index)
	}
	return fmt.Sprintf("Door %d: %s [%s]", d.Index, d.Name, d.Status)
}

// ReadingsLine renders the door's sensor readings, marking absent values
func (d Door) ReadingsLine() string {
	temp := "n/a"
	if d.Temperature != nil {
		temp = fmt.Sprintf("%.1f°C", *d.Temperature)
	}
	volt := "n/a"
	if d.Voltage != nil {
		volt = fmt.Sprintf("%d%%", *d.Voltage)
	}
	return fmt.Sprintf("Temperature: %s  Battery: %s", temp, volt)
}

// String renders the result for terminal output
func (r CommandResult) String() string {
	switch r.Outcome {
	case OutcomeAlreadyInState:
		return fmt.Sprintf("Door %d is already %s", r.Door, r.Status)
	case OutcomeActivated:
		if r.Target.Actionable() {
			return fmt.Sprintf("Door %d is now %s", r.Door, r.Status)
		}
		return fmt.Sprintf("Door %d activated", r.Door)
	default:
		return fmt.Sprintf("Door %d: %s", r.Door, r.Outcome)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
