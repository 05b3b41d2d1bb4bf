package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/gogogate/internal/device"
)

// Printer writes styled command output to a writer.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer. If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Width returns the width this printer renders at
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = clampWidth(width)
	return p
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(h *Header) {
	p.Println(h.SetWidth(p.width).Render())
}

// PrintResult prints a result box
func (p *Printer) PrintResult(r *Result) {
	p.Println(r.SetWidth(p.width).Render())
}

// PrintError prints a failure box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.PrintResult(NewFailureResult(title, err, troubleshooting))
}

// PrintJSON writes v as indented JSON
func (p *Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintInfo prints the hub summary followed by a table of its doors.
// labels holds local door names that override the hub's names.
func (p *Printer) PrintInfo(info *device.Info, labels map[int]string) {
	details := []Param{
		{Key: "Name", Value: info.Name},
		{Key: "Model", Value: info.Model},
		{Key: "Family", Value: info.Family.String()},
		{Key: "Firmware", Value: info.FirmwareVersion},
		{Key: "API version", Value: info.APIVersion},
		{Key: "User", Value: info.User},
	}
	if info.IP != "" {
		details = append(details, Param{Key: "IP", Value: info.IP})
	}
	if info.Wifi.SSID != "" {
		details = append(details, Param{Key: "Wifi", Value: fmt.Sprintf("%s (signal %s)", info.Wifi.SSID, info.Wifi.Signal)})
	}
	if info.NewFirmware {
		details = append(details, Param{Key: "Update", Value: "new firmware available"})
	}
	p.PrintResult(NewSuccessResult("Hub reachable", details...))
	p.Println(RenderDoorTable(info.Doors, labels))
}

// PrintCommandResult prints the outcome of an open, close or activate command
func (p *Printer) PrintCommandResult(r device.CommandResult, label string) {
	details := []Param{{Key: "Door", Value: doorName(r.Door, label)}}
	if r.Target.Actionable() {
		details = append(details, Param{Key: "Status", Value: StatusStyle(r.Status).Render(r.Status.String())})
	}

	if r.Changed() {
		p.PrintResult(NewSuccessResult(r.String(), details...))
		return
	}
	p.PrintResult(NewWarningResult(r.String(), details...))
}

// PrintSensor prints one door's status and sensor readings
func (p *Printer) PrintSensor(d device.Door, label string) {
	temp := "n/a"
	if d.Temperature != nil {
		temp = fmt.Sprintf("%.1f°C", *d.Temperature)
	}
	p.PrintResult(NewSuccessResult(fmt.Sprintf("Door %d", d.Index),
		Param{Key: "Name", Value: doorName(d.Index, labelOr(label, d.Name))},
		Param{Key: "Status", Value: StatusStyle(d.Status).Render(d.Status.String())},
		Param{Key: "Temperature", Value: temp},
		Param{Key: "Battery", Value: BatteryBar(d.Voltage, p.width/3)},
	))
}

// RenderDoorTable renders one line per door with its status coloured.
func RenderDoorTable(doors []device.Door, labels map[int]string) string {
	if len(doors) == 0 {
		return MutedStyle.Render("  No doors reported")
	}

	lines := make([]string, 0, len(doors))
	for _, d := range doors {
		index := ResultKeyStyle.Render(fmt.Sprintf("  Door %d", d.Index))
		if !d.Configured() {
			lines = append(lines, index+" "+MutedStyle.Render("not configured"))
			continue
		}
		name := lipgloss.NewStyle().Width(24).Render(labelOr(labels[d.Index], d.Name))
		lines = append(lines, index+" "+name+" "+StatusStyle(d.Status).Render(d.Status.String()))
	}
	return strings.Join(lines, "\n")
}

func doorName(index int, label string) string {
	if label == "" {
		return fmt.Sprintf("%d", index)
	}
	return fmt.Sprintf("%d (%s)", index, label)
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}
