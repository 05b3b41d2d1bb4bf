package device

import (
	"encoding/json"
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// Test fixture: a GogoGate2 hub with one open, one closed and one empty slot
func getSampleInfo() *Info {
	return &Info{
		Family:          FamilyGogoGate2,
		Name:            "Home",
		User:            "admin",
		Model:           "GG2",
		FirmwareVersion: "761",
		APIVersion:      "apiversion123",
		APICode:         "abc123",
		IP:              "127.0.0.1",
		Wifi:            Wifi{SSID: "Wifi network", LinkQuality: "80%", Signal: "20"},
		Outputs:         []bool{true, false, false},
		Doors: []Door{
			{Index: 1, Name: "My Door 1", Status: StatusClosed, Mode: ModeGarage, Sensor: true, Temperature: floatPtr(16.3), Voltage: intPtr(40)},
			{Index: 2, Name: "My Door 2", Status: StatusOpen, Mode: ModeGarage, Gate: true},
			{Index: 3, Status: StatusUnknown, Mode: ModeGarage},
		},
	}
}

func TestParseFamily(t *testing.T) {
	tests := []struct {
		input   string
		want    Family
		wantErr bool
	}{
		{"gogogate2", FamilyGogoGate2, false},
		{"GG2", FamilyGogoGate2, false},
		{"ismartgate", FamilyISmartGate, false},
		{" iSmartGate ", FamilyISmartGate, false},
		{"isg", FamilyISmartGate, false},
		{"", FamilyUnknown, true},
		{"garage", FamilyUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFamily(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFamily(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFamily(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr string
	}{
		{"complete", Credentials{Host: "10.0.0.2", Username: "admin", Password: "secret"}, ""},
		{"missing host", Credentials{Username: "admin", Password: "secret"}, "host"},
		{"missing password", Credentials{Host: "10.0.0.2", Username: "admin"}, "password"},
		{"empty", Credentials{}, "host, username, password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseDoorStatus(t *testing.T) {
	tests := []struct {
		input string
		want  DoorStatus
	}{
		{"opened", StatusOpen},
		{"closed", StatusClosed},
		{" CLOSED\n", StatusClosed},
		{"undefined", StatusUnknown},
		{"opening", StatusUnknown},
		{"", StatusUnknown},
	}

	for _, tt := range tests {
		if got := ParseDoorStatus(tt.input); got != tt.want {
			t.Errorf("ParseDoorStatus(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDoorStatus_Actionable(t *testing.T) {
	if !StatusOpen.Actionable() || !StatusClosed.Actionable() {
		t.Error("open and closed should be actionable")
	}
	if StatusUnknown.Actionable() {
		t.Error("unknown should not be actionable")
	}
}

func TestParseDoorMode(t *testing.T) {
	if got := ParseDoorMode("pulse"); got != ModePulse {
		t.Errorf("ParseDoorMode(pulse) = %v", got)
	}
	if got := ParseDoorMode("onoff"); got != ModeOnOff {
		t.Errorf("ParseDoorMode(onoff) = %v", got)
	}
	if got := ParseDoorMode("sliding"); got != ModeUnknown {
		t.Errorf("ParseDoorMode(sliding) = %v, want unknown", got)
	}
}

func TestDoor_InState(t *testing.T) {
	open := Door{Index: 1, Name: "Garage", Status: StatusOpen}
	if !open.InState(StatusOpen) {
		t.Error("open door should be in state open")
	}
	if open.InState(StatusClosed) {
		t.Error("open door should not be in state closed")
	}

	unknown := Door{Index: 1, Name: "Garage", Status: StatusUnknown}
	if unknown.InState(StatusUnknown) {
		t.Error("unknown is never a target state")
	}
}

func TestInfo_Door(t *testing.T) {
	info := getSampleInfo()

	door, ok := info.Door(2)
	if !ok {
		t.Fatal("Door(2) not found")
	}
	if door.Name != "My Door 2" {
		t.Errorf("Door(2).Name = %q", door.Name)
	}

	if _, ok := info.Door(4); ok {
		t.Error("Door(4) should not exist")
	}
}

func TestInfo_ConfiguredDoors(t *testing.T) {
	info := getSampleInfo()
	doors := info.ConfiguredDoors()

	if len(doors) != 2 {
		t.Fatalf("ConfiguredDoors() returned %d doors, want 2", len(doors))
	}
	if doors[0].Index != 1 || doors[1].Index != 2 {
		t.Errorf("ConfiguredDoors() order = %d,%d, want 1,2", doors[0].Index, doors[1].Index)
	}
}

func TestInfo_ActivationCode(t *testing.T) {
	gg2 := getSampleInfo()
	if got := gg2.ActivationCode(1); got != "abc123" {
		t.Errorf("GogoGate2 ActivationCode(1) = %q, want root code", got)
	}
	if got := gg2.ActivationCode(9); got != "abc123" {
		t.Errorf("GogoGate2 ActivationCode(9) = %q, want root code", got)
	}

	isg := &Info{
		Family: FamilyISmartGate,
		Doors: []Door{
			{Index: 1, Name: "A", APICode: "code-1"},
			{Index: 2, Name: "B", APICode: "code-2"},
		},
	}
	if got := isg.ActivationCode(2); got != "code-2" {
		t.Errorf("iSmartGate ActivationCode(2) = %q, want code-2", got)
	}
	if got := isg.ActivationCode(3); got != "" {
		t.Errorf("iSmartGate ActivationCode(3) = %q, want empty", got)
	}
}

func TestInfo_JSONHidesAPICodes(t *testing.T) {
	info := getSampleInfo()
	info.Doors[0].APICode = "door-secret"

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	out := string(data)
	if strings.Contains(out, "abc123") || strings.Contains(out, "door-secret") {
		t.Errorf("JSON output leaks api codes: %s", out)
	}
	if !strings.Contains(out, `"family":"gogogate2"`) {
		t.Errorf("JSON output missing family: %s", out)
	}
	if !strings.Contains(out, `"status":"closed"`) {
		t.Errorf("JSON output missing door status: %s", out)
	}
}

func TestCommandResult_Changed(t *testing.T) {
	if !(CommandResult{Outcome: OutcomeActivated}).Changed() {
		t.Error("activated result should report a change")
	}
	if (CommandResult{Outcome: OutcomeAlreadyInState}).Changed() {
		t.Error("already-in-state result should not report a change")
	}
}
