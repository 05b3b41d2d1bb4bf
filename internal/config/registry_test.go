package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/muurk/gogogate/internal/device"
)

func TestDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only honoured on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if configDir != filepath.Join(dir, "gogogate") {
		t.Errorf("Dir() = %v", configDir)
	}
}

func TestPath(t *testing.T) {
	configPath, err := Path()
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("Path() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Profiles == nil {
		t.Error("NewRegistry().Profiles should not be nil")
	}
	if reg.Preferences == nil || reg.Preferences.Timeout != 20 || reg.Preferences.Format != "text" {
		t.Errorf("NewRegistry().Preferences = %+v", reg.Preferences)
	}
}

func TestSetProfile(t *testing.T) {
	reg := NewRegistry()

	err := reg.SetProfile("home", &Profile{Host: "192.168.1.30", Username: "admin", DeviceType: "ismartgate"})
	if err != nil {
		t.Fatalf("SetProfile() error = %v", err)
	}
	if reg.Default != "home" {
		t.Errorf("first profile should become the default, got %q", reg.Default)
	}

	if err := reg.SetProfile("cabin", &Profile{Host: "10.0.0.5", Username: "admin", DeviceType: "gg2"}); err != nil {
		t.Fatalf("SetProfile() error = %v", err)
	}
	if reg.Default != "home" {
		t.Errorf("default should not move, got %q", reg.Default)
	}

	family, err := reg.GetProfile("cabin").Family()
	if err != nil || family != device.FamilyGogoGate2 {
		t.Errorf("Family() = %v, %v", family, err)
	}
}

func TestSetProfile_Invalid(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		profile *Profile
	}{
		{"missing host", &Profile{Username: "admin", DeviceType: "gogogate2"}},
		{"missing username", &Profile{Host: "h", DeviceType: "gogogate2"}},
		{"bad device type", &Profile{Host: "h", Username: "admin", DeviceType: "garagemaster"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.SetProfile("x", tt.profile); err == nil {
				t.Error("SetProfile() should fail")
			}
		})
	}
	if err := reg.SetProfile("", &Profile{Host: "h", Username: "a", DeviceType: "isg"}); err == nil {
		t.Error("empty profile name should be rejected")
	}
}

func TestSetProfile_KeepsDoorLabels(t *testing.T) {
	reg := NewRegistry()
	_ = reg.SetProfile("home", &Profile{Host: "h", Username: "admin", DeviceType: "isg"})
	if err := reg.SetDoorLabel("home", 1, "Main garage"); err != nil {
		t.Fatalf("SetDoorLabel() error = %v", err)
	}

	_ = reg.SetProfile("home", &Profile{Host: "h2", Username: "admin", DeviceType: "isg"})
	if got := reg.GetProfile("home").DoorLabel(1); got != "Main garage" {
		t.Errorf("DoorLabel(1) = %q, want it kept across updates", got)
	}

	if err := reg.SetDoorLabel("home", 1, ""); err != nil {
		t.Fatal(err)
	}
	if got := reg.GetProfile("home").DoorLabel(1); got != "" {
		t.Errorf("DoorLabel(1) = %q, want cleared", got)
	}
	if err := reg.SetDoorLabel("home", 0, "x"); err == nil {
		t.Error("door 0 should be rejected")
	}
	if err := reg.SetDoorLabel("nope", 1, "x"); err == nil {
		t.Error("unknown profile should be rejected")
	}
}

func TestResolve(t *testing.T) {
	reg := NewRegistry()

	p, name, err := reg.Resolve("")
	if p != nil || name != "" || err != nil {
		t.Errorf("Resolve() on empty registry = %v, %q, %v", p, name, err)
	}

	_ = reg.SetProfile("home", &Profile{Host: "h", Username: "admin", DeviceType: "isg"})
	reg.Default = ""
	if _, name, _ := reg.Resolve(""); name != "home" {
		t.Errorf("single profile should resolve, got %q", name)
	}

	_ = reg.SetProfile("cabin", &Profile{Host: "c", Username: "admin", DeviceType: "gg2"})
	if err := reg.SetDefault("cabin"); err != nil {
		t.Fatal(err)
	}
	if _, name, _ := reg.Resolve(""); name != "cabin" {
		t.Errorf("Resolve(\"\") = %q, want default cabin", name)
	}
	if _, name, _ := reg.Resolve("home"); name != "home" {
		t.Errorf("Resolve(home) = %q", name)
	}
	if _, _, err := reg.Resolve("garage"); err == nil {
		t.Error("unknown profile should be an error")
	}
	if err := reg.SetDefault("garage"); err == nil {
		t.Error("SetDefault on unknown profile should fail")
	}
}

func TestRemoveProfile(t *testing.T) {
	reg := NewRegistry()
	_ = reg.SetProfile("home", &Profile{Host: "h", Username: "admin", DeviceType: "isg"})

	if !reg.RemoveProfile("home") {
		t.Error("RemoveProfile() = false, want true")
	}
	if reg.Default != "" {
		t.Errorf("Default = %q, want cleared", reg.Default)
	}
	if reg.RemoveProfile("home") {
		t.Error("second RemoveProfile() should return false")
	}
}

func TestProfileNames(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"b", "c", "a"} {
		_ = reg.SetProfile(n, &Profile{Host: "h", Username: "u", DeviceType: "isg"})
	}
	if got := strings.Join(reg.ProfileNames(), ","); got != "a,b,c" {
		t.Errorf("ProfileNames() = %q", got)
	}
}

func TestUpdateLastSeen(t *testing.T) {
	reg := NewRegistry()
	_ = reg.SetProfile("home", &Profile{Host: "h", Username: "admin", DeviceType: "isg"})

	reg.UpdateLastSeen("home", &device.Info{Name: "Cottage", FirmwareVersion: "1.5.9"})
	p := reg.GetProfile("home")
	if p.LastSeen.IsZero() || p.LastName != "Cottage" || p.Firmware != "1.5.9" {
		t.Errorf("profile after UpdateLastSeen = %+v", p)
	}

	reg.UpdateLastSeen("missing", &device.Info{})
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	reg := NewRegistry()
	_ = reg.SetProfile("home", &Profile{Host: "192.168.1.30", Username: "admin", DeviceType: "ismartgate"})
	_ = reg.SetDoorLabel("home", 2, "Driveway")
	reg.Preferences.Retries = 2

	if err := reg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(strings.ToLower(string(data)), "password:") {
		t.Error("config file must never contain a password field")
	}
	if runtime.GOOS != "windows" {
		if fi, _ := os.Stat(path); fi.Mode().Perm() != 0600 {
			t.Errorf("config file mode = %v, want 0600", fi.Mode().Perm())
		}
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	p := loaded.GetProfile("home")
	if p == nil || p.Host != "192.168.1.30" || p.DoorLabel(2) != "Driveway" {
		t.Errorf("loaded profile = %+v", p)
	}
	if loaded.Default != "home" || loaded.Preferences.Retries != 2 {
		t.Errorf("loaded registry = %+v", loaded)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries after save, want only config.yaml", len(entries))
	}
}

func TestLoadFile_Missing(t *testing.T) {
	reg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(reg.Profiles) != 0 {
		t.Error("missing file should give an empty registry")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("version: [\n"), 0600)
	if _, err := LoadFile(bad); err == nil {
		t.Error("malformed YAML should fail")
	}

	future := filepath.Join(dir, "future.yaml")
	_ = os.WriteFile(future, []byte("version: 2\n"), 0600)
	if _, err := LoadFile(future); err == nil || !strings.Contains(err.Error(), "unsupported config version") {
		t.Errorf("LoadFile() error = %v, want version error", err)
	}

	bare := filepath.Join(dir, "bare.yaml")
	_ = os.WriteFile(bare, []byte("version: 1\n"), 0600)
	reg, err := LoadFile(bare)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if reg.Profiles == nil || reg.Preferences == nil {
		t.Error("missing sections should be filled with defaults")
	}
}

func TestSaveAndLoadRegistry(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only honoured on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	_ = reg.SetProfile("home", &Profile{Host: "h", Username: "admin", DeviceType: "gg2"})
	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	again, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	if again == reg {
		t.Error("LoadRegistry() should read a fresh copy")
	}
	if again.GetProfile("home") == nil {
		t.Error("saved profile not found after reload")
	}
}
