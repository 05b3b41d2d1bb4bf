package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/muurk/gogogate/internal/device"
)

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                 `yaml:"version"`
	Default     string              `yaml:"default,omitempty"`  // Profile used when none is named
	Profiles    map[string]*Profile `yaml:"profiles,omitempty"` // Keyed by profile name
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Profile remembers how to reach one hub.
// Note: Passwords are NEVER stored - they are always prompted from the user.
type Profile struct {
	Host       string         `yaml:"host"`
	Username   string         `yaml:"username"`
	DeviceType string         `yaml:"device_type"`             // gogogate2 or ismartgate
	Doors      map[int]string `yaml:"doors,omitempty"`         // Local door labels, keyed by door index
	LastSeen   time.Time      `yaml:"last_seen,omitempty"`     // Last successful command
	LastName   string         `yaml:"last_hub_name,omitempty"` // Hub name reported at LastSeen
	Firmware   string         `yaml:"last_firmware,omitempty"` // Firmware reported at LastSeen
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	Format  string `yaml:"format"`  // text or json
	Timeout int    `yaml:"timeout"` // Request timeout in seconds
	Retries int    `yaml:"retries"` // Transport retries for undelivered requests
}

// DefaultPreferences returns the preferences used when the file has none.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Format:  "text",
		Timeout: 20,
		Retries: 0,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Profiles:    make(map[string]*Profile),
		Preferences: DefaultPreferences(),
	}
}

// Validate checks that the profile can be used to build a client.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("profile host must not be empty")
	}
	if strings.TrimSpace(p.Username) == "" {
		return fmt.Errorf("profile username must not be empty")
	}
	_, err := p.Family()
	return err
}

// Family parses the profile's device type.
func (p *Profile) Family() (device.Family, error) {
	return device.ParseFamily(p.DeviceType)
}

// DoorLabel returns the local label for a door, if one was set.
func (p *Profile) DoorLabel(index int) string {
	return p.Doors[index]
}

// GetProfile retrieves a profile by name.
// Returns nil if the profile doesn't exist in the registry.
func (r *Registry) GetProfile(name string) *Profile {
	return r.Profiles[name]
}

// SetProfile adds or replaces a profile. The first profile saved becomes
// the default.
func (r *Registry) SetProfile(name string, p *Profile) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("profile name must not be empty")
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", name, err)
	}

	if r.Profiles == nil {
		r.Profiles = make(map[string]*Profile)
	}
	if existing, ok := r.Profiles[name]; ok && p.Doors == nil {
		p.Doors = existing.Doors
	}
	r.Profiles[name] = p
	if r.Default == "" {
		r.Default = name
	}
	return nil
}

// RemoveProfile deletes a profile. Returns false if it did not exist.
func (r *Registry) RemoveProfile(name string) bool {
	if _, ok := r.Profiles[name]; !ok {
		return false
	}
	delete(r.Profiles, name)
	if r.Default == name {
		r.Default = ""
	}
	return true
}

// SetDefault makes an existing profile the default.
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	r.Default = name
	return nil
}

// Resolve finds the profile to use. An empty name means the default
// profile, or the only profile if there is exactly one. Resolve returns
// nil without error when nothing applies.
func (r *Registry) Resolve(name string) (*Profile, string, error) {
	if name != "" {
		p, ok := r.Profiles[name]
		if !ok {
			return nil, "", fmt.Errorf("profile %q not found", name)
		}
		return p, name, nil
	}
	if r.Default != "" {
		if p, ok := r.Profiles[r.Default]; ok {
			return p, r.Default, nil
		}
	}
	if len(r.Profiles) == 1 {
		for n, p := range r.Profiles {
			return p, n, nil
		}
	}
	return nil, "", nil
}

// ProfileNames returns all profile names in sorted order.
func (r *Registry) ProfileNames() []string {
	names := make([]string, 0, len(r.Profiles))
	for name := range r.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetDoorLabel sets a local label for a door of a profile.
func (r *Registry) SetDoorLabel(name string, door int, label string) error {
	p, ok := r.Profiles[name]
	if !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	if door < 1 {
		return fmt.Errorf("door index must be a positive integer, got %d", door)
	}
	if p.Doors == nil {
		p.Doors = make(map[int]string)
	}
	if label == "" {
		delete(p.Doors, door)
		return nil
	}
	p.Doors[door] = label
	return nil
}

// UpdateLastSeen records a successful exchange with a profile's hub.
func (r *Registry) UpdateLastSeen(name string, info *device.Info) {
	p, ok := r.Profiles[name]
	if !ok || info == nil {
		return
	}
	p.LastSeen = time.Now()
	p.LastName = info.Name
	p.Firmware = info.FirmwareVersion
}
