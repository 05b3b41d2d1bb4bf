package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName  = "gogogate"
	fileName = "config.yaml"
)

// saveMu keeps two saves from the same process interleaving.
var saveMu sync.Mutex

// Dir returns the directory holding the profile file.
//
//   - Windows: %LOCALAPPDATA%\gogogate
//   - macOS: ~/.config/gogogate
//   - elsewhere: $XDG_CONFIG_HOME/gogogate, or ~/.config/gogogate when unset
func Dir() (string, error) {
	if runtime.GOOS == "windows" {
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("neither LOCALAPPDATA nor USERPROFILE is set")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil
	}

	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" && runtime.GOOS != "darwin" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the location of the profile file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// LoadRegistry reads the profile file from its usual location.
func LoadRegistry() (*Registry, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a profile file. A missing file is an empty registry, not
// an error.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if registry.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", registry.Version)
	}

	if registry.Profiles == nil {
		registry.Profiles = make(map[string]*Profile)
	}
	if registry.Preferences == nil {
		registry.Preferences = DefaultPreferences()
	}
	return &registry, nil
}

// Save writes the registry to its usual location, creating the directory
// (mode 0700) when needed.
func (r *Registry) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return r.SaveFile(path)
}

// SaveFile writes the registry to path. The content goes to a temporary
// file in the same directory which then replaces path, so readers see
// either the old file or the new one.
func (r *Registry) SaveFile(path string) error {
	body, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}

	saveMu.Lock()
	defer saveMu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+fileName+"-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(fileHeader(), body...)); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func fileHeader() []byte {
	return []byte(`# gogogate profiles: host, username and device type per hub.
# Hub passwords are not kept here; supply them with --password,
# GOGOGATE_PASSWORD or at the prompt.

`)
}
