// Package config manages the user configuration file.
//
// The file holds named profiles, each remembering a hub's host, the
// account username and the device type, plus application preferences.
// Commands pick a profile with --profile; explicit flags override it.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/gogogate/config.yaml or $HOME/.config/gogogate/config.yaml
//   - macOS: $HOME/.config/gogogate/config.yaml
//   - Windows: %LOCALAPPDATA%\gogogate\config.yaml
//
// # Security
//
// Passwords are NEVER stored. They are prompted for, or read from stdin
// with --password -, on every run.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    return err
//	}
//	if err := registry.SetProfile("home", &config.Profile{
//	    Host:       "192.168.1.30",
//	    Username:   "admin",
//	    DeviceType: "ismartgate",
//	}); err != nil {
//	    return err
//	}
//	return registry.Save()
//
// Saves are atomic: the file is written to a temporary path and renamed.
package config
