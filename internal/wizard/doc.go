// Package wizard implements the interactive form behind 'gogogate setup'.
//
// The form collects a profile name, the hub address, the credentials and
// the device type with Bubble Tea text inputs. The caller checks the answers
// against the hub before saving anything, and only the profile (never the
// password) is written to disk.
package wizard
