// Package ui renders gogogate command output in the terminal.
//
// Output follows a "run once and exit" pattern: a Header names the command
// and hub, a spinner runs while the request is in flight, and a Result box
// reports what happened. Failures carry troubleshooting tips from
// gate.Hint. Nothing here is interactive beyond letting the user abandon a
// request with ctrl+c.
//
// Components are styled with Lipgloss. The spinner and the battery bar come
// from Bubbles and run on Bubble Tea. Callers pass --format json to bypass
// styling entirely through Printer.PrintJSON.
//
// Logging is controlled by GOGOGATE_LOG_LEVEL. When unset, zap is silent so
// the styled output stays clean.
package ui
