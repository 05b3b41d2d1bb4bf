package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/gogogate/internal/config"
	"github.com/muurk/gogogate/internal/device"
	"github.com/muurk/gogogate/internal/gate"
	"github.com/muurk/gogogate/internal/logging"
	"github.com/muurk/gogogate/internal/transport"
	"github.com/muurk/gogogate/internal/ui"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// session is one resolved connection to a hub.
type session struct {
	app         *app
	client      *gate.Client
	creds       device.Credentials
	family      device.Family
	format      string
	registry    *config.Registry
	profileName string
	profile     *config.Profile
	metrics     *prometheus.Registry
	printer     *ui.Printer
	errPrinter  *ui.Printer
}

func (a *app) loadRegistry() (*config.Registry, error) {
	if a.configPath != "" {
		return config.LoadFile(a.configPath)
	}
	return config.LoadRegistry()
}

func (a *app) saveRegistry(r *config.Registry) error {
	if a.configPath != "" {
		return r.SaveFile(a.configPath)
	}
	return r.Save()
}

// newSession resolves flags, the profile registry and the password into a
// ready client. Flags override profile values; profile preferences fill in
// flags the user did not set.
func (a *app) newSession(cmd *cobra.Command) (*session, error) {
	reg, err := a.loadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	profile, name, err := reg.Resolve(a.profile)
	if err != nil {
		return nil, &usageError{err: err}
	}
	// An explicit host without --profile is an ad hoc connection unless it
	// names the same hub as the default profile.
	if a.profile == "" && a.host != "" && profile != nil && !strings.EqualFold(profile.Host, a.host) {
		profile, name = nil, ""
	}

	s := &session{
		app:         a,
		registry:    reg,
		profileName: name,
		profile:     profile,
		printer:     ui.NewPrinter(a.stdout),
		errPrinter:  ui.NewPrinter(a.stderr),
	}

	s.creds.Host = a.host
	s.creds.Username = a.username
	deviceType := a.deviceType
	if profile != nil {
		if s.creds.Host == "" {
			s.creds.Host = profile.Host
		}
		if s.creds.Username == "" {
			s.creds.Username = profile.Username
		}
		if deviceType == "" {
			deviceType = profile.DeviceType
		}
	}
	if s.creds.Host == "" {
		return nil, usageErrorf("no hub given: pass --host or save a profile with 'gogogate profile save'")
	}
	if s.creds.Username == "" {
		return nil, usageErrorf("no username given: pass --username")
	}
	if deviceType == "" {
		deviceType = device.FamilyGogoGate2.String()
	}
	if s.family, err = device.ParseFamily(deviceType); err != nil {
		return nil, &usageError{err: err}
	}

	prefs := reg.Preferences
	if prefs == nil {
		prefs = config.DefaultPreferences()
	}
	flags := cmd.Flags()
	s.format = a.format
	if s.format == "" {
		s.format = prefs.Format
	}
	if s.format != formatJSON {
		s.format = formatText
	}
	timeout := a.timeout
	if !flags.Changed("timeout") && prefs.Timeout > 0 {
		timeout = time.Duration(prefs.Timeout) * time.Second
	}
	retries := a.retries
	if !flags.Changed("retries") && prefs.Retries > 0 {
		retries = prefs.Retries
	}

	if s.creds.Password, err = a.readPassword(s.creds); err != nil {
		return nil, err
	}

	logger := logging.GetLogger()
	var t transport.Transport
	httpTransport, err := transport.NewHTTPTransport(
		transport.WithTimeout(timeout),
		transport.WithRetries(retries, transport.DefaultRetryDelay),
		transport.WithLogger(logger),
	)
	if err != nil {
		return nil, &usageError{err: err}
	}
	t = httpTransport

	if a.metricsFile != "" {
		m := transport.NewMetrics()
		s.metrics = prometheus.NewRegistry()
		s.metrics.MustRegister(m.Collectors()...)
		t = transport.Instrument(t, m)
	}

	s.client, err = gate.New(s.creds, s.family, t, gate.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	logging.Debug("Session ready",
		zap.String("host", s.creds.Host),
		zap.String("family", s.family.String()),
		zap.String("profile", name),
		zap.Duration("timeout", timeout),
		zap.Int("retries", retries),
	)
	return s, nil
}

// readPassword resolves the password from the flag, the environment, stdin
// or an interactive prompt, in that order.
func (a *app) readPassword(creds device.Credentials) (string, error) {
	switch {
	case a.password == "-":
		line, err := bufio.NewReader(a.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return "", usageErrorf("empty password on stdin")
		}
		return line, nil
	case a.password != "":
		return a.password, nil
	}

	if env := os.Getenv(PasswordEnvVar); env != "" {
		return env, nil
	}

	if !a.interactive {
		return "", usageErrorf("no password given: pass --password, set %s or use --password -", PasswordEnvVar)
	}

	fmt.Fprintf(a.stderr, "Password for %s@%s: ", creds.Username, creds.Host)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(pw) == 0 {
		return "", usageErrorf("empty password")
	}
	return string(pw), nil
}

func (s *session) json() bool {
	return s.format == formatJSON
}

// labels returns the local door labels of the active profile
func (s *session) labels() map[int]string {
	if s.profile == nil {
		return nil
	}
	return s.profile.Doors
}

func (s *session) label(door int) string {
	if s.profile == nil {
		return ""
	}
	return s.profile.DoorLabel(door)
}

func (s *session) header(title, command string) *ui.Header {
	params := []ui.Param{
		{Key: "Host", Value: s.creds.Host},
		{Key: "Device type", Value: s.family.String()},
		{Key: "Username", Value: s.creds.Username},
	}
	if s.profileName != "" {
		params = append(params, ui.Param{Key: "Profile", Value: s.profileName})
	}
	return ui.NewHeader(title, command, params...)
}

// seen records a successful exchange on the active profile.
func (s *session) seen(info *device.Info) {
	if s.profileName == "" {
		return
	}
	s.registry.UpdateLastSeen(s.profileName, info)
	if err := s.app.saveRegistry(s.registry); err != nil {
		logging.Warn("Failed to update profile", zap.String("profile", s.profileName), zap.Error(err))
	}
}

// fail reports err in the session's output format and marks it reported.
func (s *session) fail(title string, err error) error {
	hints := gate.Hint(err)
	if s.json() {
		doc := struct {
			Error string   `json:"error"`
			Kind  string   `json:"kind,omitempty"`
			Hints []string `json:"hints,omitempty"`
		}{Error: err.Error(), Hints: hints}
		if k := gate.KindOf(err); k != 0 {
			doc.Kind = k.String()
		}
		_ = s.printer.PrintJSON(doc)
	} else {
		s.errPrinter.PrintError(title, err, hints)
	}
	return &reportedError{err: err}
}

// close writes the metrics file, if one was requested.
func (s *session) close() {
	if s.metrics == nil {
		return
	}
	if err := prometheus.WriteToTextfile(s.app.metricsFile, s.metrics); err != nil {
		logging.Warn("Failed to write metrics file", zap.String("path", s.app.metricsFile), zap.Error(err))
	}
}

// await waits for f, showing a spinner while it runs on an interactive
// terminal. Leaving the spinner with ctrl+c cancels the request.
func await[T any](ctx context.Context, s *session, label string, f *gate.Future[T]) (T, error) {
	if s.app.interactive && !s.json() {
		finished, err := ui.Wait(label, f.Done(), s.app.stdin, s.app.stderr)
		if err != nil {
			logging.Debug("Spinner unavailable", zap.Error(err))
		} else if !finished {
			f.Cancel()
		}
	}
	return f.Await(ctx)
}
