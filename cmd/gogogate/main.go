// Gogogate controls GogoGate2 and iSmartGate garage door hubs over their
// local HTTP API.
//
// Usage:
//
//	gogogate [command] [flags]
//
// Connection details come from flags or from a saved profile.
// See 'gogogate --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/gogogate/internal/gate"
	"github.com/muurk/gogogate/internal/logging"
	"github.com/muurk/gogogate/internal/transport"
	"github.com/muurk/gogogate/internal/ui"
	"github.com/muurk/gogogate/internal/version"
)

// Exit codes
const (
	exitOK              = 0
	exitFailure         = 1
	exitInvalidArgument = 2
	exitTransport       = 3
	exitDecryption      = 4
	exitProtocol        = 5
)

// PasswordEnvVar supplies the password when --password is not given
const PasswordEnvVar = "GOGOGATE_PASSWORD"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	a.interactive = ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stderr)

	err := a.execute(ctx, os.Args[1:])
	logging.Sync()
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(exitCode(err))
	}
}

// app holds the flag values and streams of one invocation.
type app struct {
	host        string
	username    string
	password    string
	deviceType  string
	profile     string
	configPath  string
	format      string
	timeout     time.Duration
	retries     int
	logLevel    string
	metricsFile string

	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	interactive bool

	root *cobra.Command
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	a.root = a.newRootCmd()
	return a
}

func (a *app) execute(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	a.root.SetIn(a.stdin)
	a.root.SetOut(a.stdout)
	a.root.SetErr(a.stderr)
	return a.root.ExecuteContext(ctx)
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gogogate",
		Short: "GogoGate2 / iSmartGate garage door controller",
		Long: `Control GogoGate2 and iSmartGate garage door hubs over their local API.

Every command talks to the hub directly over HTTP on the local network. The
username and password are the ones used for the hub's own web interface.

Connection details can be saved as a named profile with 'gogogate profile
save'. Passwords are never saved: pass --password, set GOGOGATE_PASSWORD,
pipe it with --password -, or type it at the prompt.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Initialize(a.logLevel); err != nil {
				return err
			}
			switch a.format {
			case "", formatText, formatJSON:
				return nil
			default:
				return usageErrorf("unknown output format %q (expected text or json)", a.format)
			}
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.host, "host", "", "Hub hostname or IP address")
	flags.StringVarP(&a.username, "username", "u", "", "Hub username")
	flags.StringVarP(&a.password, "password", "p", "", "Hub password ('-' reads it from stdin)")
	flags.StringVar(&a.deviceType, "device-type", "", "Hub family: gogogate2 or ismartgate (default gogogate2)")
	flags.StringVar(&a.profile, "profile", "", "Saved profile to use (default: the default profile)")
	flags.StringVar(&a.configPath, "config", "", "Profile file (default: the user config directory)")
	flags.StringVar(&a.format, "format", "", "Output format: text or json (default text)")
	flags.DurationVar(&a.timeout, "timeout", transport.DefaultTimeout, "Request timeout")
	flags.IntVar(&a.retries, "retries", 0, "Retries for requests that never reached the hub")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); logs go to stderr")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write request metrics in Prometheus text format to this file")

	root.AddCommand(
		a.newInfoCmd(),
		a.newOpenCmd(),
		a.newCloseCmd(),
		a.newActivateCmd(),
		a.newSensorCmd(),
		a.newProfileCmd(),
		a.newSetupCmd(),
		a.newVersionCmd(),
	)
	return root
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "gogogate %s\n", version.Full())
		},
	}
}

// usageError is a problem with flags or arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// reportedError has already been shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return exitInvalidArgument
	}
	switch gate.KindOf(err) {
	case gate.KindInvalidArgument:
		return exitInvalidArgument
	case gate.KindTransport:
		return exitTransport
	case gate.KindDecryption:
		return exitDecryption
	case gate.KindProtocol:
		return exitProtocol
	default:
		return exitFailure
	}
}
