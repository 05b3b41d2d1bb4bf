// Gogogate-sim serves an emulated GogoGate2 or iSmartGate hub.
//
// The emulator speaks the hub's local API over plain HTTP: it decrypts
// commands with the family's key, checks credentials, tokens and activation
// codes, and answers with encrypted XML or plaintext error documents. Door
// positions toggle on activation. It is meant for trying the gogogate CLI
// without a real hub.
//
// Usage:
//
//	gogogate-sim [flags]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/gogogate/internal/device"
	"github.com/muurk/gogogate/internal/server"
	"github.com/muurk/gogogate/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	host       string
	port       int
	deviceType string
	username   string
	password   string
	apiCode    string
	name       string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "gogogate-sim",
	Short: "Emulated GogoGate2 / iSmartGate hub",
	Long: `Serve an emulated garage door hub on the local API protocol.

The hub reports three doors: door 1 closed with a sensor, door 2 open
without readings, and door 3 not configured. Activating a configured door
toggles it between open and closed.`,
	Example: `  # GogoGate2 hub on port 8080
  gogogate-sim --port 8080

  # iSmartGate hub with custom credentials and debug logging
  gogogate-sim --device-type ismartgate -u owner -p s3cret --log-level debug`,
	Version:      version.Version,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runSim,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&host, "host", "127.0.0.1", "Listen address (empty = all interfaces)")
	rootCmd.Flags().IntVar(&port, "port", 8080, "Listen port")
	rootCmd.Flags().StringVar(&deviceType, "device-type", "gogogate2", "Hub family: gogogate2 or ismartgate")
	rootCmd.Flags().StringVarP(&username, "username", "u", "admin", "Hub username")
	rootCmd.Flags().StringVarP(&password, "password", "p", "password", "Hub password")
	rootCmd.Flags().StringVar(&apiCode, "api-code", "", "Activation code (default api_code1)")
	rootCmd.Flags().StringVar(&name, "name", "", "Hub name (default depends on --device-type)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

func runSim(cmd *cobra.Command, args []string) error {
	family, err := device.ParseFamily(deviceType)
	if err != nil {
		return err
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	srv, err := server.New(&server.Config{
		Host:     host,
		Port:     port,
		Family:   family,
		Username: username,
		Password: password,
		APICode:  apiCode,
		Name:     name,
		LogLevel: logLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to create emulator: %w", err)
	}

	return srv.Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gogogate-sim %s\n", version.Full())
	},
}
