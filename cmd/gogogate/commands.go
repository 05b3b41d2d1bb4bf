package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/gogogate/internal/device"
	"github.com/muurk/gogogate/internal/gate"
)

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("%s takes no arguments", cmd.CommandPath())
	}
	return nil
}

func doorArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usageErrorf("%s takes exactly one door number", cmd.CommandPath())
	}
	return nil
}

func argRange(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(lo, hi)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// parseDoor parses a door argument. Range checking is left to the client
// so that zero and negative doors fail the same way from every caller.
func parseDoor(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, usageErrorf("door must be a number, got %q", arg)
	}
	return n, nil
}

func (a *app) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show hub information and door states",
		Long: `Fetch a fresh snapshot of the hub: its name, model and firmware, and the
position of every door it reports. Doors without a name are listed as not
configured.`,
		Example: `  # Using the default profile
  gogogate info

  # Ad hoc, iSmartGate hub, JSON output
  gogogate info --host 192.168.1.20 -u admin --device-type ismartgate --format json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if !s.json() {
				s.printer.PrintHeader(s.header("Hub info", "gogogate info"))
			}

			info, err := await(cmd.Context(), s, "Fetching hub info", s.client.InfoAsync(cmd.Context()))
			if err != nil {
				return s.fail("Could not read hub info", err)
			}
			s.seen(info)

			if s.json() {
				return s.printer.PrintJSON(info)
			}
			s.printer.PrintInfo(info, s.labels())
			return nil
		},
	}
}

func (a *app) newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <door>",
		Short: "Open a door",
		Long: `Open a door if it is closed. The hub is asked for the door's state first;
a door that is already open is left alone.`,
		Example: `  gogogate open 1`,
		Args:    doorArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMove(cmd, args[0], device.StatusOpen)
		},
	}
}

func (a *app) newCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <door>",
		Short: "Close a door",
		Long: `Close a door if it is open. The hub is asked for the door's state first;
a door that is already closed is left alone.`,
		Example: `  gogogate close 2 --profile cottage`,
		Args:    doorArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMove(cmd, args[0], device.StatusClosed)
		},
	}
}

func (a *app) newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <door>",
		Short: "Toggle a door without checking its state",
		Long: `Send one activation to the door, as pressing the remote would. Use this
when the hub cannot report the door's position, for example when it has no
sensor.`,
		Example: `  gogogate activate 1`,
		Args:    doorArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			door, err := parseDoor(args[0])
			if err != nil {
				return err
			}
			return a.runCommand(cmd, door, "activate", fmt.Sprintf("Activating door %d", door),
				func(c *gate.Client) *gate.Future[device.CommandResult] {
					return c.ActivateAsync(cmd.Context(), door)
				})
		},
	}
}

func (a *app) newSensorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sensor <door>",
		Short: "Show a door's status, temperature and battery level",
		Example: `  gogogate sensor 1
  gogogate sensor 1 --format json`,
		Args: doorArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			door, err := parseDoor(args[0])
			if err != nil {
				return err
			}
			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if !s.json() {
				s.printer.PrintHeader(s.header(fmt.Sprintf("Door %d sensor", door), cmd.CommandPath()+" "+args[0]))
			}

			d, err := await(cmd.Context(), s, fmt.Sprintf("Reading door %d", door), s.client.DoorSensorAsync(cmd.Context(), door))
			if err != nil {
				return s.fail("Could not read door sensor", err)
			}

			if s.json() {
				return s.printer.PrintJSON(d)
			}
			s.printer.PrintSensor(d, s.label(door))
			return nil
		},
	}
}

func (a *app) runMove(cmd *cobra.Command, arg string, target device.DoorStatus) error {
	door, err := parseDoor(arg)
	if err != nil {
		return err
	}

	verb, op := "Opening", "open"
	if target == device.StatusClosed {
		verb, op = "Closing", "close"
	}
	return a.runCommand(cmd, door, op, fmt.Sprintf("%s door %d", verb, door),
		func(c *gate.Client) *gate.Future[device.CommandResult] {
			if target == device.StatusOpen {
				return c.OpenDoorAsync(cmd.Context(), door)
			}
			return c.CloseDoorAsync(cmd.Context(), door)
		})
}

func (a *app) runCommand(cmd *cobra.Command, door int, op, label string, run func(*gate.Client) *gate.Future[device.CommandResult]) error {
	s, err := a.newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if !s.json() {
		s.printer.PrintHeader(s.header(fmt.Sprintf("Door %d", door), fmt.Sprintf("gogogate %s %d", op, door)))
	}

	result, err := await(cmd.Context(), s, label, run(s.client))
	if err != nil {
		return s.fail(fmt.Sprintf("Could not %s door %d", op, door), err)
	}

	if s.json() {
		return s.printer.PrintJSON(result)
	}
	s.printer.PrintCommandResult(result, s.label(door))
	return nil
}
