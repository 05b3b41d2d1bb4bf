package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/muurk/gogogate/internal/config"
	"github.com/muurk/gogogate/internal/device"
	"github.com/muurk/gogogate/internal/ui"
	"github.com/muurk/gogogate/internal/wizard"
)

func (a *app) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage saved hub profiles",
		Long: `Profiles save a hub's host, username and device type under a name so
they need not be repeated on every command. Passwords are never saved.`,
	}
	cmd.AddCommand(
		a.newProfileSaveCmd(),
		a.newProfileListCmd(),
		a.newProfileRemoveCmd(),
		a.newProfileDefaultCmd(),
		a.newProfileLabelCmd(),
	)
	return cmd
}

func (a *app) newProfileSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name>",
		Short: "Save the connection flags as a profile",
		Example: `  gogogate profile save home --host 192.168.1.20 -u admin
  gogogate profile save cottage --host 10.0.0.5 -u admin --device-type ismartgate`,
		Args: argRange(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return fmt.Errorf("failed to load profiles: %w", err)
			}

			deviceType := a.deviceType
			if deviceType == "" {
				deviceType = device.FamilyGogoGate2.String()
			}
			family, err := device.ParseFamily(deviceType)
			if err != nil {
				return &usageError{err: err}
			}

			p := &config.Profile{Host: a.host, Username: a.username, DeviceType: family.String()}
			if err := reg.SetProfile(args[0], p); err != nil {
				return &usageError{err: err}
			}
			if err := a.saveRegistry(reg); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Saved profile %q (%s@%s, %s)\n", args[0], p.Username, p.Host, p.DeviceType)
			return nil
		},
	}
}

func (a *app) newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return fmt.Errorf("failed to load profiles: %w", err)
			}

			names := reg.ProfileNames()
			if a.format == formatJSON {
				return ui.NewPrinter(a.stdout).PrintJSON(reg.Profiles)
			}
			if len(names) == 0 {
				fmt.Fprintln(a.stdout, "No profiles saved. Use 'gogogate profile save <name>' to add one.")
				return nil
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\tNAME\tHOST\tUSER\tTYPE\tLAST SEEN")
			for _, name := range names {
				p := reg.Profiles[name]
				marker := ""
				if name == reg.Default {
					marker = "*"
				}
				seen := "never"
				if !p.LastSeen.IsZero() {
					seen = p.LastSeen.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", marker, name, p.Host, p.Username, p.DeviceType, seen)
			}
			return w.Flush()
		},
	}
}

func (a *app) newProfileRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a profile",
		Args:  argRange(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return fmt.Errorf("failed to load profiles: %w", err)
			}
			if !reg.RemoveProfile(args[0]) {
				return usageErrorf("profile %q not found", args[0])
			}
			if err := a.saveRegistry(reg); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Removed profile %q\n", args[0])
			return nil
		},
	}
}

func (a *app) newProfileDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Make a profile the default",
		Args:  argRange(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return fmt.Errorf("failed to load profiles: %w", err)
			}
			if err := reg.SetDefault(args[0]); err != nil {
				return &usageError{err: err}
			}
			if err := a.saveRegistry(reg); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Default profile is now %q\n", args[0])
			return nil
		},
	}
}

func (a *app) newProfileLabelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "label <name> <door> [label]",
		Short: "Set or clear a local label for a door",
		Long: `Give a door a local name shown in place of the hub's name. Omit the label
to clear it.`,
		Example: `  gogogate profile label home 1 "Left bay"`,
		Args:    argRange(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			door, err := parseDoor(args[1])
			if err != nil {
				return err
			}
			label := ""
			if len(args) == 3 {
				label = args[2]
			}

			reg, err := a.loadRegistry()
			if err != nil {
				return fmt.Errorf("failed to load profiles: %w", err)
			}
			if err := reg.SetDoorLabel(args[0], door, label); err != nil {
				return &usageError{err: err}
			}
			return a.saveRegistry(reg)
		},
	}
}

func (a *app) newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactively add a hub and check that it answers",
		Long: `Ask for a hub's address, credentials and device type, check them by
fetching the hub's info, and save them as a profile. Nothing is saved if the
hub cannot be reached or rejects the credentials. The password is used for
the check only.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.interactive {
				return usageErrorf("setup needs a terminal; use 'gogogate profile save' instead")
			}

			defaults := wizard.Answers{Host: a.host, Username: a.username, Password: a.password}
			if a.deviceType != "" {
				family, err := device.ParseFamily(a.deviceType)
				if err != nil {
					return &usageError{err: err}
				}
				defaults.Family = family
			}

			answers, err := wizard.Run(defaults, a.stdin, a.stderr)
			if errors.Is(err, wizard.ErrCanceled) {
				fmt.Fprintln(a.stderr, "Setup canceled, nothing saved.")
				return nil
			}
			if err != nil {
				return err
			}

			a.host, a.username, a.password = answers.Host, answers.Username, answers.Password
			a.deviceType, a.profile = answers.Family.String(), ""
			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			info, err := await(cmd.Context(), s, "Contacting "+answers.Host, s.client.InfoAsync(cmd.Context()))
			if err != nil {
				return s.fail("Hub check failed, profile not saved", err)
			}

			p := &config.Profile{Host: answers.Host, Username: answers.Username, DeviceType: answers.Family.String()}
			if err := s.registry.SetProfile(answers.Name, p); err != nil {
				return &usageError{err: err}
			}
			s.registry.UpdateLastSeen(answers.Name, info)
			if err := a.saveRegistry(s.registry); err != nil {
				return err
			}

			s.printer.PrintResult(ui.NewSuccessResult("Profile saved",
				ui.Param{Key: "Profile", Value: answers.Name},
				ui.Param{Key: "Hub", Value: info.Name},
				ui.Param{Key: "Model", Value: info.Model},
				ui.Param{Key: "Doors", Value: fmt.Sprintf("%d configured", len(info.ConfiguredDoors()))},
			))
			return nil
		},
	}
}
