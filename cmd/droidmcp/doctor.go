package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droidmcp/droidmcp/internal/adb"
)

// newDoctorCmd checks the pieces a working setup needs: reachable adb
// server, at least one online device, and an unambiguous selection.
func newDoctorCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose adb connectivity and device selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "adb server: %s\n", cfg.ADBAddr)

			dialer, err := adb.NewServerDialer(cfg.ADBAddr)
			if err != nil {
				return err
			}
			manager := adb.NewManager(dialer, adb.WithSerial(cfg.DeviceSerial))

			devices, err := manager.Devices(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "adb server: UNREACHABLE (%v)\n", err)
				return fmt.Errorf("adb server is not reachable; run `adb start-server`")
			}
			fmt.Fprintf(out, "devices: %d\n", len(devices))
			for _, d := range devices {
				fmt.Fprintf(out, "  %s (%s, %s)\n", d.Serial, d.State, d.ConnType)
			}

			conn, err := manager.Device(cmd.Context())
			if err != nil {
				return fmt.Errorf("device selection: %w", err)
			}
			fmt.Fprintf(out, "selected device: %s\n", conn.Serial())

			res, err := manager.Shell(cmd.Context(), "echo ok", 0)
			if err != nil {
				return fmt.Errorf("shell check: %w", err)
			}
			if res.Output != "ok" || res.ExitCode != 0 {
				return fmt.Errorf("shell check: unexpected result %q (exit %d)", res.Output, res.ExitCode)
			}
			fmt.Fprintln(out, "shell check: ok")
			return nil
		},
	}
}
