package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/droidmcp/droidmcp/internal/adb"
)

func newDevicesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices known to the adb server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			dialer, err := adb.NewServerDialer(cfg.ADBAddr)
			if err != nil {
				return err
			}
			manager := adb.NewManager(dialer, adb.WithSerial(cfg.DeviceSerial))

			devices, err := manager.Devices(cmd.Context())
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no devices connected")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SERIAL\tSTATE\tTRANSPORT\tMODEL")
			for _, d := range devices {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Serial, d.State, d.ConnType, d.Model)
			}
			return tw.Flush()
		},
	}
}
