package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deviceIDCmd, sweepCmd)
}

var deviceIDCmd = &cobra.Command{
	Use:   "device-id",
	Short: "Print this device's identifier, creating it if needed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.OutOrStdout(), a.identity.DeviceID())
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark active alerts past their expiry as expired, once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.expiry.SweepOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "expired %d alerts\n", n)
		return nil
	},
}
