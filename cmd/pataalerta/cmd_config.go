package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pataalerta/internal/siteconfig"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configPublishCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or publish the site configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective site configuration, using the local cache",
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

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a.siteConfig.Load(cmd.Context()))
	},
}

var configPublishCmd = &cobra.Command{
	Use:   "publish <file.json>",
	Short: "Store a site configuration document in the remote store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		var doc siteconfig.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.SaveConfigDocument(cmd.Context(), string(raw)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %d neighborhoods\n", len(doc.Neighborhoods))
		return nil
	},
}
