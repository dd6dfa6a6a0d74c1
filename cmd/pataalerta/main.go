package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"pataalerta/config"
)

var (
	cfgPath string
	logger  = log.New(os.Stdout, "pataalerta ", log.LstdFlags)
)

var rootCmd = &cobra.Command{
	Use:           "pataalerta",
	Short:         "Lost and found pet alerts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $CONFIG_PATH or ./config/config.yaml)")
}

// loadConfig reads the configuration file. A missing file at the default
// location falls back to built-in defaults.
func loadConfig() (*config.Config, error) {
	path := cfgPath
	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			logger.Printf("no configuration at %s, using defaults", path)
			return config.Default(), nil
		}
		return nil, err
	}
	logger.Printf("configuration loaded successfully from %s", path)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("%v", err)
	}
}
