package main

import (
	"fmt"
	"os"

	"wcu-registry/internal/platform/config"
	"wcu-registry/internal/platform/logger"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "wcuctl",
		Short:         "Herramientas de operación del registro WCU",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "archivo YAML de configuración")

	load := func() (config.Config, logger.Logger, error) {
		cfg, err := config.LoadFile(configFile)
		if err != nil {
			return config.Config{}, nil, err
		}
		log := logger.New(logger.Options{
			Level:  logger.ParseLevel(cfg.Log.Level),
			Format: logger.ParseFormat(cfg.Log.Format),
			App:    "wcuctl",
		})
		return cfg, log, nil
	}

	rootCmd.AddCommand(migrateCmd(load))
	rootCmd.AddCommand(certificateCmd(load))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type loader func() (config.Config, logger.Logger, error)
