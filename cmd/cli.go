package cmd

import (
	"context"
	"os"

	"github.com/habedi/smoke/config"
	"github.com/habedi/smoke/db"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func Execute(ctx context.Context) {
	rootCmd := createRootCmd()
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	err := rootCmd.ExecuteContext(ctx)
	closeDatabase()
	if err != nil {
		log.Error().Err(err).Msg("Command execution failed.")
		os.Exit(1)
	}
}

func createRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "smoke",
		Short:        "Download, install and launch games from a remote catalogue",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return setup(configPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default $SMOKE_HOME/config.yaml)")

	rootCmd.AddCommand(
		catalogueCmd(),
		acquireCmd(),
		downloadCmd(),
		installCmd(),
		libraryCmd(),
		runCmd(),
		archivesCmd(),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

// setup loads the configuration, creates the data directories and opens the catalogue cache.
func setup(configPath string) error {
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}
	appConfig = cfg
	log.Debug().Str("config", configPath).Str("home", cfg.Home).Msg("Configuration loaded")

	db.Path = cfg.Database
	return initializeDatabase()
}

func initializeDatabase() error {
	if err := db.InitDB(); err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	return nil
}

func closeDatabase() {
	if err := db.CloseDB(); err != nil {
		log.Error().Err(err).Msg("Failed to close the database.")
	}
}
