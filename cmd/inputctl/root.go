package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inputprefs/internal/app"
	"inputprefs/internal/config"
	"inputprefs/internal/logging"
)

var (
	application *app.App
	logger      *logging.Logger

	configPath string
	logLevel   string
	jsonOutput bool

	rootCmd = &cobra.Command{
		Use:   "inputctl",
		Short: "Manage per-user keyboard input methods",
		Long: `inputctl manages the keyboard input methods of the current user.

Changes made by add, edit, remove and default are committed immediately: the
live input methods are loaded or unloaded, the preference list is rewritten
with the default first, and the locale substitutes are rewritten.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion":
				return nil
			}
			var err error
			application, logger, err = setup()
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			closeApp()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	// Post-run hooks are skipped when a command fails.
	closeApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*app.App, *logging.Logger, error) {
	path := configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, created, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	lcfg := logging.DefaultConfig()
	if lcfg.Level, err = logging.ParseLevel(cfg.Logging.Level); err != nil {
		return nil, nil, err
	}
	if lcfg.Format, err = logging.ParseFormat(cfg.Logging.Format); err != nil {
		return nil, nil, err
	}
	lcfg.Output = cfg.Logging.Output
	lcfg.FilePath = cfg.Logging.FilePath
	lcfg.MaxSizeMB = int64(cfg.Logging.MaxSizeMB)
	lcfg.MaxBackups = cfg.Logging.MaxBackups

	lg, err := logging.New(lcfg)
	if err != nil {
		return nil, nil, err
	}
	logging.SetDefault(lg)
	if created {
		lg.Info("wrote default configuration", "path", path)
	}
	lg.Debug("configuration loaded", "path", path, "log_level", logging.LevelString(lcfg.Level))

	a, err := app.New(cfg, lg)
	if err != nil {
		lg.Close()
		return nil, nil, err
	}
	return a, lg, nil
}

func closeApp() {
	if application != nil {
		_ = application.Close()
		application = nil
	}
	if logger != nil {
		_ = logger.Close()
		logger = nil
	}
}

// getApp returns the initialized app.
func getApp() (*app.App, error) {
	if application == nil {
		return nil, errors.New("app not initialized")
	}
	return application, nil
}
