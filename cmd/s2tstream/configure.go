package main

import (
	"fmt"

	"github.com/leonardotrapani/s2tstream/internal/config"
	"github.com/leonardotrapani/s2tstream/internal/tui"
	"github.com/spf13/cobra"
)

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive editor for the s2tstream config file:
- Endpoint, auth header and token
- Transcription language
- Audio source, chunk size and pacing
- Protocol matching and uplink grace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	// environment overrides are not persisted
	cfg, err := config.LoadFile(configPath, newLogger(verbose))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration editor error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := config.Save(result.Config, configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	path := configPath
	if path == "" {
		path, _ = config.DefaultPath()
	}
	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	fmt.Printf("Config file location: %s\n", path)
	return nil
}
