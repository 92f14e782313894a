package main

import (
	"fmt"

	"github.com/leonardotrapani/s2tstream/internal/config"
	"github.com/leonardotrapani/s2tstream/internal/source"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	var ffmpeg string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that ffmpeg is available for decoding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("ffmpeg") {
				cfg, err := config.Load(configPath, newLogger(verbose))
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				ffmpeg = cfg.Audio.FFmpegPath
			}

			status := source.CheckFFmpeg(cmd.Context(), ffmpeg)
			if !status.Installed {
				return fmt.Errorf("ffmpeg not found: install it or set audio.ffmpeg_path (needed for --decode)")
			}
			fmt.Printf("ffmpeg: %s\n", status.Path)
			if status.Version != "" {
				fmt.Printf("version: %s\n", status.Version)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ffmpeg, "ffmpeg", "", "ffmpeg binary to check (default from config or PATH)")
	return cmd
}
