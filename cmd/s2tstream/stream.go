package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leonardotrapani/s2tstream/internal/client"
	"github.com/leonardotrapani/s2tstream/internal/config"
	"github.com/leonardotrapani/s2tstream/internal/display"
	"github.com/leonardotrapani/s2tstream/internal/session"
	"github.com/leonardotrapani/s2tstream/internal/source"
	"github.com/spf13/cobra"
)

// runSession is replaced in tests
var runSession = runStream

type streamFlags struct {
	url              string
	authHeader       string
	decode           bool
	streamURL        string
	follow           bool
	chunkSize        int
	interval         time.Duration
	grace            time.Duration
	handshakeTimeout time.Duration
	lenient          bool
}

func streamCmd() *cobra.Command {
	var f streamFlags

	cmd := &cobra.Command{
		Use:   "stream <language> [token] [input]",
		Short: "Stream audio and print every message the service sends",
		Long: `Connects to the realtime endpoint, waits for the service to start
listening, then streams the input as binary frames while printing each
message received. The input defaults to stdin; the token may also come from
the config file or S2T_TOKEN.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := streamConfig(cmd, args, f)
			if err != nil {
				return err
			}
			return runSession(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", config.DefaultURL, "realtime endpoint")
	flags.StringVar(&f.authHeader, "auth-header", session.DefaultAuthHeader, "header carrying the token")
	flags.BoolVar(&f.decode, "decode", false, "decode the input with ffmpeg to 16 kHz mono PCM")
	flags.StringVar(&f.streamURL, "stream-url", "", "remote stream to decode instead of the input (implies --decode)")
	flags.BoolVar(&f.follow, "follow", false, "keep reading the input file as it grows")
	flags.IntVar(&f.chunkSize, "chunk-size", 0, "bytes per audio frame (default 32768)")
	flags.DurationVar(&f.interval, "interval", 0, "minimum time between audio frames, e.g. 250ms")
	flags.DurationVar(&f.grace, "grace", 0, "how long audio may keep flowing after the service stopped (0 waits)")
	flags.DurationVar(&f.handshakeTimeout, "handshake-timeout", 0, "bound on connect and handshake (default 10s)")
	flags.BoolVar(&f.lenient, "lenient", false, "match listening/stopped markers anywhere in a message")
	cmd.MarkFlagsMutuallyExclusive("decode", "follow")
	cmd.MarkFlagsMutuallyExclusive("stream-url", "follow")

	return cmd
}

// streamConfig layers positional arguments and explicitly set flags over the
// loaded configuration.
func streamConfig(cmd *cobra.Command, args []string, f streamFlags) (*config.Config, error) {
	cfg, err := config.Load(configPath, newLogger(verbose))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Server.Language = args[0]
	if len(args) > 1 {
		cfg.Server.Token = args[1]
	}
	if len(args) > 2 {
		cfg.Audio.Input = args[2]
	}

	changed := cmd.Flags().Changed
	if changed("url") {
		cfg.Server.URL = f.url
	}
	if changed("auth-header") {
		cfg.Server.AuthHeader = f.authHeader
	}
	if changed("handshake-timeout") {
		cfg.Server.HandshakeTimeout = f.handshakeTimeout
	}
	if f.decode || f.streamURL != "" {
		cfg.Audio.Source = string(source.KindDecode)
	}
	if changed("stream-url") {
		cfg.Audio.StreamURL = f.streamURL
	}
	if f.follow {
		cfg.Audio.Source = string(source.KindFollow)
	}
	if changed("chunk-size") {
		cfg.Audio.ChunkSize = f.chunkSize
	}
	if changed("interval") {
		cfg.Audio.SendInterval = f.interval
	}
	if changed("grace") {
		cfg.Protocol.UplinkGrace = f.grace
	}
	if changed("lenient") {
		cfg.Protocol.Lenient = f.lenient
	}
	if changed("verbose") {
		cfg.Output.Verbose = verbose
	}
	if changed("no-color") {
		cfg.Output.NoColor = noColor
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runStream(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.Output.Verbose)
	printer := display.New(display.Options{NoColor: cfg.Output.NoColor})

	sessionOpts := cfg.ToSessionOptions()
	sessionOpts.Logger = logger
	sourceOpts := cfg.ToSourceOptions()
	sourceOpts.Logger = logger

	c := client.New(client.Options{
		Session: sessionOpts,
		Source:  sourceOpts.Opener(),
		Pump:    cfg.ToPumpOptions(),
		Printer: printer,
		Logger:  logger,
	})

	_, err := c.Run(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotListening):
		// the response was already printed
		return reportedError{err}
	case ctx.Err() != nil:
		printer.Notice("Interrupted")
		return reportedError{err}
	default:
		printer.Error(err)
		return reportedError{err}
	}
}
