package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const EnvPrefix = "S2T_"

// envConfig mirrors the settings that may be overridden from the
// environment. Unset variables stay nil and leave the file value alone.
type envConfig struct {
	URL              *string        `env:"URL"`
	AuthHeader       *string        `env:"AUTH_HEADER"`
	Token            *string        `env:"TOKEN"`
	Language         *string        `env:"LANGUAGE"`
	HandshakeTimeout *time.Duration `env:"HANDSHAKE_TIMEOUT"`

	Source       *string        `env:"SOURCE"`
	Input        *string        `env:"INPUT"`
	StreamURL    *string        `env:"STREAM_URL"`
	FFmpegPath   *string        `env:"FFMPEG"`
	ChunkSize    *int           `env:"CHUNK_SIZE"`
	SendInterval *time.Duration `env:"SEND_INTERVAL"`
	IdleTimeout  *time.Duration `env:"IDLE_TIMEOUT"`

	Lenient     *bool          `env:"LENIENT"`
	UplinkGrace *time.Duration `env:"UPLINK_GRACE"`

	Verbose *bool `env:"VERBOSE"`
	NoColor *bool `env:"NO_COLOR"`
}

// LoadDotEnv loads variables from a .env file without overriding ones that
// are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays S2T_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(env.Options{Prefix: EnvPrefix})
}

func (c *Config) applyEnv(opts env.Options) error {
	var raw envConfig
	if err := env.ParseWithOptions(&raw, opts); err != nil {
		return fmt.Errorf("environment variables are invalid: %w", err)
	}

	set(&c.Server.URL, raw.URL)
	set(&c.Server.AuthHeader, raw.AuthHeader)
	set(&c.Server.Token, raw.Token)
	set(&c.Server.Language, raw.Language)
	set(&c.Server.HandshakeTimeout, raw.HandshakeTimeout)

	set(&c.Audio.Source, raw.Source)
	set(&c.Audio.Input, raw.Input)
	set(&c.Audio.StreamURL, raw.StreamURL)
	set(&c.Audio.FFmpegPath, raw.FFmpegPath)
	set(&c.Audio.ChunkSize, raw.ChunkSize)
	set(&c.Audio.SendInterval, raw.SendInterval)
	set(&c.Audio.IdleTimeout, raw.IdleTimeout)

	set(&c.Protocol.Lenient, raw.Lenient)
	set(&c.Protocol.UplinkGrace, raw.UplinkGrace)

	set(&c.Output.Verbose, raw.Verbose)
	set(&c.Output.NoColor, raw.NoColor)
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
