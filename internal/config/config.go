package config

import (
	"time"

	"github.com/leonardotrapani/s2tstream/internal/pump"
	"github.com/leonardotrapani/s2tstream/internal/session"
	"github.com/leonardotrapani/s2tstream/internal/source"
)

const DefaultURL = "wss://realtime.scriptix.io/v2/realtime"

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Audio    AudioConfig    `toml:"audio"`
	Protocol ProtocolConfig `toml:"protocol"`
	Output   OutputConfig   `toml:"output"`
}

type ServerConfig struct {
	URL              string        `toml:"url"`
	AuthHeader       string        `toml:"auth_header"`
	Token            string        `toml:"token"`
	Language         string        `toml:"language"`
	HandshakeTimeout time.Duration `toml:"handshake_timeout"`
}

type AudioConfig struct {
	Source       string        `toml:"source"` // "file", "decode", "follow"
	Input        string        `toml:"input"`
	StreamURL    string        `toml:"stream_url"`
	FFmpegPath   string        `toml:"ffmpeg_path"`
	ChunkSize    int           `toml:"chunk_size"`
	SendInterval time.Duration `toml:"send_interval"`
	IdleTimeout  time.Duration `toml:"idle_timeout"`
}

type ProtocolConfig struct {
	Lenient     bool          `toml:"lenient"`
	UplinkGrace time.Duration `toml:"uplink_grace"`
}

type OutputConfig struct {
	Verbose bool `toml:"verbose"`
	NoColor bool `toml:"no_color"`
}

// DefaultConfig returns the configuration used when no file or override is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:              DefaultURL,
			AuthHeader:       session.DefaultAuthHeader,
			HandshakeTimeout: 10 * time.Second,
		},
		Audio: AudioConfig{
			Source:      string(source.KindFile),
			Input:       "-",
			ChunkSize:   pump.DefaultChunkSize,
			IdleTimeout: source.DefaultIdleTimeout,
		},
	}
}

func (c *Config) ToSessionOptions() session.Options {
	return session.Options{
		URL:              c.Server.URL,
		Language:         c.Server.Language,
		Token:            c.Server.Token,
		AuthHeader:       c.Server.AuthHeader,
		HandshakeTimeout: c.Server.HandshakeTimeout,
		Lenient:          c.Protocol.Lenient,
	}
}

func (c *Config) ToSourceOptions() source.Options {
	return source.Options{
		Kind:        source.Kind(c.Audio.Source),
		Input:       c.Audio.Input,
		StreamURL:   c.Audio.StreamURL,
		FFmpegPath:  c.Audio.FFmpegPath,
		IdleTimeout: c.Audio.IdleTimeout,
	}
}

func (c *Config) ToPumpOptions() pump.Options {
	return pump.Options{
		Uplink: pump.UplinkOptions{
			ChunkSize:    c.Audio.ChunkSize,
			SendInterval: c.Audio.SendInterval,
		},
		UplinkGrace: c.Protocol.UplinkGrace,
	}
}
