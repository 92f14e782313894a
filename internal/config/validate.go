package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/leonardotrapani/s2tstream/internal/language"
	"github.com/leonardotrapani/s2tstream/internal/source"
)

const maxChunkSize = 1 << 20

// Validate checks the settings needed to open a session. It normalizes the
// language tag in place.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("invalid server.url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("invalid server.url: scheme %q (must be wss, ws, https or http)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server.url: missing host")
	}

	if strings.TrimSpace(c.Server.AuthHeader) == "" {
		return fmt.Errorf("invalid server.auth_header: empty")
	}
	if c.Server.Token == "" {
		return fmt.Errorf("auth token required: pass it as an argument, set server.token or %sTOKEN", EnvPrefix)
	}

	lang, err := language.Normalize(c.Server.Language)
	if err != nil {
		return fmt.Errorf("invalid server.language: %w", err)
	}
	c.Server.Language = lang

	if c.Server.HandshakeTimeout < 0 {
		return fmt.Errorf("invalid server.handshake_timeout: %v", c.Server.HandshakeTimeout)
	}

	kind := source.Kind(c.Audio.Source)
	if !kind.Valid() {
		return fmt.Errorf("invalid audio.source: %q (must be file, decode or follow)", c.Audio.Source)
	}
	if kind == source.KindFollow && (c.Audio.Input == "" || c.Audio.Input == "-") {
		return fmt.Errorf("invalid audio.input: follow needs a file path")
	}
	if c.Audio.StreamURL != "" && kind != source.KindDecode {
		return fmt.Errorf("invalid audio.stream_url: only used with the decode source")
	}

	if c.Audio.ChunkSize <= 0 || c.Audio.ChunkSize > maxChunkSize {
		return fmt.Errorf("invalid audio.chunk_size: %d (must be between 1 and %d)", c.Audio.ChunkSize, maxChunkSize)
	}
	if c.Audio.SendInterval < 0 {
		return fmt.Errorf("invalid audio.send_interval: %v", c.Audio.SendInterval)
	}
	if c.Audio.IdleTimeout < 0 {
		return fmt.Errorf("invalid audio.idle_timeout: %v", c.Audio.IdleTimeout)
	}
	if c.Protocol.UplinkGrace < 0 {
		return fmt.Errorf("invalid protocol.uplink_grace: %v", c.Protocol.UplinkGrace)
	}

	return nil
}
