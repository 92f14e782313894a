package tui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leonardotrapani/s2tstream/internal/config"
	"github.com/leonardotrapani/s2tstream/internal/language"
)

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("scheme must be wss, ws, https or http")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func validateRequired(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration, use e.g. 250ms or 10s")
	}
	if d < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	return nil
}

func validateChunkSize(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("chunk size must be a positive number of bytes")
	}
	return nil
}

// mustDuration parses a value that already passed validateDuration
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(strings.TrimSpace(s))
	return d
}

func formatServerLabel(cfg *config.Config) string {
	u, err := url.Parse(cfg.Server.URL)
	if err != nil || u.Host == "" {
		return "Server (not set)"
	}
	return fmt.Sprintf("Server (%s)", u.Host)
}

func formatLanguageLabel(cfg *config.Config) string {
	if cfg.Server.Language == "" {
		return "Language (not set)"
	}
	if lang, ok := language.Lookup(cfg.Server.Language); ok {
		return fmt.Sprintf("Language (%s, %s)", cfg.Server.Language, lang.Name)
	}
	return fmt.Sprintf("Language (%s)", cfg.Server.Language)
}

func formatAudioLabel(cfg *config.Config) string {
	return fmt.Sprintf("Audio (%s)", cfg.Audio.Source)
}

func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

func summaryLines(cfg *config.Config) [][2]string {
	input := cfg.Audio.Input
	if cfg.Audio.StreamURL != "" {
		input = cfg.Audio.StreamURL
	}
	return [][2]string{
		{"Endpoint:", cfg.Server.URL},
		{"Auth header:", cfg.Server.AuthHeader},
		{"Token:", maskToken(cfg.Server.Token)},
		{"Language:", cfg.Server.Language},
		{"Source:", fmt.Sprintf("%s (%s)", cfg.Audio.Source, input)},
		{"Chunk size:", strconv.Itoa(cfg.Audio.ChunkSize)},
		{"Send interval:", cfg.Audio.SendInterval.String()},
		{"Lenient:", strconv.FormatBool(cfg.Protocol.Lenient)},
	}
}
