package tui

import (
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/s2tstream/internal/config"
	"github.com/leonardotrapani/s2tstream/internal/language"
	"github.com/leonardotrapani/s2tstream/internal/source"
)

func editServer(cfg *config.Config) error {
	url := cfg.Server.URL
	header := cfg.Server.AuthHeader
	token := cfg.Server.Token
	timeout := cfg.Server.HandshakeTimeout.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Endpoint").
				Description("Realtime websocket endpoint (wss://...)").
				Value(&url).
				Validate(validateURL),
			huh.NewInput().
				Title("Auth header").
				Value(&header).
				Validate(validateRequired("auth header")),
			huh.NewInput().
				Title("Token").
				Description("Sent in the auth header, never in the message body").
				EchoMode(huh.EchoModePassword).
				Value(&token),
			huh.NewInput().
				Title("Handshake timeout").
				Description("e.g. 10s, 0 waits indefinitely").
				Value(&timeout).
				Validate(validateDuration),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Server.URL = url
	cfg.Server.AuthHeader = header
	cfg.Server.Token = token
	cfg.Server.HandshakeTimeout = mustDuration(timeout)
	return nil
}

func editLanguage(cfg *config.Config) error {
	selected := cfg.Server.Language

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language").
				Description("Language the service transcribes; type to filter").
				Options(languageOptions()...).
				Filtering(true).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Server.Language = selected
	return nil
}

func editAudio(cfg *config.Config) error {
	kind := cfg.Audio.Source
	input := cfg.Audio.Input
	streamURL := cfg.Audio.StreamURL
	chunkSize := strconv.Itoa(cfg.Audio.ChunkSize)
	interval := cfg.Audio.SendInterval.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Audio source").
				Options(
					huh.NewOption("File or stdin", string(source.KindFile)),
					huh.NewOption("Decode with ffmpeg", string(source.KindDecode)),
					huh.NewOption("Follow a growing file", string(source.KindFollow)),
				).
				Value(&kind),
			huh.NewInput().
				Title("Input").
				Description("Path, or - for stdin").
				Value(&input),
			huh.NewInput().
				Title("Stream URL").
				Description("Remote stream for the decode source (optional)").
				Value(&streamURL),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Chunk size").
				Description("Bytes per audio frame").
				Value(&chunkSize).
				Validate(validateChunkSize),
			huh.NewInput().
				Title("Send interval").
				Description("Minimum spacing between frames, 0 sends as fast as possible").
				Value(&interval).
				Validate(validateDuration),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Audio.Source = kind
	cfg.Audio.Input = input
	cfg.Audio.StreamURL = streamURL
	cfg.Audio.ChunkSize, _ = strconv.Atoi(chunkSize)
	cfg.Audio.SendInterval = mustDuration(interval)
	return nil
}

func editProtocol(cfg *config.Config) error {
	lenient := cfg.Protocol.Lenient
	grace := cfg.Protocol.UplinkGrace.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Lenient state matching").
				Description("Accept listening/stopped markers embedded anywhere in a message").
				Value(&lenient),
			huh.NewInput().
				Title("Uplink grace").
				Description("How long audio may keep flowing after the server stopped, 0 waits").
				Value(&grace).
				Validate(validateDuration),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Protocol.Lenient = lenient
	cfg.Protocol.UplinkGrace = mustDuration(grace)
	return nil
}

func languageOptions() []huh.Option[string] {
	var options []huh.Option[string]
	for _, tag := range language.Tags() {
		lang, _ := language.Lookup(tag)
		options = append(options, huh.NewOption(tag+" - "+lang.Name+" ("+lang.NativeName+")", tag))
	}
	return options
}
