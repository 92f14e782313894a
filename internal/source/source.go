package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

type Kind string

const (
	KindFile   Kind = "file"
	KindDecode Kind = "decode"
	KindFollow Kind = "follow"
)

func (k Kind) Valid() bool {
	switch k {
	case KindFile, KindDecode, KindFollow:
		return true
	}
	return false
}

// Options describes where audio comes from. Input is a path, "-" or empty
// for stdin; StreamURL, when set, is handed to the decoder instead of Input.
type Options struct {
	Kind        Kind
	Input       string
	StreamURL   string
	FFmpegPath  string
	IdleTimeout time.Duration
	Logger      *slog.Logger
}

// Opener defers opening a source until the session is ready for audio.
type Opener func(ctx context.Context) (io.ReadCloser, error)

func (o Options) Opener() Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return Open(ctx, o)
	}
}

func Open(ctx context.Context, opts Options) (io.ReadCloser, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch opts.Kind {
	case KindFile, "":
		return OpenFile(opts.Input)

	case KindDecode:
		input := opts.Input
		if opts.StreamURL != "" {
			input = opts.StreamURL
		}
		return StartDecoder(ctx, input, DecoderOptions{
			Binary: opts.FFmpegPath,
			Logger: logger,
		})

	case KindFollow:
		if isStdin(opts.Input) {
			return nil, fmt.Errorf("follow needs a file path, not stdin")
		}
		return Follow(opts.Input, FollowOptions{
			IdleTimeout: opts.IdleTimeout,
			Logger:      logger,
		})
	}

	return nil, fmt.Errorf("unknown source kind %q", opts.Kind)
}

// OpenFile opens path for sequential reads. "-" or an empty path reads stdin.
func OpenFile(path string) (io.ReadCloser, error) {
	if isStdin(path) {
		return stdin{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	return f, nil
}

func isStdin(path string) bool {
	return path == "" || path == "-"
}

// stdin is not closed by the session; the process owns it.
type stdin struct{}

func (stdin) Read(p []byte) (int, error) { return os.Stdin.Read(p) }
func (stdin) Close() error               { return nil }
