package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const DefaultWaitDelay = 2 * time.Second

type DecoderOptions struct {
	// Binary is the ffmpeg executable, "ffmpeg" from PATH when empty.
	Binary    string
	WaitDelay time.Duration
	Logger    *slog.Logger
}

// DecoderArgs returns the ffmpeg arguments that turn input into 16 kHz mono
// 16-bit PCM WAV on stdout.
func DecoderArgs(input string) []string {
	return []string{
		"-loglevel", "panic",
		"-i", input,
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-f", "wav",
		"-",
	}
}

// Decoder streams the output of an ffmpeg subprocess.
type Decoder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
	logger *slog.Logger

	stderr *lineLogger

	waitOnce  sync.Once
	waitErr   error
	closing   chan struct{}
	closeOnce sync.Once
}

func StartDecoder(ctx context.Context, input string, opts DecoderOptions) (*Decoder, error) {
	bin := opts.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = DefaultWaitDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "decoder")

	decodeCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(decodeCtx, bin, DecoderArgs(input)...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = opts.WaitDelay
	if isStdin(input) {
		cmd.Stdin = os.Stdin
	}

	stderr := &lineLogger{logger: logger}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}
	logger.Debug("decoder started", "pid", cmd.Process.Pid, "input", input)

	return &Decoder{
		cmd:     cmd,
		stdout:  stdout,
		cancel:  cancel,
		logger:  logger,
		stderr:  stderr,
		closing: make(chan struct{}),
	}, nil
}

// Read returns decoded audio. Once ffmpeg's output is exhausted the process is
// reaped and a non-zero exit is reported instead of io.EOF.
func (d *Decoder) Read(p []byte) (int, error) {
	n, err := d.stdout.Read(p)
	if err == nil {
		return n, nil
	}

	select {
	case <-d.closing:
		return n, os.ErrClosed
	default:
	}

	if errors.Is(err, io.EOF) {
		if werr := d.wait(); werr != nil {
			return n, fmt.Errorf("decoder exited: %w", werr)
		}
		return n, io.EOF
	}
	return n, fmt.Errorf("read decoder output: %w", err)
}

// Close interrupts ffmpeg if it is still running and reaps it. Safe to call
// more than once.
func (d *Decoder) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.closing)
		d.cancel()
		err = d.wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || errors.Is(err, context.Canceled) {
			// interrupted on purpose
			err = nil
		}
	})
	return err
}

func (d *Decoder) wait() error {
	d.waitOnce.Do(func() {
		d.waitErr = d.cmd.Wait()
		d.stderr.flush()
		d.logger.Debug("decoder exited", "error", d.waitErr)
	})
	return d.waitErr
}

// lineLogger logs each complete line written to it.
type lineLogger struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	logger *slog.Logger
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(p)
	for {
		line, err := l.buf.ReadString('\n')
		if err != nil {
			// keep the partial line for the next write
			l.buf.Reset()
			l.buf.WriteString(line)
			return len(p), nil
		}
		l.log(line)
	}
}

func (l *lineLogger) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buf.Len() > 0 {
		l.log(l.buf.String())
		l.buf.Reset()
	}
}

func (l *lineLogger) log(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line != "" {
		l.logger.Warn("decoder stderr", "line", line)
	}
}
