package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leonardotrapani/s2tstream/internal/pump"
	"github.com/leonardotrapani/s2tstream/internal/session"
	"github.com/leonardotrapani/s2tstream/internal/source"
)

// Printer shows server output and handshake outcomes
type Printer interface {
	pump.Display
	Listening(greeting []byte)
	NotListening(response []byte)
}

type Options struct {
	Session session.Options
	Source  source.Opener
	Pump    pump.Options
	Printer Printer
	Logger  *slog.Logger
}

// Summary describes a finished run.
type Summary struct {
	SessionID string
	Result    pump.Result
}

// Client runs one streaming session per call to Run.
type Client struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Session.Logger == nil {
		opts.Session.Logger = logger
	}
	return &Client{opts: opts, logger: logger}
}

// Run establishes a session, streams the audio source through it and closes
// it. The session is closed on every path once it has been established, and
// the audio source is only opened after the server is listening.
func (c *Client) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	sess, err := session.Establish(ctx, c.opts.Session)
	if err != nil {
		var he *session.HandshakeError
		if errors.As(err, &he) && errors.Is(err, session.ErrNotListening) {
			c.opts.Printer.NotListening(he.Response)
		}
		return summary, err
	}
	summary.SessionID = sess.ID()
	logger := sess.Logger()

	defer func() {
		if err := sess.Close(); err != nil {
			logger.Debug("close session", "error", err)
		}
	}()

	c.opts.Printer.Listening(sess.Greeting())

	src, err := c.opts.Source(ctx)
	if err != nil {
		return summary, &session.SourceError{Err: fmt.Errorf("open: %w", err)}
	}

	opts := c.opts.Pump
	opts.Downlink.Matcher = sess.Matcher()
	opts.Logger = logger
	opts.OnDraining = func() {
		if err := sess.MarkDraining(); err != nil {
			logger.Debug("mark draining", "error", err)
		}
	}

	res, err := pump.Run(ctx, sess.Conn(), src, c.opts.Printer, opts)
	summary.Result = res
	logger.Info("session finished",
		"frames", res.Uplink.Frames,
		"bytes", res.Uplink.Bytes,
		"messages", res.Downlink.Messages,
		"stopped", res.Downlink.Stopped,
	)
	return summary, err
}
