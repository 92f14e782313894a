package pump

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the full duplex connection shared by both tasks. The uplink only
// writes and the downlink only reads; neither closes it.
type Conn interface {
	Sender
	Receiver
}

type Options struct {
	Uplink   UplinkOptions
	Downlink DownlinkOptions

	// UplinkGrace bounds how long the uplink may keep running once the
	// downlink has finished cleanly. Zero waits for the uplink indefinitely.
	UplinkGrace time.Duration

	// OnDraining is called when the uplink completes before the downlink.
	OnDraining func()

	Logger *slog.Logger
}

type Result struct {
	Uplink   UplinkStats
	Downlink DownlinkStats
}

type uplinkResult struct {
	stats UplinkStats
	err   error
}

type downlinkResult struct {
	stats DownlinkStats
	err   error
}

// Run drives one uplink and one downlink over conn and returns once both have
// stopped. Completion is reconciled race-to-first: whichever task finishes
// first, the other is still awaited, except that a fatal error on either side
// cancels its sibling at once. The first fatal error is returned.
func Run(ctx context.Context, conn Conn, src io.ReadCloser, display Display, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Uplink.Logger == nil {
		opts.Uplink.Logger = logger
	}
	if opts.Downlink.Logger == nil {
		opts.Downlink.Logger = logger
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	upCh := make(chan uplinkResult, 1)
	downCh := make(chan downlinkResult, 1)

	go func() {
		stats, err := Uplink(ctx, conn, src, opts.Uplink)
		upCh <- uplinkResult{stats: stats, err: err}
	}()
	go func() {
		stats, err := Downlink(ctx, conn, display, opts.Downlink)
		downCh <- downlinkResult{stats: stats, err: err}
	}()

	var (
		res          Result
		firstErr     error
		upDone       bool
		downDone     bool
		downClean    bool
		graceExpired bool
		grace        <-chan time.Time
	)

	fail := func(task string, err error) {
		if firstErr != nil {
			return
		}
		logger.Error("stream task failed", "task", task, "error", err)
		firstErr = err
		cancel()
	}
	cancelled := func(err error) bool {
		return errors.Is(err, context.Canceled) && (firstErr != nil || graceExpired)
	}

	for !upDone || !downDone {
		select {
		case r := <-upCh:
			upDone = true
			res.Uplink = r.stats
			switch {
			case r.err == nil:
				notice(display, "EOF")
				if !downDone {
					logger.Info("uplink finished, draining", "frames", r.stats.Frames, "bytes", r.stats.Bytes)
					if opts.OnDraining != nil {
						opts.OnDraining()
					}
				}
			case cancelled(r.err):
				logger.Debug("uplink cancelled")
			case downClean && peerGone(r.err):
				logger.Info("uplink stopped after server finished", "error", r.err)
			default:
				fail("uplink", r.err)
			}

		case r := <-downCh:
			downDone = true
			res.Downlink = r.stats
			switch {
			case r.err == nil:
				downClean = true
				if r.stats.Stopped {
					notice(display, "Stopped")
				}
				if !upDone {
					notice(display, "Reader finished")
					logger.Info("downlink finished, waiting for uplink", "stopped", r.stats.Stopped)
					if opts.UplinkGrace > 0 {
						grace = time.After(opts.UplinkGrace)
					}
				}
			case cancelled(r.err):
				logger.Debug("downlink cancelled")
			default:
				fail("downlink", r.err)
			}

		case <-grace:
			grace = nil
			graceExpired = true
			logger.Info("uplink grace period elapsed, cancelling", "grace", opts.UplinkGrace)
			cancel()
		}
	}

	return res, firstErr
}

func notice(d Display, msg string) {
	if d != nil {
		d.Notice(msg)
	}
}

// peerGone reports whether err is the write-side symptom of a connection the
// server already closed.
func peerGone(err error) bool {
	return errors.Is(err, websocket.ErrCloseSent) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
