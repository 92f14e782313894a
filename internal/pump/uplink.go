package pump

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/leonardotrapani/s2tstream/internal/protocol"
	"github.com/leonardotrapani/s2tstream/internal/session"
	"golang.org/x/time/rate"
)

const (
	DefaultChunkSize      = 32768
	DefaultBacklog        = 8
	DefaultReleaseTimeout = 2 * time.Second
)

// Sender is the write half of a session connection
type Sender interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
}

type UplinkOptions struct {
	// ChunkSize is the maximum audio frame size in bytes.
	ChunkSize int
	// Backlog is the number of chunks the reader may run ahead of the sender.
	Backlog int
	// SendInterval is the minimum spacing between frame sends. Zero disables pacing.
	SendInterval time.Duration
	// ReleaseTimeout bounds the wait for the reader goroutine after the source is closed.
	ReleaseTimeout time.Duration
	Logger         *slog.Logger
}

func (o UplinkOptions) withDefaults() UplinkOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Backlog <= 0 {
		o.Backlog = DefaultBacklog
	}
	if o.ReleaseTimeout == 0 {
		o.ReleaseTimeout = DefaultReleaseTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type UplinkStats struct {
	Frames   int
	Bytes    int64
	StopSent bool
}

// Uplink forwards src to conn as binary frames in read order, then sends the
// stop action once the source is exhausted. src is closed on every return path.
func Uplink(ctx context.Context, conn Sender, src io.ReadCloser, opts UplinkOptions) (UplinkStats, error) {
	opts = opts.withDefaults()
	logger := opts.Logger.With("task", "uplink")

	var stats UplinkStats

	readCtx, stopReading := context.WithCancel(ctx)
	reader := startReader(readCtx, src, opts.ChunkSize, opts.Backlog)
	defer func() {
		stopReading()
		if err := src.Close(); err != nil {
			logger.Debug("close audio source", "error", err)
		}
		reader.wait(opts.ReleaseTimeout, logger)
	}()

	stopDeadline := context.AfterFunc(ctx, func() {
		_ = conn.SetWriteDeadline(time.Unix(1, 0))
	})
	defer stopDeadline()

	var limiter *rate.Limiter
	if opts.SendInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.SendInterval), 1)
	}

	for {
		var c chunk
		var ok bool
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case c, ok = <-reader.C:
		}
		if !ok {
			return stats, ctx.Err()
		}
		if c.err != nil {
			return stats, &session.SourceError{Err: c.err}
		}
		if c.eof {
			break
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				return stats, err
			}
		}

		if err := conn.WriteMessage(websocket.BinaryMessage, c.data); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			return stats, &session.SendError{Err: err}
		}
		stats.Frames++
		stats.Bytes += int64(len(c.data))
	}

	logger.Debug("audio source exhausted", "frames", stats.Frames, "bytes", stats.Bytes)

	stop, err := protocol.Encode(protocol.ActionStop)
	if err != nil {
		return stats, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, stop); err != nil {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		return stats, &session.SendError{Err: err}
	}
	stats.StopSent = true
	return stats, nil
}
