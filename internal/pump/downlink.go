package pump

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/leonardotrapani/s2tstream/internal/protocol"
	"github.com/leonardotrapani/s2tstream/internal/session"
)

// Receiver is the read half of a session connection
type Receiver interface {
	ReadMessage() (messageType int, p []byte, err error)
	SetReadDeadline(t time.Time) error
}

// Display receives every inbound event in arrival order.
type Display interface {
	Event(ev protocol.Event)
	Notice(msg string)
}

type DownlinkOptions struct {
	Matcher protocol.Matcher
	Logger  *slog.Logger
}

type DownlinkStats struct {
	Messages int
	Stopped  bool
}

// Downlink hands inbound messages to display until the server reports the
// stopped state, the connection closes cleanly, or ctx ends.
func Downlink(ctx context.Context, conn Receiver, display Display, opts DownlinkOptions) (DownlinkStats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("task", "downlink")

	var stats DownlinkStats

	stopDeadline := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stopDeadline()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("server closed the connection", "error", err)
				return stats, nil
			}
			return stats, &session.ReceiveError{Err: err}
		}

		ev := protocol.Decode(data, mt == websocket.TextMessage)
		stats.Messages++
		if ev.Anomaly != nil {
			logger.Debug("unexpected message shape", "error", ev.Anomaly, "size", len(data))
		}
		if display != nil {
			display.Event(ev)
		}

		if opts.Matcher.IsStopped(ev) {
			stats.Stopped = true
			return stats, nil
		}
	}
}
