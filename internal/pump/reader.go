package pump

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

type chunk struct {
	data []byte
	eof  bool
	err  error
}

// sourceReader runs the blocking source reads on its own goroutine so a
// stalled read never holds up the socket.
type sourceReader struct {
	C    <-chan chunk
	done chan struct{}
}

func startReader(ctx context.Context, src io.Reader, size, backlog int) *sourceReader {
	ch := make(chan chunk, backlog)
	r := &sourceReader{C: ch, done: make(chan struct{})}

	go func() {
		defer close(r.done)
		defer close(ch)

		emit := func(c chunk) bool {
			select {
			case ch <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		buf := make([]byte, size)
		for {
			n, err := src.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				if !emit(chunk{data: data}) {
					return
				}
			}

			switch {
			case err == nil && n == 0:
				// a zero-length read is end of source
				emit(chunk{eof: true})
				return
			case errors.Is(err, io.EOF):
				emit(chunk{eof: true})
				return
			case err != nil:
				if ctx.Err() == nil {
					emit(chunk{err: err})
				}
				return
			}
		}
	}()

	return r
}

// wait blocks until the read goroutine exits or timeout elapses.
func (r *sourceReader) wait(timeout time.Duration, logger *slog.Logger) {
	if timeout <= 0 {
		<-r.done
		return
	}
	select {
	case <-r.done:
	case <-time.After(timeout):
		logger.Warn("audio reader still blocked after release", "timeout", timeout)
	}
}
