package pump

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/leonardotrapani/s2tstream/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type frame struct {
	mt   int
	data []byte
	err  error
}

// fakeConn is an in-memory duplex connection. Reads come from incoming;
// closing incoming behaves like a normal close from the server.
type fakeConn struct {
	incoming chan frame

	mu      sync.Mutex
	writes  []frame
	failOn  int // 1-based write index that fails, 0 for never
	failErr error
	onWrite func(f frame)

	readKick  chan struct{}
	writeKick chan struct{}
	kickOnce  [2]sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming:  make(chan frame, 64),
		readKick:  make(chan struct{}),
		writeKick: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case f, ok := <-c.incoming:
		if !ok {
			return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
		}
		if f.err != nil {
			return 0, nil, f.err
		}
		return f.mt, f.data, nil
	case <-c.readKick:
		return 0, nil, os.ErrDeadlineExceeded
	}
}

func (c *fakeConn) WriteMessage(mt int, data []byte) error {
	select {
	case <-c.writeKick:
		return os.ErrDeadlineExceeded
	default:
	}

	c.mu.Lock()
	f := frame{mt: mt, data: append([]byte(nil), data...)}
	if c.failOn > 0 && len(c.writes)+1 == c.failOn {
		err := c.failErr
		c.mu.Unlock()
		if err == nil {
			err = errors.New("connection reset")
		}
		return err
	}
	c.writes = append(c.writes, f)
	hook := c.onWrite
	c.mu.Unlock()

	if hook != nil {
		hook(f)
	}
	return nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	if t.Before(time.Now()) {
		c.kickOnce[0].Do(func() { close(c.readKick) })
	}
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	if t.Before(time.Now()) {
		c.kickOnce[1].Do(func() { close(c.writeKick) })
	}
	return nil
}

func (c *fakeConn) sent() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]frame, len(c.writes))
	copy(out, c.writes)
	return out
}

func (c *fakeConn) push(text string) {
	c.incoming <- frame{mt: websocket.TextMessage, data: []byte(text)}
}

type readStep struct {
	data string
	err  error
}

// fakeSource replays steps, then either reports EOF or blocks until closed.
type fakeSource struct {
	mu    sync.Mutex
	steps []readStep

	block   bool
	gate    chan struct{} // when non-nil, reads wait for it before returning
	closeCh chan struct{}
	closed  bool
}

func newFakeSource(steps ...readStep) *fakeSource {
	return &fakeSource{steps: steps, closeCh: make(chan struct{})}
}

func (s *fakeSource) Read(p []byte) (int, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-s.closeCh:
			return 0, os.ErrClosed
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, os.ErrClosed
	}
	if len(s.steps) > 0 {
		step := s.steps[0]
		s.steps = s.steps[1:]
		s.mu.Unlock()
		n := copy(p, step.data)
		return n, step.err
	}
	block := s.block
	s.mu.Unlock()

	if block {
		<-s.closeCh
		return 0, os.ErrClosed
	}
	return 0, io.EOF
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.closeCh)
	}
	return nil
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type recordingDisplay struct {
	mu      sync.Mutex
	events  []protocol.Event
	notices []string
}

func (d *recordingDisplay) Event(ev protocol.Event) {
	d.mu.Lock()
	d.events = append(d.events, ev)
	d.mu.Unlock()
}

func (d *recordingDisplay) Notice(msg string) {
	d.mu.Lock()
	d.notices = append(d.notices, msg)
	d.mu.Unlock()
}

func (d *recordingDisplay) texts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.events))
	for i, ev := range d.events {
		out[i] = ev.Text()
	}
	return out
}

func (d *recordingDisplay) hasNotice(msg string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.notices {
		if n == msg {
			return true
		}
	}
	return false
}
