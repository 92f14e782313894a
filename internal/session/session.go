package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/leonardotrapani/s2tstream/internal/protocol"
)

const (
	DefaultAuthHeader = "x-zoom-s2t-key"
	closeWait         = time.Second
)

// Conn is the subset of *websocket.Conn a session and its tasks use.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Options configures Establish
type Options struct {
	URL        string
	Language   string
	Token      string
	AuthHeader string // defaults to DefaultAuthHeader

	// HandshakeTimeout bounds dial plus the start/listening exchange. Zero means
	// the wait is bounded only by ctx.
	HandshakeTimeout time.Duration

	// Lenient accepts the legacy substring form of the listening marker.
	Lenient bool

	// OnPhase is called after every phase change, with the session lock released.
	OnPhase func(from, to Phase)

	Logger *slog.Logger
}

// Session is one connection lifecycle, from dial to close.
type Session struct {
	id       string
	url      string
	language string
	matcher  protocol.Matcher
	onPhase  func(from, to Phase)
	logger   *slog.Logger

	conn     Conn
	greeting []byte

	mu    sync.Mutex
	phase Phase

	closeOnce sync.Once
	closeErr  error
}

// BuildURL adds the language query parameter to the endpoint URL.
func BuildURL(endpoint, language string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}

	if language != "" {
		q := u.Query()
		q.Set("language", language)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Establish dials the endpoint and performs the start/listening handshake.
// On any failure the connection is closed and no session is returned.
func Establish(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		id:       uuid.NewString(),
		language: opts.Language,
		matcher:  protocol.Matcher{Lenient: opts.Lenient},
		onPhase:  opts.OnPhase,
		phase:    Connecting,
	}
	s.logger = logger.With("session_id", s.id)

	wsURL, err := BuildURL(opts.URL, opts.Language)
	if err != nil {
		s.setPhase(Closed)
		return nil, &ConnectError{URL: opts.URL, Err: err}
	}
	s.url = wsURL

	if opts.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.HandshakeTimeout)
		defer cancel()
	}

	header := opts.AuthHeader
	if header == "" {
		header = DefaultAuthHeader
	}
	headers := http.Header{}
	if opts.Token != "" {
		headers.Set(header, opts.Token)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
	}

	s.logger.Debug("connecting", "url", wsURL, "language", opts.Language)
	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		s.setPhase(Closed)
		ce := &ConnectError{URL: wsURL, Err: err}
		if resp != nil {
			ce.StatusCode = resp.StatusCode
		}
		return nil, ce
	}
	s.conn = conn

	if err := s.setPhase(Handshaking); err != nil {
		_ = s.Close()
		return nil, err
	}

	if err := s.handshake(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	if err := s.setPhase(Streaming); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// handshake sends the start action and consumes exactly one response.
func (s *Session) handshake(ctx context.Context) error {
	// unblock the read if ctx ends first; the conn is unusable afterwards
	stop := context.AfterFunc(ctx, func() {
		past := time.Unix(1, 0)
		_ = s.conn.SetReadDeadline(past)
		_ = s.conn.SetWriteDeadline(past)
	})

	start, err := protocol.Encode(protocol.ActionStart)
	if err != nil {
		stop()
		return &HandshakeError{Err: err}
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, start); err != nil {
		stop()
		return &HandshakeError{Err: fmt.Errorf("send start: %w", orContext(ctx, err))}
	}

	mt, data, err := s.conn.ReadMessage()
	if !stop() {
		if err == nil {
			err = ctx.Err()
		}
		return &HandshakeError{Err: fmt.Errorf("await listening: %w", orContext(ctx, err))}
	}
	if err != nil {
		return &HandshakeError{Err: fmt.Errorf("await listening: %w", err)}
	}

	ev := protocol.Decode(data, mt == websocket.TextMessage)
	if !s.matcher.IsListening(ev) {
		s.logger.Debug("handshake rejected", "kind", ev.Kind, "state", ev.State)
		return &HandshakeError{Response: data, Err: ErrNotListening}
	}

	s.greeting = data
	return nil
}

// orContext prefers the context error when ctx ended, since a deadline
// tripped by ctx surfaces as an opaque i/o timeout.
func orContext(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return err
}

func (s *Session) ID() string { return s.id }

func (s *Session) URL() string { return s.url }

func (s *Session) Language() string { return s.language }

// Conn exposes the connection to the stream tasks. Only the session closes it.
func (s *Session) Conn() Conn { return s.conn }

// Greeting returns the handshake response consumed by Establish.
func (s *Session) Greeting() []byte { return s.greeting }

// Matcher returns the marker matcher configured for this session.
func (s *Session) Matcher() protocol.Matcher { return s.matcher }

func (s *Session) Logger() *slog.Logger { return s.logger }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// MarkDraining records that the uplink finished while the downlink runs on.
func (s *Session) MarkDraining() error {
	return s.setPhase(Draining)
}

func (s *Session) setPhase(to Phase) error {
	s.mu.Lock()
	from := s.phase
	if !canTransition(from, to) {
		s.mu.Unlock()
		err := &transitionError{from: from, to: to}
		if s.logger != nil {
			s.logger.Warn("phase change rejected", "error", err)
		}
		return err
	}
	s.phase = to
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("phase", "from", from, "to", to)
	}
	if s.onPhase != nil {
		s.onPhase(from, to)
	}
	return nil
}

// Close sends a normal close frame (best effort) and closes the connection.
// Calling Close more than once is a no-op returning the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.conn != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait)); err != nil &&
				!errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Debug("close frame not sent", "error", err)
			}
			s.closeErr = s.conn.Close()
		}
		_ = s.setPhase(Closed)
		s.logger.Debug("session closed")
	})
	return s.closeErr
}
