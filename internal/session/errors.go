package session

import (
	"errors"
	"fmt"
)

// ConnectError means the transport connection could not be established.
type ConnectError struct {
	URL        string
	StatusCode int // HTTP status of a rejected upgrade, 0 if none was received
	Err        error
}

func (e *ConnectError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("connect %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("connect %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ErrNotListening is the cause of a HandshakeError when the server answered
// with something other than the listening state.
var ErrNotListening = errors.New("server not listening")

// HandshakeError means the connection was made but streaming was refused.
type HandshakeError struct {
	Response []byte // first message from the server, nil if none was read
	Err      error
}

func (e *HandshakeError) Error() string {
	if e.Response != nil {
		return fmt.Sprintf("handshake: %v: %s", e.Err, e.Response)
	}
	return fmt.Sprintf("handshake: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// SourceError means the audio source failed mid-stream.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string { return "audio source: " + e.Err.Error() }

func (e *SourceError) Unwrap() error { return e.Err }

// SendError means a frame or control message could not be written.
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return "send: " + e.Err.Error() }

func (e *SendError) Unwrap() error { return e.Err }

// ReceiveError means the inbound side of the connection failed.
type ReceiveError struct {
	Err error
}

func (e *ReceiveError) Error() string { return "receive: " + e.Err.Error() }

func (e *ReceiveError) Unwrap() error { return e.Err }

func IsConnectError(err error) bool {
	var target *ConnectError
	return errors.As(err, &target)
}

func IsHandshakeError(err error) bool {
	var target *HandshakeError
	return errors.As(err, &target)
}

func IsSourceError(err error) bool {
	var target *SourceError
	return errors.As(err, &target)
}

func IsSendError(err error) bool {
	var target *SendError
	return errors.As(err, &target)
}

func IsReceiveError(err error) bool {
	var target *ReceiveError
	return errors.As(err, &target)
}
