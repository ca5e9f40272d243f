package mcppool

import (
	"errors"
	"fmt"
	"time"
)

// ErrConnectionLost signals a transport-level failure: the connection was
// refused, reset by the peer, or the response body was cut short. It is the
// only error kind the pool reacts to by reconnecting and retrying; every
// other failure propagates to the caller unchanged. Errors returned by
// Transport implementations must match it via errors.Is to be treated as
// recoverable.
var ErrConnectionLost = errors.New("connection lost")

// ProtocolError reports an HTTP exchange that completed but did not follow
// the protocol: a status code other than the expected 200/202, or a
// handshake response missing its session identifier. It carries the status
// and the raw response body for inspection and is never retried
// automatically.
type ProtocolError struct {
	// Status is the HTTP status code of the offending response.
	Status int
	// Body is the raw, fully buffered response body.
	Body []byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// MalformedResponseError reports a response body that did not parse according
// to its declared content type.
type MalformedResponseError struct {
	// ContentType is the declared media type of the response.
	ContentType string
	// Body is the raw payload that failed to parse.
	Body []byte
	// Err is the underlying parse error, when one exists.
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s response: %v", e.ContentType, e.Err)
	}
	return fmt.Sprintf("malformed %s response", e.ContentType)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// RemoteError reports a well-formed JSON-RPC reply whose envelope carried an
// error object. The server's error payload is preserved intact in Err.
type RemoteError struct {
	Err JSONRPCError
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error: %s", e.Err.Error())
}

func (e *RemoteError) Unwrap() error { return e.Err }

// UnsupportedContentTypeError reports a response whose declared content type
// is neither application/json nor text/event-stream.
type UnsupportedContentTypeError struct {
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type: %s", e.ContentType)
}

// ReconnectError reports that the reconnection window for a server elapsed
// without a successful handshake. It is fatal for the in-flight operation;
// the server stays registered and a later call may trigger a fresh
// reconnection attempt.
type ReconnectError struct {
	// Server is the pool-local name of the server that could not be reached.
	Server string
	// Timeout is the reconnection window that was exhausted.
	Timeout time.Duration
	// Err is the error from the last handshake attempt.
	Err error
}

func (e *ReconnectError) Error() string {
	return fmt.Sprintf("failed to reconnect to %q within %s: %v", e.Server, e.Timeout, e.Err)
}

func (e *ReconnectError) Unwrap() error { return e.Err }

// DuplicateServerError reports an AddServer call for a name that is already
// registered.
type DuplicateServerError struct {
	Server string
}

func (e *DuplicateServerError) Error() string {
	return fmt.Sprintf("server %q already exists", e.Server)
}

// UnknownServerError reports an operation against a server name that was
// never registered.
type UnknownServerError struct {
	Server string
}

func (e *UnknownServerError) Error() string {
	return fmt.Sprintf("server %q does not exist", e.Server)
}
