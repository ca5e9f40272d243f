package mcppool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sync/atomic"
)

const (
	// HeaderSessionID is the HTTP header carrying the session identifier a
	// server issues during the handshake.
	HeaderSessionID = "Mcp-Session-Id"

	mediaTypeJSON        = "application/json"
	mediaTypeEventStream = "text/event-stream"
)

var errTransportClosed = errors.New("transport closed")

// RawResponse is a fully buffered HTTP response to a single posted message.
// The body is always materialized before a RawResponse is returned, so it
// stays readable after the underlying connection has been recycled.
type RawResponse struct {
	// Status is the HTTP status code.
	Status int
	// Header holds the response headers.
	Header http.Header
	// Body is the complete response body.
	Body []byte
}

// NoContent reports whether the server accepted the message without returning
// a reply body, as it does for notifications.
func (r *RawResponse) NoContent() bool {
	return r.Status == http.StatusAccepted
}

// MediaType returns the response's declared content type with any parameters
// such as charset stripped. It returns the raw header value when the header
// does not parse as a media type.
func (r *RawResponse) MediaType() string {
	ct := r.Header.Get("Content-Type")
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mt
}

// Transport issues single request-reply POST exchanges with one server
// endpoint. Implementations must fully buffer the response body before
// returning, and must report transport-level failures (dial errors, resets,
// truncated bodies) with errors matching ErrConnectionLost so the pool can
// tell recoverable connection loss apart from everything else.
type Transport interface {
	// Post sends one JSON-RPC message and returns the buffered response.
	// A non-empty sessionID is attached as the session-identifier header.
	// A 202 response is reported via RawResponse.NoContent, any other
	// non-200 status as a ProtocolError.
	Post(ctx context.Context, msg JSONRPCMessage, sessionID string) (*RawResponse, error)

	// Close releases the transport. Posting on a closed transport fails
	// with a plain error, never with ErrConnectionLost.
	Close() error
}

// httpTransport is the streamable HTTP implementation of Transport: every
// message is one POST to the server's endpoint.
type httpTransport struct {
	endpoint string
	client   *http.Client
	header   http.Header

	closed atomic.Bool
}

func newHTTPTransport(endpoint string, client *http.Client, header http.Header) *httpTransport {
	return &httpTransport{
		endpoint: endpoint,
		client:   client,
		header:   header,
	}
}

func (t *httpTransport) Post(ctx context.Context, msg JSONRPCMessage, sessionID string) (*RawResponse, error) {
	if t.closed.Load() {
		return nil, errTransportClosed
	}

	msgBs, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(msgBs))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mediaTypeJSON)
	req.Header.Set("Accept", mediaTypeJSON+", "+mediaTypeEventStream)
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if sessionID != "" {
		req.Header.Set(HeaderSessionID, sessionID)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	defer resp.Body.Close()

	// Materialize the body here; the connection may be recycled as soon as
	// this function returns.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to read body: %v", ErrConnectionLost, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, &ProtocolError{Status: resp.StatusCode, Body: body}
	}

	return &RawResponse{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}

func (t *httpTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.client.CloseIdleConnections()
	return nil
}
