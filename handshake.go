package mcppool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// handshake performs the two-step exchange a server requires on a fresh
// transport before it accepts any other call: an initialize request whose
// response carries the session identifier header, followed by a
// notifications/initialized notification confirming it. It returns the
// session identifier the server issued.
func (p *Pool) handshake(ctx context.Context, tr Transport) (string, error) {
	params, err := json.Marshal(initializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ClientCapabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
		ClientInfo: p.info,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal initialize params: %w", err)
	}

	initMsg := JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      MustString(uuid.New().String()),
		Method:  MethodInitialize,
		Params:  params,
	}

	res, err := tr.Post(ctx, initMsg, "")
	if err != nil {
		return "", fmt.Errorf("failed to initialize: %w", err)
	}

	// The session identifier travels in a response header; the initialize
	// body itself carries nothing this client needs.
	sessionID := res.Header.Get(HeaderSessionID)
	if sessionID == "" {
		return "", fmt.Errorf("missing %s header in initialize response: %w",
			HeaderSessionID, &ProtocolError{Status: res.Status, Body: res.Body})
	}

	confirm := JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		Method:  MethodNotificationsInitialized,
	}
	if _, err := tr.Post(ctx, confirm, sessionID); err != nil {
		return "", fmt.Errorf("failed to confirm initialization: %w", err)
	}

	return sessionID, nil
}
