package mcppool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ToolNameSeparator joins a server name and a raw tool name into the
// qualified name the pool exposes. Server names must not contain it;
// AddServer enforces that.
const ToolNameSeparator = "__"

// ToolDescriptor describes one remote tool in the pool's aggregated catalog,
// shaped for handing to an external orchestrator choosing tools.
type ToolDescriptor struct {
	// Name is the qualified tool name: the owning server's name joined to
	// the tool's own name with ToolNameSeparator.
	Name string `json:"name"`
	// Description is the server's tool description, passed through
	// unmodified.
	Description string `json:"description"`
	// Parameters is the tool's input schema, passed through unmodified.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// JoinToolName builds the qualified name for a tool owned by a server.
func JoinToolName(server, tool string) string {
	return server + ToolNameSeparator + tool
}

// SplitToolName splits a qualified name back into server and tool names. The
// cut happens at the first occurrence of ToolNameSeparator, so tool names
// containing the separator still round-trip. It fails when the qualified
// name contains no separator at all.
func SplitToolName(qualified string) (server, tool string, err error) {
	server, tool, found := strings.Cut(qualified, ToolNameSeparator)
	if !found {
		return "", "", fmt.Errorf("invalid qualified tool name: %q", qualified)
	}
	return server, tool, nil
}

// listTools fetches a server's advertised tools and qualifies their names for
// the aggregated catalog. Stream replies collapse to their first event, which
// is where this transport puts the reply to a request.
func (p *Pool) listTools(ctx context.Context, sess *session) ([]ToolDescriptor, error) {
	msg := JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      MustString(uuid.New().String()),
		Method:  MethodToolsList,
		Params:  json.RawMessage(`{}`),
	}

	res, err := p.post(ctx, sess, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	reply, err := DecodeResponse(res)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	first, err := FirstMessage(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	if first.Error != nil {
		return nil, &RemoteError{Err: *first.Error}
	}
	if len(first.Result) == 0 {
		return nil, &MalformedResponseError{
			ContentType: res.MediaType(),
			Body:        res.Body,
			Err:         errors.New("tools/list reply has no result"),
		}
	}

	var result ListToolsResult
	if err := json.Unmarshal(first.Result, &result); err != nil {
		return nil, &MalformedResponseError{
			ContentType: res.MediaType(),
			Body:        first.Result,
			Err:         err,
		}
	}

	tools := make([]ToolDescriptor, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, ToolDescriptor{
			Name:        JoinToolName(sess.name, t.Name),
			Description: t.Description,
			Parameters:  t.InputSchema,
		})
	}

	return tools, nil
}
