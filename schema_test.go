package mcppool_test

import (
	"encoding/json"
	"testing"

	"github.com/MegaGrindStone/go-mcp-pool"
)

func TestMustString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    mcppool.MustString
		wantErr bool
	}{
		{
			name:    "string input",
			input:   `"test123"`,
			want:    mcppool.MustString("test123"),
			wantErr: false,
		},
		{
			name:    "integer input",
			input:   `42`,
			want:    mcppool.MustString("42"),
			wantErr: false,
		},
		{
			name:    "float input",
			input:   `42.0`,
			want:    mcppool.MustString("42"),
			wantErr: false,
		},
		{
			name:    "invalid type",
			input:   `{"key": "value"}`,
			want:    mcppool.MustString(""),
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			input:   `invalid`,
			want:    mcppool.MustString(""),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got mcppool.MustString
			err := json.Unmarshal([]byte(tt.input), &got)

			if (err != nil) != tt.wantErr {
				t.Errorf("MustString.UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && got != tt.want {
				t.Errorf("MustString.UnmarshalJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMustString_MarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   mcppool.MustString
		want    string
		wantErr bool
	}{
		{
			name:    "string value",
			input:   mcppool.MustString("test123"),
			want:    `"test123"`,
			wantErr: false,
		},
		{
			name:    "numeric string",
			input:   mcppool.MustString("42"),
			want:    `"42"`,
			wantErr: false,
		},
		{
			name:    "empty string",
			input:   mcppool.MustString(""),
			want:    `""`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("MustString.MarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("MustString.MarshalJSON() = %v, want %v", string(got), tt.want)
			}
		})
	}
}

func TestMustString_RoundTrip(t *testing.T) {
	original := mcppool.MustString("test123")

	marshaled, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var unmarshaled mcppool.MustString
	err = json.Unmarshal(marshaled, &unmarshaled)
	if err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if original != unmarshaled {
		t.Errorf("Round trip failed: got %v, want %v", unmarshaled, original)
	}
}

func TestJSONRPCMessage_Marshal(t *testing.T) {
	tests := []struct {
		name  string
		input mcppool.JSONRPCMessage
		want  string
	}{
		{
			name: "request",
			input: mcppool.JSONRPCMessage{
				JSONRPC: mcppool.JSONRPCVersion,
				ID:      mcppool.MustString("1"),
				Method:  mcppool.MethodToolsList,
				Params:  json.RawMessage(`{}`),
			},
			want: `{"jsonrpc":"2.0","id":"1","method":"tools/list","params":{}}`,
		},
		{
			name: "notification without id",
			input: mcppool.JSONRPCMessage{
				JSONRPC: mcppool.JSONRPCVersion,
				Method:  mcppool.MethodNotificationsInitialized,
			},
			want: `{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		},
		{
			name: "error response",
			input: mcppool.JSONRPCMessage{
				JSONRPC: mcppool.JSONRPCVersion,
				ID:      mcppool.MustString("7"),
				Error: &mcppool.JSONRPCError{
					Code:    -32601,
					Message: "method not found",
				},
			},
			want: `{"jsonrpc":"2.0","id":"7","error":{"code":-32601,"message":"method not found"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.input)
			if err != nil {
				t.Fatalf("JSONRPCMessage marshal error = %v", err)
			}

			if string(got) != tt.want {
				t.Errorf("JSONRPCMessage marshal = %s, want %s", got, tt.want)
			}
		})
	}
}
