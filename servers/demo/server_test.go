package demo_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/MegaGrindStone/go-mcp-pool"
	"github.com/MegaGrindStone/go-mcp-pool/servers/demo"
)

type stubCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []demo.ChatRequest
}

func (s *stubCompleter) Complete(_ context.Context, req demo.ChatRequest) (string, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()

	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubCompleter) requests() []demo.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]demo.ChatRequest(nil), s.reqs...)
}

type stubSearcher struct {
	result demo.SearchResult
	err    error
}

func (s stubSearcher) Search(context.Context, string) (demo.SearchResult, error) {
	return s.result, s.err
}

func postMessage(t *testing.T, client *http.Client, url, sessionID, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set(mcppool.HeaderSessionID, sessionID)
	}

	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to post message: %v", err)
	}
	return res
}

func firstEventMessage(t *testing.T, body []byte) mcppool.JSONRPCMessage {
	t.Helper()

	for _, line := range strings.Split(string(body), "\n") {
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var msg mcppool.JSONRPCMessage
		if err := json.Unmarshal([]byte(strings.TrimSpace(line[len("data:"):])), &msg); err != nil {
			t.Fatalf("Failed to unmarshal event: %v", err)
		}
		return msg
	}

	t.Fatal("no data line in response body")
	return mcppool.JSONRPCMessage{}
}

func TestServerHandshake(t *testing.T) {
	ts := httptest.NewServer(demo.NewServer())
	defer ts.Close()

	res := postMessage(t, ts.Client(), ts.URL, "",
		`{"jsonrpc":"2.0","id":"1","method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{"tools":true},"clientInfo":{"name":"test","version":"0"}}}`)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("initialize status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("initialize Content-Type = %q, want text/event-stream", ct)
	}
	sessionID := res.Header.Get(mcppool.HeaderSessionID)
	if sessionID == "" {
		t.Fatal("initialize response carries no session id header")
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	msg := firstEventMessage(t, body)
	if msg.ID != mcppool.MustString("1") {
		t.Errorf("initialize reply id = %q, want %q", msg.ID, "1")
	}

	var result struct {
		ProtocolVersion string       `json:"protocolVersion"`
		ServerInfo      mcppool.Info `json:"serverInfo"`
	}
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}
	if result.ProtocolVersion != mcppool.ProtocolVersion {
		t.Errorf("protocolVersion = %q, want %q", result.ProtocolVersion, mcppool.ProtocolVersion)
	}
	if result.ServerInfo.Name != "demo" {
		t.Errorf("serverInfo name = %q, want %q", result.ServerInfo.Name, "demo")
	}

	res = postMessage(t, ts.Client(), ts.URL, sessionID, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		t.Errorf("initialized notification status = %d, want %d", res.StatusCode, http.StatusAccepted)
	}

	res = postMessage(t, ts.Client(), ts.URL, "bogus", `{"jsonrpc":"2.0","id":"2","method":"tools/list"}`)
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func newDemoPool(t *testing.T, opts ...demo.Option) *mcppool.Pool {
	t.Helper()

	ts := httptest.NewServer(demo.NewServer(opts...))
	t.Cleanup(ts.Close)

	pool := mcppool.NewPool()
	t.Cleanup(func() { pool.CloseAll() })

	if err := pool.AddServer(context.Background(), "demo", ts.URL); err != nil {
		t.Fatalf("AddServer() error = %v", err)
	}
	return pool
}

func callTool(t *testing.T, pool *mcppool.Pool, name string, args map[string]any) mcppool.JSONRPCMessage {
	t.Helper()

	reply, err := pool.CallTool(context.Background(), name, args)
	if err != nil {
		t.Fatalf("CallTool(%q) error = %v", name, err)
	}
	msg, err := mcppool.FirstMessage(reply)
	if err != nil {
		t.Fatalf("FirstMessage() error = %v", err)
	}
	return msg
}

func toolResult(t *testing.T, msg mcppool.JSONRPCMessage) mcppool.CallToolResult {
	t.Helper()

	if msg.Error != nil {
		t.Fatalf("tool call failed: %v", msg.Error)
	}
	var result mcppool.CallToolResult
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		t.Fatalf("Failed to unmarshal tool result: %v", err)
	}
	return result
}

func TestServerWithPool(t *testing.T) {
	completer := &stubCompleter{reply: "Why did the gopher cross the road?"}
	pool := newDemoPool(t, demo.WithChatCompleter(completer))

	tools := pool.Tools()
	wantNames := []string{"demo__add", "demo__tell_joke", "demo__search_internet_and_answer"}
	if len(tools) != len(wantNames) {
		t.Fatalf("Tools() len = %d, want %d", len(tools), len(wantNames))
	}
	for i, want := range wantNames {
		if tools[i].Name != want {
			t.Errorf("Tools()[%d].Name = %q, want %q", i, tools[i].Name, want)
		}
	}
	if len(tools[0].Parameters) == 0 {
		t.Error("add tool carries no parameters schema")
	}

	result := toolResult(t, callTool(t, pool, "demo__add", map[string]any{"a": 2, "b": 3}))
	if result.IsError {
		t.Fatalf("add returned error result: %v", result.Content)
	}
	if len(result.Content) != 1 || result.Content[0].Text != "5" {
		t.Errorf("add content = %v, want a single \"5\"", result.Content)
	}

	result = toolResult(t, callTool(t, pool, "demo__tell_joke", map[string]any{"topic": "gophers"}))
	if result.IsError {
		t.Fatalf("tell_joke returned error result: %v", result.Content)
	}
	if result.Content[0].Text != completer.reply {
		t.Errorf("joke = %q, want %q", result.Content[0].Text, completer.reply)
	}

	reqs := completer.requests()
	if len(reqs) != 1 {
		t.Fatalf("completer saw %d requests, want %d", len(reqs), 1)
	}
	if !strings.Contains(reqs[0].Messages[0].Content, "gophers") {
		t.Errorf("joke prompt = %q, want the topic in it", reqs[0].Messages[0].Content)
	}
	if reqs[0].MaxTokens != 50 {
		t.Errorf("joke max tokens = %d, want %d", reqs[0].MaxTokens, 50)
	}
}

func TestServerToolErrors(t *testing.T) {
	completer := &stubCompleter{err: errors.New("model unavailable")}
	pool := newDemoPool(t, demo.WithChatCompleter(completer))

	t.Run("validation failure", func(t *testing.T) {
		msg := callTool(t, pool, "demo__add", map[string]any{"a": 2})
		if msg.Error == nil {
			t.Fatal("add with a missing argument succeeded")
		}
		if !strings.Contains(msg.Error.Message, "validation failed") {
			t.Errorf("error message = %q, want a validation failure", msg.Error.Message)
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		msg := callTool(t, pool, "demo__nope", nil)
		if msg.Error == nil {
			t.Fatal("unknown tool succeeded")
		}
		if !strings.Contains(msg.Error.Message, "tool not found") {
			t.Errorf("error message = %q, want tool not found", msg.Error.Message)
		}
	})

	t.Run("completer failure becomes an error result", func(t *testing.T) {
		result := toolResult(t, callTool(t, pool, "demo__tell_joke", map[string]any{"topic": "x"}))
		if !result.IsError {
			t.Fatal("tell_joke with a failing completer returned a success result")
		}
		if !strings.Contains(result.Content[0].Text, "failed to tell joke") {
			t.Errorf("error content = %q, want the failure text", result.Content[0].Text)
		}
	})
}

func TestServerSearchTool(t *testing.T) {
	completer := &stubCompleter{reply: "Go is a programming language."}
	searcher := stubSearcher{result: demo.SearchResult{
		URL:  "https://example.com/go",
		Text: "Go is an open source programming language.",
	}}
	pool := newDemoPool(t, demo.WithChatCompleter(completer), demo.WithSearcher(searcher))

	result := toolResult(t, callTool(t, pool, "demo__search_internet_and_answer", map[string]any{"query": "what is go"}))
	if result.IsError {
		t.Fatalf("search returned error result: %v", result.Content)
	}
	if result.Content[0].Text != completer.reply {
		t.Errorf("answer = %q, want %q", result.Content[0].Text, completer.reply)
	}

	reqs := completer.requests()
	if len(reqs) != 1 {
		t.Fatalf("completer saw %d requests, want %d", len(reqs), 1)
	}
	msgs := reqs[0].Messages
	if len(msgs) != 3 {
		t.Fatalf("completion carried %d messages, want %d", len(msgs), 3)
	}
	if msgs[0].Role != demo.RoleSystem {
		t.Errorf("first message role = %q, want %q", msgs[0].Role, demo.RoleSystem)
	}
	if !strings.Contains(msgs[1].Content, "https://example.com/go") {
		t.Errorf("context message = %q, want the page URL in it", msgs[1].Content)
	}
	if msgs[2].Role != demo.RoleUser || msgs[2].Content != "what is go" {
		t.Errorf("user message = %q, want the query", msgs[2].Content)
	}
}
