package demo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/MegaGrindStone/go-mcp-pool"
	"github.com/google/uuid"
	"github.com/tmaxmax/go-sse"
)

const (
	jsonRPCMethodNotFoundCode = -32601
	jsonRPCInvalidParamsCode  = -32602
	jsonRPCInternalErrorCode  = -32603
)

// Server is a demo MCP server exposing a calculator, a joke teller, and an
// internet search tool over the streamable HTTP transport. Every request is
// one POSTed JSON-RPC message; replies are delivered as single-event SSE
// streams and notifications are accepted with 202.
type Server struct {
	info      mcppool.Info
	logger    *slog.Logger
	completer ChatCompleter
	searcher  Searcher

	mu       sync.Mutex
	sessions map[string]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used by the server. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithChatCompleter sets the completer behind the joke and search tools.
// Without one those tools report an error result.
func WithChatCompleter(completer ChatCompleter) Option {
	return func(s *Server) {
		s.completer = completer
	}
}

// WithSearcher sets the searcher behind the search tool. Defaults to a
// DuckDuckGoSearcher on http.DefaultClient.
func WithSearcher(searcher Searcher) Option {
	return func(s *Server) {
		s.searcher = searcher
	}
}

// NewServer creates a demo server ready to be mounted on an http.Server.
func NewServer(options ...Option) *Server {
	s := &Server{
		info:     mcppool.Info{Name: "demo", Version: "1.0.0"},
		logger:   slog.Default(),
		sessions: make(map[string]struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.searcher == nil {
		s.searcher = NewDuckDuckGoSearcher(nil)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var msg mcppool.JSONRPCMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode message: %v", err), http.StatusBadRequest)
		return
	}

	if msg.Method == mcppool.MethodInitialize {
		s.handleInitialize(w, r, msg)
		return
	}

	sessionID := r.Header.Get(mcppool.HeaderSessionID)
	if !s.sessionExists(sessionID) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	switch msg.Method {
	case mcppool.MethodNotificationsInitialized:
		w.WriteHeader(http.StatusAccepted)
	case mcppool.MethodToolsList:
		s.handleListTools(w, r, msg)
	case mcppool.MethodToolsCall:
		s.handleCallTool(w, r, msg)
	default:
		if msg.ID == "" {
			// Unknown notifications are accepted and discarded.
			w.WriteHeader(http.StatusAccepted)
			return
		}
		s.writeError(w, r, msg.ID, jsonRPCMethodNotFoundCode, fmt.Sprintf("method not found: %s", msg.Method))
	}
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request, msg mcppool.JSONRPCMessage) {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			s.writeError(w, r, msg.ID, jsonRPCInvalidParamsCode, fmt.Sprintf("failed to unmarshal params: %v", err))
			return
		}
	}

	sessionID := uuid.New().String()
	s.mu.Lock()
	s.sessions[sessionID] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("session initialized",
		slog.String("sessionID", sessionID),
		slog.String("client", params.ClientInfo.Name))

	result, err := json.Marshal(initializeResult{
		ProtocolVersion: mcppool.ProtocolVersion,
		Capabilities: serverCapabilities{
			Tools: toolsCapability{ListChanged: false},
		},
		ServerInfo: s.info,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal result: %v", err), http.StatusInternalServerError)
		return
	}

	// The session identifier rides on the response headers, so it must be
	// set before the body is streamed.
	w.Header().Set(mcppool.HeaderSessionID, sessionID)
	s.writeMessage(w, r, mcppool.JSONRPCMessage{
		JSONRPC: mcppool.JSONRPCVersion,
		ID:      msg.ID,
		Result:  result,
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request, msg mcppool.JSONRPCMessage) {
	result, err := json.Marshal(mcppool.ListToolsResult{Tools: toolList})
	if err != nil {
		s.writeError(w, r, msg.ID, jsonRPCInternalErrorCode, fmt.Sprintf("failed to marshal result: %v", err))
		return
	}

	s.writeMessage(w, r, mcppool.JSONRPCMessage{
		JSONRPC: mcppool.JSONRPCVersion,
		ID:      msg.ID,
		Result:  result,
	})
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request, msg mcppool.JSONRPCMessage) {
	var params mcppool.CallToolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.writeError(w, r, msg.ID, jsonRPCInvalidParamsCode, fmt.Sprintf("failed to unmarshal params: %v", err))
		return
	}

	res, err := s.callTool(r.Context(), params)
	if err != nil {
		s.writeError(w, r, msg.ID, jsonRPCInvalidParamsCode, err.Error())
		return
	}

	result, err := json.Marshal(res)
	if err != nil {
		s.writeError(w, r, msg.ID, jsonRPCInternalErrorCode, fmt.Sprintf("failed to marshal result: %v", err))
		return
	}

	s.writeMessage(w, r, mcppool.JSONRPCMessage{
		JSONRPC: mcppool.JSONRPCVersion,
		ID:      msg.ID,
		Result:  result,
	})
}

func (s *Server) sessionExists(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// writeMessage delivers one JSON-RPC message as a single-event SSE stream.
func (s *Server) writeMessage(w http.ResponseWriter, r *http.Request, msg mcppool.JSONRPCMessage) {
	msgBs, err := json.Marshal(msg)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal message: %v", err), http.StatusInternalServerError)
		return
	}

	sess, err := sse.Upgrade(w, r)
	if err != nil {
		nErr := fmt.Errorf("failed to upgrade session: %w", err)
		s.logger.Error("failed to upgrade session", "err", nErr)
		http.Error(w, nErr.Error(), http.StatusInternalServerError)
		return
	}

	sseMsg := sse.Message{
		Type: sse.Type("message"),
	}
	sseMsg.AppendData(string(msgBs))
	if err := sess.Send(&sseMsg); err != nil {
		s.logger.Error("failed to send message", "err", err)
		return
	}
	if err := sess.Flush(); err != nil {
		s.logger.Error("failed to flush message", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, id mcppool.MustString, code int, message string) {
	s.writeMessage(w, r, mcppool.JSONRPCMessage{
		JSONRPC: mcppool.JSONRPCVersion,
		ID:      id,
		Error: &mcppool.JSONRPCError{
			Code:    code,
			Message: message,
		},
	})
}
