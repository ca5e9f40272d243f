package mcppool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default reconnection behavior: a fixed wait between handshake attempts
// inside a hard window.
const (
	defaultReconnectInterval = 2 * time.Second
	defaultReconnectTimeout  = 30 * time.Second
)

// Pool maintains persistent sessions with any number of MCP servers over
// streamable HTTP and exposes their tools under one namespaced catalog.
//
// Each server is registered once under a caller-chosen name. AddServer runs
// the mandatory initialize handshake, fetches the server's tools, and merges
// them into the catalog with qualified names so tools from different servers
// never collide. Calls that fail from a lost connection transparently
// reconnect and retry once; every other failure is returned to the caller as
// a distinct error type.
//
// A Pool is safe for concurrent use. Reconnection is serialized per server,
// so one server's outage never blocks calls to the others.
type Pool struct {
	info              Info
	logger            *slog.Logger
	httpClient        *http.Client
	reconnectInterval time.Duration
	reconnectTimeout  time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
	tools    []ToolDescriptor
}

// PoolOption configures a Pool created by NewPool.
type PoolOption func(*Pool)

// WithClientInfo sets the client name and version advertised to servers
// during the handshake.
func WithClientInfo(info Info) PoolOption {
	return func(p *Pool) {
		p.info = info
	}
}

// WithLogger sets the logger used by the pool. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used for servers added without one of
// their own. Defaults to http.DefaultClient.
func WithHTTPClient(client *http.Client) PoolOption {
	return func(p *Pool) {
		p.httpClient = client
	}
}

// WithReconnectInterval sets the fixed wait between handshake attempts while
// reconnecting. Defaults to 2 seconds.
func WithReconnectInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.reconnectInterval = d
	}
}

// WithReconnectTimeout sets the window within which reconnection handshakes
// are retried before the operation fails with a ReconnectError. Defaults to
// 30 seconds.
func WithReconnectTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.reconnectTimeout = d
	}
}

// NewPool creates an empty pool ready to accept servers.
func NewPool(options ...PoolOption) *Pool {
	p := &Pool{
		info:              Info{Name: "go-mcp-pool", Version: "0.1.0"},
		logger:            slog.Default(),
		httpClient:        http.DefaultClient,
		reconnectInterval: defaultReconnectInterval,
		reconnectTimeout:  defaultReconnectTimeout,
		sessions:          make(map[string]*session),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// serverConfig carries the per-server transport configuration captured by
// AddServer and reused for every reconnection of that server.
type serverConfig struct {
	httpClient *http.Client
	header     http.Header
	open       func(endpoint string) Transport
}

// ServerOption configures one server at AddServer time.
type ServerOption func(*serverConfig)

// WithServerHTTPClient sets the HTTP client used for this server's
// transports, overriding the pool-wide one.
func WithServerHTTPClient(client *http.Client) ServerOption {
	return func(c *serverConfig) {
		c.httpClient = client
	}
}

// WithServerHeader adds headers to every request sent to this server, on top
// of the standard pair.
func WithServerHeader(header http.Header) ServerOption {
	return func(c *serverConfig) {
		c.header = header
	}
}

// WithServerTransport sets a custom transport factory for this server,
// replacing the built-in HTTP transport. The factory is called again for
// every reconnection.
func WithServerTransport(open func(endpoint string) Transport) ServerOption {
	return func(c *serverConfig) {
		c.open = open
	}
}

// AddServer registers a server under name, performs the handshake, and
// extends the pool's catalog with the server's tools. It either fully
// succeeds or leaves the pool untouched: a failing handshake or tool listing
// closes whatever was opened and registers nothing.
//
// The name must be unique within the pool (DuplicateServerError otherwise)
// and must not contain ToolNameSeparator, which would make qualified tool
// names ambiguous.
func (p *Pool) AddServer(ctx context.Context, name, endpoint string, options ...ServerOption) error {
	if strings.Contains(name, ToolNameSeparator) {
		return fmt.Errorf("server name %q must not contain %q", name, ToolNameSeparator)
	}

	p.mu.RLock()
	_, exists := p.sessions[name]
	p.mu.RUnlock()
	if exists {
		return &DuplicateServerError{Server: name}
	}

	cfg := serverConfig{httpClient: p.httpClient}
	for _, opt := range options {
		opt(&cfg)
	}
	open := cfg.open
	if open == nil {
		client := cfg.httpClient
		header := cfg.header
		open = func(endpoint string) Transport {
			return newHTTPTransport(endpoint, client, header)
		}
	}

	sess := &session{
		name:     name,
		endpoint: endpoint,
		open: func() Transport {
			return open(endpoint)
		},
	}

	tr := sess.open()
	sessionID, err := p.handshake(ctx, tr)
	if err != nil {
		tr.Close()
		return fmt.Errorf("failed to add server %q: %w", name, err)
	}
	sess.transport = tr
	sess.sessionID = sessionID

	tools, err := p.listTools(ctx, sess)
	if err != nil {
		sess.close()
		return fmt.Errorf("failed to add server %q: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.sessions[name]; exists {
		sess.close()
		return &DuplicateServerError{Server: name}
	}
	p.sessions[name] = sess
	p.tools = append(p.tools, tools...)

	p.logger.Info("server added",
		slog.String("server", name), slog.Int("tools", len(tools)))

	return nil
}

// Call issues a JSON-RPC request to a registered server and returns the
// decoded reply: a SingleReply for application/json responses, a StreamReply
// with the full ordered event sequence for text/event-stream responses, or a
// nil Reply when the server accepted the request with no content (202).
//
// The request id is generated when no WithRequestID option pins one. A lost
// connection triggers one reconnect-and-retry cycle; every other failure is
// returned as-is.
func (p *Pool) Call(ctx context.Context, server, method string, params any, options ...CallOption) (Reply, error) {
	sess, err := p.session(server)
	if err != nil {
		return nil, err
	}

	var cfg callConfig
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.requestID == "" {
		cfg.requestID = uuid.New().String()
	}

	var rawParams json.RawMessage
	if params != nil {
		rawParams, err = json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
	}

	msg := JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      MustString(cfg.requestID),
		Method:  method,
		Params:  rawParams,
	}

	res, err := p.post(ctx, sess, msg)
	if err != nil {
		return nil, err
	}
	if res.NoContent() {
		return nil, nil
	}

	return DecodeResponse(res)
}

// CallTool invokes a tool through its qualified catalog name, routing the
// underlying tools/call request to the owning server.
func (p *Pool) CallTool(ctx context.Context, qualified string, args map[string]any, options ...CallOption) (Reply, error) {
	server, tool, err := SplitToolName(qualified)
	if err != nil {
		return nil, err
	}

	return p.Call(ctx, server, MethodToolsCall, CallToolParams{
		Name:      tool,
		Arguments: args,
	}, options...)
}

// Notify sends a one-way notification to a registered server. Notifications
// carry no request id and expect no reply; whatever the server answers with
// is discarded.
func (p *Pool) Notify(ctx context.Context, server, method string, params any) error {
	sess, err := p.session(server)
	if err != nil {
		return err
	}

	var rawParams json.RawMessage
	if params != nil {
		rawParams, err = json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
	}

	msg := JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  rawParams,
	}

	_, err = p.post(ctx, sess, msg)
	return err
}

// ListTools fetches the current tool list of one registered server, names
// qualified. It does not modify the aggregated catalog, which reflects each
// server's tools as of the moment it was added; callers that want a fresh
// view re-list explicitly.
func (p *Pool) ListTools(ctx context.Context, server string) ([]ToolDescriptor, error) {
	sess, err := p.session(server)
	if err != nil {
		return nil, err
	}
	return p.listTools(ctx, sess)
}

// Tools returns a copy of the aggregated tool catalog, ordered by server
// addition and then by each server's own tool ordering.
func (p *Pool) Tools() []ToolDescriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.tools)
}

// CloseAll closes every session's transport. It is best-effort: a failing
// close is recorded and the remaining sessions are still closed, so one bad
// session cannot block shutdown. Registrations stay in place; calls made
// after CloseAll fail.
func (p *Pool) CloseAll() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var errs []error
	for name, sess := range p.sessions {
		if err := sess.close(); err != nil {
			p.logger.Warn("failed to close session",
				slog.String("server", name), "err", err)
			errs = append(errs, fmt.Errorf("failed to close %q: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// CallOption configures a single call.
type CallOption func(*callConfig)

type callConfig struct {
	requestID string
}

// WithRequestID pins the JSON-RPC request id instead of generating one.
func WithRequestID(id string) CallOption {
	return func(c *callConfig) {
		c.requestID = id
	}
}

func (p *Pool) session(name string) (*session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sess, ok := p.sessions[name]
	if !ok {
		return nil, &UnknownServerError{Server: name}
	}
	return sess, nil
}

// post sends one message through a session's current transport. On a lost
// connection it reconnects and retries the message exactly once; a session
// whose previous reconnection window expired is reconnected before posting
// at all. Everything else returns to the caller untouched.
func (p *Pool) post(ctx context.Context, sess *session, msg JSONRPCMessage) (*RawResponse, error) {
	for attempt := 0; ; attempt++ {
		tr, sessionID, broken := sess.snapshot()
		if broken {
			if err := p.reconnect(ctx, sess, tr); err != nil {
				return nil, err
			}
			tr, sessionID, _ = sess.snapshot()
		}

		res, err := tr.Post(ctx, msg, sessionID)
		if err == nil {
			return res, nil
		}
		if attempt > 0 || !errors.Is(err, ErrConnectionLost) {
			return nil, err
		}

		if err := p.reconnect(ctx, sess, tr); err != nil {
			return nil, err
		}
	}
}
