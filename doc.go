// Package mcppool implements a client pool for the Model Context Protocol
// (MCP) over the streamable HTTP transport, where every message is a single
// POST and replies arrive either as one JSON object or as a stream of
// data-prefixed events.
//
// A Pool keeps one persistent session per registered server, performs the
// two-step initialize handshake servers require before accepting calls, and
// aggregates the tools every server advertises into a single catalog whose
// names are qualified with the owning server's name. When a connection is
// lost mid-operation the pool reconnects with fresh handshakes at a fixed
// interval and retries the operation exactly once, so callers only ever see
// failures that survived recovery.
//
// The package is transport-pluggable through the Transport interface and is
// safe for concurrent use; see Pool for the full surface.
package mcppool
