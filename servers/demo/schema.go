package demo

import (
	"github.com/MegaGrindStone/go-mcp-pool"
)

// AddArgs is the arguments for the add tool.
type AddArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// TellJokeArgs is the arguments for the tell_joke tool.
type TellJokeArgs struct {
	Topic string `json:"topic"`
}

// SearchArgs is the arguments for the search_internet_and_answer tool.
type SearchArgs struct {
	Query string `json:"query"`
}

type initializeParams struct {
	ProtocolVersion string                     `json:"protocolVersion"`
	Capabilities    mcppool.ClientCapabilities `json:"capabilities"`
	ClientInfo      mcppool.Info               `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      mcppool.Info       `json:"serverInfo"`
}

type serverCapabilities struct {
	Tools toolsCapability `json:"tools"`
}

type toolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

var addSchemaJSON = []byte(`
  {
    "type": "object",
    "properties": {
      "a": { "type": "number" },
      "b": { "type": "number" }
    },
    "required": ["a", "b"]
  }
`)

var tellJokeSchemaJSON = []byte(`
  {
    "type": "object",
    "properties": {
      "topic": { "type": "string" }
    },
    "required": ["topic"]
  }
`)

var searchSchemaJSON = []byte(`
  {
    "type": "object",
    "properties": {
      "query": { "type": "string" }
    },
    "required": ["query"]
  }
`)
