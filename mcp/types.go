package mcp

import (
	"encoding/json"

	"buddy-mcp/tools"
)

// ProtocolVersion is the MCP revision announced by initialize.
const ProtocolVersion = "2024-11-05"

// ServerName is the name announced in serverInfo.
const ServerName = "buddy-mcp-server"

// Request represents an inbound JSON-RPC 2.0/MCP request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC 2.0/MCP response payload.
// Either Result or Error will be set. ID is null when the request had none.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// CallParams are the params of tools/call.
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallResult is the result of a successful tools/call.
type CallResult struct {
	Content []tools.Content `json:"content"`
}

// ServerInfo identifies the server in initialize and server/initialized.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the result of initialize and the params of the
// server/initialized event.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

// Notification is a JSON-RPC message without an id.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// ListToolsResult is the result of tools/list.
type ListToolsResult struct {
	Tools []tools.Descriptor `json:"tools"`
}
