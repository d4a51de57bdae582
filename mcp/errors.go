package mcp

import (
	"encoding/json"

	"buddy-mcp/tools"
)

// CodeInternalError is the only JSON-RPC error code this server produces.
const CodeInternalError = -32603

var nullID = json.RawMessage("null")

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return nullID
	}
	return id
}

func ok(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: "2.0", ID: normalizeID(id), Result: result}
}

func rpcErr(id json.RawMessage, code int, msg string, data any) *Response {
	return &Response{JSONRPC: "2.0", ID: normalizeID(id), Error: &RPCError{Code: code, Message: msg, Data: data}}
}

// errTool reports a failed invocation. The kind travels in data so that
// clients can tell bad arguments from backend failures.
func errTool(id json.RawMessage, err error) *Response {
	return rpcErr(id, CodeInternalError, err.Error(), map[string]any{"kind": tools.KindOf(err)})
}

func errInternal(id json.RawMessage, msg string) *Response {
	return rpcErr(id, CodeInternalError, msg, nil)
}
