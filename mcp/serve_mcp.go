package mcp

import (
	"context"
	"encoding/json"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"buddy-mcp/logger"
	"buddy-mcp/tools"
)

const instructions = "Tools operate on GitHub repositories, Supabase tables and Vercel projects. " +
	"Read " + docsToolsURI + " for argument examples."

// NewSDKServer builds a go-sdk server that publishes the catalog and the
// documentation resources. Tool calls go through the same path as HTTP.
func (s *Server) NewSDKServer() *sdk.Server {
	impl := &sdk.Implementation{
		Name:    ServerName,
		Title:   "buddy MCP",
		Version: s.version,
	}
	srv := sdk.NewServer(impl, &sdk.ServerOptions{
		HasTools:     true,
		HasResources: true,
		Instructions: instructions,
		Logger:       logger.Slog(),
	})
	registerDocsResources(srv)

	for _, d := range tools.Catalog() {
		srv.AddTool(&sdk.Tool{
			Name:        d.Name,
			Description: d.Description + " Usage: " + docsToolsURI + "#" + d.Name + ".",
			InputSchema: d.InputSchema,
		}, s.sdkToolHandler(d.Name))
	}
	return srv
}

// sdkToolHandler reports tool failures as error results rather than
// protocol errors so that the client model can see and correct them.
func (s *Server) sdkToolHandler(name string) sdk.ToolHandler {
	return func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		content, err := s.Call(ctx, name, args)
		if err != nil {
			return &sdk.CallToolResult{
				IsError: true,
				Content: []sdk.Content{&sdk.TextContent{Text: err.Error()}},
			}, nil
		}
		out := make([]sdk.Content, 0, len(content))
		for _, c := range content {
			out = append(out, &sdk.TextContent{Text: c.Text})
		}
		return &sdk.CallToolResult{Content: out}, nil
	}
}

// ServeStdio serves MCP over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.NewSDKServer().Run(ctx, &sdk.StdioTransport{})
}
