package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"buddy-mcp/config"
	"buddy-mcp/logger"
	"buddy-mcp/tools"
)

// Invoker runs one named tool. *tools.Dispatcher implements it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) ([]tools.Content, error)
}

// Options configure a Server.
type Options struct {
	// Version is announced in serverInfo.
	Version string
	// KeepAlive is the event-stream heartbeat interval.
	KeepAlive time.Duration
	// Metrics may be nil.
	Metrics *Metrics
	// Logger defaults to the process logger.
	Logger *zerolog.Logger
}

// Server answers MCP requests against an Invoker. It is shared by the HTTP
// and stdio transports.
type Server struct {
	invoker   Invoker
	version   string
	keepAlive time.Duration
	metrics   *Metrics
	log       zerolog.Logger
}

// NewServer returns a Server for inv.
func NewServer(inv Invoker, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = config.DefaultKeepAlive
	}
	log := logger.Get()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Server{
		invoker:   inv,
		version:   opts.Version,
		keepAlive: opts.KeepAlive,
		metrics:   opts.Metrics,
		log:       log,
	}
}

func (s *Server) initializeResult() InitializeResult {
	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ServerInfo:      ServerInfo{Name: ServerName, Version: s.version},
	}
}

// Handle answers one request with exactly one response.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	s.metrics.observeMethod(req.Method)

	switch req.Method {
	case "initialize":
		return ok(req.ID, s.initializeResult())
	case "tools/list":
		return ok(req.ID, ListToolsResult{Tools: tools.Catalog()})
	case "tools/call":
		var p CallParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return errTool(req.ID, &tools.Error{
					Kind:    tools.InvalidArguments,
					Message: fmt.Sprintf("invalid tools/call params: %v", err),
					Err:     err,
				})
			}
		}
		content, err := s.Call(ctx, p.Name, p.Arguments)
		if err != nil {
			return errTool(req.ID, err)
		}
		return ok(req.ID, CallResult{Content: content})
	default:
		// Notifications and methods this server does not implement get an
		// empty result.
		return ok(req.ID, map[string]any{})
	}
}

// Call invokes a tool, recording metrics and a log line.
func (s *Server) Call(ctx context.Context, name string, args json.RawMessage) ([]tools.Content, error) {
	start := time.Now()
	content, err := s.invoker.Invoke(ctx, name, args)
	elapsed := time.Since(start)
	s.metrics.observeCall(name, err, elapsed)

	log := zerolog.Ctx(ctx)
	if log.GetLevel() == zerolog.Disabled {
		log = &s.log
	}
	if err != nil {
		log.Warn().Str("tool", name).Str("kind", string(tools.KindOf(err))).Dur("elapsed", elapsed).Err(err).Msg("tool call failed")
		return nil, err
	}
	log.Info().Str("tool", name).Dur("elapsed", elapsed).Msg("tool call")
	return content, nil
}
