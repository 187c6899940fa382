// Package mcpserver exposes the tool registry over the Model Context
// Protocol, on stdio for local clients and as a streamable HTTP handler
// mounted by the API server. Every call is forwarded to the dispatch
// pipeline; the MCP layer holds no business logic.
package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/dispatch"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// Server wraps the MCP SDK server around the dispatcher.
type Server struct {
	mcp        *mcp.Server
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

// Config identifies the server to MCP clients.
type Config struct {
	Name    string
	Version string
}

// New builds the server and registers every dispatcher tool.
func New(cfg Config, d *dispatch.Dispatcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		dispatcher: d,
		logger:     logger,
	}
	for _, name := range d.Tools() {
		s.registerTool(name)
	}
	return s
}

// registerTool forwards one tool to the pipeline. Arguments stay untyped;
// per-tool validation lives in the handlers so both transports share it.
func (s *Server) registerTool(name string) {
	tool := name
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        tool,
		Description: toolDescriptions[tool],
	}, func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, map[string]any, error) {
		preq := &pipeline.Request{
			Tool:    tool,
			Args:    args,
			Headers: HeadersFromContext(ctx),
		}
		if meta := RemoteFromContext(ctx); meta != nil {
			preq.RemoteIP = meta.IP
			preq.SessionID = meta.SessionID
		}

		out, err := s.dispatcher.Dispatch(ctx, preq)
		if err != nil {
			// Tool failures travel as error envelopes on the result, not
			// as protocol errors.
			envelope, _ := json.Marshal(ragerr.Envelope(err))
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: string(envelope)}},
			}, nil, nil
		}

		summary, _ := json.Marshal(out)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(summary)}},
		}, out, nil
	})
}

// RunStdio serves MCP on stdin/stdout until the context ends.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns the streamable HTTP transport handler, wrapped so
// transport headers reach the authentication stage through the request
// context.
func (s *Server) HTTPHandler() http.Handler {
	inner := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithHeaders(r.Context(), map[string]string{
			"Authorization": r.Header.Get("Authorization"),
			"X-API-Key":     r.Header.Get("X-API-Key"),
			"X-Tenant-ID":   r.Header.Get("X-Tenant-ID"),
		})
		ctx = WithRemote(ctx, &Remote{
			IP:        clientIP(r),
			SessionID: r.Header.Get("Mcp-Session-Id"),
		})
		inner.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
