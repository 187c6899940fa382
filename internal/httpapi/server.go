// Package httpapi is the HTTP front of the platform: the MCP streamable
// endpoint at /mcp, a thin REST facade under /api for browser clients,
// unauthenticated health endpoints, and Prometheus metrics.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/dispatch"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/health"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// restTools is the subset of tools the REST facade re-exposes. Destructive
// and uber-admin tools stay MCP-only.
var restTools = map[string]bool{
	"rag_search":           true,
	"rag_ingest":           true,
	"rag_get_document":     true,
	"rag_list_documents":   true,
	"rag_delete_document":  true,
	"rag_list_tools":       true,
	"rag_list_templates":   true,
	"rag_get_template":     true,
	"mem0_get_user_memory": true,
	"mem0_update_memory":   true,
	"mem0_search_memory":   true,
	"rag_get_tenant_health": true,
}

// Config holds listener settings.
type Config struct {
	Host string
	Port int
}

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	dispatcher *dispatch.Dispatcher
	checker    *health.Checker
	logger     *zap.Logger
	cfg        Config
}

// New builds the server. mcpHandler serves the MCP streamable transport.
func New(cfg Config, d *dispatch.Dispatcher, checker *health.Checker, mcpHandler http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	s := &Server{echo: e, dispatcher: d, checker: checker, logger: logger, cfg: cfg}

	e.GET("/health", s.handleHealth)
	e.GET("/health/ready", s.handleReady)
	e.GET("/health/:service", s.handleServiceHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Any("/mcp", echo.WrapHandler(mcpHandler))
	e.Any("/mcp/*", echo.WrapHandler(mcpHandler))
	e.POST("/api/tools/:tool", s.handleTool)

	return s
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
			return err
		}
	}
}

// handleTool proxies one REST call into the dispatch pipeline.
func (s *Server) handleTool(c echo.Context) error {
	tool := c.Param("tool")
	if !restTools[tool] {
		return c.JSON(http.StatusNotFound, ragerr.Envelope(ragerr.NotFound("tool", tool)))
	}

	args := map[string]any{}
	if err := c.Bind(&args); err != nil {
		return c.JSON(http.StatusBadRequest,
			ragerr.Envelope(ragerr.Validation("body", "request body must be a JSON object")))
	}

	r := c.Request()
	req := &pipeline.Request{
		Tool: tool,
		Args: args,
		Headers: map[string]string{
			"Authorization": r.Header.Get("Authorization"),
			"X-API-Key":     r.Header.Get("X-API-Key"),
			"X-Tenant-ID":   r.Header.Get("X-Tenant-ID"),
		},
		RemoteIP:  c.RealIP(),
		SessionID: r.Header.Get("X-Session-ID"),
	}

	out, err := s.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		kind := ragerr.KindOf(err)
		return c.JSON(ragerr.HTTPStatus(kind), ragerr.Envelope(err))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness from the backend probes.
func (s *Server) handleReady(c echo.Context) error {
	report, err := s.checker.Check(c.Request().Context(), "")
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "error"})
	}
	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}

func (s *Server) handleServiceHealth(c echo.Context) error {
	name := c.Param("service")
	status, err := s.checker.ProbeOne(c.Request().Context(), name)
	if err != nil && status == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	code := http.StatusOK
	body := map[string]string{"service": name, "status": status}
	if err != nil {
		code = http.StatusServiceUnavailable
		body["error"] = err.Error()
	}
	return c.JSON(code, body)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
