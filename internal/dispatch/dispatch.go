// Package dispatch routes decoded tool calls through the middleware
// pipeline to their handlers. Both transports (MCP and the REST facade)
// converge here so no tool can bypass a stage.
package dispatch

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// Dispatcher holds the tool registry and the composed stage chain.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]pipeline.Handler
	stages   []pipeline.Stage
	logger   *zap.Logger
}

// New builds a dispatcher with the stage chain applied to every tool.
// Stages run in the given order, first outermost.
func New(logger *zap.Logger, stages ...pipeline.Stage) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		handlers: make(map[string]pipeline.Handler),
		stages:   stages,
		logger:   logger,
	}
}

// Register adds a tool handler. Registering a duplicate name panics; the
// registry is assembled once at startup and a collision is a programming
// error.
func (d *Dispatcher) Register(name string, h pipeline.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[name]; exists {
		panic("dispatch: duplicate tool " + name)
	}
	d.handlers[name] = h
}

// Tools lists registered tool names, sorted.
func (d *Dispatcher) Tools() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs one tool call through the full pipeline.
func (d *Dispatcher) Dispatch(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	d.mu.RLock()
	h, ok := d.handlers[req.Tool]
	d.mu.RUnlock()
	if !ok {
		return nil, ragerr.NotFound("tool", req.Tool)
	}
	return pipeline.Chain(h, d.stages...)(ctx, req)
}
