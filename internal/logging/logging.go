// Package logging provides the structured logger used across the platform.
//
// The logger is a thin wrapper over Zap adding request-context fields
// (tenant, user, tool) and secret redaction for audit payloads.
package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is "json" (default) or "console".
	Format string
}

// New builds a zap logger from config.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(defaultString(cfg.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig = encoderCfg
	if cfg.Format == "console" {
		zcfg.Encoding = "console"
	}
	return zcfg.Build()
}

// ContextFields derives log fields from the request principal, if present.
func ContextFields(ctx context.Context) []zap.Field {
	p, err := tenantctx.FromContext(ctx)
	if err != nil {
		return nil
	}
	fields := []zap.Field{
		zap.String("tenant_id", p.TenantID),
		zap.String("user_id", p.UserID),
		zap.String("role", string(p.Role)),
	}
	if p.SessionID != "" {
		fields = append(fields, zap.String("session_id", p.SessionID))
	}
	return fields
}

// For returns logger with context-derived fields attached.
func For(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if fields := ContextFields(ctx); len(fields) != 0 {
		return logger.With(fields...)
	}
	return logger
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
