package vectorstore

import (
	"fmt"

	"go.uber.org/zap"
)

// FactoryConfig selects and configures an Index provider.
type FactoryConfig struct {
	// Provider is "chromem" (embedded, default) or "qdrant".
	Provider string
	Chromem  ChromemConfig
	Qdrant   QdrantConfig
}

// New creates the configured Index provider.
func New(cfg FactoryConfig, logger *zap.Logger) (Index, error) {
	switch cfg.Provider {
	case "chromem", "":
		return NewChromemIndex(cfg.Chromem, logger)
	case "qdrant":
		return NewQdrantIndex(cfg.Qdrant, logger)
	default:
		return nil, fmt.Errorf("unknown vector provider %q", cfg.Provider)
	}
}
