package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// Store is the relational adapter over PostgreSQL.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Config holds connection settings.
type Config struct {
	DSN          string
	MaxOpenConns int
}

// Open connects, configures the pool, and runs migrations.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, ragerr.Transient(err, "connecting to postgres")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, ragerr.Internal(err, "acquiring sql.DB")
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing gorm handle. Used by tests.
func NewWithDB(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&Tenant{}, &TenantConfiguration{}, &Template{}, &User{},
		&Document{}, &DocumentVersion{}, &AuditLog{}, &TenantAPIKey{},
		&UserMemory{},
	)
	if err != nil {
		return ragerr.Internal(err, "migrating schema")
	}
	// Dedup constraint applies to live documents only; soft-deleted rows may
	// share a hash with their replacement.
	err = s.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_tenant_hash
		ON documents (tenant_id, content_hash) WHERE deleted_at IS NULL`).Error
	if err != nil {
		return ragerr.Internal(err, "creating dedup index")
	}
	return nil
}

// Ping probes connectivity, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// tx runs fn in a transaction scoped to the current handler invocation. When
// a principal is present the RLS session variables are set first, so
// database-level predicates see the request tenant.
func (s *Store) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	op := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if p, err := tenantctx.FromContext(ctx); err == nil {
				if err := tx.Exec("SET LOCAL app.current_tenant_id = ?", p.TenantID).Error; err != nil {
					return err
				}
				if err := tx.Exec("SET LOCAL app.current_role = ?", string(p.Role)).Error; err != nil {
					return err
				}
			}
			return fn(tx)
		})
	}
	return retryTransient(ctx, op)
}

// retryTransient retries connectivity failures with exponential backoff
// (3 attempts, factor 2, initial 1s). Logical errors pass through untouched.
func retryTransient(ctx context.Context, op func() error) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(&backoff.ExponentialBackOff{
		InitialInterval:     time.Second,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         8 * time.Second,
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
		Stop:                backoff.Stop,
	}, 3), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isConnectivityError(err) {
			return err // retryable
		}
		return backoff.Permanent(err)
	}, bo)
}

func isConnectivityError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// notFound maps gorm's record-not-found to the platform taxonomy.
func notFound(err error, resource, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ragerr.NotFound(resource, id)
	}
	return ragerr.Internal(err, "querying %s", resource)
}
