// Package audit records tool invocations asynchronously so audit writes
// never sit on the request path.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/logging"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

var droppedEntries = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ragd_audit_dropped_total",
	Help: "Audit entries dropped because the queue was full.",
})

// Entry is one audit record queued for persistence.
type Entry struct {
	TenantID     string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	IPAddress    string
	Status       string
	DurationMS   int64
	At           time.Time
}

// Recorder buffers entries on a bounded queue and persists them from a
// background worker. Enqueue never blocks; when the queue is full the
// entry is dropped and counted.
type Recorder struct {
	store  *store.Store
	logger *zap.Logger
	queue  chan Entry

	stop chan struct{}
	done sync.WaitGroup
}

// NewRecorder starts the worker. queueSize below 1 falls back to 1024.
func NewRecorder(st *store.Store, queueSize int, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize < 1 {
		queueSize = 1024
	}
	r := &Recorder{
		store:  st,
		logger: logger,
		queue:  make(chan Entry, queueSize),
		stop:   make(chan struct{}),
	}
	r.done.Add(1)
	go r.run()
	return r
}

// Record fills context-derived fields and enqueues the entry.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if p, err := tenantctx.FromContext(ctx); err == nil {
		if e.TenantID == "" {
			e.TenantID = p.TenantID
		}
		if e.UserID == "" {
			e.UserID = p.UserID
		}
		if e.IPAddress == "" {
			e.IPAddress = p.IPAddress
		}
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	select {
	case r.queue <- e:
	default:
		droppedEntries.Inc()
		r.logger.Warn("audit queue full, entry dropped",
			zap.String("tenant_id", e.TenantID), zap.String("action", e.Action))
	}
}

func (r *Recorder) run() {
	defer r.done.Done()
	for {
		select {
		case e := <-r.queue:
			r.persist(e)
		case <-r.stop:
			// Drain what is already queued before exiting.
			for {
				select {
				case e := <-r.queue:
					r.persist(e)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) persist(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// The worker writes on behalf of the system, not the caller, so it
	// runs outside any tenant principal.
	rec := &store.AuditLog{
		ID:           uuid.NewString(),
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		IPAddress:    e.IPAddress,
		Status:       e.Status,
		DurationMS:   e.DurationMS,
		Timestamp:    e.At,
	}
	if e.TenantID != "" {
		rec.TenantID = &e.TenantID
	}
	if e.UserID != "" {
		rec.UserID = &e.UserID
	}
	if len(e.Details) > 0 {
		redacted := logging.RedactArgs(e.Details)
		if raw, err := json.Marshal(redacted); err == nil {
			rec.Details = datatypes.JSON(raw)
		}
	}
	if err := r.store.AppendAudit(ctx, rec); err != nil {
		r.logger.Error("audit write failed",
			zap.String("action", e.Action), zap.Error(err))
	}
}

// Close stops the worker after draining the queue.
func (r *Recorder) Close() {
	close(r.stop)
	r.done.Wait()
}
