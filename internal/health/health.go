// Package health probes the platform backends and derives latency and
// error-rate statistics from recent audit samples.
package health

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/cache"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
)

// Overall statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const (
	probeTimeout = 5 * time.Second
	reportTTL    = 30 * time.Second
	sampleWindow = 15 * time.Minute
)

// Probe is one backend connectivity check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Report is one health snapshot.
type Report struct {
	Status          string             `json:"status"`
	Services        map[string]string  `json:"services"`
	LatencyMS       map[string]float64 `json:"latency_ms"`
	ErrorRate       float64            `json:"error_rate"`
	SampleCount     int                `json:"sample_count"`
	Summary         string             `json:"summary"`
	Recommendations []string           `json:"recommendations,omitempty"`
	CheckedAt       time.Time          `json:"checked_at"`
}

// Checker runs probes and builds reports, cached for 30 seconds so health
// polling cannot hammer the backends.
type Checker struct {
	probes []Probe
	store  *store.Store
	cache  *cache.Client
	logger *zap.Logger
}

// New builds the checker.
func New(probes []Probe, st *store.Store, c *cache.Client, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{probes: probes, store: st, cache: c, logger: logger}
}

// ProbeOne runs a single named probe, for the /health/{service} endpoint.
func (c *Checker) ProbeOne(ctx context.Context, name string) (string, error) {
	for _, p := range c.probes {
		if p.Name != name {
			continue
		}
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if err := p.Check(pctx); err != nil {
			return StatusUnhealthy, err
		}
		return StatusHealthy, nil
	}
	return "", fmt.Errorf("unknown service %q", name)
}

// Check builds the tenant health report. tenantID scopes the audit-derived
// statistics; probes are deployment-wide. An empty tenantID produces the
// system-level report without latency samples.
func (c *Checker) Check(ctx context.Context, tenantID string) (*Report, error) {
	key := cache.TenantKey(tenantID, "health")
	if c.cache != nil {
		var cached Report
		if err := c.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	report := &Report{
		Services:  make(map[string]string),
		LatencyMS: make(map[string]float64),
		CheckedAt: time.Now().UTC(),
	}
	unhealthy := 0
	for _, p := range c.probes {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := p.Check(pctx)
		cancel()
		if err != nil {
			c.logger.Warn("backend probe failed",
				zap.String("service", p.Name), zap.Error(err))
			report.Services[p.Name] = StatusUnhealthy
			unhealthy++
		} else {
			report.Services[p.Name] = StatusHealthy
		}
	}

	if tenantID != "" {
		c.fillStatistics(ctx, tenantID, report)
	}

	switch {
	case unhealthy == 0:
		report.Status = StatusHealthy
		report.Summary = "all services operational"
	case unhealthy < len(c.probes):
		report.Status = StatusDegraded
		report.Summary = fmt.Sprintf("%d of %d services unavailable", unhealthy, len(c.probes))
		report.Recommendations = append(report.Recommendations, "check connectivity to the failing services")
	default:
		report.Status = StatusUnhealthy
		report.Summary = "all services unavailable"
		report.Recommendations = append(report.Recommendations, "platform backends unreachable, check infrastructure")
	}
	if report.ErrorRate > 0.1 {
		if report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("error rate %.0f%% over the last %s, inspect audit logs", report.ErrorRate*100, sampleWindow))
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, report, reportTTL); err != nil {
			c.logger.Warn("caching health report failed", zap.Error(err))
		}
	}
	return report, nil
}

// fillStatistics computes p50/p95/p99 latency and the error rate from
// recent audit samples.
func (c *Checker) fillStatistics(ctx context.Context, tenantID string, report *Report) {
	records, err := c.store.RecentAudit(ctx, tenantID, time.Now().Add(-sampleWindow), 1000)
	if err != nil || len(records) == 0 {
		return
	}
	durations := make([]float64, 0, len(records))
	errors := 0
	for _, r := range records {
		durations = append(durations, float64(r.DurationMS))
		if r.Status == "error" {
			errors++
		}
	}
	sort.Float64s(durations)
	report.SampleCount = len(durations)
	report.LatencyMS["p50"] = percentile(durations, 0.50)
	report.LatencyMS["p95"] = percentile(durations, 0.95)
	report.LatencyMS["p99"] = percentile(durations, 0.99)
	report.ErrorRate = float64(errors) / float64(len(records))
}

// percentile reads the nearest-rank percentile from sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
