package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestrictMetrics(t *testing.T) {
	full := map[string]any{
		"tenant_id":      "t1",
		"generated_at":   "2026-08-24T00:00:00Z",
		"total_requests": 10,
		"error_count":    2,
		"error_rate":     0.2,
	}

	out := restrictMetrics(full, []string{"total_requests", "missing_metric"})
	assert.Equal(t, "t1", out["tenant_id"])
	assert.Equal(t, 10, out["total_requests"])
	assert.NotContains(t, out, "error_count")
	assert.NotContains(t, out, "missing_metric")
}

func TestFilterKey(t *testing.T) {
	assert.Equal(t, "-:-:0", filterKey(Filter{}))

	from := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	withRange := filterKey(Filter{From: &from, To: &to, Metrics: []string{"error_rate"}})
	assert.Equal(t, "20260102T030405:20260103T030405:1", withRange)

	// Different filters must never share a cache entry.
	assert.NotEqual(t, filterKey(Filter{}), withRange)
}
