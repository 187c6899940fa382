package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	assert.Zero(t, percentile(nil, 0.5))

	sorted := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	assert.Equal(t, float64(60), percentile(sorted, 0.50))
	assert.Equal(t, float64(100), percentile(sorted, 0.95))
	assert.Equal(t, float64(100), percentile(sorted, 0.99))

	assert.Equal(t, float64(42), percentile([]float64{42}, 0.99))
}

func TestProbeOne(t *testing.T) {
	boom := errors.New("connection refused")
	c := New([]Probe{
		{Name: "redis", Check: func(ctx context.Context) error { return nil }},
		{Name: "postgresql", Check: func(ctx context.Context) error { return boom }},
	}, nil, nil, nil)

	status, err := c.ProbeOne(context.Background(), "redis")
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, status)

	status, err = c.ProbeOne(context.Background(), "postgresql")
	require.Error(t, err)
	assert.Equal(t, StatusUnhealthy, status)

	status, err = c.ProbeOne(context.Background(), "meilisearch")
	require.Error(t, err)
	assert.Empty(t, status)
}

func TestCheckAggregatesProbeStatuses(t *testing.T) {
	ok := Probe{Name: "redis", Check: func(ctx context.Context) error { return nil }}
	bad := Probe{Name: "minio", Check: func(ctx context.Context) error { return errors.New("down") }}

	report, err := New([]Probe{ok}, nil, nil, nil).Check(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, StatusHealthy, report.Services["redis"])
	assert.NotEmpty(t, report.Summary)

	report, err = New([]Probe{ok, bad}, nil, nil, nil).Check(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, StatusUnhealthy, report.Services["minio"])
	assert.NotEmpty(t, report.Recommendations)

	report, err = New([]Probe{bad}, nil, nil, nil).Check(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, StatusUnhealthy, report.Status)
}
