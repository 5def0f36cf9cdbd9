package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEvent(t *testing.T) {
	before := testutil.ToFloat64(DomainEvents.WithLabelValues(EventReviewCreated))
	RecordEvent(EventReviewCreated)
	RecordEvent(EventReviewCreated)
	assert.Equal(t, before+2, testutil.ToFloat64(DomainEvents.WithLabelValues(EventReviewCreated)))
}

func TestRecordCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(CacheLookups.WithLabelValues("analytics", "hit"))
	RecordCacheLookup("analytics", "hit")
	assert.Equal(t, before+1, testutil.ToFloat64(CacheLookups.WithLabelValues("analytics", "hit")))
}

func TestTrackQuery(t *testing.T) {
	m := NewDatabaseMetrics("reviews")
	done := m.TrackQuery("select")
	done()
	assert.Equal(t, 1, testutil.CollectAndCount(DatabaseQueryLatency, "respawn_database_query_latency_seconds"))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "respawn-test", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartServiceSpan(context.Background(), "analytics", "Build")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", newSampler(1).Description())
	assert.Equal(t, "AlwaysOnSampler", newSampler(2.5).Description())
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestInitTracing_OTLPNeedsEndpoint(t *testing.T) {
	_, err := InitTracing(TracingConfig{ServiceName: "respawn-test", Enabled: true, Exporter: "otlp"})
	assert.Error(t, err)
}
