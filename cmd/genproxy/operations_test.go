package main

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOperationTracker(t *testing.T) {
	metrics := NewMetricsCollector()
	tracker := NewOperationTracker(time.Minute, metrics)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	tracker.Track("operations/1", "veo-3")
	tracker.Track("operations/2", "veo-3")
	assert.Equal(t, 2, tracker.Len())

	state := tracker.Observe("operations/1", []byte(`{"name":"operations/1","done":false}`))
	assert.False(t, state.Done)
	assert.Equal(t, 2, tracker.Len())

	now = now.Add(90 * time.Second)
	state = tracker.Observe("/operations/1", []byte(`{"name":"operations/1","done":true,"response":{}}`))
	assert.True(t, state.Done)
	assert.Equal(t, 1, tracker.Len())

	state = tracker.Observe("operations/2", []byte(`{"done":true,"error":{"message":"blocked"}}`))
	assert.Equal(t, "blocked", state.Error)
	assert.Zero(t, tracker.Len())

	// One series per outcome.
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.operationCompletion))
}

func TestOperationTrackerIgnoresUnknownOperations(t *testing.T) {
	tracker := NewOperationTracker(0, nil)

	state := tracker.Observe("operations/unknown", []byte(`{"done":true}`))
	assert.True(t, state.Done)
	assert.Zero(t, tracker.Len())
}
