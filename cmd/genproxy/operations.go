package main

import (
	"strings"
	"time"

	"github.com/liuzl/genproxy"
	"github.com/patrickmn/go-cache"
	"zliu.org/goutil/rest"
)

const defaultOperationTTL = time.Hour

type trackedOperation struct {
	Model   string
	Started time.Time
}

// OperationTracker remembers the operations this server started so that
// polls can be logged and timed. It never changes what is relayed.
type OperationTracker struct {
	cache   *cache.Cache
	metrics *MetricsCollector
	now     func() time.Time
}

// NewOperationTracker creates a tracker whose entries expire after ttl.
func NewOperationTracker(ttl time.Duration, metrics *MetricsCollector) *OperationTracker {
	if ttl <= 0 {
		ttl = defaultOperationTTL
	}
	return &OperationTracker{
		cache:   cache.New(ttl, ttl/4),
		metrics: metrics,
		now:     time.Now,
	}
}

// Track records that an operation was started for model.
func (t *OperationTracker) Track(operationID, model string) {
	t.cache.SetDefault(operationKey(operationID), trackedOperation{Model: model, Started: t.now()})
}

// Observe inspects a relayed operation body. Finished operations are timed
// and forgotten.
func (t *OperationTracker) Observe(operationID string, raw []byte) genproxy.OperationState {
	state := genproxy.ReadOperationState(raw)
	if !state.Done {
		return state
	}

	key := operationKey(operationID)
	v, ok := t.cache.Get(key)
	if !ok {
		return state
	}
	t.cache.Delete(key)

	op := v.(trackedOperation)
	elapsed := t.now().Sub(op.Started)
	outcome := "succeeded"
	if state.Error != "" {
		outcome = "failed"
	}
	if t.metrics != nil {
		t.metrics.RecordOperationCompletion(op.Model, outcome, elapsed)
	}
	rest.Log().Info().
		Str("operation_id", key).
		Str("model", op.Model).
		Str("outcome", outcome).
		Str("operation_error", state.Error).
		Dur("elapsed", elapsed).
		Msg("operation finished")
	return state
}

// Len returns the number of operations still being tracked.
func (t *OperationTracker) Len() int {
	return t.cache.ItemCount()
}

func operationKey(operationID string) string {
	return strings.Trim(strings.TrimSpace(operationID), "/")
}
