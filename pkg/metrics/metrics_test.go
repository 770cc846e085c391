package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBatch(1000)
	c.RecordBatch(3)
	c.RecordSubstitution("int32")
	c.RecordSubstitution("int32")
	c.RecordSubstitution("bool")

	assert.Equal(t, 1003.0, testutil.ToFloat64(c.rowsProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.batchesProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.substitutions.WithLabelValues("int32")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.substitutions.WithLabelValues("bool")))
}

func TestCollectorStages(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveStage(StageImport, 2*time.Millisecond)
	c.ObserveStage(StageExport, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "mojo_batch_stage_seconds" {
			found = true
			assert.Len(t, mf.GetMetric(), 2)
		}
	}
	assert.True(t, found)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordBatch(1)
		c.ObserveStage(StageTransform, time.Second)
		c.RecordSubstitution("float64")
		assert.Zero(t, c.UpdateThroughput(10))
		assert.True(t, c.StartTime().IsZero())
	})
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}

func TestTimer(t *testing.T) {
	timer := NewTimer(StageTransform)
	time.Sleep(time.Millisecond)
	d := timer.Stop()
	assert.GreaterOrEqual(t, d, time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), d)
	assert.Equal(t, StageTransform, timer.Name())
}
