package monitor

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestWorkloadRatios(t *testing.T) {
	ws := NewWorkloadStats()
	require.Zero(t, ws.GetReadWriteRatio())
	require.Zero(t, ws.GetHitRatio())

	ws.RecordRead()
	require.Equal(t, 100.0, ws.GetReadWriteRatio())

	ws.RecordRead()
	ws.RecordHit()
	ws.RecordWrite()
	ws.RecordWrite()
	ws.RecordSplit()
	require.Equal(t, 1.0, ws.GetReadWriteRatio())
	require.Equal(t, 0.5, ws.GetHitRatio())
	require.EqualValues(t, 1, ws.SplitCount)
}

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Upserts.Inc()
	m.Splits.WithLabelValues(SplitLeaf).Inc()
	m.Splits.WithLabelValues(SplitLeaf).Inc()
	m.Height.Set(3)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Upserts))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Splits.WithLabelValues(SplitLeaf)))
	require.Equal(t, 3.0, testutil.ToFloat64(m.Height))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	// a second registry must accept a fresh set
	require.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}
