package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/groupstream/types"
)

func TestNewNop(t *testing.T) {
	m := NewNop()

	require.NotNil(t, m)
	require.IsType(t, &NopMetrics{}, m)
}

func TestNopMetrics_DoesNotPanic(t *testing.T) {
	m := NewNop()

	require.NotPanics(t, func() {
		m.RecordGroupCreated()
		m.RecordGroupClosed("completed")
		m.RecordGroupClosed("")
		m.SetActiveGroups(0)
		m.SetActiveGroups(-1)
		m.RecordValueRouted()
		m.RecordValueDelivered()
		m.RecordOverflow("group")
		m.RecordUpstreamRequest(256)
		m.RecordUpstreamRequest(types.Unbounded)
		m.RecordDemandRequested("groups", 1)
	})
}

func TestPrometheusCollector_RecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg, "test")

	m.RecordGroupCreated()
	m.RecordGroupCreated()
	m.RecordGroupClosed("completed")
	m.SetActiveGroups(2)
	m.RecordValueRouted()
	m.RecordValueDelivered()
	m.RecordOverflow("groups")
	m.RecordUpstreamRequest(256)
	m.RecordDemandRequested("group", 10)

	require.Equal(t, float64(2), testutil.ToFloat64(m.groupsCreated))
	require.Equal(t, float64(1), testutil.ToFloat64(m.groupsClosed.WithLabelValues("completed")))
	require.Equal(t, float64(2), testutil.ToFloat64(m.activeGroups))
	require.Equal(t, float64(1), testutil.ToFloat64(m.valuesRouted))
	require.Equal(t, float64(1), testutil.ToFloat64(m.valuesDelivered))
	require.Equal(t, float64(1), testutil.ToFloat64(m.overflows.WithLabelValues("groups")))
	require.Equal(t, float64(256), testutil.ToFloat64(m.upstreamCredits))
	require.Equal(t, float64(10), testutil.ToFloat64(m.demandRequested.WithLabelValues("group")))
}

func TestPrometheusCollector_UnboundedRecordedAsSingleCredit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg, "test")

	m.RecordUpstreamRequest(types.Unbounded)

	require.Equal(t, float64(1), testutil.ToFloat64(m.upstreamCredits))
}

func TestPrometheusCollector_DefaultNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg, "")

	m.RecordGroupCreated()

	count, err := testutil.GatherAndCount(reg, "groupstream_groups_created_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func BenchmarkNopMetrics_RecordValueRouted(b *testing.B) {
	m := NewNop()
	for i := 0; i < b.N; i++ {
		m.RecordValueRouted()
	}
}
