package metrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/netsort/distsort/internal/logging"
	"github.com/netsort/distsort/internal/metrics"
	"github.com/netsort/distsort/internal/registry"
	"github.com/netsort/distsort/internal/stats"
)

func TestCollectorReportsCounters(t *testing.T) {
	sortStats := stats.NewSortStats()
	clientStats := stats.NewClientStats()
	reg := registry.New(logging.Discard())

	sortStats.AddNumbersSorted(42)
	sortStats.IncErrors(1)
	clientStats.IncTotal()
	clientStats.IncSuccessful()
	require.NoError(t, reg.Register("127.0.0.1", 9000, "W1"))

	c := metrics.NewCollector(sortStats, clientStats, reg)

	promReg := prometheus.NewRegistry()
	require.NoError(t, promReg.Register(c))

	families, err := promReg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			values[fam.GetName()] = metricValue(m)
		}
	}

	require.Equal(t, float64(42), values["distsort_numbers_sorted_total"])
	require.Equal(t, float64(1), values["distsort_worker_errors_total"])
	require.Equal(t, float64(1), values["distsort_client_operations_total"])
	require.Equal(t, float64(1), values["distsort_client_operations_successful_total"])
	require.Equal(t, float64(1), values["distsort_workers_active"])
	require.Equal(t, float64(1), values["distsort_workers_registered"])
}

func metricValue(m *dto.Metric) float64 {
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	if m.Gauge != nil {
		return m.Gauge.GetValue()
	}
	return 0
}

func TestCollectorDescribeNamesAreStable(t *testing.T) {
	c := metrics.NewCollector(stats.NewSortStats(), stats.NewClientStats(), registry.New(logging.Discard()))
	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)

	var names []string
	for d := range ch {
		names = append(names, d.String())
	}
	require.Len(t, names, 8)
	for _, n := range names {
		require.True(t, strings.Contains(n, "distsort_"))
	}
}
