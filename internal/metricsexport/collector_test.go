// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metricsexport

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

type fakeFlows struct{ flows, elephants int }

func (f fakeFlows) FlowCount() int         { return f.flows }
func (f fakeFlows) ElephantFlowCount() int { return f.elephants }

type fakeRules struct{ n int }

func (f fakeRules) RuleCount() int { return f.n }

type fakeQueues struct{ depths map[uint64]int }

func (f fakeQueues) QueueDepth(dpid uint64) int { return f.depths[dpid] }
func (f fakeQueues) Dpids() []uint64 {
	dpids := make([]uint64, 0, len(f.depths))
	for d := range f.depths {
		dpids = append(dpids, d)
	}
	return dpids
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m io_prometheus_client.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestCollectorSamplesFlowAndRuleCounts(t *testing.T) {
	metrics := New()
	c := NewCollector(metrics, fakeFlows{flows: 12, elephants: 3}, fakeRules{n: 7}, fakeQueues{depths: map[uint64]int{1: 4}}, time.Hour)

	c.sampleOnce()

	require.Equal(t, 12.0, gaugeValue(t, metrics.FlowCount))
	require.Equal(t, 3.0, gaugeValue(t, metrics.ElephantFlowCount))
	require.Equal(t, 7.0, gaugeValue(t, metrics.ClassifierRules))
	require.Equal(t, 4.0, gaugeValue(t, metrics.DispatchQueue.WithLabelValues("1")))
}

func TestCollectorToleratesNilSources(t *testing.T) {
	metrics := New()
	c := NewCollector(metrics, nil, nil, nil, time.Hour)
	require.NotPanics(t, func() { c.sampleOnce() })
}
