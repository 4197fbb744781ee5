// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metricsexport exposes the core's live counters and gauges as a
// Prometheus collector: flow count, elephant-flow count, classifier rule
// count, dispatcher queue depth, and idle-flow purge counts.
package metricsexport

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus metric the core publishes.
type Metrics struct {
	FlowCount         prometheus.Gauge
	ElephantFlowCount prometheus.Gauge
	ClassifierRules   prometheus.Gauge
	DispatchQueue     *prometheus.GaugeVec
	IdleFlowsPurged   prometheus.Counter
	FlowSamplesTotal  prometheus.Counter
	CounterSamplesTotal prometheus.Counter
}

// New builds a Metrics with every series named with the "ndtcore_"
// prefix. It registers nothing; see Register.
func New() *Metrics {
	return &Metrics{
		FlowCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ndtcore_flows_active",
			Help: "Number of flows currently tracked in the per-flow table.",
		}),
		ElephantFlowCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ndtcore_elephant_flows",
			Help: "Number of flows currently flagged as elephant flows.",
		}),
		ClassifierRules: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ndtcore_classifier_rules",
			Help: "Number of live rules across every classifier subtable.",
		}),
		DispatchQueue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ndtcore_dispatch_queue_depth",
			Help: "Number of unsent flow jobs queued per dpid.",
		}, []string{"dpid"}),
		IdleFlowsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ndtcore_idle_flows_purged_total",
			Help: "Total number of flows removed by the idle-flow purge task.",
		}),
		FlowSamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ndtcore_sflow_flow_samples_total",
			Help: "Total number of sFlow flow samples decoded.",
		}),
		CounterSamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ndtcore_sflow_counter_samples_total",
			Help: "Total number of sFlow counter samples decoded.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.FlowCount.Describe(ch)
	m.ElephantFlowCount.Describe(ch)
	m.ClassifierRules.Describe(ch)
	m.DispatchQueue.Describe(ch)
	m.IdleFlowsPurged.Describe(ch)
	m.FlowSamplesTotal.Describe(ch)
	m.CounterSamplesTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.FlowCount.Collect(ch)
	m.ElephantFlowCount.Collect(ch)
	m.ClassifierRules.Collect(ch)
	m.DispatchQueue.Collect(ch)
	m.IdleFlowsPurged.Collect(ch)
	m.FlowSamplesTotal.Collect(ch)
	m.CounterSamplesTotal.Collect(ch)
}

// Register registers m with the default Prometheus registry.
func (m *Metrics) Register() error {
	return prometheus.Register(m)
}

// SetDispatchQueueDepth records the current queue depth for dpid.
func (m *Metrics) SetDispatchQueueDepth(dpid uint64, depth int) {
	m.DispatchQueue.WithLabelValues(dpidLabel(dpid)).Set(float64(depth))
}
