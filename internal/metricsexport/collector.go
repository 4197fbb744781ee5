// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metricsexport

import (
	"strconv"
	"time"
)

func dpidLabel(dpid uint64) string {
	return strconv.FormatUint(dpid, 10)
}

// FlowSource reports the current counts a Collector samples on each tick.
type FlowSource interface {
	FlowCount() int
	ElephantFlowCount() int
}

// RuleCounter reports the classifier's live rule count.
type RuleCounter interface {
	RuleCount() int
}

// QueueDepther reports per-dpid dispatcher queue depth.
type QueueDepther interface {
	QueueDepth(dpid uint64) int
	Dpids() []uint64
}

// Collector periodically samples the core's live components and updates
// the corresponding Prometheus gauges, since flow/rule/queue counts are
// not naturally push-based.
type Collector struct {
	metrics    *Metrics
	flows      FlowSource
	classifier RuleCounter
	dispatcher QueueDepther
	interval   time.Duration
}

// NewCollector constructs a Collector. Any dependency may be nil, in
// which case its corresponding gauges are left unset.
func NewCollector(metrics *Metrics, flows FlowSource, classifier RuleCounter, dispatcher QueueDepther, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Collector{metrics: metrics, flows: flows, classifier: classifier, dispatcher: dispatcher, interval: interval}
}

// Run samples every interval until stop is closed.
func (c *Collector) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	c.sampleOnce()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.sampleOnce()
		}
	}
}

func (c *Collector) sampleOnce() {
	if c.flows != nil {
		c.metrics.FlowCount.Set(float64(c.flows.FlowCount()))
		c.metrics.ElephantFlowCount.Set(float64(c.flows.ElephantFlowCount()))
	}
	if c.classifier != nil {
		c.metrics.ClassifierRules.Set(float64(c.classifier.RuleCount()))
	}
	if c.dispatcher != nil {
		for _, dpid := range c.dispatcher.Dpids() {
			c.metrics.SetDispatchQueueDepth(dpid, c.dispatcher.QueueDepth(dpid))
		}
	}
}
