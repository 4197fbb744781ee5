// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sflow

import (
	"sync"
	"time"

	"ndtwin.dev/core/internal/clock"
	"ndtwin.dev/core/internal/eventbus"
	"ndtwin.dev/core/internal/flowkey"
	"ndtwin.dev/core/internal/graph"
	"ndtwin.dev/core/internal/logging"
)

// GraphTouch is the subset of graph.Store the collector needs to keep
// edge flowSets warm. Defined as an interface to avoid the sflow package
// importing graph's full surface and to ease unit testing.
type GraphTouch interface {
	TouchEdgeFlow(h graph.EdgeHandle, key flowkey.FlowKey, now time.Time) (bool, error)
	FindEdgeByAgentPort(agentIP uint32, port uint32) (*graph.Edge, bool)
	UpdateLinkInfo(h graph.EdgeHandle, info graph.LinkInfo) error
}

// Collector is the sFlow v5 telemetry sink: it turns decoded counter and
// flow samples into per-flow, per-agent statistics, publishes events when
// flows first appear, and feeds the Graph Store's flow TTL tracking
// (spec §4.3, §5).
type Collector struct {
	clock  clock.Clock
	bus    *eventbus.Bus
	graph  GraphTouch
	logger *logging.Logger

	flowInfoLock sync.RWMutex
	flows        map[flowkey.FlowKey]*FlowInfo

	counterLock sync.RWMutex
	counters    map[flowkey.AgentKey]*CounterInfo
}

// NewCollector constructs a Collector. bus and graphStore may be nil in
// tests that only exercise statistics bookkeeping.
func NewCollector(c clock.Clock, bus *eventbus.Bus, graphStore GraphTouch, logger *logging.Logger) *Collector {
	if c == nil {
		c = clock.System
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Collector{
		clock:    c,
		bus:      bus,
		graph:    graphStore,
		logger:   logger.WithComponent("sflow-collector"),
		flows:    make(map[flowkey.FlowKey]*FlowInfo),
		counters: make(map[flowkey.AgentKey]*CounterInfo),
	}
}

// HandleFlowSample folds one decoded flow sample into the collector's
// per-flow state. Direction is derived from InputPort: a nonzero input
// port means the sample was taken on ingress at this agent, zero means
// egress (spec §4.3).
func (c *Collector) HandleFlowSample(fs FlowSample) {
	now := c.clock.Now()
	key := flowkey.FlowKey{
		SrcIP: fs.SrcIP, DstIP: fs.DstIP,
		SrcPort: fs.SrcPort, DstPort: fs.DstPort,
		Protocol: fs.Protocol,
	}

	c.flowInfoLock.Lock()
	info, exists := c.flows[key]
	if !exists {
		info = newFlowInfo(key, now)
		c.flows[key] = info
	}
	info.EndTime = now

	agentKey := flowkey.AgentKey{AgentIP: fs.AgentIP, InterfacePort: fs.InputPort}
	stats, ok := info.Agents[agentKey]
	if !ok {
		stats = newFlowStats(fs.SamplingRate)
		info.Agents[agentKey] = stats
	}

	scaledBytes := uint64(fs.FrameLength) * uint64(fs.SamplingRate)
	scaledPackets := uint64(fs.SamplingRate)

	if fs.InputPort != 0 {
		stats.IngressBytes += scaledBytes
		stats.IngressPackets += scaledPackets
	} else {
		stats.EgressBytes += scaledBytes
		stats.EgressPackets += scaledPackets
	}
	stats.byteWindow.Push(scaledBytes, now)
	stats.packetWindow.Push(scaledPackets, now)

	if fs.Protocol == 6 {
		const tcpFlagACK = 0x10
		if fs.TCPFlags&tcpFlagACK != 0 {
			info.IsAck = true
			info.IsPureAck = fs.FrameLength < PureAckByteThreshold
		}
	}
	c.flowInfoLock.Unlock()

	if !exists {
		c.logger.Debug("new flow observed", "flow", key.String())
		if c.bus != nil {
			c.bus.Emit(eventbus.FlowAddedEvent{Key: key})
		}
	}

	if c.graph != nil {
		if edge, found := c.graph.FindEdgeByAgentPort(fs.AgentIP, fs.InputPort); found {
			_, _ = c.graph.TouchEdgeFlow(edge.Handle, key, now)
		}
	}
}

// HandleCounterSample folds one decoded interface counter sample into the
// per-AgentKey counter state used by the periodic link-utilisation
// computation, derives the TX/RX averages and residual bandwidth since the
// last report, and updates the forward edge (TX/egress side) and then its
// reverse (RX/ingress side) with their respective residuals (spec §4.3,
// §8 invariant 1). The two edges are updated by two separate
// UpdateLinkInfo calls, not under one lock, so a reader between the calls
// sees the forward edge updated and the reverse not yet.
func (c *Collector) HandleCounterSample(cs CounterSample) {
	now := c.clock.Now()
	agentKey := flowkey.AgentKey{AgentIP: cs.AgentIP, InterfacePort: cs.IfIndex}

	c.counterLock.Lock()
	prev, ok := c.counters[agentKey]
	if !ok {
		c.counters[agentKey] = &CounterInfo{
			LastReportTime: now,
			LastInOctets:   cs.InOctets,
			LastOutOctets:  cs.OutOctets,
		}
		c.counterLock.Unlock()
		return
	}

	var avgIn, avgOut float64
	elapsed := now.Sub(prev.LastReportTime).Seconds()
	if elapsed > 0 && cs.InOctets >= prev.LastInOctets {
		avgIn = float64(cs.InOctets-prev.LastInOctets) * 8 / elapsed
		prev.InByteAccumulator = avgIn
	}
	if elapsed > 0 && cs.OutOctets >= prev.LastOutOctets {
		avgOut = float64(cs.OutOctets-prev.LastOutOctets) * 8 / elapsed
	}
	prev.LastReportTime = now
	prev.LastInOctets = cs.InOctets
	prev.LastOutOctets = cs.OutOctets
	c.counterLock.Unlock()

	if c.graph == nil {
		return
	}
	edge, found := c.graph.FindEdgeByAgentPort(cs.AgentIP, cs.IfIndex)
	if !found {
		return
	}

	speed := float64(cs.IfSpeed)
	leftOut := residualBandwidth(speed, avgOut)
	leftIn := residualBandwidth(speed, avgIn)

	if err := c.graph.UpdateLinkInfo(edge.Handle, graph.LinkInfo{
		LeftBandwidth:            leftOut,
		LinkBandwidthUsage:       avgOut,
		LinkBandwidthUtilization: utilizationPercent(speed, avgOut),
	}); err != nil {
		c.logger.Warn("failed to update link info from counter sample", "agent_ip", cs.AgentIP, "ifindex", cs.IfIndex, "err", err)
		return
	}
	if err := c.graph.UpdateLinkInfo(edge.Reverse, graph.LinkInfo{
		LeftBandwidth:            leftIn,
		LinkBandwidthUsage:       avgIn,
		LinkBandwidthUtilization: utilizationPercent(speed, avgIn),
	}); err != nil {
		c.logger.Warn("failed to update reverse link info from counter sample", "agent_ip", cs.AgentIP, "ifindex", cs.IfIndex, "err", err)
	}
}

func residualBandwidth(speed, avg float64) float64 {
	residual := speed - avg
	if residual < 0 {
		return 0
	}
	return residual
}

func utilizationPercent(speed, avg float64) float64 {
	if speed <= 0 {
		return 0
	}
	return avg / speed * 100
}

// Snapshot returns the FlowInfo for key, or nil if unseen.
func (c *Collector) Snapshot(key flowkey.FlowKey) *FlowInfo {
	c.flowInfoLock.RLock()
	defer c.flowInfoLock.RUnlock()
	return c.flows[key]
}

// FlowCount returns the number of tracked flows.
func (c *Collector) FlowCount() int {
	c.flowInfoLock.RLock()
	defer c.flowInfoLock.RUnlock()
	return len(c.flows)
}

// Keys returns every flow key currently tracked, a snapshot for
// iteration by the path-attribution task.
func (c *Collector) Keys() []flowkey.FlowKey {
	c.flowInfoLock.RLock()
	defer c.flowInfoLock.RUnlock()
	keys := make([]flowkey.FlowKey, 0, len(c.flows))
	for k := range c.flows {
		keys = append(keys, k)
	}
	return keys
}

// ElephantFlowCount returns the number of tracked flows currently flagged
// as elephant flows by either rate task.
func (c *Collector) ElephantFlowCount() int {
	c.flowInfoLock.RLock()
	defer c.flowInfoLock.RUnlock()
	n := 0
	for _, info := range c.flows {
		if info.IsElephantFlowPeriodically || info.IsElephantFlowImmediately {
			n++
		}
	}
	return n
}

// CounterSnapshot returns the CounterInfo for an agent/port, or nil.
func (c *Collector) CounterSnapshot(key flowkey.AgentKey) *CounterInfo {
	c.counterLock.RLock()
	defer c.counterLock.RUnlock()
	return c.counters[key]
}
