// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ndtwin.dev/core/internal/clock"
	"ndtwin.dev/core/internal/eventbus"
	"ndtwin.dev/core/internal/flowkey"
	"ndtwin.dev/core/internal/graph"
)

type fakeGraphTouch struct {
	edge      *graph.Edge
	linkInfos []graph.LinkInfo
}

func (f *fakeGraphTouch) TouchEdgeFlow(graph.EdgeHandle, flowkey.FlowKey, time.Time) (bool, error) {
	return true, nil
}

func (f *fakeGraphTouch) FindEdgeByAgentPort(agentIP uint32, port uint32) (*graph.Edge, bool) {
	if f.edge == nil {
		return nil, false
	}
	return f.edge, true
}

func (f *fakeGraphTouch) UpdateLinkInfo(h graph.EdgeHandle, info graph.LinkInfo) error {
	f.linkInfos = append(f.linkInfos, info)
	return nil
}

func newTestCollector() (*Collector, *eventbus.Bus, *clock.Fake) {
	fc := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	bus := eventbus.New()
	return NewCollector(fc, bus, nil, nil), bus, fc
}

func TestFirstFlowSampleEmitsFlowAdded(t *testing.T) {
	c, bus, _ := newTestCollector()

	var got []flowkey.FlowKey
	bus.Subscribe(eventbus.TopicFlowAdded, func(ev eventbus.Event) {
		got = append(got, ev.(eventbus.FlowAddedEvent).Key)
	})

	fs := FlowSample{AgentIP: 1, SamplingRate: 10, InputPort: 3, FrameLength: 100, Protocol: 6, SrcIP: 2, DstIP: 3, SrcPort: 1, DstPort: 2}
	c.HandleFlowSample(fs)
	c.HandleFlowSample(fs) // second sample on same flow must not re-emit

	require.Len(t, got, 1)
	require.Equal(t, 1, c.FlowCount())
}

func TestFlowSampleScalesBySamplingRate(t *testing.T) {
	c, _, _ := newTestCollector()
	fs := FlowSample{AgentIP: 1, SamplingRate: 10, InputPort: 3, FrameLength: 100, Protocol: 6, SrcIP: 2, DstIP: 3}
	c.HandleFlowSample(fs)

	key := flowkey.FlowKey{SrcIP: 2, DstIP: 3}
	info := c.Snapshot(key)
	require.NotNil(t, info)
	stats := info.Agents[flowkey.AgentKey{AgentIP: 1, InterfacePort: 3}]
	require.Equal(t, uint64(1000), stats.IngressBytes) // 100 * samplingRate 10
	require.Equal(t, uint64(10), stats.IngressPackets)
}

func TestPureAckDetection(t *testing.T) {
	c, _, _ := newTestCollector()
	fs := FlowSample{
		AgentIP: 1, SamplingRate: 1, InputPort: 1,
		FrameLength: 64, Protocol: 6, SrcIP: 2, DstIP: 3,
		TCPFlags: 0x10, // ACK only
	}
	c.HandleFlowSample(fs)

	info := c.Snapshot(flowkey.FlowKey{SrcIP: 2, DstIP: 3})
	require.True(t, info.IsAck)
	require.True(t, info.IsPureAck)
}

func TestCounterSampleComputesByteRate(t *testing.T) {
	c, _, fc := newTestCollector()
	agentKey := flowkey.AgentKey{AgentIP: 1, InterfacePort: 7}

	c.HandleCounterSample(CounterSample{AgentIP: 1, IfIndex: 7, InOctets: 1000, OutOctets: 500})
	fc.Advance(1 * time.Second)
	c.HandleCounterSample(CounterSample{AgentIP: 1, IfIndex: 7, InOctets: 2000, OutOctets: 900})

	info := c.CounterSnapshot(agentKey)
	require.NotNil(t, info)
	require.Equal(t, uint64(2000), info.LastInOctets)
	require.InDelta(t, 8000.0, info.InByteAccumulator, 0.001) // (2000-1000)*8/1s
}

func TestCounterSampleUpdatesGraphResidualBandwidth(t *testing.T) {
	fc := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	bus := eventbus.New()
	fg := &fakeGraphTouch{edge: &graph.Edge{Handle: 9, Reverse: 10}}
	c := NewCollector(fc, bus, fg, nil)

	cs := CounterSample{AgentIP: 1, IfIndex: 7, IfSpeed: 1_000_000_000, InOctets: 1000, OutOctets: 500}
	c.HandleCounterSample(cs)
	require.Empty(t, fg.linkInfos) // first sample only seeds the baseline, no edge touch yet

	fc.Advance(1 * time.Second)
	// delta: in 1000->3000 (2000B) => avgIn 16000bps, out 500->1500 (1000B) => avgOut 8000bps
	c.HandleCounterSample(CounterSample{AgentIP: 1, IfIndex: 7, IfSpeed: 1_000_000_000, InOctets: 3000, OutOctets: 1500})

	require.Len(t, fg.linkInfos, 2) // forward edge (TX/out) then reverse edge (RX/in)

	forward := fg.linkInfos[0]
	require.InDelta(t, 8000.0, forward.LinkBandwidthUsage, 0.001)
	require.InDelta(t, 1_000_000_000-8000.0, forward.LeftBandwidth, 0.001)
	require.InDelta(t, 8000.0/1_000_000_000*100, forward.LinkBandwidthUtilization, 0.0001)

	reverse := fg.linkInfos[1]
	require.InDelta(t, 16000.0, reverse.LinkBandwidthUsage, 0.001)
	require.InDelta(t, 1_000_000_000-16000.0, reverse.LeftBandwidth, 0.001)
	require.InDelta(t, 16000.0/1_000_000_000*100, reverse.LinkBandwidthUtilization, 0.0001)
}
