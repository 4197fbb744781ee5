// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package devicestatus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ndtwin.dev/core/internal/clock"
	"ndtwin.dev/core/internal/eventbus"
	"ndtwin.dev/core/internal/graph"
	"ndtwin.dev/core/internal/logging"
)

func TestPollerCachesStatus(t *testing.T) {
	store := graph.New(logging.Default())
	store.AddVertex(&graph.Vertex{Kind: graph.KindSwitch, Dpid: 1, IP: []string{"10.0.0.1"}, IsUp: true})

	p := NewPoller(store, NewSimulatedAdapter(), logging.Default())
	p.pollStatusOnce(context.Background())

	status, ok := p.Status(1)
	require.True(t, ok)
	require.Greater(t, status.PowerWatts, 0.0)
}

func TestPollerSkipsDownSwitches(t *testing.T) {
	store := graph.New(logging.Default())
	store.AddVertex(&graph.Vertex{Kind: graph.KindSwitch, Dpid: 1, IP: []string{"10.0.0.1"}, IsUp: false})

	p := NewPoller(store, NewSimulatedAdapter(), logging.Default())
	p.pollStatusOnce(context.Background())

	_, ok := p.Status(1)
	require.False(t, ok)
}

type failingAdapter struct{ DeviceAdapter }

func (failingAdapter) FlowTableOf(context.Context, uint64) ([]FlowTableEntry, error) {
	return nil, context.DeadlineExceeded
}

func TestFlowTablePollRetainsPreviousOnFetchError(t *testing.T) {
	store := graph.New(logging.Default())
	store.AddVertex(&graph.Vertex{Kind: graph.KindSwitch, Dpid: 1})

	p := NewPoller(store, failingAdapter{NewSimulatedAdapter()}, logging.Default())
	p.UpdateOpenFlowTables(1, []FlowTableEntry{{Priority: 10}}, nil, nil)

	p.pollFlowTablesOnce(context.Background())

	table, ok := p.FlowTable(1)
	require.True(t, ok)
	require.Len(t, table, 1)
}

func TestUpdateOpenFlowTablesInstallModifyDelete(t *testing.T) {
	store := graph.New(logging.Default())
	p := NewPoller(store, NewSimulatedAdapter(), logging.Default())

	base := FlowTableEntry{Priority: 100, EthType: 0x0800, Ipv4Dst: "10.0.0.2"}
	p.UpdateOpenFlowTables(1, []FlowTableEntry{base}, nil, nil)
	table, ok := p.FlowTable(1)
	require.True(t, ok)
	require.Len(t, table, 1)

	modified := FlowTableEntry{Priority: 100, EthType: 0x0800, Ipv4Dst: "10.0.0.2", Raw: map[string]any{"outport": 5}}
	p.UpdateOpenFlowTables(1, nil, []FlowTableEntry{modified}, nil)
	table, _ = p.FlowTable(1)
	require.Len(t, table, 1)
	require.Equal(t, 5, table[0].Raw["outport"])

	p.UpdateOpenFlowTables(1, nil, nil, []FlowTableEntry{base})
	table, _ = p.FlowTable(1)
	require.Len(t, table, 0)
}

func TestPingerMarksSwitchDownAfterRetriesExhausted(t *testing.T) {
	store := graph.New(logging.Default())
	store.AddVertex(&graph.Vertex{Kind: graph.KindSwitch, Dpid: 1, IP: []string{"10.0.0.1"}, IsUp: true})

	bus := eventbus.New()
	var exited bool
	bus.Subscribe(eventbus.TopicSwitchExited, func(eventbus.Event) { exited = true })

	orig := CheckPingFunc
	CheckPingFunc = func(string) error { return context.DeadlineExceeded }
	defer func() { CheckPingFunc = orig }()

	c := clock.NewFake(time.Now())
	p := NewPinger(c, bus, store, logging.Default(), false, nil)
	p.probeAll()

	v, ok := store.FindVertexByDpid(1)
	require.True(t, ok)
	require.False(t, v.IsUp)
	require.True(t, exited)
}

func TestPingerSimulatedModeUsesBridgePresence(t *testing.T) {
	store := graph.New(logging.Default())
	store.AddVertex(&graph.Vertex{Kind: graph.KindSwitch, Dpid: 1, BridgeName: "br-s1", IsUp: false})

	bus := eventbus.New()
	var entered bool
	bus.Subscribe(eventbus.TopicSwitchEntered, func(eventbus.Event) { entered = true })

	c := clock.NewFake(time.Now())
	p := NewPinger(c, bus, store, logging.Default(), true, func(name string) bool {
		return name == "br-s1"
	})
	p.probeAll()

	v, ok := store.FindVertexByDpid(1)
	require.True(t, ok)
	require.True(t, v.IsUp)
	require.True(t, entered)
}
