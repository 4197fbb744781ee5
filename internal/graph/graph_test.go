// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"ndtwin.dev/core/internal/flowkey"
)

func newTestStore(t *testing.T) (*Store, VertexHandle, VertexHandle, EdgeHandle) {
	t.Helper()
	s := New(nil)
	sw1 := s.AddVertex(&Vertex{Kind: KindSwitch, Dpid: 1, IP: []string{"10.0.0.1"}})
	sw2 := s.AddVertex(&Vertex{Kind: KindSwitch, Dpid: 2, IP: []string{"10.0.0.2"}})
	fwd := s.AddLink(sw1, sw2, 1_000_000_000, 0xA000001, 1, 3, 0xA000002, 2, 4)
	return s, sw1, sw2, fwd
}

func TestAddLinkCreatesOpposingPair(t *testing.T) {
	s, _, _, fwd := newTestStore(t)
	e, ok := s.EdgeByHandle(fwd)
	require.True(t, ok)
	rev, ok := s.EdgeByHandle(e.Reverse)
	require.True(t, ok)
	require.Equal(t, e.SrcIP, rev.DstIP)
	require.Equal(t, e.DstIP, rev.SrcIP)
	require.Equal(t, e.SrcDpid, rev.DstDpid)
	require.Equal(t, e.Handle, rev.Reverse)
}

func TestUpdateLinkInfoKeepsCapacityConsistent(t *testing.T) {
	s, _, _, fwd := newTestStore(t)
	e, _ := s.EdgeByHandle(fwd)

	require.NoError(t, s.UpdateLinkInfo(fwd, LinkInfo{
		LeftBandwidth:      900_000_000,
		LinkBandwidthUsage: 100_000_000,
	}))

	updatedFwd, _ := s.EdgeByHandle(fwd)
	updatedRev, _ := s.EdgeByHandle(e.Reverse)
	require.Equal(t, updatedFwd.LinkBandwidth, updatedRev.LinkBandwidth)
	require.LessOrEqual(t, updatedFwd.LeftBandwidth+updatedFwd.LinkBandwidthUsage, float64(updatedFwd.LinkBandwidth))
}

func TestTouchEdgeFlowTTL(t *testing.T) {
	s, _, _, fwd := newTestStore(t)
	key := flowkey.FlowKey{SrcIP: 1, DstIP: 2, SrcPort: 1111, DstPort: 80, Protocol: 6}

	t0 := time.Unix(1000, 0)
	isNew, err := s.TouchEdgeFlow(fwd, key, t0)
	require.NoError(t, err)
	require.True(t, isNew)

	// t0 + 1.5s: still present.
	e, _ := s.EdgeByHandle(fwd)
	require.Contains(t, e.FlowSet, key)
	s.SweepEdgeFlows(t0.Add(1500*time.Millisecond), 2*time.Second)
	e, _ = s.EdgeByHandle(fwd)
	require.Contains(t, e.FlowSet, key)

	// t0 + 2.5s, after a sweep: gone.
	s.SweepEdgeFlows(t0.Add(2500*time.Millisecond), 2*time.Second)
	e, _ = s.EdgeByHandle(fwd)
	require.NotContains(t, e.FlowSet, key)
}

func TestLookupMissIsNeverAnException(t *testing.T) {
	s := New(nil)
	_, ok := s.FindVertexByIP("10.0.0.99")
	require.False(t, ok)
	_, ok = s.FindEdgeBySrcDstIP(1, 2)
	require.False(t, ok)
	err := s.SetVertexUp(VertexHandle(42), true)
	require.Error(t, err)
}

func TestDisableSwitchAndEdges(t *testing.T) {
	s, sw1, _, fwd := newTestStore(t)
	require.NoError(t, s.DisableSwitchAndEdges(1))

	v, _ := s.VertexByHandle(sw1)
	require.False(t, v.IsEnabled)
	e, _ := s.EdgeByHandle(fwd)
	require.False(t, e.IsEnabled)
	rev, _ := s.EdgeByHandle(e.Reverse)
	require.False(t, rev.IsEnabled)
}

func TestGetGraphIsADeepCopy(t *testing.T) {
	s, sw1, _, _ := newTestStore(t)
	snap := s.GetGraph()
	snap.Vertices[sw1].DeviceName = "mutated"

	v, _ := s.VertexByHandle(sw1)
	require.Empty(t, v.DeviceName)
}
