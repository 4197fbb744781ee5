// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package topology

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ndtwin.dev/core/internal/graph"
	"ndtwin.dev/core/internal/ipaddr"
	"ndtwin.dev/core/internal/logging"
)

// buildLineTopology constructs h1 -- s1 -- s2 -- h2 (spec §8 S6 fixture).
func buildLineTopology(t *testing.T) (*graph.Store, uint32, uint32) {
	t.Helper()
	store := graph.New(logging.Default())

	h1IP, err := ipaddr.ToUint32("10.0.0.1")
	require.NoError(t, err)
	h2IP, err := ipaddr.ToUint32("10.0.0.2")
	require.NoError(t, err)

	h1 := store.AddVertex(&graph.Vertex{Kind: graph.KindHost, IP: []string{"10.0.0.1"}})
	s1 := store.AddVertex(&graph.Vertex{Kind: graph.KindSwitch, Dpid: 1})
	s2 := store.AddVertex(&graph.Vertex{Kind: graph.KindSwitch, Dpid: 2})
	h2 := store.AddVertex(&graph.Vertex{Kind: graph.KindHost, IP: []string{"10.0.0.2"}})

	store.AddLink(h1, s1, 1_000_000_000, h1IP, 0, 0, 0, 1, 3) // s1 port 3 faces h1
	store.AddLink(s1, s2, 1_000_000_000, 0, 1, 5, 0, 2, 7)    // s1 port5 <-> s2 port7
	store.AddLink(s2, h2, 1_000_000_000, 0, 2, 9, h2IP, 0, 0) // s2 port 9 faces h2

	return store, h1IP, h2IP
}

func TestBFSAllPathsToDst(t *testing.T) {
	store, h1IP, h2IP := buildLineTopology(t)
	snap := store.GetGraph()

	result := BFSAllPathsToDst(snap, h2IP, []uint32{h1IP})

	path, ok := result.Paths[h1IP]
	require.True(t, ok)
	require.Len(t, path, 4)
	require.True(t, path[0].IsHost)
	require.Equal(t, h1IP, path[0].IP)
	require.Equal(t, uint64(1), path[1].Dpid)
	require.Equal(t, uint32(5), path[1].Port) // s1's port toward s2
	require.Equal(t, uint64(2), path[2].Dpid)
	require.Equal(t, uint32(9), path[2].Port) // s2's port toward h2
	require.True(t, path[3].IsHost)
	require.Equal(t, h2IP, path[3].IP)

	entries1 := result.FlowTables.Entries(1)
	require.Len(t, entries1, 1)
	require.Equal(t, uint32(5), entries1[0].OutPort)
	require.Equal(t, h2IP, entries1[0].Net)

	entries2 := result.FlowTables.Entries(2)
	require.Len(t, entries2, 1)
	require.Equal(t, uint32(9), entries2[0].OutPort)
}

func TestBFSDisconnectedSourceReturnsNoPath(t *testing.T) {
	store, _, h2IP := buildLineTopology(t)
	isolatedIP, err := ipaddr.ToUint32("192.168.9.9")
	require.NoError(t, err)
	store.AddVertex(&graph.Vertex{Kind: graph.KindHost, IP: []string{"192.168.9.9"}})

	snap := store.GetGraph()
	result := BFSAllPathsToDst(snap, h2IP, []uint32{isolatedIP})

	_, ok := result.Paths[isolatedIP]
	require.False(t, ok)
}
