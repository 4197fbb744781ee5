// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ndtwin.dev/core/internal/classifier"
	"ndtwin.dev/core/internal/flowkey"
	"ndtwin.dev/core/internal/graph"
	"ndtwin.dev/core/internal/ipaddr"
	"ndtwin.dev/core/internal/logging"
)

func mustIPSflow(t *testing.T, s string) uint32 {
	t.Helper()
	v, err := ipaddr.ToUint32(s)
	require.NoError(t, err)
	return v
}

func flowKeyFor(srcIP, dstIP uint32) flowkey.FlowKey {
	return flowkey.FlowKey{SrcIP: srcIP, DstIP: dstIP}
}

func buildTestTopology(t *testing.T) (*graph.Store, *classifier.Classifier) {
	t.Helper()
	g := graph.New(logging.Default())
	hostAIP := mustIPSflow(t, "10.0.0.1")
	hostBIP := mustIPSflow(t, "10.0.0.2")

	hostA := g.AddVertex(&graph.Vertex{Kind: graph.KindHost, IP: []string{"10.0.0.1"}})
	sw1 := g.AddVertex(&graph.Vertex{Kind: graph.KindSwitch, Dpid: 1})
	sw2 := g.AddVertex(&graph.Vertex{Kind: graph.KindSwitch, Dpid: 2})
	hostB := g.AddVertex(&graph.Vertex{Kind: graph.KindHost, IP: []string{"10.0.0.2"}})

	// host A -- sw1, sw1 port 1
	g.AddLink(hostA, sw1, 1_000_000_000, hostAIP, 0, 0, 0, 1, 1)
	// sw1 port 2 -- sw2 port 1
	g.AddLink(sw1, sw2, 1_000_000_000, 0x0A0000F1, 1, 2, 0x0A0000F2, 2, 1)
	// sw2 port 2 -- host B
	g.AddLink(sw2, hostB, 1_000_000_000, 0x0A0000F3, 2, 2, hostBIP, 0, 0)

	c := classifier.New(logging.Default())
	poll := []byte(`[
		{"dpid":1,"flows":[{"priority":1,"match":{"eth_type":2048,"ipv4_dst":"10.0.0.2/32"},"actions":["OUTPUT:2"]}]},
		{"dpid":2,"flows":[{"priority":1,"match":{"eth_type":2048,"ipv4_dst":"10.0.0.2/32"},"actions":["OUTPUT:2"]}]}
	]`)
	c.UpdateFromQueriedTables(poll)

	return g, c
}

func TestResolvePathWalksToDestination(t *testing.T) {
	g, c := buildTestTopology(t)
	srcIP := mustIPSflow(t, "10.0.0.1")
	dstIP := mustIPSflow(t, "10.0.0.2")

	path := ResolvePath(g, c, srcIP, dstIP)
	require.NotEmpty(t, path)
	require.True(t, path[0].IsHost)
	require.Equal(t, srcIP, path[0].IP)
}

func TestPathMapCachesResolution(t *testing.T) {
	pm := NewPathMap()
	g, c := buildTestTopology(t)
	srcIP := mustIPSflow(t, "10.0.0.1")
	dstIP := mustIPSflow(t, "10.0.0.2")

	_, ok := pm.Get(srcIP, dstIP)
	require.False(t, ok)

	path := pm.ResolveAndCache(g, c, flowKeyFor(srcIP, dstIP))
	require.NotEmpty(t, path)

	cached, ok := pm.Get(srcIP, dstIP)
	require.True(t, ok)
	require.Equal(t, path, cached)
}
