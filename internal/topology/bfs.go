// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package topology

import (
	"encoding/binary"
	"hash/fnv"
	"sort"

	"ndtwin.dev/core/internal/graph"
	"ndtwin.dev/core/internal/ipaddr"
)

// PathHop is one element of a BFS-reconstructed forward path: a host's IP
// (Port 0) or a (dpid, outPort) switch hop.
type PathHop struct {
	IsHost bool
	IP     uint32
	Dpid   uint64
	Port   uint32
}

// FlowTableEntry is one rule the BFS walk wants installed on a switch:
// "packets to Net/Mask leave on OutPort".
type FlowTableEntry struct {
	Net      uint32
	Mask     uint32
	Priority uint16
	OutPort  uint32
}

type dedupKey struct {
	net      uint32
	mask     uint32
	priority uint16
}

// FlowTableBuilder accumulates, per dpid, the deduplicated set of rules a
// BFS walk has derived.
type FlowTableBuilder struct {
	tables map[uint64]map[dedupKey]FlowTableEntry
}

func newFlowTableBuilder() *FlowTableBuilder {
	return &FlowTableBuilder{tables: make(map[uint64]map[dedupKey]FlowTableEntry)}
}

func (b *FlowTableBuilder) add(dpid uint64, e FlowTableEntry) {
	key := dedupKey{net: e.Net, mask: e.Mask, priority: e.Priority}
	t, ok := b.tables[dpid]
	if !ok {
		t = make(map[dedupKey]FlowTableEntry)
		b.tables[dpid] = t
	}
	t[key] = e
}

// Entries returns the deduplicated rule set for dpid, in no particular
// order.
func (b *FlowTableBuilder) Entries(dpid uint64) []FlowTableEntry {
	t := b.tables[dpid]
	out := make([]FlowTableEntry, 0, len(t))
	for _, e := range t {
		out = append(out, e)
	}
	return out
}

// BFSResult is the outcome of one bfsAllPathsToDst walk: a forward path
// per reachable source host, plus the per-dpid rule set to install so
// that every switch routes toward the destination.
type BFSResult struct {
	Paths      map[uint32][]PathHop // keyed by source host IP
	FlowTables *FlowTableBuilder
}

// neighborHop pairs a neighbouring vertex with the edge used to reach it.
type neighborHop struct {
	vertex graph.VertexHandle
	edge   *graph.Edge
}

// neighborOrderHash tie-breaks equal-cost neighbours deterministically
// (spec §4.4: "hash(dstIP || dpid)").
func neighborOrderHash(dstIP uint32, dpid uint64) uint64 {
	h := fnv.New64a()
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[0:4], dstIP)
	binary.BigEndian.PutUint64(buf[4:12], dpid)
	h.Write(buf[:])
	return h.Sum64()
}

// BFSAllPathsToDst walks outward from the vertex holding dstIP, recording
// for every reachable vertex the parent hop on its unique BFS path to the
// destination. It then reconstructs the forward path for each IP in
// knownHostIPs, and populates a per-dpid FlowTableBuilder with a
// (dstIP/32, outPort, priority=100) rule for every switch on any
// reconstructed path (spec §4.4, §8 S6).
func BFSAllPathsToDst(snap graph.Snapshot, dstIP uint32, knownHostIPs []uint32) BFSResult {
	result := BFSResult{Paths: make(map[uint32][]PathHop), FlowTables: newFlowTableBuilder()}

	dstHandle, ok := findVertexByIPInSnapshot(snap, dstIP)
	if !ok {
		return result
	}

	adjacency := buildAdjacency(snap)

	parent := make(map[graph.VertexHandle]neighborHop)
	visited := map[graph.VertexHandle]bool{dstHandle: true}
	queue := []graph.VertexHandle{dstHandle}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		neighbors := adjacency[current]
		sort.Slice(neighbors, func(i, j int) bool {
			return neighborOrderHash(dstIP, dpidOf(snap, neighbors[i].vertex)) <
				neighborOrderHash(dstIP, dpidOf(snap, neighbors[j].vertex))
		})

		for _, n := range neighbors {
			if visited[n.vertex] {
				continue
			}
			visited[n.vertex] = true
			parent[n.vertex] = n
			queue = append(queue, n.vertex)
		}
	}

	for _, hostIP := range knownHostIPs {
		srcHandle, ok := findVertexByIPInSnapshot(snap, hostIP)
		if !ok || !visited[srcHandle] {
			continue // disconnected source: no path, no error (spec §8 boundary)
		}
		path := reconstructPath(snap, parent, srcHandle, dstIP, result.FlowTables)
		result.Paths[hostIP] = path
	}
	return result
}

// reconstructPath walks the BFS parent chain from srcHandle toward the
// destination. For every switch vertex v on the way, the outbound port
// toward the destination is parent[v].edge.DstInterface: the BFS edge
// from v's parent (closer to dst) to v always carries, in DstInterface,
// the port that belongs to v itself -- i.e. exactly the port v would use
// to send traffic back the way it came, which is toward dst.
func reconstructPath(snap graph.Snapshot, parent map[graph.VertexHandle]neighborHop,
	srcHandle graph.VertexHandle, dstIP uint32, builder *FlowTableBuilder) []PathHop {

	var path []PathHop
	current := srcHandle
	for {
		v := snap.Vertices[current]
		p, hasParent := parent[current]

		if v.Kind == graph.KindHost {
			path = append(path, PathHop{IsHost: true, IP: firstIPUint32(v)})
		} else {
			var outPort uint32
			if hasParent {
				outPort = p.edge.DstInterface
			}
			builder.add(v.Dpid, FlowTableEntry{Net: dstIP, Mask: 0xFFFFFFFF, Priority: 100, OutPort: outPort})
			path = append(path, PathHop{Dpid: v.Dpid, Port: outPort})
		}

		if !hasParent {
			break
		}
		current = p.edge.SrcVertex
	}
	return path
}

func firstIPUint32(v *graph.Vertex) uint32 {
	if len(v.IP) == 0 {
		return 0
	}
	ip, err := ipaddr.ToUint32(v.IP[0])
	if err != nil {
		return 0
	}
	return ip
}

func buildAdjacency(snap graph.Snapshot) map[graph.VertexHandle][]neighborHop {
	adjacency := make(map[graph.VertexHandle][]neighborHop)
	for _, e := range snap.Edges {
		adjacency[e.SrcVertex] = append(adjacency[e.SrcVertex], neighborHop{vertex: e.DstVertex, edge: e})
	}
	return adjacency
}

func findVertexByIPInSnapshot(snap graph.Snapshot, ip uint32) (graph.VertexHandle, bool) {
	for _, v := range snap.Vertices {
		for _, s := range v.IP {
			parsed, err := ipaddr.ToUint32(s)
			if err == nil && parsed == ip {
				return v.Handle, true
			}
		}
	}
	return 0, false
}

func dpidOf(snap graph.Snapshot, h graph.VertexHandle) uint64 {
	if int(h) < 0 || int(h) >= len(snap.Vertices) {
		return 0
	}
	return snap.Vertices[h].Dpid
}
