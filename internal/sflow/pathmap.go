// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sflow

import (
	"sync"

	"ndtwin.dev/core/internal/classifier"
	"ndtwin.dev/core/internal/flowkey"
	"ndtwin.dev/core/internal/graph"
)

const maxPathHops = 100

// ipv4EthType is the EtherType for IPv4 (0x0800). Every classifier lookup
// on this walk is for an IPv4 destination, so it is fixed rather than
// carried on PathHop.
const ipv4EthType = 0x0800

// GraphWalker is the subset of graph.Store the path-attribution walk
// needs: looking a switch up by ip/dpid and following a dpid+port hop to
// the next edge.
type GraphWalker interface {
	FindEdgeByHostIP(hostIP uint32) (*graph.Edge, bool)
	FindEdgeByDpidAndPort(dpid uint64, port uint32) (*graph.Edge, bool)
	VertexByHandle(h graph.VertexHandle) (*graph.Vertex, bool)
}

// RuleLookup is the subset of classifier.Classifier the walk needs.
type RuleLookup interface {
	Lookup(dpid uint64, tableID uint8, key classifier.MatchFields) (classifier.Effect, bool)
}

// PathMap maintains the attributed forward path for every (srcIP, dstIP)
// pair the classifier walk has resolved, plus the derived hop count per
// pair, under its own lock so path attribution never contends with the
// flow-statistics hot path (spec §5).
type PathMap struct {
	mu     sync.RWMutex
	paths  map[ipPair]([]PathHop)
	hopLen map[ipPair]int
}

type ipPair struct{ src, dst uint32 }

// NewPathMap returns an empty PathMap.
func NewPathMap() *PathMap {
	return &PathMap{
		paths:  make(map[ipPair][]PathHop),
		hopLen: make(map[ipPair]int),
	}
}

// Get returns the cached path for (srcIP, dstIP), if resolved.
func (p *PathMap) Get(srcIP, dstIP uint32) ([]PathHop, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	path, ok := p.paths[ipPair{srcIP, dstIP}]
	return path, ok
}

func (p *PathMap) set(srcIP, dstIP uint32, path []PathHop) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := ipPair{srcIP, dstIP}
	p.paths[key] = path
	p.hopLen[key] = len(path)
}

// ResolvePath walks the classifier-driven forward path from the edge
// access switch for srcIP toward dstIP, following each hop's OUTPUT
// action up to maxPathHops, then caches and returns the result (spec §4.3
// "flow path by query"). A hop that the classifier has no rule for, or
// whose output port has no corresponding edge, ends the walk early with
// whatever was resolved so far.
func ResolvePath(g GraphWalker, c RuleLookup, srcIP, dstIP uint32) []PathHop {
	edge, ok := g.FindEdgeByHostIP(srcIP)
	if !ok {
		return nil
	}

	path := []PathHop{{IsHost: true, IP: srcIP}}
	dpid := edge.DstDpid
	inPort := edge.DstInterface

	for hop := 0; hop < maxPathHops; hop++ {
		key := classifier.MatchFields{EthType: ipv4EthType, DstIP: dstIP, InPort: inPort}
		effect, found := c.Lookup(dpid, 0, key)
		if !found || len(effect.OutputPorts) == 0 {
			break
		}
		outPort := effect.OutputPorts[0]
		path = append(path, PathHop{IsHost: false, Dpid: dpid, Port: outPort})

		nextEdge, ok := g.FindEdgeByDpidAndPort(dpid, outPort)
		if !ok {
			break
		}
		if nextEdge.DstDpid == 0 {
			path = append(path, PathHop{IsHost: true, IP: dstIP})
			break
		}
		dpid = nextEdge.DstDpid
		inPort = nextEdge.DstInterface
	}
	return path
}

// ResolveAndCache calls ResolvePath and stores the result, keyed by the
// flow's source and destination IPs, for reuse by later lookups on the
// same (srcIP, dstIP) pair regardless of port/protocol.
func (p *PathMap) ResolveAndCache(g GraphWalker, c RuleLookup, key flowkey.FlowKey) []PathHop {
	if path, ok := p.Get(key.SrcIP, key.DstIP); ok {
		return path
	}
	path := ResolvePath(g, c, key.SrcIP, key.DstIP)
	p.set(key.SrcIP, key.DstIP, path)
	return path
}
