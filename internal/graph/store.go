// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package graph

import (
	"sync"
	"time"

	"ndtwin.dev/core/internal/flowkey"
	"ndtwin.dev/core/internal/logging"
)

type dpidPort struct {
	dpid uint64
	port uint32
}

type ipPort struct {
	ip   uint32
	port uint32
}

type dpidPair struct {
	src, dst uint64
}

type ipPair struct {
	src, dst uint32
}

// NamePersister is consulted whenever a device name or nickname mutation
// needs to be reflected back to the on-disk static topology file. It is
// injected rather than imported directly so graph has no dependency on the
// topology package's file format (mirrors the BaselinePersister interface
// the teacher's metrics.Collector takes to avoid depending on the state
// package directly).
type NamePersister interface {
	PersistDeviceName(dpid uint64, name string) error
	PersistNickName(dpid uint64, nick string) error
}

// Store is the Graph Store: an arena of vertices, a directed-edge list,
// and side indices updated as vertices and links are added and devices
// renamed. A single readers-writer lock
// protects all of it, per spec §4.1 / §5.
type Store struct {
	mu sync.RWMutex

	vertices []*Vertex
	edges    []*Edge

	byIP         map[string]VertexHandle
	byMac        map[uint64]VertexHandle
	byDpid       map[uint64]VertexHandle
	byDeviceName map[string]VertexHandle
	byBridgeName map[string]VertexHandle

	byAgentPort  map[ipPort]EdgeHandle
	byDpidPort   map[dpidPort]EdgeHandle
	byDpidPair   map[dpidPair]EdgeHandle
	byHostIP     map[uint32]EdgeHandle
	bySrcDstIP   map[ipPair]EdgeHandle

	persister NamePersister
	logger    *logging.Logger
}

// New returns an empty Store.
func New(logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		byIP:         make(map[string]VertexHandle),
		byMac:        make(map[uint64]VertexHandle),
		byDpid:       make(map[uint64]VertexHandle),
		byDeviceName: make(map[string]VertexHandle),
		byBridgeName: make(map[string]VertexHandle),
		byAgentPort:  make(map[ipPort]EdgeHandle),
		byDpidPort:   make(map[dpidPort]EdgeHandle),
		byDpidPair:   make(map[dpidPair]EdgeHandle),
		byHostIP:     make(map[uint32]EdgeHandle),
		bySrcDstIP:   make(map[ipPair]EdgeHandle),
		logger:       logger.WithComponent("graph"),
	}
}

// SetNamePersister wires the topology file persister used by
// SetVertexDeviceName/SetVertexNickName.
func (s *Store) SetNamePersister(p NamePersister) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persister = p
}

// AddVertex appends a new vertex to the arena and indexes it. Vertices are
// created at startup from the static topology file (spec §3 Lifecycles);
// callers must hold no lock.
func (s *Store) AddVertex(v *Vertex) VertexHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addVertexLocked(v)
}

func (s *Store) addVertexLocked(v *Vertex) VertexHandle {
	h := VertexHandle(len(s.vertices))
	v.Handle = h
	s.vertices = append(s.vertices, v)

	for _, ip := range v.IP {
		s.byIP[ip] = h
	}
	if v.Mac != 0 {
		s.byMac[v.Mac] = h
	}
	if v.Dpid != 0 {
		s.byDpid[v.Dpid] = h
	}
	if v.DeviceName != "" {
		s.byDeviceName[v.DeviceName] = h
	}
	if v.BridgeName != "" {
		s.byBridgeName[v.BridgeName] = h
	}
	return h
}

// AddLink creates a physical link as two opposing directed Edge values and
// indexes both. Returns the forward edge handle (src->dst); the reverse is
// reachable via Edge.Reverse.
func (s *Store) AddLink(srcVertex, dstVertex VertexHandle, bandwidthBps uint64,
	srcIP uint32, srcDpid uint64, srcIface uint32,
	dstIP uint32, dstDpid uint64, dstIface uint32) EdgeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	fwdHandle := EdgeHandle(len(s.edges))
	revHandle := fwdHandle + 1

	fwd := &Edge{
		Handle: fwdHandle, Reverse: revHandle,
		LinkBandwidth: bandwidthBps,
		SrcVertex: srcVertex, DstVertex: dstVertex,
		SrcIP: srcIP, SrcDpid: srcDpid, SrcInterface: srcIface,
		DstIP: dstIP, DstDpid: dstDpid, DstInterface: dstIface,
		FlowSet: make(map[flowkey.FlowKey]time.Time),
	}
	rev := &Edge{
		Handle: revHandle, Reverse: fwdHandle,
		LinkBandwidth: bandwidthBps,
		SrcVertex: dstVertex, DstVertex: srcVertex,
		SrcIP: dstIP, SrcDpid: dstDpid, SrcInterface: dstIface,
		DstIP: srcIP, DstDpid: srcDpid, DstInterface: srcIface,
		FlowSet: make(map[flowkey.FlowKey]time.Time),
	}
	s.edges = append(s.edges, fwd, rev)
	s.indexEdgeLocked(fwd)
	s.indexEdgeLocked(rev)
	return fwdHandle
}

func (s *Store) indexEdgeLocked(e *Edge) {
	if e.SrcDpid != 0 {
		s.byAgentPort[ipPort{ip: e.SrcIP, port: e.SrcInterface}] = e.Handle
		s.byDpidPort[dpidPort{dpid: e.SrcDpid, port: e.SrcInterface}] = e.Handle
	}
	if e.SrcDpid != 0 && e.DstDpid != 0 {
		s.byDpidPair[dpidPair{src: e.SrcDpid, dst: e.DstDpid}] = e.Handle
	}
	if e.SrcDpid == 0 {
		// Source endpoint is a host.
		s.byHostIP[e.SrcIP] = e.Handle
	}
	s.bySrcDstIP[ipPair{src: e.SrcIP, dst: e.DstIP}] = e.Handle
}
