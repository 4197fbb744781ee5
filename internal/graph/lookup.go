// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package graph

// Every exported Find* takes the read lock and returns a deep copy so
// callers can use the result after releasing it. FindVertexByIP,
// FindVertexByDpid, FindEdgeByDpidAndPort and FindEdgeByHostIP have an
// unexported "Locked" sibling, used internally and by callers that already
// hold the lock (e.g. a mutation that needs to look a vertex up before
// changing it). The other lookups in this file have no such sibling and
// always take the read lock themselves.

// FindVertexByIP looks a vertex up by one of its IPv4 addresses.
func (s *Store) FindVertexByIP(ip string) (*Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.findVertexByIPLocked(ip)
	if !ok {
		return nil, false
	}
	return v.clone(), true
}

func (s *Store) findVertexByIPLocked(ip string) (*Vertex, bool) {
	h, ok := s.byIP[ip]
	if !ok {
		return nil, false
	}
	return s.vertices[h], true
}

// FindVertexByMac looks a vertex up by its 48-bit MAC.
func (s *Store) FindVertexByMac(mac uint64) (*Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byMac[mac]
	if !ok {
		return nil, false
	}
	return s.vertices[h].clone(), true
}

// FindVertexByDpid looks a vertex up by its 64-bit datapath id.
func (s *Store) FindVertexByDpid(dpid uint64) (*Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.findVertexByDpidLocked(dpid)
	if !ok {
		return nil, false
	}
	return v.clone(), true
}

func (s *Store) findVertexByDpidLocked(dpid uint64) (*Vertex, bool) {
	h, ok := s.byDpid[dpid]
	if !ok {
		return nil, false
	}
	return s.vertices[h], true
}

// FindVertexByDeviceName looks a vertex up by its administrative name.
func (s *Store) FindVertexByDeviceName(name string) (*Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byDeviceName[name]
	if !ok {
		return nil, false
	}
	return s.vertices[h].clone(), true
}

// FindVertexByBridgeName looks a vertex up by its simulated-mode bridge
// name.
func (s *Store) FindVertexByBridgeName(name string) (*Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byBridgeName[name]
	if !ok {
		return nil, false
	}
	return s.vertices[h].clone(), true
}

// VertexByHandle returns the vertex for h, if it exists.
func (s *Store) VertexByHandle(h VertexHandle) (*Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(h) < 0 || int(h) >= len(s.vertices) {
		return nil, false
	}
	return s.vertices[h].clone(), true
}

// FindEdgeByAgentPort looks an edge up by the (agentIP, interfacePort) that
// reports sFlow for it.
func (s *Store) FindEdgeByAgentPort(agentIP uint32, port uint32) (*Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byAgentPort[ipPort{ip: agentIP, port: port}]
	if !ok {
		return nil, false
	}
	return s.edges[h].clone(), true
}

// FindEdgeByDpidAndPort looks an edge up by its source dpid and port.
func (s *Store) FindEdgeByDpidAndPort(dpid uint64, port uint32) (*Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.findEdgeByDpidAndPortLocked(dpid, port)
	if !ok {
		return nil, false
	}
	return e.clone(), true
}

func (s *Store) findEdgeByDpidAndPortLocked(dpid uint64, port uint32) (*Edge, bool) {
	h, ok := s.byDpidPort[dpidPort{dpid: dpid, port: port}]
	if !ok {
		return nil, false
	}
	return s.edges[h], true
}

// FindEdgeBySrcDstDpid looks an edge up by its (srcDpid, dstDpid) pair.
func (s *Store) FindEdgeBySrcDstDpid(srcDpid, dstDpid uint64) (*Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byDpidPair[dpidPair{src: srcDpid, dst: dstDpid}]
	if !ok {
		return nil, false
	}
	return s.edges[h].clone(), true
}

// FindEdgeByHostIP looks the access edge for a host up by the host's IP.
func (s *Store) FindEdgeByHostIP(hostIP uint32) (*Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.findEdgeByHostIPLocked(hostIP)
	if !ok {
		return nil, false
	}
	return e.clone(), true
}

func (s *Store) findEdgeByHostIPLocked(hostIP uint32) (*Edge, bool) {
	h, ok := s.byHostIP[hostIP]
	if !ok {
		return nil, false
	}
	return s.edges[h], true
}

// FindEdgeBySrcDstIP looks an edge up by its (srcIP, dstIP) pair.
func (s *Store) FindEdgeBySrcDstIP(srcIP, dstIP uint32) (*Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.bySrcDstIP[ipPair{src: srcIP, dst: dstIP}]
	if !ok {
		return nil, false
	}
	return s.edges[h].clone(), true
}

// EdgeByHandle returns the edge for h, if it exists.
func (s *Store) EdgeByHandle(h EdgeHandle) (*Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(h) < 0 || int(h) >= len(s.edges) {
		return nil, false
	}
	return s.edges[h].clone(), true
}

// GetGraph returns a deep-copy snapshot of the whole graph, for readers
// that want to release the lock quickly (spec §4.1 Scan).
func (s *Store) GetGraph() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Vertices: make([]*Vertex, len(s.vertices)),
		Edges:    make([]*Edge, len(s.edges)),
	}
	for i, v := range s.vertices {
		snap.Vertices[i] = v.clone()
	}
	for i, e := range s.edges {
		snap.Edges[i] = e.clone()
	}
	return snap
}
