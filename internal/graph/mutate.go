// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package graph

import (
	"time"

	nerr "ndtwin.dev/core/internal/errors"
	"ndtwin.dev/core/internal/flowkey"
)

// SetEdgeUp sets h's reachability flag to up.
func (s *Store) SetEdgeUp(h EdgeHandle, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.edgeLocked(h)
	if err != nil {
		return err
	}
	e.IsUp = up
	return nil
}

// SetEdgeEnabled sets h's administrative enable flag.
func (s *Store) SetEdgeEnabled(h EdgeHandle, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.edgeLocked(h)
	if err != nil {
		return err
	}
	e.IsEnabled = enabled
	return nil
}

// SetVertexUp sets v's reachability flag to up.
func (s *Store) SetVertexUp(h VertexHandle, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.vertexLocked(h)
	if err != nil {
		return err
	}
	v.IsUp = up
	return nil
}

// SetVertexEnabled sets v's administrative enable flag.
func (s *Store) SetVertexEnabled(h VertexHandle, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.vertexLocked(h)
	if err != nil {
		return err
	}
	v.IsEnabled = enabled
	return nil
}

// SetVertexDeviceName renames a vertex and persists the change to the
// static topology file through the injected NamePersister, if one is set.
// A persistence failure is returned to the caller (mismatch between
// in-memory and file state is surfaced as an error, per spec §4.1).
func (s *Store) SetVertexDeviceName(h VertexHandle, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.vertexLocked(h)
	if err != nil {
		return err
	}
	old := v.DeviceName
	v.DeviceName = name
	delete(s.byDeviceName, old)
	if name != "" {
		s.byDeviceName[name] = h
	}
	if s.persister != nil {
		if err := s.persister.PersistDeviceName(v.Dpid, name); err != nil {
			return nerr.Wrap(nerr.KindInternal, "persist device name", err)
		}
	}
	return nil
}

// SetVertexNickName renames a vertex's nickname and persists the change.
func (s *Store) SetVertexNickName(h VertexHandle, nick string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.vertexLocked(h)
	if err != nil {
		return err
	}
	v.NickName = nick
	if s.persister != nil {
		if err := s.persister.PersistNickName(v.Dpid, nick); err != nil {
			return nerr.Wrap(nerr.KindInternal, "persist nickname", err)
		}
	}
	return nil
}

// SetVertexBridgePorts replaces a vertex's ECMP group membership.
func (s *Store) SetVertexBridgePorts(h VertexHandle, groups []ECMPGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.vertexLocked(h)
	if err != nil {
		return err
	}
	v.EcmpGroups = groups
	return nil
}

// LinkInfo carries the residual/utilisation fields UpdateLinkInfo writes.
type LinkInfo struct {
	LeftBandwidth               float64
	LeftBandwidthFromFlowSample float64
	LinkBandwidthUsage          float64
	LinkBandwidthUtilization    float64
}

// UpdateLinkInfo writes residual bandwidth, utilisation and usage for h,
// and propagates LinkBandwidth (capacity) to the reverse edge so the two
// directions never disagree on capacity, all under one exclusive section
// (spec §4.1, invariant 1 in §8).
func (s *Store) UpdateLinkInfo(h EdgeHandle, info LinkInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.edgeLocked(h)
	if err != nil {
		return err
	}
	e.LeftBandwidth = info.LeftBandwidth
	e.LeftBandwidthFromFlowSample = info.LeftBandwidthFromFlowSample
	e.LinkBandwidthUsage = info.LinkBandwidthUsage
	e.LinkBandwidthUtilization = info.LinkBandwidthUtilization

	if rev, err := s.edgeLocked(e.Reverse); err == nil {
		rev.LinkBandwidth = e.LinkBandwidth
	}
	return nil
}

// DisableSwitchAndEdges marks the switch vertex for dpid, and every edge
// incident to it, disabled in a single exclusive section (spec §4.1 Bulk).
func (s *Store) DisableSwitchAndEdges(dpid uint64) error {
	return s.setSwitchAndEdges(dpid, false)
}

// EnableSwitchAndEdges is the inverse of DisableSwitchAndEdges.
func (s *Store) EnableSwitchAndEdges(dpid uint64) error {
	return s.setSwitchAndEdges(dpid, true)
}

func (s *Store) setSwitchAndEdges(dpid uint64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.findVertexByDpidLocked(dpid)
	if !ok {
		return nerr.NotFound("no vertex for dpid %d", dpid)
	}
	v.IsEnabled = enabled

	for _, e := range s.edges {
		if e.SrcDpid == dpid || e.DstDpid == dpid {
			e.IsEnabled = enabled
		}
	}
	return nil
}

// TouchEdgeFlow inserts or refreshes a (flowKey -> now) pair in h's
// flowSet, returning whether the key was new. The TTL sweeper periodically
// removes entries older than 2s (spec §4.1, §4.4).
func (s *Store) TouchEdgeFlow(h EdgeHandle, key flowkey.FlowKey, now time.Time) (isNew bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.edgeLocked(h)
	if err != nil {
		return false, err
	}
	_, existed := e.FlowSet[key]
	e.FlowSet[key] = now
	return !existed, nil
}

func (s *Store) vertexLocked(h VertexHandle) (*Vertex, error) {
	if int(h) < 0 || int(h) >= len(s.vertices) {
		return nil, nerr.NotFound("no vertex for handle %d", h)
	}
	return s.vertices[h], nil
}

func (s *Store) edgeLocked(h EdgeHandle) (*Edge, error) {
	if int(h) < 0 || int(h) >= len(s.edges) {
		return nil, nerr.NotFound("no edge for handle %d", h)
	}
	return s.edges[h], nil
}
