// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package topology

import (
	"encoding/json"
	"fmt"
	"os"

	nerr "ndtwin.dev/core/internal/errors"
	"ndtwin.dev/core/internal/graph"
	"ndtwin.dev/core/internal/ipaddr"
)

const (
	vertexTypeSwitch = 0
	vertexTypeHost   = 1
)

// LoadFile parses a static topology file and populates store with its
// vertices and links. Vertices start administratively and operationally
// down (IsUp=false, IsEnabled=false); the link-state refresh brings live
// elements up (spec §4.4).
func LoadFile(path string, store *graph.Store) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nerr.Wrap(nerr.KindFatal, "read topology file", err)
	}
	return Load(data, store)
}

// Load parses topology JSON from data and populates store. Exported
// separately from LoadFile so tests and the in-process simulator can seed
// a graph without touching the filesystem.
func Load(data []byte, store *graph.Store) error {
	var doc topologyFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nerr.Wrap(nerr.KindValidation, "parse topology file", err)
	}

	byDpid := make(map[uint64]graph.VertexHandle)
	byIP := make(map[string]graph.VertexHandle)

	for _, n := range doc.Nodes {
		v := &graph.Vertex{
			Kind:        kindFromFile(n.VertexType),
			Dpid:        n.Dpid,
			Mac:         n.Mac,
			IP:          append([]string(nil), n.IP...),
			IsUp:        false,
			IsEnabled:   false,
			DeviceName:  n.DeviceName,
			NickName:    n.NickName,
			BrandName:   n.BrandName,
			DeviceLayer: n.DeviceLayer,
			BridgeName:  n.BridgeName,
			EcmpGroups:  ecmpGroupsFromFile(n.EcmpGroups),
		}
		h := store.AddVertex(v)
		if n.Dpid != 0 {
			byDpid[n.Dpid] = h
		}
		for _, ip := range n.IP {
			byIP[ip] = h
		}
	}

	for _, e := range doc.Edges {
		srcHandle, ok := resolveEndpoint(e.SrcDpid, e.SrcIP, byDpid, byIP)
		if !ok {
			return nerr.Errorf(nerr.KindValidation, "topology edge: unresolved src endpoint (dpid=%d ip=%q)", e.SrcDpid, e.SrcIP)
		}
		dstHandle, ok := resolveEndpoint(e.DstDpid, e.DstIP, byDpid, byIP)
		if !ok {
			return nerr.Errorf(nerr.KindValidation, "topology edge: unresolved dst endpoint (dpid=%d ip=%q)", e.DstDpid, e.DstIP)
		}

		srcIP, err := ipOrZero(e.SrcIP)
		if err != nil {
			return nerr.Wrap(nerr.KindValidation, "topology edge src_ip", err)
		}
		dstIP, err := ipOrZero(e.DstIP)
		if err != nil {
			return nerr.Wrap(nerr.KindValidation, "topology edge dst_ip", err)
		}

		store.AddLink(srcHandle, dstHandle, e.LinkBandwidthBps,
			srcIP, e.SrcDpid, e.SrcInterface,
			dstIP, e.DstDpid, e.DstInterface)
	}
	return nil
}

func resolveEndpoint(dpid uint64, ip string, byDpid map[uint64]graph.VertexHandle, byIP map[string]graph.VertexHandle) (graph.VertexHandle, bool) {
	if dpid != 0 {
		h, ok := byDpid[dpid]
		return h, ok
	}
	h, ok := byIP[ip]
	return h, ok
}

func ipOrZero(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := ipaddr.ToUint32(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return v, nil
}

func kindFromFile(vertexType int) graph.VertexKind {
	if vertexType == vertexTypeHost {
		return graph.KindHost
	}
	return graph.KindSwitch
}

func ecmpGroupsFromFile(groups []ecmpGroupFile) []graph.ECMPGroup {
	if groups == nil {
		return nil
	}
	out := make([]graph.ECMPGroup, len(groups))
	for i, g := range groups {
		members := make([]int, len(g.Members))
		for j, m := range g.Members {
			members[j] = m.PortID
		}
		out[i] = graph.ECMPGroup{Members: members}
	}
	return out
}
