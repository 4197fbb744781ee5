// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package topology owns the static topology file, the BFS path and
// per-dpid flow-table builder, the edge-flow TTL sweeper, and the
// vertex/edge up/down/enable transitions that sit on top of the Graph
// Store (spec §4.4).
package topology

// ecmpMemberFile is one member of an ecmp_groups entry in the topology
// file, e.g. {"type":"port","port_id":3}.
type ecmpMemberFile struct {
	Type   string `json:"type"`
	PortID int    `json:"port_id"`
}

type ecmpGroupFile struct {
	Members []ecmpMemberFile `json:"members"`
}

// nodeFile is one entry of the topology file's "nodes" array.
type nodeFile struct {
	VertexType     int             `json:"vertex_type"` // 0=switch, 1=host
	Mac            uint64          `json:"mac"`
	IP             []string        `json:"ip"`
	Dpid           uint64          `json:"dpid"`
	DeviceName     string          `json:"device_name"`
	NickName       string          `json:"nickname"`
	BrandName      string          `json:"brand_name"`
	DeviceLayer    string          `json:"device_layer"`
	EcmpGroups     []ecmpGroupFile `json:"ecmp_groups,omitempty"`
	BridgeName     string          `json:"bridge_name,omitempty"`
	SmartPlugIP    string          `json:"smart_plug_ip,omitempty"`
	SmartPlugOutlet int            `json:"smart_plug_outlet,omitempty"`
}

// edgeFile is one entry of the topology file's "edges" array. An endpoint
// with Dpid==0 is a host, resolved by IP rather than dpid (spec §6).
type edgeFile struct {
	LinkBandwidthBps uint64 `json:"link_bandwidth_bps"`
	SrcIP            string `json:"src_ip"`
	SrcDpid          uint64 `json:"src_dpid"`
	SrcInterface     uint32 `json:"src_interface"`
	DstIP            string `json:"dst_ip"`
	DstDpid          uint64 `json:"dst_dpid"`
	DstInterface     uint32 `json:"dst_interface"`
}

// topologyFile is the root document shape.
type topologyFile struct {
	Nodes []nodeFile `json:"nodes"`
	Edges []edgeFile `json:"edges"`
}
