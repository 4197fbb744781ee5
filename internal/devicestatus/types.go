// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package devicestatus polls per-switch health (power, CPU, memory,
// temperature, flow tables) and reachability, and reflects reachability
// changes into the Graph Store (spec §4.5).
package devicestatus

import "time"

// Status is one switch's latest health snapshot.
type Status struct {
	PowerWatts      float64
	CPUPercent      float64
	MemoryPercent   float64
	TemperatureC    float64
	FetchedAt       time.Time
}

// FlowTableEntry is one raw entry of a dpid's cached flow table, as
// returned by the external controller's flow-table query. The fields
// that identify an entry for modify/delete matching are Priority,
// EthType and Ipv4Dst (spec §4.5 updateOpenFlowTables).
type FlowTableEntry struct {
	Priority uint16
	EthType  uint16
	Ipv4Dst  string
	Raw      map[string]any
}

type flowEntryKey struct {
	priority uint16
	ethType  uint16
	ipv4Dst  string
}

func keyOf(e FlowTableEntry) flowEntryKey {
	return flowEntryKey{priority: e.Priority, ethType: e.EthType, ipv4Dst: e.Ipv4Dst}
}
