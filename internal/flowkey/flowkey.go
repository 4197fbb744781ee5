// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package flowkey defines the canonical identifiers the rest of the core
// keys its per-flow state by: FlowKey (the observed 5-tuple) and AgentKey
// (one sFlow observation point).
package flowkey

import "fmt"

// FlowKey identifies a flow by its 5-tuple. Equality and hashing cover only
// these five fields per spec §3 — ICMP type/code are carried alongside a
// FlowKey by callers that need them (e.g. when deciding whether a sample
// refreshes an existing flow) but are not part of the key's identity, so
// two observations of the same 5-tuple with different ICMP type/code still
// land on the same FlowInfo entry. FlowKey is comparable and is used
// directly as a map key throughout the collector, graph edges and
// classifier walk.
type FlowKey struct {
	SrcIP    uint32
	DstIP    uint32
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}

// Hash returns an explicit 64-bit fingerprint of the key, for callers that
// want a fixed-width value independent of Go's struct equality (e.g.
// sharding).
func (k FlowKey) Hash() uint64 {
	h := uint64(14695981039346656037)
	mix := func(v uint64) {
		h ^= v
		h *= 1099511628211
	}
	mix(uint64(k.SrcIP))
	mix(uint64(k.DstIP))
	mix(uint64(k.SrcPort))
	mix(uint64(k.DstPort))
	mix(uint64(k.Protocol))
	return h
}

func (k FlowKey) String() string {
	return fmt.Sprintf("%d:%d->%d:%d/%d", k.SrcIP, k.SrcPort, k.DstIP, k.DstPort, k.Protocol)
}

// ICMPInfo carries the ICMP type/code observed for a sample whose protocol
// is ICMP (1). It rides alongside a FlowKey rather than inside it.
type ICMPInfo struct {
	Type uint8
	Code uint8
}

// AgentKey identifies one sFlow observation point: a switch-port pair.
type AgentKey struct {
	AgentIP       uint32
	InterfacePort uint32
}

func (a AgentKey) String() string {
	return fmt.Sprintf("%d@%d", a.AgentIP, a.InterfacePort)
}
