// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package classifier rebuilds an OVS-like masked-hash rule engine from
// periodically polled flow-table snapshots and answers "what does this
// switch do with this packet" lookups (spec §4.2).
package classifier

// MatchFields is the fixed-width canonical key: the ten fields a rule (or
// a packet being classified) is matched on, in a fixed struct layout that
// plays the role of the source's packed byte-order key. Being composed
// entirely of fixed-size value fields makes MatchFields comparable, so it
// doubles as a Go map key for subtable interning and lookup without any
// manual byte packing.
type MatchFields struct {
	InPort   uint32
	EthType  uint16
	Vlan     uint16
	Metadata uint64
	SrcIP    uint32
	DstIP    uint32
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
	ICMPType uint8
}

// And returns the field-wise AND of k and mask, i.e. "key & mask".
func (k MatchFields) And(mask MatchFields) MatchFields {
	return MatchFields{
		InPort:   k.InPort & mask.InPort,
		EthType:  k.EthType & mask.EthType,
		Vlan:     k.Vlan & mask.Vlan,
		Metadata: k.Metadata & mask.Metadata,
		SrcIP:    k.SrcIP & mask.SrcIP,
		DstIP:    k.DstIP & mask.DstIP,
		SrcPort:  k.SrcPort & mask.SrcPort,
		DstPort:  k.DstPort & mask.DstPort,
		Protocol: k.Protocol & mask.Protocol,
		ICMPType: k.ICMPType & mask.ICMPType,
	}
}

// Effect is the forwarding decision carried by a matching rule.
type Effect struct {
	OutputPorts []uint32
	GroupID     *uint32
	GotoTable   *uint8
}

// Rule is one classifier entry. Identity is (tableID, CoreHash): CoreHash
// fingerprints mask, value, priority and effect, excluding counters and
// durations, so it is stable across polls even though hardware counters on
// the same logical rule change every poll (spec §3, §4.2).
type Rule struct {
	Priority uint16
	Mask     MatchFields
	Value    MatchFields
	Effect   Effect
	TableID  uint8
	CoreHash uint64

	// generation is bumped to the classifier's current poll generation
	// every time this rule is observed; updateFromQueriedTables sweeps any
	// rule whose generation lags behind.
	generation uint64
}
