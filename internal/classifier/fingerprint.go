// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package classifier

import (
	"encoding/binary"
	"hash/fnv"
)

// coreHash fingerprints mask, value, priority and effect -- deliberately
// excluding any counters or durations hardware might report, so identity
// survives unchanged across polls even when hardware reports drifting
// counters on what is logically the same rule (spec §3, §4.2 step 4).
func coreHash(priority uint16, mask, value MatchFields, effect Effect) uint64 {
	h := fnv.New64a()
	var buf [8]byte

	writeU64 := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeFields := func(m MatchFields) {
		writeU64(uint64(m.InPort))
		writeU64(uint64(m.EthType))
		writeU64(uint64(m.Vlan))
		writeU64(m.Metadata)
		writeU64(uint64(m.SrcIP))
		writeU64(uint64(m.DstIP))
		writeU64(uint64(m.SrcPort))
		writeU64(uint64(m.DstPort))
		writeU64(uint64(m.Protocol))
		writeU64(uint64(m.ICMPType))
	}

	writeU64(uint64(priority))
	writeFields(mask)
	writeFields(value)
	for _, p := range effect.OutputPorts {
		writeU64(uint64(p))
	}
	if effect.GroupID != nil {
		writeU64(uint64(*effect.GroupID))
	}
	if effect.GotoTable != nil {
		writeU64(uint64(*effect.GotoTable))
	}
	return h.Sum64()
}
