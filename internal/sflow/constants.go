// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sflow

import "time"

// Wire/protocol constants from spec §6.
const (
	Port       = 6343
	BufferSize = 65535 // max sFlow datagram size
	RecvBufferBytes = 4 * 1024 * 1024

	SFlowVersion5 = 5
)

// Timing and threshold constants from spec §6.
const (
	FlowIdleTimeout     = 15000 * time.Millisecond
	TimeUnitInterval    = 1000 * time.Millisecond
	MiceFlowUnderThreshold = 10_000_000 // bps
	EmptyLinkThreshold     = 700_000_000
	MininetInterfaceSpeed  = 1_000_000_000

	// EdgeFlowTTL is the TTL the Topology Monitor's per-edge flowSet
	// sweeper uses (spec §3, §4.1, §4.4) -- defined here since the
	// collector is what populates flowSet entries via touchEdgeFlow.
	EdgeFlowTTL = 2 * time.Second
)

// PureAckByteThreshold is the heuristic frame-length cutoff below which an
// ACK-flagged TCP sample is considered a pure ACK. Spec §9 flags this as a
// configuration constant rather than a hard-coded value.
var PureAckByteThreshold uint32 = 80
