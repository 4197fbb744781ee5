// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sflow

import (
	"time"

	"ndtwin.dev/core/internal/flowkey"
)

// FlowStats is the per-(AgentKey, FlowKey) counter state: current and
// previous byte/packet snapshots, derived rates, and the sliding windows
// the immediate-rate computation reads (spec §3).
type FlowStats struct {
	IngressBytes, EgressBytes     uint64
	IngressPackets, EgressPackets uint64

	PrevIngressBytes, PrevEgressBytes     uint64
	PrevIngressPackets, PrevEgressPackets uint64

	AvgByteRateInBps float64
	AvgPacketRate    float64
	SamplingRate     uint32

	// byteWindow/packetWindow are the sliding windows over the most
	// recent TimeUnitInterval used by the immediate-rate computation.
	byteWindow   *AutoRefreshQueue
	packetWindow *AutoRefreshQueue
}

func newFlowStats(samplingRate uint32) *FlowStats {
	return &FlowStats{
		SamplingRate: samplingRate,
		byteWindow:   NewAutoRefreshQueue(TimeUnitInterval),
		packetWindow: NewAutoRefreshQueue(TimeUnitInterval),
	}
}

// totalBytes/totalPackets fold ingress+egress into one current count, used
// by the periodic rate computation's curr-prev delta.
func (fs *FlowStats) totalBytes() uint64   { return fs.IngressBytes + fs.EgressBytes }
func (fs *FlowStats) totalPackets() uint64 { return fs.IngressPackets + fs.EgressPackets }
func (fs *FlowStats) prevTotalBytes() uint64 {
	return fs.PrevIngressBytes + fs.PrevEgressBytes
}
func (fs *FlowStats) prevTotalPackets() uint64 {
	return fs.PrevIngressPackets + fs.PrevEgressPackets
}

// PathHop is one element of an attributed forward path: a host's IP (Port
// 0) or a (dpid, outPort) hop on a switch.
type PathHop struct {
	IsHost bool
	IP     uint32 // valid when IsHost
	Dpid   uint64 // valid when !IsHost
	Port   uint32 // valid when !IsHost
}

// FlowInfo is the per-FlowKey aggregate the collector maintains: one entry
// per agent reporting the flow, the aggregated rate estimates, ACK
// classification, and the attributed path (spec §3).
type FlowInfo struct {
	Key    flowkey.FlowKey
	Agents map[flowkey.AgentKey]*FlowStats

	EstimatedFlowSendingRatePeriodically float64
	EstimatedFlowSendingRateImmediately  float64
	EstimatedPacketRatePeriodically      float64
	EstimatedPacketRateImmediately       float64

	StartTime time.Time
	EndTime   time.Time

	IsElephantFlowPeriodically bool
	IsElephantFlowImmediately  bool
	IsAck                      bool
	IsPureAck                  bool

	FlowPath []PathHop
}

func newFlowInfo(key flowkey.FlowKey, now time.Time) *FlowInfo {
	return &FlowInfo{
		Key:       key,
		Agents:    make(map[flowkey.AgentKey]*FlowStats),
		StartTime: now,
		EndTime:   now,
	}
}

// CounterInfo is the per-AgentKey state the counter-sample handler
// maintains between reports: last report time, last raw octet counters,
// and InByteAccumulator, which holds the input rate in bits per second
// derived from the last two reports' input octet counters. It is
// overwritten on each report, not summed, and is not scaled by any
// sampling rate.
type CounterInfo struct {
	LastReportTime    time.Time
	LastInOctets      uint64
	LastOutOctets     uint64
	InByteAccumulator float64
}
