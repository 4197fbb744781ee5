// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sflow

import (
	"encoding/binary"
	"fmt"
)

// Sample type numbers as reported in the sample header's low 12 bits
// (enterprise*4096 + type). Only sFlow v5 standard samples are accepted
// (spec §4.3); vendor variants are distinguished by type number per the
// Open Question in spec §9 -- the exact byte offsets below are an opaque,
// empirical per-vendor profile table, not a canonical sFlow layout, and
// must not be extrapolated to other vendors or sample types.
const (
	sampleTypeFlowBrocade    = 1
	sampleTypeCounterBrocade = 2
	sampleTypeFlowHPE        = 3
	sampleTypeCounterHPE     = 4
)

// vendorProfile names the base word offset (counted from the start of
// the sample body) at which a vendor's counter-sample payload places its
// ifIndex/ifSpeed/ifInOctets/ifOutOctets quadruple. Flow-sample layout
// differs enough between vendors (field presence, word spacing, IP
// packing) that it is decoded by dedicated per-vendor functions instead
// of a shared offset table.
type vendorProfile struct {
	name        string
	counterBase int
}

var (
	brocadeProfile = vendorProfile{name: "brocade", counterBase: 4}
	hpeProfile     = vendorProfile{name: "hpe", counterBase: 5}
)

// DatagramHeader is the sFlow v5 datagram header (spec §6).
type DatagramHeader struct {
	Version     uint32
	AddressType uint32
	AgentIP     uint32
	SubAgentID  uint32
	Sequence    uint32
	Uptime      uint32
	SampleCount uint32
}

// CounterSample is a decoded interface-counter sample.
type CounterSample struct {
	AgentIP   uint32
	IfIndex   uint32
	IfSpeed   uint64
	InOctets  uint64
	OutOctets uint64
}

// FlowSample is a decoded raw-packet flow sample.
type FlowSample struct {
	AgentIP      uint32
	SamplingRate uint32
	InputPort    uint32
	OutputPort   uint32
	FrameLength  uint32
	Protocol     uint8
	SrcIP        uint32
	DstIP        uint32
	SrcPort      uint16
	DstPort      uint16
	ICMPType     uint8
	ICMPCode     uint8
	TCPFlags     uint8
}

// Datagram is the decode result of one UDP packet: zero or more counter
// and flow samples.
type Datagram struct {
	Header          DatagramHeader
	CounterSamples  []CounterSample
	FlowSamples     []FlowSample
}

// reader is a tiny big-endian cursor over a byte slice.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("short read for u32 at offset %d", r.pos)
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) skip(n int) error {
	if r.remaining() < n {
		return fmt.Errorf("short read skipping %d bytes at offset %d", n, r.pos)
	}
	r.pos += n
	return nil
}

func (r *reader) bytesAt(offset, n int) ([]byte, error) {
	if offset < 0 || offset+n > len(r.buf) {
		return nil, fmt.Errorf("out of range slice [%d:%d] of %d", offset, offset+n, len(r.buf))
	}
	return r.buf[offset : offset+n], nil
}

// Decode parses one sFlow v5 datagram. Only version 5 is accepted; any
// other version is a decode error (spec §4.3: "Only sFlow v5 is
// accepted").
func Decode(data []byte) (*Datagram, error) {
	r := &reader{buf: data}

	version, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("sflow: %w", err)
	}
	if version != SFlowVersion5 {
		return nil, fmt.Errorf("sflow: unsupported version %d", version)
	}
	addrType, err := r.u32()
	if err != nil {
		return nil, err
	}
	agentIP, err := r.u32()
	if err != nil {
		return nil, err
	}
	subAgent, err := r.u32()
	if err != nil {
		return nil, err
	}
	seq, err := r.u32()
	if err != nil {
		return nil, err
	}
	uptime, err := r.u32()
	if err != nil {
		return nil, err
	}
	sampleCount, err := r.u32()
	if err != nil {
		return nil, err
	}

	dg := &Datagram{Header: DatagramHeader{
		Version: version, AddressType: addrType, AgentIP: agentIP,
		SubAgentID: subAgent, Sequence: seq, Uptime: uptime, SampleCount: sampleCount,
	}}

	for i := uint32(0); i < sampleCount; i++ {
		format, err := r.u32()
		if err != nil {
			return dg, nil // partial datagram: return what decoded so far
		}
		length, err := r.u32()
		if err != nil {
			return dg, nil
		}
		sampleType := format & 0xFFF
		bodyStart := r.pos
		body, err := r.bytesAt(bodyStart, int(length))
		if err != nil {
			return dg, nil
		}

		switch sampleType {
		case sampleTypeCounterBrocade:
			if cs, ok := decodeCounterSample(agentIP, body, brocadeProfile); ok {
				dg.CounterSamples = append(dg.CounterSamples, cs)
			}
		case sampleTypeCounterHPE:
			if cs, ok := decodeCounterSample(agentIP, body, hpeProfile); ok {
				dg.CounterSamples = append(dg.CounterSamples, cs)
			}
		case sampleTypeFlowBrocade:
			if fs, ok := decodeFlowSample(agentIP, body, brocadeProfile); ok {
				dg.FlowSamples = append(dg.FlowSamples, fs)
			}
		case sampleTypeFlowHPE:
			if fs, ok := decodeFlowSample(agentIP, body, hpeProfile); ok {
				dg.FlowSamples = append(dg.FlowSamples, fs)
			}
		}

		if err := r.skip(int(length)); err != nil {
			return dg, nil
		}
	}
	return dg, nil
}

func decodeCounterSample(agentIP uint32, body []byte, profile vendorProfile) (CounterSample, bool) {
	br := &reader{buf: body}
	base := profile.counterBase * 4
	fields, err := br.bytesAt(base, 4*7) // ifIndex, ifSpeedHi, ifSpeedLo, inHi, inLo, outHi, outLo
	if err != nil || len(fields) < 28 {
		return CounterSample{}, false
	}
	ifIndex := binary.BigEndian.Uint32(fields[0:4])
	ifSpeed := uint64(binary.BigEndian.Uint32(fields[4:8]))<<32 | uint64(binary.BigEndian.Uint32(fields[8:12]))
	inOctets := uint64(binary.BigEndian.Uint32(fields[12:16]))<<32 | uint64(binary.BigEndian.Uint32(fields[16:20]))
	outOctets := uint64(binary.BigEndian.Uint32(fields[20:24]))<<32 | uint64(binary.BigEndian.Uint32(fields[24:28]))
	return CounterSample{
		AgentIP: agentIP, IfIndex: ifIndex, IfSpeed: ifSpeed,
		InOctets: inOctets, OutOctets: outOctets,
	}, true
}

// wordAt reads the 32-bit big-endian word at word index idx (0-based,
// counted from the start of body), the same indexing the vendor offset
// tables below are expressed in.
func wordAt(body []byte, idx int) (uint32, bool) {
	off := idx * 4
	if off < 0 || off+4 > len(body) {
		return 0, false
	}
	return binary.BigEndian.Uint32(body[off : off+4]), true
}

// ipFromFrontBack reassembles an IPv4 address split across the low
// half of one word and the high half of the next, the packing the
// legacy Brocade/HPE encoders use for src/dst IP in a flow sample.
func ipFromFrontBack(front, back uint32) uint32 {
	o1 := byte(front >> 8)
	o2 := byte(front)
	o3 := byte(back >> 24)
	o4 := byte(back >> 16)
	return uint32(o1)<<24 | uint32(o2)<<16 | uint32(o3)<<8 | uint32(o4)
}

// decodeFlowSample dispatches to the vendor-specific layout. Brocade and
// HPE raw-packet flow records are not wire-compatible: offsets, the
// presence of an explicit outputPort, and the word distance between
// fields all differ (spec §6, §9 "vendor offset constants").
func decodeFlowSample(agentIP uint32, body []byte, profile vendorProfile) (FlowSample, bool) {
	if profile.name == "brocade" {
		return decodeBrocadeFlowSample(agentIP, body)
	}
	return decodeHPEFlowSample(agentIP, body)
}

func decodeBrocadeFlowSample(agentIP uint32, body []byte) (FlowSample, bool) {
	samplingRate, ok := wordAt(body, 2)
	if !ok {
		return FlowSample{}, false
	}
	inputPort, ok := wordAt(body, 5)
	if !ok {
		return FlowSample{}, false
	}
	frameLength, ok := wordAt(body, 11)
	if !ok {
		return FlowSample{}, false
	}
	protoWord, ok := wordAt(body, 19)
	if !ok {
		return FlowSample{}, false
	}
	ipFront, ok := wordAt(body, 20)
	if !ok {
		return FlowSample{}, false
	}
	ipMid, ok := wordAt(body, 21)
	if !ok {
		return FlowSample{}, false
	}
	ipBack, ok := wordAt(body, 22)
	if !ok {
		return FlowSample{}, false
	}

	fs := FlowSample{
		AgentIP: agentIP, SamplingRate: samplingRate,
		InputPort: inputPort, OutputPort: 0, // Brocade never reports an egress port
		FrameLength: frameLength, Protocol: byte(protoWord),
		SrcIP: ipFromFrontBack(ipFront, ipMid),
		DstIP: ipFromFrontBack(ipMid, ipBack),
	}

	if fs.Protocol == 1 { // ICMP
		fs.ICMPType = byte(ipBack >> 8)
		fs.ICMPCode = byte(ipBack & 0xF)
		return fs, true
	}
	fs.SrcPort = uint16(ipBack & 0xFFFF)
	if w23, ok := wordAt(body, 23); ok {
		fs.DstPort = uint16(w23 >> 16)
	}
	if fs.Protocol == 6 { // TCP
		if w26, ok := wordAt(body, 26); ok {
			fs.TCPFlags = byte(w26 >> 8)
		}
	}
	return fs, true
}

func decodeHPEFlowSample(agentIP uint32, body []byte) (FlowSample, bool) {
	samplingRate, ok := wordAt(body, 3)
	if !ok {
		return FlowSample{}, false
	}
	inputPort, ok := wordAt(body, 7)
	if !ok {
		return FlowSample{}, false
	}
	outputPort, ok := wordAt(body, 9)
	if !ok {
		return FlowSample{}, false
	}
	frameLength, ok := wordAt(body, 14)
	if !ok {
		return FlowSample{}, false
	}
	protoWord, ok := wordAt(body, 23)
	if !ok {
		return FlowSample{}, false
	}
	ipFront, ok := wordAt(body, 24)
	if !ok {
		return FlowSample{}, false
	}
	ipMid, ok := wordAt(body, 25)
	if !ok {
		return FlowSample{}, false
	}
	ipBack, ok := wordAt(body, 26)
	if !ok {
		return FlowSample{}, false
	}

	fs := FlowSample{
		AgentIP: agentIP, SamplingRate: samplingRate,
		InputPort: inputPort, OutputPort: outputPort,
		FrameLength: frameLength, Protocol: byte(protoWord),
		SrcIP: ipFromFrontBack(ipFront, ipMid),
		DstIP: ipFromFrontBack(ipMid, ipBack),
	}

	if fs.Protocol == 1 { // ICMP
		fs.ICMPType = byte(ipBack >> 8)
		fs.ICMPCode = byte(ipBack & 0xF)
		return fs, true
	}
	if w27, ok := wordAt(body, 27); ok {
		fs.SrcPort = uint16(w27 & 0xFFFF)
	}
	if w28, ok := wordAt(body, 28); ok {
		fs.DstPort = uint16(w28 >> 16)
	}
	if fs.Protocol == 6 { // TCP
		if w30, ok := wordAt(body, 30); ok {
			fs.TCPFlags = byte(w30 >> 8)
		}
	}
	return fs, true
}
