// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package devicestatus

import (
	"context"
	"hash/fnv"

	nerr "ndtwin.dev/core/internal/errors"
)

// DeviceAdapter abstracts the operation-mode-specific backend: simulated
// mode synthesizes deterministic values, testbed mode would speak SNMP,
// vendor SSH, and a smart-plug HTTP relay (spec §4.5). Only the
// simulated adapter is a full implementation here; the testbed adapter is
// a stub returning KindUnavailable, since the SNMP/SSH/smart-plug
// backends it would drive are out of scope.
type DeviceAdapter interface {
	PowerOf(ctx context.Context, dpid uint64, ip string) (float64, error)
	CPUOf(ctx context.Context, dpid uint64, ip string) (float64, error)
	MemoryOf(ctx context.Context, dpid uint64, ip string) (float64, error)
	TemperatureOf(ctx context.Context, dpid uint64, ip string) (float64, error)
	FlowTableOf(ctx context.Context, dpid uint64) ([]FlowTableEntry, error)
	SetSmartPlug(ctx context.Context, dpid uint64, on bool) error
}

// SimulatedAdapter synthesizes deterministic pseudo-random health values
// seeded by the switch's IP string, so repeated polls of the same switch
// in the same process produce a stable but varied-looking reading.
type SimulatedAdapter struct{}

// NewSimulatedAdapter returns a SimulatedAdapter.
func NewSimulatedAdapter() *SimulatedAdapter { return &SimulatedAdapter{} }

func seedFor(ip string, salt string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(ip))
	h.Write([]byte(salt))
	return h.Sum64()
}

// pseudoRange maps a seed deterministically into [lo, hi).
func pseudoRange(seed uint64, lo, hi float64) float64 {
	normalized := float64(seed%10000) / 10000.0
	return lo + normalized*(hi-lo)
}

func (a *SimulatedAdapter) PowerOf(_ context.Context, _ uint64, ip string) (float64, error) {
	return pseudoRange(seedFor(ip, "power"), 8.0, 45.0), nil
}

func (a *SimulatedAdapter) CPUOf(_ context.Context, _ uint64, ip string) (float64, error) {
	return pseudoRange(seedFor(ip, "cpu"), 2.0, 90.0), nil
}

func (a *SimulatedAdapter) MemoryOf(_ context.Context, _ uint64, ip string) (float64, error) {
	return pseudoRange(seedFor(ip, "mem"), 10.0, 85.0), nil
}

func (a *SimulatedAdapter) TemperatureOf(_ context.Context, _ uint64, ip string) (float64, error) {
	return pseudoRange(seedFor(ip, "temp"), 28.0, 68.0), nil
}

func (a *SimulatedAdapter) FlowTableOf(_ context.Context, _ uint64) ([]FlowTableEntry, error) {
	return nil, nil
}

func (a *SimulatedAdapter) SetSmartPlug(_ context.Context, _ uint64, _ bool) error {
	return nil // simulated mode manages bridge state directly, not a relay
}

// TestbedAdapter is a stub for the SNMP/vendor-SSH/smart-plug-relay
// backend a real testbed deployment would use. It always reports
// unavailable; wiring a concrete transport is out of scope (spec §4.5,
// Non-goals).
type TestbedAdapter struct{}

// NewTestbedAdapter returns a TestbedAdapter.
func NewTestbedAdapter() *TestbedAdapter { return &TestbedAdapter{} }

func (a *TestbedAdapter) PowerOf(context.Context, uint64, string) (float64, error) {
	return 0, nerr.New(nerr.KindUnavailable, "testbed power backend not configured")
}

func (a *TestbedAdapter) CPUOf(context.Context, uint64, string) (float64, error) {
	return 0, nerr.New(nerr.KindUnavailable, "testbed SNMP backend not configured")
}

func (a *TestbedAdapter) MemoryOf(context.Context, uint64, string) (float64, error) {
	return 0, nerr.New(nerr.KindUnavailable, "testbed SNMP backend not configured")
}

func (a *TestbedAdapter) TemperatureOf(context.Context, uint64, string) (float64, error) {
	return 0, nerr.New(nerr.KindUnavailable, "testbed SNMP backend not configured")
}

func (a *TestbedAdapter) FlowTableOf(context.Context, uint64) ([]FlowTableEntry, error) {
	return nil, nerr.New(nerr.KindUnavailable, "testbed controller REST backend not configured")
}

func (a *TestbedAdapter) SetSmartPlug(context.Context, uint64, bool) error {
	return nerr.New(nerr.KindUnavailable, "smart-plug relay not configured")
}
