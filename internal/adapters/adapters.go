// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package adapters documents the shape of every external surface that §1's
// Non-goals place out of scope: the HTTP/REST API, the CSV historical
// recorder, the LLM intent translator, and NFS-backed application
// registration. Each is expressed as a Go interface only, with no
// concrete network server or client wired up, so a caller can adapt the
// core to a real deployment without this package standing in the way.
package adapters

import (
	"context"
	"time"

	"ndtwin.dev/core/internal/graph"
)

// QueryAPI is the shape of the HTTP/REST surface a deployment would stand
// up in front of the core: topology, flow, and device-status reads.
type QueryAPI interface {
	Topology(ctx context.Context) (graph.Snapshot, error)
	FlowsByHost(ctx context.Context, hostIP uint32) ([]FlowSummary, error)
	DeviceStatus(ctx context.Context, dpid uint64) (DeviceStatusSummary, error)
}

// FlowSummary is the read-facing projection of a tracked flow.
type FlowSummary struct {
	SrcIP, DstIP           uint32
	SrcPort, DstPort       uint16
	Protocol               uint8
	EstimatedRateBps       float64
	IsElephant             bool
}

// DeviceStatusSummary is the read-facing projection of a switch's cached
// health reading.
type DeviceStatusSummary struct {
	Dpid          uint64
	PowerWatts    float64
	CPUPercent    float64
	MemoryPercent float64
	TemperatureC  float64
	FetchedAt     time.Time
}

// HistoricalRecorder periodically snapshots flow/device-status state to
// durable storage (the original's 5-minute CSV writer, spec §5 task
// inventory: "historical recorder (5 min tick; out-of-core)").
type HistoricalRecorder interface {
	RecordSnapshot(ctx context.Context, at time.Time) error
}

// IntentTranslator turns a natural-language operator request into one or
// more FlowJob-shaped mutations. The original's LLM-backed task
// classifier; no model is wired up here.
type IntentTranslator interface {
	Translate(ctx context.Context, request string) (TranslatedIntent, error)
}

// TranslatedIntent is the structured result of an IntentTranslator call.
type TranslatedIntent struct {
	Summary string
	Actions []map[string]any
}

// ApplicationRegistry records which hosts or flows belong to a named
// application, backed by the original's NFS-mounted registration store.
type ApplicationRegistry interface {
	RegisterApplication(ctx context.Context, name string, hostIPs []uint32) error
	ApplicationFor(ctx context.Context, hostIP uint32) (string, bool, error)
}
