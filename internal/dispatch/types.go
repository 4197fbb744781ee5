// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package dispatch serialises flow-rule mutations to each datapath in
// strict FIFO order through a per-dpid worker, so installs/modifies/
// deletes targeting the same switch never race (spec §4.6).
package dispatch

import "github.com/google/uuid"

// Op identifies the kind of flow-rule mutation a FlowJob carries.
type Op int

const (
	OpInstall Op = iota
	OpModify
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInstall:
		return "install"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FlowJob is one flow-rule mutation queued for a dpid.
type FlowJob struct {
	Dpid        uint64
	Op          Op
	Priority    uint16
	Match       map[string]any
	Actions     []string
	DstIPv4U32  uint32
	IdleTimeout uint16
	CorrID      uuid.UUID
}

// NewFlowJob builds a FlowJob with a fresh correlation id.
func NewFlowJob(dpid uint64, op Op, priority uint16, match map[string]any, actions []string, dstIPv4U32 uint32, idleTimeout uint16) FlowJob {
	return FlowJob{
		Dpid: dpid, Op: op, Priority: priority, Match: match,
		Actions: actions, DstIPv4U32: dstIPv4U32, IdleTimeout: idleTimeout,
		CorrID: uuid.New(),
	}
}

// Sender applies one burst of jobs, targeting a single dpid, to the
// external controller API. It must not be called while the dispatcher
// holds any lock (spec §5, ordering rule 2). A per-job error is logged
// and does not abort the remaining jobs in the burst (spec §7).
type Sender func(dpid uint64, burst []FlowJob) []error
