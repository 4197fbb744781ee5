// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package devicestatus

import (
	"context"
	"sync"
	"time"

	"ndtwin.dev/core/internal/graph"
	"ndtwin.dev/core/internal/logging"
)

const pollInterval = 10 * time.Second

// Poller runs the status and flow-table tasks, each independently
// draining into its own lock-protected cache (spec §4.5).
type Poller struct {
	store   *graph.Store
	adapter DeviceAdapter
	logger  *logging.Logger

	statusMu sync.RWMutex
	status   map[uint64]Status

	flowTableMu sync.RWMutex
	flowTables  map[uint64][]FlowTableEntry
}

// NewPoller constructs a Poller.
func NewPoller(store *graph.Store, adapter DeviceAdapter, logger *logging.Logger) *Poller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Poller{
		store:      store,
		adapter:    adapter,
		logger:     logger.WithComponent("device-status-poller"),
		status:     make(map[uint64]Status),
		flowTables: make(map[uint64][]FlowTableEntry),
	}
}

// Status returns the cached status for dpid, if any has been fetched.
func (p *Poller) Status(dpid uint64) (Status, bool) {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	s, ok := p.status[dpid]
	return s, ok
}

// FlowTable returns the cached flow table for dpid, if any has been
// fetched.
func (p *Poller) FlowTable(dpid uint64) ([]FlowTableEntry, bool) {
	p.flowTableMu.RLock()
	defer p.flowTableMu.RUnlock()
	t, ok := p.flowTables[dpid]
	return t, ok
}

// RunStatusTask polls power/CPU/memory/temperature for every up switch
// vertex every 10s, until stop is closed.
func (p *Poller) RunStatusTask(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.pollStatusOnce(ctx)
		}
	}
}

func (p *Poller) pollStatusOnce(ctx context.Context) {
	snap := p.store.GetGraph()
	for _, v := range snap.Vertices {
		if v.Kind != graph.KindSwitch || !v.IsUp {
			continue
		}
		ip := ""
		if len(v.IP) > 0 {
			ip = v.IP[0]
		}

		power, errP := p.adapter.PowerOf(ctx, v.Dpid, ip)
		cpu, errC := p.adapter.CPUOf(ctx, v.Dpid, ip)
		mem, errM := p.adapter.MemoryOf(ctx, v.Dpid, ip)
		temp, errT := p.adapter.TemperatureOf(ctx, v.Dpid, ip)
		if errP != nil || errC != nil || errM != nil || errT != nil {
			p.logger.Warn("status fetch failed, retaining previous reading", "dpid", v.Dpid)
			continue
		}

		p.statusMu.Lock()
		p.status[v.Dpid] = Status{
			PowerWatts: power, CPUPercent: cpu, MemoryPercent: mem,
			TemperatureC: temp, FetchedAt: time.Now(),
		}
		p.statusMu.Unlock()
	}
}

// RunFlowTableTask polls each known dpid's flow table every 10s, until
// stop is closed.
func (p *Poller) RunFlowTableTask(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.pollFlowTablesOnce(ctx)
		}
	}
}

func (p *Poller) pollFlowTablesOnce(ctx context.Context) {
	snap := p.store.GetGraph()
	for _, v := range snap.Vertices {
		if v.Kind != graph.KindSwitch {
			continue
		}
		entries, err := p.adapter.FlowTableOf(ctx, v.Dpid)
		if err != nil {
			p.logger.Warn("flow table fetch failed, retaining previous value", "dpid", v.Dpid, "err", err)
			continue
		}
		p.flowTableMu.Lock()
		p.flowTables[v.Dpid] = entries
		p.flowTableMu.Unlock()
	}
}

// UpdateOpenFlowTables applies a best-effort in-memory patch to the
// cached flow table for dpid, keeping the cache consistent with the
// dispatcher's intent before the next poll (spec §4.5).
func (p *Poller) UpdateOpenFlowTables(dpid uint64, installs, modifies []FlowTableEntry, deletes []FlowTableEntry) {
	p.flowTableMu.Lock()
	defer p.flowTableMu.Unlock()

	table := p.flowTables[dpid]

	for _, d := range deletes {
		key := keyOf(d)
		filtered := table[:0]
		for _, e := range table {
			if keyOf(e) != key {
				filtered = append(filtered, e)
			}
		}
		table = filtered
	}

	for _, m := range modifies {
		key := keyOf(m)
		replaced := false
		for i, e := range table {
			if keyOf(e) == key {
				table[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			table = append(table, m)
		}
	}

	table = append(table, installs...)
	p.flowTables[dpid] = table
}
