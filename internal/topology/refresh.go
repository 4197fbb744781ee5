// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package topology

import (
	"context"

	"ndtwin.dev/core/internal/graph"
	"ndtwin.dev/core/internal/logging"
)

// LinkStateSource is the interface a live link-state feed implements.
// Fetching link state is an external REST call (spec §4.4); only the
// interface is in scope here, not a concrete HTTP client.
type LinkStateSource interface {
	// FetchLinkState returns, for every dpid the source knows about,
	// whether that switch and its incident links are currently up.
	FetchLinkState(ctx context.Context) (map[uint64]bool, error)
}

// RefreshLinkState applies one link-state snapshot to the graph: switches
// (and their incident edges) reported up transition via
// SetVertexUp/EnableSwitchAndEdges, switches reported down via
// SetVertexUp(false)/DisableSwitchAndEdges; dpids absent from the
// snapshot or unknown to the graph are left at their current state
// (spec §4.4: "the REST refresh then sets live elements up").
func RefreshLinkState(ctx context.Context, store *graph.Store, source LinkStateSource, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.WithComponent("topology-refresh")

	state, err := source.FetchLinkState(ctx)
	if err != nil {
		logger.Warn("link-state refresh failed, retaining previous state", "err", err)
		return err
	}

	for dpid, up := range state {
		v, ok := store.FindVertexByDpid(dpid)
		if !ok {
			continue
		}
		if err := store.SetVertexUp(v.Handle, up); err != nil {
			logger.Warn("set vertex up failed", "dpid", dpid, "err", err)
			continue
		}
		if up {
			if err := store.EnableSwitchAndEdges(dpid); err != nil {
				logger.Warn("enable switch and edges failed", "dpid", dpid, "err", err)
			}
		} else {
			if err := store.DisableSwitchAndEdges(dpid); err != nil {
				logger.Warn("disable switch and edges failed", "dpid", dpid, "err", err)
			}
		}
	}
	return nil
}
