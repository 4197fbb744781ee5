// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package topology

import (
	"time"

	"ndtwin.dev/core/internal/clock"
	"ndtwin.dev/core/internal/graph"
)

// RunTTLSweeper removes, once per second, every edge flowSet entry older
// than ttl, until stop is closed (spec §4.4).
func RunTTLSweeper(store *graph.Store, c clock.Clock, ttl time.Duration, stop <-chan struct{}) {
	if c == nil {
		c = clock.System
	}
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			store.SweepEdgeFlows(c.Now(), ttl)
		}
	}
}
