// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package graph

import "time"

// SweepEdgeFlows removes, from every edge's flowSet, entries whose
// last-touched timestamp is older than ttl relative to now. It is driven
// by the Topology Monitor's 1 Hz TTL sweeper (spec §4.1, §4.4) and returns
// the number of entries removed.
func (s *Store) SweepEdgeFlows(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, e := range s.edges {
		for k, last := range e.FlowSet {
			if now.Sub(last) > ttl {
				delete(e.FlowSet, k)
				removed++
			}
		}
	}
	return removed
}
