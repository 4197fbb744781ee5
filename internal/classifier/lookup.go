// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package classifier

// Lookup returns the highest-priority rule matching key for (dpid,
// tableID), across every subtable. An unknown dpid/tableID, or no
// matching rule, both return (Effect{}, false) -- a lookup miss is always
// "no effect", never an exception (spec §4.2, §7). Ties in priority are
// not guaranteed to break any particular way; callers must not depend on
// tie-breaking beyond priority.
func (c *Classifier) Lookup(dpid uint64, tableID uint8, key MatchFields) (Effect, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[dpTableKey{dpid: dpid, tableID: tableID}]
	if !ok {
		return Effect{}, false
	}

	var best *Rule
	for _, st := range t.subtables {
		for _, r := range st.lookup(key) {
			if best == nil || r.Priority > best.Priority {
				best = r
			}
		}
	}
	if best == nil {
		return Effect{}, false
	}
	return best.Effect, true
}
