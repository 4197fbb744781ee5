// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package classifier

import "encoding/json"

// UpdateFromQueriedTables applies one poll's worth of flow-table state as
// an incremental mark-and-sweep (spec §4.2 Update protocol). A known table
// of a dpid that appears in the poll but reports no rules for that table
// is emptied. It is serialised: concurrent callers block on the write
// lock, while Lookup remains free to run concurrently with itself.
func (c *Classifier) UpdateFromQueriedTables(data []byte) {
	rules, warnings := ParsePollInput(data)
	for _, w := range warnings {
		c.logger.Warn("classifier poll input rejected a rule", "reason", w)
	}
	c.ApplyParsed(rules)

	var switches []switchFlows
	_ = json.Unmarshal(data, &switches) // a malformed payload was already reported above
	withRules := make(map[dpTableKey]bool, len(rules))
	for _, pr := range rules {
		withRules[dpTableKey{dpid: pr.Dpid, tableID: pr.Rule.TableID}] = true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sw := range switches {
		for key, t := range c.tables {
			if key.dpid == sw.Dpid && !withRules[key] {
				c.markAndInsert(t, nil)
			}
		}
	}
}

// ApplyParsed runs mark-and-sweep over an already-parsed rule set. Exposed
// separately from UpdateFromQueriedTables so callers (and tests) that
// already have ParsedRule values skip re-serialising to JSON.
func (c *Classifier) ApplyParsed(rules []ParsedRule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byDpidTable := make(map[dpTableKey][]ParsedRule)
	for _, pr := range rules {
		key := dpTableKey{dpid: pr.Dpid, tableID: pr.Rule.TableID}
		byDpidTable[key] = append(byDpidTable[key], pr)
	}

	seen := make(map[dpTableKey]bool)
	for key, prs := range byDpidTable {
		seen[key] = true
		t, ok := c.tables[key]
		if !ok {
			t = newDpTable()
			c.tables[key] = t
		}
		c.markAndInsert(t, prs)
	}

	// Tables for a (dpid, tableID) not present in this poll at all keep
	// their last-known state; only rules within polled tables are swept.
	// A dpid that stops reporting entirely is handled by the caller via
	// RemoveDpid, since an absent dpid in one poll is ambiguous with a
	// transient poll failure.
	_ = seen
}

func (c *Classifier) markAndInsert(t *dpTable, prs []ParsedRule) {
	t.generation++
	gen := t.generation

	for _, pr := range prs {
		r := pr.Rule
		if existing, ok := t.byHash[r.CoreHash]; ok {
			existing.generation = gen
			continue
		}

		newRule := r
		newRule.generation = gen
		st, ok := t.subtables[newRule.Mask]
		if !ok {
			st = newSubtable(newRule.Mask)
			t.subtables[newRule.Mask] = st
		}
		st.insert(&newRule)
		t.byHash[newRule.CoreHash] = &newRule
	}

	for hash, r := range t.byHash {
		if r.generation != gen {
			if st, ok := t.subtables[r.Mask]; ok {
				st.remove(r)
				if len(st.rules) == 0 {
					delete(t.subtables, r.Mask)
				}
			}
			delete(t.byHash, hash)
		}
	}
}

// RemoveDpid drops every rule known for dpid, across all of its tables.
// Used when the device poller determines a switch is no longer reporting
// flow tables at all (distinct from "this poll's snapshot omitted a
// specific rule").
func (c *Classifier) RemoveDpid(dpid uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.tables {
		if key.dpid == dpid {
			delete(c.tables, key)
		}
	}
}
