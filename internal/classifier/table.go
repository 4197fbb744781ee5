// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package classifier

import (
	"sync"

	"ndtwin.dev/core/internal/logging"
)

type dpTableKey struct {
	dpid    uint64
	tableID uint8
}

// dpTable holds every subtable and rule identity known for one
// (dpid, tableID) pair.
type dpTable struct {
	subtables map[MatchFields]*subtable
	byHash    map[uint64]*Rule // CoreHash -> Rule, for mark-and-sweep
	generation uint64
}

func newDpTable() *dpTable {
	return &dpTable{
		subtables: make(map[MatchFields]*subtable),
		byHash:    make(map[uint64]*Rule),
	}
}

// Classifier is the top-level masked-hash rule engine, single-writer /
// many-readers per spec §4.2: updateFromQueriedTables is serialised by
// taking the write lock; Lookup takes the read lock and is safe to call
// concurrently with itself.
type Classifier struct {
	mu     sync.RWMutex
	tables map[dpTableKey]*dpTable
	logger *logging.Logger
}

// New returns an empty Classifier.
func New(logger *logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{
		tables: make(map[dpTableKey]*dpTable),
		logger: logger.WithComponent("classifier"),
	}
}

// RuleCount returns the number of live rules across every (dpid, tableID),
// for metrics export.
func (c *Classifier) RuleCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, t := range c.tables {
		n += len(t.byHash)
	}
	return n
}
