// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package sflow implements the sFlow v5 UDP collector: ingest, per-flow
// statistics, per-link utilisation, idle-flow purge, and the sliding-window
// rate estimator (spec §4.3).
package sflow

import "time"

type sample struct {
	value     uint64
	timestamp time.Time
}

// AutoRefreshQueue is a time-windowed sliding sum of (value, timestamp)
// samples, the Go form of the original's packetQueue (spec §3 FlowStats,
// §8 Boundary behaviours). Every Push and every Sum drops samples older
// than window, so a single sample of length L pushed at t reads back as
// Sum()==L for any read within [t, t+window] and 0 once more than window
// has passed.
type AutoRefreshQueue struct {
	window  time.Duration
	samples []sample
}

// NewAutoRefreshQueue returns a queue covering the most recent window.
func NewAutoRefreshQueue(window time.Duration) *AutoRefreshQueue {
	return &AutoRefreshQueue{window: window}
}

// Push records value at now, then prunes samples outside the window.
func (q *AutoRefreshQueue) Push(value uint64, now time.Time) {
	q.samples = append(q.samples, sample{value: value, timestamp: now})
	q.prune(now)
}

// Sum returns the sum of every sample still inside the window as of now,
// pruning stale samples first.
func (q *AutoRefreshQueue) Sum(now time.Time) uint64 {
	q.prune(now)
	var total uint64
	for _, s := range q.samples {
		total += s.value
	}
	return total
}

// Len returns the number of samples still inside the window as of now.
func (q *AutoRefreshQueue) Len(now time.Time) int {
	q.prune(now)
	return len(q.samples)
}

func (q *AutoRefreshQueue) prune(now time.Time) {
	cutoff := now.Add(-q.window)
	i := 0
	for i < len(q.samples) && q.samples[i].timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		q.samples = append([]sample(nil), q.samples[i:]...)
	}
}
