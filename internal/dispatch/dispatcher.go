// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dispatch

import (
	"sync"

	"ndtwin.dev/core/internal/logging"
)

const defaultBurstSize = 2000

type dpidQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	jobs    []FlowJob
	running bool
	started bool
}

// Dispatcher owns one FIFO queue and lazily-spawned worker per dpid.
// Ordering is strict FIFO within a dpid and unordered across dpids
// (spec §4.6, invariant S4).
type Dispatcher struct {
	send       Sender
	burstSize  int
	fencePerBurst bool
	fence      func(dpid uint64)
	logger     *logging.Logger

	queuesMu sync.Mutex
	queues   map[uint64]*dpidQueue

	wg sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBurstSize overrides the default burst size (2000).
func WithBurstSize(n int) Option {
	return func(d *Dispatcher) { d.burstSize = n }
}

// WithFencePerBurst installs a southbound barrier invoked after every
// drained burst is handed to the sender.
func WithFencePerBurst(fence func(dpid uint64)) Option {
	return func(d *Dispatcher) {
		d.fencePerBurst = true
		d.fence = fence
	}
}

// New constructs a Dispatcher. send is called with each drained burst,
// one dpid at a time, never while any dispatcher lock is held.
func New(send Sender, logger *logging.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{
		send:      send,
		burstSize: defaultBurstSize,
		logger:    logger.WithComponent("dispatch"),
		queues:    make(map[uint64]*dpidQueue),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue appends one job to its dpid's queue, spawning the worker on
// first use.
func (d *Dispatcher) Enqueue(job FlowJob) {
	d.EnqueueBatch(job.Dpid, []FlowJob{job})
}

// EnqueueBatch appends a batch of jobs, all targeting dpid, to its
// queue in order, spawning the worker on first use.
func (d *Dispatcher) EnqueueBatch(dpid uint64, jobs []FlowJob) {
	if len(jobs) == 0 {
		return
	}

	d.queuesMu.Lock()
	q, ok := d.queues[dpid]
	if !ok {
		q = &dpidQueue{running: true}
		q.cond = sync.NewCond(&q.mu)
		d.queues[dpid] = q
	}
	d.queuesMu.Unlock()

	q.mu.Lock()
	q.jobs = append(q.jobs, jobs...)
	needSpawn := !q.started && q.running
	if needSpawn {
		q.started = true
	}
	q.cond.Signal()
	q.mu.Unlock()

	if needSpawn {
		d.wg.Add(1)
		go d.runWorker(dpid, q)
	}
}

func (d *Dispatcher) runWorker(dpid uint64, q *dpidQueue) {
	defer d.wg.Done()
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && q.running {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 && !q.running {
			q.mu.Unlock()
			return
		}

		n := len(q.jobs)
		if n > d.burstSize {
			n = d.burstSize
		}
		burst := make([]FlowJob, n)
		copy(burst, q.jobs[:n])
		q.jobs = q.jobs[n:]
		stillRunning := q.running
		q.mu.Unlock()

		errs := d.send(dpid, burst)
		for i, err := range errs {
			if err != nil && i < len(burst) {
				d.logger.Error("flow job failed, continuing burst", "dpid", dpid, "corr_id", burst[i].CorrID, "err", err)
			}
		}
		if d.fencePerBurst && d.fence != nil {
			d.fence(dpid)
		}

		if !stillRunning {
			q.mu.Lock()
			done := len(q.jobs) == 0
			q.mu.Unlock()
			if done {
				return
			}
		}
	}
}

// Stop cooperatively stops every per-dpid worker: running is cleared and
// the condition variable is broadcast, letting each worker drain its
// remaining queue before exiting. Stop blocks until every worker has
// exited.
func (d *Dispatcher) Stop() {
	d.queuesMu.Lock()
	queues := make([]*dpidQueue, 0, len(d.queues))
	for _, q := range d.queues {
		queues = append(queues, q)
	}
	d.queuesMu.Unlock()

	for _, q := range queues {
		q.mu.Lock()
		q.running = false
		q.cond.Broadcast()
		q.mu.Unlock()
	}

	d.wg.Wait()
}

// Dpids returns every dpid with a queue, active or drained, for metrics
// export.
func (d *Dispatcher) Dpids() []uint64 {
	d.queuesMu.Lock()
	defer d.queuesMu.Unlock()
	dpids := make([]uint64, 0, len(d.queues))
	for dpid := range d.queues {
		dpids = append(dpids, dpid)
	}
	return dpids
}

// QueueDepth returns the number of unsent jobs queued for dpid, for
// metrics export.
func (d *Dispatcher) QueueDepth(dpid uint64) int {
	d.queuesMu.Lock()
	q, ok := d.queues[dpid]
	d.queuesMu.Unlock()
	if !ok {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
