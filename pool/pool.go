// Package pool implements the thread-pool scaffolding of spec.md §4.7: a
// single global work slot, workers constructed from configuration, and the
// switch_work consume-counter handshake.
package pool

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nthash/cryptonight"
)

// pollInterval is the 100ms bounded-spin sleep spec.md §4.7/§5 specifies
// for both stalled workers and switch_work's wait for consumption.
const pollInterval = 100 * time.Millisecond

// WorkSlot is the single-writer/multi-reader global job snapshot of
// spec.md §3. Workers poll Generation to detect a new job; SwitchWork is
// the sole writer.
type WorkSlot struct {
	job        atomic.Pointer[cryptonight.Job]
	generation atomic.Uint64
	consumed   atomic.Uint64
}

// Job returns the currently published job, or nil if none has been
// published yet.
func (s *WorkSlot) Job() *cryptonight.Job {
	return s.job.Load()
}

// Generation returns the current generation counter with relaxed
// semantics: a stale read only delays pickup of a new job (spec.md §5).
func (s *WorkSlot) Generation() uint64 {
	return s.generation.Load()
}

// Acknowledge is called by a worker exactly once per job it observes,
// advancing the consume counter SwitchWork waits on.
func (s *WorkSlot) Acknowledge() {
	s.consumed.Add(1)
}

// Publish stores job and advances the generation counter, without the
// consume-counter handshake SwitchWork performs. Pool.Start and
// Pool.SwitchWork both use it; it is also the entry point for tests that
// drive a WorkSlot without a full Pool.
func (s *WorkSlot) Publish(job *cryptonight.Job) {
	s.job.Store(job)
	s.generation.Add(1)
}

// Worker is the subset of worker.Worker the pool needs to start and join;
// defined here (rather than importing package worker, which itself needs
// WorkSlot) to avoid an import cycle.
type Worker interface {
	Run(done <-chan struct{})
}

// Pool owns the global WorkSlot and the set of workers constructed from
// configuration.
type Pool struct {
	slot       WorkSlot
	workers    []Worker
	done       chan struct{}
	wg         sync.WaitGroup
	log        *zap.SugaredLogger
	numWorkers int
}

// New constructs a Pool. build is called once per entry in configs to
// construct a Worker bound to the Pool's WorkSlot; it is supplied by the
// caller (an application's wiring code, or a test) so package pool never needs to import package worker's
// configuration types directly.
func New(log *zap.SugaredLogger, numWorkers int, build func(slot *WorkSlot, index int) Worker) *Pool {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	p := &Pool{
		done:       make(chan struct{}),
		log:        log,
		numWorkers: numWorkers,
	}
	p.workers = make([]Worker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		p.workers[i] = build(&p.slot, i)
	}
	return p
}

// Start publishes the initial job and launches every worker's goroutine.
func (p *Pool) Start(initial *cryptonight.Job) {
	p.slot.Publish(initial)

	for _, w := range p.workers {
		w := w
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(p.done)
		}()
	}
}

// SwitchWork publishes newJob, first waiting (bounded spin, 100ms between
// checks) until every worker has acknowledged the previous job — the
// consume-counter handshake of spec.md §4.7, defensive against two jobs
// arriving faster than workers can poll.
func (p *Pool) SwitchWork(newJob *cryptonight.Job) {
	for p.slot.consumed.Load() < uint64(p.numWorkers) {
		time.Sleep(pollInterval)
	}

	p.slot.consumed.Store(0)
	p.slot.Publish(newJob)
	p.log.Infow("switched work", "job_id", string(newJob.ID), "generation", p.slot.Generation())
}

// Stop signals every worker to exit and waits for their goroutines to
// return.
func (p *Pool) Stop() {
	close(p.done)
	p.wg.Wait()
}
