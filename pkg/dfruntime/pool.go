package dfruntime

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool is a fixed-size goroutine pool fed by an unbounded channel, directly
// analogous to the teacher's goroutine+semaphore fan-out in
// pkg/runtime/engine.go's parallel-branch execution and to
// original_source's threadpool.rs crossbeam-channel pool. Unlike a
// parallel.For-style barrier, jobs submitted mid-run (a coroutine spawning
// another) feed back into the same queue, so drain uses an outstanding
// counter rather than a fixed item count.
type Pool struct {
	jobs        chan func()
	outstanding atomic.Int64
	idle        chan struct{}
	idleOnce    sync.Once
}

// NewPool starts workers goroutines draining a buffered job channel; Spawn
// never blocks on a full buffer, so the queue as a whole is unbounded.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs: make(chan func(), 1024),
		idle: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for job := range p.jobs {
		job()
		if p.outstanding.Add(-1) == 0 {
			p.signalIdle()
		}
	}
}

func (p *Pool) signalIdle() {
	p.idleOnce.Do(func() { close(p.idle) })
}

// Spawn enqueues job, mirroring the ABI's spawn(self, block, context): the
// job runs on some worker goroutine, possibly itself calling Spawn again.
func (p *Pool) Spawn(job func()) {
	p.outstanding.Add(1)
	select {
	case p.jobs <- job:
	default:
		// Buffer full: hand the job off so the caller (often a worker
		// itself) never blocks waiting for queue space.
		go func() { p.jobs <- job }()
	}
}

// Drain blocks until every spawned job (including jobs spawned by other
// jobs) has completed, mirroring lunarc_run's poll-for-empty-queue join.
// Uses errgroup only to join the drain-watcher against ctx cancellation:
// the returned error is nil or ctx's error. A panicking job's error does
// not pass through here; Recover delivers it on a separate channel
// (Runtime.Run selects on both).
func (p *Pool) Drain(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-p.idle:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	return g.Wait()
}

// Recover wraps job so a DoubleAssign panic (or any other) is captured into
// errCh instead of terminating the pool's worker goroutine.
func (p *Pool) Recover(job func(), errCh chan<- error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				select {
				case errCh <- panicToError(r):
				default:
				}
			}
		}()
		job()
	}
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &poolPanicError{r}
}

type poolPanicError struct{ v any }

func (e *poolPanicError) Error() string {
	return "dfruntime: panic in pool job: " + toString(e.v)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "unknown panic"
}
