// Package pool implements a generic, bounded connection pool: a fixed
// number of expensive-to-create, stateful resources multiplexed across
// concurrent clients via a blocking checkout/return protocol, with
// asynchronous replacement of broken resources performed on a small
// scheduler instead of the caller's goroutine.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/kestrel-systems/respool/scheduler"
)

// Pool is a generic connection pool over resource type C.
type Pool[C any] struct {
	shared *sharedPool[C]
}

// Option configures optional Pool behavior not part of the core Config.
type Option[C any] func(*sharedPool[C])

// WithObserver attaches an Observer that receives best-effort lifecycle
// notifications. Intended for diagnostics (e.g. feeding an admin/metrics
// server); never required for correct pool operation.
func WithObserver[C any](o Observer) Option[C] {
	return func(sp *sharedPool[C]) { sp.observer = o }
}

// New validates cfg and constructs a Pool. It returns immediately: the
// configured number of resources are requested from manager in the
// background, so a Get call issued before any of them finish connecting
// will block until the first one is ready.
func New[C any](cfg Config, manager Manager[C], sink ErrorSink, opts ...Option[C]) (*Pool[C], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	sp := &sharedPool[C]{
		cfg:     cfg,
		manager: manager,
		sink:    sink,
		swp:     scheduler.New(int(cfg.HelperThreads)),
		internals: poolInternals[C]{
			ready: make([]C, 0, cfg.PoolSize),
		},
	}
	sp.cond = sync.NewCond(&sp.mu)

	for _, opt := range opts {
		opt(sp)
	}

	for i := uint32(0); i < cfg.PoolSize; i++ {
		sp.scheduleReplacement()
	}

	return &Pool[C]{shared: sp}, nil
}

// Get retrieves a resource from the pool, blocking until one is available.
// There is no timeout in the baseline protocol: a caller that never
// receives a resource waits forever. See GetTimeout for a bounded variant.
func (p *Pool[C]) Get() (*Borrowed[C], error) {
	return p.get(nil)
}

// GetTimeout is like Get but gives up after timeout elapses, returning
// ErrTimeout. It is an explicit extension beyond the baseline protocol
// (the original design has no per-call cancellation); implemented as a
// time.AfterFunc timer that closes a channel and wakes waiters once the
// deadline passes rather than a dedicated timed condition variable, since
// sync.Cond has no native timed-wait.
func (p *Pool[C]) GetTimeout(timeout time.Duration) (*Borrowed[C], error) {
	expired := make(chan struct{})
	timer := time.AfterFunc(timeout, func() {
		close(expired)
		p.shared.mu.Lock()
		p.shared.cond.Broadcast()
		p.shared.mu.Unlock()
	})
	defer timer.Stop()

	return p.get(expired)
}

// ErrTimeout is returned by GetTimeout when no resource became available
// before the deadline.
var ErrTimeout = &timeoutError{}

type timeoutError struct{}

func (*timeoutError) Error() string { return "pool: timed out waiting for a resource" }

func (p *Pool[C]) get(expired <-chan struct{}) (*Borrowed[C], error) {
	sp := p.shared

	sp.mu.Lock()
	for {
		conn, ok := sp.internals.popFront()
		if ok {
			sp.mu.Unlock()

			if sp.cfg.TestOnCheckOut {
				if err := sp.manager.Validate(connectContext(), conn); err != nil {
					sp.sink.Report(err)
					sp.emit(EventValidateFailed, sp.liveCountSnapshot())

					sp.mu.Lock()
					sp.internals.liveCount--
					sp.mu.Unlock()
					sp.scheduleReplacement()

					sp.mu.Lock()
					continue
				}
			}

			sp.emit(EventCheckout, sp.liveCountSnapshot())
			return &Borrowed[C]{pool: sp, conn: conn, hasConn: true}, nil
		}

		if expired != nil {
			select {
			case <-expired:
				sp.mu.Unlock()
				return nil, ErrTimeout
			default:
			}
		}

		sp.cond.Wait()

		if expired != nil {
			select {
			case <-expired:
				sp.mu.Unlock()
				return nil, ErrTimeout
			default:
			}
		}
	}
}

// putBack is invoked by a Borrowed handle's Close. HasBroken is checked
// before the lock is taken, matching the spec's contract that the check
// must be fast and non-blocking.
func (sp *sharedPool[C]) putBack(conn C) {
	broken := sp.manager.HasBroken(conn)

	sp.mu.Lock()
	if broken {
		sp.internals.liveCount--
		live := sp.internals.liveCount
		sp.mu.Unlock()

		sp.emit(EventResourceBroken, live)
		sp.scheduleReplacement()
		return
	}

	sp.internals.pushBack(conn)
	live := sp.internals.liveCount
	sp.cond.Signal()
	sp.mu.Unlock()

	sp.emit(EventReturn, live)
}

// Stats is a point-in-time snapshot of pool occupancy, intended for
// diagnostics and the admin/metrics surface.
type Stats struct {
	PoolSize       uint32
	LiveCount      uint32
	ReadyCount     uint32
	SchedulerDepth int
}

// Stats returns a snapshot of the pool's current occupancy.
func (p *Pool[C]) Stats() Stats {
	sp := p.shared
	sp.mu.Lock()
	defer sp.mu.Unlock()

	return Stats{
		PoolSize:       sp.cfg.PoolSize,
		LiveCount:      sp.internals.liveCount,
		ReadyCount:     uint32(len(sp.internals.ready)),
		SchedulerDepth: sp.swp.Depth(),
	}
}

// Close shuts down the pool's internal scheduler. Resources already
// checked out remain valid until their Borrowed handle is closed — the
// underlying sharedPool is kept alive by the Go runtime for as long as any
// Borrowed handle or in-flight replacement job still references it, so
// there is nothing to leak by closing early.
//
// Close blocks until the scheduler has run every pending and in-flight
// replacement job; each resource those jobs create is pushed onto the
// ready queue, where it will simply never be collected by a future Get
// once the public Pool handle itself has been discarded. A broken resource
// returned after Close is not replaced.
func (p *Pool[C]) Close() error {
	p.shared.swp.Close()
	return nil
}

func connectContext() context.Context {
	return context.Background()
}
