package pool

import (
	"sync"

	"github.com/kestrel-systems/respool/scheduler"
)

// poolInternals is the mutable state protected by sharedPool.mu: the FIFO
// of idle resources and the live-resource count. Invariant I1: liveCount
// equals len(ready) plus the number of outstanding Borrowed handles at
// every quiescent moment (no creation job mid-flight between "about to
// succeed" and "pushed"). Invariant I2: liveCount never exceeds
// cfg.PoolSize.
type poolInternals[C any] struct {
	ready     []C
	liveCount uint32
}

// popFront removes and returns the oldest ready resource, preserving FIFO
// return order.
func (pi *poolInternals[C]) popFront() (C, bool) {
	var zero C
	if len(pi.ready) == 0 {
		return zero, false
	}
	c := pi.ready[0]
	pi.ready[0] = zero
	pi.ready = pi.ready[1:]
	return c, true
}

func (pi *poolInternals[C]) pushBack(c C) {
	pi.ready = append(pi.ready, c)
}

// sharedPool is the immutable bundle — config, manager, error sink, and
// the mutex-guarded internals plus the waiter condition — co-owned by the
// public Pool handle and by every in-flight replacement job. A replacement
// job holds a strong reference to sharedPool via its closure, so resources
// it pushes after the public Pool is dropped are still valid: they are
// only destroyed when the last reference (the public handle or a pending
// job) goes away. Go's garbage collector gives this for free; there is no
// analogue of the original's manual Arc refcounting to write.
type sharedPool[C any] struct {
	cfg      Config
	manager  Manager[C]
	sink     ErrorSink
	observer Observer
	swp      *scheduler.ScheduledWorkerPool

	mu        sync.Mutex
	cond      *sync.Cond
	internals poolInternals[C]
}

func (sp *sharedPool[C]) emit(kind EventKind, liveCount uint32) {
	if sp.observer != nil {
		sp.observer.Observe(Event{Kind: kind, LiveCount: liveCount})
	}
}

// scheduleReplacement enqueues a background job that attempts to create
// exactly one new resource. It is the sole place liveCount is ever
// incremented back up after a decrement, and the sole producer of
// resources pushed onto the ready queue.
func (sp *sharedPool[C]) scheduleReplacement() {
	sp.emit(EventReplacementScheduled, sp.liveCountSnapshot())

	sp.swp.Run(func() {
		conn, err := sp.manager.Connect(connectContext())
		if err != nil {
			sp.sink.Report(err)
			sp.emit(EventConnectFailed, sp.liveCountSnapshot())
			return
		}

		sp.mu.Lock()
		sp.internals.pushBack(conn)
		sp.internals.liveCount++
		live := sp.internals.liveCount
		sp.cond.Signal()
		sp.mu.Unlock()

		sp.emit(EventResourceCreated, live)
	})
}

func (sp *sharedPool[C]) liveCountSnapshot() uint32 {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.internals.liveCount
}
