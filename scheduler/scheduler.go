// Package scheduler implements a fixed-size worker group that executes
// one-shot and fixed-rate jobs ordered by earliest-scheduled-time — the
// "Scheduled Worker Pool" (SWP) that backs the connection pool's
// asynchronous resource creation and maintenance.
package scheduler

import (
	"container/heap"
	"fmt"
	"sync"
	"time"
)

// ScheduledWorkerPool is a fixed-size group of goroutines draining a
// min-heap of deadline-ordered jobs. It never spawns a goroutine per job;
// workers are created once at construction and live until Close has
// drained the pending queue (or the program exits).
type ScheduledWorkerPool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    jobHeap
	shutdown bool
	wg       sync.WaitGroup
}

// New creates a ScheduledWorkerPool with n worker goroutines.
//
// Panics if n == 0, mirroring the fixed-size contract: a pool with no
// workers can never make progress and is a caller error, not a runtime
// condition to recover from.
func New(n int) *ScheduledWorkerPool {
	if n <= 0 {
		panic("scheduler: size must be positive")
	}

	p := &ScheduledWorkerPool{}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < n; i++ {
		p.spawnWorker()
	}

	return p
}

func (p *ScheduledWorkerPool) spawnWorker() {
	p.wg.Add(1)
	go p.runWorker()
}

// Run schedules f to execute as soon as a worker is free.
func (p *ScheduledWorkerPool) Run(f func()) {
	p.RunAfter(0, f)
}

// RunAfter schedules f to execute no earlier than now+delay.
func (p *ScheduledWorkerPool) RunAfter(delay time.Duration, f func()) {
	p.push(&job{
		kind:     kindOnce,
		fn:       f,
		deadline: time.Now().Add(delay).UnixNano(),
	})
}

// RunAtFixedRate schedules f to run at now+period, and after each
// execution reschedules it at prevDeadline+period — rate-based, not
// delay-based, so a slow execution does not push later executions back by
// the same amount it overran.
func (p *ScheduledWorkerPool) RunAtFixedRate(period time.Duration, f func()) {
	p.push(&job{
		kind:     kindFixedRate,
		fn:       f,
		period:   period,
		deadline: time.Now().Add(period).UnixNano(),
	})
}

// ShutdownNow discards every pending job; jobs already running finish.
// Unlike the process-exit path, it does not wait for in-flight jobs.
func (p *ScheduledWorkerPool) ShutdownNow() {
	p.mu.Lock()
	p.queue = nil
	p.mu.Unlock()
}

// Close marks the pool shut down, wakes every worker, and waits for them to
// exit. Workers drain the remaining queue to completion before exiting,
// waiting for each job's deadline as usual. Fixed-rate jobs are not
// rescheduled once shutdown is observed, so a fixed-rate job runs its one
// already-queued iteration (whether or not its deadline had passed when
// Close was called) and never again.
func (p *ScheduledWorkerPool) Close() {
	p.mu.Lock()
	p.shutdown = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

// push adds a job to the heap and wakes workers only if the new deadline
// is earlier than the current top — avoids spurious wakeups when a
// later job is added while workers are already correctly asleep.
func (p *ScheduledWorkerPool) push(j *job) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return
	}

	wake := len(p.queue) == 0 || j.deadline < p.queue[0].deadline
	heap.Push(&p.queue, j)
	if wake {
		p.cond.Broadcast()
	}
}

// runWorker is the body of one worker goroutine. If a job panics the
// worker dies — a fresh replacement is spawned during its unwinding so the
// worker count stays constant, mirroring a panicking OS thread being
// replaced rather than quietly absorbing the panic and soldiering on with
// whatever state the job left behind.
func (p *ScheduledWorkerPool) runWorker() {
	defer func() {
		if r := recover(); r != nil {
			p.spawnWorker()
		}
		p.wg.Done()
	}()

	for {
		j, ok := p.nextJob()
		if !ok {
			return
		}
		p.runJob(j)
	}
}

// nextJob blocks until a job's deadline has arrived or the pool is
// shutting down with an empty queue.
func (p *ScheduledWorkerPool) nextJob() (*job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if len(p.queue) == 0 {
			if p.shutdown {
				return nil, false
			}
			p.cond.Wait()
			continue
		}

		wait := time.Until(time.Unix(0, p.queue[0].deadline))
		if wait <= 0 {
			return heap.Pop(&p.queue).(*job), true
		}

		p.waitTimeout(wait)
	}
}

// waitTimeout blocks on cond for at most d, must be called with p.mu held.
// sync.Cond has no native timed wait, so a one-shot timer broadcasts once
// d elapses; the caller's loop re-evaluates the queue on every wakeup,
// spurious or not.
func (p *ScheduledWorkerPool) waitTimeout(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	p.cond.Wait()
	timer.Stop()
}

// runJob executes a job outside the lock. A panic propagates to runWorker,
// which spawns a replacement before this goroutine exits.
func (p *ScheduledWorkerPool) runJob(j *job) {
	switch j.kind {
	case kindOnce:
		j.fn()
	case kindFixedRate:
		j.fn()
		p.rescheduleFixedRate(j)
	}
}

func (p *ScheduledWorkerPool) rescheduleFixedRate(j *job) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return
	}

	next := &job{
		kind:     kindFixedRate,
		fn:       j.fn,
		period:   j.period,
		deadline: j.deadline + j.period.Nanoseconds(),
	}
	wake := len(p.queue) == 0 || next.deadline < p.queue[0].deadline
	heap.Push(&p.queue, next)
	if wake {
		p.cond.Broadcast()
	}
}

// Depth returns the number of jobs currently waiting to run. Intended for
// diagnostics (e.g. the admin /metrics endpoint), not for control flow.
func (p *ScheduledWorkerPool) Depth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *ScheduledWorkerPool) String() string {
	return fmt.Sprintf("scheduler.ScheduledWorkerPool{depth=%d}", p.Depth())
}
