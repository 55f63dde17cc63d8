package pool

import "context"

// Manager provides the database-specific (or otherwise resource-specific)
// functionality the pool needs but does not itself know how to do:
// constructing resources, health-checking them, and cheaply detecting
// breakage. Implementations must be safe for concurrent use — the pool
// calls Connect and Validate from scheduler-owned goroutines and the
// caller's own goroutine concurrently.
type Manager[C any] interface {
	// Connect constructs a new resource. May be slow, may fail. Called
	// from a background scheduler job, never while any pool lock is held.
	Connect(ctx context.Context) (C, error)

	// Validate checks that a resource is still usable. May be slow, may
	// fail. Only called when the pool is configured with
	// Config.TestOnCheckOut, and never while the pool's internals lock is
	// held.
	Validate(ctx context.Context, conn C) error

	// HasBroken quickly and non-blockingly determines whether a resource
	// is no longer usable. Called on every return of a resource to the
	// pool. Implementations that cannot support a fast check should
	// simply return false.
	HasBroken(conn C) bool
}
