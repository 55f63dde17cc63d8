package pool

// EventKind identifies a pool lifecycle occurrence an Observer may care
// about. Purely diagnostic — nothing in the pool's own logic depends on
// whether an Observer is attached or what it does with an event.
type EventKind int

const (
	EventResourceCreated EventKind = iota
	EventResourceBroken
	EventCheckout
	EventReturn
	EventReplacementScheduled
	EventConnectFailed
	EventValidateFailed
)

func (k EventKind) String() string {
	switch k {
	case EventResourceCreated:
		return "resource_created"
	case EventResourceBroken:
		return "resource_broken"
	case EventCheckout:
		return "checkout"
	case EventReturn:
		return "return"
	case EventReplacementScheduled:
		return "replacement_scheduled"
	case EventConnectFailed:
		return "connect_failed"
	case EventValidateFailed:
		return "validate_failed"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle occurrence, with the pool's live-count
// snapshot taken at the moment it was emitted.
type Event struct {
	Kind      EventKind
	LiveCount uint32
}

// Observer receives best-effort notifications of pool lifecycle events.
// Observe is always called with the pool's internals lock released, but it
// runs synchronously on whichever goroutine produced the event (a scheduler
// worker for ResourceCreated/ConnectFailed, the goroutine that called New,
// Get or Borrowed.Close for the rest), so
// it must not block and must not call back into the Pool it was
// registered with.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a plain function to Observer, for callers that want
// to attach a one-off callback (e.g. a debug log line) without declaring a
// named type.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// MultiObserver fans a single Observe call out to several Observers, for
// callers that need both e.g. a metrics counter and a dashboard broadcaster
// attached to the same pool.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver combines multiple observers into one.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	return &MultiObserver{observers: observers}
}

func (m *MultiObserver) Observe(e Event) {
	for _, o := range m.observers {
		o.Observe(e)
	}
}
