// Package tasks defines the units of work handed out by the scheduler.
package tasks

import (
	"sort"
	"sync"
	"time"

	"github.com/fentz26/burrow/internal/models"
	"github.com/google/uuid"
)

// Kind tags the concrete task variant.
type Kind string

const (
	KindGeneric     Kind = "generic"
	KindElimination Kind = "elimination"
	KindWorkplace   Kind = "workplace"
)

// Task is a unit of assignable work.
type Task interface {
	ID() string
	Kind() Kind
	Priority() models.Priority
	MaxExecutors() int
	FatiguePoints() float64
	Target() models.Vec3
	State() models.TaskState
	CreatedAt() time.Time

	// Activate moves a pending task to active. It reports false for any other state.
	Activate() bool
	// Complete and Cancel move the task to a terminal state exactly once.
	Complete() bool
	Cancel() bool
	// OnDone registers fn to run once when the task reaches a terminal state.
	// ok is false when the task is already terminal; fn is then never called.
	OnDone(fn func(Task)) (unsubscribe func(), ok bool)
}

// Spec holds the producer-supplied requirements of a task.
type Spec struct {
	Priority      models.Priority
	MaxExecutors  int
	FatiguePoints float64
	Target        models.Vec3
}

// Same reports whether a and b refer to the same task.
func Same(a, b Task) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ID() == b.ID()
}

// Base implements the lifecycle shared by every task kind.
type Base struct {
	id        string
	kind      Kind
	spec      Spec
	createdAt time.Time
	self      Task

	mu           sync.Mutex
	state        models.TaskState
	listeners    map[int]func(Task)
	nextListener int
}

// New creates a generic task.
func New(spec Spec) *Base {
	b := newBase(KindGeneric, spec)
	b.self = b
	return b
}

func newBase(kind Kind, spec Spec) *Base {
	if spec.MaxExecutors < 1 {
		spec.MaxExecutors = 1
	}
	return &Base{
		id:        uuid.New().String(),
		kind:      kind,
		spec:      spec,
		createdAt: time.Now().UTC(),
		state:     models.TaskStatePending,
		listeners: make(map[int]func(Task)),
	}
}

func (b *Base) ID() string                { return b.id }
func (b *Base) Kind() Kind                { return b.kind }
func (b *Base) Priority() models.Priority { return b.spec.Priority }
func (b *Base) MaxExecutors() int         { return b.spec.MaxExecutors }
func (b *Base) FatiguePoints() float64    { return b.spec.FatiguePoints }
func (b *Base) Target() models.Vec3       { return b.spec.Target }
func (b *Base) CreatedAt() time.Time      { return b.createdAt }

// State returns the current lifecycle state.
func (b *Base) State() models.TaskState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Activate moves a pending task to active.
func (b *Base) Activate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != models.TaskStatePending {
		return false
	}
	b.state = models.TaskStateActive
	return true
}

// Complete marks the task completed and notifies listeners.
func (b *Base) Complete() bool {
	return b.finish(models.TaskStateCompleted)
}

// Cancel marks the task cancelled and notifies listeners.
func (b *Base) Cancel() bool {
	return b.finish(models.TaskStateCancelled)
}

// OnDone registers a one-shot terminal listener.
func (b *Base) OnDone(fn func(Task)) (func(), bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.Terminal() {
		return func() {}, false
	}
	key := b.nextListener
	b.nextListener++
	b.listeners[key] = fn
	return func() {
		b.mu.Lock()
		delete(b.listeners, key)
		b.mu.Unlock()
	}, true
}

// finish performs the terminal transition. Listeners run after the task lock is
// released, in registration order.
func (b *Base) finish(to models.TaskState) bool {
	b.mu.Lock()
	if b.state.Terminal() {
		b.mu.Unlock()
		return false
	}
	b.state = to
	keys := make([]int, 0, len(b.listeners))
	for k := range b.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fns := make([]func(Task), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, b.listeners[k])
	}
	b.listeners = make(map[int]func(Task))
	b.mu.Unlock()

	for _, fn := range fns {
		fn(b.self)
	}
	return true
}
