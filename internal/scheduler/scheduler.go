package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/tasks"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAlreadyStarted = errors.New("scheduler already started")
	ErrStopped        = errors.New("scheduler stopped")
)

// Pool enumerates the workers the scheduler may draw on.
type Pool interface {
	Executors() []tasks.Executor
}

// Recorder journals scheduling decisions.
type Recorder interface {
	Record(action string, inputs map[string]interface{}, outcome, taskID, details string) (string, error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder journals every assignment, replacement, preemption and completion.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

type lifecycle int

const (
	stateCreated lifecycle = iota
	stateRunning
	stateStopped
)

func (l lifecycle) String() string {
	switch l {
	case stateRunning:
		return "running"
	case stateStopped:
		return "stopped"
	default:
		return "created"
	}
}

// entry is the scheduler's record of a registered task. slots is nil while
// the task is pending.
type entry struct {
	task        tasks.Task
	slots       []tasks.Executor
	active      bool
	unsubscribe func()
}

func (e *entry) filled() int {
	n := 0
	for _, w := range e.slots {
		if w != nil {
			n++
		}
	}
	return n
}

// Scheduler owns the pending list and the active-task executor table.
type Scheduler struct {
	pool     Pool
	config   *Config
	logger   *zap.Logger
	recorder Recorder

	// mu is held for every pass step and every collection access.
	mu        sync.Mutex
	pending   []*entry
	active    []*entry
	byID      map[string]*entry
	assigned  int
	replaced  int
	preempted int

	lifeMu sync.Mutex
	state  lifecycle
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates a scheduler drawing workers from pool.
func New(pool Pool, cfg *Config, opts ...Option) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Scheduler{
		pool:   pool,
		config: cfg,
		logger: zap.NewNop(),
		byID:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register queues a pending task for the next assignment pass. Registering a
// task twice, or a task that is no longer pending, is a no-op.
func (s *Scheduler) Register(t tasks.Task) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[t.ID()]; exists {
		return
	}
	if t.State() != models.TaskStatePending {
		return
	}
	unsubscribe, ok := t.OnDone(s.handleDone)
	if !ok {
		return
	}
	e := &entry{task: t, unsubscribe: unsubscribe}
	s.pending = append(s.pending, e)
	s.byID[t.ID()] = e

	s.logger.Debug("task registered",
		zap.String("task_id", t.ID()),
		zap.String("kind", string(t.Kind())),
		zap.Stringer("priority", t.Priority()),
		zap.Int("max_executors", t.MaxExecutors()))
}

// Executors returns a copy of the task's slot array. ok is false when the task
// is not active.
func (s *Scheduler) Executors(t tasks.Task) ([]tasks.Executor, bool) {
	if t == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[t.ID()]
	if !ok || !e.active {
		return nil, false
	}
	out := make([]tasks.Executor, len(e.slots))
	copy(out, e.slots)
	return out, true
}

// Lookup finds a tracked task by id.
func (s *Scheduler) Lookup(id string) (tasks.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return e.task, true
}

// handleDone runs when a registered task completes or is cancelled.
func (s *Scheduler) handleDone(t tasks.Task) {
	s.mu.Lock()
	e := s.removeLocked(t.ID())
	s.mu.Unlock()

	if e == nil {
		return
	}
	e.unsubscribe()
	s.logger.Info("task finished",
		zap.String("task_id", t.ID()),
		zap.String("state", string(t.State())))
	s.record(decision{
		action:  "task.done",
		inputs:  map[string]interface{}{"task_id": t.ID(), "was_active": e.active},
		outcome: string(t.State()),
		taskID:  t.ID(),
	})
}

// removeLocked drops a task from whichever collection holds it and releases
// every executor's back-reference. Unknown ids return nil.
func (s *Scheduler) removeLocked(id string) *entry {
	e, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byID, id)

	if !e.active {
		s.pending = without(s.pending, e)
		return e
	}
	s.active = without(s.active, e)
	engager, _ := e.task.(tasks.Engager)
	for i, w := range e.slots {
		if w == nil {
			continue
		}
		w.ReleaseTask(e.task)
		if engager != nil {
			engager.Disengage(w.ID())
		}
		e.slots[i] = nil
	}
	return e
}

func without(list []*entry, e *entry) []*entry {
	for i, cur := range list {
		if cur == e {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Start launches the assignment and replacement loops.
func (s *Scheduler) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	switch s.state {
	case stateRunning:
		return ErrAlreadyStarted
	case stateStopped:
		return ErrStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop(gctx, s.config.AssignInterval, s.AssignPass)
	})
	g.Go(func() error {
		return s.loop(gctx, s.config.ReplaceInterval, s.ReplacePass)
	})

	s.cancel = cancel
	s.group = g
	s.state = stateRunning
	s.logger.Info("scheduler started",
		zap.Stringer("absolute_priority", s.config.AbsolutePriority),
		zap.Duration("assign_interval", s.config.AssignInterval),
		zap.Duration("replace_interval", s.config.ReplaceInterval))
	return nil
}

// Shutdown stops both loops and waits for them. Tasks are left as they are.
func (s *Scheduler) Shutdown() {
	s.lifeMu.Lock()
	if s.state == stateStopped {
		s.lifeMu.Unlock()
		return
	}
	wasRunning := s.state == stateRunning
	s.state = stateStopped
	cancel, g := s.cancel, s.group
	s.lifeMu.Unlock()

	if wasRunning {
		cancel()
		_ = g.Wait()
	}
	s.logger.Info("scheduler stopped")
}

// loop runs pass every interval. While pass reports no progress the wait
// grows exponentially up to MaxIdleInterval.
func (s *Scheduler) loop(ctx context.Context, interval time.Duration, pass func(context.Context) bool) error {
	idle := backoff.NewExponentialBackOff()
	idle.InitialInterval = interval
	idle.MaxInterval = s.config.MaxIdleInterval
	idle.MaxElapsedTime = 0
	idle.RandomizationFactor = 0
	idle.Reset()

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		wait := interval
		if pass(ctx) {
			idle.Reset()
		} else {
			wait = idle.NextBackOff()
		}
		timer.Reset(wait)
	}
}

// Stats is a point-in-time view of the scheduler.
type Stats struct {
	State            string          `json:"state"`
	AbsolutePriority models.Priority `json:"absolute_priority"`
	Pending          int             `json:"pending"`
	Active           int             `json:"active"`
	Assigned         int             `json:"assigned"`
	Replaced         int             `json:"replaced"`
	Preempted        int             `json:"preempted"`
}

// TaskView describes a tracked task and its slots. Vacant slots are empty strings.
type TaskView struct {
	ID            string           `json:"id"`
	Kind          tasks.Kind       `json:"kind"`
	Priority      models.Priority  `json:"priority"`
	State         models.TaskState `json:"state"`
	MaxExecutors  int              `json:"max_executors"`
	FatiguePoints float64          `json:"fatigue_points"`
	Target        models.Vec3      `json:"target"`
	Executors     []string         `json:"executors,omitempty"`
	Engaged       []string         `json:"engaged,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Stats returns counters and collection sizes.
func (s *Scheduler) Stats() Stats {
	s.lifeMu.Lock()
	state := s.state
	s.lifeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		State:            state.String(),
		AbsolutePriority: s.config.AbsolutePriority,
		Pending:          len(s.pending),
		Active:           len(s.active),
		Assigned:         s.assigned,
		Replaced:         s.replaced,
		Preempted:        s.preempted,
	}
}

// Tasks lists pending tasks in insertion order followed by active tasks in
// activation order.
func (s *Scheduler) Tasks() []TaskView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskView, 0, len(s.pending)+len(s.active))
	for _, e := range s.pending {
		out = append(out, view(e))
	}
	for _, e := range s.active {
		out = append(out, view(e))
	}
	return out
}

// Task describes one tracked task.
func (s *Scheduler) Task(id string) (TaskView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return TaskView{}, false
	}
	return view(e), true
}

func view(e *entry) TaskView {
	t := e.task
	v := TaskView{
		ID:            t.ID(),
		Kind:          t.Kind(),
		Priority:      t.Priority(),
		State:         t.State(),
		MaxExecutors:  t.MaxExecutors(),
		FatiguePoints: t.FatiguePoints(),
		Target:        t.Target(),
		CreatedAt:     t.CreatedAt(),
	}
	if e.active {
		v.Executors = make([]string, len(e.slots))
		for i, w := range e.slots {
			if w != nil {
				v.Executors[i] = w.ID()
			}
		}
	}
	if engager, ok := t.(tasks.Engager); ok {
		v.Engaged = engager.Engaged()
	}
	return v
}

type decision struct {
	action  string
	inputs  map[string]interface{}
	outcome string
	taskID  string
	details string
}

// record writes decisions outside the scheduler lock. Journal failures are
// logged and otherwise ignored.
func (s *Scheduler) record(ds ...decision) {
	if s.recorder == nil {
		return
	}
	for _, d := range ds {
		if _, err := s.recorder.Record(d.action, d.inputs, d.outcome, d.taskID, d.details); err != nil {
			s.logger.Warn("failed to record decision", zap.String("action", d.action), zap.Error(err))
		}
	}
}
