// Package workplace keeps the base's workstations staffed.
package workplace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/tasks"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound  = errors.New("workplace not found")
	ErrDuplicate = errors.New("workplace already registered")
)

// Scheduler is the part of the task scheduler the coordinator uses.
type Scheduler interface {
	Register(t tasks.Task)
	Executors(t tasks.Task) ([]tasks.Executor, bool)
}

// Config defines the workplace coordinator configuration.
type Config struct {
	// Priority of staffing tasks.
	Priority models.Priority `yaml:"priority"`
	// FatiguePoints is the stamina a worker needs to take a shift.
	FatiguePoints float64 `yaml:"fatigue_points"`
	// IssueInterval is the pause between staffing task issues.
	IssueInterval time.Duration `yaml:"issue_interval"`
	// RelayInterval is the pause between executor relays.
	RelayInterval time.Duration `yaml:"relay_interval"`
}

// DefaultConfig returns the default workplace configuration.
func DefaultConfig() *Config {
	return &Config{
		Priority:      models.PriorityLow,
		FatiguePoints: 10,
		IssueInterval: 1500 * time.Millisecond,
		RelayInterval: 700 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.IssueInterval <= 0 || c.RelayInterval <= 0 {
		return fmt.Errorf("issue_interval and relay_interval must be positive")
	}
	if c.FatiguePoints < 0 {
		return fmt.Errorf("fatigue_points must not be negative")
	}
	return nil
}

// Workplace is a workstation that needs one worker.
type Workplace struct {
	id          string
	position    models.Vec3
	constructed bool
	sabotaged   bool
	worker      tasks.Executor
	idleSince   time.Time
}

// View is the JSON form of a workplace.
type View struct {
	ID               string        `json:"id"`
	Position         models.Vec3   `json:"position"`
	Constructed      bool          `json:"constructed"`
	Sabotaged        bool          `json:"sabotaged"`
	WorkerID         string        `json:"worker_id,omitempty"`
	TaskID           string        `json:"task_id,omitempty"`
	StopWorkingTimer time.Duration `json:"stop_working_timer"`
}

// staffed reports whether a fit worker is at the station.
func (w *Workplace) staffed() bool {
	return w.worker != nil && w.worker.Status().CanCompleteTask
}

// stopWorkingTimer is how long the station has gone without a fit worker.
func (w *Workplace) stopWorkingTimer(now time.Time) time.Duration {
	if w.staffed() {
		return 0
	}
	return now.Sub(w.idleSince)
}

type issued struct {
	task  *tasks.Workplace
	place *Workplace
}

// Coordinator issues staffing tasks and relays assigned workers to their stations.
type Coordinator struct {
	sched  Scheduler
	config *Config
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	places  []*Workplace
	byID    map[string]*Workplace
	issued  map[string]*issued
	byPlace map[string]*issued
}

// New creates a workplace coordinator.
func New(sched Scheduler, cfg *Config, logger *zap.Logger) *Coordinator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		sched:   sched,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
		byID:    make(map[string]*Workplace),
		issued:  make(map[string]*issued),
		byPlace: make(map[string]*issued),
	}
}

// Add informs the coordinator of a new workplace.
func (c *Coordinator) Add(id string, position models.Vec3, constructed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; ok {
		return ErrDuplicate
	}
	w := &Workplace{id: id, position: position, constructed: constructed, idleSince: c.now()}
	c.places = append(c.places, w)
	c.byID[id] = w
	return nil
}

// SetState updates the construction and sabotage flags.
func (c *Coordinator) SetState(id string, constructed, sabotaged bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.byID[id]
	if !ok {
		return ErrNotFound
	}
	w.constructed = constructed
	w.sabotaged = sabotaged
	return nil
}

// Demolish removes a workplace and cancels its outstanding task.
func (c *Coordinator) Demolish(id string) error {
	c.mu.Lock()
	w, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	delete(c.byID, id)
	for i, cur := range c.places {
		if cur == w {
			c.places = append(c.places[:i], c.places[i+1:]...)
			break
		}
	}
	is := c.byPlace[id]
	if is != nil {
		delete(c.byPlace, id)
		delete(c.issued, is.task.ID())
	}
	c.mu.Unlock()

	if is != nil {
		is.task.Cancel()
	}
	c.logger.Info("workplace demolished", zap.String("workplace_id", id))
	return nil
}

// IssueOnce registers a staffing task for the vacant workplace that has been
// idle longest. It reports whether a task was issued.
func (c *Coordinator) IssueOnce() (*tasks.Workplace, bool) {
	c.mu.Lock()
	now := c.now()
	var next *Workplace
	var longest time.Duration
	for _, w := range c.places {
		if _, taken := c.byPlace[w.id]; taken {
			continue
		}
		if w.staffed() || !w.constructed || w.sabotaged {
			continue
		}
		if idle := w.stopWorkingTimer(now); next == nil || idle > longest {
			next, longest = w, idle
		}
	}
	if next == nil {
		c.mu.Unlock()
		return nil, false
	}

	task := tasks.NewWorkplace(next.id, tasks.Spec{
		Priority:      c.config.Priority,
		MaxExecutors:  1,
		FatiguePoints: c.config.FatiguePoints,
		Target:        next.position,
	})
	is := &issued{task: task, place: next}
	c.issued[task.ID()] = is
	c.byPlace[next.id] = is
	c.mu.Unlock()

	task.OnDone(c.handleDone)
	c.sched.Register(task)

	c.logger.Info("staffing task issued",
		zap.String("workplace_id", next.id),
		zap.String("task_id", task.ID()),
		zap.Duration("stop_working_timer", longest))
	return task, true
}

// RelayOnce hands each issued task's assigned worker to its workplace and
// starts the task. It returns the number of workers relayed.
func (c *Coordinator) RelayOnce() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	relayed := 0
	for _, is := range c.issued {
		executors, ok := c.sched.Executors(is.task)
		if !ok || len(executors) == 0 || executors[0] == nil {
			continue
		}
		worker := executors[0]
		if is.place.worker != nil && is.place.worker.ID() == worker.ID() {
			continue
		}
		is.place.worker = worker
		is.task.Start()
		relayed++
		c.logger.Info("worker relayed to workplace",
			zap.String("workplace_id", is.place.id),
			zap.String("worker_id", worker.ID()),
			zap.String("task_id", is.task.ID()))
	}
	return relayed
}

// handleDone forgets a finished staffing task and frees its station.
func (c *Coordinator) handleDone(t tasks.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	is, ok := c.issued[t.ID()]
	if !ok {
		return
	}
	delete(c.issued, t.ID())
	if c.byPlace[is.place.id] == is {
		delete(c.byPlace, is.place.id)
	}
	if is.place.worker != nil {
		is.place.worker = nil
		is.place.idleSince = c.now()
	}
}

// List returns all workplaces in registration order.
func (c *Coordinator) List() []View {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	out := make([]View, 0, len(c.places))
	for _, w := range c.places {
		v := View{
			ID:               w.id,
			Position:         w.position,
			Constructed:      w.constructed,
			Sabotaged:        w.sabotaged,
			StopWorkingTimer: w.stopWorkingTimer(now),
		}
		if w.worker != nil {
			v.WorkerID = w.worker.ID()
		}
		if is, ok := c.byPlace[w.id]; ok {
			v.TaskID = is.task.ID()
		}
		out = append(out, v)
	}
	return out
}

// Run issues and relays on their own cadences until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return every(ctx, c.config.IssueInterval, func() { c.IssueOnce() })
	})
	g.Go(func() error {
		return every(ctx, c.config.RelayInterval, func() { c.RelayOnce() })
	})
	return g.Wait()
}

func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}
