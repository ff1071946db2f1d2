// Package security raises elimination tasks against reported hostiles and
// reviews pass applications at the base entrances.
package security

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/tasks"
	"go.uber.org/zap"
)

var (
	ErrUnknownEnemy    = errors.New("enemy not reported")
	ErrUnknownEntrance = errors.New("entrance not found")
)

// Registrar accepts new tasks.
type Registrar interface {
	Register(t tasks.Task)
}

// Config defines the security coordinator configuration.
type Config struct {
	// EliminationPriority is the priority of tasks raised against hostiles.
	EliminationPriority models.Priority `yaml:"elimination_priority"`
	// EliminationCapacity is the number of fighters per hostile.
	EliminationCapacity int `yaml:"elimination_capacity"`
	// PassInterval is the pause between pass application reviews.
	PassInterval time.Duration `yaml:"pass_interval"`
	// DoorPollInterval is how often an opening entrance is checked.
	DoorPollInterval time.Duration `yaml:"door_poll_interval"`
}

// DefaultConfig returns the default security configuration.
func DefaultConfig() *Config {
	return &Config{
		EliminationPriority: models.PriorityHigh,
		EliminationCapacity: 5,
		PassInterval:        100 * time.Millisecond,
		DoorPollInterval:    50 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.EliminationCapacity < 1 {
		return fmt.Errorf("elimination_capacity must be at least 1")
	}
	if c.PassInterval <= 0 || c.DoorPollInterval <= 0 {
		return fmt.Errorf("pass_interval and door_poll_interval must be positive")
	}
	return nil
}

// Enemy is a reported hostile agent.
type Enemy struct {
	id string

	mu       sync.RWMutex
	position models.Vec3
}

func (e *Enemy) ID() string { return e.id }

// Position returns the last reported position.
func (e *Enemy) Position() models.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

func (e *Enemy) move(p models.Vec3) {
	e.mu.Lock()
	e.position = p
	e.mu.Unlock()
}

// EnemyView is the JSON form of a reported enemy.
type EnemyView struct {
	ID       string      `json:"id"`
	Position models.Vec3 `json:"position"`
	TaskID   string      `json:"task_id"`
	Engaged  []string    `json:"engaged"`
}

type report struct {
	enemy *Enemy
	task  *tasks.Elimination
}

// Coordinator is the base's security desk.
type Coordinator struct {
	registrar Registrar
	config    *Config
	logger    *zap.Logger

	mu      sync.Mutex
	reports map[string]*report

	passes *passDesk
}

// New creates a coordinator registering its tasks with registrar.
func New(registrar Registrar, cfg *Config, logger *zap.Logger) *Coordinator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		registrar: registrar,
		config:    cfg,
		logger:    logger,
		reports:   make(map[string]*report),
		passes:    newPassDesk(),
	}
}

// ReportEnemy raises an elimination task against a newly spotted hostile.
// A hostile that already has a live task only has its position updated;
// created reports whether a new task was raised.
func (c *Coordinator) ReportEnemy(id string, position models.Vec3) (task *tasks.Elimination, created bool) {
	c.mu.Lock()
	if r, ok := c.reports[id]; ok {
		c.mu.Unlock()
		r.enemy.move(position)
		return r.task, false
	}

	enemy := &Enemy{id: id, position: position}
	task = tasks.NewElimination(enemy, c.config.EliminationPriority, c.config.EliminationCapacity)
	c.reports[id] = &report{enemy: enemy, task: task}
	c.mu.Unlock()

	task.OnDone(func(tasks.Task) { c.forget(id, task) })
	c.registrar.Register(task)

	c.logger.Info("enemy reported",
		zap.String("enemy_id", id),
		zap.String("task_id", task.ID()),
		zap.Stringer("priority", task.Priority()))
	return task, true
}

// MoveEnemy updates a reported hostile's position.
func (c *Coordinator) MoveEnemy(id string, position models.Vec3) error {
	c.mu.Lock()
	r, ok := c.reports[id]
	c.mu.Unlock()
	if !ok {
		return ErrUnknownEnemy
	}
	r.enemy.move(position)
	return nil
}

// ReportKill records a hostile's death and completes its task.
func (c *Coordinator) ReportKill(id string) error {
	c.mu.Lock()
	r, ok := c.reports[id]
	if ok {
		delete(c.reports, id)
	}
	c.mu.Unlock()
	if !ok {
		return ErrUnknownEnemy
	}

	r.task.Complete()
	c.logger.Info("enemy killed", zap.String("enemy_id", id), zap.String("task_id", r.task.ID()))
	return nil
}

// forget drops a hostile whose task ended without a kill report, so a fresh
// report raises a new task.
func (c *Coordinator) forget(id string, task *tasks.Elimination) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.reports[id]; ok && r.task == task {
		delete(c.reports, id)
		c.logger.Info("elimination task ended before kill",
			zap.String("enemy_id", id),
			zap.String("state", string(task.State())))
	}
}

// Enemies lists reported hostiles sorted by id.
func (c *Coordinator) Enemies() []EnemyView {
	c.mu.Lock()
	out := make([]EnemyView, 0, len(c.reports))
	for id, r := range c.reports {
		out = append(out, EnemyView{
			ID:       id,
			Position: r.enemy.Position(),
			TaskID:   r.task.ID(),
			Engaged:  r.task.Engaged(),
		})
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
