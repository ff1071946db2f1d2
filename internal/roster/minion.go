// Package roster owns the colony's minions and their sleeping places.
package roster

import (
	"sync"
	"time"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/tasks"
	"github.com/google/uuid"
)

// Minion is a worker agent. Its status fields are written by the outside world;
// the scheduler only writes the current task back-reference.
type Minion struct {
	id        string
	name      string
	createdAt time.Time

	mu              sync.RWMutex
	canCompleteTask bool
	health          float64
	escapeThreshold float64
	stamina         float64
	fleeing         bool
	recreating      bool
	position        models.Vec3
	alive           bool
	task            tasks.Task
	bed             *Sleeping
}

// Sleeping is a minion's assigned bed and bunk level.
type Sleeping struct {
	BedID string `json:"bed_id"`
	Level int    `json:"level"`
}

// MinionSpec seeds a new minion.
type MinionSpec struct {
	Name            string
	Health          float64
	EscapeThreshold float64
	Stamina         float64
	Position        models.Vec3
}

// NewMinion creates a healthy, fit minion.
func NewMinion(spec MinionSpec) *Minion {
	return &Minion{
		id:              uuid.New().String(),
		name:            spec.Name,
		createdAt:       time.Now().UTC(),
		canCompleteTask: true,
		health:          spec.Health,
		escapeThreshold: spec.EscapeThreshold,
		stamina:         spec.Stamina,
		position:        spec.Position,
		alive:           true,
	}
}

func (m *Minion) ID() string   { return m.id }
func (m *Minion) Name() string { return m.name }

// Status returns a snapshot of the fields the scheduler reads. A minion is idle
// when it holds no task and is neither recreating nor fleeing.
func (m *Minion) Status() models.WorkerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.WorkerStatus{
		Idle:            m.task == nil && !m.recreating && !m.fleeing,
		CanCompleteTask: m.canCompleteTask,
		Health:          m.health,
		EscapeThreshold: m.escapeThreshold,
		Fleeing:         m.fleeing,
		Stamina:         m.stamina,
		Recreating:      m.recreating,
		Position:        m.position,
	}
}

// CurrentTask returns the task the minion is assigned to, or nil.
func (m *Minion) CurrentTask() tasks.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.task
}

// AssignTask sets the back-reference.
func (m *Minion) AssignTask(t tasks.Task) {
	m.mu.Lock()
	m.task = t
	m.mu.Unlock()
}

// ReleaseTask clears the back-reference if it still points to t.
func (m *Minion) ReleaseTask(t tasks.Task) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !tasks.Same(m.task, t) {
		return false
	}
	m.task = nil
	return true
}

// Alive reports whether the minion has not died.
func (m *Minion) Alive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.alive
}

// Sleeping returns the assigned bed, or nil.
func (m *Minion) Sleeping() *Sleeping {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.bed == nil {
		return nil
	}
	s := *m.bed
	return &s
}

func (m *Minion) setSleeping(s *Sleeping) {
	m.mu.Lock()
	m.bed = s
	m.mu.Unlock()
}

// StatusPatch carries a partial status update. Nil fields are left unchanged.
type StatusPatch struct {
	CanCompleteTask *bool        `json:"can_complete_task,omitempty"`
	Health          *float64     `json:"health,omitempty"`
	EscapeThreshold *float64     `json:"escape_threshold,omitempty"`
	Stamina         *float64     `json:"stamina,omitempty"`
	Fleeing         *bool        `json:"fleeing,omitempty"`
	Recreating      *bool        `json:"recreating,omitempty"`
	Position        *models.Vec3 `json:"position,omitempty"`
}

// Apply updates the minion's status fields.
func (m *Minion) Apply(p StatusPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CanCompleteTask != nil {
		m.canCompleteTask = *p.CanCompleteTask
	}
	if p.Health != nil {
		m.health = *p.Health
	}
	if p.EscapeThreshold != nil {
		m.escapeThreshold = *p.EscapeThreshold
	}
	if p.Stamina != nil {
		m.stamina = *p.Stamina
	}
	if p.Fleeing != nil {
		m.fleeing = *p.Fleeing
	}
	if p.Recreating != nil {
		m.recreating = *p.Recreating
	}
	if p.Position != nil {
		m.position = *p.Position
	}
}

// die marks the minion dead and unfit. The task back-reference is left for the
// scheduler's replacement pass to release.
func (m *Minion) die() {
	m.mu.Lock()
	m.alive = false
	m.canCompleteTask = false
	m.health = 0
	m.bed = nil
	m.mu.Unlock()
}

// MinionView is the JSON form of a minion.
type MinionView struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Alive     bool                `json:"alive"`
	Status    models.WorkerStatus `json:"status"`
	TaskID    string              `json:"task_id,omitempty"`
	Sleeping  *Sleeping           `json:"sleeping,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// View returns a serialisable snapshot.
func (m *Minion) View() MinionView {
	v := MinionView{
		ID:        m.id,
		Name:      m.name,
		Alive:     m.Alive(),
		Status:    m.Status(),
		Sleeping:  m.Sleeping(),
		CreatedAt: m.createdAt,
	}
	if t := m.CurrentTask(); t != nil {
		v.TaskID = t.ID()
	}
	return v
}
