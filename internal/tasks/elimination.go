package tasks

import (
	"sort"
	"sync"

	"github.com/fentz26/burrow/internal/models"
)

// Hostile is an agent an elimination task is raised against.
type Hostile interface {
	ID() string
	Position() models.Vec3
}

// Engager is implemented by tasks that fight a hostile. Workers in the engaged
// set are tracked apart from the executor slots.
type Engager interface {
	Task
	Hostile() Hostile
	Engage(workerID string)
	Disengage(workerID string)
	IsEngaged(workerID string) bool
	Engaged() []string
}

// Elimination is a combat engagement against a single hostile.
type Elimination struct {
	*Base
	hostile Hostile

	engagedMu sync.RWMutex
	engaged   map[string]struct{}
}

// NewElimination creates an elimination task targeting hostile.
func NewElimination(hostile Hostile, priority models.Priority, maxExecutors int) *Elimination {
	e := &Elimination{
		Base: newBase(KindElimination, Spec{
			Priority:     priority,
			MaxExecutors: maxExecutors,
			Target:       hostile.Position(),
		}),
		hostile: hostile,
		engaged: make(map[string]struct{}),
	}
	e.self = e
	return e
}

// Hostile returns the engaged target.
func (e *Elimination) Hostile() Hostile { return e.hostile }

// Target follows the hostile.
func (e *Elimination) Target() models.Vec3 { return e.hostile.Position() }

func (e *Elimination) Engage(workerID string) {
	e.engagedMu.Lock()
	e.engaged[workerID] = struct{}{}
	e.engagedMu.Unlock()
}

func (e *Elimination) Disengage(workerID string) {
	e.engagedMu.Lock()
	delete(e.engaged, workerID)
	e.engagedMu.Unlock()
}

func (e *Elimination) IsEngaged(workerID string) bool {
	e.engagedMu.RLock()
	defer e.engagedMu.RUnlock()
	_, ok := e.engaged[workerID]
	return ok
}

// Engaged returns the engaged worker ids in sorted order.
func (e *Elimination) Engaged() []string {
	e.engagedMu.RLock()
	ids := make([]string, 0, len(e.engaged))
	for id := range e.engaged {
		ids = append(ids, id)
	}
	e.engagedMu.RUnlock()
	sort.Strings(ids)
	return ids
}
