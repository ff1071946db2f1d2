package tasks

import (
	"sync"
	"time"
)

// Workplace staffs a single workstation.
type Workplace struct {
	*Base
	workplaceID string

	startMu   sync.Mutex
	startedAt *time.Time
}

// NewWorkplace creates a staffing task for a workplace. spec.Target should be
// the workplace position.
func NewWorkplace(workplaceID string, spec Spec) *Workplace {
	w := &Workplace{
		Base:        newBase(KindWorkplace, spec),
		workplaceID: workplaceID,
	}
	w.self = w
	return w
}

// WorkplaceID returns the staffed workplace.
func (w *Workplace) WorkplaceID() string { return w.workplaceID }

// Start records that the assigned worker took over the workstation.
func (w *Workplace) Start() bool {
	w.startMu.Lock()
	defer w.startMu.Unlock()
	if w.startedAt != nil || w.State().Terminal() {
		return false
	}
	now := time.Now().UTC()
	w.startedAt = &now
	return true
}

// StartedAt returns when Start was called, or nil.
func (w *Workplace) StartedAt() *time.Time {
	w.startMu.Lock()
	defer w.startMu.Unlock()
	return w.startedAt
}
