// Package models defines the core domain types for burrow.
package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Priority orders tasks. Higher values win.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityLow:      "low",
	PriorityMedium:   "medium",
	PriorityHigh:     "high",
	PriorityCritical: "critical",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// ParsePriority resolves a priority by name ("low", "medium", ...).
func ParsePriority(s string) (Priority, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, n := range priorityNames {
		if n == name {
			return p, nil
		}
	}
	return PriorityLow, fmt.Errorf("unknown priority %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TaskState represents the lifecycle position of a task.
type TaskState string

const (
	TaskStatePending   TaskState = "pending"
	TaskStateActive    TaskState = "active"
	TaskStateCompleted TaskState = "completed"
	TaskStateCancelled TaskState = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateCancelled
}

// Vec3 is a point in base space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// WorkerStatus is a point-in-time view of the fields the scheduler reads.
type WorkerStatus struct {
	Idle            bool    `json:"idle"`
	CanCompleteTask bool    `json:"can_complete_task"`
	Health          float64 `json:"health"`
	EscapeThreshold float64 `json:"escape_threshold"`
	Fleeing         bool    `json:"fleeing"`
	Stamina         float64 `json:"stamina"`
	Recreating      bool    `json:"recreating"`
	Position        Vec3    `json:"position"`
}

// Decision is an audit record of a scheduling decision.
type Decision struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	TaskID     string    `json:"task_id,omitempty"`
	WorkerID   string    `json:"worker_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
