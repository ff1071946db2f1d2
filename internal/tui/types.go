package tui

import "time"

// Vec3 is a position as reported by the API.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TaskItem is a tracked task as listed by the daemon.
type TaskItem struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Priority      string    `json:"priority"`
	State         string    `json:"state"`
	MaxExecutors  int       `json:"max_executors"`
	FatiguePoints float64   `json:"fatigue_points"`
	Target        Vec3      `json:"target"`
	Executors     []string  `json:"executors"`
	Engaged       []string  `json:"engaged"`
	CreatedAt     time.Time `json:"created_at"`
}

// Filled counts occupied executor slots.
func (t TaskItem) Filled() int {
	n := 0
	for _, id := range t.Executors {
		if id != "" {
			n++
		}
	}
	return n
}

// MinionItem is a minion as listed by the daemon.
type MinionItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Alive  bool   `json:"alive"`
	TaskID string `json:"task_id"`
	Status struct {
		Idle            bool    `json:"idle"`
		CanCompleteTask bool    `json:"can_complete_task"`
		Health          float64 `json:"health"`
		EscapeThreshold float64 `json:"escape_threshold"`
		Fleeing         bool    `json:"fleeing"`
		Stamina         float64 `json:"stamina"`
		Recreating      bool    `json:"recreating"`
		Position        Vec3    `json:"position"`
	} `json:"status"`
}

// EnemyItem is a reported hostile.
type EnemyItem struct {
	ID       string   `json:"id"`
	Position Vec3     `json:"position"`
	TaskID   string   `json:"task_id"`
	Engaged  []string `json:"engaged"`
}

// WorkplaceItem is a workstation.
type WorkplaceItem struct {
	ID               string        `json:"id"`
	Constructed      bool          `json:"constructed"`
	Sabotaged        bool          `json:"sabotaged"`
	WorkerID         string        `json:"worker_id"`
	TaskID           string        `json:"task_id"`
	StopWorkingTimer time.Duration `json:"stop_working_timer"`
}

// Stats mirrors the scheduler counters.
type Stats struct {
	State            string `json:"state"`
	AbsolutePriority string `json:"absolute_priority"`
	Pending          int    `json:"pending"`
	Active           int    `json:"active"`
	Assigned         int    `json:"assigned"`
	Replaced         int    `json:"replaced"`
	Preempted        int    `json:"preempted"`
}

// Snapshot is everything one refresh fetches.
type Snapshot struct {
	Stats      Stats
	Tasks      []TaskItem
	Minions    []MinionItem
	Enemies    []EnemyItem
	Workplaces []WorkplaceItem
}
