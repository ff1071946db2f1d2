package tasks

import "github.com/fentz26/burrow/internal/models"

// Executor is a worker that can hold a task slot.
//
// AssignTask and ReleaseTask are the only writes the scheduler performs on a
// worker. ReleaseTask clears the back-reference only if it still points to t.
type Executor interface {
	ID() string
	Status() models.WorkerStatus
	CurrentTask() Task
	AssignTask(t Task)
	ReleaseTask(t Task) bool
}
