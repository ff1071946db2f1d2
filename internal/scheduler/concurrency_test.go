package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/roster"
	"github.com/fentz26/burrow/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentChurn runs both loops while tasks are registered, finished and
// preempted and worker status flips underneath them.
func TestConcurrentChurn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AssignInterval = time.Millisecond
	cfg.ReplaceInterval = time.Millisecond
	cfg.MaxIdleInterval = 4 * time.Millisecond

	pool := roster.New(nil)
	minions := make([]*roster.Minion, 8)
	for i := range minions {
		minions[i] = newMinion("m", float64(i))
		pool.Register(minions[i])
	}
	s := New(pool, cfg)
	require.NoError(t, s.Start(context.Background()))

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 60; i++ {
				var task tasks.Task
				switch rng.Intn(3) {
				case 0:
					task = lowTask(1 + rng.Intn(3))
				case 1:
					task = tasks.New(tasks.Spec{Priority: models.PriorityMedium, MaxExecutors: 2})
				default:
					task = tasks.NewElimination(&hostile{id: "h", pos: models.Vec3{X: float64(rng.Intn(8))}}, models.PriorityHigh, 3)
				}
				s.Register(task)
				time.Sleep(time.Duration(rng.Intn(3)) * time.Millisecond)
				if rng.Intn(2) == 0 {
					task.Complete()
				} else {
					task.Cancel()
				}
			}
		}(int64(p))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 200; i++ {
			m := minions[rng.Intn(len(minions))]
			fit := rng.Intn(4) != 0
			health := float64(rng.Intn(100))
			m.Apply(roster.StatusPatch{CanCompleteTask: &fit, Health: &health})
			time.Sleep(500 * time.Microsecond)
		}
	}()

	wg.Wait()
	s.Shutdown()

	assertConsistent(t, s, minions)
	stats := s.Stats()
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 0, stats.Active)
	for _, m := range minions {
		assert.Nil(t, m.CurrentTask())
	}
}

func TestPreemptedTaskCancelledOnce(t *testing.T) {
	a, b := newMinion("a", 0), newMinion("b", 1)
	s, _ := newTestScheduler(t, a, b)

	shared := tasks.New(tasks.Spec{Priority: models.PriorityMedium, MaxExecutors: 2})
	var mu sync.Mutex
	fired := 0
	shared.OnDone(func(tasks.Task) {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	s.Register(shared)
	require.True(t, s.AssignPass(ctx()))

	elim := tasks.NewElimination(&hostile{id: "orc"}, models.PriorityCritical, 2)
	s.Register(elim)
	require.True(t, s.AssignPass(ctx()))

	executors, _ := s.Executors(elim)
	assert.Equal(t, a.ID(), executors[0].ID())
	assert.Equal(t, b.ID(), executors[1].ID())
	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, s.Stats().Preempted)
	assertConsistent(t, s, []*roster.Minion{a, b})
}
