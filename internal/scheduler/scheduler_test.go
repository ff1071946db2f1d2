package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/roster"
	"github.com/fentz26/burrow/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hostile struct {
	id  string
	pos models.Vec3
}

func (h *hostile) ID() string            { return h.id }
func (h *hostile) Position() models.Vec3 { return h.pos }

type recorded struct {
	action string
	taskID string
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recorded
}

func (r *fakeRecorder) Record(action string, _ map[string]interface{}, _, taskID, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recorded{action: action, taskID: taskID})
	return "id", nil
}

func (r *fakeRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.action)
	}
	return out
}

func newMinion(name string, x float64) *roster.Minion {
	return roster.NewMinion(roster.MinionSpec{
		Name:            name,
		Health:          100,
		EscapeThreshold: 20,
		Stamina:         50,
		Position:        models.Vec3{X: x},
	})
}

func newTestScheduler(t *testing.T, minions ...*roster.Minion) (*Scheduler, *roster.Roster) {
	t.Helper()
	pool := roster.New(nil)
	pool.Register(minions...)
	return New(pool, DefaultConfig()), pool
}

func lowTask(capacity int) *tasks.Base {
	return tasks.New(tasks.Spec{Priority: models.PriorityLow, MaxExecutors: capacity, FatiguePoints: 10})
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
func ctx() context.Context        { return context.Background() }

// assertConsistent checks that every tracked task lives in exactly one
// collection and that slots and back-references agree in both directions.
func assertConsistent(t *testing.T, s *Scheduler, minions []*roster.Minion) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]int)
	for _, e := range s.pending {
		seen[e.task.ID()]++
		assert.False(t, e.active)
	}
	for _, e := range s.active {
		seen[e.task.ID()]++
		assert.True(t, e.active)
		assert.Len(t, e.slots, e.task.MaxExecutors())
		for _, w := range e.slots {
			if w != nil {
				assert.True(t, tasks.Same(w.CurrentTask(), e.task), "slot worker %s does not point back", w.ID())
			}
		}
	}
	assert.Len(t, seen, len(s.byID))
	for id, n := range seen {
		assert.Equal(t, 1, n, "task %s tracked %d times", id, n)
	}

	for _, m := range minions {
		cur := m.CurrentTask()
		if cur == nil {
			continue
		}
		e, ok := s.byID[cur.ID()]
		if !assert.True(t, ok, "minion %s points at untracked task", m.Name()) {
			continue
		}
		found := false
		for _, w := range e.slots {
			if w != nil && w.ID() == m.ID() {
				found = true
			}
		}
		assert.True(t, found, "minion %s not in its task's slots", m.Name())
	}
}

func TestAssignSingleIdleWorker(t *testing.T) {
	m := newMinion("grub", 0)
	s, _ := newTestScheduler(t, m)
	task := lowTask(1)
	s.Register(task)

	_, ok := s.Executors(task)
	assert.False(t, ok, "registration does not assign")

	require.True(t, s.AssignPass(ctx()))

	executors, ok := s.Executors(task)
	require.True(t, ok)
	require.Len(t, executors, 1)
	assert.Equal(t, m.ID(), executors[0].ID())
	assert.Equal(t, task.ID(), m.CurrentTask().ID())
	assert.Equal(t, models.TaskStateActive, task.State())
	assertConsistent(t, s, []*roster.Minion{m})
}

func TestAssignHighestPriorityFirst(t *testing.T) {
	m := newMinion("grub", 0)
	s, _ := newTestScheduler(t, m)
	low := lowTask(1)
	high := tasks.New(tasks.Spec{Priority: models.PriorityHigh, MaxExecutors: 1})
	s.Register(low)
	s.Register(high)

	require.True(t, s.AssignPass(ctx()))
	assert.Equal(t, high.ID(), m.CurrentTask().ID())
	assert.Equal(t, models.TaskStatePending, low.State())

	assert.False(t, s.AssignPass(ctx()), "busy minion is not eligible for low work")
	assert.Equal(t, 1, s.Stats().Pending)
	assertConsistent(t, s, []*roster.Minion{m})
}

func TestPendingTiesResolvedByInsertionOrder(t *testing.T) {
	m := newMinion("grub", 0)
	s, _ := newTestScheduler(t, m)
	first, second := lowTask(1), lowTask(1)
	s.Register(first)
	s.Register(second)

	require.True(t, s.AssignPass(ctx()))
	assert.Equal(t, first.ID(), m.CurrentTask().ID())
}

func TestUnfitWorkerReplaced(t *testing.T) {
	a, b := newMinion("a", 0), newMinion("b", 5)
	s, pool := newTestScheduler(t, a)
	task := lowTask(1)
	s.Register(task)
	require.True(t, s.AssignPass(ctx()))

	a.Apply(roster.StatusPatch{CanCompleteTask: boolPtr(false)})
	pool.Register(b)

	require.True(t, s.ReplacePass(ctx()))

	executors, ok := s.Executors(task)
	require.True(t, ok)
	require.Len(t, executors, 1)
	assert.Equal(t, b.ID(), executors[0].ID())
	assert.Nil(t, a.CurrentTask())
	assert.Equal(t, task.ID(), b.CurrentTask().ID())
	assert.Equal(t, 1, s.Stats().Replaced)
	assertConsistent(t, s, []*roster.Minion{a, b})
}

func TestUnfitWorkerLeavesVacancyWithoutReplacement(t *testing.T) {
	a := newMinion("a", 0)
	s, _ := newTestScheduler(t, a)
	task := lowTask(1)
	s.Register(task)
	require.True(t, s.AssignPass(ctx()))

	a.Apply(roster.StatusPatch{CanCompleteTask: boolPtr(false)})
	require.True(t, s.ReplacePass(ctx()))

	executors, ok := s.Executors(task)
	require.True(t, ok)
	assert.Equal(t, []tasks.Executor{nil}, executors)
	assert.Nil(t, a.CurrentTask())

	assert.False(t, s.ReplacePass(ctx()), "nothing left to change")

	a.Apply(roster.StatusPatch{CanCompleteTask: boolPtr(true)})
	require.True(t, s.ReplacePass(ctx()))
	executors, _ = s.Executors(task)
	assert.Equal(t, a.ID(), executors[0].ID())
}

func TestEliminationPreemptsMediumTask(t *testing.T) {
	m := newMinion("grub", 0)
	s, _ := newTestScheduler(t, m)
	rec := &fakeRecorder{}
	s.recorder = rec

	medium := tasks.New(tasks.Spec{Priority: models.PriorityMedium, MaxExecutors: 1})
	cancelled := 0
	medium.OnDone(func(tasks.Task) { cancelled++ })
	s.Register(medium)
	require.True(t, s.AssignPass(ctx()))
	require.Equal(t, medium.ID(), m.CurrentTask().ID())

	orc := &hostile{id: "orc", pos: models.Vec3{X: 3}}
	elim := tasks.NewElimination(orc, models.PriorityHigh, 5)
	s.Register(elim)
	require.True(t, s.AssignPass(ctx()))

	assert.Equal(t, models.TaskStateCancelled, medium.State())
	assert.Equal(t, 1, cancelled)
	_, ok := s.Executors(medium)
	assert.False(t, ok)
	_, ok = s.Lookup(medium.ID())
	assert.False(t, ok)

	executors, ok := s.Executors(elim)
	require.True(t, ok)
	assert.Len(t, executors, 5)
	assert.Equal(t, m.ID(), executors[0].ID())
	assert.Equal(t, elim.ID(), m.CurrentTask().ID())
	assert.True(t, elim.IsEngaged(m.ID()))
	assert.Equal(t, 1, s.Stats().Preempted)
	assert.Contains(t, rec.actions(), "task.preempt")
	assertConsistent(t, s, []*roster.Minion{m})
}

func TestOrdinaryTaskDoesNotPreempt(t *testing.T) {
	m := newMinion("grub", 0)
	s, _ := newTestScheduler(t, m)

	low := lowTask(1)
	s.Register(low)
	require.True(t, s.AssignPass(ctx()))

	medium := tasks.New(tasks.Spec{Priority: models.PriorityMedium, MaxExecutors: 1})
	s.Register(medium)
	require.True(t, s.AssignPass(ctx()))

	assert.Equal(t, medium.ID(), m.CurrentTask().ID())
	assert.Equal(t, models.TaskStateActive, low.State(), "pulled worker's task is not cancelled")
	executors, ok := s.Executors(low)
	require.True(t, ok)
	assert.Equal(t, []tasks.Executor{nil}, executors)
	assert.Equal(t, 0, s.Stats().Preempted)
	assertConsistent(t, s, []*roster.Minion{m})
}

func TestUnknownTaskHasNoExecutors(t *testing.T) {
	s, _ := newTestScheduler(t)
	executors, ok := s.Executors(lowTask(1))
	assert.False(t, ok)
	assert.Nil(t, executors)

	_, ok = s.Executors(nil)
	assert.False(t, ok)
}

func TestCancelPendingTask(t *testing.T) {
	m := newMinion("grub", 0)
	s, _ := newTestScheduler(t, m)
	task := lowTask(1)
	s.Register(task)

	task.Cancel()
	assert.Equal(t, 0, s.Stats().Pending)
	assert.False(t, s.AssignPass(ctx()))
	assert.Nil(t, m.CurrentTask())
}

func TestCancelActiveTaskReleasesWorkers(t *testing.T) {
	a, b := newMinion("a", 0), newMinion("b", 1)
	s, _ := newTestScheduler(t, a, b)
	task := lowTask(2)
	s.Register(task)
	require.True(t, s.AssignPass(ctx()))
	require.NotNil(t, a.CurrentTask())
	require.NotNil(t, b.CurrentTask())

	task.Cancel()

	assert.Nil(t, a.CurrentTask())
	assert.Nil(t, b.CurrentTask())
	_, ok := s.Executors(task)
	assert.False(t, ok)
	stats := s.Stats()
	assert.Equal(t, 0, stats.Active)
	assert.Equal(t, 0, stats.Pending)
}

func TestBelowThresholdSkipsUnavailableWorkers(t *testing.T) {
	busy := newMinion("busy", 0)
	tired := newMinion("tired", 0)
	resting := newMinion("resting", 0)
	unfit := newMinion("unfit", 0)
	s, pool := newTestScheduler(t, busy)

	s.Register(lowTask(1))
	require.True(t, s.AssignPass(ctx()))

	tired.Apply(roster.StatusPatch{Stamina: floatPtr(5)})
	resting.Apply(roster.StatusPatch{Recreating: boolPtr(true)})
	unfit.Apply(roster.StatusPatch{CanCompleteTask: boolPtr(false)})
	pool.Register(tired, resting, unfit)

	task := lowTask(3)
	s.Register(task)
	assert.False(t, s.AssignPass(ctx()))
	assert.Equal(t, models.TaskStatePending, task.State())

	fresh := newMinion("fresh", 0)
	pool.Register(fresh)
	require.True(t, s.AssignPass(ctx()))
	executors, _ := s.Executors(task)
	assert.Equal(t, fresh.ID(), executors[0].ID())
	assert.Nil(t, executors[1])
	assert.Nil(t, executors[2])
}

func TestAbsoluteRegimeTakesRecreatingAndTired(t *testing.T) {
	tired := newMinion("tired", 0)
	tired.Apply(roster.StatusPatch{Stamina: floatPtr(0), Recreating: boolPtr(true)})
	exhausted := newMinion("exhausted", 0)
	exhausted.Apply(roster.StatusPatch{Stamina: floatPtr(-1)})
	s, _ := newTestScheduler(t, exhausted, tired)

	task := tasks.New(tasks.Spec{Priority: models.PriorityMedium, MaxExecutors: 2, FatiguePoints: 30})
	s.Register(task)
	require.True(t, s.AssignPass(ctx()))

	executors, _ := s.Executors(task)
	assert.Equal(t, tired.ID(), executors[0].ID())
	assert.Nil(t, executors[1])
}

func TestRankingByDistanceCappedToCapacity(t *testing.T) {
	far, near, mid := newMinion("far", 5), newMinion("near", 1), newMinion("mid", 3)
	s, _ := newTestScheduler(t, far, near, mid)

	task := lowTask(2)
	s.Register(task)
	require.True(t, s.AssignPass(ctx()))

	executors, _ := s.Executors(task)
	require.Len(t, executors, 2)
	assert.Equal(t, near.ID(), executors[0].ID())
	assert.Equal(t, mid.ID(), executors[1].ID())
	assert.Nil(t, far.CurrentTask())
}

func TestEliminationFiltersAndRanksByHostile(t *testing.T) {
	fleeing := newMinion("fleeing", 9)
	fleeing.Apply(roster.StatusPatch{Fleeing: boolPtr(true)})
	wounded := newMinion("wounded", 9)
	wounded.Apply(roster.StatusPatch{Health: floatPtr(20)})
	nearby := newMinion("nearby", 8)
	distant := newMinion("distant", 0)
	s, _ := newTestScheduler(t, fleeing, wounded, distant, nearby)

	orc := &hostile{id: "orc", pos: models.Vec3{X: 10}}
	elim := tasks.NewElimination(orc, models.PriorityHigh, 5)
	s.Register(elim)
	require.True(t, s.AssignPass(ctx()))

	executors, _ := s.Executors(elim)
	assert.Equal(t, nearby.ID(), executors[0].ID())
	assert.Equal(t, distant.ID(), executors[1].ID())
	assert.Nil(t, executors[2])
	assert.Nil(t, wounded.CurrentTask(), "health at threshold may not engage")
	assert.Nil(t, fleeing.CurrentTask())
	assert.ElementsMatch(t, []string{nearby.ID(), distant.ID()}, elim.Engaged())
}

func TestAtThresholdTasksDoNotTradeWorkers(t *testing.T) {
	a, spare := newMinion("a", 0), newMinion("spare", 100)
	s, _ := newTestScheduler(t, a, spare)
	first := tasks.New(tasks.Spec{Priority: models.PriorityMedium, MaxExecutors: 1})
	second := tasks.New(tasks.Spec{Priority: models.PriorityMedium, MaxExecutors: 1})
	s.Register(first)
	require.True(t, s.AssignPass(ctx()))
	s.Register(second)
	require.True(t, s.AssignPass(ctx()))

	assert.Equal(t, first.ID(), a.CurrentTask().ID())
	assert.Equal(t, second.ID(), spare.CurrentTask().ID(), "the idle spare takes the second task")

	for i := 0; i < 4; i++ {
		assert.False(t, s.ReplacePass(ctx()), "pass %d", i)
	}
	executors, _ := s.Executors(first)
	assert.Equal(t, a.ID(), executors[0].ID())
	executors, _ = s.Executors(second)
	assert.Equal(t, spare.ID(), executors[0].ID())
	assertConsistent(t, s, []*roster.Minion{a, spare})
}

func TestOrdinaryTaskLeavesFightersEngaged(t *testing.T) {
	a := newMinion("a", 0)
	s, _ := newTestScheduler(t, a)
	elim := tasks.NewElimination(&hostile{id: "orc"}, models.PriorityHigh, 1)
	s.Register(elim)
	require.True(t, s.AssignPass(ctx()))

	medium := tasks.New(tasks.Spec{Priority: models.PriorityMedium, MaxExecutors: 1})
	s.Register(medium)
	assert.False(t, s.AssignPass(ctx()))

	assert.Equal(t, models.TaskStatePending, medium.State())
	assert.Equal(t, elim.ID(), a.CurrentTask().ID())
	assert.True(t, elim.IsEngaged(a.ID()))
	executors, _ := s.Executors(elim)
	assert.Equal(t, a.ID(), executors[0].ID())
}

func TestDeadWorkerClearedBehindShortStaffedTask(t *testing.T) {
	worker := newMinion("worker", 0)
	s, pool := newTestScheduler(t, worker)
	job := lowTask(1)
	s.Register(job)
	require.True(t, s.AssignPass(ctx()))

	// Fleeing keeps the worker out of the fight below.
	worker.Apply(roster.StatusPatch{Fleeing: boolPtr(true)})
	fighter := newMinion("fighter", 0)
	pool.Register(fighter)
	elim := tasks.NewElimination(&hostile{id: "orc"}, models.PriorityHigh, 5)
	s.Register(elim)
	require.True(t, s.AssignPass(ctx()))
	require.Equal(t, job.ID(), worker.CurrentTask().ID())

	assert.False(t, s.ReplacePass(ctx()), "short staffed fight has nobody to add")

	require.NoError(t, pool.Kill(worker.ID()))
	require.True(t, s.ReplacePass(ctx()))

	executors, _ := s.Executors(job)
	assert.Equal(t, []tasks.Executor{nil}, executors)
	assert.Nil(t, worker.CurrentTask())
	executors, _ = s.Executors(elim)
	assert.Equal(t, fighter.ID(), executors[0].ID())
	assertConsistent(t, s, []*roster.Minion{worker, fighter})
}

func TestReplacementThresholdIsStrict(t *testing.T) {
	a, b := newMinion("a", 0), newMinion("b", 1)
	s, _ := newTestScheduler(t, a, b)
	orc := &hostile{id: "orc"}
	elim := tasks.NewElimination(orc, models.PriorityHigh, 3)
	s.Register(elim)
	require.True(t, s.AssignPass(ctx()))

	// A vacancy triggers the pass; a worker exactly at the threshold stays.
	a.Apply(roster.StatusPatch{Health: floatPtr(20)})
	s.ReplacePass(ctx())
	executors, _ := s.Executors(elim)
	assert.Equal(t, a.ID(), executors[0].ID())
	assert.True(t, elim.IsEngaged(a.ID()))

	a.Apply(roster.StatusPatch{Health: floatPtr(19)})
	require.True(t, s.ReplacePass(ctx()))
	executors, _ = s.Executors(elim)
	assert.Nil(t, executors[0])
	assert.Nil(t, a.CurrentTask())
	assert.False(t, elim.IsEngaged(a.ID()))
	assert.Equal(t, b.ID(), executors[1].ID())
}

func TestLowHealthAloneDoesNotTriggerReplacement(t *testing.T) {
	a := newMinion("a", 0)
	s, _ := newTestScheduler(t, a)
	task := lowTask(1)
	s.Register(task)
	require.True(t, s.AssignPass(ctx()))

	a.Apply(roster.StatusPatch{Health: floatPtr(1)})
	assert.False(t, s.ReplacePass(ctx()))
	assert.Equal(t, task.ID(), a.CurrentTask().ID())
}

func TestReplacementFillsVacanciesInSlotOrder(t *testing.T) {
	a, b, c := newMinion("a", 0), newMinion("b", 1), newMinion("c", 2)
	s, pool := newTestScheduler(t, a, b, c)
	task := lowTask(3)
	s.Register(task)
	require.True(t, s.AssignPass(ctx()))

	a.Apply(roster.StatusPatch{CanCompleteTask: boolPtr(false)})
	c.Apply(roster.StatusPatch{CanCompleteTask: boolPtr(false)})
	d := newMinion("d", 10)
	pool.Register(d)

	require.True(t, s.ReplacePass(ctx()))
	executors, _ := s.Executors(task)
	require.Len(t, executors, 3)
	assert.Equal(t, d.ID(), executors[0].ID())
	assert.Equal(t, b.ID(), executors[1].ID())
	assert.Nil(t, executors[2])
	assertConsistent(t, s, []*roster.Minion{a, b, c, d})
}

func TestReplacementPicksFirstDegradedTask(t *testing.T) {
	a, b := newMinion("a", 0), newMinion("b", 0)
	s, _ := newTestScheduler(t, a, b)
	first, second := lowTask(1), lowTask(1)
	s.Register(first)
	s.Register(second)
	require.True(t, s.AssignPass(ctx()))
	require.True(t, s.AssignPass(ctx()))

	a.Apply(roster.StatusPatch{CanCompleteTask: boolPtr(false)})
	b.Apply(roster.StatusPatch{CanCompleteTask: boolPtr(false)})

	require.True(t, s.ReplacePass(ctx()))
	assert.Nil(t, a.CurrentTask())
	assert.NotNil(t, b.CurrentTask(), "only the first degraded task is handled per pass")

	require.True(t, s.ReplacePass(ctx()))
	assert.Nil(t, b.CurrentTask())
}

func TestDeadMinionIsReplaced(t *testing.T) {
	a, b := newMinion("a", 0), newMinion("b", 0)
	s, pool := newTestScheduler(t, a)
	task := lowTask(1)
	s.Register(task)
	require.True(t, s.AssignPass(ctx()))

	require.NoError(t, pool.Kill(a.ID()))
	pool.Register(b)
	require.True(t, s.ReplacePass(ctx()))

	executors, _ := s.Executors(task)
	assert.Equal(t, b.ID(), executors[0].ID())
	assert.Nil(t, a.CurrentTask())
}

func TestRegisterIsIdempotent(t *testing.T) {
	s, _ := newTestScheduler(t)
	task := lowTask(1)
	s.Register(task)
	s.Register(task)
	s.Register(nil)
	assert.Equal(t, 1, s.Stats().Pending)

	done := lowTask(1)
	done.Complete()
	s.Register(done)
	assert.Equal(t, 1, s.Stats().Pending)

	task.Complete()
	task.Complete()
	task.Cancel()
	assert.Equal(t, 0, s.Stats().Pending)
}

func TestTaskViews(t *testing.T) {
	m := newMinion("grub", 0)
	s, _ := newTestScheduler(t, m)
	active := lowTask(2)
	pending := tasks.New(tasks.Spec{Priority: models.PriorityLow, MaxExecutors: 1, FatiguePoints: 999})
	s.Register(active)
	require.True(t, s.AssignPass(ctx()))
	s.Register(pending)

	views := s.Tasks()
	require.Len(t, views, 2)
	assert.Equal(t, pending.ID(), views[0].ID)
	assert.Nil(t, views[0].Executors)
	assert.Equal(t, active.ID(), views[1].ID)
	assert.Equal(t, []string{m.ID(), ""}, views[1].Executors)

	v, ok := s.Task(active.ID())
	require.True(t, ok)
	assert.Equal(t, models.TaskStateActive, v.State)
	_, ok = s.Task("nope")
	assert.False(t, ok)
}

func TestRecorderSeesLifecycle(t *testing.T) {
	m := newMinion("grub", 0)
	rec := &fakeRecorder{}
	pool := roster.New(nil)
	pool.Register(m)
	s := New(pool, nil, WithRecorder(rec))

	task := lowTask(1)
	s.Register(task)
	require.True(t, s.AssignPass(ctx()))
	task.Complete()

	assert.Equal(t, []string{"task.assign", "task.done"}, rec.actions())
	assert.Nil(t, m.CurrentTask())
}

func TestLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AssignInterval = 5 * time.Millisecond
	cfg.ReplaceInterval = 5 * time.Millisecond
	cfg.MaxIdleInterval = 20 * time.Millisecond
	m := newMinion("grub", 0)
	pool := roster.New(nil)
	pool.Register(m)
	s := New(pool, cfg)

	assert.Equal(t, "created", s.Stats().State)
	require.NoError(t, s.Start(ctx()))
	assert.ErrorIs(t, s.Start(ctx()), ErrAlreadyStarted)
	assert.Equal(t, "running", s.Stats().State)

	task := lowTask(1)
	s.Register(task)
	assert.Eventually(t, func() bool {
		_, ok := s.Executors(task)
		return ok
	}, time.Second, 5*time.Millisecond)

	s.Shutdown()
	s.Shutdown()
	assert.Equal(t, "stopped", s.Stats().State)
	assert.ErrorIs(t, s.Start(ctx()), ErrStopped)
	assert.Equal(t, models.TaskStateActive, task.State(), "shutdown leaves tasks alone")
}

func TestShutdownBeforeStart(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.Shutdown()
	assert.ErrorIs(t, s.Start(ctx()), ErrStopped)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.AssignInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxIdleInterval = time.Millisecond
	assert.Error(t, cfg.Validate())
}
