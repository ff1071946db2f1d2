package security

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/roster"
	"github.com/fentz26/burrow/internal/scheduler"
	"github.com/fentz26/burrow/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	mu         sync.Mutex
	registered []tasks.Task
}

func (r *fakeRegistrar) Register(t tasks.Task) {
	r.mu.Lock()
	r.registered = append(r.registered, t)
	r.mu.Unlock()
}

func (r *fakeRegistrar) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registered)
}

func TestReportEnemyDedupes(t *testing.T) {
	reg := &fakeRegistrar{}
	c := New(reg, nil, nil)

	task, created := c.ReportEnemy("orc", models.Vec3{X: 1})
	require.True(t, created)
	assert.Equal(t, models.PriorityHigh, task.Priority())
	assert.Equal(t, 5, task.MaxExecutors())
	assert.Equal(t, "orc", task.Hostile().ID())

	again, created := c.ReportEnemy("orc", models.Vec3{X: 7})
	assert.False(t, created)
	assert.Same(t, task, again)
	assert.Equal(t, models.Vec3{X: 7}, task.Target(), "repeat report moves the hostile")
	assert.Equal(t, 1, reg.count())
}

func TestReportKillCompletesTask(t *testing.T) {
	c := New(&fakeRegistrar{}, nil, nil)
	task, _ := c.ReportEnemy("orc", models.Vec3{})

	require.NoError(t, c.ReportKill("orc"))
	assert.Equal(t, models.TaskStateCompleted, task.State())
	assert.Empty(t, c.Enemies())
	assert.ErrorIs(t, c.ReportKill("orc"), ErrUnknownEnemy)

	_, created := c.ReportEnemy("orc", models.Vec3{})
	assert.True(t, created, "a killed hostile can be reported again")
}

func TestCancelledTaskForgetsHostile(t *testing.T) {
	c := New(&fakeRegistrar{}, nil, nil)
	task, _ := c.ReportEnemy("orc", models.Vec3{})
	task.Cancel()

	assert.Empty(t, c.Enemies())
	fresh, created := c.ReportEnemy("orc", models.Vec3{})
	assert.True(t, created)
	assert.NotEqual(t, task.ID(), fresh.ID())
}

func TestMoveEnemy(t *testing.T) {
	c := New(&fakeRegistrar{}, nil, nil)
	c.ReportEnemy("orc", models.Vec3{})

	require.NoError(t, c.MoveEnemy("orc", models.Vec3{Y: 4}))
	assert.ErrorIs(t, c.MoveEnemy("elf", models.Vec3{}), ErrUnknownEnemy)

	enemies := c.Enemies()
	require.Len(t, enemies, 1)
	assert.Equal(t, models.Vec3{Y: 4}, enemies[0].Position)
}

func TestEnemyIsFoughtBySchedulerAndReleasedOnKill(t *testing.T) {
	pool := roster.New(nil)
	guard := roster.NewMinion(roster.MinionSpec{Name: "guard", Health: 100, EscapeThreshold: 20, Stamina: 10})
	pool.Register(guard)
	sched := scheduler.New(pool, nil)
	c := New(sched, nil, nil)

	task, _ := c.ReportEnemy("orc", models.Vec3{X: 2})
	require.True(t, sched.AssignPass(context.Background()))
	assert.Equal(t, task.ID(), guard.CurrentTask().ID())
	assert.Equal(t, []string{guard.ID()}, c.Enemies()[0].Engaged)

	require.NoError(t, c.ReportKill("orc"))
	assert.Nil(t, guard.CurrentTask())
	_, ok := sched.Executors(task)
	assert.False(t, ok)
}

func TestPassApplicationApprovedForConstructedEntrance(t *testing.T) {
	c := New(&fakeRegistrar{}, nil, nil)
	gate := NewEntrance("north", 0)
	c.UpdateEntrances(gate)

	var decisions []Decision
	c.OnDecision(func(d Decision) { decisions = append(decisions, d) })

	result := c.Apply(context.Background(), "trader", "north")
	require.True(t, c.HandleNext(context.Background()))
	assert.True(t, <-result)
	assert.True(t, gate.DoorsOpen())
	assert.Equal(t, []Decision{{Applicant: "trader", EntranceID: "north", Approved: true}}, decisions)
	assert.False(t, c.HandleNext(context.Background()))
}

func TestPassApplicationRejectedForUnknownEntrance(t *testing.T) {
	c := New(&fakeRegistrar{}, nil, nil)
	c.AddEntrance(NewEntrance("north", 0))
	require.NoError(t, c.RemoveEntrance("north"))
	assert.ErrorIs(t, c.RemoveEntrance("north"), ErrUnknownEntrance)

	result := c.Apply(context.Background(), "spy", "north")
	require.True(t, c.HandleNext(context.Background()))
	assert.False(t, <-result)
}

func TestPassWaitsForDoors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DoorPollInterval = time.Millisecond
	c := New(&fakeRegistrar{}, cfg, nil)
	gate := NewEntrance("north", 30*time.Millisecond)
	c.AddEntrance(gate)

	result := c.Apply(context.Background(), "trader", "north")
	start := time.Now()
	require.True(t, c.HandleNext(context.Background()))
	assert.True(t, <-result)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestPassRejectedWhenCancelledWhileWaiting(t *testing.T) {
	c := New(&fakeRegistrar{}, nil, nil)
	c.AddEntrance(NewEntrance("north", time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := c.Apply(context.Background(), "trader", "north")
	require.True(t, c.HandleNext(ctx))
	assert.False(t, <-result)
}

func TestRunHandlesQueueInOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PassInterval = 2 * time.Millisecond
	c := New(&fakeRegistrar{}, cfg, nil)
	c.AddEntrance(NewEntrance("north", 0))

	first := c.Apply(context.Background(), "a", "north")
	second := c.Apply(context.Background(), "b", "south")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	select {
	case approved := <-first:
		assert.True(t, approved)
	case <-time.After(time.Second):
		t.Fatal("first application not handled")
	}
	select {
	case approved := <-second:
		assert.False(t, approved)
	case <-time.After(time.Second):
		t.Fatal("second application not handled")
	}
}

func TestWithdrawnApplicationKeepsDoorsShut(t *testing.T) {
	c := New(&fakeRegistrar{}, nil, nil)
	gate := NewEntrance("north", 0)
	c.AddEntrance(gate)

	var decisions []Decision
	c.OnDecision(func(d Decision) { decisions = append(decisions, d) })

	caller, hangUp := context.WithCancel(context.Background())
	result := c.Apply(caller, "trader", "north")
	hangUp()

	require.True(t, c.HandleNext(context.Background()))
	assert.False(t, <-result)
	assert.False(t, gate.DoorsOpen())
	assert.Equal(t, []EntranceView{{ID: "north"}}, c.Entrances())
	assert.Empty(t, decisions)
	assert.False(t, c.HandleNext(context.Background()))
}

func TestCallerLeavingStopsDoorWait(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DoorPollInterval = time.Millisecond
	c := New(&fakeRegistrar{}, cfg, nil)
	c.AddEntrance(NewEntrance("north", time.Hour))

	caller, hangUp := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer hangUp()
	result := c.Apply(caller, "trader", "north")

	require.True(t, c.HandleNext(context.Background()))
	assert.False(t, <-result)
}
