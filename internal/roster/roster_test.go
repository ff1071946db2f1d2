package roster

import (
	"context"
	"testing"
	"time"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMinion(name string) *Minion {
	return NewMinion(MinionSpec{Name: name, Health: 100, EscapeThreshold: 20, Stamina: 50})
}

func TestMinionIdleDerivation(t *testing.T) {
	m := newMinion("grub")
	assert.True(t, m.Status().Idle)

	recreating := true
	m.Apply(StatusPatch{Recreating: &recreating})
	assert.False(t, m.Status().Idle)
	recreating = false
	m.Apply(StatusPatch{Recreating: &recreating})

	task := tasks.New(tasks.Spec{MaxExecutors: 1})
	m.AssignTask(task)
	assert.False(t, m.Status().Idle)
	assert.Equal(t, task.ID(), m.CurrentTask().ID())
}

func TestReleaseTaskCompareAndClear(t *testing.T) {
	m := newMinion("grub")
	first := tasks.New(tasks.Spec{MaxExecutors: 1})
	second := tasks.New(tasks.Spec{MaxExecutors: 1})

	m.AssignTask(second)
	assert.False(t, m.ReleaseTask(first))
	assert.Equal(t, second.ID(), m.CurrentTask().ID())

	assert.True(t, m.ReleaseTask(second))
	assert.Nil(t, m.CurrentTask())
}

func TestApplyPartialPatch(t *testing.T) {
	m := newMinion("grub")
	health := 10.0
	pos := models.Vec3{X: 4}
	m.Apply(StatusPatch{Health: &health, Position: &pos})

	s := m.Status()
	assert.Equal(t, 10.0, s.Health)
	assert.Equal(t, 20.0, s.EscapeThreshold)
	assert.Equal(t, pos, s.Position)
	assert.True(t, s.CanCompleteTask)
}

func TestRegisterNotifiesListeners(t *testing.T) {
	r := New(nil)
	var got []*Minion
	unsubscribe := r.OnMinionsAdded(func(ms []*Minion) { got = append(got, ms...) })

	a, b := newMinion("a"), newMinion("b")
	r.Register(a, b)
	r.Register(a)
	assert.Len(t, got, 2)
	assert.Len(t, r.Executors(), 2)

	unsubscribe()
	r.Register(newMinion("c"))
	assert.Len(t, got, 2)
	assert.Len(t, r.List(), 3)
}

func TestKill(t *testing.T) {
	r := New(nil)
	m := newMinion("a")
	r.Register(m)
	require.NoError(t, r.AddBed("bunk", 2, true))
	require.True(t, r.AssignBed())

	var removed *Minion
	r.OnMinionRemoved(func(dead *Minion) { removed = dead })

	require.NoError(t, r.Kill(m.ID()))
	assert.Equal(t, m, removed)
	assert.False(t, m.Alive())
	assert.False(t, m.Status().CanCompleteTask)
	assert.Nil(t, m.Sleeping())
	assert.Empty(t, r.List())
	assert.Empty(t, r.Beds()[0].Occupants)

	assert.ErrorIs(t, r.Kill(m.ID()), ErrMinionNotFound)
}

func TestAssignBedSkipsUnusableBeds(t *testing.T) {
	r := New(nil)
	a, b, c := newMinion("a"), newMinion("b"), newMinion("c")
	r.Register(a, b, c)

	require.NoError(t, r.AddBed("frame", 1, false))
	require.NoError(t, r.AddBed("broken", 1, true))
	require.NoError(t, r.SetBedState("broken", true, true))
	require.NoError(t, r.AddBed("bunk", 2, true))
	assert.ErrorIs(t, r.AddBed("bunk", 1, true), ErrDuplicateBed)

	assert.True(t, r.AssignBed())
	assert.True(t, r.AssignBed())
	assert.False(t, r.AssignBed(), "bunk is full")

	assert.Equal(t, &Sleeping{BedID: "bunk", Level: 0}, a.Sleeping())
	assert.Equal(t, &Sleeping{BedID: "bunk", Level: 1}, b.Sleeping())
	assert.Nil(t, c.Sleeping())
}

func TestDemolishBedEvictsOccupants(t *testing.T) {
	r := New(nil)
	a := newMinion("a")
	r.Register(a)
	require.NoError(t, r.AddBed("cot", 1, true))
	require.True(t, r.AssignBed())

	require.NoError(t, r.DemolishBed("cot"))
	assert.Nil(t, a.Sleeping())
	assert.Empty(t, r.Beds())
	assert.ErrorIs(t, r.DemolishBed("cot"), ErrBedNotFound)
}

func TestRunAssignsBeds(t *testing.T) {
	r := New(nil)
	a := newMinion("a")
	r.Register(a)
	require.NoError(t, r.AddBed("cot", 1, true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return a.Sleeping() != nil }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
