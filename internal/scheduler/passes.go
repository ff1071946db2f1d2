package scheduler

import (
	"context"
	"sort"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/tasks"
	"github.com/fentz26/burrow/internal/tracing"
	"go.uber.org/zap"
)

// AssignPass performs one iteration of the assignment loop: the highest
// priority pending task is staffed if any worker is eligible. It reports
// whether a task was activated.
func (s *Scheduler) AssignPass(ctx context.Context) bool {
	_, span := tracing.StartSpan(ctx, "scheduler.assign_pass")
	defer span.End(nil)

	s.mu.Lock()
	e := s.nextPendingLocked()
	if e == nil || e.task.State() != models.TaskStatePending {
		s.mu.Unlock()
		return false
	}

	chosen := s.rankLocked(e)
	if len(chosen) == 0 {
		s.mu.Unlock()
		return false
	}
	if !e.task.Activate() {
		s.mu.Unlock()
		return false
	}

	e.slots = make([]tasks.Executor, e.task.MaxExecutors())
	e.active = true
	s.pending = without(s.pending, e)
	s.active = append(s.active, e)

	preempted := make(map[string]tasks.Task)
	ids := make([]string, 0, len(chosen))
	for i, w := range chosen {
		if prev := s.claimLocked(e, w); prev != nil {
			preempted[prev.ID()] = prev
		}
		s.bindLocked(e, i, w)
		ids = append(ids, w.ID())
	}
	s.assigned += len(chosen)
	s.preempted += len(preempted)
	s.mu.Unlock()

	span.SetAttributes(map[string]string{"task_id": e.task.ID()}).SetInt("executors", len(chosen))
	s.logger.Info("task assigned",
		zap.String("task_id", e.task.ID()),
		zap.Stringer("priority", e.task.Priority()),
		zap.Strings("executors", ids))

	s.record(decision{
		action:  "task.assign",
		inputs:  map[string]interface{}{"task_id": e.task.ID(), "priority": e.task.Priority().String(), "executors": ids},
		outcome: "active",
		taskID:  e.task.ID(),
	})
	s.cancelPreempted(e.task, preempted)
	return true
}

// ReplacePass performs one iteration of the replacement loop. Active tasks
// holding an unfit worker are handled before tasks that are only short
// staffed, each group in activation order; the first task whose slots change
// ends the pass. It reports whether any slot changed.
func (s *Scheduler) ReplacePass(ctx context.Context) bool {
	_, span := tracing.StartSpan(ctx, "scheduler.replace_pass")
	defer span.End(nil)

	s.mu.Lock()
	var (
		e         *entry
		res       replacement
		preempted map[string]tasks.Task
	)
	for _, cand := range s.degradedLocked() {
		res, preempted = s.replaceLocked(cand)
		if res.changed() {
			e = cand
			break
		}
	}
	s.replaced += len(res.filled)
	s.preempted += len(preempted)
	s.mu.Unlock()

	if e == nil {
		return false
	}

	span.SetAttributes(map[string]string{"task_id": e.task.ID()}).SetInt("filled", len(res.filled))
	s.logger.Info("executors replaced",
		zap.String("task_id", e.task.ID()),
		zap.Strings("cleared", res.cleared),
		zap.Strings("filled", res.filled),
		zap.Int("vacant", res.vacant))
	s.record(decision{
		action:  "task.replace",
		inputs:  map[string]interface{}{"task_id": e.task.ID(), "cleared": res.cleared, "filled": res.filled},
		outcome: "replaced",
		taskID:  e.task.ID(),
	})
	s.cancelPreempted(e.task, preempted)
	return true
}

type replacement struct {
	cleared []string
	filled  []string
	vacant  int
}

func (r replacement) changed() bool {
	return len(r.cleared) > 0 || len(r.filled) > 0
}

// replaceLocked clears the failed slots of e and fills its vacancies. Nothing
// is preempted unless a slot was filled.
func (s *Scheduler) replaceLocked(e *entry) (replacement, map[string]tasks.Task) {
	var res replacement
	engager, _ := e.task.(tasks.Engager)
	var vacancies []int
	for i, w := range e.slots {
		if w == nil {
			vacancies = append(vacancies, i)
			continue
		}
		st := w.Status()
		if !st.CanCompleteTask || st.Health < st.EscapeThreshold {
			w.ReleaseTask(e.task)
			if engager != nil {
				engager.Disengage(w.ID())
			}
			e.slots[i] = nil
			vacancies = append(vacancies, i)
			res.cleared = append(res.cleared, w.ID())
		}
	}

	preempted := make(map[string]tasks.Task)
	for i, w := range s.rankLocked(e) {
		if i >= len(vacancies) {
			break
		}
		if prev := s.claimLocked(e, w); prev != nil {
			preempted[prev.ID()] = prev
		}
		s.bindLocked(e, vacancies[i], w)
		res.filled = append(res.filled, w.ID())
	}
	res.vacant = len(vacancies) - len(res.filled)
	return res, preempted
}

// nextPendingLocked picks the highest priority pending task, first inserted on ties.
func (s *Scheduler) nextPendingLocked() *entry {
	var best *entry
	for _, e := range s.pending {
		if best == nil || e.task.Priority() > best.task.Priority() {
			best = e
		}
	}
	return best
}

// degradedLocked lists the active tasks with a vacant slot or a slot held by
// a worker that cannot complete it. Tasks holding an unfit worker come first.
func (s *Scheduler) degradedLocked() []*entry {
	var failed, short []*entry
	for _, e := range s.active {
		// A terminal task is waiting for its done listener to remove it.
		if e.task.State().Terminal() {
			continue
		}
		unfit, vacant := false, false
		for _, w := range e.slots {
			if w == nil {
				vacant = true
			} else if !w.Status().CanCompleteTask {
				unfit = true
			}
		}
		switch {
		case unfit:
			failed = append(failed, e)
		case vacant:
			short = append(short, e)
		}
	}
	return append(failed, short...)
}

type candidate struct {
	worker   tasks.Executor
	distance float64
}

// rankLocked returns the eligible workers nearest the task target, capped to
// the task's open slots.
func (s *Scheduler) rankLocked(e *entry) []tasks.Executor {
	open := e.task.MaxExecutors() - e.filled()
	if open <= 0 {
		return nil
	}

	absolute := e.task.Priority() >= s.config.AbsolutePriority
	engager, isEngager := e.task.(tasks.Engager)
	target := e.task.Target()
	if isEngager {
		target = engager.Hostile().Position()
	}

	var candidates []candidate
	for _, w := range s.pool.Executors() {
		st := w.Status()
		if !eligible(e.task, w, st, absolute) {
			continue
		}
		if isEngager && !canEngage(engager, w, st) {
			continue
		}
		if absolute && !isEngager && s.committedLocked(w, e.task.Priority()) {
			continue
		}
		candidates = append(candidates, candidate{worker: w, distance: models.Distance(st.Position, target)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > open {
		candidates = candidates[:open]
	}

	out := make([]tasks.Executor, len(candidates))
	for i, c := range candidates {
		out[i] = c.worker
	}
	return out
}

// eligible applies the two priority regimes. A worker that cannot complete
// tasks is never eligible.
func eligible(t tasks.Task, w tasks.Executor, st models.WorkerStatus, absolute bool) bool {
	if !st.CanCompleteTask {
		return false
	}
	if absolute {
		return st.Stamina >= 0 && !tasks.Same(w.CurrentTask(), t)
	}
	return st.Idle && st.Stamina >= t.FatiguePoints() && !st.Recreating
}

// committedLocked reports whether w is staffing an active task of at least
// priority p. Ordinary tasks only pull workers away from lower priority work.
func (s *Scheduler) committedLocked(w tasks.Executor, p models.Priority) bool {
	cur := w.CurrentTask()
	if cur == nil {
		return false
	}
	e, ok := s.byID[cur.ID()]
	return ok && e.active && cur.Priority() >= p
}

// canEngage filters workers for combat: not already on or engaged with this
// task, not fleeing, and strictly above the escape threshold.
func canEngage(e tasks.Engager, w tasks.Executor, st models.WorkerStatus) bool {
	if tasks.Same(w.CurrentTask(), e) || e.IsEngaged(w.ID()) {
		return false
	}
	return !st.Fleeing && st.Health > st.EscapeThreshold
}

// claimLocked detaches w from its current task before it joins e. For
// engaging tasks the previous task is preempted: it leaves the scheduler's
// collections and is returned so the caller can cancel it once the lock is
// released. For other tasks w only vacates its old slot.
func (s *Scheduler) claimLocked(e *entry, w tasks.Executor) tasks.Task {
	prev := w.CurrentTask()
	if prev == nil || tasks.Same(prev, e.task) {
		return nil
	}

	if _, engages := e.task.(tasks.Engager); engages {
		if pe := s.removeLocked(prev.ID()); pe != nil {
			pe.unsubscribe()
		} else {
			w.ReleaseTask(prev)
		}
		return prev
	}

	if pe, ok := s.byID[prev.ID()]; ok && pe.active {
		for i, slot := range pe.slots {
			if slot != nil && slot.ID() == w.ID() {
				pe.slots[i] = nil
			}
		}
		if engager, ok := prev.(tasks.Engager); ok {
			engager.Disengage(w.ID())
		}
	}
	w.ReleaseTask(prev)
	return nil
}

// bindLocked puts w into slot i and points its back-reference at the task.
func (s *Scheduler) bindLocked(e *entry, i int, w tasks.Executor) {
	e.slots[i] = w
	w.AssignTask(e.task)
	if engager, ok := e.task.(tasks.Engager); ok {
		engager.Engage(w.ID())
	}
}

// cancelPreempted cancels tasks whose workers were taken by by. Runs without
// the scheduler lock because cancellation notifies the task's listeners.
func (s *Scheduler) cancelPreempted(by tasks.Task, preempted map[string]tasks.Task) {
	if len(preempted) == 0 {
		return
	}
	ids := make([]string, 0, len(preempted))
	for id := range preempted {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		prev := preempted[id]
		prev.Cancel()
		s.logger.Info("task preempted",
			zap.String("task_id", id),
			zap.String("by_task_id", by.ID()))
		s.record(decision{
			action:  "task.preempt",
			inputs:  map[string]interface{}{"task_id": id, "by_task_id": by.ID()},
			outcome: string(prev.State()),
			taskID:  id,
			details: "preempted by " + by.ID(),
		})
	}
}
