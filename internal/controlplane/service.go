// Package controlplane provides the HTTP API and service layer for burrow.
package controlplane

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fentz26/burrow/internal/audit"
	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/roster"
	"github.com/fentz26/burrow/internal/scheduler"
	"github.com/fentz26/burrow/internal/security"
	"github.com/fentz26/burrow/internal/store"
	"github.com/fentz26/burrow/internal/tasks"
	"github.com/fentz26/burrow/internal/workplace"
	"go.uber.org/zap"
)

// Service provides the control plane business logic.
type Service struct {
	sched      *scheduler.Scheduler
	roster     *roster.Roster
	security   *security.Coordinator
	workplaces *workplace.Coordinator
	recorder   *audit.Recorder
	logger     *zap.Logger
}

// NewService creates a new control plane service.
func NewService(sched *scheduler.Scheduler, r *roster.Roster, sec *security.Coordinator, wp *workplace.Coordinator, rec *audit.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sched:      sched,
		roster:     r,
		security:   sec,
		workplaces: wp,
		recorder:   rec,
		logger:     logger,
	}
}

// record journals an operator action. Failures are logged only.
func (s *Service) record(action string, inputs map[string]interface{}, outcome, taskID string) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.Record(action, inputs, outcome, taskID, ""); err != nil {
		s.logger.Warn("failed to record decision", zap.String("action", action), zap.Error(err))
	}
}

// --- Task Operations ---

// Stats returns scheduler counters.
func (s *Service) Stats() scheduler.Stats {
	return s.sched.Stats()
}

// CreateTaskRequest describes a generic task.
type CreateTaskRequest struct {
	Priority      models.Priority `json:"priority"`
	MaxExecutors  int             `json:"max_executors"`
	FatiguePoints float64         `json:"fatigue_points"`
	Target        models.Vec3     `json:"target"`
}

// CreateTask registers a generic task with the scheduler.
func (s *Service) CreateTask(req CreateTaskRequest) (scheduler.TaskView, error) {
	if req.MaxExecutors < 0 || req.FatiguePoints < 0 {
		return scheduler.TaskView{}, fmt.Errorf("%w: max_executors and fatigue_points must not be negative", ErrInvalidRequest)
	}
	task := tasks.New(tasks.Spec{
		Priority:      req.Priority,
		MaxExecutors:  req.MaxExecutors,
		FatiguePoints: req.FatiguePoints,
		Target:        req.Target,
	})
	s.sched.Register(task)
	s.record("task.create", map[string]interface{}{"priority": req.Priority.String(), "max_executors": task.MaxExecutors()}, "pending", task.ID())

	view, ok := s.sched.Task(task.ID())
	if !ok {
		return scheduler.TaskView{}, ErrTaskNotFound
	}
	return view, nil
}

// ListTasks returns tracked tasks, optionally filtered by state.
func (s *Service) ListTasks(state string) []scheduler.TaskView {
	all := s.sched.Tasks()
	if state == "" {
		return all
	}
	out := make([]scheduler.TaskView, 0, len(all))
	for _, v := range all {
		if string(v.State) == state {
			out = append(out, v)
		}
	}
	return out
}

// GetTask describes a tracked task.
func (s *Service) GetTask(id string) (scheduler.TaskView, error) {
	v, ok := s.sched.Task(id)
	if !ok {
		return scheduler.TaskView{}, ErrTaskNotFound
	}
	return v, nil
}

// CompleteTask marks a tracked task completed.
func (s *Service) CompleteTask(id string) error {
	return s.finish(id, "task.complete", tasks.Task.Complete)
}

// CancelTask cancels a tracked task.
func (s *Service) CancelTask(id string) error {
	return s.finish(id, "task.cancel", tasks.Task.Cancel)
}

func (s *Service) finish(id, action string, transition func(tasks.Task) bool) error {
	task, ok := s.sched.Lookup(id)
	if !ok {
		return ErrTaskNotFound
	}
	if !transition(task) {
		return ErrTaskFinished
	}
	s.record(action, map[string]interface{}{"task_id": id}, string(task.State()), id)
	return nil
}

// --- Minion Operations ---

// AddMinionRequest seeds a new minion.
type AddMinionRequest struct {
	Name            string      `json:"name"`
	Health          float64     `json:"health"`
	EscapeThreshold float64     `json:"escape_threshold"`
	Stamina         float64     `json:"stamina"`
	Position        models.Vec3 `json:"position"`
}

// AddMinion registers a new minion in the pool.
func (s *Service) AddMinion(req AddMinionRequest) (roster.MinionView, error) {
	if req.Name == "" {
		return roster.MinionView{}, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	m := roster.NewMinion(roster.MinionSpec{
		Name:            req.Name,
		Health:          req.Health,
		EscapeThreshold: req.EscapeThreshold,
		Stamina:         req.Stamina,
		Position:        req.Position,
	})
	s.roster.Register(m)
	s.record("minion.register", map[string]interface{}{"worker_id": m.ID(), "name": req.Name}, "registered", "")
	return m.View(), nil
}

// ListMinions returns the living minions.
func (s *Service) ListMinions() []roster.MinionView {
	minions := s.roster.List()
	out := make([]roster.MinionView, 0, len(minions))
	for _, m := range minions {
		out = append(out, m.View())
	}
	return out
}

// GetMinion describes one minion.
func (s *Service) GetMinion(id string) (roster.MinionView, error) {
	m, ok := s.roster.Get(id)
	if !ok {
		return roster.MinionView{}, fmt.Errorf("minion %s: %w", id, ErrNotFound)
	}
	return m.View(), nil
}

// UpdateMinion applies a partial status update.
func (s *Service) UpdateMinion(id string, patch roster.StatusPatch) (roster.MinionView, error) {
	m, ok := s.roster.Get(id)
	if !ok {
		return roster.MinionView{}, fmt.Errorf("minion %s: %w", id, ErrNotFound)
	}
	m.Apply(patch)
	return m.View(), nil
}

// KillMinion records a minion's death.
func (s *Service) KillMinion(id string) error {
	if err := s.roster.Kill(id); err != nil {
		if errors.Is(err, roster.ErrMinionNotFound) {
			return fmt.Errorf("minion %s: %w", id, ErrNotFound)
		}
		return err
	}
	s.record("minion.kill", map[string]interface{}{"worker_id": id}, "dead", "")
	return nil
}

// --- Bed Operations ---

// AddBedRequest describes a new bed.
type AddBedRequest struct {
	ID          string `json:"id"`
	Levels      int    `json:"levels"`
	Constructed bool   `json:"constructed"`
}

// AddBed registers a bed.
func (s *Service) AddBed(req AddBedRequest) error {
	if req.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	if err := s.roster.AddBed(req.ID, req.Levels, req.Constructed); err != nil {
		if errors.Is(err, roster.ErrDuplicateBed) {
			return fmt.Errorf("bed %s: %w", req.ID, ErrConflict)
		}
		return err
	}
	return nil
}

// ListBeds returns all beds.
func (s *Service) ListBeds() []roster.BedView {
	return s.roster.Beds()
}

// StateRequest updates construction and sabotage flags.
type StateRequest struct {
	Constructed bool `json:"constructed"`
	Sabotaged   bool `json:"sabotaged"`
}

// SetBedState updates a bed's flags.
func (s *Service) SetBedState(id string, req StateRequest) error {
	if err := s.roster.SetBedState(id, req.Constructed, req.Sabotaged); err != nil {
		return fmt.Errorf("bed %s: %w", id, ErrNotFound)
	}
	return nil
}

// DemolishBed removes a bed.
func (s *Service) DemolishBed(id string) error {
	if err := s.roster.DemolishBed(id); err != nil {
		return fmt.Errorf("bed %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Security Operations ---

// ReportEnemyRequest reports a hostile sighting.
type ReportEnemyRequest struct {
	ID       string      `json:"id"`
	Position models.Vec3 `json:"position"`
}

// ReportEnemyResponse carries the hostile's elimination task.
type ReportEnemyResponse struct {
	TaskID  string `json:"task_id"`
	Created bool   `json:"created"`
}

// ReportEnemy raises or refreshes an elimination task.
func (s *Service) ReportEnemy(req ReportEnemyRequest) (ReportEnemyResponse, error) {
	if req.ID == "" {
		return ReportEnemyResponse{}, fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	task, created := s.security.ReportEnemy(req.ID, req.Position)
	if created {
		s.record("enemy.report", map[string]interface{}{"enemy_id": req.ID, "position": req.Position}, "reported", task.ID())
	}
	return ReportEnemyResponse{TaskID: task.ID(), Created: created}, nil
}

// ListEnemies returns reported hostiles.
func (s *Service) ListEnemies() []security.EnemyView {
	return s.security.Enemies()
}

// KillEnemy reports a hostile's death.
func (s *Service) KillEnemy(id string) error {
	if err := s.security.ReportKill(id); err != nil {
		return fmt.Errorf("enemy %s: %w", id, ErrNotFound)
	}
	s.record("enemy.kill", map[string]interface{}{"enemy_id": id}, "killed", "")
	return nil
}

// AddEntranceRequest describes a constructed entrance.
type AddEntranceRequest struct {
	ID          string `json:"id"`
	OpenDelayMS int    `json:"open_delay_ms"`
}

// AddEntrance registers a constructed entrance.
func (s *Service) AddEntrance(req AddEntranceRequest) error {
	if req.ID == "" || req.OpenDelayMS < 0 {
		return fmt.Errorf("%w: id is required and open_delay_ms must not be negative", ErrInvalidRequest)
	}
	s.security.AddEntrance(security.NewEntrance(req.ID, time.Duration(req.OpenDelayMS)*time.Millisecond))
	return nil
}

// ListEntrances returns constructed entrances.
func (s *Service) ListEntrances() []security.EntranceView {
	return s.security.Entrances()
}

// RemoveEntrance drops a demolished entrance.
func (s *Service) RemoveEntrance(id string) error {
	if err := s.security.RemoveEntrance(id); err != nil {
		return fmt.Errorf("entrance %s: %w", id, ErrNotFound)
	}
	return nil
}

// PassRequest is a pass application.
type PassRequest struct {
	Applicant  string `json:"applicant"`
	EntranceID string `json:"entrance_id"`
}

// RequestPass queues an application and waits for its decision.
func (s *Service) RequestPass(ctx context.Context, req PassRequest) (security.Decision, error) {
	if req.Applicant == "" || req.EntranceID == "" {
		return security.Decision{}, fmt.Errorf("%w: applicant and entrance_id are required", ErrInvalidRequest)
	}
	result := s.security.Apply(ctx, req.Applicant, req.EntranceID)
	select {
	case approved := <-result:
		return security.Decision{Applicant: req.Applicant, EntranceID: req.EntranceID, Approved: approved}, nil
	case <-ctx.Done():
		return security.Decision{}, fmt.Errorf("waiting for pass decision: %w", ctx.Err())
	}
}

// RecordPassDecision journals a reviewed pass application.
func (s *Service) RecordPassDecision(d security.Decision) {
	outcome := "rejected"
	if d.Approved {
		outcome = "approved"
	}
	s.record("pass.review", map[string]interface{}{"applicant": d.Applicant, "entrance_id": d.EntranceID}, outcome, "")
}

// --- Workplace Operations ---

// AddWorkplaceRequest describes a new workplace.
type AddWorkplaceRequest struct {
	ID          string      `json:"id"`
	Position    models.Vec3 `json:"position"`
	Constructed bool        `json:"constructed"`
}

// AddWorkplace registers a workplace.
func (s *Service) AddWorkplace(req AddWorkplaceRequest) error {
	if req.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	if err := s.workplaces.Add(req.ID, req.Position, req.Constructed); err != nil {
		if errors.Is(err, workplace.ErrDuplicate) {
			return fmt.Errorf("workplace %s: %w", req.ID, ErrConflict)
		}
		return err
	}
	return nil
}

// ListWorkplaces returns all workplaces.
func (s *Service) ListWorkplaces() []workplace.View {
	return s.workplaces.List()
}

// SetWorkplaceState updates a workplace's flags.
func (s *Service) SetWorkplaceState(id string, req StateRequest) error {
	if err := s.workplaces.SetState(id, req.Constructed, req.Sabotaged); err != nil {
		return fmt.Errorf("workplace %s: %w", id, ErrNotFound)
	}
	return nil
}

// DemolishWorkplace removes a workplace and cancels its staffing task.
func (s *Service) DemolishWorkplace(id string) error {
	if err := s.workplaces.Demolish(id); err != nil {
		return fmt.Errorf("workplace %s: %w", id, ErrNotFound)
	}
	s.record("workplace.demolish", map[string]interface{}{"workplace_id": id}, "demolished", "")
	return nil
}

// --- Journal ---

// ListDecisions returns journalled decisions, newest first.
func (s *Service) ListDecisions(f store.DecisionFilter) ([]models.Decision, error) {
	if s.recorder == nil {
		return nil, nil
	}
	return s.recorder.List(f)
}
