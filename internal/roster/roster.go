package roster

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fentz26/burrow/internal/tasks"
	"go.uber.org/zap"
)

var (
	ErrMinionNotFound = errors.New("minion not found")
	ErrBedNotFound    = errors.New("bed not found")
	ErrDuplicateBed   = errors.New("bed already registered")
)

// DefaultBedInterval is the pause between bed assignment attempts.
const DefaultBedInterval = 1100 * time.Millisecond

// Roster is the colony's worker pool.
type Roster struct {
	logger *zap.Logger

	mu      sync.RWMutex
	minions []*Minion
	byID    map[string]*Minion
	beds    []*Bed
	bedByID map[string]*Bed

	listenersMu  sync.Mutex
	nextListener int
	added        map[int]func([]*Minion)
	removed      map[int]func(*Minion)
}

// New creates an empty roster.
func New(logger *zap.Logger) *Roster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roster{
		logger:  logger,
		byID:    make(map[string]*Minion),
		bedByID: make(map[string]*Bed),
		added:   make(map[int]func([]*Minion)),
		removed: make(map[int]func(*Minion)),
	}
}

// Register adds minions to the pool and notifies MinionsAdded listeners.
func (r *Roster) Register(minions ...*Minion) {
	if len(minions) == 0 {
		return
	}
	r.mu.Lock()
	added := make([]*Minion, 0, len(minions))
	for _, m := range minions {
		if _, exists := r.byID[m.ID()]; exists {
			continue
		}
		r.minions = append(r.minions, m)
		r.byID[m.ID()] = m
		added = append(added, m)
	}
	r.mu.Unlock()

	if len(added) == 0 {
		return
	}
	r.logger.Info("minions registered", zap.Int("count", len(added)))
	for _, fn := range r.addedListeners() {
		fn(added)
	}
}

// Get looks a minion up by id.
func (r *Roster) Get(id string) (*Minion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	return m, ok
}

// List returns the living minions in registration order.
func (r *Roster) List() []*Minion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Minion, len(r.minions))
	copy(out, r.minions)
	return out
}

// Executors enumerates the pool for the scheduler.
func (r *Roster) Executors() []tasks.Executor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tasks.Executor, 0, len(r.minions))
	for _, m := range r.minions {
		out = append(out, m)
	}
	return out
}

// Kill records a minion's death: it leaves the pool, vacates its bed and
// MinionRemoved listeners are notified.
func (r *Roster) Kill(id string) error {
	r.mu.Lock()
	m, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return ErrMinionNotFound
	}
	delete(r.byID, id)
	for i, cur := range r.minions {
		if cur == m {
			r.minions = append(r.minions[:i], r.minions[i+1:]...)
			break
		}
	}
	if s := m.Sleeping(); s != nil {
		if bed, ok := r.bedByID[s.BedID]; ok {
			bed.vacate(id)
		}
	}
	r.mu.Unlock()

	m.die()
	r.logger.Info("minion died", zap.String("minion_id", id))
	for _, fn := range r.removedListeners() {
		fn(m)
	}
	return nil
}

// OnMinionsAdded registers a listener for new minions.
func (r *Roster) OnMinionsAdded(fn func([]*Minion)) (unsubscribe func()) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	key := r.nextListener
	r.nextListener++
	r.added[key] = fn
	return func() {
		r.listenersMu.Lock()
		delete(r.added, key)
		r.listenersMu.Unlock()
	}
}

// OnMinionRemoved registers a listener for dead minions.
func (r *Roster) OnMinionRemoved(fn func(*Minion)) (unsubscribe func()) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	key := r.nextListener
	r.nextListener++
	r.removed[key] = fn
	return func() {
		r.listenersMu.Lock()
		delete(r.removed, key)
		r.listenersMu.Unlock()
	}
}

func (r *Roster) addedListeners() []func([]*Minion) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	out := make([]func([]*Minion), 0, len(r.added))
	for i := 0; i < r.nextListener; i++ {
		if fn, ok := r.added[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (r *Roster) removedListeners() []func(*Minion) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	out := make([]func(*Minion), 0, len(r.removed))
	for i := 0; i < r.nextListener; i++ {
		if fn, ok := r.removed[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// Run assigns beds every interval until ctx is done.
func (r *Roster) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultBedInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.AssignBed()
		}
	}
}
