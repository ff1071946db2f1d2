package roster

import (
	"go.uber.org/zap"
)

// Bed is a sleeping place with one or more bunk levels.
type Bed struct {
	ID          string
	Levels      int
	Constructed bool
	Sabotaged   bool
	occupants   []string
}

// BedView is the JSON form of a bed.
type BedView struct {
	ID          string   `json:"id"`
	Levels      int      `json:"levels"`
	Constructed bool     `json:"constructed"`
	Sabotaged   bool     `json:"sabotaged"`
	Occupants   []string `json:"occupants"`
}

func (b *Bed) occupied() bool { return len(b.occupants) >= b.Levels }

// occupy takes the next free level and returns it.
func (b *Bed) occupy(minionID string) int {
	b.occupants = append(b.occupants, minionID)
	return len(b.occupants) - 1
}

func (b *Bed) vacate(minionID string) {
	for i, id := range b.occupants {
		if id == minionID {
			b.occupants = append(b.occupants[:i], b.occupants[i+1:]...)
			return
		}
	}
}

func (b *Bed) view() BedView {
	occ := make([]string, len(b.occupants))
	copy(occ, b.occupants)
	return BedView{
		ID:          b.ID,
		Levels:      b.Levels,
		Constructed: b.Constructed,
		Sabotaged:   b.Sabotaged,
		Occupants:   occ,
	}
}

// AddBed informs the roster of a new bed.
func (r *Roster) AddBed(id string, levels int, constructed bool) error {
	if levels < 1 {
		levels = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bedByID[id]; exists {
		return ErrDuplicateBed
	}
	b := &Bed{ID: id, Levels: levels, Constructed: constructed}
	r.beds = append(r.beds, b)
	r.bedByID[id] = b
	return nil
}

// SetBedState updates the construction and sabotage flags.
func (r *Roster) SetBedState(id string, constructed, sabotaged bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bedByID[id]
	if !ok {
		return ErrBedNotFound
	}
	b.Constructed = constructed
	b.Sabotaged = sabotaged
	return nil
}

// DemolishBed removes a bed and unassigns everyone sleeping in it.
func (r *Roster) DemolishBed(id string) error {
	r.mu.Lock()
	b, ok := r.bedByID[id]
	if !ok {
		r.mu.Unlock()
		return ErrBedNotFound
	}
	delete(r.bedByID, id)
	for i, cur := range r.beds {
		if cur == b {
			r.beds = append(r.beds[:i], r.beds[i+1:]...)
			break
		}
	}
	var evicted []*Minion
	for _, occupant := range b.occupants {
		if m, ok := r.byID[occupant]; ok {
			evicted = append(evicted, m)
		}
	}
	r.mu.Unlock()

	for _, m := range evicted {
		m.setSleeping(nil)
	}
	r.logger.Info("bed demolished", zap.String("bed_id", id), zap.Int("evicted", len(evicted)))
	return nil
}

// Beds returns all beds in registration order.
func (r *Roster) Beds() []BedView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BedView, 0, len(r.beds))
	for _, b := range r.beds {
		out = append(out, b.view())
	}
	return out
}

// AssignBed gives the first minion without a bed the first constructed,
// unoccupied, unsabotaged bed. It reports whether an assignment was made.
func (r *Roster) AssignBed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	var homeless *Minion
	for _, m := range r.minions {
		if m.Sleeping() == nil {
			homeless = m
			break
		}
	}
	if homeless == nil {
		return false
	}

	for _, b := range r.beds {
		if !b.Constructed || b.Sabotaged || b.occupied() {
			continue
		}
		level := b.occupy(homeless.ID())
		homeless.setSleeping(&Sleeping{BedID: b.ID, Level: level})
		r.logger.Debug("bed assigned",
			zap.String("minion_id", homeless.ID()),
			zap.String("bed_id", b.ID),
			zap.Int("level", level))
		return true
	}
	return false
}
