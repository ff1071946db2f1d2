package security

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entrance is a base entrance with doors that take a while to open.
type Entrance struct {
	id        string
	openDelay time.Duration

	mu       sync.Mutex
	openedAt *time.Time
}

// NewEntrance creates a closed entrance whose doors open openDelay after Open.
func NewEntrance(id string, openDelay time.Duration) *Entrance {
	return &Entrance{id: id, openDelay: openDelay}
}

func (e *Entrance) ID() string { return e.id }

// Open starts opening the doors. Opening an open entrance is a no-op.
func (e *Entrance) Open() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.openedAt == nil {
		now := time.Now()
		e.openedAt = &now
	}
}

// Close shuts the doors.
func (e *Entrance) Close() {
	e.mu.Lock()
	e.openedAt = nil
	e.mu.Unlock()
}

// DoorsOpen reports whether the doors have finished opening.
func (e *Entrance) DoorsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openedAt != nil && time.Since(*e.openedAt) >= e.openDelay
}

// EntranceView is the JSON form of an entrance.
type EntranceView struct {
	ID        string        `json:"id"`
	OpenDelay time.Duration `json:"open_delay"`
	DoorsOpen bool          `json:"doors_open"`
}

// Decision is the outcome of a pass application.
type Decision struct {
	Applicant  string `json:"applicant"`
	EntranceID string `json:"entrance_id"`
	Approved   bool   `json:"approved"`
}

type application struct {
	ctx        context.Context
	applicant  string
	entranceID string
	result     chan bool
}

type passDesk struct {
	mu        sync.Mutex
	entrances map[string]*Entrance
	queue     []*application
	listeners map[int]func(Decision)
	nextKey   int
}

func newPassDesk() *passDesk {
	return &passDesk{
		entrances: make(map[string]*Entrance),
		listeners: make(map[int]func(Decision)),
	}
}

// UpdateEntrances replaces the set of constructed entrances.
func (c *Coordinator) UpdateEntrances(entrances ...*Entrance) {
	c.passes.mu.Lock()
	defer c.passes.mu.Unlock()
	c.passes.entrances = make(map[string]*Entrance, len(entrances))
	for _, e := range entrances {
		c.passes.entrances[e.ID()] = e
	}
}

// AddEntrance adds a constructed entrance.
func (c *Coordinator) AddEntrance(e *Entrance) {
	c.passes.mu.Lock()
	c.passes.entrances[e.ID()] = e
	c.passes.mu.Unlock()
}

// RemoveEntrance drops a demolished entrance.
func (c *Coordinator) RemoveEntrance(id string) error {
	c.passes.mu.Lock()
	defer c.passes.mu.Unlock()
	if _, ok := c.passes.entrances[id]; !ok {
		return ErrUnknownEntrance
	}
	delete(c.passes.entrances, id)
	return nil
}

// Entrances lists constructed entrances sorted by id.
func (c *Coordinator) Entrances() []EntranceView {
	c.passes.mu.Lock()
	out := make([]EntranceView, 0, len(c.passes.entrances))
	for _, e := range c.passes.entrances {
		out = append(out, EntranceView{ID: e.ID(), OpenDelay: e.openDelay, DoorsOpen: e.DoorsOpen()})
	}
	c.passes.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Apply queues a pass application. The returned channel receives the decision
// once the application is reviewed and, if approved, the doors are open. An
// application whose ctx is done before review is withdrawn: it is answered
// with a rejection and never opens an entrance.
func (c *Coordinator) Apply(ctx context.Context, applicant, entranceID string) <-chan bool {
	app := &application{ctx: ctx, applicant: applicant, entranceID: entranceID, result: make(chan bool, 1)}
	c.passes.mu.Lock()
	c.passes.queue = append(c.passes.queue, app)
	c.passes.mu.Unlock()
	return app.result
}

// OnDecision registers a listener for application outcomes.
func (c *Coordinator) OnDecision(fn func(Decision)) (unsubscribe func()) {
	c.passes.mu.Lock()
	defer c.passes.mu.Unlock()
	key := c.passes.nextKey
	c.passes.nextKey++
	c.passes.listeners[key] = fn
	return func() {
		c.passes.mu.Lock()
		delete(c.passes.listeners, key)
		c.passes.mu.Unlock()
	}
}

// review approves an application only for a constructed entrance.
func (c *Coordinator) review(app *application) (*Entrance, bool) {
	c.passes.mu.Lock()
	defer c.passes.mu.Unlock()
	e, ok := c.passes.entrances[app.entranceID]
	return e, ok
}

// HandleNext reviews the oldest queued application. It reports whether one was
// handled. An approved application opens its entrance and waits for the doors
// before the result is delivered; ctx cancellation delivers a rejection.
func (c *Coordinator) HandleNext(ctx context.Context) bool {
	c.passes.mu.Lock()
	if len(c.passes.queue) == 0 {
		c.passes.mu.Unlock()
		return false
	}
	app := c.passes.queue[0]
	c.passes.queue = c.passes.queue[1:]
	c.passes.mu.Unlock()

	if app.ctx.Err() != nil {
		app.result <- false
		close(app.result)
		c.logger.Debug("pass application withdrawn",
			zap.String("applicant", app.applicant),
			zap.String("entrance_id", app.entranceID))
		return true
	}

	entrance, approved := c.review(app)
	if approved {
		entrance.Open()
		if err := c.waitDoors(ctx, app.ctx, entrance); err != nil {
			approved = false
		}
	}

	app.result <- approved
	close(app.result)

	c.logger.Info("pass application reviewed",
		zap.String("applicant", app.applicant),
		zap.String("entrance_id", app.entranceID),
		zap.Bool("approved", approved))

	d := Decision{Applicant: app.applicant, EntranceID: app.entranceID, Approved: approved}
	for _, fn := range c.decisionListeners() {
		fn(d)
	}
	return true
}

func (c *Coordinator) waitDoors(ctx, caller context.Context, e *Entrance) error {
	ticker := time.NewTicker(c.config.DoorPollInterval)
	defer ticker.Stop()
	for !e.DoorsOpen() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-caller.Done():
			return caller.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (c *Coordinator) decisionListeners() []func(Decision) {
	c.passes.mu.Lock()
	defer c.passes.mu.Unlock()
	out := make([]func(Decision), 0, len(c.passes.listeners))
	for i := 0; i < c.passes.nextKey; i++ {
		if fn, ok := c.passes.listeners[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// Run reviews queued applications until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.config.PassInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for c.HandleNext(ctx) {
			}
		}
	}
}
