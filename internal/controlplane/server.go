package controlplane

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/roster"
	"github.com/fentz26/burrow/internal/store"
	"github.com/fentz26/burrow/internal/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Pinger checks the journal database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server provides the HTTP API for burrow.
type Server struct {
	service *Service
	db      Pinger
	addr    string
	logger  *zap.Logger
	router  chi.Router
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, db Pinger, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: service,
		db:      db,
		addr:    addr,
		logger:  logger,
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 75 * time.Second,
	}
	return s
}

// Handler returns the root router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(middleware.Timeout(60 * time.Second))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/scheduler/stats", s.handleStats)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.listTasks)
		r.Post("/", s.createTask)
		r.Get("/{id}", s.getTask)
		r.Post("/{id}/complete", s.completeTask)
		r.Post("/{id}/cancel", s.cancelTask)
	})

	r.Route("/minions", func(r chi.Router) {
		r.Get("/", s.listMinions)
		r.Post("/", s.addMinion)
		r.Get("/{id}", s.getMinion)
		r.Patch("/{id}", s.updateMinion)
		r.Post("/{id}/kill", s.killMinion)
	})

	r.Route("/beds", func(r chi.Router) {
		r.Get("/", s.listBeds)
		r.Post("/", s.addBed)
		r.Patch("/{id}", s.setBedState)
		r.Post("/{id}/demolish", s.demolishBed)
	})

	r.Route("/enemies", func(r chi.Router) {
		r.Get("/", s.listEnemies)
		r.Post("/", s.reportEnemy)
		r.Post("/{id}/kill", s.killEnemy)
	})

	r.Route("/entrances", func(r chi.Router) {
		r.Get("/", s.listEntrances)
		r.Post("/", s.addEntrance)
		r.Delete("/{id}", s.removeEntrance)
	})
	r.Post("/passes", s.requestPass)

	r.Route("/workplaces", func(r chi.Router) {
		r.Get("/", s.listWorkplaces)
		r.Post("/", s.addWorkplace)
		r.Patch("/{id}", s.setWorkplaceState)
		r.Post("/{id}/demolish", s.demolishWorkplace)
	})

	r.Get("/decisions", s.listDecisions)
	return r
}

// Start starts the HTTP server. It returns http.ErrServerClosed once
// Shutdown has been called, even if Shutdown ran first.
func (s *Server) Start() error {
	s.logger.Info("starting burrow daemon", zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// observe wraps each request in a server span and logs its outcome.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := tracing.StartServerSpan(r.Context(), r.Method+" "+r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		span.SetAttributes(map[string]string{
			"http.method": r.Method,
			"http.route":  route,
		}).SetInt("http.status_code", status)
		span.SetStatusFromHTTPCode(status)
		span.End(nil)

		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
	State   string `json:"scheduler"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
		State:   s.service.Stats().State,
	}
	status := http.StatusOK
	if s.db == nil {
		resp.DB = "disabled"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			resp.OK = false
			resp.DB = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Stats())
}

// --- Task Handlers ---

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListTasks(r.URL.Query().Get("state")))
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := s.service.CreateTask(req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.service.GetTask(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CompleteTask(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	writeStatus(w, "completed")
}

func (s *Server) cancelTask(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelTask(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	writeStatus(w, "cancelled")
}

// --- Minion Handlers ---

func (s *Server) listMinions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListMinions())
}

func (s *Server) addMinion(w http.ResponseWriter, r *http.Request) {
	var req AddMinionRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := s.service.AddMinion(req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) getMinion(w http.ResponseWriter, r *http.Request) {
	m, err := s.service.GetMinion(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) updateMinion(w http.ResponseWriter, r *http.Request) {
	var patch roster.StatusPatch
	if !decode(w, r, &patch) {
		return
	}
	m, err := s.service.UpdateMinion(chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) killMinion(w http.ResponseWriter, r *http.Request) {
	if err := s.service.KillMinion(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	writeStatus(w, "dead")
}

// --- Bed Handlers ---

func (s *Server) listBeds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListBeds())
}

func (s *Server) addBed(w http.ResponseWriter, r *http.Request) {
	var req AddBedRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.service.AddBed(req); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

func (s *Server) setBedState(w http.ResponseWriter, r *http.Request) {
	var req StateRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.service.SetBedState(chi.URLParam(r, "id"), req); err != nil {
		s.fail(w, err)
		return
	}
	writeStatus(w, "updated")
}

func (s *Server) demolishBed(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DemolishBed(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	writeStatus(w, "demolished")
}

// --- Security Handlers ---

func (s *Server) listEnemies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListEnemies())
}

func (s *Server) reportEnemy(w http.ResponseWriter, r *http.Request) {
	var req ReportEnemyRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.service.ReportEnemy(req)
	if err != nil {
		s.fail(w, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) killEnemy(w http.ResponseWriter, r *http.Request) {
	if err := s.service.KillEnemy(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	writeStatus(w, "killed")
}

func (s *Server) listEntrances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListEntrances())
}

func (s *Server) addEntrance(w http.ResponseWriter, r *http.Request) {
	var req AddEntranceRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.service.AddEntrance(req); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

func (s *Server) removeEntrance(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveEntrance(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	writeStatus(w, "removed")
}

func (s *Server) requestPass(w http.ResponseWriter, r *http.Request) {
	var req PassRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := s.service.RequestPass(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// --- Workplace Handlers ---

func (s *Server) listWorkplaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListWorkplaces())
}

func (s *Server) addWorkplace(w http.ResponseWriter, r *http.Request) {
	var req AddWorkplaceRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.service.AddWorkplace(req); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

func (s *Server) setWorkplaceState(w http.ResponseWriter, r *http.Request) {
	var req StateRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.service.SetWorkplaceState(chi.URLParam(r, "id"), req); err != nil {
		s.fail(w, err)
		return
	}
	writeStatus(w, "updated")
}

func (s *Server) demolishWorkplace(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DemolishWorkplace(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	writeStatus(w, "demolished")
}

// --- Journal Handlers ---

func (s *Server) listDecisions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.DecisionFilter{Action: q.Get("action"), TaskID: q.Get("task_id")}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = limit
	}
	decisions, err := s.service.ListDecisions(f)
	if err != nil {
		s.fail(w, err)
		return
	}
	if decisions == nil {
		decisions = []models.Decision{}
	}
	writeJSON(w, http.StatusOK, decisions)
}

// --- Helpers ---

// fail maps service errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrTaskFinished), errors.Is(err, ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, status string) {
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
