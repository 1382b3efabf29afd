// Package status exposes the health and last-cycle report over HTTP.
package status

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// Tracker keeps the latest cycle report. It is written by the cycle
// goroutine and read by HTTP handlers.
type Tracker struct {
	mu        sync.RWMutex
	startedAt time.Time
	cycles    int
	last      *models.CycleReport
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{startedAt: time.Now().UTC()}
}

// RecordCycle stores report as the latest one
func (t *Tracker) RecordCycle(report models.CycleReport) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cycles++
	r := report
	t.last = &r
}

// Last returns a copy of the latest report and the number of cycles seen
func (t *Tracker) Last() (*models.CycleReport, int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return nil, t.cycles
	}
	r := *t.last
	return &r, t.cycles
}

// StartedAt returns when the tracker was created
func (t *Tracker) StartedAt() time.Time {
	return t.startedAt
}

// Sources supplies live values owned by other components. Any may be nil.
type Sources struct {
	SchedulerState func() string
	DedupSize      func() int
	Quota          func() *models.RateLimits
}

// Snapshot is the /status payload
type Snapshot struct {
	Scheduler string              `json:"scheduler"`
	StartedAt time.Time           `json:"started_at"`
	Cycles    int                 `json:"cycles"`
	LastCycle *models.CycleReport `json:"last_cycle,omitempty"`
	DedupSize *int                `json:"dedup_size,omitempty"`
	Quota     *models.RateLimits  `json:"quota,omitempty"`
}

// Server serves /health and /status
type Server struct {
	tracker *Tracker
	sources Sources
	origins []string
	server  *http.Server
	logger  zerolog.Logger
}

// NewServer creates a status server listening on addr. Browsers may read it
// from allowedOrigins, or from any origin when none are given.
func NewServer(addr string, tracker *Tracker, sources Sources, allowedOrigins ...string) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	s := &Server{
		tracker: tracker,
		sources: sources,
		origins: allowedOrigins,
		logger:  log.With().Str("component", "status").Logger(),
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	return r
}

// Start serves in the background until Shutdown
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("status server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("status server failed")
		}
	}()
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()

	data, err := sonic.Marshal(snap)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode status")
		http.Error(w, "encode status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Snapshot assembles the current status
func (s *Server) Snapshot() Snapshot {
	last, cycles := s.tracker.Last()

	snap := Snapshot{
		Scheduler: "IDLE",
		StartedAt: s.tracker.StartedAt(),
		Cycles:    cycles,
		LastCycle: last,
	}
	if s.sources.SchedulerState != nil {
		snap.Scheduler = s.sources.SchedulerState()
	}
	if s.sources.DedupSize != nil {
		n := s.sources.DedupSize()
		snap.DedupSize = &n
	}
	if s.sources.Quota != nil {
		snap.Quota = s.sources.Quota()
	}
	return snap
}
