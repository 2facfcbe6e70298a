// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research pipeline over HTTP: job submission,
// progress polling, SSE streaming, conversation history, and the report
// archive.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pdiddy/websight/internal/archive"
	"github.com/pdiddy/websight/internal/history"
	"github.com/pdiddy/websight/internal/progress"
	"github.com/pdiddy/websight/internal/research"
	"github.com/pdiddy/websight/pkg/types"
)

const userCookie = "websight_user"

// Researcher runs one research job to completion.
type Researcher interface {
	Research(ctx context.Context, query, priorContext string, hooks research.Hooks) types.Report
}

// Server routes API requests and owns the per-job goroutines.
type Server struct {
	router     chi.Router
	researcher Researcher
	tracker    *progress.Tracker
	history    *history.Store
	archive    *archive.Store
	logger     *log.Logger
}

// New assembles the HTTP layer over the given collaborators.
func New(r Researcher, tracker *progress.Tracker, hist *history.Store, arch *archive.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		researcher: r,
		tracker:    tracker,
		history:    hist,
		archive:    arch,
		logger:     logger,
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Route("/api", func(api chi.Router) {
		api.Post("/research", s.handleStartResearch)
		api.Get("/research/{jobID}", s.handleGetProgress)
		api.Get("/research/{jobID}/stream", s.handleStream)
		api.Get("/history", s.handleHistory)
		api.Post("/history/clear", s.handleClearHistory)
		api.Get("/reports", s.handleReports)
	})
	s.router = router
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// userID returns the caller's identity cookie, minting one when absent.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(userCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     userCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

type researchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleStartResearch(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	userID := s.userID(w, r)
	jobID := uuid.NewString()
	priorContext := s.history.Context(userID)

	s.tracker.Start(jobID, req.Query)
	s.logger.Printf("job %s started: %s", jobID, req.Query)
	go s.runJob(jobID, userID, req.Query, priorContext)

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// runJob drives one research job. Panics become the error terminal state
// so a wedged job never leaves pollers hanging.
func (s *Server) runJob(jobID, userID, query, priorContext string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("job %s panicked: %v", jobID, r)
			s.tracker.Fail(jobID, "internal error during research")
		}
	}()

	hooks := research.Hooks{
		QueryAnalyzed: func(types.QueryAnalysis) {
			s.tracker.Searching(jobID)
		},
		SourceStarted:   func(num, total int, url, title string) { s.tracker.SourceStarted(jobID, num, total, url, title) },
		SourceCompleted: func(num, total int, url, title string, rel float64) { s.tracker.SourceCompleted(jobID, num, total, url, title, rel) },
		SynthesisStart:  func() { s.tracker.Synthesizing(jobID) },
	}

	s.tracker.AnalyzingQuery(jobID)
	rep := s.researcher.Research(context.Background(), query, priorContext, hooks)

	s.history.Add(userID, query, rep.Text)

	// Only synthesized reports are archived; the no-result outcomes carry
	// no sources. Persistence happens before the terminal transition so a
	// complete job is always visible in history and the archive.
	if s.archive != nil && len(rep.Sources) > 0 {
		if _, err := s.archive.Save(context.Background(), rep); err != nil {
			s.logger.Printf("job %s: archiving report: %v", jobID, err)
		}
	}

	s.tracker.Complete(jobID, rep.Text)
	s.logger.Printf("job %s complete", jobID)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	rec, ok := s.tracker.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	ch, ok := s.tracker.Watch(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case <-r.Context().Done():
			return
		case rec, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(rec)
			if err != nil {
				s.logger.Printf("job %s: encoding snapshot: %v", jobID, err)
				return
			}
			if _, err := w.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
				return
			}
			if canFlush {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	writeJSON(w, http.StatusOK, s.history.List(userID))
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	s.history.Clear(userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive disabled")
		return
	}

	q := r.URL.Query().Get("q")
	var (
		reports []archive.ArchivedReport
		err     error
	)
	if q == "" {
		reports, err = s.archive.List(r.Context(), 0)
	} else {
		reports, err = s.archive.Search(r.Context(), q, 0)
	}
	if err != nil {
		s.logger.Printf("listing reports: %v", err)
		writeError(w, http.StatusInternalServerError, "archive query failed")
		return
	}
	if reports == nil {
		reports = []archive.ArchivedReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
