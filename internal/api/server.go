package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/brewmarsh/nokari/internal/core"
	"github.com/brewmarsh/nokari/internal/store"
	"github.com/brewmarsh/nokari/internal/tasks"
)

// taskQueue is the slice of the task queue the API needs.
type taskQueue interface {
	Submit(ctx context.Context, name string, args map[string]string) (string, error)
	GetStatus(ctx context.Context, id string) (tasks.Status, error)
}

type Server struct {
	router  *chi.Mux
	store   *store.Store
	service *core.Service
	queue   taskQueue
}

func NewServer(st *store.Store, service *core.Service, queue *tasks.Queue) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		store:   st,
		service: service,
		queue:   queue,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	}))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)

		r.Get("/jobs", s.handleListJobs)
		r.Post("/jobs/find-similar", s.handleFindSimilar)
		r.Post("/jobs/rescrape", s.handleRescrapeJob)

		r.Post("/scrape", s.handleTriggerScrape)
		r.Get("/scrape/history", s.handleScrapeHistory)

		r.Get("/tasks/{id}", s.handleTaskStatus)

		r.Get("/titles", s.handleListTitles)
		r.Get("/domains", s.handleListDomains)
		r.Get("/blocked-patterns", s.handleListBlockedPatterns)
	})
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
