package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brewmarsh/nokari/internal/core"
	"github.com/brewmarsh/nokari/internal/observability"
	"github.com/brewmarsh/nokari/internal/store"
	"github.com/brewmarsh/nokari/internal/tasks"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, observability.Snapshot())
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	q := r.URL.Query()
	limit := defaultLimit
	offset := 0

	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 20)

	jobs, err := s.store.ListJobs(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch jobs: "+err.Error())
		return
	}
	if jobs == nil {
		jobs = []store.JobPosting{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  jobs,
		"limit":  limit,
		"offset": offset,
	})
}

type FindSimilarRequest struct {
	Link     string  `json:"link"`
	TopK     int     `json:"top_k"`
	MinScore float64 `json:"min_score"`
}

func (s *Server) handleFindSimilar(w http.ResponseWriter, r *http.Request) {
	var req FindSimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Link == "" {
		respondError(w, http.StatusBadRequest, "link is required")
		return
	}

	matches, err := s.service.FindSimilar(r.Context(), req.Link, req.TopK, req.MinScore)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusNotFound, "Job not found")
		case errors.Is(err, core.ErrNoEmbedding):
			respondError(w, http.StatusUnprocessableEntity, "Job has no embedding yet")
		default:
			respondError(w, http.StatusInternalServerError, "Similarity search failed: "+err.Error())
		}
		return
	}
	if matches == nil {
		matches = []core.SimilarJob{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"link":    req.Link,
		"matches": matches,
	})
}

type RescrapeRequest struct {
	Link string `json:"link"`
}

func (s *Server) handleRescrapeJob(w http.ResponseWriter, r *http.Request) {
	var req RescrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Link == "" {
		respondError(w, http.StatusBadRequest, "link is required")
		return
	}

	if _, err := s.store.GetJobByLink(r.Context(), req.Link); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to look up job: "+err.Error())
		return
	}

	id, err := s.queue.Submit(r.Context(), core.TaskJobRescrape, map[string]string{"link": req.Link})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to submit task: "+err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

type TriggerScrapeRequest struct {
	Title string `json:"title"`
	Days  int    `json:"days"`
}

func (s *Server) handleTriggerScrape(w http.ResponseWriter, r *http.Request) {
	// an absent body means a full curated run; EOF covers chunked
	// requests that carry no payload
	var req TriggerScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	args := map[string]string{"requested_by": "api"}
	if req.Title != "" {
		args["title"] = req.Title
	}
	if req.Days > 0 {
		args["days"] = strconv.Itoa(req.Days)
	}

	id, err := s.queue.Submit(r.Context(), core.TaskDiscoveryRun, args)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to submit task: "+err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func (s *Server) handleScrapeHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := parsePagination(r, 50)

	entries, err := s.store.ListScrapeHistory(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch history: "+err.Error())
		return
	}
	if entries == nil {
		entries = []store.ScrapeHistory{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": entries,
		"limit": limit,
	})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := s.queue.GetStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to fetch task: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) respondStrings(w http.ResponseWriter, items []string, err error) {
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch list: "+err.Error())
		return
	}
	if items == nil {
		items = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleListTitles(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListSeedTitles(r.Context())
	s.respondStrings(w, items, err)
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListDomains(r.Context())
	s.respondStrings(w, items, err)
}

func (s *Server) handleListBlockedPatterns(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListBlockedPatterns(r.Context())
	s.respondStrings(w, items, err)
}
