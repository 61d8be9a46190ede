package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jobpulse/jobpulse-go/internal/logging"
	"github.com/jobpulse/jobpulse-go/internal/model"
	"github.com/jobpulse/jobpulse-go/internal/page"
	"github.com/jobpulse/jobpulse-go/internal/storage"
)

// handleProfileGet handles GET /api/users/{id}/profile.
func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	p, err := s.profiles.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		logging.FromContext(r.Context()).Error("profile lookup failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleProfilePut handles PUT /api/users/{id}/profile. The body replaces
// the profile wholesale; the embedding is recomputed only when the
// matching-relevant fields actually changed.
func (s *Server) handleProfilePut(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := s.profiles.Update(r.Context(), model.UserProfile{
		UserID:     userID,
		Tags:       req.Tags,
		Experience: req.Experience,
		SalaryMin:  req.SalaryMin,
		SalaryMax:  req.SalaryMax,
		Currency:   req.Currency,
		WorkType:   req.WorkType,
		City:       req.City,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("profile update failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleMatches handles GET /api/users/{id}/matches?page=N&pageSize=S.
// The matcher produces one ordered recommendation list; the page builder
// windows it, so the matcher is asked for enough results to cover the
// requested page.
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	pageNum, pageSize, ok := s.pagination(w, r)
	if !ok {
		return
	}

	start := time.Now()
	matches, err := s.profiles.Matches(r.Context(), userID, pageNum*pageSize)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		logging.FromContext(r.Context()).Error("match query failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.metrics.matchDurationSeconds.Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, page.Window(matches, pageNum, pageSize))
}

// handleSavedList handles GET /api/users/{id}/saved.
func (s *Server) handleSavedList(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	pageNum, pageSize, ok := s.pagination(w, r)
	if !ok {
		return
	}

	items, total, err := s.profiles.Saved(r.Context(), userID, pageNum, pageSize)
	if err != nil {
		logging.FromContext(r.Context()).Error("saved postings query failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, page.New(emptyIfNil(items), total, pageNum, pageSize))
}

// handleSavedAdd handles POST /api/users/{id}/saved/{jobID}.
func (s *Server) handleSavedAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	jobID, ok := pathUUID(w, r, "jobID")
	if !ok {
		return
	}

	if err := s.profiles.Save(r.Context(), userID, jobID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job posting not found")
			return
		}
		logging.FromContext(r.Context()).Error("save posting failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSavedRemove handles DELETE /api/users/{id}/saved/{jobID}.
func (s *Server) handleSavedRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	jobID, ok := pathUUID(w, r, "jobID")
	if !ok {
		return
	}

	if err := s.profiles.Unsave(r.Context(), userID, jobID); err != nil {
		logging.FromContext(r.Context()).Error("unsave posting failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathUUID parses a UUID path segment, writing a 400 itself when it is
// malformed. The second return is false when the response was written.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
