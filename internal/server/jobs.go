package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jobpulse/jobpulse-go/internal/logging"
	"github.com/jobpulse/jobpulse-go/internal/model"
	"github.com/jobpulse/jobpulse-go/internal/page"
)

// recentWindows is the set of look-back windows the recent-jobs endpoint
// accepts, in days.
var recentWindows = map[int]bool{3: true, 7: true, 14: true, 30: true}

// defaultRecentWindow is the look-back window used when ?days is absent.
const defaultRecentWindow = 7

// maxPageSize caps ?pageSize on all list endpoints.
const maxPageSize = 100

// handleRecentJobs handles GET /api/jobs/recent?days=N&page=P&pageSize=S.
// days must be one of 3, 7, 14, or 30.
func (s *Server) handleRecentJobs(w http.ResponseWriter, r *http.Request) {
	days := defaultRecentWindow
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !recentWindows[n] {
			writeError(w, http.StatusBadRequest, "days must be one of 3, 7, 14, 30")
			return
		}
		days = n
	}
	pageNum, pageSize, ok := s.pagination(w, r)
	if !ok {
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	items, total, err := s.store.RecentPostings(r.Context(), since, pageNum, pageSize)
	if err != nil {
		logging.FromContext(r.Context()).Error("recent postings query failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, page.New(emptyIfNil(items), total, pageNum, pageSize))
}

// pagination parses ?page and ?pageSize, writing a 400 itself when either
// is malformed. The third return is false when the response was written.
func (s *Server) pagination(w http.ResponseWriter, r *http.Request) (pageNum, pageSize int, ok bool) {
	pageNum, pageSize = 1, s.cfg.PageSize

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return 0, 0, false
		}
		pageNum = n
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			writeError(w, http.StatusBadRequest, "pageSize must be between 1 and 100")
			return 0, 0, false
		}
		pageSize = n
	}
	return pageNum, pageSize, true
}

// emptyIfNil normalizes a nil posting slice so list responses always
// serialize items as [] rather than null.
func emptyIfNil(items []model.JobPosting) []model.JobPosting {
	if items == nil {
		return []model.JobPosting{}
	}
	return items
}
