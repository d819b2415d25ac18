package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/terrain-web/internal/launchlog"
)

// handleListLaunches returns recorded launches, newest first.
//
// Query parameters: limit (default 50, max 200), offset, page_id.
func (s *Server) handleListLaunches(w http.ResponseWriter, r *http.Request) {
	if s.launches == nil {
		writeNotFound(w, "launch log is disabled")
		return
	}

	q := r.URL.Query()
	filter := launchlog.Filter{PageID: q.Get("page_id")}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeBadRequest(w, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeBadRequest(w, "offset must be a non-negative integer")
		return
	}

	result, err := s.launches.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing launches failed", "error", err, "request_id", requestIDFrom(r.Context()))
		writeInternalError(w, "failed to list launches")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// intParam parses an optional non-negative integer. Empty means 0.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
