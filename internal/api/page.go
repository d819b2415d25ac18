package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/terrain-web/internal/embedpage"
	"github.com/nerrad567/terrain-web/internal/launchlog"
)

// handlePage renders the embed page for the request's query string.
// Any query string is accepted.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	params := embedpage.ParseQuery(r.URL.RawQuery)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := s.page.RenderTo(w, params); err != nil {
		s.logger.Debug("writing page failed", "error", err, "request_id", requestIDFrom(r.Context()))
		return
	}
	s.renders.Add(1)

	s.recordLaunch(r, params)
}

// handlePageHead answers HEAD for the page with the headers a GET would
// carry. It is not a launch, so nothing is counted or recorded.
func (s *Server) handlePageHead(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	_, _ = s.page.RenderTo(&buf, embedpage.ParseQuery(r.URL.RawQuery)) //nolint:errcheck // bytes.Buffer writes do not fail

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
}

// recordLaunch hands the render to the launch recorder. Only the names of
// forwarded parameters are recorded.
func (s *Server) recordLaunch(r *http.Request, params *embedpage.Params) {
	forwarded := s.page.Forwarded(params)
	keys := make([]string, 0, len(forwarded))
	for _, p := range forwarded {
		keys = append(keys, p.Key)
	}

	ev := &launchlog.Event{
		RequestID:      requestIDFrom(r.Context()),
		PageID:         s.pageID(),
		RemoteAddr:     r.RemoteAddr,
		UserAgent:      r.UserAgent(),
		ForwardedKeys:  keys,
		ForwardedCount: len(keys),
		EscapeMode:     string(s.page.Options().EscapeMode),
	}

	if err := s.recorder.Record(context.WithoutCancel(r.Context()), ev); err != nil {
		s.logger.Warn("recording launch failed",
			"error", err,
			"request_id", ev.RequestID,
		)
	}
}

// pageID identifies this page in launch records.
func (s *Server) pageID() string {
	if s.site.ID != "" {
		return s.site.ID
	}
	return s.page.Options().InstanceID
}
