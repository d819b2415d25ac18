package api

import (
	"net/http"

	"github.com/nerrad567/terrain-web/internal/embedpage"
)

// InvocationResponse is the plugin call the page would make.
type InvocationResponse struct {
	Function string           `json:"function"`
	Params   []embedpage.Pair `json:"params"`
}

// handleInvocation returns the invocation parameter list for the query
// string as JSON. Values are raw; JSON encoding is the only escaping.
func (s *Server) handleInvocation(w http.ResponseWriter, r *http.Request) {
	params := embedpage.ParseQuery(r.URL.RawQuery)

	writeJSON(w, http.StatusOK, InvocationResponse{
		Function: embedpage.BootstrapFunction,
		Params:   s.page.Invocation(params),
	})
}
