package obs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RoutePattern returns the matched chi route pattern for the request, or ""
// when routing has not resolved yet. Middleware mounted on the chi mux sees
// the pattern after calling next.ServeHTTP because the route context is
// shared and mutated in place during routing.
func RoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}
