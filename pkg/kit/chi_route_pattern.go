package kit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RoutePatternOrPath labels a request by its chi route pattern, so
// /products/{id} is one series rather than one per id.
func RoutePatternOrPath(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	if rp := rctx.RoutePattern(); rp != "" {
		return rp
	}
	return r.URL.Path
}
