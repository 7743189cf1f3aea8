package catalog

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

const readyTimeout = 1 * time.Second

type Server struct {
	Catalog *Catalog
	Log     *zap.Logger

	// RequireAdmin guards the write routes. When nil they are not mounted and
	// the catalog is served read-only.
	RequireAdmin func(http.Handler) http.Handler
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.provide)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Get("/categories", s.listCategories)
	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)

	if s.RequireAdmin != nil {
		r.Group(func(ar chi.Router) {
			ar.Use(s.RequireAdmin)
			ar.Post("/products", s.add)
			ar.Post("/products/reset", s.reset)
			ar.Put("/products/{id}", s.update)
			ar.Delete("/products/{id}", s.delete)
		})
	}

	return r
}

// provide puts the catalog in the request context for the handlers below.
func (s *Server) provide(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Catalog != nil {
			r = r.WithContext(NewContext(r.Context(), s.Catalog))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	c := MustFromContext(r.Context())
	if c.IsLoading() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "loading", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, MustFromContext(r.Context()).Categories())
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	c := MustFromContext(r.Context())

	q := r.URL.Query()
	if q.Has("category") {
		kit.WriteJSON(w, http.StatusOK, c.ProductsByCategory(q.Get("category")))
		return
	}
	kit.WriteJSON(w, http.StatusOK, c.Products())
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := MustFromContext(r.Context()).GetProduct(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := kit.DecodeJSON(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p := MustFromContext(r.Context()).AddProduct(r.Context(), in)
	s.logger().Info("product added", zap.String("id", p.ID), zap.String("category", p.Category))
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	c := MustFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var in ProductInput
	if err := kit.DecodeJSON(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	// UpdateProduct cannot report a missing id, so check first.
	if _, ok := c.GetProduct(id); !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	c.UpdateProduct(r.Context(), id, in)

	p, ok := c.GetProduct(id)
	if !ok {
		// Deleted concurrently.
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	s.logger().Info("product updated", zap.String("id", id))
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	MustFromContext(r.Context()).DeleteProduct(r.Context(), id)
	s.logger().Info("product deleted", zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	c := MustFromContext(r.Context())

	c.ClearProductsData(r.Context())
	s.logger().Info("catalog reset to seed")
	kit.WriteJSON(w, http.StatusOK, c.Products())
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
