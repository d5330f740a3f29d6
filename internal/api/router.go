package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/wbkost/backend/pkg/catalog"
	"github.com/wbkost/backend/pkg/filevault"
	"github.com/wbkost/backend/pkg/social"
)

// ReadinessCheck reports whether a downstream dependency is reachable.
type ReadinessCheck func(r *http.Request) error

// NewRouter builds the HTTP router: public health endpoints plus the
// JWT-protected API surface.
func NewRouter(
	tokenAuth *jwtauth.JWTAuth,
	files filevault.Service,
	posts social.Service,
	products catalog.Service,
	ready ReadinessCheck,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"status": "ok"})
	})
	r.Get("/healthz/ready", func(w http.ResponseWriter, req *http.Request) {
		if ready != nil {
			if err := ready(req); err != nil {
				respondError(w, req, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		render.JSON(w, req, map[string]string{"status": "ready"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator)

		r.Mount("/files", NewFilesHandler(files, products).Routes())
		r.Mount("/posts", NewPostsHandler(posts).Routes())
		r.Mount("/products", NewProductsHandler(products).Routes())
	})

	return r
}
