package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/clubhub/member-portal/internal/access"
	"github.com/clubhub/member-portal/internal/auth"
	"github.com/clubhub/member-portal/internal/communities"
	"github.com/clubhub/member-portal/internal/identity"
	"github.com/clubhub/member-portal/internal/members"
	"github.com/clubhub/member-portal/internal/observability"
	"github.com/clubhub/member-portal/internal/platform/httpx"
	"github.com/clubhub/member-portal/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Access             *access.Engine
	AuthHandler        *auth.Handler
	MembersHandler     *members.Handler
	CommunitiesHandler *communities.Handler
	Metrics            *observability.Metrics
	Static             fs.FS
}

// NewRouter constructs the chi.Router with portal defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Access:  params.Access,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"service":       "member-portal",
			"authenticated": identity.FromContext(r.Context()) != nil,
		})
	})

	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r)
	}
	if params.MembersHandler != nil {
		r.Route(access.AdminPath, func(r chi.Router) {
			params.MembersHandler.MountAdminRoutes(r)
			if params.CommunitiesHandler != nil {
				r.Route("/communities", params.CommunitiesHandler.MountRoutes)
			}
		})
		r.Route(access.MemberPath, params.MembersHandler.MountMemberRoutes)
		r.Route("/api/members", params.MembersHandler.MountAPIRoutes)
	}

	staticFS := params.Static
	if staticFS == nil {
		sub, err := fs.Sub(web.Static, "static")
		if err != nil {
			logger.Error("create static sub filesystem", slog.Any("error", err))
		}
		staticFS = sub
	}
	if staticFS != nil {
		fileServer := http.FileServer(http.FS(staticFS))
		r.Handle("/static/*", staticCacheHandler(http.StripPrefix("/static/", fileServer)))
		r.Get("/robots.txt", staticCacheHandler(fileServer).ServeHTTP)
	}

	return r
}

// staticCacheHandler caches static assets in the browser for one hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
