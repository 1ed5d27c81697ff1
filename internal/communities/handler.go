package communities

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clubhub/member-portal/internal/platform/httpx"
)

// Lister reads the community catalogue.
type Lister interface {
	List(ctx context.Context) ([]Community, error)
}

// Handler serves community listings to admins.
type Handler struct {
	logger *slog.Logger
	repo   Lister
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo Lister) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers community routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list communities", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Community{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"communities": items})
}
