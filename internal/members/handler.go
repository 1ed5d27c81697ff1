package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubhub/member-portal/internal/identity"
	"github.com/clubhub/member-portal/internal/platform/httpx"
	"github.com/clubhub/member-portal/internal/shared"
	"github.com/clubhub/member-portal/internal/users"
)

// UserDirectory is the subset of the users service the handlers need.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
	ChangeRole(ctx context.Context, id uuid.UUID, role string) (users.User, error)
}

// Handler exposes member listings, statistics and profile endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	users   UserDirectory
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, users UserDirectory) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, users: users}
}

// MountAdminRoutes registers the admin dashboard routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.adminDashboard)
	r.Get("/members", h.adminListMembers)
	r.Get("/members/{id}", h.adminGetMember)
	r.Patch("/members/{id}/role", h.adminChangeRole)
}

// MountMemberRoutes registers the member self-service routes.
func (h *Handler) MountMemberRoutes(r chi.Router) {
	r.Get("/", h.showSelf)
	r.Put("/profile", h.updateSelf)
}

// MountAPIRoutes registers the scoped member API.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/", h.apiListMembers)
	r.Get("/stats", h.apiStats)
}

type listResponse struct {
	Records    []Member          `json:"records"`
	Total      int               `json:"total"`
	Pagination shared.Pagination `json:"pagination"`
}

type dashboardResponse struct {
	Stats Stats `json:"stats"`
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	community, err := communityParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboardResponse{Stats: h.service.GetMemberStats(r.Context(), community)})
}

func (h *Handler) adminListMembers(w http.ResponseWriter, r *http.Request) {
	community, err := communityParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.writeList(w, r, community)
}

func (h *Handler) adminGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		h.respondError(w, "get member", err)
		return
	}
	httpx.JSON(w, http.StatusOK, member)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) adminChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	user, err := h.users.ChangeRole(r.Context(), id, req.Role)
	if err != nil {
		h.respondError(w, "change role", err)
		return
	}
	h.logger.Info("role changed", slog.String("user_id", user.ID.String()), slog.String("role", string(user.Role)))
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) showSelf(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	member, err := h.service.GetMember(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, "get self", err)
		return
	}
	httpx.JSON(w, http.StatusOK, member)
}

func (h *Handler) updateSelf(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var update ProfileUpdate
	if err := httpx.DecodeJSON(r, &update); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	member, err := h.service.UpdateProfile(r.Context(), user.ID, update)
	if err != nil {
		h.respondError(w, "update profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, member)
}

func (h *Handler) apiListMembers(w http.ResponseWriter, r *http.Request) {
	scope, empty, ok := h.apiScope(w, r)
	if !ok {
		return
	}
	if empty {
		page, size := shared.NormalizePage(pageParam(r), shared.DefaultPageSize)
		httpx.JSON(w, http.StatusOK, listResponse{Records: []Member{}, Pagination: shared.NewPagination(page, size, 0)})
		return
	}
	h.writeList(w, r, scope)
}

func (h *Handler) apiStats(w http.ResponseWriter, r *http.Request) {
	scope, empty, ok := h.apiScope(w, r)
	if !ok {
		return
	}
	if empty {
		httpx.JSON(w, http.StatusOK, Stats{})
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.GetMemberStats(r.Context(), scope))
}

// apiScope resolves the community scope of the caller. Admins may pick any
// community; users are pinned to their own, and a user without a community
// has an empty scope.
func (h *Handler) apiScope(w http.ResponseWriter, r *http.Request) (scope uuid.NullUUID, empty bool, ok bool) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return uuid.NullUUID{}, false, false
	}
	if user.IsAdmin() {
		scope, err := communityParam(r)
		if err != nil {
			httpx.RespondError(w, err)
			return uuid.NullUUID{}, false, false
		}
		return scope, false, true
	}
	if !user.CommunityID.Valid {
		return uuid.NullUUID{}, true, true
	}
	return user.CommunityID, false, true
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, community uuid.NullUUID) {
	filter := MemberFilter{
		CommunityID: community,
		Search:      r.URL.Query().Get("q"),
		Page:        pageParam(r),
		PageSize:    shared.DefaultPageSize,
	}
	list := h.service.GetMembers(r.Context(), filter)
	page, size := shared.NormalizePage(filter.Page, filter.PageSize)
	httpx.JSON(w, http.StatusOK, listResponse{
		Records:    list.Records,
		Total:      list.Total,
		Pagination: shared.NewPagination(page, size, list.Total),
	})
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (users.User, bool) {
	who := identity.FromContext(r.Context())
	if who == nil {
		httpx.JSON(w, http.StatusUnauthorized, httpx.ErrorBody{Error: "Unauthorized"})
		return users.User{}, false
	}
	user, err := h.users.GetByEmail(r.Context(), who.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: no account for identity", httpx.ErrForbidden))
			return users.User{}, false
		}
		h.respondError(w, "load current user", err)
		return users.User{}, false
	}
	return user, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, shared.ErrInvalidRole) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return min(page, shared.MaxPage)
}

func communityParam(r *http.Request) (uuid.NullUUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("community_id"))
	if raw == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.NullUUID{}, fmt.Errorf("%w: community_id", httpx.ErrValidation)
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id", httpx.ErrValidation)
	}
	return id, nil
}
