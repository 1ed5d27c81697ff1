package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clubhub/member-portal/internal/identity"
	"github.com/clubhub/member-portal/internal/platform/httpx"
	"github.com/clubhub/member-portal/internal/shared"
	"github.com/clubhub/member-portal/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *identity.SessionManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *identity.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/register", h.handleRegister)
	r.Get("/auth/callback", h.handleCallback)
	r.Get("/test-auth", h.showIdentity)
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Redirect string `json:"redirect"`
}

type redirectBody struct {
	Redirect string `json:"redirect"`
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"authenticated": identity.FromContext(r.Context()) != nil,
		"redirect":      SafeRedirect(r.URL.Query().Get("redirect"), ""),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	form, err := decodeLogin(r)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: "invalid request"})
		return
	}
	form.Email = strings.TrimSpace(form.Email)
	if err := h.validator.Struct(form); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: "email and password are required"})
		return
	}

	acct, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, httpx.ErrorBody{Error: "invalid credentials"})
		return
	}

	if old := h.sessionManager.SessionID(r.Cookies()); old != "" {
		if _, err := h.sessionManager.Destroy(r.Context(), old); err != nil {
			h.logger.Warn("destroy previous session", slog.Any("error", err))
		}
	}
	_, cookie, err := h.sessionManager.Create(r.Context(), identity.Identity{ID: acct.ID.String(), Email: acct.Email})
	if err != nil {
		h.logger.Error("create session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	http.SetCookie(w, cookie)

	h.logger.Info("user logged in", slog.String("user_id", acct.ID.String()), slog.String("role", string(acct.Role)))
	httpx.JSON(w, http.StatusOK, redirectBody{Redirect: SafeRedirect(form.Redirect, homeFor(acct.Role))})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := h.sessionManager.Destroy(r.Context(), h.sessionManager.SessionID(r.Cookies()))
	if err != nil {
		h.logger.Warn("destroy session", slog.Any("error", err))
	}
	if cookie != nil {
		http.SetCookie(w, cookie)
	}
	httpx.JSON(w, http.StatusOK, redirectBody{Redirect: "/login"})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: "invalid request"})
		return
	}
	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrDuplicate):
			httpx.JSON(w, http.StatusConflict, httpx.ErrorBody{Error: "email already registered"})
		case errors.Is(err, httpx.ErrValidation):
			httpx.JSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: err.Error()})
		default:
			h.logger.Error("register member", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	h.logger.Info("member registered", slog.String("user_id", user.ID.String()))
	httpx.JSON(w, http.StatusCreated, user)
}

// handleCallback finishes an external sign-in by forwarding to a local path.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, SafeRedirect(r.URL.Query().Get("next"), "/"), http.StatusSeeOther)
}

func (h *Handler) showIdentity(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"identity": identity.FromContext(r.Context())})
}

func decodeLogin(r *http.Request) (loginForm, error) {
	var form loginForm
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := httpx.DecodeJSON(r, &form)
		return form, err
	}
	if err := r.ParseForm(); err != nil {
		return form, err
	}
	form.Email = r.PostFormValue("email")
	form.Password = r.PostFormValue("password")
	form.Redirect = r.PostFormValue("redirect")
	return form, nil
}

func homeFor(role users.Role) string {
	if role == users.RoleAdmin {
		return "/admin"
	}
	return "/member"
}

// SafeRedirect returns raw when it is a local absolute path, otherwise fallback.
func SafeRedirect(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return raw
}
