// Package handler exposes the profile API over HTTP. It is a thin layer:
// identity comes from the authenticated principal, bodies are decoded, and
// everything else is delegated to the domain service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"playerservice/internal/platform/middleware"
	"playerservice/internal/profile"
	derrors "playerservice/pkg/domain-errors"
)

// ProfileService is the subset of the domain service the HTTP layer needs.
type ProfileService interface {
	CreateProfile(ctx context.Context, playerID uuid.UUID) error
	GetProfile(ctx context.Context, playerID uuid.UUID) (profile.PlayerProfile, error)
	DeleteProfile(ctx context.Context, playerID uuid.UUID) error
	GetPreferences(ctx context.Context, playerID uuid.UUID) (profile.Preferences, error)
	GetGamePreferences(ctx context.Context, playerID uuid.UUID) (profile.Preferences, error)
	UpdatePreferences(ctx context.Context, playerID uuid.UUID, incoming profile.Preferences) (profile.Preferences, error)
	GetWallet(ctx context.Context, playerID uuid.UUID) (int, error)
	AdjustWallet(ctx context.Context, playerID uuid.UUID, changeAmount int) (int, error)
}

// apiResponse is the uniform envelope for every profile API reply.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type walletAdjustmentRequest struct {
	ChangeAmount int `json:"changeAmount"`
}

type walletResponse struct {
	Balance int `json:"balance"`
}

type Handler struct {
	logger *slog.Logger
	svc    ProfileService
}

func New(logger *slog.Logger, svc ProfileService) *Handler {
	return &Handler{
		logger: logger,
		svc:    svc,
	}
}

// Register mounts the profile routes. Every route requires an authenticated
// principal; the route path never carries a player identifier.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1/player", func(r chi.Router) {
		r.Route("/profile", func(r chi.Router) {
			r.Post("/", h.createProfile)
			r.Get("/", h.getProfile)
			r.Delete("/", h.deleteProfile)

			r.Get("/preferences", h.getPreferences)
			r.Put("/preferences", h.updatePreferences)
			r.Get("/game-preferences", h.getGamePreferences)

			r.Get("/wallet", h.getWallet)
			r.Patch("/wallet", h.adjustWallet)
		})
	})
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.svc.CreateProfile(r.Context(), principal.PlayerID); err != nil {
		h.respondError(w, r, err)
		return
	}

	p, err := h.svc.GetProfile(r.Context(), principal.PlayerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "profile created", p)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	p, err := h.svc.GetProfile(r.Context(), principal.PlayerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "profile retrieved", p)
}

func (h *Handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteProfile(r.Context(), principal.PlayerID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "profile deleted", nil)
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	prefs, err := h.svc.GetPreferences(r.Context(), principal.PlayerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "preferences retrieved", prefs)
}

func (h *Handler) getGamePreferences(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	prefs, err := h.svc.GetGamePreferences(r.Context(), principal.PlayerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "game preferences retrieved", prefs)
}

func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var incoming profile.Preferences
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		h.respondError(w, r, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	merged, err := h.svc.UpdatePreferences(r.Context(), principal.PlayerID, incoming)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "preferences updated", merged)
}

func (h *Handler) getWallet(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	balance, err := h.svc.GetWallet(r.Context(), principal.PlayerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "wallet retrieved", walletResponse{Balance: balance})
}

func (h *Handler) adjustWallet(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req walletAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	balance, err := h.svc.AdjustWallet(r.Context(), principal.PlayerID, req.ChangeAmount)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "wallet updated", walletResponse{Balance: balance})
}

// principal resolves the authenticated caller. Anonymous requests are
// rejected here so handlers below this point always have an identity.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (middleware.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.respondError(w, r, derrors.New(derrors.CodeUnauthorized, "authentication required"))
		return middleware.Principal{}, false
	}
	return principal, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	h.writeJSON(w, r, status, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := derrors.CodeOf(err)
	status := derrors.ToHTTPStatus(code)

	message := "internal server error"
	var derr *derrors.Error
	if status < http.StatusInternalServerError && errors.As(err, &derr) {
		message = derr.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	h.writeJSON(w, r, status, apiResponse{
		Success: false,
		Message: message,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}
