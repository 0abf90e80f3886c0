package settingshandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/auth"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/settings"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/api"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/middleware"
)

type Handler struct {
	Service *settings.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *settings.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSettingsRead, h.Perms)).Get("/", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)).Put("/", h.handleUpdate)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	snap, err := h.Service.Snapshot(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", reqID)
		return
	}
	api.Success(w, snap, reqID)
}

type updateRequest struct {
	CurrentYear         string  `json:"currentYear"`
	MaxHoursPerDay      float64 `json:"maxHoursPerDay"`
	DefaultVacationDays float64 `json:"defaultVacationDays"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload updateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	if err := h.Service.Update(r.Context(), payload.CurrentYear, payload.MaxHoursPerDay, payload.DefaultVacationDays); err != nil {
		api.Fail(w, http.StatusBadRequest, "settings_invalid", err.Error(), reqID)
		return
	}

	snap, err := h.Service.Snapshot(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", reqID)
		return
	}
	api.Success(w, snap, reqID)
}
