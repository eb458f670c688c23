package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/wanmilin/glin/internal/store"
)

// SettingsHandler handles settings-related API requests.
type SettingsHandler struct {
	settings  store.SettingsStore
	validator *validator.Validate
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settings store.SettingsStore) *SettingsHandler {
	return &SettingsHandler{
		settings:  settings,
		validator: validator.New(),
	}
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.GetAll(r.Context())
	if err != nil {
		HandleStoreError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, SettingsResponse{Settings: settings})
}

// Update handles PUT /settings. Provided keys are written; everything
// else is left alone, so the shell can update a single field.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	for key, value := range req.Settings {
		if err := h.settings.Set(r.Context(), key, value); err != nil {
			HandleStoreError(w, r, err)
			return
		}
	}

	settings, err := h.settings.GetAll(r.Context())
	if err != nil {
		HandleStoreError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, SettingsResponse{Settings: settings})
}
