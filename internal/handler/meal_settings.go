package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kondate-app/kondate/internal/mealsettings"
	"github.com/kondate-app/kondate/internal/mealtype"
	"github.com/kondate-app/kondate/internal/model"
	"github.com/kondate-app/kondate/internal/store"
	"github.com/kondate-app/kondate/internal/websocket"
)

type MealSettingsHandler struct {
	store  *store.MealSettingsStore
	hub    *websocket.Hub
	pusher SyncPusher
	logger *slog.Logger
}

func NewMealSettingsHandler(s *store.MealSettingsStore, hub *websocket.Hub, pusher SyncPusher, logger *slog.Logger) *MealSettingsHandler {
	return &MealSettingsHandler{store: s, hub: hub, pusher: pusher, logger: logger}
}

// saved persists new settings and fans the change out.
func (h *MealSettingsHandler) saved(w http.ResponseWriter, settings model.FamilyMealSettings) {
	if err := h.store.Save(settings); err != nil {
		h.logger.Error("save meal settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.TypeSettingsChanged, settings))
	}
	if h.pusher != nil {
		go h.pusher.PushSettings(context.Background(), settings)
	}
	writeJSON(w, http.StatusOK, settings)
}

// settingsError maps domain errors to HTTP status codes. Invariant
// violations and catalog validation failures are the caller's fault.
func settingsError(w http.ResponseWriter, err error) {
	var inv *mealsettings.InvariantViolation
	var val *mealtype.ValidationError
	if errors.As(err, &inv) || errors.As(err, &val) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to update settings")
}

func (h *MealSettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// ListPresets returns the preset catalogue for the setup screen.
func (h *MealSettingsHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	type presetResponse struct {
		Key         string           `json:"key"`
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Enabled     []model.MealType `json:"enabled_meal_types"`
		Default     []model.MealType `json:"default_meal_types"`
	}
	out := make([]presetResponse, 0, len(mealsettings.Presets))
	for _, p := range mealsettings.Presets {
		out = append(out, presetResponse{
			Key:         p.Key,
			Name:        p.Name,
			Description: p.Description,
			Enabled:     p.Enabled,
			Default:     p.Default,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MealSettingsHandler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preset string `json:"preset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	settings, err := mealsettings.ApplyPreset(req.Preset, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.saved(w, settings)
}

func (h *MealSettingsHandler) ToggleEnabled(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, mealsettings.ToggleEnabled)
}

func (h *MealSettingsHandler) ToggleDefault(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, mealsettings.ToggleDefault)
}

func (h *MealSettingsHandler) toggle(w http.ResponseWriter, r *http.Request, op func(model.FamilyMealSettings, model.MealType, time.Time) (model.FamilyMealSettings, error)) {
	var req struct {
		MealType model.MealType `json:"mealType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	settings, err := h.store.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	updated, err := op(settings, req.MealType, time.Now().UTC())
	if err != nil {
		settingsError(w, err)
		return
	}

	h.saved(w, updated)
}

func (h *MealSettingsHandler) AddCustomType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	settings, err := h.store.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	updated, _, err := mealsettings.AddCustomType(settings, req.Name, req.Emoji, time.Now().UTC())
	if err != nil {
		settingsError(w, err)
		return
	}

	h.saved(w, updated)
}

func (h *MealSettingsHandler) UpdateCustomType(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Name     string `json:"name"`
		Emoji    string `json:"emoji"`
		Order    *int   `json:"order"`
		IsActive *bool  `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	settings, err := h.store.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	var existing *model.CustomMealType
	for i := range settings.CustomMealTypes {
		if settings.CustomMealTypes[i].ID == id {
			existing = &settings.CustomMealTypes[i]
			break
		}
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "custom meal type not found")
		return
	}

	updated := *existing
	if name := strings.TrimSpace(req.Name); name != "" {
		updated.Name = name
	}
	if req.Emoji != "" {
		updated.Emoji = req.Emoji
	}
	if req.Order != nil {
		updated.Order = *req.Order
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}

	h.saved(w, mealsettings.UpdateCustomType(settings, updated, time.Now().UTC()))
}

func (h *MealSettingsHandler) RemoveCustomType(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	settings, err := h.store.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	updated := mealsettings.RemoveCustomType(settings, id, time.Now().UTC())
	if len(updated.CustomMealTypes) == len(settings.CustomMealTypes) {
		writeError(w, http.StatusNotFound, "custom meal type not found")
		return
	}

	h.saved(w, updated)
}
