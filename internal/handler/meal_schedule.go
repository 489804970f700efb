package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kondate-app/kondate/internal/model"
	"github.com/kondate-app/kondate/internal/schedule"
	"github.com/kondate-app/kondate/internal/store"
	"github.com/kondate-app/kondate/internal/websocket"
)

// MealScheduleHandler manages planned meals.
type MealScheduleHandler struct {
	store  *store.MealScheduleStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewMealScheduleHandler(store *store.MealScheduleStore, hub *websocket.Hub, logger *slog.Logger) *MealScheduleHandler {
	return &MealScheduleHandler{store: store, hub: hub, logger: logger}
}

func (h *MealScheduleHandler) notify() {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.TypeScheduleChanged, nil))
	}
}

type mealScheduleRequest struct {
	Date         string         `json:"date"`
	MealType     model.MealType `json:"mealType"`
	CustomTypeID string         `json:"customTypeId"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Ingredients  []string       `json:"ingredients"`
	CreatedBy    int64          `json:"createdBy"`
}

// List returns planned meals, optionally filtered by date or range.
func (h *MealScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		entries []model.MealScheduleEntry
		err     error
	)
	switch {
	case q.Get("date") != "":
		if _, perr := schedule.ParseDate(q.Get("date")); perr != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		entries, err = h.store.ListByDate(q.Get("date"))
	case q.Get("from") != "" && q.Get("to") != "":
		entries, err = h.store.ListRange(q.Get("from"), q.Get("to"))
	default:
		entries, err = h.store.List()
	}
	if err != nil {
		h.logger.Error("list meal schedules", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list meal schedules")
		return
	}

	if entries == nil {
		entries = []model.MealScheduleEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *MealScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load meal schedule")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "meal schedule not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *MealScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req mealScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if _, err := schedule.ParseDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if !req.MealType.Valid() {
		writeError(w, http.StatusBadRequest, "unknown meal type")
		return
	}
	if req.MealType == model.MealTypeCustom && req.CustomTypeID == "" {
		writeError(w, http.StatusBadRequest, "customTypeId is required for the custom meal type")
		return
	}

	entry, err := h.store.Create(model.MealScheduleEntry{
		Date:         req.Date,
		MealType:     req.MealType,
		CustomTypeID: req.CustomTypeID,
		Title:        req.Title,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		h.logger.Error("create meal schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create meal schedule")
		return
	}

	h.notify()
	writeJSON(w, http.StatusCreated, entry)
}

func (h *MealScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load meal schedule")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "meal schedule not found")
		return
	}

	var req mealScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = existing.Title
	}
	if req.Ingredients == nil {
		req.Ingredients = existing.Ingredients
	}

	entry, err := h.store.Update(id, req.Title, req.Description, req.Ingredients)
	if err != nil {
		h.logger.Error("update meal schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update meal schedule")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, entry)
}

func (h *MealScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load meal schedule")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "meal schedule not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete meal schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete meal schedule")
		return
	}

	h.notify()
	w.WriteHeader(http.StatusNoContent)
}
