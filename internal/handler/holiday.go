package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kondate-app/kondate/internal/holiday"
	"github.com/kondate-app/kondate/internal/store"
)

// HolidayHandler serves the Japanese public holiday calendar used to
// flag weekend-style days in the schedule views.
type HolidayHandler struct {
	service *holiday.Service
	store   *store.HolidayStore
	logger  *slog.Logger
}

func NewHolidayHandler(service *holiday.Service, store *store.HolidayStore, logger *slog.Logger) *HolidayHandler {
	return &HolidayHandler{service: service, store: store, logger: logger}
}

func (h *HolidayHandler) year(r *http.Request) (int, error) {
	if v := r.URL.Query().Get("year"); v != "" {
		return strconv.Atoi(v)
	}
	return time.Now().UTC().Year(), nil
}

// List returns the stored holidays for a year as date to name.
func (h *HolidayHandler) List(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be an integer")
		return
	}

	holidays, err := h.store.ListYear(year)
	if err != nil {
		h.logger.Error("list holidays", "year", year, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list holidays")
		return
	}
	writeJSON(w, http.StatusOK, holidays)
}

// Refresh fetches the holiday feed for a year and stores the result.
func (h *HolidayHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be an integer")
		return
	}

	holidays := h.service.Holidays(year)
	if err := h.store.ReplaceYear(year, holidays); err != nil {
		h.logger.Error("refresh holidays", "year", year, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store holidays")
		return
	}

	h.logger.Info("refreshed holidays", "year", year, "count", len(holidays))
	writeJSON(w, http.StatusOK, holidays)
}
