package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kondate-app/kondate/internal/attendance"
	"github.com/kondate-app/kondate/internal/model"
	"github.com/kondate-app/kondate/internal/schedule"
	"github.com/kondate-app/kondate/internal/store"
	"github.com/kondate-app/kondate/internal/websocket"
)

// AttendanceHandler serves attendance writes and the projected
// schedule views built from settings, roster, records and planned meals.
type AttendanceHandler struct {
	attendance *store.AttendanceStore
	members    *store.FamilyMemberStore
	settings   *store.MealSettingsStore
	schedules  *store.MealScheduleStore
	holidays   *store.HolidayStore
	hub        *websocket.Hub
	pusher     SyncPusher
	logger     *slog.Logger

	now func() time.Time
}

func NewAttendanceHandler(attendance *store.AttendanceStore, members *store.FamilyMemberStore, settings *store.MealSettingsStore, schedules *store.MealScheduleStore, holidays *store.HolidayStore, hub *websocket.Hub, pusher SyncPusher, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendance: attendance,
		members:    members,
		settings:   settings,
		schedules:  schedules,
		holidays:   holidays,
		hub:        hub,
		pusher:     pusher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type attendanceRequest struct {
	UserID       int64          `json:"userId"`
	Date         string         `json:"date"`
	MealType     model.MealType `json:"mealType"`
	CustomTypeID string         `json:"customTypeId"`
	Status       string         `json:"status"`
}

func (req attendanceRequest) key() attendance.Key {
	return attendance.Key{
		Date:         req.Date,
		UserID:       req.UserID,
		MealType:     req.MealType,
		CustomTypeID: req.CustomTypeID,
	}
}

func (h *AttendanceHandler) validateTarget(w http.ResponseWriter, req *attendanceRequest) bool {
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "userId is required")
		return false
	}
	if _, err := schedule.ParseDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return false
	}
	if !req.MealType.Valid() {
		writeError(w, http.StatusBadRequest, "unknown meal type")
		return false
	}
	if req.MealType == model.MealTypeCustom && req.CustomTypeID == "" {
		writeError(w, http.StatusBadRequest, "customTypeId is required for the custom meal type")
		return false
	}
	return true
}

func (h *AttendanceHandler) committed(rec model.AttendanceRecord) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.TypeAttendanceChanged, rec))
	}
	if h.pusher != nil {
		go h.pusher.PushAttendance(context.Background(), rec)
	}
}

// Set records an explicit present/absent status.
func (h *AttendanceHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.validateTarget(w, &req) {
		return
	}

	status := model.AttendanceStatus(req.Status)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be present or absent")
		return
	}

	rec := attendance.SetStatus(nil, req.key(), status, h.now())[0]

	if err := h.attendance.Upsert(rec); err != nil {
		h.logger.Error("upsert attendance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save attendance")
		return
	}

	h.committed(rec)
	writeJSON(w, http.StatusOK, rec)
}

// Toggle flips the record for the target slot. A slot with no record
// yet gets an absent record: the first tap marks somebody out.
func (h *AttendanceHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.validateTarget(w, &req) {
		return
	}

	existing, err := h.attendance.Get(req.UserID, req.Date, req.MealType, req.CustomTypeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}

	var set []model.AttendanceRecord
	if existing != nil {
		set = []model.AttendanceRecord{*existing}
	}
	rec := attendance.Toggle(set, req.key(), h.now())[0]

	if err := h.attendance.Upsert(rec); err != nil {
		h.logger.Error("upsert attendance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save attendance")
		return
	}

	h.committed(rec)
	writeJSON(w, http.StatusOK, rec)
}

// projectorInput loads everything a projection needs for [from, to].
func (h *AttendanceHandler) projectorInput(from, to string) (schedule.Input, error) {
	settings, err := h.settings.Load()
	if err != nil {
		return schedule.Input{}, err
	}
	roster, err := h.members.List()
	if err != nil {
		return schedule.Input{}, err
	}
	records, err := h.attendance.ListRange(from, to)
	if err != nil {
		return schedule.Input{}, err
	}
	planned, err := h.schedules.ListRange(from, to)
	if err != nil {
		return schedule.Input{}, err
	}
	holidays, err := h.holidays.DateSet()
	if err != nil {
		return schedule.Input{}, err
	}
	return schedule.Input{
		Settings: settings,
		Records:  records,
		Roster:   roster,
		Planned:  planned,
		Holidays: holidays,
		Now:      h.now(),
	}, nil
}

// refDate reads the date query parameter, defaulting to today.
func (h *AttendanceHandler) refDate(r *http.Request) (time.Time, error) {
	if d := r.URL.Query().Get("date"); d != "" {
		return schedule.ParseDate(d)
	}
	return h.now(), nil
}

// Day returns the projected view for one date.
func (h *AttendanceHandler) Day(w http.ResponseWriter, r *http.Request) {
	ref, err := h.refDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	date := schedule.FormatDate(ref)

	in, err := h.projectorInput(date, date)
	if err != nil {
		h.logger.Error("build day view", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build day view")
		return
	}

	writeJSON(w, http.StatusOK, schedule.ProjectDay(in, date))
}

// Week returns the Monday-first week containing the reference date.
func (h *AttendanceHandler) Week(w http.ResponseWriter, r *http.Request) {
	ref, err := h.refDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	dates := schedule.WeekWindow(ref)
	in, err := h.projectorInput(dates[0], dates[len(dates)-1])
	if err != nil {
		h.logger.Error("build week view", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build week view")
		return
	}

	writeJSON(w, http.StatusOK, schedule.ProjectDays(in, dates))
}

// Month returns the calendar month containing the reference date.
func (h *AttendanceHandler) Month(w http.ResponseWriter, r *http.Request) {
	ref, err := h.refDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	dates := schedule.MonthWindow(ref)
	in, err := h.projectorInput(dates[0], dates[len(dates)-1])
	if err != nil {
		h.logger.Error("build month view", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build month view")
		return
	}

	writeJSON(w, http.StatusOK, schedule.ProjectDays(in, dates))
}

// Agenda returns a rolling window around the reference date. before and
// after are day counts; defaults cover yesterday through a week out.
func (h *AttendanceHandler) Agenda(w http.ResponseWriter, r *http.Request) {
	ref, err := h.refDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	before, after := 1, 7
	if v := r.URL.Query().Get("before"); v != "" {
		if before, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "before must be an integer")
			return
		}
	}
	if v := r.URL.Query().Get("after"); v != "" {
		if after, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "after must be an integer")
			return
		}
	}

	dates := schedule.RollingWindow(ref, before, after)
	in, err := h.projectorInput(dates[0], dates[len(dates)-1])
	if err != nil {
		h.logger.Error("build agenda view", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build agenda view")
		return
	}

	writeJSON(w, http.StatusOK, schedule.ProjectDays(in, dates))
}
