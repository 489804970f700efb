// Package handler implements the JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kondate-app/kondate/internal/model"
)

// SyncPusher mirrors local writes to the remote document store. Nil
// when no remote is configured.
type SyncPusher interface {
	PushAttendance(ctx context.Context, r model.AttendanceRecord) error
	PushSettings(ctx context.Context, s model.FamilyMealSettings) error
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
