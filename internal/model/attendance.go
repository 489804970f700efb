package model

import (
	"fmt"
	"time"
)

// AttendanceStatus is a two-valued declaration. "Unset" is the absence of
// a record, never a third status value; the attendance package exposes it
// as a nil lookup result.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Valid reports whether s is one of the two declared statuses.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// Flip returns the opposite status.
func (s AttendanceStatus) Flip() AttendanceStatus {
	if s == AttendancePresent {
		return AttendanceAbsent
	}
	return AttendancePresent
}

// AttendanceRecord is one member's present/absent declaration for a single
// date and meal type. At most one record exists per
// (date, user, meal type, custom type) tuple.
type AttendanceRecord struct {
	ID           string           `json:"id"`
	UserID       int64            `json:"userId"`
	Date         string           `json:"date"` // YYYY-MM-DD
	MealType     MealType         `json:"mealType"`
	CustomTypeID string           `json:"customTypeId,omitempty"`
	Status       AttendanceStatus `json:"status"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// AttendanceRecordID derives the canonical record id. It doubles as the
// remote document key, so the format must stay stable.
func AttendanceRecordID(userID int64, date string, mealType MealType, customTypeID string) string {
	if mealType == MealTypeCustom && customTypeID != "" {
		return fmt.Sprintf("%d_%s_%s_%s", userID, date, mealType, customTypeID)
	}
	return fmt.Sprintf("%d_%s_%s", userID, date, mealType)
}

// Key returns the derived id for the record's own tuple.
func (r AttendanceRecord) Key() string {
	return AttendanceRecordID(r.UserID, r.Date, r.MealType, r.CustomTypeID)
}
