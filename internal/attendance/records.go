// Package attendance implements the pure operations over the normalized
// attendance record set. The record slice is a value: every operation
// returns a new slice and never mutates its input, so the caller can
// apply results atomically to its own state holder.
package attendance

import (
	"errors"
	"time"

	"github.com/kondate-app/kondate/internal/model"
)

// ErrDuplicateRecord is returned by ReplaceAllStrict when the incoming
// set contains more than one record for the same (date, user, meal type)
// tuple.
var ErrDuplicateRecord = errors.New("attendance: duplicate record for key")

// Key identifies one attendance slot.
type Key struct {
	Date         string
	UserID       int64
	MealType     model.MealType
	CustomTypeID string
}

func (k Key) id() string {
	return model.AttendanceRecordID(k.UserID, k.Date, k.MealType, k.CustomTypeID)
}

func keyOf(r model.AttendanceRecord) Key {
	return Key{Date: r.Date, UserID: r.UserID, MealType: r.MealType, CustomTypeID: r.CustomTypeID}
}

func indexOf(records []model.AttendanceRecord, k Key) int {
	for i, r := range records {
		if keyOf(r) == k {
			return i
		}
	}
	return -1
}

// Upsert replaces the record matching newRecord's key, or appends it.
// The record's ID is normalized to the derived key form.
func Upsert(records []model.AttendanceRecord, newRecord model.AttendanceRecord) []model.AttendanceRecord {
	newRecord.ID = newRecord.Key()
	out := append([]model.AttendanceRecord(nil), records...)
	if i := indexOf(out, keyOf(newRecord)); i >= 0 {
		out[i] = newRecord
		return out
	}
	return append(out, newRecord)
}

// SetStatus upserts a record with an explicit status. Setting the same
// status twice yields an equal record set apart from UpdatedAt.
func SetStatus(records []model.AttendanceRecord, k Key, status model.AttendanceStatus, now time.Time) []model.AttendanceRecord {
	return Upsert(records, model.AttendanceRecord{
		ID:           k.id(),
		UserID:       k.UserID,
		Date:         k.Date,
		MealType:     k.MealType,
		CustomTypeID: k.CustomTypeID,
		Status:       status,
		UpdatedAt:    now,
	})
}

// Toggle flips the status of the record for k. When no record exists yet
// a new one is created with status absent: an untracked member is shown
// as implicitly present, and the first tap marks them away. (Deliberate,
// matching long-standing app behavior.)
func Toggle(records []model.AttendanceRecord, k Key, now time.Time) []model.AttendanceRecord {
	if i := indexOf(records, k); i >= 0 {
		out := append([]model.AttendanceRecord(nil), records...)
		out[i].Status = out[i].Status.Flip()
		out[i].UpdatedAt = now
		return out
	}
	return SetStatus(records, k, model.AttendanceAbsent, now)
}

// StatusFor looks up the status for k. A nil result means "unset", which
// is distinct from both statuses; callers must not default it to absent
// here. Any presentation default belongs to the view layer.
func StatusFor(records []model.AttendanceRecord, k Key) *model.AttendanceStatus {
	if i := indexOf(records, k); i >= 0 {
		s := records[i].Status
		return &s
	}
	return nil
}

// ReplaceAll ingests a full snapshot from the remote store, deduplicating
// by key with last-write-wins on UpdatedAt. Input order is preserved for
// the surviving records.
func ReplaceAll(incoming []model.AttendanceRecord) []model.AttendanceRecord {
	byKey := make(map[Key]int, len(incoming))
	out := make([]model.AttendanceRecord, 0, len(incoming))
	for _, r := range incoming {
		r.ID = r.Key()
		k := keyOf(r)
		if i, ok := byKey[k]; ok {
			if !r.UpdatedAt.Before(out[i].UpdatedAt) {
				out[i] = r
			}
			continue
		}
		byKey[k] = len(out)
		out = append(out, r)
	}
	return out
}

// ReplaceAllStrict is ReplaceAll without the dedupe tolerance: a duplicate
// key fails with ErrDuplicateRecord. Used for import validation, where
// duplicates indicate a corrupt document rather than concurrent edits.
func ReplaceAllStrict(incoming []model.AttendanceRecord) ([]model.AttendanceRecord, error) {
	seen := make(map[Key]struct{}, len(incoming))
	out := make([]model.AttendanceRecord, 0, len(incoming))
	for _, r := range incoming {
		r.ID = r.Key()
		k := keyOf(r)
		if _, ok := seen[k]; ok {
			return nil, ErrDuplicateRecord
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// Merge applies last-write-wins between the local set and a single
// incoming record, returning the new set. Used by the sync layer when a
// remote edit races a local one on the same key; timestamp ties keep
// the local record.
func Merge(records []model.AttendanceRecord, incoming model.AttendanceRecord) []model.AttendanceRecord {
	incoming.ID = incoming.Key()
	if i := indexOf(records, keyOf(incoming)); i >= 0 {
		if !incoming.UpdatedAt.After(records[i].UpdatedAt) {
			return records
		}
		out := append([]model.AttendanceRecord(nil), records...)
		out[i] = incoming
		return out
	}
	return append(append([]model.AttendanceRecord(nil), records...), incoming)
}
