package store

import (
	"testing"
	"time"

	"github.com/kondate-app/kondate/internal/database"
	"github.com/kondate-app/kondate/internal/model"
)

func setupAttendanceTestDB(t *testing.T) *AttendanceStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAttendanceStore(db)
}

func record(userID int64, date string, mealType model.MealType, status model.AttendanceStatus) model.AttendanceRecord {
	return model.AttendanceRecord{
		UserID:    userID,
		Date:      date,
		MealType:  mealType,
		Status:    status,
		UpdatedAt: time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestAttendanceUpsertReplaces(t *testing.T) {
	as := setupAttendanceTestDB(t)

	if err := as.Upsert(record(1, "2024-06-10", model.MealTypeDinner, model.AttendancePresent)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := as.Upsert(record(1, "2024-06-10", model.MealTypeDinner, model.AttendanceAbsent)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	records, err := as.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len = %d, want 1 (upsert must replace)", len(records))
	}
	if records[0].Status != model.AttendanceAbsent {
		t.Errorf("status = %q", records[0].Status)
	}
	if records[0].ID != "1_2024-06-10_dinner" {
		t.Errorf("id = %q", records[0].ID)
	}
}

func TestAttendanceGetUnsetIsNil(t *testing.T) {
	as := setupAttendanceTestDB(t)

	r, err := as.Get(1, "2024-06-10", model.MealTypeDinner, "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r != nil {
		t.Errorf("record = %+v, want nil for unset", r)
	}
}

func TestAttendanceListRange(t *testing.T) {
	as := setupAttendanceTestDB(t)

	for _, date := range []string{"2024-06-09", "2024-06-10", "2024-06-16", "2024-06-17"} {
		if err := as.Upsert(record(1, date, model.MealTypeDinner, model.AttendancePresent)); err != nil {
			t.Fatalf("upsert %s: %v", date, err)
		}
	}

	records, err := as.ListRange("2024-06-10", "2024-06-16")
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].Date != "2024-06-10" || records[1].Date != "2024-06-16" {
		t.Errorf("dates = %q, %q", records[0].Date, records[1].Date)
	}
}

func TestAttendanceReplaceAll(t *testing.T) {
	as := setupAttendanceTestDB(t)

	if err := as.Upsert(record(1, "2024-06-10", model.MealTypeDinner, model.AttendancePresent)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	snapshot := []model.AttendanceRecord{
		record(2, "2024-06-11", model.MealTypeLunch, model.AttendanceAbsent),
		record(3, "2024-06-11", model.MealTypeLunch, model.AttendancePresent),
	}
	if err := as.ReplaceAll(snapshot); err != nil {
		t.Fatalf("replace all: %v", err)
	}

	records, err := as.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2 (old records dropped)", len(records))
	}
	for _, r := range records {
		if r.Date != "2024-06-11" {
			t.Errorf("stale record survived: %+v", r)
		}
	}
}

func TestAttendanceReplaceAllRejectsDuplicates(t *testing.T) {
	as := setupAttendanceTestDB(t)

	dup := record(1, "2024-06-10", model.MealTypeDinner, model.AttendancePresent)
	if err := as.ReplaceAll([]model.AttendanceRecord{dup, dup}); err == nil {
		t.Fatal("duplicate keys must violate the table constraint")
	}

	// Failed ingestion must not leave partial state.
	records, err := as.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len = %d, want 0 after rolled-back replace", len(records))
	}
}

func TestAttendanceCustomTypeKeys(t *testing.T) {
	as := setupAttendanceTestDB(t)

	a := record(1, "2024-06-10", model.MealTypeCustom, model.AttendancePresent)
	a.CustomTypeID = "custom_a"
	b := record(1, "2024-06-10", model.MealTypeCustom, model.AttendanceAbsent)
	b.CustomTypeID = "custom_b"

	if err := as.Upsert(a); err != nil {
		t.Fatalf("upsert a: %v", err)
	}
	if err := as.Upsert(b); err != nil {
		t.Fatalf("upsert b: %v", err)
	}

	records, err := as.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2 distinct custom slots", len(records))
	}
}

func TestAttendanceDeleteForUser(t *testing.T) {
	as := setupAttendanceTestDB(t)

	as.Upsert(record(1, "2024-06-10", model.MealTypeDinner, model.AttendancePresent))
	as.Upsert(record(1, "2024-06-11", model.MealTypeDinner, model.AttendancePresent))
	as.Upsert(record(2, "2024-06-10", model.MealTypeDinner, model.AttendanceAbsent))

	n, err := as.DeleteForUser(1)
	if err != nil {
		t.Fatalf("delete for user: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}

	records, _ := as.List()
	if len(records) != 1 || records[0].UserID != 2 {
		t.Errorf("records = %+v", records)
	}
}
