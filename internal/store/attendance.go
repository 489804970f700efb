package store

import (
	"database/sql"
	"fmt"

	"github.com/kondate-app/kondate/internal/model"
)

// AttendanceStore is the persisted mirror of the attendance record set.
// Uniqueness per (date, user, meal type, custom type) is enforced both by
// the derived primary key and a table constraint.
type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

const attendanceCols = `id, user_id, date, meal_type, custom_type_id, status, updated_at`

func scanAttendance(scanner interface{ Scan(...any) error }) (*model.AttendanceRecord, error) {
	var r model.AttendanceRecord
	err := scanner.Scan(&r.ID, &r.UserID, &r.Date, &r.MealType, &r.CustomTypeID, &r.Status, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Upsert writes one record, replacing any existing record for the same
// tuple. The id is normalized to the derived key form.
func (s *AttendanceStore) Upsert(r model.AttendanceRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO attendance_records (id, user_id, date, meal_type, custom_type_id, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		r.Key(), r.UserID, r.Date, r.MealType, r.CustomTypeID, r.Status, r.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert attendance record: %w", err)
	}
	return nil
}

// Get returns the record for the tuple, or nil when unset.
func (s *AttendanceStore) Get(userID int64, date string, mealType model.MealType, customTypeID string) (*model.AttendanceRecord, error) {
	id := model.AttendanceRecordID(userID, date, mealType, customTypeID)
	row := s.db.QueryRow(`SELECT `+attendanceCols+` FROM attendance_records WHERE id = ?`, id)
	r, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance record: %w", err)
	}
	return r, nil
}

// List returns every record, ordered by date then user.
func (s *AttendanceStore) List() ([]model.AttendanceRecord, error) {
	return s.query(`SELECT ` + attendanceCols + ` FROM attendance_records ORDER BY date, user_id, meal_type, custom_type_id`)
}

// ListRange returns records with from <= date <= to. Lexicographic
// comparison is correct for YYYY-MM-DD strings.
func (s *AttendanceStore) ListRange(from, to string) ([]model.AttendanceRecord, error) {
	return s.query(
		`SELECT `+attendanceCols+` FROM attendance_records WHERE date >= ? AND date <= ? ORDER BY date, user_id, meal_type, custom_type_id`,
		from, to,
	)
}

// ListByDate returns records for one date.
func (s *AttendanceStore) ListByDate(date string) ([]model.AttendanceRecord, error) {
	return s.query(
		`SELECT `+attendanceCols+` FROM attendance_records WHERE date = ? ORDER BY user_id, meal_type, custom_type_id`,
		date,
	)
}

func (s *AttendanceStore) query(q string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance records: %w", err)
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// ReplaceAll swaps the whole table for the incoming snapshot in one
// transaction, so a failed ingestion never leaves a half-applied state.
func (s *AttendanceStore) ReplaceAll(records []model.AttendanceRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM attendance_records"); err != nil {
		return fmt.Errorf("clear attendance records: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO attendance_records (id, user_id, date, meal_type, custom_type_id, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.Key(), r.UserID, r.Date, r.MealType, r.CustomTypeID, r.Status, r.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("insert attendance record %s: %w", r.Key(), err)
		}
	}

	return tx.Commit()
}

// DeleteForUser removes a departed member's records.
func (s *AttendanceStore) DeleteForUser(userID int64) (int64, error) {
	result, err := s.db.Exec("DELETE FROM attendance_records WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("delete attendance records: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
