package store

import (
	"database/sql"
	"fmt"
)

// HolidayStore caches holiday dates fetched by the holiday service so the
// schedule views work offline.
type HolidayStore struct {
	db *sql.DB
}

func NewHolidayStore(db *sql.DB) *HolidayStore {
	return &HolidayStore{db: db}
}

// ReplaceYear swaps the cached holidays for one year in a transaction.
// dates maps ISO date -> holiday name.
func (s *HolidayStore) ReplaceYear(year int, dates map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	prefix := fmt.Sprintf("%04d-", year)
	if _, err := tx.Exec("DELETE FROM holidays WHERE date LIKE ? || '%'", prefix); err != nil {
		return fmt.Errorf("clear holidays for %d: %w", year, err)
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO holidays (date, name) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for date, name := range dates {
		if _, err := stmt.Exec(date, name); err != nil {
			return fmt.Errorf("insert holiday %s: %w", date, err)
		}
	}

	return tx.Commit()
}

// ListYear returns the cached holidays for one year as date -> name.
func (s *HolidayStore) ListYear(year int) (map[string]string, error) {
	prefix := fmt.Sprintf("%04d-", year)
	rows, err := s.db.Query("SELECT date, name FROM holidays WHERE date LIKE ? || '%' ORDER BY date", prefix)
	if err != nil {
		return nil, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var date, name string
		if err := rows.Scan(&date, &name); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		out[date] = name
	}
	return out, rows.Err()
}

// DateSet returns every cached holiday date as a lookup set.
func (s *HolidayStore) DateSet() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT date FROM holidays")
	if err != nil {
		return nil, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		set[date] = true
	}
	return set, rows.Err()
}

// IsHoliday reports whether the date is a cached holiday.
func (s *HolidayStore) IsHoliday(date string) (bool, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM holidays WHERE date = ?", date).Scan(&count); err != nil {
		return false, fmt.Errorf("check holiday: %w", err)
	}
	return count > 0, nil
}
