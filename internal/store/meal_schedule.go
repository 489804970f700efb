package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kondate-app/kondate/internal/model"
)

type MealScheduleStore struct {
	db *sql.DB
}

func NewMealScheduleStore(db *sql.DB) *MealScheduleStore {
	return &MealScheduleStore{db: db}
}

const scheduleCols = `id, date, meal_type, custom_type_id, title, description, ingredients, created_by, created_at, updated_at`

func scanSchedule(scanner interface{ Scan(...any) error }) (*model.MealScheduleEntry, error) {
	var e model.MealScheduleEntry
	var ingredients string
	err := scanner.Scan(&e.ID, &e.Date, &e.MealType, &e.CustomTypeID, &e.Title, &e.Description, &ingredients, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ingredients), &e.Ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	return &e, nil
}

func encodeIngredients(ingredients []string) (string, error) {
	if ingredients == nil {
		ingredients = []string{}
	}
	b, err := json.Marshal(ingredients)
	if err != nil {
		return "", fmt.Errorf("encode ingredients: %w", err)
	}
	return string(b), nil
}

func (s *MealScheduleStore) Create(e model.MealScheduleEntry) (*model.MealScheduleEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	ingredients, err := encodeIngredients(e.Ingredients)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		`INSERT INTO meal_schedules (id, date, meal_type, custom_type_id, title, description, ingredients, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date, e.MealType, e.CustomTypeID, e.Title, e.Description, ingredients, e.CreatedBy, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert meal schedule: %w", err)
	}
	return s.GetByID(e.ID)
}

func (s *MealScheduleStore) GetByID(id string) (*model.MealScheduleEntry, error) {
	row := s.db.QueryRow(`SELECT `+scheduleCols+` FROM meal_schedules WHERE id = ?`, id)
	e, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get meal schedule: %w", err)
	}
	return e, nil
}

// ListByDate returns planned meals for an exact date.
func (s *MealScheduleStore) ListByDate(date string) ([]model.MealScheduleEntry, error) {
	return s.query(`SELECT `+scheduleCols+` FROM meal_schedules WHERE date = ? ORDER BY created_at`, date)
}

// ListRange returns planned meals with from <= date <= to.
func (s *MealScheduleStore) ListRange(from, to string) ([]model.MealScheduleEntry, error) {
	return s.query(`SELECT `+scheduleCols+` FROM meal_schedules WHERE date >= ? AND date <= ? ORDER BY date, created_at`, from, to)
}

func (s *MealScheduleStore) List() ([]model.MealScheduleEntry, error) {
	return s.query(`SELECT ` + scheduleCols + ` FROM meal_schedules ORDER BY date, created_at`)
}

func (s *MealScheduleStore) query(q string, args ...any) ([]model.MealScheduleEntry, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query meal schedules: %w", err)
	}
	defer rows.Close()

	var entries []model.MealScheduleEntry
	for rows.Next() {
		e, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal schedule: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *MealScheduleStore) Update(id string, title, description string, ingredients []string) (*model.MealScheduleEntry, error) {
	enc, err := encodeIngredients(ingredients)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(
		`UPDATE meal_schedules SET title = ?, description = ?, ingredients = ?, updated_at = ? WHERE id = ?`,
		title, description, enc, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update meal schedule: %w", err)
	}
	return s.GetByID(id)
}

func (s *MealScheduleStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM meal_schedules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete meal schedule: %w", err)
	}
	return nil
}

// ReplaceAll swaps all planned meals in one transaction (import path).
func (s *MealScheduleStore) ReplaceAll(entries []model.MealScheduleEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM meal_schedules"); err != nil {
		return fmt.Errorf("clear meal schedules: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO meal_schedules (id, date, meal_type, custom_type_id, title, description, ingredients, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		ingredients, err := encodeIngredients(e.Ingredients)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(e.ID, e.Date, e.MealType, e.CustomTypeID, e.Title, e.Description, ingredients, e.CreatedBy, e.CreatedAt.UTC(), e.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("insert meal schedule %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}
