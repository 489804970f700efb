package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kondate-app/kondate/internal/mealsettings"
	"github.com/kondate-app/kondate/internal/model"
)

// MealSettingsStore persists the family's settings document as a single
// JSON row, mirroring the shape of the remote settings document.
type MealSettingsStore struct {
	db *sql.DB
}

func NewMealSettingsStore(db *sql.DB) *MealSettingsStore {
	return &MealSettingsStore{db: db}
}

// Load returns the stored settings, validated defensively. When no row
// exists yet the default configuration is returned (and not persisted).
func (s *MealSettingsStore) Load() (model.FamilyMealSettings, error) {
	var doc string
	err := s.db.QueryRow("SELECT document FROM meal_settings WHERE family_id = 1").Scan(&doc)
	if err == sql.ErrNoRows {
		return mealsettings.DefaultSettings(time.Now().UTC()), nil
	}
	if err != nil {
		return model.FamilyMealSettings{}, fmt.Errorf("load meal settings: %w", err)
	}

	var settings model.FamilyMealSettings
	if err := json.Unmarshal([]byte(doc), &settings); err != nil {
		return model.FamilyMealSettings{}, fmt.Errorf("decode meal settings: %w", err)
	}
	if err := mealsettings.Validate(settings); err != nil {
		return model.FamilyMealSettings{}, fmt.Errorf("stored meal settings invalid: %w", err)
	}
	return settings, nil
}

// Stored reports whether a settings document has been written yet.
// Load's synthesized default is not a stored document.
func (s *MealSettingsStore) Stored() (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM meal_settings WHERE family_id = 1").Scan(&n); err != nil {
		return false, fmt.Errorf("check meal settings: %w", err)
	}
	return n > 0, nil
}

// Save validates and upserts the settings document.
func (s *MealSettingsStore) Save(settings model.FamilyMealSettings) error {
	if err := mealsettings.Validate(settings); err != nil {
		return err
	}

	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode meal settings: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO meal_settings (family_id, document, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(family_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		string(doc), settings.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save meal settings: %w", err)
	}
	return nil
}
