package store

import (
	"testing"
	"time"

	"github.com/kondate-app/kondate/internal/database"
	"github.com/kondate-app/kondate/internal/mealsettings"
	"github.com/kondate-app/kondate/internal/model"
)

func setupSettingsTestDB(t *testing.T) *MealSettingsStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMealSettingsStore(db)
}

func TestSettingsLoadDefaultWhenEmpty(t *testing.T) {
	ss := setupSettingsTestDB(t)

	settings, err := ss.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(settings.EnabledMealTypes) != 1 || settings.EnabledMealTypes[0] != model.MealTypeDinner {
		t.Errorf("enabled = %v, want dinner-only default", settings.EnabledMealTypes)
	}
}

func TestSettingsStoredDistinguishesSyntheticDefault(t *testing.T) {
	ss := setupSettingsTestDB(t)

	if stored, err := ss.Stored(); err != nil || stored {
		t.Fatalf("Stored() = %v, %v, want false before first save", stored, err)
	}
	if _, err := ss.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	// Loading the default does not persist it.
	if stored, _ := ss.Stored(); stored {
		t.Error("Stored() = true after loading the synthetic default")
	}

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	if err := ss.Save(mealsettings.DefaultSettings(now)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if stored, _ := ss.Stored(); !stored {
		t.Error("Stored() = false after save")
	}
}

func TestSettingsSaveLoadRoundTrip(t *testing.T) {
	ss := setupSettingsTestDB(t)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	settings, _ := mealsettings.ApplyPreset("with_bento", now)
	settings, ct, err := mealsettings.AddCustomType(settings, "夜食", "🌃", now)
	if err != nil {
		t.Fatalf("add custom: %v", err)
	}

	if err := ss.Save(settings); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := ss.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.EnabledMealTypes) != len(settings.EnabledMealTypes) {
		t.Errorf("enabled = %v, want %v", loaded.EnabledMealTypes, settings.EnabledMealTypes)
	}
	if len(loaded.CustomMealTypes) != 1 || loaded.CustomMealTypes[0].ID != ct.ID {
		t.Errorf("custom types = %+v", loaded.CustomMealTypes)
	}
	if loaded.CustomMealTypes[0].Emoji != "🌃" {
		t.Errorf("emoji = %q", loaded.CustomMealTypes[0].Emoji)
	}
}

func TestSettingsSaveRejectsInvalid(t *testing.T) {
	ss := setupSettingsTestDB(t)

	bad := model.FamilyMealSettings{} // empty enabled set
	if err := ss.Save(bad); err == nil {
		t.Fatal("saving invalid settings must fail")
	}
}
