package mealsettings

import (
	"fmt"
	"time"

	"github.com/kondate-app/kondate/internal/model"
)

// Preset is a named, ready-made settings configuration.
type Preset struct {
	Key         string
	Name        string
	Description string
	Enabled     []model.MealType
	Default     []model.MealType
}

// Presets, in display order. Data, not behavior.
var Presets = []Preset{
	{
		Key:         "dinner_only",
		Name:        "夕食のみ",
		Description: "夕食の準備だけを管理",
		Enabled:     []model.MealType{model.MealTypeDinner},
		Default:     []model.MealType{model.MealTypeDinner},
	},
	{
		Key:         "three_meals",
		Name:        "3食管理",
		Description: "朝食・昼食・夕食を管理",
		Enabled:     []model.MealType{model.MealTypeBreakfast, model.MealTypeLunch, model.MealTypeDinner},
		Default:     []model.MealType{model.MealTypeBreakfast, model.MealTypeLunch, model.MealTypeDinner},
	},
	{
		Key:         "with_bento",
		Name:        "3食+お弁当",
		Description: "3食とお弁当の準備を管理",
		Enabled:     []model.MealType{model.MealTypeBreakfast, model.MealTypeLunch, model.MealTypeDinner, model.MealTypeBento},
		Default:     []model.MealType{model.MealTypeBreakfast, model.MealTypeLunch, model.MealTypeDinner, model.MealTypeBento},
	},
	{
		Key:         "with_snack",
		Name:        "3食+おやつ",
		Description: "3食とおやつを管理",
		Enabled:     []model.MealType{model.MealTypeBreakfast, model.MealTypeLunch, model.MealTypeDinner, model.MealTypeSnack},
		Default:     []model.MealType{model.MealTypeBreakfast, model.MealTypeLunch, model.MealTypeDinner, model.MealTypeSnack},
	},
	{
		Key:         "full",
		Name:        "フル管理",
		Description: "すべての食事を管理",
		Enabled:     []model.MealType{model.MealTypeBreakfast, model.MealTypeLunch, model.MealTypeDinner, model.MealTypeSnack, model.MealTypeBento},
		Default:     []model.MealType{model.MealTypeBreakfast, model.MealTypeLunch, model.MealTypeDinner},
	},
}

// DefaultSettings is the configuration a family starts with.
func DefaultSettings(now time.Time) model.FamilyMealSettings {
	s, _ := ApplyPreset("dinner_only", now)
	return s
}

// ApplyPreset replaces the whole configuration with the named preset.
// Custom types are cleared: presets describe fixed-type setups.
func ApplyPreset(key string, now time.Time) (model.FamilyMealSettings, error) {
	for _, p := range Presets {
		if p.Key == key {
			return model.FamilyMealSettings{
				EnabledMealTypes: append([]model.MealType(nil), p.Enabled...),
				DefaultMealTypes: append([]model.MealType(nil), p.Default...),
				CustomMealTypes:  []model.CustomMealType{},
				UpdatedAt:        now,
			}, nil
		}
	}
	return model.FamilyMealSettings{}, fmt.Errorf("unknown preset %q", key)
}
