package model

import "time"

// FamilyMealSettings is the per-family meal configuration document:
// which meal types the family tracks at all, which are surfaced on the
// home screen by default, and the family-defined custom types.
//
// Invariants (enforced by the mealsettings package):
//   - EnabledMealTypes is never empty
//   - DefaultMealTypes is a subset of EnabledMealTypes
//   - MealTypeCustom may be enabled only while CustomMealTypes is
//     non-empty (the converse is not required: custom types can exist
//     with the custom tag disabled)
type FamilyMealSettings struct {
	EnabledMealTypes []MealType       `json:"enabled_meal_types"`
	DefaultMealTypes []MealType       `json:"default_meal_types"`
	CustomMealTypes  []CustomMealType `json:"custom_meal_types"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
