// Package mealtype holds the static metadata for the built-in meal types
// and the pure helpers that resolve display name, emoji, and ordering for
// any meal type, including family-defined custom types.
package mealtype

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/kondate-app/kondate/internal/model"
)

// Metadata for a fixed meal type.
type Info struct {
	Name  string
	Emoji string
	Order int
}

var fixedInfo = map[model.MealType]Info{
	model.MealTypeBreakfast: {Name: "朝食", Emoji: "🌅", Order: 1},
	model.MealTypeLunch:     {Name: "昼食", Emoji: "☀️", Order: 2},
	model.MealTypeDinner:    {Name: "夕食", Emoji: "🌙", Order: 3},
	model.MealTypeSnack:     {Name: "おやつ", Emoji: "🍪", Order: 4},
	model.MealTypeBento:     {Name: "お弁当", Emoji: "🍱", Order: 5},
}

// Fallbacks used when a custom type id is not found. A missing custom type
// is not an error: it may have been deleted on another device before this
// one synced.
const (
	fallbackCustomName  = "カスタム"
	fallbackCustomEmoji = "⭐"
	fallbackEmoji       = "🍽️"
)

// customOrderBaseline is the floor for custom type ordering; it keeps
// custom types after every fixed type regardless of insertion order.
const customOrderBaseline = 10

// ValidationError reports malformed input to a catalog constructor.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func findCustom(id string, customTypes []model.CustomMealType) (model.CustomMealType, bool) {
	for _, ct := range customTypes {
		if ct.ID == id {
			return ct, true
		}
	}
	return model.CustomMealType{}, false
}

// NameOf returns the display name for a meal type. For MealTypeCustom the
// name comes from the matching custom type, falling back to a generic
// label on a stale reference.
func NameOf(t model.MealType, customTypeID string, customTypes []model.CustomMealType) string {
	if t == model.MealTypeCustom {
		if ct, ok := findCustom(customTypeID, customTypes); ok {
			return ct.Name
		}
		return fallbackCustomName
	}
	if info, ok := fixedInfo[t]; ok {
		return info.Name
	}
	return string(t)
}

// EmojiOf returns the emoji glyph for a meal type, with the same fallback
// behavior as NameOf.
func EmojiOf(t model.MealType, customTypeID string, customTypes []model.CustomMealType) string {
	if t == model.MealTypeCustom {
		if ct, ok := findCustom(customTypeID, customTypes); ok {
			return ct.Emoji
		}
		return fallbackCustomEmoji
	}
	if info, ok := fixedInfo[t]; ok {
		return info.Emoji
	}
	return fallbackEmoji
}

// OrderOf returns the sort position of a meal type. Fixed types use their
// static order. A custom reference that cannot be resolved sorts last via
// the (known, order) pair rather than a magic large constant.
func OrderOf(t model.MealType, customTypeID string, customTypes []model.CustomMealType) (order int, known bool) {
	if t == model.MealTypeCustom {
		if ct, ok := findCustom(customTypeID, customTypes); ok {
			return ct.Order, true
		}
		return 0, false
	}
	if info, ok := fixedInfo[t]; ok {
		return info.Order, true
	}
	return 0, false
}

// SortByOrder returns the meal types sorted ascending by OrderOf. Unknown
// types sort after all known ones. The sort is stable: ties and unknowns
// keep their input order.
func SortByOrder(mealTypes []model.MealType, customTypes []model.CustomMealType) []model.MealType {
	sorted := make([]model.MealType, len(mealTypes))
	copy(sorted, mealTypes)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, iKnown := OrderOf(sorted[i], "", customTypes)
		oj, jKnown := OrderOf(sorted[j], "", customTypes)
		if iKnown != jKnown {
			return iKnown
		}
		return oi < oj
	})
	return sorted
}

// NewCustomType builds a CustomMealType with a fresh id. When order is nil
// the new type goes after every existing custom type.
func NewCustomType(name, emoji string, order *int, existing []model.CustomMealType) (model.CustomMealType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.CustomMealType{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if emoji == "" {
		emoji = fallbackCustomEmoji
	}

	o := nextOrder(existing)
	if order != nil {
		o = *order
	}

	return model.CustomMealType{
		ID:       "custom_" + uuid.NewString(),
		Name:     name,
		Emoji:    emoji,
		Order:    o,
		IsActive: true,
	}, nil
}

func nextOrder(existing []model.CustomMealType) int {
	max := customOrderBaseline
	for _, ct := range existing {
		if ct.Order > max {
			max = ct.Order
		}
	}
	return max + 1
}
