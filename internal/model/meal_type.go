package model

// MealType identifies a category of meal occasion. The fixed members carry
// static metadata in the mealtype package; MealTypeCustom refers to a
// family-defined CustomMealType by id.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
	MealTypeBento     MealType = "bento"
	MealTypeCustom    MealType = "custom"
)

// FixedMealTypes lists the built-in meal types in canonical order.
var FixedMealTypes = []MealType{
	MealTypeBreakfast,
	MealTypeLunch,
	MealTypeDinner,
	MealTypeSnack,
	MealTypeBento,
}

// Valid reports whether t is one of the known meal type tags.
func (t MealType) Valid() bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack, MealTypeBento, MealTypeCustom:
		return true
	}
	return false
}

// CustomMealType is a family-defined meal occasion (e.g. late-night snack).
type CustomMealType struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Order    int    `json:"order"`
	IsActive bool   `json:"is_active"`
}
