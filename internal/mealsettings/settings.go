// Package mealsettings implements the pure transformations over a family's
// meal configuration. Every operation returns a new FamilyMealSettings and
// leaves its input untouched; operations that would break an invariant
// return an *InvariantViolation and the caller keeps the prior value.
package mealsettings

import (
	"fmt"
	"time"

	"github.com/kondate-app/kondate/internal/mealtype"
	"github.com/kondate-app/kondate/internal/model"
)

// InvariantViolation reports an operation that would leave the settings in
// an invalid state. It is returned synchronously so the UI can surface it.
type InvariantViolation struct {
	Op     string
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func contains(types []model.MealType, t model.MealType) bool {
	for _, mt := range types {
		if mt == t {
			return true
		}
	}
	return false
}

func without(types []model.MealType, t model.MealType) []model.MealType {
	out := make([]model.MealType, 0, len(types))
	for _, mt := range types {
		if mt != t {
			out = append(out, mt)
		}
	}
	return out
}

func clone(s model.FamilyMealSettings) model.FamilyMealSettings {
	out := s
	out.EnabledMealTypes = append([]model.MealType(nil), s.EnabledMealTypes...)
	out.DefaultMealTypes = append([]model.MealType(nil), s.DefaultMealTypes...)
	out.CustomMealTypes = append([]model.CustomMealType(nil), s.CustomMealTypes...)
	return out
}

// Validate re-checks every invariant. It is used defensively at aggregate
// boundaries, e.g. after deserializing a settings document from the
// remote store or an import file.
func Validate(s model.FamilyMealSettings) error {
	if len(s.EnabledMealTypes) == 0 {
		return &InvariantViolation{Op: "validate", Reason: "no meal types enabled"}
	}
	for _, t := range s.EnabledMealTypes {
		if !t.Valid() {
			return &InvariantViolation{Op: "validate", Reason: fmt.Sprintf("unknown meal type %q", t)}
		}
	}
	for _, t := range s.DefaultMealTypes {
		if !contains(s.EnabledMealTypes, t) {
			return &InvariantViolation{Op: "validate", Reason: fmt.Sprintf("default meal type %q is not enabled", t)}
		}
	}
	if contains(s.EnabledMealTypes, model.MealTypeCustom) && len(s.CustomMealTypes) == 0 {
		return &InvariantViolation{Op: "validate", Reason: "custom meal type enabled but no custom types defined"}
	}
	return nil
}

// ToggleEnabled flips membership of t in the enabled set. Disabling a type
// also prunes it from the default set. Disabling the last enabled type is
// rejected.
func ToggleEnabled(s model.FamilyMealSettings, t model.MealType, now time.Time) (model.FamilyMealSettings, error) {
	if !t.Valid() {
		return s, &InvariantViolation{Op: "toggle enabled", Reason: fmt.Sprintf("unknown meal type %q", t)}
	}

	out := clone(s)
	if contains(out.EnabledMealTypes, t) {
		if len(out.EnabledMealTypes) == 1 {
			return s, &InvariantViolation{Op: "toggle enabled", Reason: "at least one meal type must stay enabled"}
		}
		out.EnabledMealTypes = without(out.EnabledMealTypes, t)
		out.DefaultMealTypes = without(out.DefaultMealTypes, t)
	} else {
		if t == model.MealTypeCustom && len(out.CustomMealTypes) == 0 {
			return s, &InvariantViolation{Op: "toggle enabled", Reason: "no custom meal types defined"}
		}
		out.EnabledMealTypes = append(out.EnabledMealTypes, t)
	}
	out.UpdatedAt = now
	return out, nil
}

// ToggleDefault flips membership of t in the default (home screen quick
// action) set. The type must currently be enabled.
func ToggleDefault(s model.FamilyMealSettings, t model.MealType, now time.Time) (model.FamilyMealSettings, error) {
	if !contains(s.EnabledMealTypes, t) {
		return s, &InvariantViolation{Op: "toggle default", Reason: fmt.Sprintf("meal type %q is not enabled", t)}
	}

	out := clone(s)
	if contains(out.DefaultMealTypes, t) {
		out.DefaultMealTypes = without(out.DefaultMealTypes, t)
	} else {
		out.DefaultMealTypes = append(out.DefaultMealTypes, t)
	}
	out.UpdatedAt = now
	return out, nil
}

// AddCustomType creates a new custom meal type and ensures the custom tag
// is enabled.
func AddCustomType(s model.FamilyMealSettings, name, emoji string, now time.Time) (model.FamilyMealSettings, model.CustomMealType, error) {
	ct, err := mealtype.NewCustomType(name, emoji, nil, s.CustomMealTypes)
	if err != nil {
		return s, model.CustomMealType{}, err
	}

	out := clone(s)
	out.CustomMealTypes = append(out.CustomMealTypes, ct)
	if !contains(out.EnabledMealTypes, model.MealTypeCustom) {
		out.EnabledMealTypes = append(out.EnabledMealTypes, model.MealTypeCustom)
	}
	out.UpdatedAt = now
	return out, ct, nil
}

// UpdateCustomType replaces the custom type matching updated.ID. An
// unknown id is a no-op: the type may have been deleted on another device.
func UpdateCustomType(s model.FamilyMealSettings, updated model.CustomMealType, now time.Time) model.FamilyMealSettings {
	out := clone(s)
	changed := false
	for i, ct := range out.CustomMealTypes {
		if ct.ID == updated.ID {
			out.CustomMealTypes[i] = updated
			changed = true
			break
		}
	}
	if changed {
		out.UpdatedAt = now
	}
	return out
}

// RemoveCustomType deletes the custom type with the given id. Removing the
// last custom type also strips the custom tag from the enabled and default
// sets. Attendance records referencing the deleted id are left in place;
// catalog lookups degrade to fallback display values.
func RemoveCustomType(s model.FamilyMealSettings, id string, now time.Time) model.FamilyMealSettings {
	out := clone(s)
	kept := out.CustomMealTypes[:0]
	removed := false
	for _, ct := range out.CustomMealTypes {
		if ct.ID == id {
			removed = true
			continue
		}
		kept = append(kept, ct)
	}
	if !removed {
		return s
	}
	out.CustomMealTypes = kept
	if len(out.CustomMealTypes) == 0 {
		out.EnabledMealTypes = without(out.EnabledMealTypes, model.MealTypeCustom)
		out.DefaultMealTypes = without(out.DefaultMealTypes, model.MealTypeCustom)
	}
	out.UpdatedAt = now
	return out
}
