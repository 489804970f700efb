package mealtype

import (
	"errors"
	"testing"

	"github.com/kondate-app/kondate/internal/model"
)

func TestFixedTypeMetadata(t *testing.T) {
	if got := NameOf(model.MealTypeBreakfast, "", nil); got != "朝食" {
		t.Errorf("breakfast name = %q", got)
	}
	if got := EmojiOf(model.MealTypeDinner, "", nil); got != "🌙" {
		t.Errorf("dinner emoji = %q", got)
	}
	order, known := OrderOf(model.MealTypeBento, "", nil)
	if !known || order != 5 {
		t.Errorf("bento order = %d known=%v, want 5 true", order, known)
	}
}

func TestCustomLookupFallbacks(t *testing.T) {
	customs := []model.CustomMealType{
		{ID: "custom_a", Name: "夜食", Emoji: "🌃", Order: 11, IsActive: true},
	}

	if got := NameOf(model.MealTypeCustom, "custom_a", customs); got != "夜食" {
		t.Errorf("name = %q, want 夜食", got)
	}
	// Stale reference: type was deleted on another device. Not an error.
	if got := NameOf(model.MealTypeCustom, "custom_gone", customs); got != "カスタム" {
		t.Errorf("fallback name = %q", got)
	}
	if got := EmojiOf(model.MealTypeCustom, "custom_gone", customs); got != "⭐" {
		t.Errorf("fallback emoji = %q", got)
	}
	if _, known := OrderOf(model.MealTypeCustom, "custom_gone", customs); known {
		t.Error("unknown custom type should report known=false")
	}
}

func TestSortByOrder(t *testing.T) {
	in := []model.MealType{
		model.MealTypeDinner,
		model.MealTypeBreakfast,
		model.MealTypeBento,
		model.MealTypeLunch,
	}
	got := SortByOrder(in, nil)
	want := []model.MealType{
		model.MealTypeBreakfast,
		model.MealTypeLunch,
		model.MealTypeDinner,
		model.MealTypeBento,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	// Input must not be mutated.
	if in[0] != model.MealTypeDinner {
		t.Error("SortByOrder mutated its input")
	}
}

func TestSortByOrderStable(t *testing.T) {
	// Unknown custom references tie on order; they must keep input order,
	// after every known type.
	in := []model.MealType{model.MealTypeCustom, model.MealTypeDinner, model.MealTypeCustom}
	got := SortByOrder(in, nil)
	want := []model.MealType{model.MealTypeDinner, model.MealTypeCustom, model.MealTypeCustom}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Idempotence: sorting an already-canonical list is a no-op.
	again := SortByOrder(got, nil)
	for i := range got {
		if again[i] != got[i] {
			t.Fatalf("second sort changed position %d", i)
		}
	}
}

func TestNewCustomType(t *testing.T) {
	ct, err := NewCustomType("夜食", "🌃", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ct.ID == "" || ct.Name != "夜食" || ct.Emoji != "🌃" {
		t.Errorf("unexpected custom type: %+v", ct)
	}
	if ct.Order != 11 {
		t.Errorf("order = %d, want baseline+1 = 11", ct.Order)
	}
	if !ct.IsActive {
		t.Error("new custom type should be active")
	}

	second, err := NewCustomType("おやつ2", "🍩", nil, []model.CustomMealType{ct})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Order != ct.Order+1 {
		t.Errorf("second order = %d, want %d", second.Order, ct.Order+1)
	}
	if second.ID == ct.ID {
		t.Error("ids must be unique")
	}

	explicit := 42
	third, err := NewCustomType("特別", "🎉", &explicit, nil)
	if err != nil {
		t.Fatalf("create third: %v", err)
	}
	if third.Order != 42 {
		t.Errorf("explicit order = %d, want 42", third.Order)
	}
}

func TestNewCustomTypeEmptyName(t *testing.T) {
	_, err := NewCustomType("   ", "🌃", nil, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Field != "name" {
		t.Errorf("field = %q, want name", verr.Field)
	}
}
