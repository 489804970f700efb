package schedule

import (
	"testing"
	"time"

	"github.com/kondate-app/kondate/internal/attendance"
	"github.com/kondate-app/kondate/internal/mealsettings"
	"github.com/kondate-app/kondate/internal/model"
)

var testNow = time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)

func roster() []model.FamilyMember {
	return []model.FamilyMember{
		{ID: 1, Name: "A", SortOrder: 0},
		{ID: 2, Name: "B", SortOrder: 1},
		{ID: 3, Name: "C", SortOrder: 2},
	}
}

func TestPartitionScenario(t *testing.T) {
	// A present, B absent, C unset for (2024-06-10, dinner).
	k := func(user int64) attendance.Key {
		return attendance.Key{Date: "2024-06-10", UserID: user, MealType: model.MealTypeDinner}
	}
	records := attendance.SetStatus(nil, k(1), model.AttendancePresent, testNow)
	records = attendance.SetStatus(records, k(2), model.AttendanceAbsent, testNow)

	p := PartitionMembers(records, roster(), "2024-06-10", model.MealTypeDinner, "")

	if len(p.Attending) != 1 || p.Attending[0].Name != "A" {
		t.Errorf("attending = %v", p.Attending)
	}
	if len(p.Absent) != 1 || p.Absent[0].Name != "B" {
		t.Errorf("absent = %v", p.Absent)
	}
	if len(p.Unset) != 1 || p.Unset[0].Name != "C" {
		t.Errorf("unset = %v", p.Unset)
	}
}

// |attending| + |absent| + |unset| == |roster| for any record set.
func TestPartitionCompleteness(t *testing.T) {
	var records []model.AttendanceRecord
	dates := []string{"2024-06-10", "2024-06-11"}
	statuses := []model.AttendanceStatus{model.AttendancePresent, model.AttendanceAbsent}

	i := 0
	for _, d := range dates {
		for user := int64(1); user <= 2; user++ {
			k := attendance.Key{Date: d, UserID: user, MealType: model.MealTypeDinner}
			records = attendance.SetStatus(records, k, statuses[i%2], testNow)
			i++
		}
	}

	for _, d := range dates {
		p := PartitionMembers(records, roster(), d, model.MealTypeDinner, "")
		total := len(p.Attending) + len(p.Absent) + len(p.Unset)
		if total != len(roster()) {
			t.Fatalf("partition sizes %d+%d+%d != roster %d on %s",
				len(p.Attending), len(p.Absent), len(p.Unset), len(roster()), d)
		}
		seen := make(map[int64]bool)
		for _, set := range [][]model.FamilyMember{p.Attending, p.Absent, p.Unset} {
			for _, m := range set {
				if seen[m.ID] {
					t.Fatalf("member %d appears in two partitions on %s", m.ID, d)
				}
				seen[m.ID] = true
			}
		}
	}
}

func TestPartitionPreservesRosterOrder(t *testing.T) {
	// Roster order is authoritative, not alphabetical and not record order.
	members := []model.FamilyMember{
		{ID: 9, Name: "Zoe"},
		{ID: 4, Name: "Ann"},
	}
	k := func(user int64) attendance.Key {
		return attendance.Key{Date: "2024-06-10", UserID: user, MealType: model.MealTypeDinner}
	}
	records := attendance.SetStatus(nil, k(4), model.AttendancePresent, testNow)
	records = attendance.SetStatus(records, k(9), model.AttendancePresent, testNow)

	got := AttendingMembers(records, members, "2024-06-10", model.MealTypeDinner, "")
	if len(got) != 2 || got[0].Name != "Zoe" || got[1].Name != "Ann" {
		t.Errorf("attending = %v, want roster order Zoe,Ann", got)
	}
}

func TestOrderedMealTypes(t *testing.T) {
	s, err := mealsettings.ApplyPreset("full", testNow)
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	slots := OrderedMealTypes(s)
	want := []model.MealType{
		model.MealTypeBreakfast, model.MealTypeLunch, model.MealTypeDinner,
		model.MealTypeSnack, model.MealTypeBento,
	}
	if len(slots) != len(want) {
		t.Fatalf("len = %d, want %d", len(slots), len(want))
	}
	for i, w := range want {
		if slots[i].MealType != w {
			t.Errorf("slot[%d] = %q, want %q", i, slots[i].MealType, w)
		}
	}
	if slots[0].Name != "朝食" || slots[0].Emoji != "🌅" {
		t.Errorf("slot[0] metadata = %+v", slots[0])
	}
}

func TestQuickActionMealTypesUsesDefaults(t *testing.T) {
	s, _ := mealsettings.ApplyPreset("full", testNow)
	slots := QuickActionMealTypes(s)
	// full preset: 5 enabled but only 3 defaults.
	if len(slots) != 3 {
		t.Fatalf("len = %d, want 3", len(slots))
	}
	if slots[2].MealType != model.MealTypeDinner {
		t.Errorf("slot[2] = %+v", slots[2])
	}
}

func TestOrderedMealTypesExpandsCustom(t *testing.T) {
	s := mealsettings.DefaultSettings(testNow)
	s, ct1, err := mealsettings.AddCustomType(s, "夜食", "🌃", testNow)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	s, ct2, err := mealsettings.AddCustomType(s, "間食", "🍘", testNow)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	slots := OrderedMealTypes(s)
	if len(slots) != 3 {
		t.Fatalf("slots = %+v", slots)
	}
	if slots[0].MealType != model.MealTypeDinner {
		t.Errorf("slot[0] = %+v", slots[0])
	}
	if slots[1].CustomTypeID != ct1.ID || slots[2].CustomTypeID != ct2.ID {
		t.Errorf("custom slots out of order: %+v", slots[1:])
	}
	if slots[1].Name != "夜食" {
		t.Errorf("slot[1] name = %q", slots[1].Name)
	}
}

func TestOrderedMealTypesSkipsInactiveCustom(t *testing.T) {
	s := mealsettings.DefaultSettings(testNow)
	s, ct, _ := mealsettings.AddCustomType(s, "夜食", "🌃", testNow)
	ct.IsActive = false
	s = mealsettings.UpdateCustomType(s, ct, testNow)

	for _, slot := range OrderedMealTypes(s) {
		if slot.CustomTypeID == ct.ID {
			t.Fatalf("inactive custom type slot present: %+v", slot)
		}
	}
}

func TestProjectDay(t *testing.T) {
	s, _ := mealsettings.ApplyPreset("three_meals", testNow)
	k := attendance.Key{Date: "2024-06-10", UserID: 1, MealType: model.MealTypeDinner}
	records := attendance.SetStatus(nil, k, model.AttendancePresent, testNow)
	planned := []model.MealScheduleEntry{
		{ID: "m1", Date: "2024-06-10", MealType: model.MealTypeDinner, Title: "カレー", Ingredients: []string{"じゃがいも"}},
		{ID: "m2", Date: "2024-06-11", MealType: model.MealTypeDinner, Title: "うどん"},
	}

	in := Input{
		Settings: s,
		Records:  records,
		Roster:   roster(),
		Planned:  planned,
		Holidays: map[string]bool{},
		Now:      testNow,
	}

	view := ProjectDay(in, "2024-06-10")
	if !view.IsToday {
		t.Error("2024-06-10 should be today")
	}
	if view.Weekday != 0 {
		t.Errorf("weekday = %d, want Monday=0", view.Weekday)
	}
	if view.Class != ClassWeekday {
		t.Errorf("class = %q", view.Class)
	}
	if len(view.Slots) != 3 {
		t.Fatalf("slots = %d, want 3", len(view.Slots))
	}

	dinner := view.Slots[2]
	if dinner.MealType != model.MealTypeDinner {
		t.Fatalf("slot[2] = %q", dinner.MealType)
	}
	if len(dinner.Attendance.Attending) != 1 || dinner.Attendance.Attending[0].ID != 1 {
		t.Errorf("attending = %v", dinner.Attendance.Attending)
	}
	if len(dinner.Planned) != 1 || dinner.Planned[0].Title != "カレー" {
		t.Errorf("planned = %v (meals from other dates must not leak in)", dinner.Planned)
	}
}

func TestProjectWeek(t *testing.T) {
	in := Input{
		Settings: mealsettings.DefaultSettings(testNow),
		Roster:   roster(),
		Holidays: map[string]bool{},
		Now:      testNow,
	}
	views := ProjectWeek(in, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC))
	if len(views) != 7 {
		t.Fatalf("len = %d, want 7", len(views))
	}
	if views[0].Date != "2024-06-10" || views[6].Date != "2024-06-16" {
		t.Errorf("week bounds %q .. %q", views[0].Date, views[6].Date)
	}
	if views[6].Class != ClassRestDay {
		t.Errorf("Sunday class = %q", views[6].Class)
	}
}
