// Package schedule derives the display-ready views that drive the meal
// schedule UI: ordered meal type lists, member attendance partitions per
// (date, meal type) slot, and calendar date windows. Everything here is a
// pure read path over settings, the attendance record set, and the roster.
package schedule

import (
	"time"

	"github.com/kondate-app/kondate/internal/attendance"
	"github.com/kondate-app/kondate/internal/mealtype"
	"github.com/kondate-app/kondate/internal/model"
)

// MealSlot is one meal type resolved for display.
type MealSlot struct {
	MealType     model.MealType `json:"meal_type"`
	CustomTypeID string         `json:"custom_type_id,omitempty"`
	Name         string         `json:"name"`
	Emoji        string         `json:"emoji"`
}

// OrderedMealTypes returns the enabled meal types in catalog order. The
// custom tag expands into one slot per active custom type, sorted by the
// custom types' own order.
func OrderedMealTypes(settings model.FamilyMealSettings) []MealSlot {
	return expandSlots(settings.EnabledMealTypes, settings.CustomMealTypes)
}

// QuickActionMealTypes is the home screen variant of OrderedMealTypes,
// restricted to the default set. Same ordering rule.
func QuickActionMealTypes(settings model.FamilyMealSettings) []MealSlot {
	return expandSlots(settings.DefaultMealTypes, settings.CustomMealTypes)
}

func expandSlots(types []model.MealType, customTypes []model.CustomMealType) []MealSlot {
	sorted := mealtype.SortByOrder(types, customTypes)
	var slots []MealSlot
	for _, t := range sorted {
		if t != model.MealTypeCustom {
			slots = append(slots, MealSlot{
				MealType: t,
				Name:     mealtype.NameOf(t, "", customTypes),
				Emoji:    mealtype.EmojiOf(t, "", customTypes),
			})
			continue
		}
		for _, ct := range sortedActive(customTypes) {
			slots = append(slots, MealSlot{
				MealType:     model.MealTypeCustom,
				CustomTypeID: ct.ID,
				Name:         ct.Name,
				Emoji:        ct.Emoji,
			})
		}
	}
	return slots
}

func sortedActive(customTypes []model.CustomMealType) []model.CustomMealType {
	var active []model.CustomMealType
	for _, ct := range customTypes {
		if ct.IsActive {
			active = append(active, ct)
		}
	}
	// insertion sort keeps it stable; custom type lists are tiny
	for i := 1; i < len(active); i++ {
		for j := i; j > 0 && active[j].Order < active[j-1].Order; j-- {
			active[j], active[j-1] = active[j-1], active[j]
		}
	}
	return active
}

// Partition splits the roster for one (date, meal type) slot. The three
// slices are pairwise disjoint, preserve roster order, and together cover
// the whole roster.
type Partition struct {
	Attending []model.FamilyMember `json:"attending"`
	Absent    []model.FamilyMember `json:"absent"`
	Unset     []model.FamilyMember `json:"unset"`
}

// PartitionMembers classifies every roster member by their declared status
// for the slot. Roster order is authoritative.
func PartitionMembers(records []model.AttendanceRecord, roster []model.FamilyMember, date string, mealType model.MealType, customTypeID string) Partition {
	var p Partition
	for _, m := range roster {
		k := attendance.Key{Date: date, UserID: m.ID, MealType: mealType, CustomTypeID: customTypeID}
		switch s := attendance.StatusFor(records, k); {
		case s == nil:
			p.Unset = append(p.Unset, m)
		case *s == model.AttendancePresent:
			p.Attending = append(p.Attending, m)
		default:
			p.Absent = append(p.Absent, m)
		}
	}
	return p
}

// AttendingMembers returns the roster members marked present for the slot.
func AttendingMembers(records []model.AttendanceRecord, roster []model.FamilyMember, date string, mealType model.MealType, customTypeID string) []model.FamilyMember {
	return PartitionMembers(records, roster, date, mealType, customTypeID).Attending
}

// AbsentMembers returns the roster members marked absent for the slot.
func AbsentMembers(records []model.AttendanceRecord, roster []model.FamilyMember, date string, mealType model.MealType, customTypeID string) []model.FamilyMember {
	return PartitionMembers(records, roster, date, mealType, customTypeID).Absent
}

// UnsetMembers returns the roster members with no record for the slot.
func UnsetMembers(records []model.AttendanceRecord, roster []model.FamilyMember, date string, mealType model.MealType, customTypeID string) []model.FamilyMember {
	return PartitionMembers(records, roster, date, mealType, customTypeID).Unset
}

// SlotView is one meal slot of a day with its attendance partition and
// any planned meals.
type SlotView struct {
	MealSlot
	Attendance Partition                 `json:"attendance"`
	Planned    []model.MealScheduleEntry `json:"planned"`
}

// DayView is everything the schedule screen renders for one date.
type DayView struct {
	Date    string     `json:"date"`
	Weekday int        `json:"weekday"` // Monday=0 .. Sunday=6
	IsToday bool       `json:"is_today"`
	Class   DayClass   `json:"class"`
	Slots   []SlotView `json:"slots"`
}

// Input bundles the read-only state a projection runs over.
type Input struct {
	Settings model.FamilyMealSettings
	Records  []model.AttendanceRecord
	Roster   []model.FamilyMember
	Planned  []model.MealScheduleEntry
	Holidays map[string]bool
	Now      time.Time
}

// ProjectDay builds the view for a single date.
func ProjectDay(in Input, date string) DayView {
	day, err := ParseDate(date)
	view := DayView{Date: date}
	if err == nil {
		view.Weekday = Weekday(day)
		view.IsToday = IsToday(day, in.Now)
		view.Class = Classify(day, in.Holidays)
	}

	planned := entriesOn(in.Planned, date)
	for _, slot := range OrderedMealTypes(in.Settings) {
		view.Slots = append(view.Slots, SlotView{
			MealSlot:   slot,
			Attendance: PartitionMembers(in.Records, in.Roster, date, slot.MealType, slot.CustomTypeID),
			Planned:    plannedFor(planned, slot),
		})
	}
	return view
}

// ProjectDays builds views for an ordered date window.
func ProjectDays(in Input, dates []string) []DayView {
	views := make([]DayView, 0, len(dates))
	for _, d := range dates {
		views = append(views, ProjectDay(in, d))
	}
	return views
}

// ProjectWeek builds the Monday-first week view containing reference.
func ProjectWeek(in Input, reference time.Time) []DayView {
	return ProjectDays(in, WeekWindow(reference))
}

func entriesOn(entries []model.MealScheduleEntry, date string) []model.MealScheduleEntry {
	var out []model.MealScheduleEntry
	for _, e := range entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

func plannedFor(entries []model.MealScheduleEntry, slot MealSlot) []model.MealScheduleEntry {
	var out []model.MealScheduleEntry
	for _, e := range entries {
		if e.MealType == slot.MealType && e.CustomTypeID == slot.CustomTypeID {
			out = append(out, e)
		}
	}
	return out
}
