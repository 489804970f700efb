// Package export builds and restores portable JSON documents holding a
// family's complete data: roster, settings, planned meals, attendance
// and shopping list. A document imported into an empty database yields
// the same state it was exported from.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kondate-app/kondate/internal/attendance"
	"github.com/kondate-app/kondate/internal/mealsettings"
	"github.com/kondate-app/kondate/internal/model"
	"github.com/kondate-app/kondate/internal/store"
)

// Version identifies the document layout. Importers reject documents
// with a version they do not understand.
const Version = 1

// ErrVersionMismatch is returned for documents with an unknown version.
var ErrVersionMismatch = errors.New("unsupported document version")

// Document is the export payload.
type Document struct {
	User         *model.FamilyMember       `json:"user,omitempty"`
	Family       []model.FamilyMember      `json:"family"`
	Schedules    []model.MealScheduleEntry `json:"schedules"`
	Attendance   []model.AttendanceRecord  `json:"attendance"`
	ShoppingList []model.ShoppingItem      `json:"shoppingList"`
	Settings     model.FamilyMealSettings  `json:"settings"`
	ExportDate   time.Time                 `json:"exportDate"`
	Version      int                       `json:"version"`
}

// Service assembles and restores export documents.
type Service struct {
	members    *store.FamilyMemberStore
	settings   *store.MealSettingsStore
	schedules  *store.MealScheduleStore
	attendance *store.AttendanceStore
	shopping   *store.ShoppingStore
}

func NewService(members *store.FamilyMemberStore, settings *store.MealSettingsStore, schedules *store.MealScheduleStore, attendance *store.AttendanceStore, shopping *store.ShoppingStore) *Service {
	return &Service{
		members:    members,
		settings:   settings,
		schedules:  schedules,
		attendance: attendance,
		shopping:   shopping,
	}
}

// Export builds a document from the current database state. userID, if
// non-zero, selects which roster member is recorded as the exporter.
func (s *Service) Export(userID int64) (*Document, error) {
	members, err := s.members.List()
	if err != nil {
		return nil, fmt.Errorf("export members: %w", err)
	}
	settings, err := s.settings.Load()
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	schedules, err := s.schedules.List()
	if err != nil {
		return nil, fmt.Errorf("export schedules: %w", err)
	}
	records, err := s.attendance.List()
	if err != nil {
		return nil, fmt.Errorf("export attendance: %w", err)
	}
	items, err := s.shopping.List()
	if err != nil {
		return nil, fmt.Errorf("export shopping list: %w", err)
	}

	doc := &Document{
		Family:       members,
		Schedules:    schedules,
		Attendance:   records,
		ShoppingList: items,
		Settings:     settings,
		ExportDate:   time.Now().UTC(),
		Version:      Version,
	}
	if userID != 0 {
		for i := range members {
			if members[i].ID == userID {
				doc.User = &members[i]
				break
			}
		}
	}
	return doc, nil
}

// Import validates a document and replaces the database contents with
// it. The roster is written first so attendance user IDs stay coherent.
func (s *Service) Import(doc *Document) error {
	if err := Validate(doc); err != nil {
		return err
	}
	// Duplicate attendance keys mean a corrupt document, not concurrent
	// edits; reject rather than dedupe.
	records, err := attendance.ReplaceAllStrict(doc.Attendance)
	if err != nil {
		return fmt.Errorf("import attendance: %w", err)
	}

	if err := s.members.ReplaceAll(doc.Family); err != nil {
		return fmt.Errorf("import members: %w", err)
	}
	if err := s.settings.Save(doc.Settings); err != nil {
		return fmt.Errorf("import settings: %w", err)
	}
	if err := s.schedules.ReplaceAll(doc.Schedules); err != nil {
		return fmt.Errorf("import schedules: %w", err)
	}
	if err := s.attendance.ReplaceAll(records); err != nil {
		return fmt.Errorf("import attendance: %w", err)
	}
	if err := s.shopping.ReplaceAll(doc.ShoppingList); err != nil {
		return fmt.Errorf("import shopping list: %w", err)
	}
	return nil
}

// Validate checks a document before import.
func Validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("empty document")
	}
	if doc.Version != Version {
		return fmt.Errorf("%w: %d", ErrVersionMismatch, doc.Version)
	}
	if err := mealsettings.Validate(doc.Settings); err != nil {
		return fmt.Errorf("document settings: %w", err)
	}
	for _, r := range doc.Attendance {
		if !r.Status.Valid() {
			return fmt.Errorf("attendance record %s: invalid status %q", r.Key(), r.Status)
		}
	}
	return nil
}

// Encode renders a document as indented JSON.
func Encode(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export document: %w", err)
	}
	return data, nil
}

// Decode parses a JSON document and validates it.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode export document: %w", err)
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
