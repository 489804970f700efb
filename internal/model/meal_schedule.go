package model

import "time"

// MealScheduleEntry is a planned meal for one date and meal type.
type MealScheduleEntry struct {
	ID           string    `json:"id"`
	Date         string    `json:"date"` // YYYY-MM-DD
	MealType     MealType  `json:"mealType"`
	CustomTypeID string    `json:"customTypeId,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Ingredients  []string  `json:"ingredients"`
	CreatedBy    int64     `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
