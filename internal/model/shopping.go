package model

import "time"

// ShoppingItem is one entry on the family shopping list.
type ShoppingItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Quantity    string    `json:"quantity"`
	Unit        string    `json:"unit"`
	IsCompleted bool      `json:"is_completed"`
	AddedBy     *int64    `json:"added_by"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
