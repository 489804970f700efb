package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kondate-app/kondate/internal/model"
)

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

const shoppingCols = `id, name, quantity, unit, is_completed, added_by, sort_order, created_at, updated_at`

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var addedBy sql.NullInt64
	var completed int

	err := scanner.Scan(&item.ID, &item.Name, &item.Quantity, &item.Unit, &completed, &addedBy, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.IsCompleted = completed != 0
	if addedBy.Valid {
		item.AddedBy = &addedBy.Int64
	}
	return &item, nil
}

func (s *ShoppingStore) Create(name, quantity, unit string, addedBy *int64) (*model.ShoppingItem, error) {
	var maxOrder int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(sort_order), -1) FROM shopping_items").Scan(&maxOrder); err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	var aBy sql.NullInt64
	if addedBy != nil {
		aBy = sql.NullInt64{Int64: *addedBy, Valid: true}
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO shopping_items (id, name, quantity, unit, added_by, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, quantity, unit, aBy, maxOrder+1, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingStore) GetByID(id string) (*model.ShoppingItem, error) {
	row := s.db.QueryRow(`SELECT `+shoppingCols+` FROM shopping_items WHERE id = ?`, id)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping item: %w", err)
	}
	return item, nil
}

func (s *ShoppingStore) List() ([]model.ShoppingItem, error) {
	rows, err := s.db.Query(`SELECT ` + shoppingCols + ` FROM shopping_items ORDER BY is_completed ASC, sort_order ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ShoppingStore) Update(id string, name, quantity, unit string) (*model.ShoppingItem, error) {
	_, err := s.db.Exec(
		`UPDATE shopping_items SET name = ?, quantity = ?, unit = ?, updated_at = ? WHERE id = ?`,
		name, quantity, unit, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update shopping item: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM shopping_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return nil
}

func (s *ShoppingStore) ToggleCompleted(id string) (*model.ShoppingItem, error) {
	item, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	completed := 1
	if item.IsCompleted {
		completed = 0
	}
	_, err = s.db.Exec(
		`UPDATE shopping_items SET is_completed = ?, updated_at = ? WHERE id = ?`,
		completed, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle completed: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingStore) ClearCompleted() (int64, error) {
	result, err := s.db.Exec("DELETE FROM shopping_items WHERE is_completed = 1")
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// ReplaceAll swaps the whole list in one transaction (import path).
func (s *ShoppingStore) ReplaceAll(items []model.ShoppingItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM shopping_items"); err != nil {
		return fmt.Errorf("clear shopping items: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO shopping_items (id, name, quantity, unit, is_completed, added_by, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		var aBy sql.NullInt64
		if item.AddedBy != nil {
			aBy = sql.NullInt64{Int64: *item.AddedBy, Valid: true}
		}
		completed := 0
		if item.IsCompleted {
			completed = 1
		}
		if _, err := stmt.Exec(item.ID, item.Name, item.Quantity, item.Unit, completed, aBy, i, item.CreatedAt.UTC(), item.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("insert shopping item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}
