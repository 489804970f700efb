package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kondate-app/kondate/internal/model"
	"github.com/kondate-app/kondate/internal/store"
	"github.com/kondate-app/kondate/internal/websocket"
)

// ShoppingHandler manages the shared shopping list.
type ShoppingHandler struct {
	store  *store.ShoppingStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewShoppingHandler(store *store.ShoppingStore, hub *websocket.Hub, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{store: store, hub: hub, logger: logger}
}

func (h *ShoppingHandler) notify() {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.TypeShoppingChanged, nil))
	}
}

type shoppingItemRequest struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	AddedBy  *int64 `json:"added_by"`
}

func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List()
	if err != nil {
		h.logger.Error("list shopping items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shopping items")
		return
	}
	if items == nil {
		items = []model.ShoppingItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req shoppingItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	item, err := h.store.Create(req.Name, req.Quantity, req.Unit, req.AddedBy)
	if err != nil {
		h.logger.Error("create shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create shopping item")
		return
	}

	h.notify()
	writeJSON(w, http.StatusCreated, item)
}

func (h *ShoppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load shopping item")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "shopping item not found")
		return
	}

	var req shoppingItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		req.Name = existing.Name
	}

	item, err := h.store.Update(id, req.Name, req.Quantity, req.Unit)
	if err != nil {
		h.logger.Error("update shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update shopping item")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load shopping item")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "shopping item not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete shopping item")
		return
	}

	h.notify()
	w.WriteHeader(http.StatusNoContent)
}

// ToggleCompleted flips the completed flag on an item.
func (h *ShoppingHandler) ToggleCompleted(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.ToggleCompleted(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to toggle shopping item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "shopping item not found")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, item)
}

// ClearCompleted removes every completed item from the list.
func (h *ShoppingHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.ClearCompleted()
	if err != nil {
		h.logger.Error("clear completed shopping items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear completed items")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
