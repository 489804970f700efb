package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kondate-app/kondate/internal/backup"
	"github.com/kondate-app/kondate/internal/export"
	"github.com/kondate-app/kondate/internal/websocket"
)

// ExportHandler serves full-database export and import, both plain JSON
// and passphrase-encrypted blobs.
type ExportHandler struct {
	service *export.Service
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewExportHandler(service *export.Service, hub *websocket.Hub, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{service: service, hub: hub, logger: logger}
}

// importApplied tells connected clients to refetch everything.
func (h *ExportHandler) importApplied() {
	if h.hub == nil {
		return
	}
	for _, t := range []string{
		websocket.TypeMembersChanged,
		websocket.TypeSettingsChanged,
		websocket.TypeScheduleChanged,
		websocket.TypeAttendanceChanged,
		websocket.TypeShoppingChanged,
	} {
		h.hub.Broadcast(websocket.NewMessage(t, nil))
	}
}

func (h *ExportHandler) exportDoc(r *http.Request) (*export.Document, error) {
	var userID int64
	if v := r.URL.Query().Get("userId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("userId must be an integer")
		}
		userID = id
	}
	return h.service.Export(userID)
}

// Export returns the full dataset as a JSON document.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.exportDoc(r)
	if err != nil {
		h.logger.Error("export", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export data")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=kondate-export-%s.json", time.Now().UTC().Format("20060102")))
	writeJSON(w, http.StatusOK, doc)
}

type encryptedExportRequest struct {
	Passphrase string `json:"passphrase"`
}

// ExportEncrypted returns the dataset encrypted with a caller-supplied
// passphrase. The blob is self-contained and feeds ImportEncrypted.
func (h *ExportHandler) ExportEncrypted(w http.ResponseWriter, r *http.Request) {
	var req encryptedExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Passphrase) < 8 {
		writeError(w, http.StatusBadRequest, "passphrase must be at least 8 characters")
		return
	}

	doc, err := h.exportDoc(r)
	if err != nil {
		h.logger.Error("export", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export data")
		return
	}

	data, err := export.Encode(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode export")
		return
	}

	salt, err := backup.GenerateSalt()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encrypt export")
		return
	}
	blob, err := backup.Encrypt(data, req.Passphrase, salt)
	if err != nil {
		h.logger.Error("encrypt export", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to encrypt export")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=kondate-export-%s.json.enc", time.Now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

// Import replaces all local data with the posted document.
func (h *ExportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var doc export.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := export.Validate(&doc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.service.Import(&doc); err != nil {
		h.logger.Error("import", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to import data")
		return
	}

	h.importApplied()
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

type encryptedImportRequest struct {
	Passphrase string `json:"passphrase"`
	Data       string `json:"data"` // base64 encrypted blob
}

// ImportEncrypted decrypts a blob produced by ExportEncrypted or the
// backup uploader and imports it.
func (h *ExportHandler) ImportEncrypted(w http.ResponseWriter, r *http.Request) {
	var req encryptedImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "passphrase is required")
		return
	}

	blob, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "data must be base64")
		return
	}

	plaintext, err := backup.Decrypt(blob, req.Passphrase)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "decryption failed, check the passphrase")
		return
	}

	doc, err := export.Decode(plaintext)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.service.Import(doc); err != nil {
		h.logger.Error("import", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to import data")
		return
	}

	h.importApplied()
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}
