// Package handler implements the HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/dukerupert/giftledger/internal/backup"
	"github.com/dukerupert/giftledger/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to a status code and writes {"error": msg}.
// Unexpected errors are logged and reported generically.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, action string) {
	status, msg := http.StatusInternalServerError, "服务器内部错误"
	switch {
	case errors.Is(err, model.ErrFormat):
		status, msg = http.StatusBadRequest, model.ErrFormat.Error()
	case errors.Is(err, model.ErrSchema):
		status, msg = http.StatusUnprocessableEntity, model.ErrSchema.Error()
	case errors.Is(err, model.ErrNotFound):
		status, msg = http.StatusNotFound, model.ErrNotFound.Error()
	case errors.Is(err, model.ErrGiftNotFound):
		status, msg = http.StatusNotFound, model.ErrGiftNotFound.Error()
	case errors.Is(err, model.ErrEmptyResult):
		status, msg = http.StatusUnprocessableEntity, model.ErrEmptyResult.Error()
	case errors.Is(err, model.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, backup.ErrDecrypt):
		status, msg = http.StatusUnprocessableEntity, backup.ErrDecrypt.Error()
	case errors.Is(err, backup.ErrNotConfigured):
		status, msg = http.StatusConflict, backup.ErrNotConfigured.Error()
	default:
		logger.Error(action, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAttachment sends body as a download named filename. Non-ASCII names
// are encoded per RFC 2231.
func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
