package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukerupert/giftledger/internal/backup"
	"github.com/dukerupert/giftledger/internal/export"
	"github.com/dukerupert/giftledger/internal/ledger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var errNotJSONFile = errors.New("请选择 JSON 格式的备份文件")

type BackupHandler struct {
	ledger     *ledger.Store
	reconciler *backup.Reconciler
	exporter   *backup.Exporter
	remote     *backup.Manager
	logger     *slog.Logger
	now        func() time.Time
}

func NewBackupHandler(l *ledger.Store, rec *backup.Reconciler, exp *backup.Exporter, remote *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{
		ledger:     l,
		reconciler: rec,
		exporter:   exp,
		remote:     remote,
		logger:     logger,
		now:        time.Now,
	}
}

// Import merges an uploaded backup document into the ledger. The document
// arrives either as the "file" part of a multipart form or as a raw JSON body.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "文件过大"})
		case errors.Is(err, errNotJSONFile):
			writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": errNotJSONFile.Error()})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "无法读取上传文件"})
		}
		return
	}

	result, err := h.reconciler.ImportBytes(r.Context(), data)
	if err != nil {
		writeError(w, h.logger, err, "import backup")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
			return nil, errNotJSONFile
		}
		return io.ReadAll(file)
	case "application/json":
		return io.ReadAll(r.Body)
	default:
		return nil, errNotJSONFile
	}
}

// ExportAll downloads every event with its active gifts.
func (h *BackupHandler) ExportAll(w http.ResponseWriter, r *http.Request) {
	doc, err := h.exporter.ExportAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "export all")
		return
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		writeError(w, h.logger, err, "encode export")
		return
	}
	writeAttachment(w, "application/json", backup.AllFilename(h.now()), body)
}

// ExportEvent downloads one event with its active gifts.
func (h *BackupHandler) ExportEvent(w http.ResponseWriter, r *http.Request) {
	doc, err := h.exporter.ExportEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "export event")
		return
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		writeError(w, h.logger, err, "encode export")
		return
	}
	writeAttachment(w, "application/json", backup.EventFilename(doc.Events[0].Name, h.now()), body)
}

// ExportWorkbook downloads one event as a spreadsheet.
func (h *BackupHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ev, err := h.ledger.EventByID(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "export workbook")
		return
	}
	gifts, err := h.ledger.GiftsByEvent(ctx, ev.ID)
	if err != nil {
		writeError(w, h.logger, err, "export workbook")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, *ev, gifts, time.Local); err != nil {
		writeError(w, h.logger, err, "export workbook")
		return
	}
	writeAttachment(w, xlsxContentType, export.WorkbookFilename(*ev, h.now()), buf.Bytes())
}

func (h *BackupHandler) RemoteStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.remote.Status())
}

// RemoteRun uploads a backup immediately.
func (h *BackupHandler) RemoteRun(w http.ResponseWriter, r *http.Request) {
	key, err := h.remote.RunNow(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "remote backup")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

type restoreRequest struct {
	Key string `json:"key"`
}

// RemoteRestore merges a remote backup into the ledger.
func (h *BackupHandler) RemoteRestore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Key = strings.TrimSpace(req.Key)
	if req.Key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}

	result, err := h.remote.Restore(r.Context(), req.Key)
	if err != nil {
		writeError(w, h.logger, err, "remote restore")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
