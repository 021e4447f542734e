package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/giftledger/internal/ledger"
	"github.com/dukerupert/giftledger/internal/model"
)

type EventHandler struct {
	ledger *ledger.Store
	logger *slog.Logger
}

func NewEventHandler(l *ledger.Store, logger *slog.Logger) *EventHandler {
	return &EventHandler{ledger: l, logger: logger}
}

type eventRequest struct {
	Name          string      `json:"name"`
	StartDateTime time.Time   `json:"startDateTime"`
	EndDateTime   time.Time   `json:"endDateTime"`
	Recorder      string      `json:"recorder"`
	Theme         model.Theme `json:"theme"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	ev, err := h.ledger.CreateEvent(r.Context(), model.Event{
		Name:          req.Name,
		StartDateTime: req.StartDateTime,
		EndDateTime:   req.EndDateTime,
		Recorder:      req.Recorder,
		Theme:         req.Theme,
	})
	if err != nil {
		writeError(w, h.logger, err, "create event")
		return
	}

	h.logger.Info("event created", "id", ev.ID, "name", ev.Name)
	writeJSON(w, http.StatusCreated, ev)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.ledger.AllEvents(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.ledger.EventByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "get event")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Landing tells a fresh client whether to open the main screen or setup.
func (h *EventHandler) Landing(w http.ResponseWriter, r *http.Request) {
	path, err := h.ledger.Landing(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "landing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (h *EventHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
