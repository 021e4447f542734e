package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/giftledger/internal/guestscreen"
	"github.com/dukerupert/giftledger/internal/ledger"
	"github.com/dukerupert/giftledger/internal/model"
)

type GiftHandler struct {
	ledger    *ledger.Store
	publisher *guestscreen.Publisher
	logger    *slog.Logger
}

func NewGiftHandler(l *ledger.Store, p *guestscreen.Publisher, logger *slog.Logger) *GiftHandler {
	return &GiftHandler{ledger: l, publisher: p, logger: logger}
}

type giftRequest struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
	Remark string  `json:"remark"`
}

func (h *GiftHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if _, err := h.ledger.EventByID(r.Context(), eventID); err != nil {
		writeError(w, h.logger, err, "list gifts")
		return
	}
	gifts, err := h.ledger.GiftsByEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, h.logger, err, "list gifts")
		return
	}
	writeJSON(w, http.StatusOK, gifts)
}

func (h *GiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req giftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	eventID := r.PathValue("id")
	gift, err := h.ledger.AddGift(r.Context(), eventID, model.GiftRecord{
		Name:   req.Name,
		Amount: req.Amount,
		Type:   req.Type,
		Remark: req.Remark,
	})
	if err != nil {
		writeError(w, h.logger, err, "add gift")
		return
	}

	h.publish(r, eventID)
	writeJSON(w, http.StatusCreated, gift)
}

func (h *GiftHandler) Abolish(w http.ResponseWriter, r *http.Request) {
	h.setAbolished(w, r, true)
}

func (h *GiftHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.setAbolished(w, r, false)
}

func (h *GiftHandler) setAbolished(w http.ResponseWriter, r *http.Request, abolished bool) {
	eventID := r.PathValue("id")
	gift, err := h.ledger.SetAbolished(r.Context(), eventID, r.PathValue("gift_id"), abolished)
	if err != nil {
		writeError(w, h.logger, err, "set abolished")
		return
	}

	h.publish(r, eventID)
	writeJSON(w, http.StatusOK, gift)
}

// publish refreshes the guest screen. The gift is already stored, so a
// failure here is logged rather than returned.
func (h *GiftHandler) publish(r *http.Request, eventID string) {
	if h.publisher == nil {
		return
	}
	if _, err := h.publisher.PublishEvent(r.Context(), eventID); err != nil {
		h.logger.Error("publish guest screen", "event", eventID, "error", err)
	}
}
