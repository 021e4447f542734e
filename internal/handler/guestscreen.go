package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/giftledger/internal/guestscreen"
)

type GuestScreenHandler struct {
	publisher *guestscreen.Publisher
	logger    *slog.Logger
}

func NewGuestScreenHandler(p *guestscreen.Publisher, logger *slog.Logger) *GuestScreenHandler {
	return &GuestScreenHandler{publisher: p, logger: logger}
}

// Show puts an event on the guest screen.
func (h *GuestScreenHandler) Show(w http.ResponseWriter, r *http.Request) {
	snap, err := h.publisher.PublishEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "publish guest screen")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Current returns the published snapshot byte for byte, or 204 when nothing
// has been published.
func (h *GuestScreenHandler) Current(w http.ResponseWriter, r *http.Request) {
	raw, ok, err := h.publisher.Current(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "read guest screen")
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(raw)
}
