package backup

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dukerupert/giftledger/internal/ledger"
	"github.com/dukerupert/giftledger/internal/model"
)

// Exporter builds backup documents from the ledger.
type Exporter struct {
	ledger *ledger.Store
	now    func() time.Time
}

func NewExporter(l *ledger.Store) *Exporter {
	return &Exporter{ledger: l, now: func() time.Time { return time.Now().UTC() }}
}

// ExportAll returns every event and each event's non-abolished gifts.
// It fails with model.ErrEmptyResult when no such gift exists.
func (e *Exporter) ExportAll(ctx context.Context) (*model.Document, error) {
	events, err := e.ledger.AllEvents(ctx)
	if err != nil {
		return nil, err
	}
	doc := e.newDocument(events)
	total := 0
	for _, ev := range events {
		gifts, err := e.ledger.GiftsByEvent(ctx, ev.ID)
		if err != nil {
			return nil, err
		}
		active := activeGifts(gifts)
		if len(active) > 0 {
			doc.Gifts[ev.ID] = active
			total += len(active)
		}
	}
	if total == 0 {
		return nil, model.ErrEmptyResult
	}
	return doc, nil
}

// ExportEvent returns a document scoped to one event.
func (e *Exporter) ExportEvent(ctx context.Context, eventID string) (*model.Document, error) {
	ev, err := e.ledger.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	gifts, err := e.ledger.GiftsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	active := activeGifts(gifts)
	if len(active) == 0 {
		return nil, fmt.Errorf("event %q: %w", eventID, model.ErrEmptyResult)
	}
	doc := e.newDocument([]model.Event{*ev})
	doc.Gifts[eventID] = active
	return doc, nil
}

// Snapshot returns the full ledger, abolished gifts included. It never
// fails for an empty ledger; remote backups use it.
func (e *Exporter) Snapshot(ctx context.Context) (*model.Document, error) {
	events, err := e.ledger.AllEvents(ctx)
	if err != nil {
		return nil, err
	}
	gifts, err := e.ledger.AllGifts(ctx)
	if err != nil {
		return nil, err
	}
	doc := e.newDocument(events)
	doc.Gifts = gifts
	return doc, nil
}

func (e *Exporter) newDocument(events []model.Event) *model.Document {
	return &model.Document{
		Version:   model.DocumentVersion,
		Timestamp: e.now().Format(time.RFC3339),
		Events:    events,
		Gifts:     make(map[string][]model.GiftRecord),
	}
}

// AllFilename names a full backup download.
func AllFilename(now time.Time) string {
	return fmt.Sprintf("礼簿备份_%s.json", now.Format("20060102"))
}

// EventFilename names a single-event download. Characters other than CJK
// ideographs, ASCII letters and digits are dropped from the event name.
func EventFilename(eventName string, now time.Time) string {
	return fmt.Sprintf("礼簿_%s_%s.json", SafeName(eventName), now.Format("20060102"))
}

// SafeName keeps CJK ideographs, ASCII letters and digits.
func SafeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case unicode.Is(unicode.Han, r):
			return r
		}
		return -1
	}, s)
}

func activeGifts(gifts []model.GiftRecord) []model.GiftRecord {
	out := make([]model.GiftRecord, 0, len(gifts))
	for _, g := range gifts {
		if !g.Abolished {
			out = append(out, g)
		}
	}
	return out
}
