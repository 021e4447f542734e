package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/dukerupert/giftledger/internal/ledger"
	"github.com/dukerupert/giftledger/internal/model"
)

// Reconciler merges backup documents into the ledger by id: records whose id
// is already stored are skipped and counted as conflicts, everything else is
// appended. Importing the same document twice adds nothing the second time.
type Reconciler struct {
	ledger   *ledger.Store
	logger   *slog.Logger
	onImport func(context.Context, model.ImportResult)
}

func NewReconciler(l *ledger.Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{ledger: l, logger: logger}
}

// OnImport registers fn to run after every merge that added at least one
// event or gift. It must be called before the Reconciler is shared.
func (r *Reconciler) OnImport(fn func(context.Context, model.ImportResult)) {
	r.onImport = fn
}

// Import reads a whole backup document from r and merges it.
func (r *Reconciler) Import(ctx context.Context, src io.Reader) (model.ImportResult, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return model.ImportResult{}, fmt.Errorf("read backup: %w", err)
	}
	return r.ImportBytes(ctx, data)
}

// ImportBytes parses data and merges it. Nothing is written unless the
// document is well formed. The merge holds the ledger's write lock, and when
// the underlying store supports transactions the event and gift writes
// commit together.
func (r *Reconciler) ImportBytes(ctx context.Context, data []byte) (model.ImportResult, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return model.ImportResult{}, err
	}

	var result model.ImportResult
	err = r.ledger.Update(ctx, func(tx *ledger.Store) error {
		var mergeErr error
		result, mergeErr = merge(ctx, tx, doc)
		return mergeErr
	})
	if err != nil {
		return model.ImportResult{}, fmt.Errorf("merge backup: %w", err)
	}

	r.logger.Info("backup imported",
		"version", doc.Version,
		"exported_at", doc.Timestamp,
		"events_added", result.Events,
		"gifts_added", result.Gifts,
		"conflicts", result.Conflicts,
	)
	if r.onImport != nil && (result.Events > 0 || result.Gifts > 0) {
		r.onImport(ctx, result)
	}
	return result, nil
}

func merge(ctx context.Context, l *ledger.Store, doc *model.Document) (model.ImportResult, error) {
	var result model.ImportResult

	events, err := l.AllEvents(ctx)
	if err != nil {
		return result, err
	}
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		seen[e.ID] = struct{}{}
	}
	for _, e := range doc.Events {
		if _, ok := seen[e.ID]; ok {
			result.Conflicts++
			continue
		}
		seen[e.ID] = struct{}{}
		events = append(events, e)
		result.Events++
	}
	if err := l.SaveEvents(ctx, events); err != nil {
		return result, err
	}

	eventIDs := make([]string, 0, len(doc.Gifts))
	for id := range doc.Gifts {
		eventIDs = append(eventIDs, id)
	}
	slices.Sort(eventIDs)

	for _, eventID := range eventIDs {
		gifts, err := l.GiftsByEvent(ctx, eventID)
		if err != nil {
			return result, err
		}
		giftSeen := make(map[string]struct{}, len(gifts))
		for _, g := range gifts {
			giftSeen[g.ID] = struct{}{}
		}
		for _, g := range doc.Gifts[eventID] {
			if _, ok := giftSeen[g.ID]; ok {
				result.Conflicts++
				continue
			}
			giftSeen[g.ID] = struct{}{}
			gifts = append(gifts, g)
			result.Gifts++
		}
		if len(gifts) == 0 {
			continue
		}
		if err := l.SaveGifts(ctx, eventID, gifts); err != nil {
			return result, err
		}
	}

	return result, nil
}
