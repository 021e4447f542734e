// Package guestscreen carries the current event's gift list from the
// recording screen to the guest-facing display.
//
// A snapshot travels two ways. It is written to the key/value store under
// StorageKey, where subscribers poll for it, and it is pushed to connected
// websocket clients as a MessageType message.
package guestscreen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/giftledger/internal/kv"
	"github.com/dukerupert/giftledger/internal/ledger"
	"github.com/dukerupert/giftledger/internal/model"
	ws "github.com/dukerupert/giftledger/internal/websocket"
)

const (
	StorageKey  = "guest_screen_data"
	MessageType = "guest_screen_update"
)

// Build returns the snapshot for one event. Abolished gifts are left out and
// the remaining order is kept.
func Build(event model.Event, gifts []model.GiftRecord) model.Snapshot {
	snap := model.Snapshot{
		EventName: event.Name,
		Theme:     event.Theme,
		Gifts:     make([]model.GiftRecord, 0, len(gifts)),
	}
	if snap.Theme == "" {
		snap.Theme = model.ThemeFestive
	}
	for _, g := range gifts {
		if !g.Abolished {
			snap.Gifts = append(snap.Gifts, g)
		}
	}
	return snap
}

// Sink receives every published snapshot as encoded JSON.
type Sink interface {
	Deliver(ctx context.Context, raw []byte) error
}

// StorageSink writes snapshots to StorageKey.
type StorageSink struct {
	Store kv.Store
}

func (s StorageSink) Deliver(ctx context.Context, raw []byte) error {
	if err := s.Store.Set(ctx, StorageKey, string(raw)); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Broadcaster fans a message out to connected clients.
type Broadcaster interface {
	Broadcast(msg ws.Message)
}

// BroadcastSink pushes snapshots to websocket clients.
type BroadcastSink struct {
	Hub Broadcaster
}

func (s BroadcastSink) Deliver(_ context.Context, raw []byte) error {
	s.Hub.Broadcast(ws.Message{Type: MessageType, Data: raw})
	return nil
}

// Publisher sends snapshots to every configured sink.
type Publisher struct {
	ledger *ledger.Store
	sinks  []Sink
	logger *slog.Logger

	mu      sync.Mutex
	eventID string
}

func NewPublisher(l *ledger.Store, logger *slog.Logger, sinks ...Sink) *Publisher {
	return &Publisher{ledger: l, sinks: sinks, logger: logger}
}

// Publish encodes snap once and hands it to each sink. A failing sink does
// not stop delivery to the others.
func (p *Publisher) Publish(ctx context.Context, snap model.Snapshot) error {
	if snap.Gifts == nil {
		snap.Gifts = []model.GiftRecord{}
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	var errs []error
	for _, s := range p.sinks {
		if err := s.Deliver(ctx, raw); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	p.logger.Debug("guest screen published", "event", snap.EventName, "gifts", len(snap.Gifts))
	return nil
}

// PublishEvent makes eventID the event on the guest screen. Calls are
// serialized so a snapshot built from older state never follows a newer one.
func (p *Publisher) PublishEvent(ctx context.Context, eventID string) (model.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publishEvent(ctx, eventID)
}

// Refresh republishes the event last shown on the guest screen, so changes
// made outside gift entry (an import, a restore) reach it. It does nothing
// when no event has been published by this process.
func (p *Publisher) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.eventID == "" {
		return nil
	}
	_, err := p.publishEvent(ctx, p.eventID)
	return err
}

func (p *Publisher) publishEvent(ctx context.Context, eventID string) (model.Snapshot, error) {
	ev, err := p.ledger.EventByID(ctx, eventID)
	if err != nil {
		return model.Snapshot{}, err
	}
	gifts, err := p.ledger.GiftsByEvent(ctx, eventID)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap := Build(*ev, gifts)
	if err := p.Publish(ctx, snap); err != nil {
		return snap, err
	}
	p.eventID = eventID
	return snap, nil
}

// Current returns the stored snapshot exactly as it was written.
func (p *Publisher) Current(ctx context.Context) ([]byte, bool, error) {
	raw, ok, err := p.ledger.KV().Get(ctx, StorageKey)
	if err != nil || !ok {
		return nil, ok, err
	}
	return []byte(raw), true, nil
}

// CurrentMessage wraps the stored snapshot as a push message, for clients
// that have just connected.
func (p *Publisher) CurrentMessage(ctx context.Context) (ws.Message, bool) {
	raw, ok, err := p.Current(ctx)
	if err != nil {
		p.logger.Error("read guest screen snapshot", "error", err)
		return ws.Message{}, false
	}
	if !ok {
		return ws.Message{}, false
	}
	return ws.Message{Type: MessageType, Data: raw}, true
}
