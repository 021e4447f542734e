// Package ledger persists events and their gift records on top of a kv.Store.
// Each collection is stored as one JSON array and always rewritten whole.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/giftledger/internal/kv"
	"github.com/dukerupert/giftledger/internal/model"
)

const (
	EventsKey      = "giftlist_events"
	GiftsKeyPrefix = "giftlist_gifts_"
)

// MaxAmount is the largest single gift amount accepted, in yuan.
const MaxAmount = 1e12

// GiftsKey returns the storage key of one event's gift collection.
func GiftsKey(eventID string) string {
	return GiftsKeyPrefix + eventID
}

// Store reads are lock free. Every read-modify-write of a collection goes
// through Update so concurrent writers never overwrite each other.
type Store struct {
	kv    kv.Store
	mu    *sync.Mutex
	now   func() time.Time
	newID func() string
}

func New(s kv.Store) *Store {
	return &Store{
		kv:    s,
		mu:    &sync.Mutex{},
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// KV exposes the underlying store so callers can open a transaction over it.
func (s *Store) KV() kv.Store {
	return s.kv
}

// With returns a Store over a different kv.Store (usually a transaction)
// that shares this store's lock, clock and id generator.
func (s *Store) With(k kv.Store) *Store {
	return &Store{kv: k, mu: s.mu, now: s.now, newID: s.newID}
}

// Update runs fn while holding the ledger's write lock, inside a transaction
// when the underlying store supports one. fn must not call Update or any of
// the mutating methods on the Store it is given.
func (s *Store) Update(ctx context.Context, fn func(tx *Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return kv.Atomically(ctx, s.kv, func(k kv.Store) error {
		return fn(s.With(k))
	})
}

func (s *Store) AllEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := s.load(ctx, EventsKey, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

func (s *Store) GiftsByEvent(ctx context.Context, eventID string) ([]model.GiftRecord, error) {
	var gifts []model.GiftRecord
	if err := s.load(ctx, GiftsKey(eventID), &gifts); err != nil {
		return nil, err
	}
	if gifts == nil {
		gifts = []model.GiftRecord{}
	}
	return gifts, nil
}

func (s *Store) SaveEvents(ctx context.Context, events []model.Event) error {
	return s.save(ctx, EventsKey, events)
}

func (s *Store) SaveGifts(ctx context.Context, eventID string, gifts []model.GiftRecord) error {
	return s.save(ctx, GiftsKey(eventID), gifts)
}

// EventByID returns model.ErrNotFound when no event has the given id.
func (s *Store) EventByID(ctx context.Context, id string) (*model.Event, error) {
	events, err := s.AllEvents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].ID == id {
			return &events[i], nil
		}
	}
	return nil, fmt.Errorf("event %q: %w", id, model.ErrNotFound)
}

// AllGifts returns the gift collections of every known event that has at
// least one gift.
func (s *Store) AllGifts(ctx context.Context) (map[string][]model.GiftRecord, error) {
	events, err := s.AllEvents(ctx)
	if err != nil {
		return nil, err
	}
	gifts := make(map[string][]model.GiftRecord)
	for _, e := range events {
		g, err := s.GiftsByEvent(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		if len(g) > 0 {
			gifts[e.ID] = g
		}
	}
	return gifts, nil
}

// HasData reports whether any event has at least one gift recorded.
func (s *Store) HasData(ctx context.Context) (bool, error) {
	all, err := s.AllGifts(ctx)
	if err != nil {
		return false, err
	}
	return len(all) > 0, nil
}

// Stats counts events and gifts. LastModified is the newest gift creation
// timestamp.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	events, err := s.AllEvents(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	st := model.Stats{Events: len(events)}
	for _, e := range events {
		gifts, err := s.GiftsByEvent(ctx, e.ID)
		if err != nil {
			return model.Stats{}, err
		}
		st.Gifts += len(gifts)
		for _, g := range gifts {
			if !g.Abolished {
				st.ActiveGifts++
				st.TotalAmount += g.Amount
			}
			if g.Timestamp.IsZero() {
				continue
			}
			if st.LastModified == nil || g.Timestamp.After(*st.LastModified) {
				ts := g.Timestamp
				st.LastModified = &ts
			}
		}
	}
	st.TotalAmount = math.Round(st.TotalAmount*100) / 100
	return st, nil
}

// Landing returns the route a fresh visit should open: the main screen when
// any event exists, the setup flow otherwise.
func (s *Store) Landing(ctx context.Context) (string, error) {
	events, err := s.AllEvents(ctx)
	if err != nil {
		return "", err
	}
	if len(events) > 0 {
		return "/main", nil
	}
	return "/setup", nil
}

func (s *Store) CreateEvent(ctx context.Context, in model.Event) (*model.Event, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Recorder = strings.TrimSpace(in.Recorder)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	if !in.StartDateTime.IsZero() && !in.EndDateTime.IsZero() && in.EndDateTime.Before(in.StartDateTime) {
		return nil, fmt.Errorf("%w: end must not be before start", model.ErrValidation)
	}
	if in.Theme == "" {
		in.Theme = model.ThemeFestive
	}
	if !in.Theme.Valid() {
		return nil, fmt.Errorf("%w: theme must be festive or solemn", model.ErrValidation)
	}

	err := s.Update(ctx, func(tx *Store) error {
		events, err := tx.AllEvents(ctx)
		if err != nil {
			return err
		}
		in.ID = s.newID()
		in.CreatedAt = s.now()
		return tx.SaveEvents(ctx, append(events, in))
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// AddGift appends a gift to an existing event. The stored order is the
// order of creation.
func (s *Store) AddGift(ctx context.Context, eventID string, in model.GiftRecord) (*model.GiftRecord, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must be a non-negative number", model.ErrValidation)
	}
	if in.Amount > MaxAmount {
		return nil, fmt.Errorf("%w: amount must not exceed %.0f", model.ErrValidation, MaxAmount)
	}

	err := s.Update(ctx, func(tx *Store) error {
		if _, err := tx.EventByID(ctx, eventID); err != nil {
			return err
		}
		gifts, err := tx.GiftsByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		in.ID = s.newID()
		in.EventID = eventID
		in.Timestamp = s.now()
		in.Abolished = false
		return tx.SaveGifts(ctx, eventID, append(gifts, in))
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// SetAbolished voids or restores a gift without removing it.
func (s *Store) SetAbolished(ctx context.Context, eventID, giftID string, abolished bool) (*model.GiftRecord, error) {
	var g model.GiftRecord
	err := s.Update(ctx, func(tx *Store) error {
		gifts, err := tx.GiftsByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(gifts, func(g model.GiftRecord) bool { return g.ID == giftID })
		if i < 0 {
			return fmt.Errorf("gift %q in event %q: %w", giftID, eventID, model.ErrGiftNotFound)
		}
		gifts[i].Abolished = abolished
		g = gifts[i]
		return tx.SaveGifts(ctx, eventID, gifts)
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) load(ctx context.Context, key string, v any) error {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
