package guestscreen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/dukerupert/giftledger/internal/kv"
	"github.com/dukerupert/giftledger/internal/model"
)

// Source yields the latest raw snapshot, if one has been published.
type Source interface {
	Fetch(ctx context.Context) (string, bool, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, bool, error)

func (f SourceFunc) Fetch(ctx context.Context) (string, bool, error) { return f(ctx) }

// StoreSource reads StorageKey from a key/value store directly.
func StoreSource(s kv.Store) Source {
	return SourceFunc(func(ctx context.Context) (string, bool, error) {
		return s.Get(ctx, StorageKey)
	})
}

// HTTPSource polls a running server's guest-screen endpoint.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (h HTTPSource) Fetch(ctx context.Context) (string, bool, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(h.BaseURL, "/")+"/api/guest-screen", nil)
	if err != nil {
		return "", false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("poll guest screen: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("poll guest screen: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("read guest screen: %w", err)
	}
	return string(body), true, nil
}

// Subscriber keeps the most recent snapshot seen on either channel. The raw
// value is cached so an unchanged value is never parsed twice, whichever
// channel it arrived on.
type Subscriber struct {
	mu       sync.Mutex
	raw      string
	current  *model.Snapshot
	onChange func(model.Snapshot)
	logger   *slog.Logger
}

// NewSubscriber returns a Subscriber that calls onChange, if non-nil, each
// time a different snapshot arrives. onChange must not call back into the
// Subscriber.
func NewSubscriber(onChange func(model.Snapshot), logger *slog.Logger) *Subscriber {
	return &Subscriber{onChange: onChange, logger: logger}
}

// Current returns the last accepted snapshot.
func (s *Subscriber) Current() (model.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.Snapshot{}, false
	}
	return *s.current, true
}

// Poll reads src immediately and then once per interval until ctx is done.
// Read errors are logged and the previous snapshot is kept.
func (s *Subscriber) Poll(ctx context.Context, src Source, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		raw, ok, err := src.Fetch(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("guest screen poll failed", "error", err)
		case ok:
			s.accept(raw)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// HandleMessage applies a push message. Messages of any other type are
// ignored and report false.
func (s *Subscriber) HandleMessage(raw []byte) bool {
	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Warn("guest screen message not JSON", "error", err)
		return false
	}
	if msg.Type != MessageType || len(msg.Data) == 0 {
		return false
	}
	return s.accept(string(msg.Data))
}

// Listen reads push messages from a websocket endpoint until ctx is done or
// the connection drops.
func (s *Subscriber) Listen(ctx context.Context, url string) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.CloseNow()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			return fmt.Errorf("read push: %w", err)
		}
		s.HandleMessage(data)
	}
}

// accept parses raw unless it equals the cached value. It reports whether the
// current snapshot changed. onChange runs before the lock is released, so
// renders happen one at a time and in the order snapshots were cached.
func (s *Subscriber) accept(raw string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw == s.raw {
		return false
	}
	s.raw = raw
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Warn("guest screen snapshot not parseable", "error", err)
		return false
	}
	s.current = &snap
	if s.onChange != nil {
		s.onChange(snap)
	}
	return true
}
