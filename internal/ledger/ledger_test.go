package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/giftledger/internal/database"
	"github.com/dukerupert/giftledger/internal/kv"
	"github.com/dukerupert/giftledger/internal/model"
)

// newTestStore returns a Store with a deterministic clock and id sequence.
func newTestStore(t *testing.T, backing kv.Store) *Store {
	t.Helper()
	s := New(backing)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time { return base.Add(time.Duration(n) * time.Minute) }
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}
	return s
}

func TestEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())

	events, err := s.AllEvents(ctx)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)

	gifts, err := s.GiftsByEvent(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, gifts)

	has, err := s.HasData(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	route, err := s.Landing(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/setup", route)
}

func TestCorruptValueSurfacesError(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, EventsKey, "{not json"))
	s := New(mem)

	_, err := s.AllEvents(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EventsKey)
}

func TestSaveOverwritesWholeCollection(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())

	require.NoError(t, s.SaveGifts(ctx, "e1", []model.GiftRecord{{ID: "g1"}, {ID: "g2"}}))
	require.NoError(t, s.SaveGifts(ctx, "e1", []model.GiftRecord{{ID: "g3"}}))

	gifts, err := s.GiftsByEvent(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, gifts, 1)
	assert.Equal(t, "g3", gifts[0].ID)
}

func TestCreateEventAndAddGifts(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := newTestStore(t, kv.NewSQLite(db))

	ev, err := s.CreateEvent(ctx, model.Event{Name: "  张王婚礼 ", Recorder: "李四"})
	require.NoError(t, err)
	assert.Equal(t, "id-01", ev.ID)
	assert.Equal(t, "张王婚礼", ev.Name)
	assert.Equal(t, model.ThemeFestive, ev.Theme)

	for i, name := range []string{"Alice", "Bob", "Carol"} {
		_, err := s.AddGift(ctx, ev.ID, model.GiftRecord{Name: name, Amount: float64(100 * (i + 1)), Type: "cash"})
		require.NoError(t, err)
	}

	gifts, err := s.GiftsByEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, gifts, 3)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, []string{gifts[0].Name, gifts[1].Name, gifts[2].Name})
	for _, g := range gifts {
		assert.Equal(t, ev.ID, g.EventID)
		assert.False(t, g.Timestamp.IsZero())
	}

	route, err := s.Landing(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/main", route)
}

func TestCreateEventValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   model.Event
	}{
		{"blank name", model.Event{Name: "   "}},
		{"end before start", model.Event{Name: "x", StartDateTime: start, EndDateTime: start.Add(-time.Hour)}},
		{"unknown theme", model.Event{Name: "x", Theme: "neon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateEvent(ctx, tt.in)
			require.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestAddGiftValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())
	ev, err := s.CreateEvent(ctx, model.Event{Name: "Wedding"})
	require.NoError(t, err)

	_, err = s.AddGift(ctx, ev.ID, model.GiftRecord{Name: "", Amount: 1})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = s.AddGift(ctx, ev.ID, model.GiftRecord{Name: "A", Amount: -1})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = s.AddGift(ctx, ev.ID, model.GiftRecord{Name: "A", Amount: MaxAmount * 10})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = s.AddGift(ctx, "missing", model.GiftRecord{Name: "A", Amount: 1})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSetAbolished(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())
	ev, _ := s.CreateEvent(ctx, model.Event{Name: "Funeral", Theme: model.ThemeSolemn})
	g, err := s.AddGift(ctx, ev.ID, model.GiftRecord{Name: "A", Amount: 200})
	require.NoError(t, err)

	got, err := s.SetAbolished(ctx, ev.ID, g.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Abolished)

	gifts, _ := s.GiftsByEvent(ctx, ev.ID)
	require.Len(t, gifts, 1)
	assert.True(t, gifts[0].Abolished)

	_, err = s.SetAbolished(ctx, ev.ID, "nope", true)
	require.ErrorIs(t, err, model.ErrGiftNotFound)
}

func TestStatsUsesCreationTimestamp(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	require.NoError(t, s.SaveEvents(ctx, []model.Event{{ID: "e1"}, {ID: "e2"}}))
	// ids sort opposite to creation order
	require.NoError(t, s.SaveGifts(ctx, "e1", []model.GiftRecord{
		{ID: "zzz", Amount: 100, Timestamp: early},
		{ID: "aaa", Amount: 50.5, Timestamp: late, Abolished: true},
	}))
	require.NoError(t, s.SaveGifts(ctx, "e2", []model.GiftRecord{{ID: "mmm", Amount: 20.25, Timestamp: early}}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Events)
	assert.Equal(t, 3, st.Gifts)
	assert.Equal(t, 2, st.ActiveGifts)
	assert.InDelta(t, 120.25, st.TotalAmount, 0.001)
	require.NotNil(t, st.LastModified)
	assert.True(t, st.LastModified.Equal(late))
}

func TestAllGiftsSkipsEmptyEvents(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())
	require.NoError(t, s.SaveEvents(ctx, []model.Event{{ID: "e1"}, {ID: "e2"}}))
	require.NoError(t, s.SaveGifts(ctx, "e2", []model.GiftRecord{{ID: "g1", EventID: "e2"}}))

	all, err := s.AllGifts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Contains(t, all, "e2")

	has, err := s.HasData(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestConcurrentWritesKeepEveryGift(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := New(kv.NewSQLite(db))

	ev, err := s.CreateEvent(ctx, model.Event{Name: "Wedding"})
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	errs := make(chan error, writers*2)
	for i := range writers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.AddGift(ctx, ev.ID, model.GiftRecord{Name: fmt.Sprintf("guest-%d", i), Amount: 100})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			errs <- s.Update(ctx, func(tx *Store) error {
				gifts, err := tx.GiftsByEvent(ctx, ev.ID)
				if err != nil {
					return err
				}
				g := model.GiftRecord{ID: fmt.Sprintf("imported-%d", i), EventID: ev.ID, Name: "imported", Amount: 1}
				return tx.SaveGifts(ctx, ev.ID, append(gifts, g))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	gifts, err := s.GiftsByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, gifts, writers*2)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := New(kv.NewSQLite(db))

	boom := fmt.Errorf("boom")
	err = s.Update(ctx, func(tx *Store) error {
		if err := tx.SaveEvents(ctx, []model.Event{{ID: "e1", Name: "Wedding"}}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	events, err := s.AllEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}
