package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Unregister(c1)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c2)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	c := mockClient(hub)
	hub.Register(c)
	hub.Unregister(c)

	assert.NotPanics(t, func() { hub.Unregister(c) })
	assert.Equal(t, 0, hub.ClientCount())
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)

	msg, err := NewMessage("guest_screen_update", map[string]any{"eventName": "婚礼"})
	require.NoError(t, err)
	hub.Broadcast(msg)

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			assert.JSONEq(t, `{"type":"guest_screen_update","data":{"eventName":"婚礼"}}`, string(data))
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(testLogger())
	assert.NotPanics(t, func() { hub.Broadcast(Message{Type: "backup_status"}) })
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(testLogger())

	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(Message{Type: "fill"})
	}
	// Dropped rather than blocking.
	hub.Broadcast(Message{Type: "dropped"})

	assert.Len(t, c.send, sendBufferSize)
	for len(c.send) > 0 {
		data := <-c.send
		assert.NotContains(t, string(data), "dropped")
	}
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("backup_status", map[string]string{"state": "idle"})
	require.NoError(t, err)
	assert.Equal(t, "backup_status", msg.Type)
	assert.JSONEq(t, `{"state":"idle"}`, string(msg.Data))

	_, err = NewMessage("bad", make(chan int))
	assert.Error(t, err)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Broadcast(Message{Type: "concurrent"})
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHandleWebSocketGreetsAndBroadcasts(t *testing.T) {
	hub := NewHub(testLogger())
	greet := func(context.Context) (Message, bool) {
		return Message{Type: "guest_screen_update", Data: json.RawMessage(`{"eventName":"初始"}`)}, true
	}
	srv := httptest.NewServer(HandleWebSocket(hub, greet))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"guest_screen_update","data":{"eventName":"初始"}}`, string(data))

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.Broadcast(Message{Type: "guest_screen_update", Data: json.RawMessage(`{"eventName":"更新"}`)})

	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "更新")
}
