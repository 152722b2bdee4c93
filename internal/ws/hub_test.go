package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHub_NotifyDeliversEnvelope(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zaptest.NewLogger(t))
	go hub.Run(ctx)

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Notify("dataset_refreshed", map[string]int{"records": 3})

	select {
	case msg := <-c.send:
		var evt struct {
			Type      string         `json:"type"`
			Data      map[string]int `json:"data"`
			Timestamp string         `json:"timestamp"`
		}
		require.NoError(t, json.Unmarshal(msg, &evt))
		assert.Equal(t, "dataset_refreshed", evt.Type)
		assert.Equal(t, 3, evt.Data["records"])
		_, err := time.Parse(time.RFC3339, evt.Timestamp)
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	slow := &Client{hub: hub, send: make(chan []byte)}
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast([]byte("x"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-slow.send
	assert.False(t, open)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped
	_, open := <-c.send
	assert.False(t, open)

	// Late calls must not block once the hub has stopped.
	hub.Register(&Client{hub: hub, send: make(chan []byte)})
	hub.Unregister(c)
}

func TestHandler_WebsocketRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(NewHandler(hub, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	hub.Notify("quality_degraded", nil)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"type":"quality_degraded"`)
	assert.NotContains(t, string(msg), `"data"`)
}

func TestHub_NilSafe(t *testing.T) {
	var hub *Hub
	hub.Notify("x", nil)
	hub.Broadcast(nil)
	assert.Equal(t, 0, hub.ClientCount())
}
