package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func dialSpectator(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	return string(data)
}

func TestHubSendsLatestSnapshotToNewSpectators(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zaptest.NewLogger(t))
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	first := dialSpectator(t, srv)
	// Give the hub time to register the first spectator.
	time.Sleep(50 * time.Millisecond)

	hub.Publish("m1", map[string]int{"round": 1})
	assert.JSONEq(t, `{"round":1}`, readText(t, first))

	hub.Publish("m1", map[string]int{"round": 2})
	assert.JSONEq(t, `{"round":2}`, readText(t, first))

	late := dialSpectator(t, srv)
	assert.JSONEq(t, `{"round":2}`, readText(t, late))
}

func TestHubClosesSpectatorsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub(zaptest.NewLogger(t))
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialSpectator(t, srv)
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-stopped

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "unexpected error: %v", err)

	hub.Publish("m1", "ignored")
	assert.NoError(t, hub.Close())
}
