package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/handset/internal/app/coordinator"
)

type staticSource struct {
	snap coordinator.Snapshot
}

func (s *staticSource) Snapshot() coordinator.Snapshot { return s.snap }

func newTestServer(t *testing.T) (*Server, *httptest.Server, *staticSource) {
	t.Helper()
	source := &staticSource{snap: coordinator.Snapshot{
		State:        "playing",
		Screen:       "now_playing",
		Registration: "ok",
		VoIPReady:    true,
		Playback:     "playing",
	}}
	srv := New(":0", source)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.hub.run(ctx)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, source
}

func TestStatusEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap coordinator.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "playing", snap.State)
	assert.Equal(t, "now_playing", snap.Screen)
	assert.True(t, snap.VoIPReady)
}

func TestWebsocketInitAndPush(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readEnvelope := func() (string, coordinator.Snapshot) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var env struct {
			Type string               `json:"type"`
			Data coordinator.Snapshot `json:"data"`
		}
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(msg, &env))
		return env.Type, env.Data
	}

	// First frame is the current state.
	typ, data := readEnvelope()
	assert.Equal(t, "state_init", typ)
	assert.Equal(t, "playing", data.State)

	// Wait for the hub to register the client before publishing.
	require.Eventually(t, func() bool {
		srv.hub.mu.Lock()
		defer srv.hub.mu.Unlock()
		return len(srv.hub.clients) == 1
	}, time.Second, 5*time.Millisecond)

	// A published change reaches the subscriber.
	srv.Publish(coordinator.Snapshot{State: "call_incoming", Caller: "Alice"})
	typ, data = readEnvelope()
	assert.Equal(t, "state_changed", typ)
	assert.Equal(t, "call_incoming", data.State)
	assert.Equal(t, "Alice", data.Caller)
}

func TestWebsocketInitPrecedesBroadcasts(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Publish the moment the hub knows the client. The init frame is
	// queued before registration, so it must still arrive first.
	require.Eventually(t, func() bool {
		srv.hub.mu.Lock()
		defer srv.hub.mu.Unlock()
		return len(srv.hub.clients) == 1
	}, time.Second, 5*time.Millisecond)
	srv.Publish(coordinator.Snapshot{State: "menu"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env struct {
		Type string `json:"type"`
	}
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "state_init", env.Type)
}
