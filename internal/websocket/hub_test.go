package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bishwas-py/fymo/internal/logging"
)

func testLogger() *logging.FymoLogger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelDebug,
		Format: "json",
		Output: io.Discard,
	})
}

// startHub spins up a hub behind an httptest server whose own origin is
// allowed, mirroring a browser on the dev server's page.
func startHub(t *testing.T) (*Hub, *httptest.Server, string) {
	t.Helper()

	var hub *Hub
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	origin := srv.URL
	hub = NewHub([]string{strings.TrimPrefix(origin, "http://")}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return hub, srv, origin
}

func dial(t *testing.T, url, origin string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{origin}},
	})
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub, srv, origin := startHub(t)

	conn := dial(t, srv.URL, origin)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	hub.Broadcast(Message{Type: "full_reload", Target: "home/index.svelte"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	kind, payload, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, kind)

	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "full_reload", msg.Type)
	assert.Equal(t, "home/index.svelte", msg.Target)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub, srv, origin := startHub(t)

	first := dial(t, srv.URL, origin)
	second := dial(t, srv.URL, origin)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		2*time.Second, 10*time.Millisecond)

	hub.Broadcast(Message{Type: "full_reload"})

	for _, conn := range []*websocket.Conn{first, second} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, payload, err := conn.Read(ctx)
		cancel()
		require.NoError(t, err)
		assert.Contains(t, string(payload), "full_reload")
	}
}

func TestHubRejectsDisallowedOrigin(t *testing.T) {
	_, srv, _ := startHub(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, srv.URL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://evil.example"}},
	})
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "")
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestHubRejectsMissingOrigin(t *testing.T) {
	_, srv, _ := startHub(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHubDisconnectsDepartingClients(t *testing.T) {
	hub, srv, origin := startHub(t)

	conn := dial(t, srv.URL, origin)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close(websocket.StatusNormalClosure, "done")
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestHubShutdownClosesClients(t *testing.T) {
	var hub *Hub
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r)
	}))
	defer srv.Close()

	hub = NewHub([]string{strings.TrimPrefix(srv.URL, "http://")}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	conn := dial(t, srv.URL, srv.URL)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)

	readCtx, readCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer readCancel()
	_, _, err := conn.Read(readCtx)
	assert.Error(t, err, "the server side closed the connection")
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(nil, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Broadcast(Message{Type: "full_reload"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked with no hub loop running")
	}
}
