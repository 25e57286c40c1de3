package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/physics"
	"github.com/zeusync/farmlife/internal/core/world"
	"github.com/zeusync/farmlife/internal/replication"
)

func nestView(id models.EntityID) world.View {
	return world.View{
		ID:       id,
		Kind:     models.KindNest.String(),
		Position: physics.V(float64(id), 0, 0),
		Nest:     &world.NestView{MaxEggs: 3, Eggs: []models.EntityID{}},
	}
}

func newHubRig(t *testing.T, cfg Config) (*Hub, *replication.Tracker, string) {
	t.Helper()
	tr := replication.NewTracker(nil)
	tr.Collect(1, []world.View{nestView(1), nestView(2)})

	hub := NewHub(cfg, tr, nil)
	s := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		s.Close()
	})
	return hub, tr, "ws" + strings.TrimPrefix(s.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHubSnapshotThenDeltas(t *testing.T) {
	hub, tr, url := newHubRig(t, DefaultConfig())
	conn := dial(t, url)

	snap := readFrame(t, conn)
	require.Equal(t, FrameSnapshot, snap.Type)
	require.NotNil(t, snap.Delta)
	assert.True(t, snap.Delta.Full)
	assert.EqualValues(t, 1, snap.Delta.Version)
	assert.Len(t, snap.Delta.Upserts, 2)

	d, ok := tr.Collect(2, []world.View{nestView(2), nestView(3)})
	require.True(t, ok)
	require.NoError(t, hub.Broadcast(d))

	got := readFrame(t, conn)
	require.Equal(t, FrameDelta, got.Type)
	assert.EqualValues(t, 2, got.Delta.Version)
	assert.Equal(t, []models.EntityID{1}, got.Delta.Removals)
	require.Len(t, got.Delta.Upserts, 1)
	assert.EqualValues(t, 3, got.Delta.Upserts[0].ID)

	assert.Equal(t, 1, hub.Stats().Observers)
	assert.EqualValues(t, 1, hub.Stats().Delivered)
}

func TestHubRejectsCommands(t *testing.T) {
	_, _, url := newHubRig(t, DefaultConfig())
	conn := dial(t, url)
	readFrame(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"spawn":"rooster"}`)))
	f := readFrame(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, ErrNotAuthoritative.Error(), f.Error)
	assert.Nil(t, f.Delta)
}

func TestHubToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token = "s3cret"
	_, _, url := newHubRig(t, cfg)

	for _, bad := range []string{url, url + "?token=nope"} {
		_, resp, err := websocket.DefaultDialer.Dial(bad, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	conn := dial(t, url+"?token=s3cret")
	assert.Equal(t, FrameSnapshot, readFrame(t, conn).Type)

	header := http.Header{"Authorization": []string{"Bearer s3cret"}}
	conn2, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn2.Close()
	assert.Equal(t, FrameSnapshot, readFrame(t, conn2).Type)
}

func TestHubMaxObservers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxObservers = 1
	_, _, url := newHubRig(t, cfg)

	conn := dial(t, url)
	readFrame(t, conn)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHubClose(t *testing.T) {
	hub, tr, url := newHubRig(t, DefaultConfig())
	conn := dial(t, url)
	readFrame(t, conn)

	hub.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	d, _ := tr.Collect(5, nil)
	assert.ErrorIs(t, hub.Broadcast(d), ErrHubClosed)
	assert.Zero(t, hub.Stats().Observers)
}

func TestServerRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := New(cfg, replication.NewTracker(nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	base := "http://" + srv.Addr().String()

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	conn := dial(t, "ws://"+srv.Addr().String()+cfg.Path)
	assert.Equal(t, FrameSnapshot, readFrame(t, conn).Type)

	assert.ErrorIs(t, srv.Run(ctx), ErrServerAlreadyRunning)

	cancel()
	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
