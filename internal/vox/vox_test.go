package vox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocmd/internal/macro"
	"vocmd/internal/nlu"
)

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, text string) nlu.Result {
	if strings.Contains(text, "google") {
		return nlu.Result{Status: nlu.Degraded, Macro: macro.New(macro.Open(nlu.GoogleURL)), Reason: "no confident intent"}
	}
	return nlu.Result{Status: nlu.NoMatch, Reason: "no confident intent"}
}

var upgrader = websocket.Upgrader{}

// hub upgrades every connection and hands it to serve.
func hub(t *testing.T, serve func(n int32, conn *websocket.Conn)) string {
	t.Helper()
	var conns atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		serve(conns.Add(1), conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func sendAndAwait(t *testing.T, conn *websocket.Conn, msg BusMessage) BusMessage {
	t.Helper()
	if !assert.NoError(t, conn.WriteJSON(msg)) {
		return BusMessage{}
	}

	var reply BusMessage
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	assert.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestHandle(t *testing.T) {
	s := NewShard("vocmd", nil, fakeResolver{})

	reply := s.Handle(context.Background(), &BusMessage{ID: "42", From: "gui", Kind: KindUtterance, Content: "open google"})
	assert.Equal(t, "42", reply.ID)
	assert.Equal(t, "vocmd", reply.From)
	assert.Equal(t, "gui", reply.To)
	assert.Equal(t, KindMacro, reply.Kind)
	assert.Equal(t, "degraded", reply.Status)

	var m macro.Macro
	require.NoError(t, json.Unmarshal([]byte(reply.Content), &m))
	assert.Equal(t, []macro.Action{macro.Open(nlu.GoogleURL)}, m.Steps)

	reply = s.Handle(context.Background(), &BusMessage{From: "gui", Kind: KindUtterance, Content: "hmm"})
	assert.NotEmpty(t, reply.ID)
	assert.Equal(t, KindNoMatch, reply.Kind)
	assert.Equal(t, "no_match", reply.Status)
	assert.Equal(t, "no confident intent", reply.Content)
}

func TestShardServesBus(t *testing.T) {
	replies := make(chan BusMessage, 4)

	url := hub(t, func(n int32, conn *websocket.Conn) {
		if n > 1 {
			return
		}
		// ignored: wrong kind, other recipient, garbage
		assert.NoError(t, conn.WriteJSON(BusMessage{From: "gui", Kind: "status", Content: "open google"}))
		assert.NoError(t, conn.WriteJSON(BusMessage{From: "gui", To: "other", Kind: KindUtterance, Content: "open google"}))
		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))

		replies <- sendAndAwait(t, conn, BusMessage{ID: "1", From: "gui", To: "vocmd", Kind: KindUtterance, Content: "open google"})
		replies <- sendAndAwait(t, conn, BusMessage{ID: "2", From: "gui", Kind: KindUtterance, Content: "blah"})
		// hold the connection until the shard goes away
		conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewBus(ctx, url, 10*time.Millisecond)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- NewShard("vocmd", bus, fakeResolver{}).Run(ctx) }()

	first := <-replies
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, KindMacro, first.Kind)

	second := <-replies
	assert.Equal(t, "2", second.ID)
	assert.Equal(t, KindNoMatch, second.Kind)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("shard did not stop")
	}
}

func TestShardReconnects(t *testing.T) {
	replies := make(chan BusMessage, 1)

	url := hub(t, func(n int32, conn *websocket.Conn) {
		if n > 2 {
			return
		}
		if n == 1 {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"))
			return
		}
		replies <- sendAndAwait(t, conn, BusMessage{ID: "after", From: "gui", Kind: KindUtterance, Content: "open google"})
		// hold the connection until the shard goes away
		conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewBus(ctx, url, 10*time.Millisecond)
	require.NoError(t, err)
	go NewShard("vocmd", bus, fakeResolver{}).Run(ctx)

	select {
	case reply := <-replies:
		assert.Equal(t, "after", reply.ID)
		assert.Equal(t, KindMacro, reply.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply after reconnect")
	}
}

func TestIsClosed(t *testing.T) {
	assert.True(t, IsClosed(&websocket.CloseError{Code: websocket.CloseGoingAway}))
	assert.False(t, IsClosed(&websocket.CloseError{Code: websocket.ClosePolicyViolation}))
	assert.False(t, IsClosed(assert.AnError))
}
