package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store ContentStore) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := newTestHub(store)
	srv := NewWsServer(hub, Options{SendBuffer: 16, ReadLimit: 1 << 16})

	engine := gin.New()
	engine.GET("/api/live", srv.Handle)
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)

	return hub, "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestServerMissingShareIDIsClosedWith4000(t *testing.T) {
	hub, url := newTestServer(t, newFakeStore())

	conn := dial(t, url)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, CloseMissingShareID, closeErr.Code)
	assert.Equal(t, "Missing shareId", closeErr.Text)
	assert.Equal(t, 0, hub.Len())
}

func TestServerEndToEnd(t *testing.T) {
	store := newFakeStore().seed("abc12345", "")
	hub, url := newTestServer(t, store)

	a := dial(t, url+"?shareId=abc12345")
	assert.Equal(t, Frame{Type: TypeInit, Content: ""}, readFrame(t, a))

	b := dial(t, url+"?shareId=abc12345")
	assert.Equal(t, Frame{Type: TypeInit, Content: ""}, readFrame(t, b))

	require.NoError(t, a.WriteJSON(map[string]string{"type": "content-update", "content": "hello"}))
	assert.Equal(t, Frame{Type: TypeContentUpdate, Content: "hello"}, readFrame(t, b))

	require.Eventually(t, func() bool { return store.doc("abc12345") == "hello" }, 2*time.Second, 10*time.Millisecond)

	// A does not get its own edit back.
	require.NoError(t, a.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err := a.ReadMessage()
	assert.Error(t, err)

	a.Close()
	b.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServerIgnoresMalformedFrames(t *testing.T) {
	store := newFakeStore()
	_, url := newTestServer(t, store)

	a := dial(t, url+"?shareId=s1")
	readFrame(t, a)
	b := dial(t, url+"?shareId=s1")
	readFrame(t, b)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"type":"cursor","pos":3}`)))
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"type":"content-update"}`)))
	require.NoError(t, a.WriteJSON(map[string]string{"type": "content-update", "content": "still alive"}))

	assert.Equal(t, Frame{Type: TypeContentUpdate, Content: "still alive"}, readFrame(t, b))
}

func TestServerLateJoinerGetsCurrentText(t *testing.T) {
	_, url := newTestServer(t, newFakeStore())

	a := dial(t, url+"?shareId=s2")
	readFrame(t, a)
	b := dial(t, url+"?shareId=s2")
	readFrame(t, b)

	require.NoError(t, a.WriteJSON(map[string]string{"type": "content-update", "content": "v1"}))
	readFrame(t, b)

	c := dial(t, url+"?shareId=s2")
	assert.Equal(t, Frame{Type: TypeInit, Content: "v1"}, readFrame(t, c))
}

func TestServerRejectsJoinAfterHubClose(t *testing.T) {
	hub, url := newTestServer(t, newFakeStore())
	require.NoError(t, hub.Close(context.Background()))

	conn := dial(t, url+"?shareId=s1")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
	assert.Equal(t, 0, hub.Len())
}
