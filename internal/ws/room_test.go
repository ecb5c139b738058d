package ws

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livesharego/internal/metrics"
)

const testWindow = 30 * time.Millisecond

func newTestRoom(store ContentStore) *Room {
	return newRoom("abc12345", &persister{store: store, window: testWindow, flushTimeout: time.Second})
}

func TestRoomAttachAfterLoadSendsInit(t *testing.T) {
	r := newTestRoom(newFakeStore())
	r.completeLoad("persisted", true)

	c := newTestConn()
	r.attach(c)

	f := nextFrame(t, c)
	assert.Equal(t, TypeInit, f.Type)
	assert.Equal(t, "persisted", f.Content)
	assert.Equal(t, 1, r.ConnCount())
}

func TestRoomAttachBeforeLoadGetsInitOnCompletion(t *testing.T) {
	r := newTestRoom(newFakeStore())
	c1, c2 := newTestConn(), newTestConn()
	r.attach(c1)
	r.attach(c2)
	noFrame(t, c1)

	r.completeLoad("hello", true)

	for _, c := range []*clientConn{c1, c2} {
		f := nextFrame(t, c)
		assert.Equal(t, TypeInit, f.Type)
		assert.Equal(t, "hello", f.Content)
	}
}

func TestRoomLoadNotFoundSendsEmptyInit(t *testing.T) {
	r := newTestRoom(newFakeStore())
	c := newTestConn()
	r.attach(c)

	r.completeLoad("", false)

	f := nextFrame(t, c)
	assert.Equal(t, Frame{Type: TypeInit, Content: ""}, f)
}

func TestRoomEditBeforeLoadWins(t *testing.T) {
	r := newTestRoom(newFakeStore())
	sender, waiting := newTestConn(), newTestConn()
	r.attach(sender)
	r.attach(waiting)

	r.HandleEdit(sender, "typed early")
	noFrame(t, waiting)

	r.completeLoad("stale from store", true)
	assert.Equal(t, "typed early", r.Text())

	f := nextFrame(t, waiting)
	assert.Equal(t, Frame{Type: TypeInit, Content: "typed early"}, f)
}

func TestRoomBroadcastSkipsSenderAndKeepsOrder(t *testing.T) {
	r := newTestRoom(newFakeStore())
	r.completeLoad("", false)
	a, b, c := newTestConn(), newTestConn(), newTestConn()
	for _, conn := range []*clientConn{a, b, c} {
		r.attach(conn)
		nextFrame(t, conn) // init
	}

	for i := 1; i <= 5; i++ {
		r.HandleEdit(a, fmt.Sprintf("edit-%d", i))
	}

	for _, peer := range []*clientConn{b, c} {
		for i := 1; i <= 5; i++ {
			f := nextFrame(t, peer)
			assert.Equal(t, TypeContentUpdate, f.Type)
			assert.Equal(t, fmt.Sprintf("edit-%d", i), f.Content)
		}
	}
	noFrame(t, a)
	assert.Equal(t, "edit-5", r.Text())
}

func TestRoomBroadcastDropsUnwritablePeer(t *testing.T) {
	r := newTestRoom(newFakeStore())
	r.completeLoad("", false)

	sender := newTestConn()
	full := newClientConn(nil, 1)
	closed := newTestConn()
	healthy := newTestConn()
	r.attach(sender)
	r.attach(full) // init fills its only slot
	r.attach(closed)
	r.attach(healthy)
	nextFrame(t, healthy)
	closed.close()

	r.HandleEdit(sender, "x")

	f := nextFrame(t, healthy)
	assert.Equal(t, "x", f.Content)
	assert.Len(t, full.send, 1)
}

func TestDebounceCoalescesBurst(t *testing.T) {
	store := newFakeStore()
	r := newTestRoom(store)
	r.completeLoad("", false)
	c := newTestConn()
	r.attach(c)

	for i := 0; i < 10; i++ {
		r.HandleEdit(c, fmt.Sprintf("v%d", i))
		time.Sleep(testWindow / 10)
	}

	require.Eventually(t, func() bool { return len(store.saveLog()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testWindow)
	assert.Equal(t, []string{"abc12345=v9"}, store.saveLog())
}

func TestDebounceSkipsUnchangedText(t *testing.T) {
	store := newFakeStore()
	r := newTestRoom(store)
	r.completeLoad("", false)
	c := newTestConn()
	r.attach(c)

	r.HandleEdit(c, "same")
	r.HandleEdit(c, "same")

	require.Eventually(t, func() bool { return len(store.saveLog()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testWindow)
	assert.Len(t, store.saveLog(), 1)

	// Unchanged text after the write still does not reschedule.
	r.HandleEdit(c, "same")
	time.Sleep(3 * testWindow)
	assert.Len(t, store.saveLog(), 1)
}

func TestDebounceLastWriteWins(t *testing.T) {
	store := newFakeStore().seed("abc12345", "")
	r := newTestRoom(store)
	r.completeLoad("", false)
	c := newTestConn()
	r.attach(c)

	r.HandleEdit(c, "A")
	r.HandleEdit(c, "B")

	require.Eventually(t, func() bool { return store.doc("abc12345") == "B" }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testWindow)
	assert.Equal(t, []string{"abc12345=B"}, store.saveLog())
}

func TestDebounceWritesTextCurrentAtFireTime(t *testing.T) {
	store := newFakeStore()
	r := newTestRoom(store)

	r.mu.Lock()
	r.text = "armed"
	r.scheduleSaveLocked("armed")
	r.text = "newer"
	r.mu.Unlock()

	require.Eventually(t, func() bool { return len(store.saveLog()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"abc12345=newer"}, store.saveLog())
}

func TestDebounceFailureIsNotRetried(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("store down")
	r := newTestRoom(store)
	r.completeLoad("", false)
	c := newTestConn()
	r.attach(c)

	r.HandleEdit(c, "lost?")

	require.Eventually(t, func() bool { return len(store.saveLog()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testWindow)
	assert.Len(t, store.saveLog(), 1)
	assert.Equal(t, "lost?", r.Text())
}

func TestShutdownCancelsPendingSave(t *testing.T) {
	store := newFakeStore()
	r := newTestRoom(store)
	r.completeLoad("", false)
	c := newTestConn()
	r.attach(c)

	r.HandleEdit(c, "pending")
	r.shutdown()

	time.Sleep(3 * testWindow)
	assert.Empty(t, store.saveLog())

	// Edits after shutdown are ignored.
	r.HandleEdit(c, "late")
	assert.Equal(t, "pending", r.Text())
}

func TestFinalFlushSkipsUntrustedText(t *testing.T) {
	store := newFakeStore()
	store.docs["abc12345"] = "keep me"
	r := newTestRoom(store)
	r.completeLoad("", false) // pretend the load failed
	skipped := metrics.StoreWrites.WithLabelValues("final", "skipped")
	before := testutil.ToFloat64(skipped)

	r.shutdown()
	r.finalFlush(nil)

	assert.Empty(t, store.saveLog())
	assert.Equal(t, before+1, testutil.ToFloat64(skipped))
	assert.Equal(t, "keep me", store.doc("abc12345"))
}

func TestDetachTwiceIsNoop(t *testing.T) {
	r := newTestRoom(newFakeStore())
	c := newTestConn()
	r.attach(c)

	left, removed := r.detach(c)
	assert.Equal(t, 0, left)
	assert.True(t, removed)

	_, removed = r.detach(c)
	assert.False(t, removed)
}

func TestDebounceWriteToUnknownShareIDFails(t *testing.T) {
	store := newFakeStore()
	r := newTestRoom(store)
	r.completeLoad("", false)
	c := newTestConn()
	r.attach(c)
	failed := metrics.StoreWrites.WithLabelValues("debounce", "error")
	before := testutil.ToFloat64(failed)

	r.HandleEdit(c, "orphan")

	require.Eventually(t, func() bool { return len(store.saveLog()) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return testutil.ToFloat64(failed) == before+1 }, time.Second, 5*time.Millisecond)
	assert.False(t, store.hasDoc("abc12345"))
	assert.Equal(t, "orphan", r.Text())
}
