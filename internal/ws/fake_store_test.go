package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"livesharego/internal/core"
)

// fakeStore follows the production stores: saves to an unknown id fail
// with core.ErrNotFound, so tests seed docs for ids they expect to persist.
type fakeStore struct {
	mu          sync.Mutex
	docs        map[string]string
	loads       map[string]int
	saves       []string // "<id>=<content>", every attempt
	loadGate    chan struct{}
	saveGate    chan struct{}
	saveStarted chan struct{} // receives one value per save that reached the gate
	inflight    int
	maxInflight int
	loadErr     error
	saveErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]string{}, loads: map[string]int{}}
}

func (f *fakeStore) LoadContent(ctx context.Context, id string) (string, bool, error) {
	f.mu.Lock()
	f.loads[id]++
	gate := f.loadGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return "", false, f.loadErr
	}
	c, ok := f.docs[id]
	return c, ok, nil
}

func (f *fakeStore) SaveContent(ctx context.Context, id, content string) error {
	f.mu.Lock()
	f.saves = append(f.saves, id+"="+content)
	f.inflight++
	f.maxInflight = max(f.maxInflight, f.inflight)
	gate, started := f.saveGate, f.saveStarted
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	if f.saveErr != nil {
		return f.saveErr
	}
	if _, ok := f.docs[id]; !ok {
		return fmt.Errorf("share id %q: %w", id, core.ErrNotFound)
	}
	f.docs[id] = content
	return nil
}

func (f *fakeStore) seed(id, content string) *fakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[id] = content
	return f
}

func (f *fakeStore) maxConcurrentSaves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight
}

func (f *fakeStore) hasDoc(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[id]
	return ok
}

func (f *fakeStore) loadCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads[id]
}

func (f *fakeStore) saveLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.saves...)
}

func (f *fakeStore) doc(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id]
}

// newTestConn is a connection without a socket; frames pile up on send.
func newTestConn() *clientConn { return newClientConn(nil, 16) }

func nextFrame(t *testing.T, c *clientConn) Frame {
	t.Helper()
	select {
	case b := <-c.send:
		var f Frame
		require.NoError(t, json.Unmarshal(b, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("expected a frame")
		return Frame{}
	}
}

func noFrame(t *testing.T, c *clientConn) {
	t.Helper()
	select {
	case b := <-c.send:
		t.Fatalf("unexpected frame %s", b)
	case <-time.After(20 * time.Millisecond):
	}
}
