package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"livesharego/internal/metrics"
)

// ErrHubClosed is returned by Join once Close has started.
var ErrHubClosed = errors.New("hub closed")

// HubOptions tunes write-back behaviour.
type HubOptions struct {
	SaveDebounce      time.Duration
	FinalFlushTimeout time.Duration
}

// Hub is the registry of live rooms keyed by share id. A room exists while
// it has at least one connection, or while its first load is running.
// Lock order is Hub.mu before Room.mu.
type Hub struct {
	store ContentStore
	p     *persister

	mu       sync.Mutex
	rooms    map[string]*Room
	flushing map[string]chan struct{} // final flushes still running, by share id
	closed   bool

	bg sync.WaitGroup
}

func NewHub(store ContentStore, opts HubOptions) *Hub {
	if opts.SaveDebounce <= 0 {
		opts.SaveDebounce = 1500 * time.Millisecond
	}
	if opts.FinalFlushTimeout <= 0 {
		opts.FinalFlushTimeout = 5 * time.Second
	}
	return &Hub{
		store: store,
		p: &persister{
			store:        store,
			window:       opts.SaveDebounce,
			flushTimeout: opts.FinalFlushTimeout,
		},
		rooms:    make(map[string]*Room),
		flushing: make(map[string]chan struct{}),
	}
}

// Join resolves (or creates) the room for shareID and attaches c to it.
// Create-or-get and attach happen under one lock, so concurrent first joins
// share a single room and a single initial load.
func (h *Hub) Join(shareID string, c *clientConn) (*Room, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	r := h.resolveOrCreateLocked(shareID)
	r.attach(c)
	h.mu.Unlock()

	metrics.ActiveConnections.Inc()
	return r, nil
}

func (h *Hub) resolveOrCreateLocked(shareID string) *Room {
	if r, ok := h.rooms[shareID]; ok {
		return r
	}
	r := newRoom(shareID, h.p)
	h.rooms[shareID] = r
	metrics.ActiveRooms.Inc()

	h.bg.Add(1)
	go h.load(r, h.flushing[shareID])
	return r
}

// load fetches the persisted text. A failure leaves the room empty.
func (h *Hub) load(r *Room, prevFlush <-chan struct{}) {
	defer h.bg.Done()

	// Don't read back before the previous incarnation's final write lands.
	if prevFlush != nil {
		<-prevFlush
	}

	content, found, err := h.store.LoadContent(context.Background(), r.id)
	switch {
	case err != nil:
		metrics.StoreLoads.WithLabelValues("error").Inc()
		zap.L().Warn("hub.load_failed", zap.String("share_id", r.id), zap.Error(err))
	case !found:
		metrics.StoreLoads.WithLabelValues("not_found").Inc()
		zap.L().Debug("hub.load_not_found", zap.String("share_id", r.id))
	default:
		metrics.StoreLoads.WithLabelValues("ok").Inc()
	}
	r.completeLoad(content, err == nil && found)
}

// Get is a read-only lookup.
func (h *Hub) Get(shareID string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[shareID]
}

// Remove drops the registry entry; no-op if absent.
func (h *Hub) Remove(shareID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(shareID)
}

func (h *Hub) removeLocked(shareID string) {
	if _, ok := h.rooms[shareID]; ok {
		delete(h.rooms, shareID)
		metrics.ActiveRooms.Dec()
	}
}

// Leave detaches c. When the room empties, the pending write-back is
// cancelled, the room leaves the registry and one final write runs before
// Leave returns.
func (h *Hub) Leave(r *Room, c *clientConn) {
	h.mu.Lock()
	left, removed := r.detach(c)
	if !removed {
		h.mu.Unlock()
		return
	}
	metrics.ActiveConnections.Dec()
	if left > 0 {
		h.mu.Unlock()
		return
	}

	if h.rooms[r.id] == r {
		h.removeLocked(r.id)
	}
	r.shutdown()
	prev := h.flushing[r.id]
	done := make(chan struct{})
	h.flushing[r.id] = done
	h.bg.Add(1)
	h.mu.Unlock()

	r.finalFlush(prev)

	h.mu.Lock()
	if h.flushing[r.id] == done {
		delete(h.flushing, r.id)
	}
	h.mu.Unlock()
	close(done)
	h.bg.Done()

	zap.L().Debug("hub.room_closed", zap.String("share_id", r.id))
}

// Len reports the number of live rooms.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Responsive reports whether the registry lock can be taken before ctx ends.
func (h *Hub) Responsive(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.mu.Lock()
		h.mu.Unlock()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("hub lock not acquired: " + ctx.Err().Error())
	}
}

// Close tears down every room: connections are closed and each room gets its
// final write. Later joins fail with ErrHubClosed. It waits for background
// loads and flushes or for ctx.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	rooms := make([]*Room, 0, len(h.rooms))
	var conns []*clientConn
	for id, r := range h.rooms {
		rooms = append(rooms, r)
		conns = append(conns, r.shutdown()...)
		h.removeLocked(id)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
		metrics.ActiveConnections.Dec()
	}

	var wg sync.WaitGroup
	for _, r := range rooms {
		wg.Add(1)
		go func(r *Room) {
			defer wg.Done()
			r.finalFlush(nil)
		}(r)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		h.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
