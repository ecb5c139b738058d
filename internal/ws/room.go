package ws

import (
	"sync"
	"time"

	"livesharego/internal/metrics"
)

// Room is the in-memory state of one live session. Every field below mu is
// guarded by it; all edits for a room are applied under mu, so arrival order
// is the broadcast order.
type Room struct {
	id string
	p  *persister

	mu         sync.Mutex
	conns      map[*clientConn]struct{}
	awaitInit  map[*clientConn]struct{} // attached before the initial load finished
	text       string
	loaded     bool
	trusted    bool // text came from the store or from an edit
	closed     bool
	lastQueued string
	queuedOnce bool
	saveTimer  *time.Timer
	saveSeq    uint64

	// saveMu serialises store writes so at most one is in flight.
	saveMu sync.Mutex
}

func newRoom(id string, p *persister) *Room {
	return &Room{
		id:        id,
		p:         p,
		conns:     make(map[*clientConn]struct{}),
		awaitInit: make(map[*clientConn]struct{}),
	}
}

func (r *Room) ID() string { return r.id }

// Text returns the authoritative in-memory content.
func (r *Room) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

func (r *Room) ConnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// attach sends c the current text (or defers it until the initial load
// lands) and adds it to the room.
func (r *Room) attach(c *clientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		c.enqueue(initFrame(r.text))
	} else {
		r.awaitInit[c] = struct{}{}
	}
	r.conns[c] = struct{}{}
}

// detach removes c and returns how many connections are left. removed is
// false if c was not attached, which makes a second detach a no-op.
func (r *Room) detach(c *clientConn) (left int, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return len(r.conns), false
	}
	delete(r.conns, c)
	delete(r.awaitInit, c)
	return len(r.conns), true
}

// completeLoad installs the persisted text unless an edit already replaced
// it, then sends init to everyone who attached while the load was running.
func (r *Room) completeLoad(content string, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return
	}
	if found && !r.trusted {
		r.text = content
		r.trusted = true
	}
	r.loaded = true
	msg := initFrame(r.text)
	for c := range r.awaitInit {
		c.enqueue(msg)
	}
	clear(r.awaitInit)
}

// HandleEdit applies a last-writer-wins update from sender, fans it out to
// the other connections and schedules a write-back.
func (r *Room) HandleEdit(sender *clientConn, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.text = text
	r.trusted = true
	metrics.EditsTotal.Inc()

	msg := contentUpdateFrame(text)
	for c := range r.conns {
		if c == sender {
			continue
		}
		// Their pending init will carry this text.
		if _, waiting := r.awaitInit[c]; waiting {
			continue
		}
		if !c.enqueue(msg) {
			metrics.DroppedDeliveries.Inc()
		}
	}

	r.scheduleSaveLocked(text)
}

// shutdown marks the room dead, cancels the pending write-back and returns
// the connections that were still attached.
func (r *Room) shutdown() []*clientConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cancelSaveLocked()
	conns := make([]*clientConn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	clear(r.conns)
	clear(r.awaitInit)
	return conns
}
