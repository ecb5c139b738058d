package ws

import (
	"context"
	"time"

	"go.uber.org/zap"

	"livesharego/internal/metrics"
)

// ContentStore is the durable side of a room.
type ContentStore interface {
	LoadContent(ctx context.Context, shareID string) (content string, found bool, err error)
	SaveContent(ctx context.Context, shareID, content string) error
}

type persister struct {
	store        ContentStore
	window       time.Duration
	flushTimeout time.Duration
}

// scheduleSaveLocked coalesces edits: unchanged text is ignored, anything
// else restarts the quiet-period timer. r.mu must be held.
func (r *Room) scheduleSaveLocked(text string) {
	if r.queuedOnce && text == r.lastQueued {
		return
	}
	r.lastQueued, r.queuedOnce = text, true
	r.armSaveLocked()
}

func (r *Room) armSaveLocked() {
	r.cancelSaveLocked()
	seq := r.saveSeq
	r.saveTimer = time.AfterFunc(r.p.window, func() { r.debouncedSave(seq) })
}

// cancelSaveLocked stops the pending timer. Bumping saveSeq also defuses a
// callback that already fired and is waiting for the lock.
func (r *Room) cancelSaveLocked() {
	if r.saveTimer != nil {
		r.saveTimer.Stop()
		r.saveTimer = nil
	}
	r.saveSeq++
}

// debouncedSave writes the text current at fire time, not at arm time.
func (r *Room) debouncedSave(seq uint64) {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.Lock()
	if r.closed || seq != r.saveSeq {
		r.mu.Unlock()
		return
	}
	r.saveTimer = nil
	text := r.text
	r.mu.Unlock()

	r.write(context.Background(), "debounce", text)
}

// finalFlush is the teardown write. It runs after shutdown, waits for any
// in-flight debounced write and for the previous incarnation's flush
// (prev), and is bounded by the flush timeout.
func (r *Room) finalFlush(prev <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), r.p.flushTimeout)
	defer cancel()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
		}
	}

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.Lock()
	text, trusted := r.text, r.trusted
	r.mu.Unlock()

	// Nothing was ever loaded or typed; writing "" would clobber the store.
	if !trusted {
		metrics.StoreWrites.WithLabelValues("final", "skipped").Inc()
		zap.L().Debug("persist.final_skipped", zap.String("share_id", r.id))
		return
	}
	r.write(ctx, "final", text)
}

func (r *Room) write(ctx context.Context, trigger, text string) {
	if err := r.p.store.SaveContent(ctx, r.id, text); err != nil {
		metrics.StoreWrites.WithLabelValues(trigger, "error").Inc()
		zap.L().Warn("persist.write_failed",
			zap.String("share_id", r.id),
			zap.String("trigger", trigger),
			zap.Error(err))
		return
	}
	metrics.StoreWrites.WithLabelValues(trigger, "ok").Inc()
	zap.L().Debug("persist.written",
		zap.String("share_id", r.id),
		zap.String("trigger", trigger),
		zap.Int("bytes", len(text)))
}
