package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"livesharego/internal/core"
)

type snippetStore struct {
	mu       sync.RWMutex
	snippets map[string]core.Snippet
	now      func() time.Time
}

func NewSnippetStore() core.SnippetStore {
	return &snippetStore{
		snippets: make(map[string]core.Snippet),
		now:      time.Now,
	}
}

func (s *snippetStore) Create(ctx context.Context, snip *core.Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snippets[snip.ShareID]; ok {
		return fmt.Errorf("snippet %s: %w", snip.ShareID, core.ErrAlreadyExists)
	}
	s.snippets[snip.ShareID] = *snip
	zap.L().Debug("memory.snippet_created", zap.String("share_id", snip.ShareID))
	return nil
}

func (s *snippetStore) FindByShareID(ctx context.Context, shareID string) (*core.Snippet, error) {
	s.mu.RLock()
	snip, ok := s.snippets[shareID]
	s.mu.RUnlock()

	if !ok || s.expired(snip) {
		return nil, core.ErrNotFound
	}
	return &snip, nil
}

func (s *snippetStore) UpdateContent(ctx context.Context, shareID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snip, ok := s.snippets[shareID]
	if !ok || s.expired(snip) {
		return core.ErrNotFound
	}
	snip.Content = content
	s.snippets[shareID] = snip
	return nil
}

func (s *snippetStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *snippetStore) Close(ctx context.Context) error { return nil }

func (s *snippetStore) expired(snip core.Snippet) bool {
	return !snip.ExpiresAt.IsZero() && !s.now().Before(snip.ExpiresAt)
}
