package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"livesharego/internal/core"
	"livesharego/internal/redis/redis_scripts"
)

const keyPrefix = "snip:"

type snippetStore struct {
	rdc *redis.Client
}

func NewSnippetStore(rdc *redis.Client) core.SnippetStore {
	return &snippetStore{rdc: rdc}
}

func key(shareID string) string { return keyPrefix + shareID }

func (s *snippetStore) Create(ctx context.Context, snip *core.Snippet) error {
	created, err := redis_scripts.CreateSnippet.Run(ctx, s.rdc,
		[]string{key(snip.ShareID)},
		snip.Filename,
		snip.Content,
		snip.ExpiresIn,
		snip.ExpiresAt.UnixMilli(),
	).Int64()
	if err != nil {
		return err
	}
	if created == 0 {
		return fmt.Errorf("snippet %s: %w", snip.ShareID, core.ErrAlreadyExists)
	}
	return nil
}

func (s *snippetStore) FindByShareID(ctx context.Context, shareID string) (*core.Snippet, error) {
	data, err := s.rdc.HGetAll(ctx, key(shareID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, core.ErrNotFound
	}
	ms, _ := strconv.ParseInt(data["expiresAt"], 10, 64)
	return &core.Snippet{
		ShareID:   shareID,
		Filename:  data["filename"],
		Content:   data["content"],
		ExpiresIn: data["expiresIn"],
		ExpiresAt: time.UnixMilli(ms).UTC(),
	}, nil
}

func (s *snippetStore) UpdateContent(ctx context.Context, shareID, content string) error {
	updated, err := redis_scripts.UpdateContent.Run(ctx, s.rdc,
		[]string{key(shareID)},
		content,
	).Int64()
	if err != nil {
		return err
	}
	if updated == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *snippetStore) Ping(ctx context.Context) error { return s.rdc.Ping(ctx).Err() }

func (s *snippetStore) Close(ctx context.Context) error { return s.rdc.Close() }
