package redis_scripts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	//go:embed create_snippet.lua
	createSnippetSrc string
	//go:embed update_content.lua
	updateContentSrc string
)

var (
	CreateSnippet = redis.NewScript(createSnippetSrc)
	UpdateContent = redis.NewScript(updateContentSrc)
)

var all = map[string]*redis.Script{
	"create_snippet": CreateSnippet,
	"update_content": UpdateContent,
}

// LoadAll primes the Redis script cache so the first EVALSHA does not miss.
func LoadAll(ctx context.Context, rdb redis.Scripter) error {
	for name, script := range all {
		if err := script.Load(ctx, rdb).Err(); err != nil {
			return fmt.Errorf("load lua %s: %w", name, err)
		}
		zap.L().Info("lua script loaded", zap.String("script", name))
	}
	return nil
}
