package stores

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"livesharego/internal/config"
	"livesharego/internal/core"
	"livesharego/internal/database/db_client"
	"livesharego/internal/mongo/mongo_client"
	"livesharego/internal/redis/redis_client"
	"livesharego/internal/redis/redis_scripts"
	"livesharego/internal/stores/memory"
	"livesharego/internal/stores/mongostore"
	"livesharego/internal/stores/postgres"
	"livesharego/internal/stores/redisstore"
)

// GetStore opens the snippet store selected by STORE_BACKEND.
func GetStore(ctx context.Context, cfg *config.Config) (core.SnippetStore, error) {
	fields := []zap.Field{zap.String("backend", cfg.StoreBackend)}

	var store core.SnippetStore
	switch cfg.StoreBackend {
	case "postgres":
		db, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
		if err != nil {
			return nil, fmt.Errorf("pg-open: %w", err)
		}
		if err := db_client.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		fields = append(fields, zap.String("host", cfg.PostgresHost), zap.String("db", cfg.PostgresDb))
		store = postgres.NewSnippetStore(db)
	case "redis":
		rdc, err := redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
		if err != nil {
			return nil, err
		}
		if err := redis_scripts.LoadAll(ctx, rdc); err != nil {
			rdc.Close()
			return nil, err
		}
		fields = append(fields, zap.String("host", cfg.RedisHost), zap.Uint16("port", cfg.RedisPort))
		store = redisstore.NewSnippetStore(rdc)
	case "mongo":
		client, err := mongo_client.Open(ctx, cfg.MongoURL)
		if err != nil {
			return nil, fmt.Errorf("mongo-open: %w", err)
		}
		col := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
		s, err := mongostore.NewSnippetStore(ctx, col)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		fields = append(fields, zap.String("db", cfg.MongoDatabase), zap.String("collection", cfg.MongoCollection))
		store = s
	default:
		store = memory.NewSnippetStore()
		fields[0] = zap.String("backend", "in-memory")
	}
	zap.L().Info("Use storage", fields...)
	return store, nil
}
