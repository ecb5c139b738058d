package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"livesharego/internal/config"
	"livesharego/internal/core"
	"livesharego/internal/http/http_server"
	"livesharego/internal/services/snippet"
	"livesharego/internal/stores"
	"livesharego/internal/storewatch"
	"livesharego/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var store core.SnippetStore
	var snippetService snippet.ISnippetService

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Snippet store (memory / postgres / redis / mongo)
	store, err = stores.GetStore(ctx, cfg)
	if err != nil {
		Log.Fatal("Failed to open snippet store", zap.Error(err))
	}
	defer store.Close(context.Background())

	// 4. Services
	snippetService = snippet.NewSnippetService(store, cfg.StoreTimeout)

	// 5. Background: periodic store health check
	storewatch.Run(ctx, snippetService, cfg.StorePingInterval)

	// 6. Room registry
	hub := ws.NewHub(snippetService, ws.HubOptions{
		SaveDebounce:      cfg.SaveDebounce,
		FinalFlushTimeout: cfg.FinalFlushTimeout,
	})

	// 7. Initialize the WS server
	wsSrv := ws.NewWsServer(hub, ws.Options{
		SendBuffer: cfg.WsSendBuffer,
		ReadLimit:  cfg.WsReadLimit,
	})

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, hub, snippetService)
	go func() {
		<-ctx.Done()
		Log.Info("Shutting down")
		_ = httpServer.Dispose()
	}()
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}

	// 9. Flush every live room before exiting
	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.FinalFlushTimeout+time.Second)
	defer cancel()
	if err := hub.Close(flushCtx); err != nil {
		Log.Error("hub_close", zap.Error(err))
	}
}
