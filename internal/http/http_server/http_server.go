package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abrar71/swaggerfilesv2" // swagger embed files

	"livesharego/internal/http/snippethandler"
	"livesharego/internal/metrics"
	"livesharego/internal/services/snippet"
	"livesharego/internal/ws"
)

const healthTimeout = 2 * time.Second

type httpServer struct {
	listenPort     uint16
	srv            http.Server
	ln             net.Listener
	snippetService snippet.ISnippetService
	wsSrv          *ws.WsServer
	hub            *ws.Hub
	ctx            context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, wsSrv *ws.WsServer, hub *ws.Hub, snippetService snippet.ISnippetService) *httpServer {
	return &httpServer{
		listenPort:     listenPort,
		wsSrv:          wsSrv,
		hub:            hub,
		snippetService: snippetService,
		ctx:            ctx,
	}
}

// Routes builds the gin engine; split out of Start so it can be tested.
func (h *httpServer) Routes() *gin.Engine {
	routerEngine := gin.New()

	// Swagger UI and API specs
	routerEngine.StaticFS("/swagger-apis", http.FS(swaggerfilesv2.FS))
	routerEngine.Static("/api-specs", "api_specs")

	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	routerEngine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "WebSocket Server is up")
	})
	routerEngine.GET("/health", h.health)
	routerEngine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// websocket endpoint
	routerEngine.GET("/api/live", h.wsSrv.Handle)

	// REST API
	sh := snippethandler.New(h.snippetService)
	sh.Register(routerEngine)

	return routerEngine
}

// health answers OK while the room registry is responsive.
func (h *httpServer) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	if err := h.hub.Responsive(ctx); err != nil {
		zap.L().Error("health", zap.Error(err))
		c.String(http.StatusServiceUnavailable, "UNAVAILABLE")
		return
	}
	c.String(http.StatusOK, "OK")
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	zap.L().Info("WebSocket server running", zap.String("addr", listenAddr))

	h.srv = http.Server{
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	err = h.srv.Serve(h.ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in‑flight requests to finish.
func (h *httpServer) Dispose() error {
	// The parent ctx is usually already cancelled by the signal.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), 10*time.Second)
	defer cancel()

	// Ask the server to shut down.
	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn’t finish in time
	}
	return nil
}
