package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"livesharego/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must be < pongWait

	// CloseMissingShareID is sent when the upgrade request has no shareId.
	CloseMissingShareID = 4000
)

// Options tunes per-connection limits.
type Options struct {
	SendBuffer int
	ReadLimit  int64
}

type WsServer struct {
	hub      *Hub
	router   *Router
	upgrader websocket.Upgrader
	opts     Options
}

func NewWsServer(h *Hub, opts Options) *WsServer {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 1 << 20
	}
	srv := &WsServer{
		hub:    h,
		router: NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		opts: opts,
	}
	srv.registerHandlers() // ← all frame types configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry‑point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	shareID := ginCtx.Query("shareId")

	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}

	if shareID == "" {
		reject(rawConn, CloseMissingShareID, "Missing shareId")
		return
	}
	rawConn.SetReadLimit(s.opts.ReadLimit)

	// ─────────────────── Client joined ────────────────────────
	conn := newClientConn(rawConn, s.opts.SendBuffer)
	room, err := s.hub.Join(shareID, conn)
	if err != nil {
		zap.L().Debug("ws.join_rejected", zap.String("share_id", shareID), zap.Error(err))
		reject(rawConn, websocket.CloseGoingAway, "Server shutting down")
		return
	}
	go conn.writePump()
	zap.L().Debug("ws.joined", zap.String("share_id", shareID), zap.String("remote", rawConn.RemoteAddr().String()))

	go s.reader(room, conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 content-update ---------------------------------------------------------
	Register(
		s.router,
		TypeContentUpdate,
		func(ctx context.Context, cc *ConnContext, req ContentUpdateRequest) error {
			cc.Room.HandleEdit(cc.Conn, *req.Content)
			return nil
		},
	)
}

// reject closes a connection that never joined a room.
func reject(rawConn *websocket.Conn, code int, text string) {
	defer rawConn.Close()
	msg := websocket.FormatCloseMessage(code, text)
	if err := rawConn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		zap.L().Debug("ws.reject_write", zap.Error(err))
	}
}

func (s *WsServer) reader(room *Room, conn *clientConn) {
	defer func() {
		conn.close()
		s.hub.Leave(room, conn)
	}()

	cc := &ConnContext{ShareID: room.ID(), Room: room, Conn: conn}

	raw := conn.rawConn
	_ = raw.SetReadDeadline(time.Now().Add(pongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("ws.read", zap.String("share_id", cc.ShareID), zap.Error(err))
			}
			return // client closed or errored
		}

		if err := s.router.dispatch(context.Background(), cc, frame); err != nil {
			metrics.ProtocolErrors.WithLabelValues(reason(err)).Inc()
			zap.L().Debug("ws.frame_dropped", zap.String("share_id", cc.ShareID), zap.Error(err))
		}
	}
}
