package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMalformedFrame = errors.New("malformed_frame")
	ErrUnknownType    = errors.New("unknown_type")
	ErrInvalidPayload = errors.New("invalid_payload")
)

// ConnContext is what a handler knows about the connection a frame came from.
type ConnContext struct {
	ShareID string
	Room    *Room
	Conn    *clientConn
}

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, c *ConnContext, frame []byte) error

// Router keeps a map[type]handler, à‑la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
	validate *validator.Validate
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]rawHandler),
		validate: validator.New(),
	}
}

// Register binds a frame type to a strongly‑typed handler. The frame is
// decoded into Req and validated before h runs.
func Register[Req any](
	r *Router,
	frameType string,
	h func(ctx context.Context, c *ConnContext, req Req) error,
) {
	if frameType == "" {
		panic("ws router: empty frame type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[frameType] = func(ctx context.Context, c *ConnContext, frame []byte) error {
		var req Req
		if err := json.Unmarshal(frame, &req); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		if err := r.validate.Struct(req); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return h(ctx, c, req)
	}
}

// dispatch is called by the server’s reader loop.
func (r *Router) dispatch(ctx context.Context, c *ConnContext, frame []byte) error {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if err := r.validate.Struct(env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	r.mu.RLock()
	h, ok := r.handlers[env.Type]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	return h(ctx, c, frame)
}

// reason maps a dispatch error onto a short metrics label.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedFrame):
		return "malformed"
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	default:
		return "handler"
	}
}
