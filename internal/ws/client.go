package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// clientConn owns the write side of one websocket. Frames are queued on send
// and written by writePump, so a slow peer never blocks its room.
type clientConn struct {
	rawConn *websocket.Conn
	send    chan []byte

	mu     sync.Mutex
	closed bool
}

func newClientConn(rawConn *websocket.Conn, buffer int) *clientConn {
	return &clientConn{
		rawConn: rawConn,
		send:    make(chan []byte, buffer),
	}
}

// enqueue hands msg to the writer without blocking. It reports false when
// the connection is closed or its queue is full; the frame is dropped.
func (c *clientConn) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close stops the writer; queued frames are still flushed first.
func (c *clientConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *clientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.rawConn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.rawConn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.rawConn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.rawConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
