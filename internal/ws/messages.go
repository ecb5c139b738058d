package ws

import "encoding/json"

// Frame types on the wire.
const (
	TypeInit          = "init"
	TypeContentUpdate = "content-update"
)

// Envelope is the header every inbound frame must carry.
type Envelope struct {
	Type string `json:"type" validate:"required"`
}

// ──────────────────────────── Inbound ─────────────────────────────────────────

// ContentUpdateRequest replaces the room text. Content may be empty but must
// be present.
type ContentUpdateRequest struct {
	Content *string `json:"content" validate:"required"`
}

// ──────────────────────────── Outbound ────────────────────────────────────────

// Frame is sent to clients for both "init" and "content-update".
type Frame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func encodeFrame(typ, content string) []byte {
	// A struct of two strings always marshals.
	b, _ := json.Marshal(Frame{Type: typ, Content: content})
	return b
}

func initFrame(content string) []byte { return encodeFrame(TypeInit, content) }

func contentUpdateFrame(content string) []byte { return encodeFrame(TypeContentUpdate, content) }
