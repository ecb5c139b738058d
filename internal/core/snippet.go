package core

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("snippet not found")
	ErrAlreadyExists = errors.New("snippet already exists")
)

// Expiry presets a snippet can be created with.
var ExpiryDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"2d":  48 * time.Hour,
	"3d":  72 * time.Hour,
}

const DefaultExpiresIn = "1h"

type (
	// Snippet is the durable document behind a live session.
	Snippet struct {
		ShareID   string    `json:"shareId"   bson:"shareId"`
		Filename  string    `json:"filename"  bson:"filename"`
		Content   string    `json:"content"   bson:"content"`
		ExpiresIn string    `json:"expiresIn" bson:"expiresIn"`
		ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
	}

	// SnippetStore is the durable key-value document service keyed by share id.
	SnippetStore interface {
		Create(ctx context.Context, s *Snippet) error
		FindByShareID(ctx context.Context, shareID string) (*Snippet, error)
		// UpdateContent replaces the content of an existing snippet.
		// Missing snippets are left alone and reported as ErrNotFound.
		UpdateContent(ctx context.Context, shareID, content string) error
		Ping(ctx context.Context) error
		Close(ctx context.Context) error
	}
)

// ExpiryFor resolves a preset, falling back to DefaultExpiresIn.
func ExpiryFor(expiresIn string) (string, time.Duration) {
	if d, ok := ExpiryDurations[expiresIn]; ok {
		return expiresIn, d
	}
	return DefaultExpiresIn, ExpiryDurations[DefaultExpiresIn]
}
