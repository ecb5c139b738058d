package snippet

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"livesharego/internal/core"
)

const (
	shareIDLength   = 8
	shareIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	maxIDAttempts   = 10
)

var ErrShareIDExhausted = errors.New("could not allocate a unique share id")

type ISnippetService interface {
	Create(ctx context.Context, filename, content, expiresIn string) (*core.Snippet, error)
	Get(ctx context.Context, shareID string) (*core.Snippet, error)
	// LoadContent reports found=false when the snippet does not exist.
	LoadContent(ctx context.Context, shareID string) (content string, found bool, err error)
	SaveContent(ctx context.Context, shareID, content string) error
	Ping(ctx context.Context) error
}

type snippetService struct {
	store   core.SnippetStore
	timeout time.Duration
	now     func() time.Time
	newID   func() (string, error)
}

var _ ISnippetService = (*snippetService)(nil)

// NewSnippetService bounds every store call by timeout.
func NewSnippetService(store core.SnippetStore, timeout time.Duration) ISnippetService {
	return &snippetService{
		store:   store,
		timeout: timeout,
		now:     time.Now,
		newID:   NewShareID,
	}
}

// Create stores a new snippet under a freshly generated share id.
func (svc *snippetService) Create(ctx context.Context, filename, content, expiresIn string) (*core.Snippet, error) {
	expiresIn, ttl := core.ExpiryFor(expiresIn)

	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := svc.newID()
		if err != nil {
			return nil, err
		}
		snip := &core.Snippet{
			ShareID:   id,
			Filename:  filename,
			Content:   content,
			ExpiresIn: expiresIn,
			ExpiresAt: svc.now().Add(ttl).UTC(),
		}
		err = svc.store.Create(ctx, snip)
		if errors.Is(err, core.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return snip, nil
	}
	return nil, ErrShareIDExhausted
}

func (svc *snippetService) Get(ctx context.Context, shareID string) (*core.Snippet, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()
	return svc.store.FindByShareID(ctx, shareID)
}

func (svc *snippetService) LoadContent(ctx context.Context, shareID string) (string, bool, error) {
	snip, err := svc.Get(ctx, shareID)
	if errors.Is(err, core.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load snippet %s: %w", shareID, err)
	}
	return snip.Content, true, nil
}

func (svc *snippetService) SaveContent(ctx context.Context, shareID, content string) error {
	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()
	if err := svc.store.UpdateContent(ctx, shareID, content); err != nil {
		return fmt.Errorf("save snippet %s: %w", shareID, err)
	}
	return nil
}

func (svc *snippetService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()
	return svc.store.Ping(ctx)
}

// NewShareID returns 8 random lowercase alphanumerics.
func NewShareID() (string, error) {
	max := big.NewInt(int64(len(shareIDAlphabet)))
	b := make([]byte, shareIDLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = shareIDAlphabet[n.Int64()]
	}
	return string(b), nil
}
