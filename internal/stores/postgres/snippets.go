package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"livesharego/internal/core"
)

const uniqueViolation = "23505"

type snippetStore struct {
	db *sql.DB
}

func NewSnippetStore(db *sql.DB) core.SnippetStore {
	return &snippetStore{db: db}
}

func (s *snippetStore) Create(ctx context.Context, snip *core.Snippet) error {
	const ins = `INSERT INTO code_blocks (share_id, filename, content, expires_in, expires_at)
	             VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, ins,
		snip.ShareID, snip.Filename, snip.Content, snip.ExpiresIn, snip.ExpiresAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("snippet %s: %w", snip.ShareID, core.ErrAlreadyExists)
	}
	return err
}

func (s *snippetStore) FindByShareID(ctx context.Context, shareID string) (*core.Snippet, error) {
	const q = `SELECT share_id, filename, content, expires_in, expires_at
	             FROM code_blocks
	            WHERE share_id = $1 AND expires_at > now()`
	snip := &core.Snippet{}
	err := s.db.QueryRowContext(ctx, q, shareID).Scan(
		&snip.ShareID, &snip.Filename, &snip.Content, &snip.ExpiresIn, &snip.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		zap.L().Error("postgres.find_snippet", zap.String("share_id", shareID), zap.Error(err))
		return nil, err
	}
	return snip, nil
}

func (s *snippetStore) UpdateContent(ctx context.Context, shareID, content string) error {
	const upd = `UPDATE code_blocks SET content = $2
	              WHERE share_id = $1 AND expires_at > now()`
	res, err := s.db.ExecContext(ctx, upd, shareID, content)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *snippetStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *snippetStore) Close(ctx context.Context) error { return s.db.Close() }
