package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"livesharego/internal/core"
)

type snippetStore struct {
	col *mongo.Collection
	now func() time.Time
}

// NewSnippetStore wraps the collection and makes sure the share id and
// expiry indexes exist.
func NewSnippetStore(ctx context.Context, col *mongo.Collection) (core.SnippetStore, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "shareId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create codeblock indexes: %w", err)
	}
	return newSnippetStore(col), nil
}

func newSnippetStore(col *mongo.Collection) *snippetStore {
	return &snippetStore{col: col, now: time.Now}
}

// live matches the snippet only while it has not expired; the TTL monitor
// runs once a minute so expired documents can still be on disk.
func (s *snippetStore) live(shareID string) bson.M {
	return bson.M{
		"shareId":   shareID,
		"expiresAt": bson.M{"$gt": s.now()},
	}
}

func (s *snippetStore) Create(ctx context.Context, snip *core.Snippet) error {
	_, err := s.col.InsertOne(ctx, snip)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("snippet %s: %w", snip.ShareID, core.ErrAlreadyExists)
	}
	return err
}

func (s *snippetStore) FindByShareID(ctx context.Context, shareID string) (*core.Snippet, error) {
	var snip core.Snippet
	err := s.col.FindOne(ctx, s.live(shareID)).Decode(&snip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, core.ErrNotFound
		}
		zap.L().Error("mongo.find_snippet", zap.String("share_id", shareID), zap.Error(err))
		return nil, err
	}
	return &snip, nil
}

func (s *snippetStore) UpdateContent(ctx context.Context, shareID, content string) error {
	res, err := s.col.UpdateOne(ctx, s.live(shareID), bson.M{"$set": bson.M{"content": content}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *snippetStore) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, nil)
}

func (s *snippetStore) Close(ctx context.Context) error {
	return s.col.Database().Client().Disconnect(ctx)
}
