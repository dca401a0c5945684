package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

const collectionTokens = "confirm_tokens"

var _ ports.TokenRepository = (*TokenRepository)(nil)

// TokenRepository stores confirmation tokens keyed by their secret.
// A ttl > 0 lets MongoDB expire tokens that were never used.
type TokenRepository struct {
	col *mongo.Collection
	ttl time.Duration
}

func NewTokenRepository(db *mongo.Database, ttl time.Duration) *TokenRepository {
	return &TokenRepository{col: db.Collection(collectionTokens), ttl: ttl}
}

type mongoToken struct {
	Key       string             `bson:"_id"`
	AccountID primitive.ObjectID `bson:"account_id"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Replace drops any token of the account and inserts t. Run it inside a
// transaction so readers never see the account without a token.
func (r *TokenRepository) Replace(ctx context.Context, t *domain.ConfirmationToken) error {
	oid, err := primitive.ObjectIDFromHex(t.AccountID)
	if err != nil {
		return fmt.Errorf("replace token: invalid account id %q", t.AccountID)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"account_id": oid}); err != nil {
		return fmt.Errorf("replace token: delete previous: %w", err)
	}

	_, err = r.col.InsertOne(ctx, mongoToken{
		Key:       t.Key,
		AccountID: oid,
		CreatedAt: t.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("replace token: insert: %w", err)
	}
	return nil
}

// TakeByKey removes the token and returns it. Inside a transaction the
// deleted document stays write-locked until commit, so a concurrent take of
// the same key conflicts and, once retried, finds nothing.
func (r *TokenRepository) TakeByKey(ctx context.Context, key string) (*domain.ConfirmationToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoToken
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("take token: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TokenRepository) FindByKey(ctx context.Context, key string) (*domain.ConfirmationToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoToken
	if err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the one-token-per-account index and, when a ttl is
// configured, the expiry index on created_at.
func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_account"),
		},
	}
	if r.ttl > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.ttl / time.Second)).SetName("ttl_created_at"),
		})
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (d mongoToken) toDomain() *domain.ConfirmationToken {
	return &domain.ConfirmationToken{
		Key:       d.Key,
		AccountID: d.AccountID.Hex(),
		CreatedAt: d.CreatedAt.UTC(),
	}
}
