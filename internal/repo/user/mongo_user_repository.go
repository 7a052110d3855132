package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/database"
	"github.com/mkrupp/bookswap/internal/infra/logging"
)

type userDocument struct {
	ID           string `bson:"_id"`
	Username     string `bson:"username"`
	FirstName    string `bson:"firstName"`
	Email        string `bson:"email"`
	PasswordHash []byte `bson:"passwordHash"`
	CreatedAt    int64  `bson:"createdAt"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           domain.ID(d.ID),
		Username:     d.Username,
		FirstName:    d.FirstName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

// MongoUserRepository implements Repository using MongoDB as the storage backend.
type MongoUserRepository struct {
	users *mongo.Collection
	log   logging.Logger
}

var _ Repository = (*MongoUserRepository)(nil)

// NewMongoUserRepository creates a MongoUserRepository on an open client.
func NewMongoUserRepository(db *database.Mongo) *MongoUserRepository {
	return &MongoUserRepository{
		users: db.Collection(database.UsersCollection),
		log:   logging.GetLogger("repo.user.mongo_user_repository"),
	}
}

// CreateUser implements Repository.CreateUser using MongoDB.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	doc := userDocument{
		ID:           domain.NewID().String(),
		Username:     user.Username,
		FirstName:    user.FirstName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now().Unix(),
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		switch {
		case database.IsMongoDuplicateKey(err, database.UsersUsernameIndex):
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		case database.IsMongoDuplicateKey(err, database.UsersEmailIndex):
			err = errors.Join(domain.ErrEmailAlreadyExists, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = domain.ID(doc.ID)
	user.CreatedAt = doc.CreatedAt

	r.log.DebugContext(ctx, "user inserted", logging.Group("user", "id", doc.ID))

	return nil
}

// GetUserByUsername implements Repository.GetUserByUsername using MongoDB.
// The query carries no collation, so the match is exact.
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.getUser(ctx, bson.D{{Key: "username", Value: username}})
}

// GetUserByEmail implements Repository.GetUserByEmail using MongoDB.
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return r.getUser(ctx, bson.D{{Key: "email", Value: email}},
		options.FindOne().SetCollation(&options.Collation{Locale: "en", Strength: 2})) //nolint:exhaustruct
}

// GetUserByID implements Repository.GetUserByID using MongoDB.
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id domain.ID) (*domain.User, bool, error) {
	return r.getUser(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (r *MongoUserRepository) getUser(
	ctx context.Context,
	filter bson.D,
	opts ...*options.FindOneOptions,
) (*domain.User, bool, error) {
	var doc userDocument

	if err := r.users.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if database.IsMongoNotFound(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("find user: %w", err)
	}

	return doc.toDomain(), true, nil
}
