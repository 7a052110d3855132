package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mkrupp/bookswap/internal/infra/logging"
)

// Collection names.
const (
	UsersCollection    = "users"
	BooksCollection    = "books"
	ListingsCollection = "listings"
)

// Unique index names, used to tell duplicate key errors apart.
const (
	UsersUsernameIndex      = "users_username_unique"
	UsersEmailIndex         = "users_email_unique"
	BooksTitleAuthorIndex   = "books_title_author_unique"
	ListingsLenderBookIndex = "listings_lender_book_unique"
)

// MongoConfig holds configuration for the MongoDB storage backend.
type MongoConfig struct {
	// URI is the MongoDB connection string
	URI string `env:"URI" default:"mongodb://localhost:27017"`

	// Database is the name of the database holding the collections
	Database string `env:"DATABASE" default:"bookswap"`

	// ConnectTimeout bounds connecting and index creation, in seconds
	ConnectTimeout int `env:"CONNECT_TIMEOUT" default:"10"`
}

// Mongo owns the MongoDB client shared by all repositories.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database

	log logging.Logger
}

// OpenMongo connects to MongoDB and makes sure the unique indexes exist.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	log := logging.GetLogger("infra.database.mongo").With(
		logging.Group("db", "database", cfg.Database),
	)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeout)*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())

		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	m := &Mongo{
		Client: client,
		DB:     client.Database(cfg.Database),
		log:    log,
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())

		return nil, err
	}

	log.DebugContext(ctx, "database opened")

	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	// strength 2 compares case-insensitively
	caseInsensitive := &options.Collation{Locale: "en", Strength: 2} //nolint:exhaustruct

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetName(UsersUsernameIndex).SetUnique(true).SetCollation(caseInsensitive),
			},
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName(UsersEmailIndex).SetUnique(true).SetCollation(caseInsensitive),
			},
		},
		BooksCollection: {
			{
				Keys:    bson.D{{Key: "title", Value: 1}, {Key: "author", Value: 1}},
				Options: options.Index().SetName(BooksTitleAuthorIndex).SetUnique(true),
			},
		},
		ListingsCollection: {
			{
				Keys:    bson.D{{Key: "lenderId", Value: 1}, {Key: "bookId", Value: 1}},
				Options: options.Index().SetName(ListingsLenderBookIndex).SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "bookId", Value: 1}},
				Options: options.Index().SetName("listings_book_id"),
			},
		},
	}

	for collection, models := range indexes {
		if _, err := m.DB.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}

	return nil
}

// Collection returns the named collection of the configured database.
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.DB.Collection(name)
}

// Reset deletes every document from every collection.
func (m *Mongo) Reset(ctx context.Context) error {
	for _, name := range []string{ListingsCollection, BooksCollection, UsersCollection} {
		if _, err := m.DB.Collection(name).DeleteMany(ctx, bson.D{}); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}

	m.log.InfoContext(ctx, "database reset")

	return nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}

	return nil
}

// IsMongoDuplicateKey reports whether err is a duplicate key error. A non-empty
// index must also be named in the server message.
func IsMongoDuplicateKey(err error, index string) bool {
	if !mongo.IsDuplicateKeyError(err) {
		return false
	}

	return index == "" || strings.Contains(err.Error(), index)
}

// IsMongoNotFound reports whether err signals an empty single-document result.
func IsMongoNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// PrefixRegex returns a case-insensitive regex matching values that start with prefix.
// Metacharacters in prefix are matched literally.
func PrefixRegex(prefix string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix), Options: "i"}
}
