package book

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

type bookDocument struct {
	ID          string `bson:"_id"`
	ImgURL      string `bson:"imgUrl,omitempty"`
	Title       string `bson:"title"`
	Author      string `bson:"author"`
	Page        int    `bson:"page,omitempty"`
	ReleaseYear int    `bson:"releaseYear,omitempty"`
	CreatorID   string `bson:"creatorId"`
	CreatedAt   int64  `bson:"createdAt"`
}

func (d bookDocument) toDomain() *domain.Book {
	return &domain.Book{
		ID:          domain.ID(d.ID),
		ImgURL:      d.ImgURL,
		Title:       d.Title,
		Author:      d.Author,
		Page:        d.Page,
		ReleaseYear: d.ReleaseYear,
		CreatorID:   domain.ID(d.CreatorID),
		CreatedAt:   d.CreatedAt,
	}
}

// MongoBookRepository implements Repository using MongoDB as the storage backend.
type MongoBookRepository struct {
	books *mongo.Collection
	log   logging.Logger
}

var _ Repository = (*MongoBookRepository)(nil)

// NewMongoBookRepository creates a MongoBookRepository on an open client.
func NewMongoBookRepository(db *database.Mongo) *MongoBookRepository {
	return &MongoBookRepository{
		books: db.Collection(database.BooksCollection),
		log:   logging.GetLogger("repo.book.mongo_book_repository"),
	}
}

// GetBookByTitleAuthor implements Repository.GetBookByTitleAuthor using MongoDB.
func (r *MongoBookRepository) GetBookByTitleAuthor(
	ctx context.Context,
	title, author string,
) (*domain.Book, bool, error) {
	return r.getBook(ctx, bson.D{{Key: "title", Value: title}, {Key: "author", Value: author}})
}

// GetBookByID implements Repository.GetBookByID using MongoDB.
func (r *MongoBookRepository) GetBookByID(ctx context.Context, id domain.ID) (*domain.Book, bool, error) {
	return r.getBook(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (r *MongoBookRepository) getBook(ctx context.Context, filter bson.D) (*domain.Book, bool, error) {
	var doc bookDocument

	if err := r.books.FindOne(ctx, filter).Decode(&doc); err != nil {
		if database.IsMongoNotFound(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("find book: %w", err)
	}

	return doc.toDomain(), true, nil
}

// CreateBook implements Repository.CreateBook using MongoDB.
func (r *MongoBookRepository) CreateBook(ctx context.Context, book *domain.Book) error {
	doc := bookDocument{
		ID:          domain.NewID().String(),
		ImgURL:      book.ImgURL,
		Title:       book.Title,
		Author:      book.Author,
		Page:        book.Page,
		ReleaseYear: book.ReleaseYear,
		CreatorID:   book.CreatorID.String(),
		CreatedAt:   time.Now().Unix(),
	}

	if _, err := r.books.InsertOne(ctx, doc); err != nil {
		if database.IsMongoDuplicateKey(err, database.BooksTitleAuthorIndex) {
			err = errors.Join(domain.ErrBookAlreadyExists, err)
		}

		return fmt.Errorf("insert book: %w", err)
	}

	book.ID = domain.ID(doc.ID)
	book.CreatedAt = doc.CreatedAt

	r.log.DebugContext(ctx, "book inserted", logging.Group("book", "id", doc.ID))

	return nil
}

// UpdateBookForCreator implements Repository.UpdateBookForCreator using MongoDB.
func (r *MongoBookRepository) UpdateBookForCreator(
	ctx context.Context,
	id, creatorID domain.ID,
	patch domain.BookPatch,
) (*domain.Book, error) {
	set := bson.D{}

	if patch.ImgURL != nil {
		set = append(set, bson.E{Key: "imgUrl", Value: *patch.ImgURL})
	}

	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}

	if patch.Author != nil {
		set = append(set, bson.E{Key: "author", Value: *patch.Author})
	}

	if patch.Page != nil {
		set = append(set, bson.E{Key: "page", Value: *patch.Page})
	}

	if patch.ReleaseYear != nil {
		set = append(set, bson.E{Key: "releaseYear", Value: *patch.ReleaseYear})
	}

	filter := bson.D{{Key: "_id", Value: id.String()}, {Key: "creatorId", Value: creatorID.String()}}

	var (
		doc bookDocument
		err error
	)

	// $set rejects an empty document, so an empty patch only checks ownership.
	if len(set) == 0 {
		err = r.books.FindOne(ctx, filter).Decode(&doc)
	} else {
		err = r.books.FindOneAndUpdate(ctx, filter,
			bson.D{{Key: "$set", Value: set}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	}

	if err != nil {
		switch {
		case database.IsMongoNotFound(err):
			err = errors.Join(domain.ErrBookNotFoundOrUnauthorized, err)
		case database.IsMongoDuplicateKey(err, database.BooksTitleAuthorIndex):
			err = errors.Join(domain.ErrBookAlreadyExists, err)
		}

		return nil, fmt.Errorf("update book: %w", err)
	}

	return doc.toDomain(), nil
}

// SearchBook implements Repository.SearchBook using MongoDB.
func (r *MongoBookRepository) SearchBook(ctx context.Context, titlePrefix, authorPrefix string) (*domain.Book, error) {
	filter := bson.D{{Key: "title", Value: database.PrefixRegex(titlePrefix)}}

	if authorPrefix != "" {
		filter = append(filter, bson.E{Key: "author", Value: database.PrefixRegex(authorPrefix)})
	}

	var doc bookDocument

	err := r.books.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})).Decode(&doc)
	if err != nil {
		if database.IsMongoNotFound(err) {
			err = errors.Join(domain.ErrBookNotFound, err)
		}

		return nil, fmt.Errorf("search book: %w", err)
	}

	return doc.toDomain(), nil
}
