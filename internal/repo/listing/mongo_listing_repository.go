package listing

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

type listingDocument struct {
	ID           string `bson:"_id"`
	BookID       string `bson:"bookId"`
	LenderID     string `bson:"lenderId"`
	Availability string `bson:"availability"`
	Condition    string `bson:"condition"`
	Location     string `bson:"location"`
	CreatedAt    int64  `bson:"createdAt"`
}

func (d listingDocument) toDomain() domain.Listing {
	return domain.Listing{
		ID:           domain.ID(d.ID),
		BookID:       domain.ID(d.BookID),
		LenderID:     domain.ID(d.LenderID),
		Availability: domain.Availability(d.Availability),
		Condition:    domain.Condition(d.Condition),
		Location:     d.Location,
		CreatedAt:    d.CreatedAt,
	}
}

// MongoListingRepository implements Repository using MongoDB as the storage backend.
type MongoListingRepository struct {
	listings *mongo.Collection
	log      logging.Logger
}

var _ Repository = (*MongoListingRepository)(nil)

// NewMongoListingRepository creates a MongoListingRepository on an open client.
func NewMongoListingRepository(db *database.Mongo) *MongoListingRepository {
	return &MongoListingRepository{
		listings: db.Collection(database.ListingsCollection),
		log:      logging.GetLogger("repo.listing.mongo_listing_repository"),
	}
}

// GetListingByLenderAndBook implements Repository.GetListingByLenderAndBook using MongoDB.
func (r *MongoListingRepository) GetListingByLenderAndBook(
	ctx context.Context,
	lenderID, bookID domain.ID,
) (*domain.Listing, bool, error) {
	var doc listingDocument

	err := r.listings.FindOne(ctx, bson.D{
		{Key: "lenderId", Value: lenderID.String()},
		{Key: "bookId", Value: bookID.String()},
	}).Decode(&doc)
	if err != nil {
		if database.IsMongoNotFound(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("find listing: %w", err)
	}

	listing := doc.toDomain()

	return &listing, true, nil
}

// CreateListing implements Repository.CreateListing using MongoDB.
func (r *MongoListingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	availability := listing.Availability
	if availability == "" {
		availability = domain.AvailabilityAvailable
	}

	doc := listingDocument{
		ID:           domain.NewID().String(),
		BookID:       listing.BookID.String(),
		LenderID:     listing.LenderID.String(),
		Availability: string(availability),
		Condition:    string(listing.Condition),
		Location:     listing.Location,
		CreatedAt:    time.Now().Unix(),
	}

	if _, err := r.listings.InsertOne(ctx, doc); err != nil {
		if database.IsMongoDuplicateKey(err, database.ListingsLenderBookIndex) {
			err = errors.Join(domain.ErrAlreadyListed, err)
		}

		return fmt.Errorf("insert listing: %w", err)
	}

	listing.ID = domain.ID(doc.ID)
	listing.Availability = availability
	listing.CreatedAt = doc.CreatedAt

	r.log.DebugContext(ctx, "listing inserted", logging.Group("listing", "id", doc.ID))

	return nil
}

// UpdateListingForLender implements Repository.UpdateListingForLender using MongoDB.
func (r *MongoListingRepository) UpdateListingForLender(
	ctx context.Context,
	id, lenderID domain.ID,
	patch domain.ListingPatch,
) (*domain.Listing, error) {
	set := bson.D{}

	if patch.Availability != nil {
		set = append(set, bson.E{Key: "availability", Value: string(*patch.Availability)})
	}

	if patch.Condition != nil {
		set = append(set, bson.E{Key: "condition", Value: string(*patch.Condition)})
	}

	if patch.Location != nil {
		set = append(set, bson.E{Key: "location", Value: *patch.Location})
	}

	filter := bson.D{{Key: "_id", Value: id.String()}, {Key: "lenderId", Value: lenderID.String()}}

	var (
		doc listingDocument
		err error
	)

	// $set rejects an empty document, so an empty patch only checks ownership.
	if len(set) == 0 {
		err = r.listings.FindOne(ctx, filter).Decode(&doc)
	} else {
		err = r.listings.FindOneAndUpdate(ctx, filter,
			bson.D{{Key: "$set", Value: set}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	}

	if err != nil {
		if database.IsMongoNotFound(err) {
			err = errors.Join(domain.ErrListingNotFoundOrUnauthorized, err)
		}

		return nil, fmt.Errorf("update listing: %w", err)
	}

	listing := doc.toDomain()

	return &listing, nil
}

// DeleteListingForLender implements Repository.DeleteListingForLender using MongoDB.
func (r *MongoListingRepository) DeleteListingForLender(ctx context.Context, id, lenderID domain.ID) error {
	res, err := r.listings.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "lenderId", Value: lenderID.String()},
	})
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("delete listing: %w", domain.ErrListingNotFoundOrUnauthorized)
	}

	return nil
}

// ListListingsByLender implements Repository.ListListingsByLender using MongoDB.
func (r *MongoListingRepository) ListListingsByLender(
	ctx context.Context,
	lenderID domain.ID,
) ([]domain.Listing, error) {
	return r.listListings(ctx, bson.D{{Key: "lenderId", Value: lenderID.String()}})
}

// ListListingsByBook implements Repository.ListListingsByBook using MongoDB.
func (r *MongoListingRepository) ListListingsByBook(
	ctx context.Context,
	bookID domain.ID,
	filter domain.ListingFilter,
) ([]domain.Listing, error) {
	query := bson.D{{Key: "bookId", Value: bookID.String()}}

	if filter.LocationPrefix != "" {
		query = append(query, bson.E{Key: "location", Value: database.PrefixRegex(filter.LocationPrefix)})
	}

	if filter.Condition != "" {
		query = append(query, bson.E{Key: "condition", Value: string(filter.Condition)})
	}

	return r.listListings(ctx, query)
}

func (r *MongoListingRepository) listListings(ctx context.Context, filter bson.D) ([]domain.Listing, error) {
	cursor, err := r.listings.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}

	listings := make([]domain.Listing, 0, len(docs))
	for _, doc := range docs {
		listings = append(listings, doc.toDomain())
	}

	return listings, nil
}
