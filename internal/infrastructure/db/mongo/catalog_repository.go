package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bibliotech/consultation-api/internal/core/domain"
)

const collectionBooks = "books"

// CatalogRepository is the read-only view onto the books collection, which is
// written by the surrounding catalog application.
type CatalogRepository struct {
	col *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{col: db.Collection(collectionBooks)}
}

// FindBook resolves a book by exact title; the inventory number narrows the
// match when several copies share a title.
func (r *CatalogRepository) FindBook(ctx context.Context, title, inventoryNumber string) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"title": title}
	if inventoryNumber != "" {
		filter["inventory_number"] = inventoryNumber
	}

	var b domain.Book
	if err := r.col.FindOne(ctx, filter).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *CatalogRepository) BooksInCategory(ctx context.Context, categoryID, excludeID string, limit int) ([]domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"category_id": categoryID}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domain.Book
	for cursor.Next(ctx) {
		var b domain.Book
		if err := cursor.Decode(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cursor.Err()
}
