package ports

import (
	"context"

	"github.com/bibliotech/consultation-api/internal/core/domain"
)

// CatalogRepository is the read-only view onto the book catalog. The catalog
// itself is owned by the surrounding application.
type CatalogRepository interface {
	// FindBook resolves a book by title and, when given, inventory number.
	// Returns domain.ErrBookNotFound when nothing matches.
	FindBook(ctx context.Context, title, inventoryNumber string) (*domain.Book, error)

	// BooksInCategory returns up to limit books sharing a category, excluding
	// excludeID. Used for best-effort similar-item suggestions.
	BooksInCategory(ctx context.Context, categoryID, excludeID string, limit int) ([]domain.Book, error)
}
