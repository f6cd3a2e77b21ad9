package ports

import (
	"context"

	"github.com/bibliotech/consultation-api/internal/core/domain"
)

// UserRepository defines persistence for accounts. This service issues its
// own identities; the rest of the application treats it as the identity and
// role provider.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// ListByRole returns all active users holding the given role. Used by the
	// dispatcher to resolve fan-out recipients.
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	// Count returns the number of accounts; the first registered account is
	// promoted to admin.
	Count(ctx context.Context) (int64, error)
}
