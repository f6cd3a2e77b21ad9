package ports

import (
	"context"

	"github.com/bibliotech/consultation-api/internal/core/domain"
)

// RegisterInput carries a new account registration.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	Profession  string
	Institution string
}

// AuthService implements registration and login for the identity provider
// surface of the service.
type AuthService interface {
	// Register creates a patron account. The very first account becomes admin.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	// Login verifies credentials and returns a signed JWT plus the user.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
