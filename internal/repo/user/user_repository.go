package user

import (
	"context"

	"github.com/mkrupp/bookswap/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// CreateUser adds a new user to the repository, assigning its ID and CreatedAt.
	// Returns ErrUserAlreadyExists or ErrEmailAlreadyExists if the username
	// (ignoring case) or the email is already taken.
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUserByUsername retrieves a user by exact username.
	// Returns the user object and true if found, or nil and false if not found.
	// Returns an error if the operation fails.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error)

	// GetUserByEmail retrieves a user by email, ignoring case.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error)

	// GetUserByID retrieves a user by identifier.
	GetUserByID(ctx context.Context, id domain.ID) (*domain.User, bool, error)
}
