package repository

import (
	"context"
	"errors"

	"github.com/vibelab/vibe-api/internal/domain"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
// Registration checks existence first, but two concurrent registrations can
// both pass that check; the unique constraint is the authority.
var ErrDuplicateEmail = errors.New("email already taken")

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user, ErrDuplicateEmail when the email is taken
	Create(ctx context.Context, user *domain.User) error
	// GetByID retrieves a user by ID, nil when not found
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail retrieves a user by email, nil when not found
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ExistsByEmail checks if a user exists with the given email
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// List retrieves users ordered by creation time
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	// Update updates a user's profile fields
	Update(ctx context.Context, user *domain.User) error
	// UpdatePassword replaces a user's password hash
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// UpdateLastLogin records a successful login
	UpdateLastLogin(ctx context.Context, id string) error
	// Delete deletes a user
	Delete(ctx context.Context, id string) error
}
