package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vibelab/vibe-api/internal/domain"
	"github.com/vibelab/vibe-api/internal/dto"
	"github.com/vibelab/vibe-api/internal/password"
	"github.com/vibelab/vibe-api/internal/repository"
	"github.com/vibelab/vibe-api/internal/token"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Register creates a new user and issues a token pair
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	// Login authenticates a user and issues a token pair
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	// Refresh validates a refresh token and issues a new token pair
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// ListUsers retrieves users ordered by creation time
	ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error)
	// UpdateUser updates the user's display name
	UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest) (*domain.User, error)
	// ChangePassword verifies the current password and stores a new hash
	ChangePassword(ctx context.Context, id string, req *dto.ChangePasswordRequest) error
	// DeleteUser deletes a user
	DeleteUser(ctx context.Context, id string) error
}

// authService implements AuthService
type authService struct {
	users  repository.UserRepository
	hasher *password.Hasher
	tokens *token.Manager
}

// NewAuthService creates a new AuthService
func NewAuthService(users repository.UserRepository, hasher *password.Hasher, tokens *token.Manager) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates a new user and issues a token pair
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	role, err := req.ResolveRole()
	if err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can win the race between the existence
		// check and the insert; the constraint violation is still a conflict.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return s.buildAuthResponse(user, now)
}

// Login authenticates a user and issues a token pair
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, req.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	return s.buildAuthResponse(user, time.Now())
}

// Refresh validates a refresh token and issues a new token pair
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.tokens.Validate(refreshToken, domain.KindRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// Re-read the user so a deleted account or changed role takes effect
	// on the next refresh rather than living until the refresh expiry.
	user, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}

	return s.buildAuthResponse(user, time.Now())
}

// GetUser retrieves a user by ID
func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers retrieves users ordered by creation time
func (s *authService) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

// UpdateUser updates the user's display name
func (s *authService) UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	user.Name = req.Name
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a new hash
func (s *authService) ChangePassword(ctx context.Context, id string, req *dto.ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	ok, err := s.hasher.Verify(ctx, req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, id, hash)
}

// DeleteUser deletes a user
func (s *authService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.users.Delete(ctx, id)
}

func (s *authService) buildAuthResponse(user *domain.User, now time.Time) (*dto.AuthResponse, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role, now)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		User:         ToUserResponse(user),
	}, nil
}

// ToUserResponse converts a User to its response representation
func ToUserResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role.String(),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
