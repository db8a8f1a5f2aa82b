package di

import (
	"github.com/vibelab/vibe-api/internal/handler"
	"github.com/vibelab/vibe-api/internal/password"
	"github.com/vibelab/vibe-api/internal/repository"
	"github.com/vibelab/vibe-api/internal/service"
	"github.com/vibelab/vibe-api/internal/token"
	"github.com/vibelab/vibe-api/pkg/database"
)

// Container holds all dependencies for the service
type Container struct {
	// Infrastructure
	DB *database.PostgresDB

	// Core components
	Hasher *password.Hasher
	Tokens *token.Manager

	// Repositories
	UserRepo repository.UserRepository

	// Services
	AuthService service.AuthService

	// Handlers
	HealthHandler *handler.HealthHandler
	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB       *database.PostgresDB
	UserRepo repository.UserRepository
	Hasher   *password.Hasher
	Tokens   *token.Manager
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:       cfg.DB,
		Hasher:   cfg.Hasher,
		Tokens:   cfg.Tokens,
		UserRepo: cfg.UserRepo,
	}

	c.AuthService = service.NewAuthService(c.UserRepo, c.Hasher, c.Tokens)

	c.HealthHandler = handler.NewHealthHandler(c.DB)
	c.AuthHandler = handler.NewAuthHandler(c.AuthService)
	c.UserHandler = handler.NewUserHandler(c.AuthService)

	return c
}
