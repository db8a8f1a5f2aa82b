package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vibelab/vibe-api/internal/domain"
	"github.com/vibelab/vibe-api/internal/dto"
	"github.com/vibelab/vibe-api/internal/middleware"
	"github.com/vibelab/vibe-api/internal/password"
	"github.com/vibelab/vibe-api/internal/service"
	"github.com/vibelab/vibe-api/internal/token"
)

// memoryUserRepository is an in-memory UserRepository for wiring the real
// service and middleware together in tests.
type memoryUserRepository struct {
	users     map[string]*domain.User
	emailToID map[string]string
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{
		users:     make(map[string]*domain.User),
		emailToID: make(map[string]string),
	}
}

func (m *memoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	m.emailToID[user.Email] = user.ID
	return nil
}

func (m *memoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (m *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, ok := m.emailToID[email]
	if !ok {
		return nil, nil
	}
	return m.users[id], nil
}

func (m *memoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := m.emailToID[email]
	return ok, nil
}

func (m *memoryUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	var users []*domain.User
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *memoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memoryUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if user, ok := m.users[id]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (m *memoryUserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	if user, ok := m.users[id]; ok {
		now := time.Now()
		user.LastLogin = &now
	}
	return nil
}

func (m *memoryUserRepository) Delete(ctx context.Context, id string) error {
	if user, ok := m.users[id]; ok {
		delete(m.emailToID, user.Email)
		delete(m.users, id)
	}
	return nil
}

// newAPIRouter wires the real service, gate, and guard the way main.go does.
func newAPIRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher, err := password.NewHasher(password.Config{
		Memory:        8 * 1024,
		Time:          1,
		Parallelism:   1,
		SaltLength:    16,
		KeyLength:     32,
		MaxConcurrent: 2,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	tokens, err := token.NewManager(token.Config{
		Secret:     []byte("test-secret-key-for-unit-tests"),
		Issuer:     "vibe-api",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	svc := service.NewAuthService(newMemoryUserRepository(), hasher, tokens)
	authHandler := NewAuthHandler(svc)
	userHandler := NewUserHandler(svc)

	router := gin.New()
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
	users := router.Group("/api/v1/users")
	users.Use(middleware.Authenticate(tokens))
	{
		users.GET("/me", userHandler.Me)
		users.GET("", middleware.RequireRoles(domain.RoleAdmin), userHandler.List)
	}
	return router
}

func accessTokenFrom(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Data dto.AuthResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode auth response: %v", err)
	}
	if resp.Data.AccessToken == "" {
		t.Fatalf("no access token in response: %s", w.Body.String())
	}
	return resp.Data.AccessToken
}

func performAuthorized(router *gin.Engine, method, path, accessToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthFlow_RegisterLoginAdminRoute(t *testing.T) {
	router := newAPIRouter(t)

	t.Run("default role cannot reach admin route", func(t *testing.T) {
		w := performJSON(t, router, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
			Email:    "alice@example.com",
			Password: "Password1",
			Name:     "Alice",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("register: expected status %d, got %d", http.StatusCreated, w.Code)
		}
		accessToken := accessTokenFrom(t, w)

		w = performAuthorized(router, http.MethodGet, "/api/v1/users/me", accessToken)
		if w.Code != http.StatusOK {
			t.Errorf("me: expected status %d, got %d", http.StatusOK, w.Code)
		}

		w = performAuthorized(router, http.MethodGet, "/api/v1/users", accessToken)
		if w.Code != http.StatusForbidden {
			t.Errorf("admin route: expected status %d, got %d", http.StatusForbidden, w.Code)
		}
	})

	t.Run("admin reaches admin route after login", func(t *testing.T) {
		w := performJSON(t, router, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
			Email:    "root@example.com",
			Password: "Password1",
			Name:     "Root",
			Role:     "admin",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("register: expected status %d, got %d", http.StatusCreated, w.Code)
		}

		w = performJSON(t, router, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
			Email:    "root@example.com",
			Password: "Password1",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("login: expected status %d, got %d", http.StatusOK, w.Code)
		}
		accessToken := accessTokenFrom(t, w)

		w = performAuthorized(router, http.MethodGet, "/api/v1/users", accessToken)
		if w.Code != http.StatusOK {
			t.Errorf("admin route: expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("no token rejected at the gate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})
}
