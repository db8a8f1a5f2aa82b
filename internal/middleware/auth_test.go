package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vibelab/vibe-api/internal/domain"
	"github.com/vibelab/vibe-api/internal/token"
	"github.com/vibelab/vibe-api/pkg/response"
)

func newTestTokenManager(t *testing.T, now func() time.Time) *token.Manager {
	t.Helper()
	m, err := token.NewManager(token.Config{
		Secret:     []byte("test-secret-key-for-unit-tests"),
		Issuer:     "vibe-api",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Now:        now,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	issued := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	clock := issued
	tokens := newTestTokenManager(t, func() time.Time { return clock })

	access, err := tokens.IssueAccess("user-1", "alice@example.com", domain.RoleUser, issued)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	refresh, err := tokens.IssueRefresh("user-1", "alice@example.com", domain.RoleUser, issued)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	router := gin.New()
	router.GET("/protected", Authenticate(tokens), func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID()})
	})

	tests := []struct {
		name       string
		header     string
		clock      time.Time
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "valid token",
			header:     "Bearer " + access,
			clock:      issued,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			clock:      issued,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Missing or malformed authorization header",
		},
		{
			name:       "wrong scheme",
			header:     "Basic " + access,
			clock:      issued,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Missing or malformed authorization header",
		},
		{
			name:       "empty bearer token",
			header:     "Bearer ",
			clock:      issued,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Missing or malformed authorization header",
		},
		{
			name:       "garbage token",
			header:     "Bearer not-a-token",
			clock:      issued,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid or expired token",
		},
		{
			name:       "refresh token rejected at the gate",
			header:     "Bearer " + refresh,
			clock:      issued,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid or expired token",
		},
		{
			name:       "expired token",
			header:     "Bearer " + access,
			clock:      issued.Add(16 * time.Minute),
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid or expired token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock = tt.clock

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantMsg != "" {
				resp := decodeResponse(t, w)
				if resp.Error == nil {
					t.Fatal("expected error payload")
				}
				if resp.Error.Message != tt.wantMsg {
					t.Errorf("expected message %q, got %q", tt.wantMsg, resp.Error.Message)
				}
			}
		})
	}
}

func TestAuthenticate_AttachesClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	tokens := newTestTokenManager(t, func() time.Time { return now })

	access, err := tokens.IssueAccess("user-42", "bob@example.com", domain.RoleModerator, now)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	var got *token.Claims
	router := gin.New()
	router.GET("/protected", Authenticate(tokens), func(c *gin.Context) {
		got, _ = ClaimsFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got == nil {
		t.Fatal("claims not attached to context")
	}
	if got.UserID() != "user-42" {
		t.Errorf("expected user ID %q, got %q", "user-42", got.UserID())
	}
	if got.Email != "bob@example.com" {
		t.Errorf("expected email %q, got %q", "bob@example.com", got.Email)
	}
	if got.Role != domain.RoleModerator {
		t.Errorf("expected role %q, got %q", domain.RoleModerator, got.Role)
	}
}

func TestClaimsFromContext_WithoutGate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := ClaimsFromContext(c); ok {
		t.Error("expected no claims before the gate runs")
	}
}
