package dto

import (
	"strings"
	"testing"

	"github.com/vibelab/vibe-api/internal/domain"
)

func TestRegisterRequest_ValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
		wantMsg  string
	}{
		{
			name:     "valid password",
			password: "Password1",
			want:     true,
			wantMsg:  "",
		},
		{
			name:     "valid complex password",
			password: "MyP@ssw0rd123!",
			want:     true,
			wantMsg:  "",
		},
		{
			name:     "too short",
			password: "Pass1",
			want:     false,
			wantMsg:  "Password must be at least 8 characters",
		},
		{
			name:     "too long",
			password: strings.Repeat("Aa1", 43),
			want:     false,
			wantMsg:  "Password must not exceed 128 characters",
		},
		{
			name:     "no uppercase",
			password: "password1",
			want:     false,
			wantMsg:  "Password must contain at least one uppercase letter",
		},
		{
			name:     "no lowercase",
			password: "PASSWORD1",
			want:     false,
			wantMsg:  "Password must contain at least one lowercase letter",
		},
		{
			name:     "no digit",
			password: "Password!",
			want:     false,
			wantMsg:  "Password must contain at least one digit",
		},
		{
			name:     "only lowercase",
			password: "password",
			want:     false,
			wantMsg:  "Password must contain at least one uppercase letter",
		},
		{
			name:     "only numbers",
			password: "12345678",
			want:     false,
			wantMsg:  "Password must contain at least one uppercase letter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &RegisterRequest{Password: tt.password}
			got, msg := req.ValidatePassword()
			if got != tt.want {
				t.Errorf("ValidatePassword() got = %v, want %v", got, tt.want)
			}
			if msg != tt.wantMsg {
				t.Errorf("ValidatePassword() msg = %v, want %v", msg, tt.wantMsg)
			}
		})
	}
}

func TestRegisterRequest_ValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{name: "valid email", email: "test@example.com", want: true},
		{name: "valid email with subdomain", email: "test@mail.example.com", want: true},
		{name: "valid email with plus", email: "test+tag@example.com", want: true},
		{name: "missing at sign", email: "testexample.com", want: false},
		{name: "missing domain", email: "test@", want: false},
		{name: "missing tld", email: "test@example", want: false},
		{name: "empty", email: "", want: false},
		{name: "spaces", email: "test @example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &RegisterRequest{Email: tt.email}
			got, _ := req.ValidateEmail()
			if got != tt.want {
				t.Errorf("ValidateEmail() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegisterRequest_ResolveRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		want    domain.Role
		wantErr bool
	}{
		{name: "empty defaults to user", role: "", want: domain.RoleUser},
		{name: "explicit user", role: "user", want: domain.RoleUser},
		{name: "admin", role: "admin", want: domain.RoleAdmin},
		{name: "moderator", role: "moderator", want: domain.RoleModerator},
		{name: "unknown role", role: "superuser", wantErr: true},
		{name: "case sensitive", role: "Admin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &RegisterRequest{Role: tt.role}
			got, err := req.ResolveRole()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveRole() got = %v, want %v", got, tt.want)
			}
		})
	}
}
