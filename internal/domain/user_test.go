package domain

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{name: "user", input: "user", want: RoleUser},
		{name: "admin", input: "admin", want: RoleAdmin},
		{name: "moderator", input: "moderator", want: RoleModerator},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "superuser", wantErr: true},
		{name: "wrong case", input: "Admin", wantErr: true},
		{name: "whitespace", input: " admin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
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
				t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAdmin, RoleModerator} {
		if !r.Valid() {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if Role("superuser").Valid() {
		t.Error("expected unknown role to be invalid")
	}
	if Role("").Valid() {
		t.Error("expected empty role to be invalid")
	}
}
