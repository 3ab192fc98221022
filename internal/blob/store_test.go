package blob

import "testing"

func TestUserKey(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		email string
		want  string
	}{
		{name: "no user", base: "hoursDeclarationData", email: "", want: "hoursDeclarationData"},
		{name: "with user", base: "hoursDeclarationData", email: "a@b.com", want: "hoursDeclarationData_a@b.com"},
		{name: "registry key is never namespaced", base: "users", email: "", want: "users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserKey(tt.base, tt.email); got != tt.want {
				t.Errorf("UserKey(%q, %q) = %q, want %q", tt.base, tt.email, got, tt.want)
			}
		})
	}
}
