package httpmetrics

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/health", "/health"},
		{"/api/users/login", "/users/login"},
		{"/users/current/", "/users/current"},
		{"/recipes/random", "/recipes/random"},
		{"/recipes/Pancakes", "/recipes/{name}"},
		{"/api/recipes/hall/Clark", "/recipes/hall/{hall}"},
		{"/ingredients/random", "/ingredients/random"},
		{"/wp-admin", "other"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
