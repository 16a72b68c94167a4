package httpserver

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

func TestNormalizeStringPtr(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{"nil", nil, nil},
		{"empty", str(""), nil},
		{"blank", str("   "), nil},
		{"trimmed", str("  tasty \t"), str("tasty")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeStringPtr(tt.in)
			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("normalizeStringPtr() = %q, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Fatalf("normalizeStringPtr() = %v, want %q", got, *tt.want)
			}
		})
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{" 7 ", 7, false},
		{"", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			req := httptest.NewRequest("GET", "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, err := parseIDParam(req, "id")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("parseIDParam(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidRatingValue(t *testing.T) {
	for v := domain.MinRatingValue; v <= domain.MaxRatingValue; v++ {
		if !domain.ValidRatingValue(v) {
			t.Fatalf("rating %d should be allowed", v)
		}
	}
	for _, v := range []int{-1, 0, 6, 10} {
		if domain.ValidRatingValue(v) {
			t.Fatalf("rating %d should not be allowed", v)
		}
	}
}
