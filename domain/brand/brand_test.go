package brand

import (
	"errors"
	"testing"
)

func TestNormalizeDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"github.com", "github.com"},
		{"GitHub.com", "github.com"},
		{"https://github.com", "github.com"},
		{"http://www.github.com", "github.com"},
		{"https://www.github.com/", "github.com"},
		{"github.com/pricing", "github.com"},
		{"  stripe.com  ", "stripe.com"},
		{"shop.example.co:8443", "shop.example.co"},
		{"WWW.NETFLIX.COM", "netflix.com"},
	}

	for _, tc := range cases {
		got, err := NormalizeDomain(tc.in)
		if err != nil {
			t.Errorf("NormalizeDomain(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeDomain_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "github", "a.b", "https://", "localhost:3000"} {
		if _, err := NormalizeDomain(in); !errors.Is(err, ErrInvalidDomain) {
			t.Errorf("NormalizeDomain(%q): expected ErrInvalidDomain, got %v", in, err)
		}
	}
}
