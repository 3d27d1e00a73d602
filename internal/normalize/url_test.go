package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com/x", "https://example.com/x"},
		{"https://example.com/x", "https://example.com/x"},
		{"http://example.com", "http://example.com"},
		{"  shop.example.co.uk  ", "https://shop.example.co.uk"},
		{"example.com:8080/path?q=1", "https://example.com:8080/path?q=1"},
		{"//cdn.example.com/a.png", "//cdn.example.com/a.png"},
		{"/relative/path", "/relative/path"},
		{"mailto:hi@example.com", "mailto:hi@example.com"},
		{"localhost:3000", "https://localhost:3000"},
		{"10.0.0.1/x", "https://10.0.0.1/x"},
		{"example .com", "example .com"},
		{" not a domain ", " not a domain "},
		{"justtext", "justtext"},
		{"version1.2", "version1.2"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeURL(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeURL(got), "never double-prefixes")
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Outlet", "acme-outlet"},
		{"  H&M -- Sale!  ", "h-m-sale"},
		{"already-a-slug", "already-a-slug"},
		{"Café 24/7", "caf-24-7"},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
			assert.Equal(t, tt.want, Slugify(Slugify(tt.in)))
		})
	}
}
