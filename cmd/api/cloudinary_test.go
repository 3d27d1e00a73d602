package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/banners/sale.jpg", "banners/sale"},
		{"https://res.cloudinary.com/demo/image/upload/stores/acme-logo.png", "stores/acme-logo"},
		{"https://res.cloudinary.com/demo/image/upload/v2/logo", "logo"},
		{"https://res.cloudinary.com/demo/image/upload/v3", "v3"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := extractPublicIDFromURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPublicIDFromURLErrors(t *testing.T) {
	for _, raw := range []string{
		"https://cdn.example.com/images/logo.png",
		"https://res.cloudinary.com/demo/image/upload/",
		"://bad",
	} {
		_, err := extractPublicIDFromURL(raw)
		assert.Error(t, err, raw)
	}
}

func TestIsCloudinaryURL(t *testing.T) {
	assert.True(t, isCloudinaryURL("https://res.cloudinary.com/demo/image/upload/x.png"))
	assert.False(t, isCloudinaryURL("https://cdn.example.com/x.png"))
	assert.False(t, isCloudinaryURL("https://cloudinary.com.evil.example/x.png"))
}
