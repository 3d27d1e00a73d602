package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetString(t *testing.T) {
	t.Setenv("COUPONLY_TEST_STR", "  value ")
	assert.Equal(t, "value", GetString("COUPONLY_TEST_STR", "x"))
	assert.Equal(t, "x", GetString("COUPONLY_TEST_MISSING", "x"))

	t.Setenv("COUPONLY_TEST_BLANK", "   ")
	assert.Equal(t, "x", GetString("COUPONLY_TEST_BLANK", "x"))
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want int
	}{
		{"valid", "42", 42},
		{"negative", "-3", -3},
		{"invalid", "abc", 7},
		{"empty", "", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("COUPONLY_TEST_INT", tt.val)
			assert.Equal(t, tt.want, GetInt("COUPONLY_TEST_INT", 7))
		})
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("COUPONLY_TEST_BOOL", "true")
	assert.True(t, GetBool("COUPONLY_TEST_BOOL", false))

	t.Setenv("COUPONLY_TEST_BOOL", "nope")
	assert.False(t, GetBool("COUPONLY_TEST_BOOL", false))
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want time.Duration
	}{
		{"go duration", "15m", 15 * time.Minute},
		{"bare seconds", "90", 90 * time.Second},
		{"invalid", "soon", time.Hour},
		{"missing", "", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("COUPONLY_TEST_DUR", tt.val)
			assert.Equal(t, tt.want, GetDuration("COUPONLY_TEST_DUR", time.Hour))
		})
	}
}
