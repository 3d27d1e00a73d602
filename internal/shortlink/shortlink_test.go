package shortlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c, err := New("test-salt", 0)
	require.NoError(t, err)

	for _, id := range []int64{0, 1, 42, 987654321} {
		code, err := c.Encode(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(code), DefaultMinLength)

		got, err := c.Decode(code)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestDecodeRejectsForeignCodes(t *testing.T) {
	a, err := New("salt-a", 8)
	require.NoError(t, err)
	b, err := New("salt-b", 8)
	require.NoError(t, err)

	code, err := a.Encode(1234)
	require.NoError(t, err)

	_, err = b.Decode(code)
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = a.Decode("!!not-a-code!!")
	assert.ErrorIs(t, err, ErrInvalidCode)
}
