package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_RoundTrip(t *testing.T) {
	h := New(MinCost)

	hashed, err := h.Hash("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hashed)

	assert.True(t, h.Check(hashed, "Secret123"))
	assert.False(t, h.Check(hashed, "secret123"))
	assert.False(t, h.Check("not-a-hash", "Secret123"))
}

func TestNew_ClampsCost(t *testing.T) {
	assert.Equal(t, DefaultCost, New(0).Cost())
	assert.Equal(t, MinCost, New(1).Cost())
	assert.Equal(t, MaxCost, New(99).Cost())
	assert.Equal(t, 6, New(6).Cost())
}

func TestHasher_NeedsRehash(t *testing.T) {
	low := New(MinCost)
	hashed, err := low.Hash("Secret123")
	require.NoError(t, err)

	assert.False(t, low.NeedsRehash(hashed))
	assert.True(t, New(MinCost+1).NeedsRehash(hashed))
	assert.True(t, low.NeedsRehash("plain"))
}

func TestHasher_RejectsLongPassword(t *testing.T) {
	_, err := New(MinCost).Hash(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = New(MinCost).Hash(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}
