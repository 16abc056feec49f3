package shm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessor_Memory(t *testing.T) {
	acc, err := NewAccessor(Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryAccessor{}, acc)
}

func TestNewAccessor_Unknown(t *testing.T) {
	_, err := NewAccessor(Options{Backend: "tape"})
	assert.Error(t, err)
}

func TestMemoryAccessor_SharedBacking(t *testing.T) {
	acc := NewMemoryAccessor()
	w, err := acc.Create("shared", HeaderSize+5)
	require.NoError(t, err)

	r, err := acc.Open("shared", HeaderSize+5, AccessRead)
	require.NoError(t, err)

	fresh, err := IsFresh(r)
	require.NoError(t, err)
	assert.True(t, fresh)

	require.NoError(t, SetDirtyBit(w))
	fresh, err = IsFresh(r)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestMemoryAccessor_CreateCollision(t *testing.T) {
	acc := NewMemoryAccessor()
	_, err := acc.Create("dup", 16)
	require.NoError(t, err)
	_, err = acc.Create("dup", 16)
	assert.ErrorIs(t, err, ErrRegionExists)
}

func TestMemoryAccessor_OpenErrors(t *testing.T) {
	acc := NewMemoryAccessor()
	_, err := acc.Open("missing", 16, AccessRead)
	assert.ErrorIs(t, err, ErrRegionNotFound)

	_, err = acc.Create("small", 16)
	require.NoError(t, err)
	_, err = acc.Open("small", 32, AccessRead)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMemoryAccessor_DeleteIdempotent(t *testing.T) {
	acc := NewMemoryAccessor()
	r, err := acc.Create("gone", 16)
	require.NoError(t, err)

	assert.True(t, acc.Delete("gone", r))
	assert.False(t, acc.Delete("gone", r))
	assert.False(t, acc.Delete("gone", nil))
	assert.True(t, r.Closed())
	assert.Empty(t, acc.Names())
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, validateName(name), ErrInvalidName, name)
	}
	assert.NoError(t, validateName("9b2c1e4e-region"))
}
