package shm

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegion_ReadWriteSeek(t *testing.T) {
	r := newRegion("r", make([]byte, 8), false, nil)

	n, err := r.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(3), r.Tell())

	pos, err := r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	buf := make([]byte, 3)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))

	pos, err = r.Seek(-1, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)

	_, err = r.Seek(-10, io.SeekCurrent)
	assert.Error(t, err)
}

func TestRegion_WriteDoesNotGrow(t *testing.T) {
	r := newRegion("r", make([]byte, 4), false, nil)
	_, err := r.WriteAt([]byte("hello"), 0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = r.Seek(2, io.SeekStart)
	require.NoError(t, err)
	n, err := r.Write([]byte("xyz"))
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 0, n)
	assert.Equal(t, int64(2), r.Tell())
}

func TestRegion_ReadAtEnd(t *testing.T) {
	r := newRegion("r", []byte("ab"), true, nil)
	buf := make([]byte, 4)
	n, err := r.ReadAt(buf, 0)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = r.Seek(2, io.SeekStart)
	require.NoError(t, err)
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRegion_ReadOnly(t *testing.T) {
	r := newRegion("r", make([]byte, 4), true, nil)
	_, err := r.Write([]byte("a"))
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.True(t, r.ReadOnly())
}

func TestRegion_CloseTwice(t *testing.T) {
	calls := 0
	r := newRegion("r", make([]byte, 4), false, func() error {
		calls++
		return nil
	})
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
	assert.Equal(t, 1, calls)
	assert.True(t, r.Closed())

	_, err := r.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = r.WriteAt([]byte("a"), 0)
	assert.ErrorIs(t, err, ErrClosed)
}
