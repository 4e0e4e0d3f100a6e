package fh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHandleFromHandleRoundTrip(t *testing.T) {
	c := NewConverter(42)
	handle := c.ToHandle(7)

	id, err := c.FromHandle(handle[:])
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
}

func TestFromHandleRejectsWrongLength(t *testing.T) {
	c := NewConverter(1)
	_, err := c.FromHandle([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrBadHandle)
}

func TestFromHandleOlderGenerationIsStale(t *testing.T) {
	old := NewConverter(1)
	current := NewConverter(2)

	handle := old.ToHandle(99)
	_, err := current.FromHandle(handle[:])
	require.ErrorIs(t, err, ErrStale)
}

func TestFromHandleNewerGenerationIsBadHandle(t *testing.T) {
	future := NewConverter(100)
	current := NewConverter(2)

	handle := future.ToHandle(5)
	_, err := current.FromHandle(handle[:])
	require.ErrorIs(t, err, ErrBadHandle)
}
