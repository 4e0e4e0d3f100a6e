package vfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReadFS struct{}

func (stubReadFS) RootDir() uint64 { return 1 }
func (stubReadFS) Lookup(context.Context, uint64, string) (uint64, error) { return 0, ErrNotExist }
func (stubReadFS) Getattr(context.Context, uint64) (Attr, error)          { return Attr{}, nil }
func (stubReadFS) Read(context.Context, uint64, uint64, uint32) ([]byte, bool, error) {
	return nil, true, nil
}
func (stubReadFS) Readlink(context.Context, uint64) (string, error) { return "", ErrBadType }
func (stubReadFS) Readdir(context.Context, uint64, uint64) (DirIterator[uint64], error) {
	return nil, nil
}
func (stubReadFS) Readdirplus(context.Context, uint64, uint64) (DirPlusIterator[uint64], error) {
	return nil, nil
}
func (stubReadFS) DirGeneration(context.Context, uint64) (uint64, error) { return 0, nil }

func TestReadOnlyRejectsEveryMutation(t *testing.T) {
	ro := NewReadOnly[uint64](stubReadFS{})
	ctx := context.Background()

	_, err := ro.Write(ctx, 1, 0, nil)
	require.ErrorIs(t, err, ErrReadOnly)

	_, _, err = ro.Create(ctx, 1, "f", AttrMutation{}, false)
	require.ErrorIs(t, err, ErrReadOnly)

	_, err = ro.Mkdir(ctx, 1, "d", AttrMutation{})
	require.ErrorIs(t, err, ErrReadOnly)

	require.ErrorIs(t, ro.Remove(ctx, 1, "f"), ErrReadOnly)
	require.ErrorIs(t, ro.Rmdir(ctx, 1, "d"), ErrReadOnly)
	require.ErrorIs(t, ro.Rename(ctx, 1, "a", 1, "b"), ErrReadOnly)
	require.ErrorIs(t, ro.Link(ctx, 1, 1, "l"), ErrReadOnly)
	require.ErrorIs(t, ro.Setattr(ctx, 1, AttrMutation{}, 0, 0, false), ErrReadOnly)
}

func TestReadOnlyDelegatesReads(t *testing.T) {
	ro := NewReadOnly[uint64](stubReadFS{})
	assert.Equal(t, uint64(1), ro.RootDir())
}
