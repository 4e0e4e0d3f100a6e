package memfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaiz/nfs3-sub000/vfs"
)

func TestWriteThenReadReturnsExactBytes(t *testing.T) {
	fs := New()
	ctx := context.Background()
	id, _, err := fs.Create(ctx, RootID, "f", vfs.AttrMutation{}, true)
	require.NoError(t, err)

	// Fill the first ten bytes so offset 10 is the end of the file, not past it.
	_, err = fs.Write(ctx, id, 0, make([]byte, 10))
	require.NoError(t, err)

	n, err := fs.Write(ctx, id, 10, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, uint32(5), n)

	data, eof, err := fs.Read(ctx, id, 10, 5)
	require.NoError(t, err)
	assert.True(t, eof)
	assert.Equal(t, []byte("hello"), data)
}

func TestWriteOffsetBeyondSizeIsInvalid(t *testing.T) {
	fs := New()
	ctx := context.Background()
	id, _, err := fs.Create(ctx, RootID, "f", vfs.AttrMutation{}, true)
	require.NoError(t, err)

	_, err = fs.Write(ctx, id, 100, []byte("x"))
	assert.ErrorIs(t, err, vfs.ErrInvalid)
}

func TestCreateExclusiveReplay(t *testing.T) {
	fs := New()
	ctx := context.Background()
	verf1 := [8]byte{1}
	verf2 := [8]byte{2}

	id1, replayed, err := fs.CreateExclusive(ctx, RootID, "x", verf1)
	require.NoError(t, err)
	assert.False(t, replayed)

	id2, replayed, err := fs.CreateExclusive(ctx, RootID, "x", verf1)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, id1, id2)

	_, _, err = fs.CreateExclusive(ctx, RootID, "x", verf2)
	assert.ErrorIs(t, err, vfs.ErrExist)
}

func TestRenameIntoDescendantIsInvalid(t *testing.T) {
	fs := New()
	ctx := context.Background()
	a, err := fs.Mkdir(ctx, RootID, "a", vfs.AttrMutation{})
	require.NoError(t, err)
	b, err := fs.Mkdir(ctx, a, "b", vfs.AttrMutation{})
	require.NoError(t, err)

	err = fs.Rename(ctx, RootID, "a", b, "a")
	assert.ErrorIs(t, err, vfs.ErrInvalid)

	// layout must be unchanged: "a" still resolves from the root.
	got, err := fs.Lookup(ctx, RootID, "a")
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestRenameIntoDescendantKeepsExistingTarget(t *testing.T) {
	fs := New()
	ctx := context.Background()
	a, err := fs.Mkdir(ctx, RootID, "a", vfs.AttrMutation{})
	require.NoError(t, err)
	b, err := fs.Mkdir(ctx, a, "b", vfs.AttrMutation{})
	require.NoError(t, err)
	target, err := fs.Mkdir(ctx, b, "a", vfs.AttrMutation{})
	require.NoError(t, err)

	// The target is an empty dir, so the collision itself is
	// resolvable; the move must still fail before the target is
	// touched, since "a" is an ancestor of "b".
	err = fs.Rename(ctx, RootID, "a", b, "a")
	assert.ErrorIs(t, err, vfs.ErrInvalid)

	got, err := fs.Lookup(ctx, b, "a")
	require.NoError(t, err)
	assert.Equal(t, target, got)
	_, err = fs.Getattr(ctx, got)
	assert.NoError(t, err)
}

func TestRenameOverNonEmptyDirFails(t *testing.T) {
	fs := New()
	ctx := context.Background()
	_, err := fs.Mkdir(ctx, RootID, "src", vfs.AttrMutation{})
	require.NoError(t, err)
	dst, err := fs.Mkdir(ctx, RootID, "dst", vfs.AttrMutation{})
	require.NoError(t, err)
	_, _, err = fs.Create(ctx, dst, "inner", vfs.AttrMutation{}, true)
	require.NoError(t, err)

	err = fs.Rename(ctx, RootID, "src", RootID, "dst")
	assert.ErrorIs(t, err, vfs.ErrNotEmpty)
}

func TestRenameSameNameIsNoop(t *testing.T) {
	fs := New()
	ctx := context.Background()
	_, _, err := fs.Create(ctx, RootID, "f", vfs.AttrMutation{}, true)
	require.NoError(t, err)

	err = fs.Rename(ctx, RootID, "f", RootID, "f")
	assert.NoError(t, err)
}

func TestReaddirCursorDoesNotDuplicateOrSkip(t *testing.T) {
	fs := New()
	ctx := context.Background()
	want := map[string]bool{}
	for i := 0; i < 10; i++ {
		name := "file_" + string(rune('0'+i))
		_, _, err := fs.Create(ctx, RootID, name, vfs.AttrMutation{}, true)
		require.NoError(t, err)
		want[name] = true
	}

	got := map[string]bool{}
	cookie := uint64(0)
	for {
		it, err := fs.Readdir(ctx, RootID, cookie)
		require.NoError(t, err)
		entry, next, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		require.False(t, got[entry.Name], "duplicate entry %s", entry.Name)
		got[entry.Name] = true
		cookie = next
	}
	assert.Equal(t, want, got)
}

func TestRemoveRejectsDirectory(t *testing.T) {
	fs := New()
	ctx := context.Background()
	_, err := fs.Mkdir(ctx, RootID, "d", vfs.AttrMutation{})
	require.NoError(t, err)

	err = fs.Remove(ctx, RootID, "d")
	assert.ErrorIs(t, err, vfs.ErrIsDir)
}

func TestLookupByPath(t *testing.T) {
	fs := New()
	ctx := context.Background()
	a, err := fs.Mkdir(ctx, RootID, "a", vfs.AttrMutation{})
	require.NoError(t, err)
	b, err := fs.Mkdir(ctx, a, "b", vfs.AttrMutation{})
	require.NoError(t, err)

	got, err := fs.LookupByPath("/a/b")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	got, err = fs.LookupByPath("/")
	require.NoError(t, err)
	assert.Equal(t, uint64(RootID), got)
}
