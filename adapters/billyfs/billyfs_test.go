package billyfs

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaiz/nfs3-sub000/vfs"
)

func newTestFS() *FS {
	return New(memfs.New())
}

func TestRootDirIsDirectory(t *testing.T) {
	fs := newTestFS()
	attr, err := fs.Getattr(context.Background(), fs.RootDir())
	require.NoError(t, err)
	assert.Equal(t, vfs.TypeDirectory, attr.Type)
}

func TestCreateWriteReadRoundTrip(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	id, existed, err := fs.Create(ctx, RootID, "hello.txt", vfs.AttrMutation{}, false)
	require.NoError(t, err)
	assert.False(t, existed)

	n, err := fs.Write(ctx, id, 0, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, uint32(5), n)

	data, eof, err := fs.Read(ctx, id, 0, 64)
	require.NoError(t, err)
	assert.True(t, eof)
	assert.Equal(t, "hello", string(data))
}

func TestGuardedCreateExisting(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	_, _, err := fs.Create(ctx, RootID, "dup.txt", vfs.AttrMutation{}, false)
	require.NoError(t, err)

	_, _, err = fs.Create(ctx, RootID, "dup.txt", vfs.AttrMutation{}, true)
	assert.ErrorIs(t, err, vfs.ErrExist)
}

func TestCreateExclusiveReplaysVerifier(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()
	verf := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}

	id1, existed1, err := fs.CreateExclusive(ctx, RootID, "excl.txt", verf)
	require.NoError(t, err)
	assert.False(t, existed1)

	id2, existed2, err := fs.CreateExclusive(ctx, RootID, "excl.txt", verf)
	require.NoError(t, err)
	assert.True(t, existed2)
	assert.Equal(t, id1, id2)

	_, _, err = fs.CreateExclusive(ctx, RootID, "excl.txt", [8]byte{9})
	assert.ErrorIs(t, err, vfs.ErrExist)
}

func TestMkdirAndReaddir(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	_, err := fs.Mkdir(ctx, RootID, "sub", vfs.AttrMutation{})
	require.NoError(t, err)

	it, err := fs.Readdir(ctx, RootID, 0)
	require.NoError(t, err)

	var names []string
	for {
		entry, _, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, entry.Name)
	}
	assert.Contains(t, names, "sub")
}

func TestReaddirBadCookie(t *testing.T) {
	fs := newTestFS()
	_, err := fs.Readdir(context.Background(), RootID, 999)
	assert.ErrorIs(t, err, vfs.ErrBadCookie)
}

func TestRenameIntoOwnDescendantIsInvalid(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	parent, err := fs.Mkdir(ctx, RootID, "parent", vfs.AttrMutation{})
	require.NoError(t, err)

	err = fs.Rename(ctx, RootID, "parent", parent, "into-self")
	assert.ErrorIs(t, err, vfs.ErrInvalid)
}

func TestRemoveRejectsDirectory(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	_, err := fs.Mkdir(ctx, RootID, "adir", vfs.AttrMutation{})
	require.NoError(t, err)

	err = fs.Remove(ctx, RootID, "adir")
	assert.ErrorIs(t, err, vfs.ErrIsDir)
}

func TestMknodIsNotSupported(t *testing.T) {
	fs := newTestFS()
	_, err := fs.Mknod(context.Background(), RootID, "dev", vfs.TypeRegular, 0, 0, vfs.AttrMutation{})
	assert.ErrorIs(t, err, vfs.ErrNotSupported)
}

func TestLinkIsNotSupported(t *testing.T) {
	fs := newTestFS()
	err := fs.Link(context.Background(), RootID, RootID, "link")
	assert.ErrorIs(t, err, vfs.ErrNotSupported)
}
