package nfs3

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaiz/nfs3-sub000/fh"
	"github.com/Vaiz/nfs3-sub000/memfs"
	"github.com/Vaiz/nfs3-sub000/vfs"
)

// newReaddirEngine backs the engine with the real reference filesystem,
// populated with n files named file_0..file_{n-1}, since the readdir
// paths need a working iterator rather than the stub fakeFS provides.
func newReaddirEngine(t *testing.T, n int) (*Engine[uint64], FileHandle) {
	t.Helper()
	fs := memfs.New()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, _, err := fs.Create(ctx, memfs.RootID, fmt.Sprintf("file_%d", i), vfs.AttrMutation{}, true)
		require.NoError(t, err)
	}
	e := NewEngine[uint64](fs, fh.NewConverter(9), false)
	return e, e.RootHandle()
}

func TestReaddirTinyCountIsTooSmall(t *testing.T) {
	e, root := newReaddirEngine(t, 10)
	res := e.Readdir(context.Background(), ReaddirArgs{Dir: root, Count: 64})
	assert.Equal(t, StatusErrTooSmall, res.Status)
}

func TestReaddirLargeCountReturnsAllEntries(t *testing.T) {
	e, root := newReaddirEngine(t, 10)
	res := e.Readdir(context.Background(), ReaddirArgs{Dir: root, Count: 4096})
	require.Equal(t, StatusOK, res.Status)
	assert.True(t, res.OK.EOF)
	require.Len(t, res.OK.Entries, 10)

	seen := map[string]bool{}
	for _, entry := range res.OK.Entries {
		seen[entry.Name] = true
	}
	for i := 0; i < 10; i++ {
		assert.True(t, seen[fmt.Sprintf("file_%d", i)])
	}
}

func TestReaddirZeroCookieNonzeroVerfIsBadCookie(t *testing.T) {
	e, root := newReaddirEngine(t, 3)
	res := e.Readdir(context.Background(), ReaddirArgs{Dir: root, Cookie: 0, CookieVerf: [8]byte{0xff}, Count: 4096})
	assert.Equal(t, StatusErrBadCookie, res.Status)
}

func TestReaddirStaleVerfIsBadCookie(t *testing.T) {
	fs := memfs.New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _, err := fs.Create(ctx, memfs.RootID, fmt.Sprintf("file_%d", i), vfs.AttrMutation{}, true)
		require.NoError(t, err)
	}
	e := NewEngine[uint64](fs, fh.NewConverter(9), false)
	root := e.RootHandle()

	first := e.Readdir(ctx, ReaddirArgs{Dir: root, Count: 200})
	require.Equal(t, StatusOK, first.Status)
	require.False(t, first.OK.EOF)
	require.NotEmpty(t, first.OK.Entries)
	last := first.OK.Entries[len(first.OK.Entries)-1]

	// Mutating the directory bumps its generation; the old verifier no
	// longer matches.
	_, _, err := fs.Create(ctx, memfs.RootID, "newcomer", vfs.AttrMutation{}, true)
	require.NoError(t, err)

	res := e.Readdir(ctx, ReaddirArgs{Dir: root, Cookie: last.Cookie, CookieVerf: first.OK.CookieVerf, Count: 200})
	assert.Equal(t, StatusErrBadCookie, res.Status)
}

func TestReaddirPaginationAdvancesWithoutDuplicates(t *testing.T) {
	e, root := newReaddirEngine(t, 10)
	ctx := context.Background()

	var names []string
	var cookie uint64
	var verf [8]byte
	for {
		res := e.Readdir(ctx, ReaddirArgs{Dir: root, Cookie: cookie, CookieVerf: verf, Count: 200})
		require.Equal(t, StatusOK, res.Status)
		if !res.OK.EOF {
			require.NotEmpty(t, res.OK.Entries, "eof=false with no entries would be TOOSMALL")
		}
		for _, entry := range res.OK.Entries {
			names = append(names, entry.Name)
		}
		if res.OK.EOF {
			break
		}
		cookie = res.OK.Entries[len(res.OK.Entries)-1].Cookie
		verf = res.OK.CookieVerf
	}

	require.Len(t, names, 10)
	seen := map[string]bool{}
	for _, name := range names {
		assert.False(t, seen[name], "duplicate entry %q", name)
		seen[name] = true
	}
}

func TestReaddirplusTinyMaxCountIsTooSmall(t *testing.T) {
	e, root := newReaddirEngine(t, 10)
	res := e.Readdirplus(context.Background(), ReaddirplusArgs{Dir: root, DirCount: 1024, MaxCount: 100})
	assert.Equal(t, StatusErrTooSmall, res.Status)
}

func TestReaddirplusReturnsHandlesAndAttrs(t *testing.T) {
	e, root := newReaddirEngine(t, 4)
	res := e.Readdirplus(context.Background(), ReaddirplusArgs{Dir: root, DirCount: 2048, MaxCount: 8192})
	require.Equal(t, StatusOK, res.Status)
	assert.True(t, res.OK.EOF)
	require.Len(t, res.OK.Entries, 4)

	for _, entry := range res.OK.Entries {
		require.NotNil(t, entry.NameAttr.Attr)
		require.NotNil(t, entry.NameHandle.Handle)
		// fileid in the attributes must agree with the entry's own.
		assert.Equal(t, entry.FileID, entry.NameAttr.Attr.FileID)
	}
}
