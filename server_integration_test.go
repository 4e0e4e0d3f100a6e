// Package nfs3sub000_test drives a real server instance over a loopback
// TCP connection, exercising the client package's wire encoding against
// the dispatch/transport/nfs3/mount/portmap stack through an in-process
// listener rather than a mocked transport.
package nfs3sub000_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaiz/nfs3-sub000/client"
	"github.com/Vaiz/nfs3-sub000/dispatch"
	"github.com/Vaiz/nfs3-sub000/fh"
	"github.com/Vaiz/nfs3-sub000/memfs"
	"github.com/Vaiz/nfs3-sub000/mount"
	"github.com/Vaiz/nfs3-sub000/nfs3"
	"github.com/Vaiz/nfs3-sub000/portmap"
	"github.com/Vaiz/nfs3-sub000/transport"
)

// testServer starts a loopback listener answering Portmap, Mount, and
// NFS v3 over one in-memory filesystem, returning its address.
func testServer(t *testing.T) string {
	t.Helper()

	fs := memfs.New()
	handles := fh.NewConverter(1)
	engine := nfs3.NewEngine[uint64](fs, handles, false)

	resolve := func(_ context.Context, path string) (uint64, error) {
		if path == "" {
			path = "/"
		}
		return fs.LookupByPath(path)
	}
	encode := func(id uint64) mount.FileHandle {
		b := handles.ToHandle(id)
		return mount.FileHandle{Data: append([]byte(nil), b[:]...)}
	}
	mountHandler := mount.NewHandler[uint64]("/", resolve, encode)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	pm := portmap.NewHandler(uint32(ln.Addr().(*net.TCPAddr).Port))
	tracker := transport.NewTracker(transport.DefaultRetention, transport.DefaultMaxActive, transport.DefaultTrimThreshold)
	srv := dispatch.New[uint64](pm, mountHandler, engine, tracker)

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go transport.NewConn(nc, srv).Serve(context.Background())
		}
	}()

	t.Cleanup(func() { _ = ln.Close() })
	return ln.Addr().String()
}

func dialAndMount(t *testing.T, addr string) (*client.Client, nfs3.FileHandle) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := client.Dial(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	mnt, err := c.Mnt(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, mount.StatusOK, mnt.Status)

	return c, nfs3.FileHandle{Data: mnt.OK.Handle.Data}
}

func TestClientMountAndGetattrRoot(t *testing.T) {
	addr := testServer(t)
	c, root := dialAndMount(t, addr)
	ctx := context.Background()

	res, err := c.Getattr(ctx, root)
	require.NoError(t, err)
	require.Equal(t, nfs3.StatusOK, res.Status)
	assert.Equal(t, nfs3.FileTypeDir, res.OK.Attributes.Type)
}

func TestClientCreateWriteReadRoundTrip(t *testing.T) {
	addr := testServer(t)
	c, root := dialAndMount(t, addr)
	ctx := context.Background()

	createRes, err := c.Create(ctx, root, "hello.txt", nfs3.CreateHow{Mode: nfs3.CreateUnchecked})
	require.NoError(t, err)
	require.Equal(t, nfs3.StatusOK, createRes.Status)
	require.NotNil(t, createRes.OK.Handle.Handle)
	file := *createRes.OK.Handle.Handle

	data := []byte("hello from the client package")
	writeRes, err := c.Write(ctx, file, 0, nfs3.FileSync, data)
	require.NoError(t, err)
	require.Equal(t, nfs3.StatusOK, writeRes.Status)
	assert.Equal(t, uint32(len(data)), writeRes.OK.Count)

	readRes, err := c.Read(ctx, file, 0, 4096)
	require.NoError(t, err)
	require.Equal(t, nfs3.StatusOK, readRes.Status)
	assert.Equal(t, data, readRes.OK.Data)
	assert.True(t, readRes.OK.EOF)
}

func TestClientLookupMissingIsNoent(t *testing.T) {
	addr := testServer(t)
	c, root := dialAndMount(t, addr)
	ctx := context.Background()

	res, err := c.Lookup(ctx, root, "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, nfs3.StatusErrNoEnt, res.Status)
}

func TestClientDuplicateCreateIsExist(t *testing.T) {
	addr := testServer(t)
	c, root := dialAndMount(t, addr)
	ctx := context.Background()

	first, err := c.Create(ctx, root, "dup.txt", nfs3.CreateHow{Mode: nfs3.CreateUnchecked})
	require.NoError(t, err)
	require.Equal(t, nfs3.StatusOK, first.Status)

	second, err := c.Create(ctx, root, "dup.txt", nfs3.CreateHow{Mode: nfs3.CreateGuarded})
	require.NoError(t, err)
	assert.Equal(t, nfs3.StatusErrExist, second.Status)
}

func TestClientMkdirAndReaddir(t *testing.T) {
	addr := testServer(t)
	c, root := dialAndMount(t, addr)
	ctx := context.Background()

	mkdirRes, err := c.Mkdir(ctx, root, "subdir", nfs3.SAttr{})
	require.NoError(t, err)
	require.Equal(t, nfs3.StatusOK, mkdirRes.Status)

	readdirRes, err := c.Readdir(ctx, root, 0, [8]byte{}, 4096)
	require.NoError(t, err)
	require.Equal(t, nfs3.StatusOK, readdirRes.Status)

	var names []string
	for _, e := range readdirRes.OK.Entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "subdir")
	assert.True(t, readdirRes.OK.EOF)
}

func TestClientRenameIntoOwnDescendantIsInval(t *testing.T) {
	addr := testServer(t)
	c, root := dialAndMount(t, addr)
	ctx := context.Background()

	mkdirRes, err := c.Mkdir(ctx, root, "parent", nfs3.SAttr{})
	require.NoError(t, err)
	require.Equal(t, nfs3.StatusOK, mkdirRes.Status)
	parent := *mkdirRes.OK.Handle.Handle

	renameRes, err := c.Rename(ctx, root, "parent", parent, "into-self")
	require.NoError(t, err)
	assert.Equal(t, nfs3.StatusErrInval, renameRes.Status)
}
