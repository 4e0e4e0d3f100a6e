package server

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaiz/nfs3-sub000/client"
	"github.com/Vaiz/nfs3-sub000/memfs"
	"github.com/Vaiz/nfs3-sub000/mount"
	"github.com/Vaiz/nfs3-sub000/nfs3"
)

func startServer(t *testing.T, cfg Config) string {
	t.Helper()
	fs := memfs.New()
	resolve := func(_ context.Context, path string) (uint64, error) {
		return fs.LookupByPath(path)
	}
	srv := New[uint64](fs, resolve, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = srv.Serve(ctx, ln) }()
	return ln.Addr().String()
}

func TestServeMountAndNull(t *testing.T) {
	addr := startServer(t, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := client.Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Null(ctx))

	mnt, err := c.Mnt(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, mount.StatusOK, mnt.Status)
	assert.Len(t, mnt.OK.Handle.Data, 16)
}

func TestGetportReportsListenerPort(t *testing.T) {
	addr := startServer(t, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := client.Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	_, wantPort, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := c.Getport(ctx, nfs3.Program, nfs3.Version3, 6)
	require.NoError(t, err)
	assert.Equal(t, wantPort, strconv.Itoa(int(port)))
}

func TestReadOnlyConfigRejectsMutations(t *testing.T) {
	addr := startServer(t, Config{ReadOnly: true})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := client.Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	mnt, err := c.Mnt(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, mount.StatusOK, mnt.Status)
	root := nfs3.FileHandle{Data: mnt.OK.Handle.Data}

	res, err := c.Mkdir(ctx, root, "d", nfs3.SAttr{})
	require.NoError(t, err)
	assert.Equal(t, nfs3.StatusErrRofs, res.Status)

	// Reads still work through the wrapper.
	ga, err := c.Getattr(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, nfs3.StatusOK, ga.Status)
	assert.Equal(t, nfs3.FileTypeDir, ga.OK.Attributes.Type)
}
