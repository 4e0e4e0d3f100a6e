package mount

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler() *Handler[uint64] {
	resolve := func(_ context.Context, path string) (uint64, error) {
		if path == "/" || path == "" {
			return 1, nil
		}
		return 0, assert.AnError
	}
	encode := func(id uint64) FileHandle { return FileHandle{Data: []byte{byte(id)}} }
	return NewHandler[uint64]("/export", resolve, encode)
}

func TestMntStripsExportPrefix(t *testing.T) {
	h := testHandler()
	res := h.Mnt(context.Background(), "client1", "/export")
	require.Equal(t, StatusOK, res.Status)
	require.NotNil(t, res.OK)
	assert.Equal(t, []byte{1}, res.OK.Handle.Data)
	assert.Contains(t, res.OK.AuthFlavors, uint32(0))
	assert.Contains(t, res.OK.AuthFlavors, uint32(1))
}

func TestMntUnknownPrefixIsNoent(t *testing.T) {
	h := testHandler()
	res := h.Mnt(context.Background(), "client1", "/other")
	assert.Equal(t, StatusErrNoEnt, res.Status)
}

func TestMntUnresolvablePathIsNoent(t *testing.T) {
	h := testHandler()
	res := h.Mnt(context.Background(), "client1", "/export/missing")
	assert.Equal(t, StatusErrNoEnt, res.Status)
}

func TestUmntAllClearsDump(t *testing.T) {
	h := testHandler()
	h.Mnt(context.Background(), "client1", "/export")
	require.Len(t, h.Dump(), 1)
	h.UmntAll("client1")
	assert.Empty(t, h.Dump())
}

func TestExportListsSingleRoot(t *testing.T) {
	h := testHandler()
	exports := h.Export()
	require.Len(t, exports, 1)
	assert.Equal(t, "/export", exports[0].DirPath)
}
