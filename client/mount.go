package client

import (
	"context"
	"io"

	"github.com/Vaiz/nfs3-sub000/mount"
	"github.com/Vaiz/nfs3-sub000/xdr"
)

// Mnt issues MNT for dirPath, returning the root file handle and the
// auth flavors the server accepts for it. A non-nil *mount.MntRes is
// always returned alongside a nil error so a caller can inspect
// res.Status even when it isn't mount.StatusOK; only transport/envelope
// failures produce a non-nil error.
func (c *Client) Mnt(ctx context.Context, dirPath string) (*mount.MntRes, error) {
	var res mount.MntRes
	args := mount.MntArgs{DirPath: dirPath}
	if err := call[mount.MntRes](ctx, c, mount.Program, mount.Version3, mount.ProcMnt, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Umnt issues UMNT for dirPath. UMNT has no reply body beyond the RPC
// envelope, so a successful call just means the server accepted it.
func (c *Client) Umnt(ctx context.Context, dirPath string) error {
	args := mount.MntArgs{DirPath: dirPath}
	return call[voidResult](ctx, c, mount.Program, mount.Version3, mount.ProcUmnt, args, &voidResult{})
}

// UmntAll issues UMNTALL, dropping every mount this client's peer address
// is recorded as holding.
func (c *Client) UmntAll(ctx context.Context) error {
	return call[voidResult](ctx, c, mount.Program, mount.Version3, mount.ProcUmntAll, nil, &voidResult{})
}

// Dump lists every client/path pair the server's Mount handler currently
// tracks as mounted.
func (c *Client) Dump(ctx context.Context) ([]mount.MountEntry, error) {
	var list mountEntryList
	if err := call[mountEntryList](ctx, c, mount.Program, mount.Version3, mount.ProcDump, nil, &list); err != nil {
		return nil, err
	}
	return []mount.MountEntry(list), nil
}

// Export lists the server's exported paths and the client groups allowed
// to mount each one.
func (c *Client) Export(ctx context.Context) ([]mount.ExportNode, error) {
	var list exportNodeList
	if err := call[exportNodeList](ctx, c, mount.Program, mount.Version3, mount.ProcExport, nil, &list); err != nil {
		return nil, err
	}
	return []mount.ExportNode(list), nil
}

// mountEntryList decodes DUMP's (true, entry)*, false chain.
type mountEntryList []mount.MountEntry

func (l *mountEntryList) Unpack(r io.Reader) (int, error) {
	items, n, err := xdr.UnpackNamedList(r, func() *mount.MountEntry { return &mount.MountEntry{} })
	if err != nil {
		return n, err
	}
	out := make([]mount.MountEntry, len(items))
	for i, it := range items {
		out[i] = *it
	}
	*l = out
	return n, nil
}

// exportNodeList decodes EXPORT's chain the same way.
type exportNodeList []mount.ExportNode

func (l *exportNodeList) Unpack(r io.Reader) (int, error) {
	items, n, err := xdr.UnpackNamedList(r, func() *mount.ExportNode { return &mount.ExportNode{} })
	if err != nil {
		return n, err
	}
	out := make([]mount.ExportNode, len(items))
	for i, it := range items {
		out[i] = *it
	}
	*l = out
	return n, nil
}
