package client

import (
	"context"

	"github.com/Vaiz/nfs3-sub000/nfs3"
)

// Each method below issues one NFS v3 procedure on NFS program 100003
// version 3 over the client's single connection, decoding directly into
// the matching *Res discriminated union nfs3 declares, the same type
// the server's Engine builds, so a caller branches on res.Status exactly
// as the server computed it. Only transport/XDR-envelope failures return
// a non-nil error; a non-nil *Res is always returned alongside a nil
// error so callers can inspect protocol-level status codes like NOENT or
// STALE without string matching.

func (c *Client) Null(ctx context.Context) error {
	return call[voidResult](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcNull, nil, &voidResult{})
}

func (c *Client) Getattr(ctx context.Context, object nfs3.FileHandle) (*nfs3.GetattrRes, error) {
	var res nfs3.GetattrRes
	args := nfs3.GetattrArgs{Object: object}
	if err := call[nfs3.GetattrRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcGetattr, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Setattr(ctx context.Context, object nfs3.FileHandle, newAttr nfs3.SAttr, guard nfs3.SAttrGuard) (*nfs3.SetattrRes, error) {
	var res nfs3.SetattrRes
	args := nfs3.SetattrArgs{Object: object, NewAttr: newAttr, Guard: guard}
	if err := call[nfs3.SetattrRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcSetattr, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Lookup(ctx context.Context, dir nfs3.FileHandle, name string) (*nfs3.LookupRes, error) {
	var res nfs3.LookupRes
	args := nfs3.LookupArgs{Dir: dir, Name: name}
	if err := call[nfs3.LookupRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcLookup, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Access(ctx context.Context, object nfs3.FileHandle, access uint32) (*nfs3.AccessRes, error) {
	var res nfs3.AccessRes
	args := nfs3.AccessArgs{Object: object, Access: access}
	if err := call[nfs3.AccessRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcAccess, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Readlink(ctx context.Context, symlink nfs3.FileHandle) (*nfs3.ReadlinkRes, error) {
	var res nfs3.ReadlinkRes
	args := nfs3.ReadlinkArgs{Symlink: symlink}
	if err := call[nfs3.ReadlinkRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcReadlink, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Read(ctx context.Context, file nfs3.FileHandle, offset uint64, count uint32) (*nfs3.ReadRes, error) {
	var res nfs3.ReadRes
	args := nfs3.ReadArgs{File: file, Offset: offset, Count: count}
	if err := call[nfs3.ReadRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcRead, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Write(ctx context.Context, file nfs3.FileHandle, offset uint64, stable nfs3.StableHow, data []byte) (*nfs3.WriteRes, error) {
	var res nfs3.WriteRes
	args := nfs3.WriteArgs{File: file, Offset: offset, Count: uint32(len(data)), Stable: stable, Data: data}
	if err := call[nfs3.WriteRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcWrite, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Create(ctx context.Context, dir nfs3.FileHandle, name string, how nfs3.CreateHow) (*nfs3.CreateRes, error) {
	var res nfs3.CreateRes
	args := nfs3.CreateArgs{Where: nfs3.DirOpArgs{Dir: dir, Name: name}, How: how}
	if err := call[nfs3.CreateRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcCreate, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Mkdir(ctx context.Context, dir nfs3.FileHandle, name string, attr nfs3.SAttr) (*nfs3.CreateRes, error) {
	var res nfs3.CreateRes
	args := nfs3.MkdirArgs{Where: nfs3.DirOpArgs{Dir: dir, Name: name}, Attr: attr}
	if err := call[nfs3.CreateRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcMkdir, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Symlink(ctx context.Context, dir nfs3.FileHandle, name, target string, attr nfs3.SAttr) (*nfs3.CreateRes, error) {
	var res nfs3.CreateRes
	args := nfs3.SymlinkArgs{Where: nfs3.DirOpArgs{Dir: dir, Name: name}, Attr: attr, Data: target}
	if err := call[nfs3.CreateRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcSymlink, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Mknod(ctx context.Context, dir nfs3.FileHandle, name string, what nfs3.MknodData) (*nfs3.CreateRes, error) {
	var res nfs3.CreateRes
	args := nfs3.MknodArgs{Where: nfs3.DirOpArgs{Dir: dir, Name: name}, What: what}
	if err := call[nfs3.CreateRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcMknod, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Remove(ctx context.Context, dir nfs3.FileHandle, name string) (*nfs3.RemoveRes, error) {
	var res nfs3.RemoveRes
	args := nfs3.RemoveArgs{Dir: dir, Name: name}
	if err := call[nfs3.RemoveRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcRemove, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Rmdir(ctx context.Context, dir nfs3.FileHandle, name string) (*nfs3.RemoveRes, error) {
	var res nfs3.RemoveRes
	args := nfs3.RmdirArgs{Dir: dir, Name: name}
	if err := call[nfs3.RemoveRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcRmdir, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Rename(ctx context.Context, fromDir nfs3.FileHandle, fromName string, toDir nfs3.FileHandle, toName string) (*nfs3.RenameRes, error) {
	var res nfs3.RenameRes
	args := nfs3.RenameArgs{
		From: nfs3.DirOpArgs{Dir: fromDir, Name: fromName},
		To:   nfs3.DirOpArgs{Dir: toDir, Name: toName},
	}
	if err := call[nfs3.RenameRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcRename, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Link(ctx context.Context, file nfs3.FileHandle, dir nfs3.FileHandle, name string) (*nfs3.LinkRes, error) {
	var res nfs3.LinkRes
	args := nfs3.LinkArgs{File: file, Link: nfs3.DirOpArgs{Dir: dir, Name: name}}
	if err := call[nfs3.LinkRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcLink, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Readdir(ctx context.Context, dir nfs3.FileHandle, cookie uint64, cookieVerf [8]byte, count uint32) (*nfs3.ReaddirRes, error) {
	var res nfs3.ReaddirRes
	args := nfs3.ReaddirArgs{Dir: dir, Cookie: cookie, CookieVerf: cookieVerf, Count: count}
	if err := call[nfs3.ReaddirRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcReaddir, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Readdirplus(ctx context.Context, dir nfs3.FileHandle, cookie uint64, cookieVerf [8]byte, dirCount, maxCount uint32) (*nfs3.ReaddirplusRes, error) {
	var res nfs3.ReaddirplusRes
	args := nfs3.ReaddirplusArgs{Dir: dir, Cookie: cookie, CookieVerf: cookieVerf, DirCount: dirCount, MaxCount: maxCount}
	if err := call[nfs3.ReaddirplusRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcReaddirplus, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Fsstat(ctx context.Context, fsRoot nfs3.FileHandle) (*nfs3.FsstatRes, error) {
	var res nfs3.FsstatRes
	args := nfs3.FsstatArgs{FSRoot: fsRoot}
	if err := call[nfs3.FsstatRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcFsstat, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Fsinfo(ctx context.Context, fsRoot nfs3.FileHandle) (*nfs3.FsinfoRes, error) {
	var res nfs3.FsinfoRes
	args := nfs3.FsinfoArgs{FSRoot: fsRoot}
	if err := call[nfs3.FsinfoRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcFsinfo, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Pathconf(ctx context.Context, object nfs3.FileHandle) (*nfs3.PathconfRes, error) {
	var res nfs3.PathconfRes
	args := nfs3.PathconfArgs{Object: object}
	if err := call[nfs3.PathconfRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcPathconf, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Commit(ctx context.Context, file nfs3.FileHandle, offset uint64, count uint32) (*nfs3.CommitRes, error) {
	var res nfs3.CommitRes
	args := nfs3.CommitArgs{File: file, Offset: offset, Count: count}
	if err := call[nfs3.CommitRes](ctx, c, nfs3.Program, nfs3.Version3, nfs3.ProcCommit, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
