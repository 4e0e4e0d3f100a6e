package nfs3

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/Vaiz/nfs3-sub000/fh"
	"github.com/Vaiz/nfs3-sub000/vfs"
	"github.com/Vaiz/nfs3-sub000/xdr"
)

// ErrGarbageArgs signals that a procedure's arguments decoded fine at the
// XDR layer but are semantically malformed in a way RFC 1813 maps to the
// RPC-level GARBAGE_ARGS accept_stat rather than any nfsstat3 code (the
// WRITE count/data-length mismatch is the one case the core defines).
// Callers dispatching through Engine must check for this before encoding
// a procedure's ordinary result value.
var ErrGarbageArgs = errors.New("nfs3: garbage arguments")

// readdirEmptyOverhead approximates the wire cost of an RPC reply header
// plus an empty READDIR3resok (status, absent dir_attributes, cookieverf,
// list terminator, eof). The client's count budget must cover at least
// this much before the bounded-list builder is worth opening.
const readdirEmptyOverhead uint32 = 48

// Reference FSINFO/FSSTAT figures. The core has no notion of backend
// capacity, so these are generous fixed numbers rather than values read
// from any real device.
const (
	fsstatTotalBytes = 1 << 40
	fsstatTotalFiles = 1 << 32
	maxIOSize        = 1 << 20
	maxFilesize      = 128 << 30
)

// Engine answers the 22 NFS v3 procedures atop a vfs.NfsFileSystem
// backend, translating opaque file handles via Handles and backend
// errors via statusFromError. ReadOnly mirrors whether FS was wrapped by
// vfs.NewReadOnly, since ACCESS's capability-reduction rule (read-only
// backends mask out every bit but READ/LOOKUP) has no other way to
// observe that fact through the interface alone.
type Engine[H vfs.Handle] struct {
	FS       vfs.NfsFileSystem[H]
	Handles  *fh.Converter
	ReadOnly bool
}

// NewEngine constructs an Engine bound to fsImpl and handles.
func NewEngine[H vfs.Handle](fsImpl vfs.NfsFileSystem[H], handles *fh.Converter, readOnly bool) *Engine[H] {
	return &Engine[H]{FS: fsImpl, Handles: handles, ReadOnly: readOnly}
}

// RootHandle encodes the backend's root directory as a wire file handle,
// for the mount procedure to hand back on a successful MNT.
func (e *Engine[H]) RootHandle() FileHandle {
	return e.encode(e.FS.RootDir())
}

func (e *Engine[H]) decode(handle FileHandle) (H, error) {
	id, err := e.Handles.FromHandle(handle.Data)
	return H(id), err
}

func (e *Engine[H]) encode(h H) FileHandle {
	b := e.Handles.ToHandle(uint64(h))
	return FileHandle{Data: append([]byte(nil), b[:]...)}
}

func toFAttr(a vfs.Attr) FAttr {
	return FAttr{
		Type:   FileType(a.Type),
		Mode:   a.Mode,
		Nlink:  a.Nlink,
		UID:    a.UID,
		GID:    a.GID,
		Size:   a.Size,
		Used:   a.Used,
		Rdev:   SpecData{Major: a.RdevMajor, Minor: a.RdevMinor},
		FSID:   a.FSID,
		FileID: a.FileID,
		Atime:  NFSTime{Seconds: a.AtimeSec, Nseconds: a.AtimeNsec},
		Mtime:  NFSTime{Seconds: a.MtimeSec, Nseconds: a.MtimeNsec},
		Ctime:  NFSTime{Seconds: a.CtimeSec, Nseconds: a.CtimeNsec},
	}
}

func toMutation(a SAttr) vfs.AttrMutation {
	return vfs.AttrMutation{
		Mode:  a.Mode,
		UID:   a.UID,
		GID:   a.GID,
		Size:  a.Size,
		Atime: toTimeSetting(a.Atime),
		Mtime: toTimeSetting(a.Mtime),
	}
}

func toTimeSetting(t SetTime) *vfs.TimeSetting {
	switch t.How {
	case TimeSetToServer:
		return &vfs.TimeSetting{ToServerNow: true}
	case TimeSetToClient:
		return &vfs.TimeSetting{Sec: t.Time.Seconds, Nsec: t.Time.Nseconds}
	default:
		return nil
	}
}

func ptrFH(f FileHandle) *FileHandle { return &f }

// wccOf captures the pre-operation wcc_attr snapshot; a failure to read
// it (the object may already be gone) degrades to an absent pre_op_attr
// rather than aborting the caller's mutation.
func (e *Engine[H]) wccOf(ctx context.Context, h H) (PreOpAttr, error) {
	attr, err := e.FS.Getattr(ctx, h)
	if err != nil {
		return PreOpAttr{}, err
	}
	wa := WccAttr{Size: attr.Size, Mtime: NFSTime{Seconds: attr.MtimeSec, Nseconds: attr.MtimeNsec},
		Ctime: NFSTime{Seconds: attr.CtimeSec, Nseconds: attr.CtimeNsec}}
	return PreOpAttr{Attr: &wa}, nil
}

// postOf captures the post-operation full fattr3 snapshot, best-effort:
// an error here (again, typically the object no longer existing) yields
// an absent post_op_attr rather than masking the mutation's own result.
func (e *Engine[H]) postOf(ctx context.Context, h H) PostOpAttr {
	attr, err := e.FS.Getattr(ctx, h)
	if err != nil {
		return PostOpAttr{}
	}
	f := toFAttr(attr)
	return PostOpAttr{Attr: &f}
}

func (e *Engine[H]) dirVerf(ctx context.Context, dir H) ([8]byte, error) {
	gen, err := e.FS.DirGeneration(ctx, dir)
	var v [8]byte
	if err != nil {
		return v, err
	}
	binary.LittleEndian.PutUint64(v[:], gen)
	return v, nil
}

func (e *Engine[H]) writeVerf() [8]byte {
	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], e.Handles.Generation())
	return v
}

// Null answers the NULL procedure; any validation of a nonzero argument
// body is the dispatcher's responsibility (it never reaches the engine).
func (e *Engine[H]) Null(_ context.Context) error { return nil }

func (e *Engine[H]) Getattr(ctx context.Context, args GetattrArgs) GetattrRes {
	h, err := e.decode(args.Object)
	if err != nil {
		return GetattrRes{Status: statusFromError(err)}
	}
	attr, err := e.FS.Getattr(ctx, h)
	if err != nil {
		return GetattrRes{Status: statusFromError(err)}
	}
	return GetattrRes{Status: StatusOK, OK: GetattrResultOK{Attributes: toFAttr(attr)}}
}

func (e *Engine[H]) Setattr(ctx context.Context, args SetattrArgs) SetattrRes {
	h, err := e.decode(args.Object)
	if err != nil {
		return SetattrRes{Status: statusFromError(err)}
	}
	pre, _ := e.wccOf(ctx, h)
	var guardSec, guardNsec uint32
	hasGuard := args.Guard.Ctime != nil
	if hasGuard {
		guardSec, guardNsec = args.Guard.Ctime.Seconds, args.Guard.Ctime.Nseconds
	}
	err = e.FS.Setattr(ctx, h, toMutation(args.NewAttr), guardSec, guardNsec, hasGuard)
	wcc := WccData{Before: pre, After: e.postOf(ctx, h)}
	return SetattrRes{Status: statusFromError(err), ObjWcc: wcc}
}

func (e *Engine[H]) Lookup(ctx context.Context, args LookupArgs) LookupRes {
	dir, err := e.decode(args.Dir)
	if err != nil {
		return LookupRes{Status: statusFromError(err)}
	}
	child, err := e.FS.Lookup(ctx, dir, args.Name)
	if err != nil {
		return LookupRes{Status: statusFromError(err), DirAttr: e.postOf(ctx, dir)}
	}
	return LookupRes{
		Status: StatusOK,
		OK: LookupResultOK{
			Object:  e.encode(child),
			ObjAttr: e.postOf(ctx, child),
			DirAttr: e.postOf(ctx, dir),
		},
	}
}

func (e *Engine[H]) Access(ctx context.Context, args AccessArgs) AccessRes {
	h, err := e.decode(args.Object)
	if err != nil {
		return AccessRes{Status: statusFromError(err)}
	}
	attr, err := e.FS.Getattr(ctx, h)
	if err != nil {
		return AccessRes{Status: statusFromError(err)}
	}
	mask := args.Access
	if e.ReadOnly {
		mask &= AccessRead | AccessLookup
	}
	fattr := toFAttr(attr)
	return AccessRes{Status: StatusOK, OK: AccessResultOK{ObjAttr: PostOpAttr{Attr: &fattr}, Access: mask}}
}

func (e *Engine[H]) Readlink(ctx context.Context, args ReadlinkArgs) ReadlinkRes {
	h, err := e.decode(args.Symlink)
	if err != nil {
		return ReadlinkRes{Status: statusFromError(err)}
	}
	data, err := e.FS.Readlink(ctx, h)
	attr := e.postOf(ctx, h)
	if err != nil {
		return ReadlinkRes{Status: statusFromError(err), SymlinkAttr: attr}
	}
	return ReadlinkRes{Status: StatusOK, OK: ReadlinkResultOK{SymlinkAttr: attr, Data: data}}
}

func (e *Engine[H]) Read(ctx context.Context, args ReadArgs) ReadRes {
	h, err := e.decode(args.File)
	if err != nil {
		return ReadRes{Status: statusFromError(err)}
	}
	data, eof, err := e.FS.Read(ctx, h, args.Offset, args.Count)
	attr := e.postOf(ctx, h)
	if err != nil {
		return ReadRes{Status: statusFromError(err), FileAttr: attr}
	}
	return ReadRes{Status: StatusOK, OK: ReadResultOK{FileAttr: attr, Count: uint32(len(data)), EOF: eof, Data: data}}
}

func (e *Engine[H]) Write(ctx context.Context, args WriteArgs) (WriteRes, error) {
	if uint32(len(args.Data)) != args.Count {
		return WriteRes{}, ErrGarbageArgs
	}
	h, err := e.decode(args.File)
	if err != nil {
		return WriteRes{Status: statusFromError(err)}, nil
	}
	pre, _ := e.wccOf(ctx, h)
	n, err := e.FS.Write(ctx, h, args.Offset, args.Data)
	wcc := WccData{Before: pre, After: e.postOf(ctx, h)}
	if err != nil {
		return WriteRes{Status: statusFromError(err), FileWcc: wcc}, nil
	}
	return WriteRes{Status: StatusOK, OK: WriteResultOK{
		FileWcc:   wcc,
		Count:     n,
		Committed: FileSync,
		Verf:      e.writeVerf(),
	}}, nil
}

func (e *Engine[H]) Create(ctx context.Context, args CreateArgs) CreateRes {
	dir, err := e.decode(args.Where.Dir)
	if err != nil {
		return CreateRes{Status: statusFromError(err)}
	}
	pre, _ := e.wccOf(ctx, dir)

	var child H
	switch args.How.Mode {
	case CreateUnchecked:
		child, _, err = e.FS.Create(ctx, dir, args.Where.Name, toMutation(args.How.Attr), false)
	case CreateGuarded:
		child, _, err = e.FS.Create(ctx, dir, args.Where.Name, toMutation(args.How.Attr), true)
	case CreateExclusive:
		child, _, err = e.FS.CreateExclusive(ctx, dir, args.Where.Name, args.How.Verf)
	default:
		return CreateRes{Status: StatusErrInval}
	}

	dirWcc := WccData{Before: pre, After: e.postOf(ctx, dir)}
	if err != nil {
		return CreateRes{Status: statusFromError(err), DirWcc: dirWcc}
	}
	handle := ptrFH(e.encode(child))
	if args.How.Mode == CreateExclusive {
		// RFC 1813 §3.3.8: attributes are not returned for EXCLUSIVE.
		return CreateRes{Status: StatusOK, OK: CreateResultOK{Handle: PostOpFH{Handle: handle}, DirWcc: dirWcc}}
	}
	return CreateRes{Status: StatusOK, OK: CreateResultOK{
		Handle:  PostOpFH{Handle: handle},
		ObjAttr: e.postOf(ctx, child),
		DirWcc:  dirWcc,
	}}
}

func (e *Engine[H]) Mkdir(ctx context.Context, args MkdirArgs) CreateRes {
	dir, err := e.decode(args.Where.Dir)
	if err != nil {
		return CreateRes{Status: statusFromError(err)}
	}
	pre, _ := e.wccOf(ctx, dir)
	child, err := e.FS.Mkdir(ctx, dir, args.Where.Name, toMutation(args.Attr))
	dirWcc := WccData{Before: pre, After: e.postOf(ctx, dir)}
	if err != nil {
		return CreateRes{Status: statusFromError(err), DirWcc: dirWcc}
	}
	return CreateRes{Status: StatusOK, OK: CreateResultOK{
		Handle:  PostOpFH{Handle: ptrFH(e.encode(child))},
		ObjAttr: e.postOf(ctx, child),
		DirWcc:  dirWcc,
	}}
}

func (e *Engine[H]) Symlink(ctx context.Context, args SymlinkArgs) CreateRes {
	dir, err := e.decode(args.Where.Dir)
	if err != nil {
		return CreateRes{Status: statusFromError(err)}
	}
	pre, _ := e.wccOf(ctx, dir)
	child, err := e.FS.Symlink(ctx, dir, args.Where.Name, args.Data, toMutation(args.Attr))
	dirWcc := WccData{Before: pre, After: e.postOf(ctx, dir)}
	if err != nil {
		return CreateRes{Status: statusFromError(err), DirWcc: dirWcc}
	}
	return CreateRes{Status: StatusOK, OK: CreateResultOK{
		Handle:  PostOpFH{Handle: ptrFH(e.encode(child))},
		ObjAttr: e.postOf(ctx, child),
		DirWcc:  dirWcc,
	}}
}

func (e *Engine[H]) Mknod(ctx context.Context, args MknodArgs) CreateRes {
	dir, err := e.decode(args.Where.Dir)
	if err != nil {
		return CreateRes{Status: statusFromError(err)}
	}
	pre, _ := e.wccOf(ctx, dir)
	objType := vfs.ObjectType(args.What.Type)
	child, err := e.FS.Mknod(ctx, dir, args.Where.Name, objType, args.What.Spec.Major, args.What.Spec.Minor, toMutation(args.What.Attr))
	dirWcc := WccData{Before: pre, After: e.postOf(ctx, dir)}
	if err != nil {
		return CreateRes{Status: statusFromError(err), DirWcc: dirWcc}
	}
	return CreateRes{Status: StatusOK, OK: CreateResultOK{
		Handle:  PostOpFH{Handle: ptrFH(e.encode(child))},
		ObjAttr: e.postOf(ctx, child),
		DirWcc:  dirWcc,
	}}
}

func (e *Engine[H]) Remove(ctx context.Context, args RemoveArgs) RemoveRes {
	dir, err := e.decode(args.Dir)
	if err != nil {
		return RemoveRes{Status: statusFromError(err)}
	}
	pre, _ := e.wccOf(ctx, dir)
	err = e.FS.Remove(ctx, dir, args.Name)
	return RemoveRes{Status: statusFromError(err), DirWcc: WccData{Before: pre, After: e.postOf(ctx, dir)}}
}

func (e *Engine[H]) Rmdir(ctx context.Context, args RmdirArgs) RemoveRes {
	dir, err := e.decode(args.Dir)
	if err != nil {
		return RemoveRes{Status: statusFromError(err)}
	}
	pre, _ := e.wccOf(ctx, dir)
	err = e.FS.Rmdir(ctx, dir, args.Name)
	return RemoveRes{Status: statusFromError(err), DirWcc: WccData{Before: pre, After: e.postOf(ctx, dir)}}
}

// Rename delegates the full five-step ordering (source existence,
// same-name noop, target-type resolution, ancestor check, atomic move)
// to the backend; the engine's job is only handle translation and WCC
// capture around whatever the backend decides.
func (e *Engine[H]) Rename(ctx context.Context, args RenameArgs) RenameRes {
	fromDir, err := e.decode(args.From.Dir)
	if err != nil {
		return RenameRes{Status: statusFromError(err)}
	}
	toDir, err := e.decode(args.To.Dir)
	if err != nil {
		return RenameRes{Status: statusFromError(err)}
	}
	preFrom, _ := e.wccOf(ctx, fromDir)
	preTo, _ := e.wccOf(ctx, toDir)
	err = e.FS.Rename(ctx, fromDir, args.From.Name, toDir, args.To.Name)
	return RenameRes{
		Status: statusFromError(err),
		OK: RenameResultOK{
			FromDirWcc: WccData{Before: preFrom, After: e.postOf(ctx, fromDir)},
			ToDirWcc:   WccData{Before: preTo, After: e.postOf(ctx, toDir)},
		},
	}
}

func (e *Engine[H]) Link(ctx context.Context, args LinkArgs) LinkRes {
	file, err := e.decode(args.File)
	if err != nil {
		return LinkRes{Status: statusFromError(err)}
	}
	dir, err := e.decode(args.Link.Dir)
	if err != nil {
		return LinkRes{Status: statusFromError(err)}
	}
	preDir, _ := e.wccOf(ctx, dir)
	err = e.FS.Link(ctx, file, dir, args.Link.Name)
	return LinkRes{
		Status: statusFromError(err),
		OK: LinkResultOK{
			FileAttr:   e.postOf(ctx, file),
			LinkDirWcc: WccData{Before: preDir, After: e.postOf(ctx, dir)},
		},
	}
}

func (e *Engine[H]) Readdir(ctx context.Context, args ReaddirArgs) ReaddirRes {
	dir, err := e.decode(args.Dir)
	if err != nil {
		return ReaddirRes{Status: statusFromError(err)}
	}
	genVerf, err := e.dirVerf(ctx, dir)
	if err != nil {
		return ReaddirRes{Status: statusFromError(err), DirAttr: e.postOf(ctx, dir)}
	}
	var zero [8]byte
	if args.Cookie == 0 {
		if args.CookieVerf != zero {
			return ReaddirRes{Status: StatusErrBadCookie, DirAttr: e.postOf(ctx, dir)}
		}
	} else if args.CookieVerf != genVerf {
		return ReaddirRes{Status: StatusErrBadCookie, DirAttr: e.postOf(ctx, dir)}
	}
	if args.Count < readdirEmptyOverhead {
		return ReaddirRes{Status: StatusErrTooSmall, DirAttr: e.postOf(ctx, dir)}
	}

	it, err := e.FS.Readdir(ctx, dir, args.Cookie)
	if err != nil {
		return ReaddirRes{Status: statusFromError(err), DirAttr: e.postOf(ctx, dir)}
	}
	builder := xdr.NewBoundedListBuilder[DirEntry](args.Count - readdirEmptyOverhead)
	eof := false
	for {
		entry, cookie, ok, err := it.Next(ctx)
		if err != nil {
			return ReaddirRes{Status: statusFromError(err), DirAttr: e.postOf(ctx, dir)}
		}
		if !ok {
			eof = true
			break
		}
		if accepted, _ := builder.TryPush(DirEntry{FileID: entry.FileID, Name: entry.Name, Cookie: cookie}); !accepted {
			break
		}
	}
	if builder.Len() == 0 && !eof {
		return ReaddirRes{Status: StatusErrTooSmall, DirAttr: e.postOf(ctx, dir)}
	}
	return ReaddirRes{Status: StatusOK, OK: ReaddirResultOK{
		DirAttr:    e.postOf(ctx, dir),
		CookieVerf: genVerf,
		Entries:    builder.Items(),
		EOF:        eof,
	}}
}

func (e *Engine[H]) Readdirplus(ctx context.Context, args ReaddirplusArgs) ReaddirplusRes {
	dir, err := e.decode(args.Dir)
	if err != nil {
		return ReaddirplusRes{Status: statusFromError(err)}
	}
	genVerf, err := e.dirVerf(ctx, dir)
	if err != nil {
		return ReaddirplusRes{Status: statusFromError(err), DirAttr: e.postOf(ctx, dir)}
	}
	var zero [8]byte
	if args.Cookie == 0 {
		if args.CookieVerf != zero {
			return ReaddirplusRes{Status: StatusErrBadCookie, DirAttr: e.postOf(ctx, dir)}
		}
	} else if args.CookieVerf != genVerf {
		return ReaddirplusRes{Status: StatusErrBadCookie, DirAttr: e.postOf(ctx, dir)}
	}
	if args.MaxCount < readdirplusFixedOverhead {
		return ReaddirplusRes{Status: StatusErrTooSmall, DirAttr: e.postOf(ctx, dir)}
	}

	it, err := e.FS.Readdirplus(ctx, dir, args.Cookie)
	if err != nil {
		return ReaddirplusRes{Status: statusFromError(err), DirAttr: e.postOf(ctx, dir)}
	}
	builder := xdr.NewBoundedListBuilder[DirEntryPlus](args.MaxCount - readdirplusFixedOverhead)
	var dirUsed uint32
	eof := false
	for {
		ep, handle, cookie, ok, err := it.Next(ctx)
		if err != nil {
			return ReaddirplusRes{Status: statusFromError(err), DirAttr: e.postOf(ctx, dir)}
		}
		if !ok {
			eof = true
			break
		}
		fattr := toFAttr(ep.Attr)
		childFH := e.encode(handle)
		entry := DirEntryPlus{
			FileID:     ep.FileID,
			Name:       ep.Name,
			Cookie:     cookie,
			NameAttr:   PostOpAttr{Attr: &fattr},
			NameHandle: PostOpFH{Handle: &childFH},
		}
		dirCost := uint32(8+4+xdr.PaddedLen(len(entry.Name))) + 8
		if dirUsed+dirCost > args.DirCount {
			break
		}
		if accepted, _ := builder.TryPush(entry); !accepted {
			break
		}
		dirUsed += dirCost
	}
	if builder.Len() == 0 && !eof {
		return ReaddirplusRes{Status: StatusErrTooSmall, DirAttr: e.postOf(ctx, dir)}
	}
	return ReaddirplusRes{Status: StatusOK, OK: ReaddirplusResultOK{
		DirAttr:    e.postOf(ctx, dir),
		CookieVerf: genVerf,
		Entries:    builder.Items(),
		EOF:        eof,
	}}
}

func (e *Engine[H]) Fsstat(ctx context.Context, args FsstatArgs) FsstatRes {
	h, err := e.decode(args.FSRoot)
	if err != nil {
		return FsstatRes{Status: statusFromError(err)}
	}
	attr, err := e.FS.Getattr(ctx, h)
	if err != nil {
		return FsstatRes{Status: statusFromError(err)}
	}
	fattr := toFAttr(attr)
	return FsstatRes{Status: StatusOK, OK: FsstatResultOK{
		Attr:     PostOpAttr{Attr: &fattr},
		TBytes:   fsstatTotalBytes,
		FBytes:   fsstatTotalBytes,
		ABytes:   fsstatTotalBytes,
		TFiles:   fsstatTotalFiles,
		FFiles:   fsstatTotalFiles,
		AFiles:   fsstatTotalFiles,
		Invarsec: 0,
	}}
}

func (e *Engine[H]) Fsinfo(ctx context.Context, args FsinfoArgs) FsinfoRes {
	h, err := e.decode(args.FSRoot)
	if err != nil {
		return FsinfoRes{Status: statusFromError(err)}
	}
	attr, err := e.FS.Getattr(ctx, h)
	if err != nil {
		return FsinfoRes{Status: statusFromError(err)}
	}
	fattr := toFAttr(attr)
	return FsinfoRes{Status: StatusOK, OK: FsinfoResultOK{
		Attr:        PostOpAttr{Attr: &fattr},
		Rtmax:       maxIOSize,
		Rtpref:      maxIOSize,
		Rtmult:      4096,
		Wtmax:       maxIOSize,
		Wtpref:      maxIOSize,
		Wtmult:      4096,
		Dtpref:      8192,
		MaxFilesize: maxFilesize,
		TimeDelta:   NFSTime{Seconds: 0, Nseconds: 1_000_000},
		Properties:  FSFLinkSupport | FSFSymlinkSupport | FSFHomogeneous | FSFCanSetTime,
	}}
}

func (e *Engine[H]) Pathconf(ctx context.Context, args PathconfArgs) PathconfRes {
	h, err := e.decode(args.Object)
	if err != nil {
		return PathconfRes{Status: statusFromError(err)}
	}
	attr, err := e.FS.Getattr(ctx, h)
	if err != nil {
		return PathconfRes{Status: statusFromError(err)}
	}
	fattr := toFAttr(attr)
	return PathconfRes{Status: StatusOK, OK: PathconfResultOK{
		Attr:            PostOpAttr{Attr: &fattr},
		LinkMax:         1,
		NameMax:         255,
		NoTrunc:         true,
		ChownRestricted: true,
		CaseInsensitive: false,
		CasePreserving:  true,
	}}
}

// Commit is accepted unconditionally; durability beyond "preceding WRITEs
// on this handle are now visible to READ" is left to the backend.
func (e *Engine[H]) Commit(ctx context.Context, args CommitArgs) CommitRes {
	h, err := e.decode(args.File)
	if err != nil {
		return CommitRes{Status: statusFromError(err)}
	}
	pre, _ := e.wccOf(ctx, h)
	wcc := WccData{Before: pre, After: e.postOf(ctx, h)}
	return CommitRes{Status: StatusOK, OK: CommitResultOK{FileWcc: wcc, Verf: e.writeVerf()}}
}
