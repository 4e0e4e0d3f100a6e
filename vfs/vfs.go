// Package vfs declares the capability-based virtual filesystem contract
// every storage backend implements: a read-only core plus a read-write
// extension, generic over the backend's own handle representation so a
// caller never needs dynamic dispatch on the hot readdirplus path.
//
// Errors returned by an implementation are plain Go errors built from
// the sentinels declared below (wrap with fmt.Errorf("...: %w", ...) as
// needed); the nfs3 engine maps them to nfsstat3 codes via errors.Is,
// the same pattern a Go io/fs-backed implementation already uses for
// os.ErrNotExist and friends.
package vfs

import (
	"context"
	"errors"
)

// Handle is the constraint every backend's opaque handle type satisfies.
// Constraining it to an integer kind (rather than leaving it fully
// abstract, `comparable`) lets the file-handle converter (package fh)
// pack any backend's handle into the wire's 8-byte backend-id field
// without a backend-specific adapter.
type Handle interface {
	~uint64
}

// RootID is the reserved backend id denoting "no object": RootDir never
// returns it and no Entry may be stored under it. Backends are free to
// use any nonzero value as their actual root handle.
const RootID uint64 = 0

// Sentinel errors a backend reports via errors.Is; the nfs3 engine maps
// each to its corresponding nfsstat3 code, never collapsing two into one.
var (
	ErrNotExist    = errors.New("vfs: object does not exist")
	ErrExist       = errors.New("vfs: object already exists")
	ErrIsDir       = errors.New("vfs: object is a directory")
	ErrNotDir      = errors.New("vfs: object is not a directory")
	ErrNotEmpty    = errors.New("vfs: directory not empty")
	ErrInvalid     = errors.New("vfs: invalid argument")
	ErrReadOnly    = errors.New("vfs: filesystem is read-only")
	ErrNotSupported = errors.New("vfs: operation not supported")
	ErrBadCookie   = errors.New("vfs: directory cookie is invalid")
	ErrBadType     = errors.New("vfs: operation not valid for this object type")
	ErrTooLarge    = errors.New("vfs: object exceeds maximum size")
	ErrNoSpace     = errors.New("vfs: no space left on device")
	ErrNotSync     = errors.New("vfs: attribute guard did not match")
	ErrServerFault = errors.New("vfs: internal inconsistency")
	ErrJukebox     = errors.New("vfs: transient unavailability, retry later")
)

// Attr is the filesystem-neutral attribute snapshot every backend
// returns; the nfs3 engine translates it to fattr3 and derives wcc_attr
// from its Size/Mtime/Ctime fields.
type Attr struct {
	Type   ObjectType
	Mode   uint32
	Nlink  uint32
	UID    uint32
	GID    uint32
	Size   uint64
	Used   uint64
	RdevMajor uint32
	RdevMinor uint32
	FSID   uint64
	FileID uint64
	AtimeSec, AtimeNsec uint32
	MtimeSec, MtimeNsec uint32
	CtimeSec, CtimeNsec uint32
}

// ObjectType mirrors ftype3 without importing the nfs3 package.
type ObjectType uint32

const (
	TypeRegular ObjectType = iota + 1
	TypeDirectory
	TypeBlockDevice
	TypeCharDevice
	TypeSymlink
	TypeSocket
	TypeFIFO
)

// AttrMutation carries the subset of SetAttr fields a caller wants
// changed; nil/zero-How fields are left untouched, mirroring sattr3's
// optional-everything shape without depending on the xdr encoding.
type AttrMutation struct {
	Mode  *uint32
	UID   *uint32
	GID   *uint32
	Size  *uint64
	Atime *TimeSetting
	Mtime *TimeSetting
}

// TimeSetting is the set_atime/set_mtime choice: leave unchanged, set to
// the backend's current time, or set to a caller-supplied time.
type TimeSetting struct {
	ToServerNow bool
	Sec, Nsec   uint32 // meaningful only when ToServerNow is false
}

// Entry is one name produced while iterating a directory.
type Entry struct {
	FileID uint64
	Name   string
}

// DirIterator lazily walks a directory's entries starting just after a
// given cookie. Next returns io.EOF-style exhaustion via ok=false; a
// non-nil error is terminal and maps to an nfsstat3 code (typically
// ErrBadCookie if the starting position could not be resolved).
type DirIterator[H Handle] interface {
	// Next returns the next entry and the opaque cookie a future call
	// can resume from, or ok=false once the directory is exhausted.
	Next(ctx context.Context) (entry Entry, cookie uint64, ok bool, err error)
}

// EntryPlus is one entry from a DirPlusIterator: the name plus
// attributes, as READDIRPLUS needs. The child's handle is returned
// alongside it by DirPlusIterator.Next rather than embedded here, since
// it is of the iterator's own generic handle type.
type EntryPlus struct {
	Entry
	Attr Attr
}

// DirPlusIterator is the READDIRPLUS analogue of DirIterator.
type DirPlusIterator[H Handle] interface {
	Next(ctx context.Context) (entry EntryPlus, handle H, cookie uint64, ok bool, err error)
}

// NfsReadFileSystem is the read-only capability every backend must
// implement.
type NfsReadFileSystem[H Handle] interface {
	// RootDir returns the handle of the export's root directory.
	RootDir() H

	Lookup(ctx context.Context, dir H, name string) (H, error)
	Getattr(ctx context.Context, h H) (Attr, error)
	Read(ctx context.Context, h H, offset uint64, count uint32) (data []byte, eof bool, err error)
	Readlink(ctx context.Context, h H) (string, error)

	// Readdir returns an iterator starting just after cookie. cookie==0
	// begins at the start of the directory.
	Readdir(ctx context.Context, dir H, cookie uint64) (DirIterator[H], error)
	Readdirplus(ctx context.Context, dir H, cookie uint64) (DirPlusIterator[H], error)

	// DirGeneration returns a value that changes whenever the directory's
	// entry set changes, used to derive the cookieverf the engine hands
	// back to clients.
	DirGeneration(ctx context.Context, dir H) (uint64, error)
}

// NfsFileSystem extends NfsReadFileSystem with every mutation NFS v3
// requires. A read-only backend is adapted to this interface by
// ReadOnly, which answers every method here with ErrReadOnly.
type NfsFileSystem[H Handle] interface {
	NfsReadFileSystem[H]

	Setattr(ctx context.Context, h H, mutation AttrMutation, guardCtimeSec, guardCtimeNsec uint32, hasGuard bool) error
	Write(ctx context.Context, h H, offset uint64, data []byte) (n uint32, err error)

	// Create implements the UNCHECKED and GUARDED create modes;
	// existedOK reports whether UNCHECKED opened a pre-existing file.
	Create(ctx context.Context, dir H, name string, attr AttrMutation, guarded bool) (h H, existedOK bool, err error)
	// CreateExclusive implements the EXCLUSIVE create mode: if name
	// already exists with the same stored verifier, replayed==true and
	// the existing handle is returned; a different stored verifier (or
	// a non-regular-file collision) is ErrExist.
	CreateExclusive(ctx context.Context, dir H, name string, verf [8]byte) (h H, replayed bool, err error)

	Mkdir(ctx context.Context, dir H, name string, attr AttrMutation) (H, error)
	Symlink(ctx context.Context, dir H, name, target string, attr AttrMutation) (H, error)
	Mknod(ctx context.Context, dir H, name string, objType ObjectType, major, minor uint32, attr AttrMutation) (H, error)

	Remove(ctx context.Context, dir H, name string) error
	Rmdir(ctx context.Context, dir H, name string) error
	Rename(ctx context.Context, fromDir H, fromName string, toDir H, toName string) error
	Link(ctx context.Context, file H, dir H, name string) error
}
