// Package nfs3 implements the NFS version 3 wire types (RFC 1813) and
// the 22-procedure engine that answers them atop a vfs.NfsFileSystem
// backend.
package nfs3

import (
	"io"

	"github.com/Vaiz/nfs3-sub000/xdr"
)

// Program is the NFS RPC program number, RFC 1813 §2.
const Program uint32 = 100003

// Version3 is the only NFS version this stack speaks.
const Version3 uint32 = 3

// Procedure numbers, RFC 1813 §3.3.
const (
	ProcNull        uint32 = 0
	ProcGetattr     uint32 = 1
	ProcSetattr     uint32 = 2
	ProcLookup      uint32 = 3
	ProcAccess      uint32 = 4
	ProcReadlink    uint32 = 5
	ProcRead        uint32 = 6
	ProcWrite       uint32 = 7
	ProcCreate      uint32 = 8
	ProcMkdir       uint32 = 9
	ProcSymlink     uint32 = 10
	ProcMknod       uint32 = 11
	ProcRemove      uint32 = 12
	ProcRmdir       uint32 = 13
	ProcRename      uint32 = 14
	ProcLink        uint32 = 15
	ProcReaddir     uint32 = 16
	ProcReaddirplus uint32 = 17
	ProcFsstat      uint32 = 18
	ProcFsinfo      uint32 = 19
	ProcPathconf    uint32 = 20
	ProcCommit      uint32 = 21
)

// Status is the nfsstat3 enum, RFC 1813 §2.6. The OK value and all 28
// error codes are preserved byte-for-byte; the engine never collapses a meaningful code
// (e.g. NOTEMPTY) into a less specific one (e.g. IO).
type Status uint32

const (
	StatusOK             Status = 0
	StatusErrPerm        Status = 1
	StatusErrNoEnt       Status = 2
	StatusErrIO          Status = 5
	StatusErrNXIO        Status = 6
	StatusErrAcces       Status = 13
	StatusErrExist       Status = 17
	StatusErrXDev        Status = 18
	StatusErrNoDev       Status = 19
	StatusErrNotDir      Status = 20
	StatusErrIsDir       Status = 21
	StatusErrInval       Status = 22
	StatusErrFBig        Status = 27
	StatusErrNoSpc       Status = 28
	StatusErrRofs        Status = 30
	StatusErrMlink       Status = 31
	StatusErrNameTooLong Status = 63
	StatusErrNotEmpty    Status = 66
	StatusErrDquot       Status = 69
	StatusErrStale       Status = 70
	StatusErrRemote      Status = 71
	StatusErrBadHandle   Status = 10001
	StatusErrNotSync     Status = 10002
	StatusErrBadCookie   Status = 10003
	StatusErrNotSupp     Status = 10004
	StatusErrTooSmall    Status = 10005
	StatusErrServerFault Status = 10006
	StatusErrBadType     Status = 10007
	StatusErrJukebox     Status = 10008
)

// PackedSize returns the number of bytes Pack will write.
func (s Status) PackedSize() uint32 { return 4 }

// Pack writes the status code.
func (s Status) Pack(w io.Writer) (int, error) {
	return xdr.PackUint32(w, uint32(s))
}

// Unpack reads a status code. Any uint32 value round-trips: unlike a
// closed enum, nfsstat3 is treated permissively on decode (the engine
// only ever produces declared values; a client-decoded unknown value is
// the client's problem, not this server's).
func (s *Status) Unpack(r io.Reader) (int, error) {
	v, n, err := xdr.UnpackUint32(r)
	*s = Status(v)
	return n, err
}

// ftype3, RFC 1813 §2.5.
type FileType uint32

const (
	FileTypeReg  FileType = 1
	FileTypeDir  FileType = 2
	FileTypeBlk  FileType = 3
	FileTypeChr  FileType = 4
	FileTypeLnk  FileType = 5
	FileTypeSock FileType = 6
	FileTypeFifo FileType = 7
)

func (t FileType) PackedSize() uint32 { return 4 }

func (t FileType) Pack(w io.Writer) (int, error) {
	return xdr.PackUint32(w, uint32(t))
}

func (t *FileType) Unpack(r io.Reader) (int, error) {
	v, n, err := xdr.UnpackUint32(r)
	if err != nil {
		return n, err
	}
	switch FileType(v) {
	case FileTypeReg, FileTypeDir, FileTypeBlk, FileTypeChr, FileTypeLnk, FileTypeSock, FileTypeFifo:
		*t = FileType(v)
		return n, nil
	default:
		return n, &xdr.InvalidEnumValueError{Value: v, Type: "ftype3"}
	}
}

// SpecData is the device major/minor pair for block/char special files.
type SpecData struct {
	Major uint32
	Minor uint32
}

func (s SpecData) PackedSize() uint32 { return 8 }

func (s SpecData) Pack(w io.Writer) (int, error) {
	n1, err := xdr.PackUint32(w, s.Major)
	if err != nil {
		return n1, err
	}
	n2, err := xdr.PackUint32(w, s.Minor)
	return n1 + n2, err
}

func (s *SpecData) Unpack(r io.Reader) (int, error) {
	major, n1, err := xdr.UnpackUint32(r)
	if err != nil {
		return n1, err
	}
	minor, n2, err := xdr.UnpackUint32(r)
	s.Major, s.Minor = major, minor
	return n1 + n2, err
}

// NFSTime is the nfstime3 struct: seconds and nanoseconds since the
// Unix epoch, RFC 1813 §2.5.
type NFSTime struct {
	Seconds  uint32
	Nseconds uint32
}

func (t NFSTime) PackedSize() uint32 { return 8 }

func (t NFSTime) Pack(w io.Writer) (int, error) {
	n1, err := xdr.PackUint32(w, t.Seconds)
	if err != nil {
		return n1, err
	}
	n2, err := xdr.PackUint32(w, t.Nseconds)
	return n1 + n2, err
}

func (t *NFSTime) Unpack(r io.Reader) (int, error) {
	sec, n1, err := xdr.UnpackUint32(r)
	if err != nil {
		return n1, err
	}
	nsec, n2, err := xdr.UnpackUint32(r)
	t.Seconds, t.Nseconds = sec, nsec
	return n1 + n2, err
}

// FileHandle is nfs_fh3: an opaque, variable-length (here always
// fh.Size) handle.
type FileHandle struct {
	Data []byte
}

func (h FileHandle) PackedSize() uint32 {
	return 4 + uint32(xdr.PaddedLen(len(h.Data)))
}

func (h FileHandle) Pack(w io.Writer) (int, error) {
	return xdr.PackOpaque(w, h.Data)
}

func (h *FileHandle) Unpack(r io.Reader) (int, error) {
	data, n, err := xdr.UnpackOpaque(r)
	h.Data = data
	return n, err
}

// FAttr is fattr3, RFC 1813 §2.5: the full attribute set returned for
// any filesystem object.
type FAttr struct {
	Type       FileType
	Mode       uint32
	Nlink      uint32
	UID        uint32
	GID        uint32
	Size       uint64
	Used       uint64
	Rdev       SpecData
	FSID       uint64
	FileID     uint64
	Atime      NFSTime
	Mtime      NFSTime
	Ctime      NFSTime
}

func (a FAttr) PackedSize() uint32 {
	return a.Type.PackedSize() + 4 + 4 + 4 + 4 + 8 + 8 + a.Rdev.PackedSize() + 8 + 8 +
		a.Atime.PackedSize() + a.Mtime.PackedSize() + a.Ctime.PackedSize()
}

func (a FAttr) Pack(w io.Writer) (int, error) {
	total := 0
	steps := []func() (int, error){
		func() (int, error) { return a.Type.Pack(w) },
		func() (int, error) { return xdr.PackUint32(w, a.Mode) },
		func() (int, error) { return xdr.PackUint32(w, a.Nlink) },
		func() (int, error) { return xdr.PackUint32(w, a.UID) },
		func() (int, error) { return xdr.PackUint32(w, a.GID) },
		func() (int, error) { return xdr.PackUint64(w, a.Size) },
		func() (int, error) { return xdr.PackUint64(w, a.Used) },
		func() (int, error) { return a.Rdev.Pack(w) },
		func() (int, error) { return xdr.PackUint64(w, a.FSID) },
		func() (int, error) { return xdr.PackUint64(w, a.FileID) },
		func() (int, error) { return a.Atime.Pack(w) },
		func() (int, error) { return a.Mtime.Pack(w) },
		func() (int, error) { return a.Ctime.Pack(w) },
	}
	for _, step := range steps {
		n, err := step()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (a *FAttr) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := a.Type.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	u32s := []*uint32{&a.Mode, &a.Nlink, &a.UID, &a.GID}
	for _, f := range u32s {
		v, n, err := xdr.UnpackUint32(r)
		total += n
		if err != nil {
			return total, err
		}
		*f = v
	}
	size, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	used, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	a.Size, a.Used = size, used

	n, err = a.Rdev.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}

	fsid, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	fileid, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	a.FSID, a.FileID = fsid, fileid

	for _, t := range []*NFSTime{&a.Atime, &a.Mtime, &a.Ctime} {
		n, err = t.Unpack(r)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// PostOpAttr is post_op_attr: an optional FAttr following an operation.
type PostOpAttr struct {
	Attr *FAttr
}

func (p PostOpAttr) PackedSize() uint32 { return xdr.PackedSizeOptional(p.Attr) }

func (p PostOpAttr) Pack(w io.Writer) (int, error) {
	return xdr.PackOptional(w, p.Attr)
}

func (p *PostOpAttr) Unpack(r io.Reader) (int, error) {
	present, n, err := xdr.UnpackBool(r)
	if err != nil {
		return n, err
	}
	if !present {
		p.Attr = nil
		return n, nil
	}
	var a FAttr
	an, err := a.Unpack(r)
	if err != nil {
		return n + an, err
	}
	p.Attr = &a
	return n + an, nil
}

// WccAttr is wcc_attr: the cheap pre-operation snapshot (size, mtime,
// ctime) used for weak cache consistency.
type WccAttr struct {
	Size  uint64
	Mtime NFSTime
	Ctime NFSTime
}

func (w WccAttr) PackedSize() uint32 { return 8 + w.Mtime.PackedSize() + w.Ctime.PackedSize() }

func (a WccAttr) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := xdr.PackUint64(w, a.Size)
	total += n
	if err != nil {
		return total, err
	}
	n, err = a.Mtime.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = a.Ctime.Pack(w)
	return total + n, err
}

func (a *WccAttr) Unpack(r io.Reader) (int, error) {
	total := 0
	size, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	a.Size = size
	n, err = a.Mtime.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = a.Ctime.Unpack(r)
	return total + n, err
}

// PreOpAttr is pre_op_attr: an optional WccAttr.
type PreOpAttr struct {
	Attr *WccAttr
}

func (p PreOpAttr) PackedSize() uint32 { return xdr.PackedSizeOptional(p.Attr) }

func (p PreOpAttr) Pack(w io.Writer) (int, error) {
	return xdr.PackOptional(w, p.Attr)
}

func (p *PreOpAttr) Unpack(r io.Reader) (int, error) {
	present, n, err := xdr.UnpackBool(r)
	if err != nil {
		return n, err
	}
	if !present {
		p.Attr = nil
		return n, nil
	}
	var a WccAttr
	an, err := a.Unpack(r)
	if err != nil {
		return n + an, err
	}
	p.Attr = &a
	return n + an, nil
}

// WccData is wcc_data: the {before, after} pair every mutating procedure
// returns so a client can detect a concurrent race without locking.
type WccData struct {
	Before PreOpAttr
	After  PostOpAttr
}

func (w WccData) PackedSize() uint32 { return w.Before.PackedSize() + w.After.PackedSize() }

func (w WccData) Pack(wr io.Writer) (int, error) {
	n1, err := w.Before.Pack(wr)
	if err != nil {
		return n1, err
	}
	n2, err := w.After.Pack(wr)
	return n1 + n2, err
}

func (w *WccData) Unpack(r io.Reader) (int, error) {
	n1, err := w.Before.Unpack(r)
	if err != nil {
		return n1, err
	}
	n2, err := w.After.Unpack(r)
	return n1 + n2, err
}

// PostOpFH is post_op_fh3: an optional file handle, used by CREATE-style
// replies whose object may not have a handle (e.g. a failed EXCLUSIVE
// create) and by READDIRPLUS entries.
type PostOpFH struct {
	Handle *FileHandle
}

func (p PostOpFH) PackedSize() uint32 { return xdr.PackedSizeOptional(p.Handle) }

func (p PostOpFH) Pack(w io.Writer) (int, error) {
	return xdr.PackOptional(w, p.Handle)
}

func (p *PostOpFH) Unpack(r io.Reader) (int, error) {
	present, n, err := xdr.UnpackBool(r)
	if err != nil {
		return n, err
	}
	if !present {
		p.Handle = nil
		return n, nil
	}
	var h FileHandle
	hn, err := h.Unpack(r)
	if err != nil {
		return n + hn, err
	}
	p.Handle = &h
	return n + hn, nil
}
