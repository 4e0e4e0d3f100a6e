package nfs3

import (
	"io"

	"github.com/Vaiz/nfs3-sub000/xdr"
)

// ============================================================================
// Shared argument/result shapes
// ============================================================================

// DirOpArgs is the common {dir, name} pair used by LOOKUP, CREATE, MKDIR,
// SYMLINK, MKNOD, REMOVE, and RMDIR.
type DirOpArgs struct {
	Dir  FileHandle
	Name string
}

func (a DirOpArgs) PackedSize() uint32 {
	return a.Dir.PackedSize() + 4 + uint32(xdr.PaddedLen(len(a.Name)))
}

func (a DirOpArgs) Pack(w io.Writer) (int, error) {
	n1, err := a.Dir.Pack(w)
	if err != nil {
		return n1, err
	}
	n2, err := xdr.PackString(w, a.Name)
	return n1 + n2, err
}

func (a *DirOpArgs) Unpack(r io.Reader) (int, error) {
	n1, err := a.Dir.Unpack(r)
	if err != nil {
		return n1, err
	}
	name, n2, err := xdr.UnpackString(r)
	a.Name = name
	return n1 + n2, err
}

// GetattrArgs / GetattrResult
type GetattrArgs struct{ Object FileHandle }

func (a GetattrArgs) PackedSize() uint32           { return a.Object.PackedSize() }
func (a GetattrArgs) Pack(w io.Writer) (int, error) { return a.Object.Pack(w) }
func (a *GetattrArgs) Unpack(r io.Reader) (int, error) { return a.Object.Unpack(r) }

type GetattrResultOK struct{ Attributes FAttr }

// SetattrArgs
type SAttrGuard struct{ Ctime *NFSTime }

func (g SAttrGuard) PackedSize() uint32 {
	if g.Ctime == nil {
		return 4
	}
	return 4 + g.Ctime.PackedSize()
}

func (g SAttrGuard) Pack(w io.Writer) (int, error) {
	if g.Ctime == nil {
		return xdr.PackBool(w, false)
	}
	n, err := xdr.PackBool(w, true)
	if err != nil {
		return n, err
	}
	tn, err := g.Ctime.Pack(w)
	return n + tn, err
}

func (g *SAttrGuard) Unpack(r io.Reader) (int, error) {
	present, n, err := xdr.UnpackBool(r)
	if err != nil {
		return n, err
	}
	if !present {
		g.Ctime = nil
		return n, nil
	}
	var t NFSTime
	tn, err := t.Unpack(r)
	if err != nil {
		return n + tn, err
	}
	g.Ctime = &t
	return n + tn, nil
}

type SetattrArgs struct {
	Object  FileHandle
	NewAttr SAttr
	Guard   SAttrGuard
}

func (a SetattrArgs) PackedSize() uint32 {
	return a.Object.PackedSize() + a.NewAttr.PackedSize() + a.Guard.PackedSize()
}

func (a SetattrArgs) Pack(w io.Writer) (int, error) {
	total := 0
	for _, step := range []func() (int, error){
		func() (int, error) { return a.Object.Pack(w) },
		func() (int, error) { return a.NewAttr.Pack(w) },
		func() (int, error) { return a.Guard.Pack(w) },
	} {
		n, err := step()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (a *SetattrArgs) Unpack(r io.Reader) (int, error) {
	total := 0
	for _, step := range []func() (int, error){
		func() (int, error) { return a.Object.Unpack(r) },
		func() (int, error) { return a.NewAttr.Unpack(r) },
		func() (int, error) { return a.Guard.Unpack(r) },
	} {
		n, err := step()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// LookupArgs / LookupResultOK
type LookupArgs = DirOpArgs

type LookupResultOK struct {
	Object    FileHandle
	ObjAttr   PostOpAttr
	DirAttr   PostOpAttr
}

// AccessArgs / AccessResultOK
type AccessArgs struct {
	Object FileHandle
	Access uint32
}

func (a AccessArgs) PackedSize() uint32 { return a.Object.PackedSize() + 4 }

func (a AccessArgs) Pack(w io.Writer) (int, error) {
	n1, err := a.Object.Pack(w)
	if err != nil {
		return n1, err
	}
	n2, err := xdr.PackUint32(w, a.Access)
	return n1 + n2, err
}

func (a *AccessArgs) Unpack(r io.Reader) (int, error) {
	n1, err := a.Object.Unpack(r)
	if err != nil {
		return n1, err
	}
	v, n2, err := xdr.UnpackUint32(r)
	a.Access = v
	return n1 + n2, err
}

type AccessResultOK struct {
	ObjAttr PostOpAttr
	Access  uint32
}

// ReadlinkArgs
type ReadlinkArgs struct{ Symlink FileHandle }

func (a ReadlinkArgs) PackedSize() uint32            { return a.Symlink.PackedSize() }
func (a ReadlinkArgs) Pack(w io.Writer) (int, error) { return a.Symlink.Pack(w) }
func (a *ReadlinkArgs) Unpack(r io.Reader) (int, error) { return a.Symlink.Unpack(r) }

type ReadlinkResultOK struct {
	SymlinkAttr PostOpAttr
	Data        string
}

// ReadArgs / ReadResultOK
type ReadArgs struct {
	File   FileHandle
	Offset uint64
	Count  uint32
}

func (a ReadArgs) PackedSize() uint32 { return a.File.PackedSize() + 8 + 4 }

func (a ReadArgs) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := a.File.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint64(w, a.Offset)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint32(w, a.Count)
	return total + n, err
}

func (a *ReadArgs) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := a.File.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	off, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	cnt, n, err := xdr.UnpackUint32(r)
	total += n
	a.Offset, a.Count = off, cnt
	return total, err
}

type ReadResultOK struct {
	FileAttr PostOpAttr
	Count    uint32
	EOF      bool
	Data     []byte
}

// WriteArgs / WriteResultOK
type WriteArgs struct {
	File   FileHandle
	Offset uint64
	Count  uint32
	Stable StableHow
	Data   []byte
}

func (a WriteArgs) PackedSize() uint32 {
	return a.File.PackedSize() + 8 + 4 + a.Stable.PackedSize() + 4 + uint32(xdr.PaddedLen(len(a.Data)))
}

func (a WriteArgs) Pack(w io.Writer) (int, error) {
	total := 0
	for _, step := range []func() (int, error){
		func() (int, error) { return a.File.Pack(w) },
		func() (int, error) { return xdr.PackUint64(w, a.Offset) },
		func() (int, error) { return xdr.PackUint32(w, a.Count) },
		func() (int, error) { return a.Stable.Pack(w) },
		func() (int, error) { return xdr.PackOpaque(w, a.Data) },
	} {
		n, err := step()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (a *WriteArgs) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := a.File.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	off, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	cnt, n, err := xdr.UnpackUint32(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = a.Stable.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	data, n, err := xdr.UnpackOpaque(r)
	total += n
	a.Offset, a.Count, a.Data = off, cnt, data
	return total, err
}

type WriteResultOK struct {
	FileWcc  WccData
	Count    uint32
	Committed StableHow
	Verf     [8]byte
}

// CreateHow is the createmode3 discriminated union carried in CREATE args.
type CreateHow struct {
	Mode CreateMode
	Attr SAttr    // UNCHECKED / GUARDED
	Verf [8]byte  // EXCLUSIVE
}

func (c CreateHow) PackedSize() uint32 {
	switch c.Mode {
	case CreateExclusive:
		return 4 + 8
	default:
		return 4 + c.Attr.PackedSize()
	}
}

func (c CreateHow) Pack(w io.Writer) (int, error) {
	n, err := xdr.PackUint32(w, uint32(c.Mode))
	if err != nil {
		return n, err
	}
	if c.Mode == CreateExclusive {
		vn, err := xdr.PackFixedOpaque(w, c.Verf[:])
		return n + vn, err
	}
	an, err := c.Attr.Pack(w)
	return n + an, err
}

func (c *CreateHow) Unpack(r io.Reader) (int, error) {
	v, n, err := xdr.UnpackUint32(r)
	if err != nil {
		return n, err
	}
	switch CreateMode(v) {
	case CreateUnchecked, CreateGuarded:
		c.Mode = CreateMode(v)
		an, err := c.Attr.Unpack(r)
		return n + an, err
	case CreateExclusive:
		c.Mode = CreateExclusive
		vn, err := xdr.UnpackFixedOpaque(r, c.Verf[:])
		return n + vn, err
	default:
		return n, &xdr.InvalidEnumValueError{Value: v, Type: "createmode3"}
	}
}

// CreateArgs / MkdirArgs share the {dir,name,attrs} shape modulo the
// create-mode union, so CREATE gets its own struct while MKDIR reuses
// DirOpArgs + SAttr directly.
type CreateArgs struct {
	Where DirOpArgs
	How   CreateHow
}

func (a CreateArgs) PackedSize() uint32 { return a.Where.PackedSize() + a.How.PackedSize() }

func (a CreateArgs) Pack(w io.Writer) (int, error) {
	n1, err := a.Where.Pack(w)
	if err != nil {
		return n1, err
	}
	n2, err := a.How.Pack(w)
	return n1 + n2, err
}

func (a *CreateArgs) Unpack(r io.Reader) (int, error) {
	n1, err := a.Where.Unpack(r)
	if err != nil {
		return n1, err
	}
	n2, err := a.How.Unpack(r)
	return n1 + n2, err
}

type CreateResultOK struct {
	Handle  PostOpFH
	ObjAttr PostOpAttr
	DirWcc  WccData
}

type MkdirArgs struct {
	Where DirOpArgs
	Attr  SAttr
}

func (a MkdirArgs) PackedSize() uint32 { return a.Where.PackedSize() + a.Attr.PackedSize() }

func (a MkdirArgs) Pack(w io.Writer) (int, error) {
	n1, err := a.Where.Pack(w)
	if err != nil {
		return n1, err
	}
	n2, err := a.Attr.Pack(w)
	return n1 + n2, err
}

func (a *MkdirArgs) Unpack(r io.Reader) (int, error) {
	n1, err := a.Where.Unpack(r)
	if err != nil {
		return n1, err
	}
	n2, err := a.Attr.Unpack(r)
	return n1 + n2, err
}

type MkdirResultOK = CreateResultOK

type SymlinkArgs struct {
	Where DirOpArgs
	Attr  SAttr
	Data  string
}

func (a SymlinkArgs) PackedSize() uint32 {
	return a.Where.PackedSize() + a.Attr.PackedSize() + 4 + uint32(xdr.PaddedLen(len(a.Data)))
}

func (a SymlinkArgs) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := a.Where.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = a.Attr.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackString(w, a.Data)
	return total + n, err
}

func (a *SymlinkArgs) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := a.Where.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = a.Attr.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	data, n, err := xdr.UnpackString(r)
	total += n
	a.Data = data
	return total, err
}

type SymlinkResultOK = CreateResultOK

type MknodData struct {
	Type FileType
	Attr SAttr    // regular device types
	Spec SpecData // block/char only
}

func (d MknodData) PackedSize() uint32 {
	switch d.Type {
	case FileTypeChr, FileTypeBlk:
		return d.Type.PackedSize() + d.Attr.PackedSize() + d.Spec.PackedSize()
	default:
		return d.Type.PackedSize() + d.Attr.PackedSize()
	}
}

func (d MknodData) Pack(w io.Writer) (int, error) {
	n, err := d.Type.Pack(w)
	if err != nil {
		return n, err
	}
	an, err := d.Attr.Pack(w)
	n += an
	if err != nil {
		return n, err
	}
	if d.Type == FileTypeChr || d.Type == FileTypeBlk {
		sn, err := d.Spec.Pack(w)
		return n + sn, err
	}
	return n, nil
}

func (d *MknodData) Unpack(r io.Reader) (int, error) {
	n, err := d.Type.Unpack(r)
	if err != nil {
		return n, err
	}
	an, err := d.Attr.Unpack(r)
	n += an
	if err != nil {
		return n, err
	}
	if d.Type == FileTypeChr || d.Type == FileTypeBlk {
		sn, err := d.Spec.Unpack(r)
		return n + sn, err
	}
	return n, nil
}

type MknodArgs struct {
	Where DirOpArgs
	What  MknodData
}

func (a MknodArgs) PackedSize() uint32 { return a.Where.PackedSize() + a.What.PackedSize() }

func (a MknodArgs) Pack(w io.Writer) (int, error) {
	n1, err := a.Where.Pack(w)
	if err != nil {
		return n1, err
	}
	n2, err := a.What.Pack(w)
	return n1 + n2, err
}

func (a *MknodArgs) Unpack(r io.Reader) (int, error) {
	n1, err := a.Where.Unpack(r)
	if err != nil {
		return n1, err
	}
	n2, err := a.What.Unpack(r)
	return n1 + n2, err
}

type MknodResultOK = CreateResultOK

// RemoveArgs / RmdirArgs
type RemoveArgs = DirOpArgs
type RmdirArgs = DirOpArgs

type RemoveResultOK struct{ DirWcc WccData }
type RmdirResultOK = RemoveResultOK

// RenameArgs
type RenameArgs struct {
	From DirOpArgs
	To   DirOpArgs
}

func (a RenameArgs) PackedSize() uint32 { return a.From.PackedSize() + a.To.PackedSize() }

func (a RenameArgs) Pack(w io.Writer) (int, error) {
	n1, err := a.From.Pack(w)
	if err != nil {
		return n1, err
	}
	n2, err := a.To.Pack(w)
	return n1 + n2, err
}

func (a *RenameArgs) Unpack(r io.Reader) (int, error) {
	n1, err := a.From.Unpack(r)
	if err != nil {
		return n1, err
	}
	n2, err := a.To.Unpack(r)
	return n1 + n2, err
}

type RenameResultOK struct {
	FromDirWcc WccData
	ToDirWcc   WccData
}

// LinkArgs
type LinkArgs struct {
	File FileHandle
	Link DirOpArgs
}

func (a LinkArgs) PackedSize() uint32 { return a.File.PackedSize() + a.Link.PackedSize() }

func (a LinkArgs) Pack(w io.Writer) (int, error) {
	n1, err := a.File.Pack(w)
	if err != nil {
		return n1, err
	}
	n2, err := a.Link.Pack(w)
	return n1 + n2, err
}

func (a *LinkArgs) Unpack(r io.Reader) (int, error) {
	n1, err := a.File.Unpack(r)
	if err != nil {
		return n1, err
	}
	n2, err := a.Link.Unpack(r)
	return n1 + n2, err
}

type LinkResultOK struct {
	FileAttr PostOpAttr
	LinkDirWcc WccData
}

// ReaddirArgs / ReaddirResultOK are declared in readdir.go alongside
// ReaddirplusArgs, since their bounded-list encoding is tightly coupled
// to the byte-budget logic the engine needs at decode time.

// FsstatArgs / FsstatResultOK
type FsstatArgs struct{ FSRoot FileHandle }

func (a FsstatArgs) PackedSize() uint32            { return a.FSRoot.PackedSize() }
func (a FsstatArgs) Pack(w io.Writer) (int, error) { return a.FSRoot.Pack(w) }
func (a *FsstatArgs) Unpack(r io.Reader) (int, error) { return a.FSRoot.Unpack(r) }

type FsstatResultOK struct {
	Attr       PostOpAttr
	TBytes     uint64
	FBytes     uint64
	ABytes     uint64
	TFiles     uint64
	FFiles     uint64
	AFiles     uint64
	Invarsec   uint32
}

// FsinfoArgs / FsinfoResultOK
type FsinfoArgs struct{ FSRoot FileHandle }

func (a FsinfoArgs) PackedSize() uint32            { return a.FSRoot.PackedSize() }
func (a FsinfoArgs) Pack(w io.Writer) (int, error) { return a.FSRoot.Pack(w) }
func (a *FsinfoArgs) Unpack(r io.Reader) (int, error) { return a.FSRoot.Unpack(r) }

// FSInfo properties flags, RFC 1813 §3.3.19.
const (
	FSFLinkSupport  uint32 = 0x0001
	FSFSymlinkSupport uint32 = 0x0002
	FSFHomogeneous  uint32 = 0x0008
	FSFCanSetTime   uint32 = 0x0010
)

type FsinfoResultOK struct {
	Attr         PostOpAttr
	Rtmax        uint32
	Rtpref       uint32
	Rtmult       uint32
	Wtmax        uint32
	Wtpref       uint32
	Wtmult       uint32
	Dtpref       uint32
	MaxFilesize  uint64
	TimeDelta    NFSTime
	Properties   uint32
}

// PathconfArgs / PathconfResultOK
type PathconfArgs struct{ Object FileHandle }

func (a PathconfArgs) PackedSize() uint32            { return a.Object.PackedSize() }
func (a PathconfArgs) Pack(w io.Writer) (int, error) { return a.Object.Pack(w) }
func (a *PathconfArgs) Unpack(r io.Reader) (int, error) { return a.Object.Unpack(r) }

type PathconfResultOK struct {
	Attr          PostOpAttr
	LinkMax       uint32
	NameMax       uint32
	NoTrunc       bool
	ChownRestricted bool
	CaseInsensitive bool
	CasePreserving  bool
}

// CommitArgs / CommitResultOK
type CommitArgs struct {
	File   FileHandle
	Offset uint64
	Count  uint32
}

func (a CommitArgs) PackedSize() uint32 { return a.File.PackedSize() + 8 + 4 }

func (a CommitArgs) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := a.File.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint64(w, a.Offset)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint32(w, a.Count)
	return total + n, err
}

func (a *CommitArgs) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := a.File.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	off, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	cnt, n, err := xdr.UnpackUint32(r)
	total += n
	a.Offset, a.Count = off, cnt
	return total, err
}

type CommitResultOK struct {
	FileWcc WccData
	Verf    [8]byte
}
