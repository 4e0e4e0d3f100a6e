package nfs3

import (
	"io"

	"github.com/Vaiz/nfs3-sub000/xdr"
)

// ReaddirArgs is the READDIR3args, RFC 1813 §3.3.16.
type ReaddirArgs struct {
	Dir        FileHandle
	Cookie     uint64
	CookieVerf [8]byte
	Count      uint32
}

func (a ReaddirArgs) PackedSize() uint32 { return a.Dir.PackedSize() + 8 + 8 + 4 }

func (a ReaddirArgs) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := a.Dir.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint64(w, a.Cookie)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackFixedOpaque(w, a.CookieVerf[:])
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint32(w, a.Count)
	return total + n, err
}

func (a *ReaddirArgs) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := a.Dir.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	cookie, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.UnpackFixedOpaque(r, a.CookieVerf[:])
	total += n
	if err != nil {
		return total, err
	}
	count, n, err := xdr.UnpackUint32(r)
	total += n
	a.Cookie, a.Count = cookie, count
	return total, err
}

// DirEntry is entry3: one name in a READDIR reply.
type DirEntry struct {
	FileID uint64
	Name   string
	Cookie uint64
}

func (e DirEntry) PackedSize() uint32 {
	return 8 + 4 + uint32(xdr.PaddedLen(len(e.Name))) + 8
}

func (e DirEntry) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := xdr.PackUint64(w, e.FileID)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackString(w, e.Name)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint64(w, e.Cookie)
	return total + n, err
}

func (e *DirEntry) Unpack(r io.Reader) (int, error) {
	total := 0
	id, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	name, n, err := xdr.UnpackString(r)
	total += n
	if err != nil {
		return total, err
	}
	cookie, n, err := xdr.UnpackUint64(r)
	total += n
	e.FileID, e.Name, e.Cookie = id, name, cookie
	return total, err
}

// ReaddirResultOK is the success arm of READDIR3res, carrying the
// directory's post-op attributes, the cookie verifier entries were
// listed under, the named list of entries, and an eof flag.
type ReaddirResultOK struct {
	DirAttr    PostOpAttr
	CookieVerf [8]byte
	Entries    []DirEntry
	EOF        bool
}

func (r ReaddirResultOK) PackedSize() uint32 {
	total := r.DirAttr.PackedSize() + 8
	for _, e := range r.Entries {
		total += 4 + e.PackedSize()
	}
	return total + 4 + 4 // list terminator + eof
}

func (res ReaddirResultOK) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := res.DirAttr.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackFixedOpaque(w, res.CookieVerf[:])
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackNamedList(w, res.Entries)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackBool(w, res.EOF)
	return total + n, err
}

func (res *ReaddirResultOK) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := res.DirAttr.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.UnpackFixedOpaque(r, res.CookieVerf[:])
	total += n
	if err != nil {
		return total, err
	}
	entries, n, err := xdr.UnpackNamedList(r, func() *DirEntry { return &DirEntry{} })
	total += n
	if err != nil {
		return total, err
	}
	for _, e := range entries {
		res.Entries = append(res.Entries, *e)
	}
	eof, n, err := xdr.UnpackBool(r)
	total += n
	res.EOF = eof
	return total, err
}

// DirEntryPlus is entryplus3: a READDIRPLUS entry carrying the child's
// attributes and handle alongside the name/cookie READDIR already gives.
type DirEntryPlus struct {
	FileID     uint64
	Name       string
	Cookie     uint64
	NameAttr   PostOpAttr
	NameHandle PostOpFH
}

func (e DirEntryPlus) PackedSize() uint32 {
	return 8 + 4 + uint32(xdr.PaddedLen(len(e.Name))) + 8 + e.NameAttr.PackedSize() + e.NameHandle.PackedSize()
}

func (e DirEntryPlus) Pack(w io.Writer) (int, error) {
	total := 0
	for _, step := range []func() (int, error){
		func() (int, error) { return xdr.PackUint64(w, e.FileID) },
		func() (int, error) { return xdr.PackString(w, e.Name) },
		func() (int, error) { return xdr.PackUint64(w, e.Cookie) },
		func() (int, error) { return e.NameAttr.Pack(w) },
		func() (int, error) { return e.NameHandle.Pack(w) },
	} {
		n, err := step()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (e *DirEntryPlus) Unpack(r io.Reader) (int, error) {
	total := 0
	id, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	name, n, err := xdr.UnpackString(r)
	total += n
	if err != nil {
		return total, err
	}
	cookie, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	e.FileID, e.Name, e.Cookie = id, name, cookie
	n, err = e.NameAttr.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = e.NameHandle.Unpack(r)
	return total + n, err
}

// ReaddirplusArgs is READDIRPLUS3args, RFC 1813 §3.3.17: like
// ReaddirArgs but with two independent byte budgets.
type ReaddirplusArgs struct {
	Dir        FileHandle
	Cookie     uint64
	CookieVerf [8]byte
	DirCount   uint32
	MaxCount   uint32
}

func (a ReaddirplusArgs) PackedSize() uint32 { return a.Dir.PackedSize() + 8 + 8 + 4 + 4 }

func (a ReaddirplusArgs) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := a.Dir.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint64(w, a.Cookie)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackFixedOpaque(w, a.CookieVerf[:])
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint32(w, a.DirCount)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint32(w, a.MaxCount)
	return total + n, err
}

func (a *ReaddirplusArgs) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := a.Dir.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	cookie, n, err := xdr.UnpackUint64(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.UnpackFixedOpaque(r, a.CookieVerf[:])
	total += n
	if err != nil {
		return total, err
	}
	dc, n, err := xdr.UnpackUint32(r)
	total += n
	if err != nil {
		return total, err
	}
	mc, n, err := xdr.UnpackUint32(r)
	total += n
	a.Cookie, a.DirCount, a.MaxCount = cookie, dc, mc
	return total, err
}

// ReaddirplusResultOK is the success arm of READDIRPLUS3res.
type ReaddirplusResultOK struct {
	DirAttr    PostOpAttr
	CookieVerf [8]byte
	Entries    []DirEntryPlus
	EOF        bool
}

func (res ReaddirplusResultOK) PackedSize() uint32 {
	total := res.DirAttr.PackedSize() + 8
	for _, e := range res.Entries {
		total += 4 + e.PackedSize()
	}
	return total + 4 + 4
}

func (res ReaddirplusResultOK) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := res.DirAttr.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackFixedOpaque(w, res.CookieVerf[:])
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackNamedList(w, res.Entries)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackBool(w, res.EOF)
	return total + n, err
}

func (res *ReaddirplusResultOK) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := res.DirAttr.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.UnpackFixedOpaque(r, res.CookieVerf[:])
	total += n
	if err != nil {
		return total, err
	}
	entries, n, err := xdr.UnpackNamedList(r, func() *DirEntryPlus { return &DirEntryPlus{} })
	total += n
	if err != nil {
		return total, err
	}
	for _, e := range entries {
		res.Entries = append(res.Entries, *e)
	}
	eof, n, err := xdr.UnpackBool(r)
	total += n
	res.EOF = eof
	return total, err
}

// readdirplusFixedOverhead is the fixed cost reserved in READDIRPLUS's
// maxcount budget for the trailing eof flag and the result's own
// post-op-attr/cookieverf tail. maxcount below this is TOOSMALL before
// any entry is considered.
const readdirplusFixedOverhead = 128
