package nfs3

import (
	"io"

	"github.com/Vaiz/nfs3-sub000/xdr"
)

// This file declares the full *Res discriminated union for every
// procedure: a leading Status tag followed by the success arm's fields
// when Status == StatusOK, or the (often partial) failure arm's fields
// otherwise. Each type's Pack method is the union's encoder; the engine
// in handler.go builds these as struct literals, filling OK on success
// and the failure arm's fields otherwise.

func packStatusThen(w io.Writer, status Status, okArm func() (int, error)) (int, error) {
	n, err := status.Pack(w)
	if err != nil || status != StatusOK {
		return n, err
	}
	an, err := okArm()
	return n + an, err
}

// GetattrRes: no failure payload.
type GetattrRes struct {
	Status Status
	OK     GetattrResultOK
}

func (r GetattrRes) Pack(w io.Writer) (int, error) {
	return packStatusThen(w, r.Status, func() (int, error) { return r.OK.Attributes.Pack(w) })
}

func (r *GetattrRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil || r.Status != StatusOK {
		return n, err
	}
	an, err := r.OK.Attributes.Unpack(rd)
	return n + an, err
}

// SetattrRes: wcc_data on both arms.
type SetattrRes struct {
	Status Status
	ObjWcc WccData
}

func (r SetattrRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	an, err := r.ObjWcc.Pack(w)
	return n + an, err
}

func (r *SetattrRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	an, err := r.ObjWcc.Unpack(rd)
	return n + an, err
}

// LookupRes: post_op_attr-only failure arm (dir attrs).
type LookupRes struct {
	Status  Status
	OK      LookupResultOK
	DirAttr PostOpAttr // failure arm
}

func (r LookupRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.Object.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = r.OK.ObjAttr.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = r.OK.DirAttr.Pack(w)
		return n + n1, err
	}
	an, err := r.DirAttr.Pack(w)
	return n + an, err
}

func (r *LookupRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.Object.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = r.OK.ObjAttr.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = r.OK.DirAttr.Unpack(rd)
		return n + n1, err
	}
	an, err := r.DirAttr.Unpack(rd)
	return n + an, err
}

// AccessRes
type AccessRes struct {
	Status  Status
	OK      AccessResultOK
	ObjAttr PostOpAttr // failure arm
}

func (r AccessRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.ObjAttr.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackUint32(w, r.OK.Access)
		return n + n1, err
	}
	an, err := r.ObjAttr.Pack(w)
	return n + an, err
}

func (r *AccessRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.ObjAttr.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		v, n1, err := xdr.UnpackUint32(rd)
		n += n1
		r.OK.Access = v
		return n, err
	}
	an, err := r.ObjAttr.Unpack(rd)
	return n + an, err
}

// ReadlinkRes
type ReadlinkRes struct {
	Status      Status
	OK          ReadlinkResultOK
	SymlinkAttr PostOpAttr
}

func (r ReadlinkRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.SymlinkAttr.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackString(w, r.OK.Data)
		return n + n1, err
	}
	an, err := r.SymlinkAttr.Pack(w)
	return n + an, err
}

func (r *ReadlinkRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.SymlinkAttr.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		s, n1, err := xdr.UnpackString(rd)
		n += n1
		r.OK.Data = s
		return n, err
	}
	an, err := r.SymlinkAttr.Unpack(rd)
	return n + an, err
}

// ReadRes
type ReadRes struct {
	Status   Status
	OK       ReadResultOK
	FileAttr PostOpAttr
}

func (r ReadRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.FileAttr.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackUint32(w, r.OK.Count)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackBool(w, r.OK.EOF)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackOpaque(w, r.OK.Data)
		return n + n1, err
	}
	an, err := r.FileAttr.Pack(w)
	return n + an, err
}

func (r *ReadRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.FileAttr.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		cnt, n1, err := xdr.UnpackUint32(rd)
		n += n1
		if err != nil {
			return n, err
		}
		r.OK.Count = cnt
		eof, n1, err := xdr.UnpackBool(rd)
		n += n1
		if err != nil {
			return n, err
		}
		r.OK.EOF = eof
		data, n1, err := xdr.UnpackOpaque(rd)
		n += n1
		r.OK.Data = data
		return n, err
	}
	an, err := r.FileAttr.Unpack(rd)
	return n + an, err
}

// WriteRes
type WriteRes struct {
	Status  Status
	OK      WriteResultOK
	FileWcc WccData // failure arm
}

func (r WriteRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.FileWcc.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackUint32(w, r.OK.Count)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = r.OK.Committed.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackFixedOpaque(w, r.OK.Verf[:])
		return n + n1, err
	}
	an, err := r.FileWcc.Pack(w)
	return n + an, err
}

func (r *WriteRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.FileWcc.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		cnt, n1, err := xdr.UnpackUint32(rd)
		n += n1
		if err != nil {
			return n, err
		}
		r.OK.Count = cnt
		n1, err = r.OK.Committed.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.UnpackFixedOpaque(rd, r.OK.Verf[:])
		return n + n1, err
	}
	an, err := r.FileWcc.Unpack(rd)
	return n + an, err
}

// CreateRes covers CREATE, MKDIR, SYMLINK, and MKNOD, which share a shape.
type CreateRes struct {
	Status Status
	OK     CreateResultOK
	DirWcc WccData // failure arm
}

func (r CreateRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.Handle.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = r.OK.ObjAttr.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = r.OK.DirWcc.Pack(w)
		return n + n1, err
	}
	an, err := r.DirWcc.Pack(w)
	return n + an, err
}

func (r *CreateRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.Handle.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = r.OK.ObjAttr.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = r.OK.DirWcc.Unpack(rd)
		return n + n1, err
	}
	an, err := r.DirWcc.Unpack(rd)
	return n + an, err
}

// RemoveRes covers REMOVE and RMDIR.
type RemoveRes struct {
	Status Status
	DirWcc WccData
}

func (r RemoveRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	an, err := r.DirWcc.Pack(w)
	return n + an, err
}

func (r *RemoveRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	an, err := r.DirWcc.Unpack(rd)
	return n + an, err
}

// RenameRes
type RenameRes struct {
	Status Status
	OK     RenameResultOK
}

func (r RenameRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	n1, err := r.OK.FromDirWcc.Pack(w)
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = r.OK.ToDirWcc.Pack(w)
	return n + n1, err
}

func (r *RenameRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	n1, err := r.OK.FromDirWcc.Unpack(rd)
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = r.OK.ToDirWcc.Unpack(rd)
	return n + n1, err
}

// LinkRes
type LinkRes struct {
	Status Status
	OK     LinkResultOK
}

func (r LinkRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	n1, err := r.OK.FileAttr.Pack(w)
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = r.OK.LinkDirWcc.Pack(w)
	return n + n1, err
}

func (r *LinkRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	n1, err := r.OK.FileAttr.Unpack(rd)
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = r.OK.LinkDirWcc.Unpack(rd)
	return n + n1, err
}

// ReaddirRes
type ReaddirRes struct {
	Status  Status
	OK      ReaddirResultOK
	DirAttr PostOpAttr
}

func (r ReaddirRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		an, err := r.OK.Pack(w)
		return n + an, err
	}
	an, err := r.DirAttr.Pack(w)
	return n + an, err
}

func (r *ReaddirRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		an, err := r.OK.Unpack(rd)
		return n + an, err
	}
	an, err := r.DirAttr.Unpack(rd)
	return n + an, err
}

// ReaddirplusRes
type ReaddirplusRes struct {
	Status  Status
	OK      ReaddirplusResultOK
	DirAttr PostOpAttr
}

func (r ReaddirplusRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		an, err := r.OK.Pack(w)
		return n + an, err
	}
	an, err := r.DirAttr.Pack(w)
	return n + an, err
}

func (r *ReaddirplusRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		an, err := r.OK.Unpack(rd)
		return n + an, err
	}
	an, err := r.DirAttr.Unpack(rd)
	return n + an, err
}

// FsstatRes
type FsstatRes struct {
	Status Status
	OK     FsstatResultOK
	Attr   PostOpAttr
}

func (r FsstatRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.Attr.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		for _, v := range []uint64{r.OK.TBytes, r.OK.FBytes, r.OK.ABytes, r.OK.TFiles, r.OK.FFiles, r.OK.AFiles} {
			n1, err = xdr.PackUint64(w, v)
			n += n1
			if err != nil {
				return n, err
			}
		}
		n1, err = xdr.PackUint32(w, r.OK.Invarsec)
		return n + n1, err
	}
	an, err := r.Attr.Pack(w)
	return n + an, err
}

func (r *FsstatRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.Attr.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		vals := []*uint64{&r.OK.TBytes, &r.OK.FBytes, &r.OK.ABytes, &r.OK.TFiles, &r.OK.FFiles, &r.OK.AFiles}
		for _, v := range vals {
			x, n1, err := xdr.UnpackUint64(rd)
			n += n1
			if err != nil {
				return n, err
			}
			*v = x
		}
		sec, n1, err := xdr.UnpackUint32(rd)
		n += n1
		r.OK.Invarsec = sec
		return n, err
	}
	an, err := r.Attr.Unpack(rd)
	return n + an, err
}

// FsinfoRes
type FsinfoRes struct {
	Status Status
	OK     FsinfoResultOK
	Attr   PostOpAttr
}

func (r FsinfoRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.Attr.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		for _, v := range []uint32{r.OK.Rtmax, r.OK.Rtpref, r.OK.Rtmult, r.OK.Wtmax, r.OK.Wtpref, r.OK.Wtmult, r.OK.Dtpref} {
			n1, err = xdr.PackUint32(w, v)
			n += n1
			if err != nil {
				return n, err
			}
		}
		n1, err = xdr.PackUint64(w, r.OK.MaxFilesize)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = r.OK.TimeDelta.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackUint32(w, r.OK.Properties)
		return n + n1, err
	}
	an, err := r.Attr.Pack(w)
	return n + an, err
}

func (r *FsinfoRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.Attr.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		vals := []*uint32{&r.OK.Rtmax, &r.OK.Rtpref, &r.OK.Rtmult, &r.OK.Wtmax, &r.OK.Wtpref, &r.OK.Wtmult, &r.OK.Dtpref}
		for _, v := range vals {
			x, n1, err := xdr.UnpackUint32(rd)
			n += n1
			if err != nil {
				return n, err
			}
			*v = x
		}
		maxsz, n1, err := xdr.UnpackUint64(rd)
		n += n1
		if err != nil {
			return n, err
		}
		r.OK.MaxFilesize = maxsz
		n1, err = r.OK.TimeDelta.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		props, n1, err := xdr.UnpackUint32(rd)
		n += n1
		r.OK.Properties = props
		return n, err
	}
	an, err := r.Attr.Unpack(rd)
	return n + an, err
}

// PathconfRes
type PathconfRes struct {
	Status Status
	OK     PathconfResultOK
	Attr   PostOpAttr
}

func (r PathconfRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.Attr.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackUint32(w, r.OK.LinkMax)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackUint32(w, r.OK.NameMax)
		n += n1
		if err != nil {
			return n, err
		}
		for _, b := range []bool{r.OK.NoTrunc, r.OK.ChownRestricted, r.OK.CaseInsensitive, r.OK.CasePreserving} {
			n1, err = xdr.PackBool(w, b)
			n += n1
			if err != nil {
				return n, err
			}
		}
		return n, nil
	}
	an, err := r.Attr.Pack(w)
	return n + an, err
}

func (r *PathconfRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.Attr.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		lm, n1, err := xdr.UnpackUint32(rd)
		n += n1
		if err != nil {
			return n, err
		}
		r.OK.LinkMax = lm
		nm, n1, err := xdr.UnpackUint32(rd)
		n += n1
		if err != nil {
			return n, err
		}
		r.OK.NameMax = nm
		bools := []*bool{&r.OK.NoTrunc, &r.OK.ChownRestricted, &r.OK.CaseInsensitive, &r.OK.CasePreserving}
		for _, b := range bools {
			v, n1, err := xdr.UnpackBool(rd)
			n += n1
			if err != nil {
				return n, err
			}
			*b = v
		}
		return n, nil
	}
	an, err := r.Attr.Unpack(rd)
	return n + an, err
}

// CommitRes
type CommitRes struct {
	Status  Status
	OK      CommitResultOK
	FileWcc WccData
}

func (r CommitRes) Pack(w io.Writer) (int, error) {
	n, err := r.Status.Pack(w)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.FileWcc.Pack(w)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.PackFixedOpaque(w, r.OK.Verf[:])
		return n + n1, err
	}
	an, err := r.FileWcc.Pack(w)
	return n + an, err
}

func (r *CommitRes) Unpack(rd io.Reader) (int, error) {
	n, err := r.Status.Unpack(rd)
	if err != nil {
		return n, err
	}
	if r.Status == StatusOK {
		n1, err := r.OK.FileWcc.Unpack(rd)
		n += n1
		if err != nil {
			return n, err
		}
		n1, err = xdr.UnpackFixedOpaque(rd, r.OK.Verf[:])
		return n + n1, err
	}
	an, err := r.FileWcc.Unpack(rd)
	return n + an, err
}
