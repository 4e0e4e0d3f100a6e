package nfs3

import (
	"io"

	"github.com/Vaiz/nfs3-sub000/xdr"
)

// TimeHow is the set_atime/set_mtime discriminant, RFC 1813 §2.6.
type TimeHow uint32

const (
	TimeDontChange TimeHow = 0
	TimeSetToServer TimeHow = 1
	TimeSetToClient TimeHow = 2
)

// SetTime carries an optional attribute-time mutation: DONT_CHANGE,
// SET_TO_SERVER_TIME, or SET_TO_CLIENT_TIME{NFSTime}.
type SetTime struct {
	How  TimeHow
	Time NFSTime // meaningful only when How == TimeSetToClient
}

func (s SetTime) PackedSize() uint32 {
	if s.How == TimeSetToClient {
		return 4 + s.Time.PackedSize()
	}
	return 4
}

func (s SetTime) Pack(w io.Writer) (int, error) {
	n, err := xdr.PackUint32(w, uint32(s.How))
	if err != nil {
		return n, err
	}
	if s.How != TimeSetToClient {
		return n, nil
	}
	tn, err := s.Time.Pack(w)
	return n + tn, err
}

func (s *SetTime) Unpack(r io.Reader) (int, error) {
	v, n, err := xdr.UnpackUint32(r)
	if err != nil {
		return n, err
	}
	switch TimeHow(v) {
	case TimeDontChange, TimeSetToServer:
		s.How = TimeHow(v)
		return n, nil
	case TimeSetToClient:
		s.How = TimeSetToClient
		tn, err := s.Time.Unpack(r)
		return n + tn, err
	default:
		return n, &xdr.InvalidEnumValueError{Value: v, Type: "time_how"}
	}
}

// setUint32 is the optional-uint32 pattern shared by set_mode3, set_uid3,
// and set_gid3.
type setUint32 struct {
	Value *uint32
}

func (s setUint32) PackedSize() uint32 {
	if s.Value == nil {
		return 4
	}
	return 8
}

func (s setUint32) Pack(w io.Writer) (int, error) {
	if s.Value == nil {
		return xdr.PackBool(w, false)
	}
	n, err := xdr.PackBool(w, true)
	if err != nil {
		return n, err
	}
	vn, err := xdr.PackUint32(w, *s.Value)
	return n + vn, err
}

func (s *setUint32) Unpack(r io.Reader) (int, error) {
	present, n, err := xdr.UnpackBool(r)
	if err != nil {
		return n, err
	}
	if !present {
		s.Value = nil
		return n, nil
	}
	v, vn, err := xdr.UnpackUint32(r)
	if err != nil {
		return n + vn, err
	}
	s.Value = &v
	return n + vn, nil
}

// setUint64 is the optional-uint64 pattern used by set_size3.
type setUint64 struct {
	Value *uint64
}

func (s setUint64) PackedSize() uint32 {
	if s.Value == nil {
		return 4
	}
	return 12
}

func (s setUint64) Pack(w io.Writer) (int, error) {
	if s.Value == nil {
		return xdr.PackBool(w, false)
	}
	n, err := xdr.PackBool(w, true)
	if err != nil {
		return n, err
	}
	vn, err := xdr.PackUint64(w, *s.Value)
	return n + vn, err
}

func (s *setUint64) Unpack(r io.Reader) (int, error) {
	present, n, err := xdr.UnpackBool(r)
	if err != nil {
		return n, err
	}
	if !present {
		s.Value = nil
		return n, nil
	}
	v, vn, err := xdr.UnpackUint64(r)
	if err != nil {
		return n + vn, err
	}
	s.Value = &v
	return n + vn, nil
}

// SAttr is sattr3, RFC 1813 §2.6: a set of optional attribute mutations.
// Each field that is non-nil (or not TimeDontChange) is applied; absent
// fields are left untouched.
type SAttr struct {
	Mode  *uint32
	UID   *uint32
	GID   *uint32
	Size  *uint64
	Atime SetTime
	Mtime SetTime
}

func (a SAttr) PackedSize() uint32 {
	return (setUint32{a.Mode}).PackedSize() +
		(setUint32{a.UID}).PackedSize() +
		(setUint32{a.GID}).PackedSize() +
		(setUint64{a.Size}).PackedSize() +
		a.Atime.PackedSize() + a.Mtime.PackedSize()
}

func (a SAttr) Pack(w io.Writer) (int, error) {
	total := 0
	for _, step := range []func() (int, error){
		func() (int, error) { return (setUint32{a.Mode}).Pack(w) },
		func() (int, error) { return (setUint32{a.UID}).Pack(w) },
		func() (int, error) { return (setUint32{a.GID}).Pack(w) },
		func() (int, error) { return (setUint64{a.Size}).Pack(w) },
		func() (int, error) { return a.Atime.Pack(w) },
		func() (int, error) { return a.Mtime.Pack(w) },
	} {
		n, err := step()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (a *SAttr) Unpack(r io.Reader) (int, error) {
	total := 0
	var mode, uid, gid setUint32
	var size setUint64
	for _, step := range []func() (int, error){
		func() (int, error) { return mode.Unpack(r) },
		func() (int, error) { return uid.Unpack(r) },
		func() (int, error) { return gid.Unpack(r) },
		func() (int, error) { return size.Unpack(r) },
		func() (int, error) { return a.Atime.Unpack(r) },
		func() (int, error) { return a.Mtime.Unpack(r) },
	} {
		n, err := step()
		total += n
		if err != nil {
			return total, err
		}
	}
	a.Mode, a.UID, a.GID, a.Size = mode.Value, uid.Value, gid.Value, size.Value
	return total, nil
}

// CreateMode is createmode3, RFC 1813 §2.6: how CREATE should behave
// when the target name already exists.
type CreateMode uint32

const (
	CreateUnchecked CreateMode = 0
	CreateGuarded   CreateMode = 1
	CreateExclusive CreateMode = 2
)

// StableHow is stable_how, RFC 1813 §2.6: the durability level WRITE
// requests for the bytes it carries.
type StableHow uint32

const (
	Unstable  StableHow = 0
	DataSync  StableHow = 1
	FileSync  StableHow = 2
)

func (s StableHow) PackedSize() uint32 { return 4 }

func (s StableHow) Pack(w io.Writer) (int, error) { return xdr.PackUint32(w, uint32(s)) }

func (s *StableHow) Unpack(r io.Reader) (int, error) {
	v, n, err := xdr.UnpackUint32(r)
	*s = StableHow(v)
	return n, err
}

// Access mode bits, RFC 1813 §3.3.4.
const (
	AccessRead    uint32 = 0x0001
	AccessLookup  uint32 = 0x0002
	AccessModify  uint32 = 0x0004
	AccessExtend  uint32 = 0x0008
	AccessDelete  uint32 = 0x0010
	AccessExecute uint32 = 0x0020
)

// AccessAll is the union of every access bit defined above.
const AccessAll = AccessRead | AccessLookup | AccessModify | AccessExtend | AccessDelete | AccessExecute
