// Package mount implements the Mount v3 protocol (RFC 1813 Appendix I):
// the wire types and procedure handler a client uses to turn an export
// path into the root file handle it then drives every NFS v3 call
// through. Mirrors the nfs3 package's declarative record style, since
// the two protocols share the same RPC envelope and XDR primitives.
package mount

import (
	"io"

	"github.com/Vaiz/nfs3-sub000/xdr"
)

// Program is the Mount program number, RFC 1813 Appendix I.
const Program uint32 = 100005

// Version3 is the only Mount version this server implements.
const Version3 uint32 = 3

// Procedure numbers, RFC 1813 Appendix I.
const (
	ProcNull     uint32 = 0
	ProcMnt      uint32 = 1
	ProcDump     uint32 = 2
	ProcUmnt     uint32 = 3
	ProcUmntAll  uint32 = 4
	ProcExport   uint32 = 5
)

// FHSize3 is NFS3_FHSIZE, the maximum fhandle3 length, RFC 1813 §2.3.3.
const FHSize3 = 64

// Status is mountstat3, RFC 1813 §5.2.1.
type Status uint32

const (
	StatusOK           Status = 0
	StatusErrPerm      Status = 1
	StatusErrNoEnt     Status = 2
	StatusErrIO        Status = 5
	StatusErrAcces     Status = 13
	StatusErrNotDir    Status = 20
	StatusErrInval     Status = 22
	StatusErrNameTooLong Status = 63
	StatusErrNotSupp   Status = 10004
	StatusErrServerFault Status = 10006
)

func (s Status) PackedSize() uint32 { return 4 }

func (s Status) Pack(w io.Writer) (int, error) {
	n, err := xdr.PackUint32(w, uint32(s))
	return n, err
}

func (s *Status) Unpack(r io.Reader) (int, error) {
	v, n, err := xdr.UnpackUint32(r)
	*s = Status(v)
	return n, err
}

// FileHandle is fhandle3: an opaque, variable-length handle (identical
// wire shape to nfs3.FileHandle, declared separately per protocol the
// way RFC 1813 itself declares two distinct typedefs).
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

// MntArgs is dirpath, MNT's sole argument: the path the client is
// requesting be mounted, relative to the server's configured export.
type MntArgs struct {
	DirPath string
}

func (a MntArgs) PackedSize() uint32 { return 4 + uint32(xdr.PaddedLen(len(a.DirPath))) }

func (a MntArgs) Pack(w io.Writer) (int, error) { return xdr.PackString(w, a.DirPath) }

func (a *MntArgs) Unpack(r io.Reader) (int, error) {
	s, n, err := xdr.UnpackString(r)
	a.DirPath = s
	return n, err
}

// MountOK is mountres3_ok: the root handle plus the auth flavors this
// server accepts for the mounted export.
type MountOK struct {
	Handle      FileHandle
	AuthFlavors []uint32
}

func (m MountOK) PackedSize() uint32 {
	return m.Handle.PackedSize() + 4 + 4*uint32(len(m.AuthFlavors))
}

func (m MountOK) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := m.Handle.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint32(w, uint32(len(m.AuthFlavors)))
	total += n
	if err != nil {
		return total, err
	}
	for _, f := range m.AuthFlavors {
		n, err = xdr.PackUint32(w, f)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (m *MountOK) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := m.Handle.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	count, n, err := xdr.UnpackUint32(r)
	total += n
	if err != nil {
		return total, err
	}
	m.AuthFlavors = make([]uint32, count)
	for i := range m.AuthFlavors {
		v, n, err := xdr.UnpackUint32(r)
		total += n
		if err != nil {
			return total, err
		}
		m.AuthFlavors[i] = v
	}
	return total, nil
}

// MntRes is mountres3: the discriminated union of MNT's reply, tagged by
// Status.
type MntRes struct {
	Status Status
	OK     *MountOK
}

func (m MntRes) PackedSize() uint32 {
	if m.OK == nil {
		return m.Status.PackedSize()
	}
	return m.Status.PackedSize() + m.OK.PackedSize()
}

func (m MntRes) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := m.Status.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	if m.Status != StatusOK {
		return total, nil
	}
	n, err = m.OK.Pack(w)
	return total + n, err
}

func (m *MntRes) Unpack(r io.Reader) (int, error) {
	total := 0
	n, err := m.Status.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	if m.Status != StatusOK {
		return total, nil
	}
	m.OK = &MountOK{}
	n, err = m.OK.Unpack(r)
	return total + n, err
}

// MountEntry is one node of the DUMP reply's linked mountlist, mirroring
// portmap.DumpEntry's encode-as-linked-list shape.
// Next is unused by Pack/Unpack (the dispatcher walks a flat slice and
// lets xdr.PackNamedList supply the boolean-discriminated chaining); it
// exists so callers that prefer to build an actual linked list can.
type MountEntry struct {
	HostName string
	DirPath  string
	Next     *MountEntry
}

func (e MountEntry) PackedSize() uint32 {
	return 4 + uint32(xdr.PaddedLen(len(e.HostName))) + 4 + uint32(xdr.PaddedLen(len(e.DirPath)))
}

func (e MountEntry) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := xdr.PackString(w, e.HostName)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackString(w, e.DirPath)
	return total + n, err
}

func (e *MountEntry) Unpack(r io.Reader) (int, error) {
	host, n1, err := xdr.UnpackString(r)
	if err != nil {
		return n1, err
	}
	path, n2, err := xdr.UnpackString(r)
	e.HostName, e.DirPath = host, path
	return n1 + n2, err
}

// ExportNode is one node of the EXPORT reply's linked exports list:
// a directory path plus the client groups allowed to mount it. This
// server advertises a single export with no group restriction, so
// Groups is always empty.
type ExportNode struct {
	DirPath string
	Groups  []string
	Next    *ExportNode
}

func (e ExportNode) PackedSize() uint32 {
	sz := 4 + uint32(xdr.PaddedLen(len(e.DirPath))) + 4
	for _, g := range e.Groups {
		sz += 4 + 4 + uint32(xdr.PaddedLen(len(g)))
	}
	return sz
}

func (e ExportNode) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := xdr.PackString(w, e.DirPath)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackNamedList(w, stringPackSlice(e.Groups))
	return total + n, err
}

func (e *ExportNode) Unpack(r io.Reader) (int, error) {
	path, n1, err := xdr.UnpackString(r)
	if err != nil {
		return n1, err
	}
	groups, n2, err := xdr.UnpackNamedList(r, func() *packedString { var s packedString; return &s })
	if err != nil {
		return n1 + n2, err
	}
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = string(*g)
	}
	e.DirPath, e.Groups = path, out
	return n1 + n2, nil
}

// stringPackSlice adapts a []string to the xdr.Pack element type
// PackNamedList requires.
type packedString string

func (s packedString) PackedSize() uint32 { return 4 + uint32(xdr.PaddedLen(len(s))) }
func (s packedString) Pack(w io.Writer) (int, error) { return xdr.PackString(w, string(s)) }

func (s *packedString) Unpack(r io.Reader) (int, error) {
	v, n, err := xdr.UnpackString(r)
	*s = packedString(v)
	return n, err
}

func stringPackSlice(ss []string) []packedString {
	out := make([]packedString, len(ss))
	for i, s := range ss {
		out[i] = packedString(s)
	}
	return out
}
