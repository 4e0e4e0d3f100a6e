// Package portmap implements the embedded Port Mapper service (RFC 1057
// Appendix A, program 100000) this server advertises itself through: a
// client running rpcinfo or the MOUNT protocol's GETPORT-style discovery
// asks this program which port NFS and MOUNT are listening on.
package portmap

import (
	"io"

	"github.com/Vaiz/nfs3-sub000/xdr"
)

// Program is the Portmap program number, RFC 1057 Appendix A.
const Program uint32 = 100000

// Version2 is the only Portmap version this server implements.
const Version2 uint32 = 2

// Procedure numbers, RFC 1057 Appendix A.
const (
	ProcNull    uint32 = 0
	ProcSet     uint32 = 1
	ProcUnset   uint32 = 2
	ProcGetport uint32 = 3
	ProcDump    uint32 = 4
	ProcCallit  uint32 = 5
)

// Transport protocol numbers, as carried in Mapping.Prot (these are IANA
// protocol numbers, not portmap-specific values).
const (
	ProtoTCP uint32 = 6
	ProtoUDP uint32 = 17
)

// Mapping is a single (program, version, protocol) -> port registration,
// RFC 1057 Appendix A "struct mapping".
type Mapping struct {
	Prog uint32
	Vers uint32
	Prot uint32
	Port uint32
}

// PackedSize returns the number of bytes Pack will write.
func (m Mapping) PackedSize() uint32 { return 16 }

// Pack writes the mapping fields in wire order.
func (m Mapping) Pack(w io.Writer) (int, error) {
	total := 0
	for _, v := range []uint32{m.Prog, m.Vers, m.Prot, m.Port} {
		n, err := xdr.PackUint32(w, v)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Unpack reads the mapping fields.
func (m *Mapping) Unpack(r io.Reader) (int, error) {
	total := 0
	fields := []*uint32{&m.Prog, &m.Vers, &m.Prot, &m.Port}
	for _, f := range fields {
		v, n, err := xdr.UnpackUint32(r)
		total += n
		if err != nil {
			return total, err
		}
		*f = v
	}
	return total, nil
}

// GetportArgs is the argument to PMAPPROC_GETPORT: a query with Port left
// as 0 (the server fills it in the reply).
type GetportArgs = Mapping

// DumpEntry is one element of the PMAPPROC_DUMP reply's linked list.
type DumpEntry struct {
	Map  Mapping
	Next *DumpEntry
}
