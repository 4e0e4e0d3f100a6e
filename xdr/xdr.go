// Package xdr implements RFC 4506 External Data Representation encoding:
// the bit-exact, big-endian wire format used by every record in the RPC,
// Mount v3, and NFS v3 protocols.
//
// Two small interfaces, Pack and Unpack, are the contract every wire type
// in this module satisfies. Primitive helpers (PackUint32, UnpackBool, ...)
// implement the interface for Go's built-in types and compose into the
// hand-written Pack/Unpack methods on the declarative record types in the
// rpc, mount, and nfs3 packages; generated reflection-based codecs cannot
// express the byte-budgeted list truncation READDIR/READDIRPLUS need, so
// every wire type encodes itself explicitly.
package xdr

import (
	"encoding/binary"
	"io"
)

// Pack is implemented by any value that can serialize itself to XDR.
type Pack interface {
	// PackedSize returns the exact number of bytes Pack will write.
	PackedSize() uint32
	// Pack writes the XDR encoding of the value to w, returning the number
	// of bytes written.
	Pack(w io.Writer) (int, error)
}

// Unpack is implemented by any value that can deserialize itself from XDR.
// The receiver is populated in place; the return value is the number of
// bytes consumed from r.
type Unpack interface {
	Unpack(r io.Reader) (int, error)
}

// ============================================================================
// Primitives
// ============================================================================

// PackUint32 writes a big-endian uint32.
func PackUint32(w io.Writer, v uint32) (int, error) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	n, err := w.Write(buf[:])
	return n, wrapIo("write uint32", err)
}

// UnpackUint32 reads a big-endian uint32.
func UnpackUint32(r io.Reader) (uint32, int, error) {
	var buf [4]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, n, wrapIo("read uint32", err)
	}
	return binary.BigEndian.Uint32(buf[:]), n, nil
}

// PackUint64 writes a big-endian uint64.
func PackUint64(w io.Writer, v uint64) (int, error) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	n, err := w.Write(buf[:])
	return n, wrapIo("write uint64", err)
}

// UnpackUint64 reads a big-endian uint64.
func UnpackUint64(r io.Reader) (uint64, int, error) {
	var buf [8]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, n, wrapIo("read uint64", err)
	}
	return binary.BigEndian.Uint64(buf[:]), n, nil
}

// PackInt32 writes a big-endian two's-complement int32.
func PackInt32(w io.Writer, v int32) (int, error) {
	return PackUint32(w, uint32(v))
}

// UnpackInt32 reads a big-endian two's-complement int32.
func UnpackInt32(r io.Reader) (int32, int, error) {
	v, n, err := UnpackUint32(r)
	return int32(v), n, err
}

// PackBool writes an XDR boolean: 0 for false, 1 for true.
func PackBool(w io.Writer, v bool) (int, error) {
	if v {
		return PackUint32(w, 1)
	}
	return PackUint32(w, 0)
}

// UnpackBool reads an XDR boolean. Any value other than 0 or 1 is
// InvalidEnumValueError: RFC 4506 §4.4 defines exactly two boolean values,
// and a tolerant decoder here would let malformed peers smuggle tag bits
// past every union and optional-field check built on top of it.
func UnpackBool(r io.Reader) (bool, int, error) {
	v, n, err := UnpackUint32(r)
	if err != nil {
		return false, n, err
	}
	switch v {
	case 0:
		return false, n, nil
	case 1:
		return true, n, nil
	default:
		return false, n, &InvalidEnumValueError{Value: v, Type: "bool"}
	}
}

// PackFixedOpaque writes data followed by zero-padding to a 4-byte
// boundary, with no length prefix. Used for fixed-size fields such as the
// 8-byte cookieverf/writeverf and the 16-byte file handle body.
func PackFixedOpaque(w io.Writer, data []byte) (int, error) {
	n, err := w.Write(data)
	if err != nil {
		return n, wrapIo("write fixed opaque", err)
	}
	pad := padLen(len(data))
	if pad == 0 {
		return n, nil
	}
	pn, err := w.Write(zeros[:pad])
	return n + pn, wrapIo("write fixed opaque padding", err)
}

// UnpackFixedOpaque reads exactly len(into) bytes into into, then consumes
// the trailing padding (its bytes are not checked for zero).
func UnpackFixedOpaque(r io.Reader, into []byte) (int, error) {
	n, err := io.ReadFull(r, into)
	if err != nil {
		return n, wrapIo("read fixed opaque", err)
	}
	pad := padLen(len(into))
	if pad == 0 {
		return n, nil
	}
	var padBuf [3]byte
	pn, err := io.ReadFull(r, padBuf[:pad])
	return n + pn, wrapIo("read fixed opaque padding", err)
}

var zeros = [4]byte{}

// padLen returns the number of zero-padding bytes needed to round n up to
// a multiple of 4, per RFC 4506 §4.9/4.11.
func padLen(n int) int {
	return (4 - (n % 4)) % 4
}

// PaddedLen returns n rounded up to the next multiple of 4.
func PaddedLen(n int) int {
	return n + padLen(n)
}
