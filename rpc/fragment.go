package rpc

import "encoding/binary"

// MaxFragmentSize bounds a single RPC record-marking fragment. It must
// comfortably exceed the largest READ/WRITE payload FSINFO advertises
// plus call/reply header overhead.
const MaxFragmentSize = (1 << 20) + (1 << 18) // 1 MiB + 256 KiB headroom

// lastFragmentBit marks the final fragment of an RPC record, RFC 5531 §11.
const lastFragmentBit = 0x80000000

// FragmentHeader is the 4-byte record-marking header prefixing every RPC
// fragment on a stream transport: the top bit flags the last fragment of
// a record, the remaining 31 bits give the fragment's byte length.
type FragmentHeader struct {
	IsLast bool
	Length uint32
}

// EncodeFragmentHeader renders h as its 4-byte wire form.
func EncodeFragmentHeader(h FragmentHeader) [4]byte {
	v := h.Length & 0x7FFFFFFF
	if h.IsLast {
		v |= lastFragmentBit
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return buf
}

// DecodeFragmentHeader parses a 4-byte record-marking header.
func DecodeFragmentHeader(buf [4]byte) FragmentHeader {
	v := binary.BigEndian.Uint32(buf[:])
	return FragmentHeader{
		IsLast: v&lastFragmentBit != 0,
		Length: v &^ lastFragmentBit,
	}
}

// WrapFragment prepends a single-fragment record-marking header to
// payload, producing a complete on-wire RPC record ready to write to a
// stream transport.
func WrapFragment(payload []byte) []byte {
	hdr := EncodeFragmentHeader(FragmentHeader{IsLast: true, Length: uint32(len(payload))})
	out := make([]byte, 0, 4+len(payload))
	out = append(out, hdr[:]...)
	out = append(out, payload...)
	return out
}
