package xdr

import "io"

// MaxOpaqueLen bounds variable-length opaque/string decoding so a hostile
// or corrupt length prefix cannot force an unbounded allocation. The
// largest opaque field NFS v3 carries is a READ/WRITE payload; FSINFO
// advertises 1 MiB transfer sizes, so a maximal WRITE's data sits exactly
// at this cap. File handles are capped at 64 bytes.
const MaxOpaqueLen = 1 << 20 // 1 MiB

// PackOpaque writes variable-length opaque data: a uint32 length prefix,
// the bytes themselves, then zero-padding to a 4-byte boundary. The
// length in the header never includes the padding (RFC 4506 §4.9).
func PackOpaque(w io.Writer, data []byte) (int, error) {
	if len(data) > 0xFFFFFFFF {
		return 0, &ObjectTooLargeError{Length: len(data)}
	}
	n, err := PackUint32(w, uint32(len(data)))
	if err != nil {
		return n, err
	}
	dn, err := PackFixedOpaque(w, data)
	return n + dn, err
}

// UnpackOpaque reads variable-length opaque data, rejecting lengths beyond
// MaxOpaqueLen or beyond what remains in the stream.
func UnpackOpaque(r io.Reader) ([]byte, int, error) {
	length, n, err := UnpackUint32(r)
	if err != nil {
		return nil, n, err
	}
	if length > MaxOpaqueLen {
		return nil, n, wrapIo("opaque length", io.ErrShortBuffer)
	}
	data := make([]byte, length)
	dn, err := UnpackFixedOpaque(r, data)
	return data, n + dn, err
}

// PackString writes a string using the same encoding as opaque data (RFC
// 4506 §4.11): strings and opaque byte strings share a wire format.
func PackString(w io.Writer, s string) (int, error) {
	return PackOpaque(w, []byte(s))
}

// UnpackString reads a string encoded per PackString.
func UnpackString(r io.Reader) (string, int, error) {
	data, n, err := UnpackOpaque(r)
	if err != nil {
		return "", n, err
	}
	return string(data), n, nil
}

// ============================================================================
// Optional<T>: the post_op_attr / pre_op_attr pattern
// ============================================================================

// PackOptional writes the "post_op"/"pre_op" pattern: a uint32 discriminant
// (0 = absent, 1 = present) followed by the packed value when present.
func PackOptional[T Pack](w io.Writer, v *T) (int, error) {
	if v == nil {
		return PackBool(w, false)
	}
	n, err := PackBool(w, true)
	if err != nil {
		return n, err
	}
	vn, err := (*v).Pack(w)
	return n + vn, err
}

// UnpackOptional reads the optional-value pattern, constructing a fresh T
// via newT only when the discriminant is 1.
func UnpackOptional[T Pack](r io.Reader, newT func() Unpack, assign func(Unpack) T) (*T, int, error) {
	present, n, err := UnpackBool(r)
	if err != nil {
		return nil, n, err
	}
	if !present {
		return nil, n, nil
	}
	u := newT()
	un, err := u.Unpack(r)
	if err != nil {
		return nil, n + un, err
	}
	v := assign(u)
	return &v, n + un, nil
}

// PackedSizeOptional returns the packed size of PackOptional(v).
func PackedSizeOptional[T Pack](v *T) uint32 {
	if v == nil {
		return 4
	}
	return 4 + (*v).PackedSize()
}
