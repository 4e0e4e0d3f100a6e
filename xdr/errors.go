package xdr

import "fmt"

// InvalidEnumValueError is returned when an enum or boolean discriminant
// carries a numeric value outside its declared set.
//
// Per RFC 4506 §4.3/4.15, enums and unions are encoded as plain uint32s on
// the wire; nothing stops a malformed or hostile peer from sending a value
// no decoder recognizes, so every enum/bool/union decoder must check.
type InvalidEnumValueError struct {
	Value uint32
	Type  string // name of the enum/union being decoded, for diagnostics
}

func (e *InvalidEnumValueError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("xdr: invalid enum value %d", e.Value)
	}
	return fmt.Sprintf("xdr: invalid %s value %d", e.Type, e.Value)
}

// ObjectTooLargeError is returned when encoding a value whose length does
// not fit the 32-bit length prefix XDR uses for opaque data and vectors.
type ObjectTooLargeError struct {
	Length int
}

func (e *ObjectTooLargeError) Error() string {
	return fmt.Sprintf("xdr: object of length %d exceeds uint32 range", e.Length)
}

// wrapIo wraps an underlying I/O failure (typically a short read or a write
// error) with the field name being processed, without losing the original
// error for errors.Is/As.
func wrapIo(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("xdr: %s: %w", op, err)
}
