package xdr

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpackUint32RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	n, err := PackUint32(&buf, 0xDEADBEEF)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, buf.Bytes())

	got, n, err := UnpackUint32(&buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, uint32(0xDEADBEEF), got)
}

func TestPackUnpackUint64RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	_, err := PackUint64(&buf, 0x0102030405060708)
	require.NoError(t, err)

	got, _, err := UnpackUint64(&buf)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), got)
}

func TestPackUnpackInt32Negative(t *testing.T) {
	var buf bytes.Buffer
	_, err := PackInt32(&buf, -1)
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf.Bytes())

	got, _, err := UnpackInt32(&buf)
	require.NoError(t, err)
	require.Equal(t, int32(-1), got)
}

func TestPackUnpackBool(t *testing.T) {
	var buf bytes.Buffer
	_, err := PackBool(&buf, true)
	require.NoError(t, err)
	got, _, err := UnpackBool(&buf)
	require.NoError(t, err)
	require.True(t, got)
}

func TestUnpackBoolRejectsInvalidValue(t *testing.T) {
	buf := bytes.NewReader([]byte{0, 0, 0, 2})
	_, _, err := UnpackBool(buf)
	require.Error(t, err)
	var invalid *InvalidEnumValueError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, uint32(2), invalid.Value)
}

func TestPackUnpackFixedOpaquePadding(t *testing.T) {
	var buf bytes.Buffer
	data := []byte{1, 2, 3} // 3 bytes -> 1 byte padding
	n, err := PackFixedOpaque(&buf, data)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{1, 2, 3, 0}, buf.Bytes())

	got := make([]byte, 3)
	n, err = UnpackFixedOpaque(&buf, got)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, data, got)
}

func TestPackUnpackOpaqueVariableLength(t *testing.T) {
	var buf bytes.Buffer
	data := []byte("hello") // 5 bytes -> length prefix + 5 + 3 pad = 12
	n, err := PackOpaque(&buf, data)
	require.NoError(t, err)
	require.Equal(t, 12, n)

	got, n, err := UnpackOpaque(&buf)
	require.NoError(t, err)
	require.Equal(t, 12, n)
	require.Equal(t, data, got)
}

func TestUnpackOpaqueRejectsOversizedLength(t *testing.T) {
	var lenBuf bytes.Buffer
	_, _ = PackUint32(&lenBuf, MaxOpaqueLen+1)
	_, _, err := UnpackOpaque(&lenBuf)
	require.Error(t, err)
}

func TestPackUnpackStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	_, err := PackString(&buf, "/export/home")
	require.NoError(t, err)

	got, _, err := UnpackString(&buf)
	require.NoError(t, err)
	require.Equal(t, "/export/home", got)
}

func TestPaddedLen(t *testing.T) {
	cases := map[int]int{0: 0, 1: 4, 2: 4, 3: 4, 4: 4, 5: 8}
	for in, want := range cases {
		require.Equal(t, want, PaddedLen(in))
	}
}

// fixedU32 is a minimal Pack/Unpack implementation used to exercise the
// bounded-list builder and named-list codec without pulling in a real
// NFS wire type.
type fixedU32 struct {
	v uint32
}

func (f fixedU32) PackedSize() uint32 { return 4 }

func (f fixedU32) Pack(w io.Writer) (int, error) {
	return PackUint32(w, f.v)
}

func (f *fixedU32) Unpack(r io.Reader) (int, error) {
	v, n, err := UnpackUint32(r)
	f.v = v
	return n, err
}

func TestBoundedListBuilderTruncates(t *testing.T) {
	// Each entry costs 4 (has_next) + 4 (value) = 8 bytes; terminator is 4.
	// Budget of 20 fits two entries (16) + terminator (4) = 20 exactly.
	b := NewBoundedListBuilder[fixedU32](20)

	ok, _ := b.TryPush(fixedU32{v: 1})
	require.True(t, ok)
	ok, _ = b.TryPush(fixedU32{v: 2})
	require.True(t, ok)

	ok, rejected := b.TryPush(fixedU32{v: 3})
	require.False(t, ok)
	require.Equal(t, uint32(3), rejected.v)

	require.Equal(t, 2, b.Len())
	require.Equal(t, uint32(20), b.PackedSize())
}

func TestPackNamedListRoundTrip(t *testing.T) {
	items := []fixedU32{{v: 10}, {v: 20}, {v: 30}}
	var buf bytes.Buffer
	n, err := PackNamedList(&buf, items)
	require.NoError(t, err)
	require.Equal(t, int(3*(4+4)+4), n)

	got, _, err := UnpackNamedList(&buf, func() *fixedU32 { return &fixedU32{} })
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, uint32(10), got[0].v)
	require.Equal(t, uint32(30), got[2].v)
}

func TestPackNamedListEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := PackNamedList[fixedU32](&buf, nil)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())
}
