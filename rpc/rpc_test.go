package rpc

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUnixAuth() *UnixAuth {
	return &UnixAuth{
		Stamp:       uint32(12345),
		MachineName: "testhost",
		UID:         1000,
		GID:         1000,
		GIDs:        []uint32{4, 24, 27, 30},
	}
}

func encodeUnixAuth(t *testing.T, a *UnixAuth) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := a.Pack(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseUnixAuth(t *testing.T) {
	t.Run("parses valid credentials", func(t *testing.T) {
		original := validUnixAuth()
		body := encodeUnixAuth(t, original)

		parsed, err := ParseUnixAuth(body)
		require.NoError(t, err)
		assert.Equal(t, original.Stamp, parsed.Stamp)
		assert.Equal(t, original.MachineName, parsed.MachineName)
		assert.Equal(t, original.UID, parsed.UID)
		assert.Equal(t, original.GID, parsed.GID)
		assert.Equal(t, original.GIDs, parsed.GIDs)
	})

	t.Run("parses root credentials with no groups", func(t *testing.T) {
		auth := &UnixAuth{Stamp: uint32(time.Now().Unix()), MachineName: "testhost"}
		body := encodeUnixAuth(t, auth)

		parsed, err := ParseUnixAuth(body)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), parsed.UID)
		assert.Empty(t, parsed.GIDs)
	})

	t.Run("rejects excessive groups", func(t *testing.T) {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.BigEndian, uint32(12345))
		_ = binary.Write(&buf, binary.BigEndian, uint32(8))
		buf.WriteString("testhost")
		_ = binary.Write(&buf, binary.BigEndian, uint32(1000))
		_ = binary.Write(&buf, binary.BigEndian, uint32(1000))
		_ = binary.Write(&buf, binary.BigEndian, uint32(maxUnixGIDs+1))

		_, err := ParseUnixAuth(buf.Bytes())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too many gids")
	})

	t.Run("rejects oversized machine name", func(t *testing.T) {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.BigEndian, uint32(12345))
		_ = binary.Write(&buf, binary.BigEndian, uint32(256))

		_, err := ParseUnixAuth(buf.Bytes())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "machine name too long")
	})

	t.Run("rejects empty body", func(t *testing.T) {
		_, err := ParseUnixAuth(nil)
		require.Error(t, err)
	})
}

func TestUnixAuthString(t *testing.T) {
	auth := validUnixAuth()
	s := auth.String()
	assert.Contains(t, s, "testhost")
	assert.Contains(t, s, "1000")
}

func TestAuthFlavorsAreUnique(t *testing.T) {
	flavors := []uint32{AuthNull, AuthUnix, AuthShort, AuthDES}
	seen := make(map[uint32]bool)
	for _, f := range flavors {
		assert.False(t, seen[f], "flavor %d is not unique", f)
		seen[f] = true
	}
}

func TestMakeProgMismatchReply(t *testing.T) {
	t.Run("generates a valid framed reply", func(t *testing.T) {
		xid := uint32(0x12345678)
		reply, err := MakeProgMismatchReply(xid, 3, 3)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(reply), 36)

		fragHeader := binary.BigEndian.Uint32(reply[0:4])
		assert.True(t, fragHeader&0x80000000 != 0)
		assert.Equal(t, uint32(len(reply)-4), fragHeader&0x7FFFFFFF)

		assert.Equal(t, xid, binary.BigEndian.Uint32(reply[4:8]))
		assert.Equal(t, RPCReply, binary.BigEndian.Uint32(reply[8:12]))
		assert.Equal(t, RPCMsgAccepted, binary.BigEndian.Uint32(reply[12:16]))
	})

	t.Run("encodes the version range", func(t *testing.T) {
		reply, err := MakeProgMismatchReply(0xABCD1234, 2, 4)
		require.NoError(t, err)

		n := len(reply)
		assert.Equal(t, uint32(2), binary.BigEndian.Uint32(reply[n-8:n-4]))
		assert.Equal(t, uint32(4), binary.BigEndian.Uint32(reply[n-4:n]))
	})

	t.Run("rejects an invalid version range", func(t *testing.T) {
		_, err := MakeProgMismatchReply(0x1234, 5, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "low (5) > high (3)")
	})
}

func TestMakeProgUnavailReply(t *testing.T) {
	reply, err := MakeProgUnavailReply(42)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), binary.BigEndian.Uint32(reply[4:8]))
	assert.Equal(t, RPCProgUnavail, binary.BigEndian.Uint32(reply[len(reply)-4:]))
}

func TestFragmentHeaderRoundTrip(t *testing.T) {
	h := FragmentHeader{IsLast: true, Length: 123}
	encoded := EncodeFragmentHeader(h)
	decoded := DecodeFragmentHeader(encoded)
	assert.Equal(t, h, decoded)
}

func TestDecodeMessageCall(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(99)) // xid
	_ = binary.Write(&buf, binary.BigEndian, RPCCall)    // mtype
	call := CallHeader{
		RPCVersion: RPCVersion2,
		Program:    100003,
		Version:    3,
		Procedure:  1,
		Cred:       OpaqueAuth{Flavor: AuthNull},
		Verf:       OpaqueAuth{Flavor: AuthNull},
	}
	_, err := call.Pack(&buf)
	require.NoError(t, err)
	buf.WriteString("extra-args")

	msg, err := DecodeMessage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(99), msg.XID)
	assert.Equal(t, RPCCall, msg.MType)
	assert.Equal(t, uint32(100003), msg.Call.Program)
	assert.Equal(t, []byte("extra-args"), msg.Body)
}
