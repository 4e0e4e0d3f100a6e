package dispatch

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaiz/nfs3-sub000/fh"
	"github.com/Vaiz/nfs3-sub000/memfs"
	"github.com/Vaiz/nfs3-sub000/mount"
	"github.com/Vaiz/nfs3-sub000/nfs3"
	"github.com/Vaiz/nfs3-sub000/portmap"
	"github.com/Vaiz/nfs3-sub000/rpc"
	"github.com/Vaiz/nfs3-sub000/transport"
	"github.com/Vaiz/nfs3-sub000/xdr"
)

func newTestServer(t *testing.T) *Server[uint64] {
	t.Helper()
	fs := memfs.New()
	handles := fh.NewConverter(1)
	engine := nfs3.NewEngine[uint64](fs, handles, false)

	resolve := func(_ context.Context, path string) (uint64, error) {
		return fs.LookupByPath(path)
	}
	encode := func(id uint64) mount.FileHandle {
		b := handles.ToHandle(id)
		return mount.FileHandle{Data: append([]byte(nil), b[:]...)}
	}
	mnt := mount.NewHandler[uint64]("/", resolve, encode)
	pm := portmap.NewHandler(2049)
	tracker := transport.NewTracker(transport.DefaultRetention, transport.DefaultMaxActive, transport.DefaultTrimThreshold)
	return New[uint64](pm, mnt, engine, tracker)
}

// callRecord builds a complete call record (no fragment header; the
// transport strips that before Dispatch sees the bytes).
func callRecord(t *testing.T, xid, rpcvers, prog, vers, proc uint32, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := xdr.PackUint32(&buf, xid)
	require.NoError(t, err)
	_, err = xdr.PackUint32(&buf, rpc.RPCCall)
	require.NoError(t, err)
	hdr := rpc.CallHeader{RPCVersion: rpcvers, Program: prog, Version: vers, Procedure: proc}
	_, err = hdr.Pack(&buf)
	require.NoError(t, err)
	buf.Write(body)
	return buf.Bytes()
}

type replyInfo struct {
	xid        uint32
	denied     bool
	rejectStat uint32
	acceptStat uint32
}

// parseReply strips the fragment header off a framed reply and pulls out
// the fields every dispatch-level test asserts on.
func parseReply(t *testing.T, framed []byte) replyInfo {
	t.Helper()
	require.GreaterOrEqual(t, len(framed), 16)
	hdr := binary.BigEndian.Uint32(framed[:4])
	require.NotZero(t, hdr&0x80000000, "reply must be a single last fragment")
	body := framed[4:]
	require.Equal(t, int(hdr&0x7fffffff), len(body))

	info := replyInfo{xid: binary.BigEndian.Uint32(body[0:4])}
	require.Equal(t, rpc.RPCReply, binary.BigEndian.Uint32(body[4:8]))
	switch binary.BigEndian.Uint32(body[8:12]) {
	case rpc.RPCMsgDenied:
		info.denied = true
		info.rejectStat = binary.BigEndian.Uint32(body[12:16])
	case rpc.RPCMsgAccepted:
		// null verifier (flavor + zero-length body) precedes the stat.
		require.GreaterOrEqual(t, len(body), 24)
		info.acceptStat = binary.BigEndian.Uint32(body[20:24])
	default:
		t.Fatalf("unknown reply_stat in %x", body)
	}
	return info
}

func TestNullReplyIsSuccess(t *testing.T) {
	s := newTestServer(t)
	reply, drop := s.Dispatch(context.Background(), "10.0.0.1:700", callRecord(t, 1, 2, nfs3.Program, nfs3.Version3, nfs3.ProcNull, nil))
	require.False(t, drop)

	// 4-byte fragment header announcing a 24-byte last fragment.
	assert.Equal(t, []byte{0x80, 0x00, 0x00, 0x18}, reply[:4])
	info := parseReply(t, reply)
	assert.Equal(t, uint32(1), info.xid)
	assert.False(t, info.denied)
	assert.Equal(t, rpc.RPCSuccess, info.acceptStat)
}

func TestNullWithTrailingBytesIsGarbageArgs(t *testing.T) {
	s := newTestServer(t)
	reply, drop := s.Dispatch(context.Background(), "10.0.0.1:700", callRecord(t, 2, 2, nfs3.Program, nfs3.Version3, nfs3.ProcNull, []byte{0x12, 0x34, 0x56, 0x78}))
	require.False(t, drop)

	info := parseReply(t, reply)
	assert.Equal(t, uint32(2), info.xid)
	assert.Equal(t, rpc.RPCGarbageArgs, info.acceptStat)
}

func TestWrongRPCVersionIsDenied(t *testing.T) {
	s := newTestServer(t)
	reply, drop := s.Dispatch(context.Background(), "10.0.0.1:700", callRecord(t, 3, 3, nfs3.Program, nfs3.Version3, nfs3.ProcNull, nil))
	require.False(t, drop)

	info := parseReply(t, reply)
	assert.True(t, info.denied)
	assert.Equal(t, rpc.RPCMismatch, info.rejectStat)
}

func TestUnknownProgramIsProgUnavail(t *testing.T) {
	s := newTestServer(t)
	reply, drop := s.Dispatch(context.Background(), "10.0.0.1:700", callRecord(t, 4, 2, 300000, 1, 0, nil))
	require.False(t, drop)
	assert.Equal(t, rpc.RPCProgUnavail, parseReply(t, reply).acceptStat)
}

func TestProbedStubProgramsAreProgUnavail(t *testing.T) {
	s := newTestServer(t)
	for i, prog := range []uint32{100227, 100270, 200024} {
		reply, drop := s.Dispatch(context.Background(), "10.0.0.1:700", callRecord(t, 10+uint32(i), 2, prog, 3, 0, nil))
		require.False(t, drop)
		assert.Equal(t, rpc.RPCProgUnavail, parseReply(t, reply).acceptStat, "program %d", prog)
	}
}

func TestNFSWrongVersionIsProgMismatch(t *testing.T) {
	s := newTestServer(t)
	reply, drop := s.Dispatch(context.Background(), "10.0.0.1:700", callRecord(t, 20, 2, nfs3.Program, 4, nfs3.ProcNull, nil))
	require.False(t, drop)
	assert.Equal(t, rpc.RPCProgMismatch, parseReply(t, reply).acceptStat)
}

func TestNFSUnknownProcedureIsProcUnavail(t *testing.T) {
	s := newTestServer(t)
	reply, drop := s.Dispatch(context.Background(), "10.0.0.1:700", callRecord(t, 21, 2, nfs3.Program, nfs3.Version3, 22, nil))
	require.False(t, drop)
	assert.Equal(t, rpc.RPCProcUnavail, parseReply(t, reply).acceptStat)
}

func TestRetransmittedXidIsSuppressed(t *testing.T) {
	s := newTestServer(t)
	record := callRecord(t, 99, 2, nfs3.Program, nfs3.Version3, nfs3.ProcNull, nil)

	reply, drop := s.Dispatch(context.Background(), "10.0.0.1:700", record)
	require.False(t, drop)
	require.NotEmpty(t, reply)

	_, drop = s.Dispatch(context.Background(), "10.0.0.1:700", record)
	assert.True(t, drop, "retransmission must be silently dropped")

	// The same xid from a different client is an independent call.
	reply, drop = s.Dispatch(context.Background(), "10.0.0.2:700", record)
	require.False(t, drop)
	assert.Equal(t, rpc.RPCSuccess, parseReply(t, reply).acceptStat)
}

func TestGarbageArgsOnTruncatedGetattr(t *testing.T) {
	s := newTestServer(t)
	// GETATTR expects a file handle; hand it two stray bytes.
	reply, drop := s.Dispatch(context.Background(), "10.0.0.1:700", callRecord(t, 30, 2, nfs3.Program, nfs3.Version3, nfs3.ProcGetattr, []byte{0xde, 0xad}))
	require.False(t, drop)
	assert.Equal(t, rpc.RPCGarbageArgs, parseReply(t, reply).acceptStat)
}
