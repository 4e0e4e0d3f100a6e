// Package rpc implements the ONC RPC (RFC 5531) message envelope that
// every Mount v3, Portmap, and NFS v3 call rides inside: message types,
// credential/verifier framing, and the accept/reject status codes a
// dispatcher uses to answer malformed or unsupported calls before ever
// reaching a procedure implementation.
package rpc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Vaiz/nfs3-sub000/xdr"
)

// RPC message types, RFC 5531 §9.
const (
	RPCCall  uint32 = 0
	RPCReply uint32 = 1
)

// Reply states, RFC 5531 §9.
const (
	RPCMsgAccepted uint32 = 0
	RPCMsgDenied   uint32 = 1
)

// Accept statuses, RFC 5531 §9.
const (
	RPCSuccess      uint32 = 0
	RPCProgUnavail  uint32 = 1
	RPCProgMismatch uint32 = 2
	RPCProcUnavail  uint32 = 3
	RPCGarbageArgs  uint32 = 4
	RPCSystemErr    uint32 = 5
)

// Reject statuses, RFC 5531 §9.
const (
	RPCMismatch uint32 = 0
	RPCAuthErr  uint32 = 1
)

// Auth statuses, RFC 5531 §9 (carried as the body when RejectStat ==
// RPCAuthErr).
const (
	AuthBadCred     uint32 = 1
	AuthRejectedCred uint32 = 2
	AuthBadVerf     uint32 = 3
	AuthRejectedVerf uint32 = 4
	AuthTooWeak     uint32 = 5
)

// RPCVersion2 is the only ONC RPC message version this stack speaks.
const RPCVersion2 uint32 = 2

// CallHeader is the fixed portion of an RPC call, decoded after the
// 4-byte XID and message-type tag that every caller peeks at first to
// decide whether a message is a call or a reply.
type CallHeader struct {
	RPCVersion uint32
	Program    uint32
	Version    uint32
	Procedure  uint32
	Cred       OpaqueAuth
	Verf       OpaqueAuth
}

// PackedSize returns the number of bytes Pack will write.
func (c CallHeader) PackedSize() uint32 {
	return 4*4 + c.Cred.PackedSize() + c.Verf.PackedSize()
}

// Pack writes the call header fields in wire order.
func (c CallHeader) Pack(w io.Writer) (int, error) {
	total := 0
	for _, v := range []uint32{c.RPCVersion, c.Program, c.Version, c.Procedure} {
		n, err := xdr.PackUint32(w, v)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := c.Cred.Pack(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = c.Verf.Pack(w)
	return total + n, err
}

// Unpack reads the call header fields.
func (c *CallHeader) Unpack(r io.Reader) (int, error) {
	total := 0
	fields := make([]*uint32, 4)
	fields[0], fields[1], fields[2], fields[3] = &c.RPCVersion, &c.Program, &c.Version, &c.Procedure
	for _, f := range fields {
		v, n, err := xdr.UnpackUint32(r)
		total += n
		if err != nil {
			return total, err
		}
		*f = v
	}
	n, err := c.Cred.Unpack(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = c.Verf.Unpack(r)
	return total + n, err
}

// Message is a decoded RPC record: the XID and message type shared by
// calls and replies, plus the call header when MType == RPCCall. The
// Body slice holds whatever procedure-specific XDR follows the header,
// left undecoded until a dispatcher routes it to the right program.
type Message struct {
	XID   uint32
	MType uint32
	Call  CallHeader // only meaningful when MType == RPCCall
	Body  []byte
}

// DecodeMessage parses a complete RPC record (already reassembled from
// its fragments by the transport layer). It decodes the XID, message
// type, and, for calls, the full call header, leaving the
// procedure-specific argument bytes in Body for the dispatcher to hand
// to the matching decoder.
func DecodeMessage(record []byte) (*Message, error) {
	r := bytes.NewReader(record)

	xid, _, err := xdr.UnpackUint32(r)
	if err != nil {
		return nil, fmt.Errorf("rpc: read xid: %w", err)
	}
	mtype, _, err := xdr.UnpackUint32(r)
	if err != nil {
		return nil, fmt.Errorf("rpc: read msg type: %w", err)
	}

	msg := &Message{XID: xid, MType: mtype}
	if mtype == RPCCall {
		if _, err := msg.Call.Unpack(r); err != nil {
			return nil, fmt.Errorf("rpc: read call header: %w", err)
		}
	}

	rest := make([]byte, r.Len())
	_, _ = io.ReadFull(r, rest)
	msg.Body = rest
	return msg, nil
}

// ============================================================================
// Reply builders
//
// Each function renders a complete, single-fragment RPC reply record
// (framed via WrapFragment) for a dispatch-time failure that never
// reaches a procedure implementation: wrong RPC version, unknown
// program, unsupported program version, unknown procedure, or malformed
// arguments. Success replies are built by the dispatch package:
// MakeSuccessReplyHeader followed by the procedure's own result body.
// ============================================================================

// successVerf is the null verifier this server always returns: it never
// issues AUTH_SHORT/DES credentials for clients to echo back.
var successVerf = OpaqueAuth{Flavor: AuthNull}

func acceptedHeader(w io.Writer, xid uint32, acceptStat uint32) error {
	if _, err := xdr.PackUint32(w, xid); err != nil {
		return err
	}
	if _, err := xdr.PackUint32(w, RPCReply); err != nil {
		return err
	}
	if _, err := xdr.PackUint32(w, RPCMsgAccepted); err != nil {
		return err
	}
	if _, err := successVerf.Pack(w); err != nil {
		return err
	}
	_, err := xdr.PackUint32(w, acceptStat)
	return err
}

// MakeSuccessReplyHeader renders the fixed reply prefix (xid, REPLY,
// MSG_ACCEPTED, null verifier, SUCCESS) that precedes a procedure's own
// result union. Callers append the procedure-specific result bytes.
func MakeSuccessReplyHeader(xid uint32) ([]byte, error) {
	var buf bytes.Buffer
	if err := acceptedHeader(&buf, xid, RPCSuccess); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MakeProgUnavailReply renders a complete framed reply for an unknown
// program number.
func MakeProgUnavailReply(xid uint32) ([]byte, error) {
	var buf bytes.Buffer
	if err := acceptedHeader(&buf, xid, RPCProgUnavail); err != nil {
		return nil, err
	}
	return WrapFragment(buf.Bytes()), nil
}

// MakeProgMismatchReply renders a complete framed reply for a call whose
// program version this server doesn't support, reporting the inclusive
// [low, high] range it does support.
func MakeProgMismatchReply(xid, low, high uint32) ([]byte, error) {
	if low > high {
		return nil, fmt.Errorf("rpc: invalid version range: low (%d) > high (%d)", low, high)
	}
	var buf bytes.Buffer
	if err := acceptedHeader(&buf, xid, RPCProgMismatch); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, low); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, high); err != nil {
		return nil, err
	}
	return WrapFragment(buf.Bytes()), nil
}

// MakeProcUnavailReply renders a complete framed reply for a procedure
// number not defined on the (program, version) the call targeted.
func MakeProcUnavailReply(xid uint32) ([]byte, error) {
	var buf bytes.Buffer
	if err := acceptedHeader(&buf, xid, RPCProcUnavail); err != nil {
		return nil, err
	}
	return WrapFragment(buf.Bytes()), nil
}

// MakeGarbageArgsReply renders a complete framed reply for a call whose
// argument bytes didn't decode cleanly (too short, or bytes left over).
func MakeGarbageArgsReply(xid uint32) ([]byte, error) {
	var buf bytes.Buffer
	if err := acceptedHeader(&buf, xid, RPCGarbageArgs); err != nil {
		return nil, err
	}
	return WrapFragment(buf.Bytes()), nil
}

// MakeSystemErrReply renders a complete framed reply for a call this
// server refuses purely for load-shedding reasons (a client already has
// too many transactions in flight), rather than any fault in the call
// itself.
func MakeSystemErrReply(xid uint32) ([]byte, error) {
	var buf bytes.Buffer
	if err := acceptedHeader(&buf, xid, RPCSystemErr); err != nil {
		return nil, err
	}
	return WrapFragment(buf.Bytes()), nil
}

// MakeRPCMismatchReply renders a complete framed MSG_DENIED/RPC_MISMATCH
// reply for a call whose RPC message version isn't 2.
func MakeRPCMismatchReply(xid uint32) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.PackUint32(&buf, xid); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, RPCReply); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, RPCMsgDenied); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, RPCMismatch); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, RPCVersion2); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, RPCVersion2); err != nil {
		return nil, err
	}
	return WrapFragment(buf.Bytes()), nil
}

// MakeAuthErrorReply renders a complete framed MSG_DENIED/AUTH_ERROR
// reply, used when AUTH_UNIX credentials fail to parse.
func MakeAuthErrorReply(xid uint32, stat uint32) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.PackUint32(&buf, xid); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, RPCReply); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, RPCMsgDenied); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, RPCAuthErr); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, stat); err != nil {
		return nil, err
	}
	return WrapFragment(buf.Bytes()), nil
}
