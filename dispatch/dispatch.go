// Package dispatch is the consolidated entry point for this server's RPC
// traffic: routing a decoded call by program -> version -> procedure,
// collapsed onto a single TCP port since this server speaks only
// Portmap, Mount v3, and NFS v3.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/Vaiz/nfs3-sub000/internal/logger"
	"github.com/Vaiz/nfs3-sub000/mount"
	"github.com/Vaiz/nfs3-sub000/nfs3"
	"github.com/Vaiz/nfs3-sub000/portmap"
	"github.com/Vaiz/nfs3-sub000/rpc"
	"github.com/Vaiz/nfs3-sub000/transport"
	"github.com/Vaiz/nfs3-sub000/vfs"
	"github.com/Vaiz/nfs3-sub000/xdr"
	"io"
)

// packer is satisfied by every *Res type across mount/portmap/nfs3:
// their Pack methods encode the full discriminated-union reply body,
// but (unlike the wire types xdr.Pack constrains) they don't also
// expose PackedSize, so a narrower local interface is used here instead
// of xdr.Pack.
type packer interface {
	Pack(w io.Writer) (int, error)
}

// Server holds the three protocol handlers and the transaction tracker
// this server's single listening port answers through. It implements
// transport.Dispatcher.
type Server[H vfs.Handle] struct {
	Portmap *portmap.Handler
	Mount   *mount.Handler[H]
	NFS     *nfs3.Engine[H]
	Tracker *transport.Tracker
}

// New wires the three protocol handlers and a tracker into a Server.
func New[H vfs.Handle](pm *portmap.Handler, mnt *mount.Handler[H], nfs *nfs3.Engine[H], tracker *transport.Tracker) *Server[H] {
	return &Server[H]{Portmap: pm, Mount: mnt, NFS: nfs, Tracker: tracker}
}

// Dispatch decodes one complete RPC record and answers it, implementing
// transport.Dispatcher. It owns the tracker's retransmission gating, so
// every reply path below it can assume (clientAddr, xid) is this
// connection's exclusive claim until it returns.
func (s *Server[H]) Dispatch(ctx context.Context, clientAddr string, record []byte) ([]byte, bool) {
	msg, err := rpc.DecodeMessage(record)
	if err != nil {
		logger.DebugCtx(ctx, "dropping unparseable rpc record", "error", err)
		return nil, true
	}
	if msg.MType != rpc.RPCCall {
		return nil, true
	}

	reqCtx := withRequestFields(ctx, clientAddr, msg.XID)

	if msg.Call.RPCVersion != rpc.RPCVersion2 {
		reply, err := rpc.MakeRPCMismatchReply(msg.XID)
		return frameOrDrop(reqCtx, reply, err)
	}

	if msg.Call.Cred.Flavor == rpc.AuthUnix {
		if _, err := rpc.ParseUnixAuth(msg.Call.Cred.Body); err != nil {
			logger.DebugCtx(reqCtx, "rejecting malformed auth_unix credential", "error", err)
			reply, err := rpc.MakeAuthErrorReply(msg.XID, rpc.AuthBadCred)
			return frameOrDrop(reqCtx, reply, err)
		}
	}

	result, release := s.Tracker.Start(clientAddr, msg.XID, time.Now())
	switch result {
	case transport.AlreadyExists:
		logger.DebugCtx(reqCtx, "suppressing retransmitted call")
		return nil, true
	case transport.TooManyRequests:
		logger.WarnCtx(reqCtx, "rejecting call, client has too many in-flight transactions")
		reply, err := rpc.MakeSystemErrReply(msg.XID)
		return frameOrDrop(reqCtx, reply, err)
	}
	defer release()

	switch msg.Call.Program {
	case portmap.Program:
		return s.dispatchPortmap(reqCtx, msg), false
	case mount.Program:
		return s.dispatchMount(reqCtx, clientAddr, msg), false
	case nfs3.Program:
		return s.dispatchNFS(reqCtx, msg), false
	default:
		if portmap.IsProbedStub(msg.Call.Program) {
			logger.DebugCtx(reqCtx, "refusing probed stub program", "program", msg.Call.Program)
		} else {
			logger.DebugCtx(reqCtx, "refusing unknown program", "program", msg.Call.Program)
		}
		reply, err := rpc.MakeProgUnavailReply(msg.XID)
		return frameOrDrop(reqCtx, reply, err)
	}
}

func withRequestFields(ctx context.Context, clientAddr string, xid uint32) context.Context {
	base := logger.FromContext(ctx)
	lc := &logger.LogContext{ClientIP: clientAddr, XID: xid}
	if base != nil {
		lc.ConnID = base.ConnID
	}
	return logger.WithContext(ctx, lc)
}

// frameOrDrop is used by the program-independent reply paths; a failure
// to even render an error reply (a Pack bug, never expected in
// practice) drops the call rather than risking a malformed write.
func frameOrDrop(ctx context.Context, reply []byte, err error) ([]byte, bool) {
	if err != nil {
		logger.ErrorCtx(ctx, "failed to render rpc reply", "error", err)
		return nil, true
	}
	return reply, false
}

// errBodyLeftover is reported when a procedure's arguments decode
// cleanly but leave trailing bytes: the other half of RFC 5531's
// GARBAGE_ARGS condition alongside an outright decode failure.
var errBodyLeftover = errors.New("dispatch: trailing bytes after arguments")

// decodeArgs unpacks body into v (a pointer to an Args type), reporting
// errBodyLeftover if any bytes remain after a successful decode.
func decodeArgs(body []byte, v xdr.Unpack) error {
	r := bytes.NewReader(body)
	if _, err := v.Unpack(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return errBodyLeftover
	}
	return nil
}

// buildReply renders the fixed success-reply prefix followed by body's
// own XDR encoding, framed as a complete RPC record.
func buildReply(xid uint32, body packer) ([]byte, error) {
	header, err := rpc.MakeSuccessReplyHeader(xid)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(header)
	if _, err := body.Pack(buf); err != nil {
		return nil, err
	}
	return rpc.WrapFragment(buf.Bytes()), nil
}

// buildVoidReply renders a success reply with no procedure-specific
// body (NULL, UMNT, UMNTALL).
func buildVoidReply(xid uint32) ([]byte, error) {
	header, err := rpc.MakeSuccessReplyHeader(xid)
	if err != nil {
		return nil, err
	}
	return rpc.WrapFragment(header), nil
}
