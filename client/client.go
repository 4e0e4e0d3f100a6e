// Package client implements a matching NFS v3 client: portmapper lookup,
// MOUNT, and all 22 NFS v3 procedures, issued over a single blocking TCP
// connection with context.Context-driven deadlines. One connection stays
// open across many calls, the way a real NFS client behaves, rather than
// dialing per call.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vaiz/nfs3-sub000/portmap"
	"github.com/Vaiz/nfs3-sub000/rpc"
	"github.com/Vaiz/nfs3-sub000/xdr"
)

// Client is a connected NFS v3 client. Calls are serialized: this single
// TCP connection is used synchronously, one in-flight RPC at a time,
// unlike the server's per-connection concurrent dispatch. The matching
// client here only ever needs to drive one call at a time.
type Client struct {
	conn net.Conn
	mu   sync.Mutex
	xid  atomic.Uint32

	// Credential used on every call. AUTH_NULL by default; SetCredential
	// installs AUTH_UNIX fields for servers (including this one) that log
	// or branch on the caller's uid/gid.
	cred rpc.OpaqueAuth
}

// Dial opens a TCP connection to addr, ready to issue Portmap, Mount, and
// NFS v3 calls. The dial itself honors ctx's deadline; per-call deadlines
// are applied independently by each RPC.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &Error{Kind: ErrKindIO, Err: fmt.Errorf("dial %s: %w", addr, err)}
	}
	c := &Client{conn: conn, cred: rpc.OpaqueAuth{Flavor: rpc.AuthNull}}
	c.xid.Store(uint32(time.Now().UnixNano()))
	return c, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SetCredential switches this client from AUTH_NULL to AUTH_UNIX,
// attaching the given uid/gid/machine name to every subsequent call.
func (c *Client) SetCredential(machineName string, uid, gid uint32, gids []uint32) error {
	ua := &rpc.UnixAuth{
		Stamp:       uint32(time.Now().Unix()),
		MachineName: machineName,
		UID:         uid,
		GID:         gid,
		GIDs:        gids,
	}
	var buf bytes.Buffer
	if _, err := ua.Pack(&buf); err != nil {
		return &Error{Kind: ErrKindXDR, Err: err}
	}
	c.mu.Lock()
	c.cred = rpc.OpaqueAuth{Flavor: rpc.AuthUnix, Body: buf.Bytes()}
	c.mu.Unlock()
	return nil
}

// resPtr is the shape every Res/Result type's pointer satisfies: in
// place decoding via Unpack, the same pointer-plus-method-set constraint
// idiom the server's dispatch package uses for decoding Args.
type resPtr[R any] interface {
	*R
	xdr.Unpack
}

// voidResult decodes a reply that carries nothing beyond the RPC
// envelope (UMNT, UMNTALL, NFSPROC3_NULL).
type voidResult struct{}

func (voidResult) Unpack(io.Reader) (int, error) { return 0, nil }

// call issues one RPC: encode args, frame, write, read the matching
// reply, and decode its body into res. args must already satisfy
// xdr.Pack (every Args type in mount/nfs3/portmap does).
func call[R any, PR resPtr[R]](ctx context.Context, c *Client, program, version, proc uint32, args xdr.Pack, res PR) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return &Error{Kind: ErrKindIO, Err: err}
		}
	} else {
		_ = c.conn.SetDeadline(time.Time{})
	}

	xid := c.xid.Add(1)
	record, err := c.buildCall(xid, program, version, proc, args)
	if err != nil {
		return &Error{Kind: ErrKindXDR, Err: err}
	}
	if _, err := c.conn.Write(record); err != nil {
		return &Error{Kind: ErrKindIO, Err: fmt.Errorf("write call: %w", err)}
	}

	reply, err := c.readRecord()
	if err != nil {
		return &Error{Kind: ErrKindIO, Err: fmt.Errorf("read reply: %w", err)}
	}
	msg, err := rpc.DecodeMessage(reply)
	if err != nil {
		return &Error{Kind: ErrKindXDR, Err: err}
	}
	if msg.XID != xid {
		return &Error{Kind: ErrKindRPC, Err: fmt.Errorf("xid mismatch: sent %d, got %d", xid, msg.XID)}
	}
	consumed, err := checkAcceptance(msg.Body)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	r := bytes.NewReader(msg.Body[consumed:])
	if _, err := res.Unpack(r); err != nil {
		return &Error{Kind: ErrKindXDR, Err: fmt.Errorf("decode reply: %w", err)}
	}
	return nil
}

// checkAcceptance reads the MSG_ACCEPTED/MSG_DENIED envelope fields that
// immediately follow the XID and CALL/REPLY tag (already stripped by
// DecodeMessage into body), returning the number of bytes consumed and a
// typed *Error for anything other than RPC_SUCCESS. On success the
// caller's Unpack starts exactly at that offset into body, where the
// procedure's result union begins.
func checkAcceptance(body []byte) (int, error) {
	r := bytes.NewReader(body)
	replyStat, n, err := xdr.UnpackUint32(r)
	if err != nil {
		return n, &Error{Kind: ErrKindXDR, Err: err}
	}
	total := n
	switch replyStat {
	case rpc.RPCMsgAccepted:
		var verf rpc.OpaqueAuth
		vn, err := verf.Unpack(r)
		total += vn
		if err != nil {
			return total, &Error{Kind: ErrKindXDR, Err: err}
		}
		acceptStat, an, err := xdr.UnpackUint32(r)
		total += an
		if err != nil {
			return total, &Error{Kind: ErrKindXDR, Err: err}
		}
		switch acceptStat {
		case rpc.RPCSuccess:
			return total, nil
		case rpc.RPCProgMismatch:
			low, n1, _ := xdr.UnpackUint32(r)
			high, n2, _ := xdr.UnpackUint32(r)
			total += n1 + n2
			return total, &Error{Kind: ErrKindRPC, Err: fmt.Errorf("program version mismatch: server supports [%d, %d]", low, high)}
		default:
			return total, &Error{Kind: ErrKindRPC, Err: fmt.Errorf("rpc accept_stat %d", acceptStat)}
		}
	case rpc.RPCMsgDenied:
		rejectStat, n, _ := xdr.UnpackUint32(r)
		total += n
		return total, &Error{Kind: ErrKindRPC, Err: fmt.Errorf("rpc call denied: reject_stat %d", rejectStat)}
	default:
		return total, &Error{Kind: ErrKindRPC, Err: fmt.Errorf("unknown reply_stat %d", replyStat)}
	}
}

// buildCall renders a complete framed RPC call record for a single
// fragment request. Every call this client issues fits in one fragment:
// the only large payload is WRITE, bounded well under MaxFragmentSize.
func (c *Client) buildCall(xid, program, version, proc uint32, args xdr.Pack) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.PackUint32(&buf, xid); err != nil {
		return nil, err
	}
	if _, err := xdr.PackUint32(&buf, rpc.RPCCall); err != nil {
		return nil, err
	}
	hdr := rpc.CallHeader{
		RPCVersion: rpc.RPCVersion2,
		Program:    program,
		Version:    version,
		Procedure:  proc,
		Cred:       c.cred,
		Verf:       rpc.OpaqueAuth{Flavor: rpc.AuthNull},
	}
	if _, err := hdr.Pack(&buf); err != nil {
		return nil, err
	}
	if args != nil {
		if _, err := args.Pack(&buf); err != nil {
			return nil, err
		}
	}
	return rpc.WrapFragment(buf.Bytes()), nil
}

// readRecord reassembles one complete RPC record from its fragments.
func (c *Client) readRecord() ([]byte, error) {
	var record []byte
	for {
		var hdrBuf [4]byte
		if _, err := io.ReadFull(c.conn, hdrBuf[:]); err != nil {
			return nil, err
		}
		frag := rpc.DecodeFragmentHeader(hdrBuf)
		if frag.Length > rpc.MaxFragmentSize {
			return nil, fmt.Errorf("oversized fragment: %d bytes", frag.Length)
		}
		body := make([]byte, frag.Length)
		if _, err := io.ReadFull(c.conn, body); err != nil {
			return nil, err
		}
		record = append(record, body...)
		if frag.IsLast {
			return record, nil
		}
	}
}

// Getport asks this server's embedded Portmap which port a program is
// reachable on. For this stack every query resolves to the same
// listening port (see portmap.Handler), so real clients only ever call
// this once per connect.
func (c *Client) Getport(ctx context.Context, prog, vers, prot uint32) (uint32, error) {
	args := portmap.GetportArgs{Prog: prog, Vers: vers, Prot: prot}
	var port portmapPort
	if err := call[portmapPort](ctx, c, portmap.Program, portmap.Version2, portmap.ProcGetport, args, &port); err != nil {
		return 0, err
	}
	return uint32(port), nil
}

type portmapPort uint32

func (p *portmapPort) Unpack(r io.Reader) (int, error) {
	v, n, err := xdr.UnpackUint32(r)
	*p = portmapPort(v)
	return n, err
}
