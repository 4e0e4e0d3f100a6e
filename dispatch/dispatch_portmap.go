package dispatch

import (
	"bytes"
	"context"
	"io"

	"github.com/Vaiz/nfs3-sub000/internal/logger"
	"github.com/Vaiz/nfs3-sub000/portmap"
	"github.com/Vaiz/nfs3-sub000/rpc"
	"github.com/Vaiz/nfs3-sub000/xdr"
)

// dispatchPortmap routes a Portmap v2 call. Unlike mount/nfs3, whose
// reply bodies are discriminated-union Res structs, portmap's replies
// are bare booleans, a port number, or a linked list, so the boolean and
// port replies are packed directly rather than through buildReply's
// packer interface; DUMP's list goes through buildReply via
// mappingListBody.
func (s *Server[H]) dispatchPortmap(ctx context.Context, msg *rpc.Message) []byte {
	if msg.Call.Version != portmap.Version2 {
		reply, _ := rpc.MakeProgMismatchReply(msg.XID, portmap.Version2, portmap.Version2)
		return reply
	}

	switch msg.Call.Procedure {
	case portmap.ProcNull:
		if len(msg.Body) != 0 {
			reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
			return reply
		}
		_ = s.Portmap.Null()
		reply, _ := buildVoidReply(msg.XID)
		return reply
	case portmap.ProcSet:
		var args portmap.Mapping
		if err := decodeArgs(msg.Body, &args); err != nil {
			reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
			return reply
		}
		ok := s.Portmap.Set(args)
		reply, err := buildBoolReply(msg.XID, ok)
		if err != nil {
			logger.ErrorCtx(ctx, "failed to encode set reply", "error", err)
			return nil
		}
		return reply
	case portmap.ProcUnset:
		// UNSET's argument is a full mapping on the wire; clients send
		// Port as zero and it is ignored.
		var args portmap.Mapping
		if err := decodeArgs(msg.Body, &args); err != nil {
			reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
			return reply
		}
		ok := s.Portmap.Unset(args.Prog, args.Vers, args.Prot)
		reply, err := buildBoolReply(msg.XID, ok)
		if err != nil {
			logger.ErrorCtx(ctx, "failed to encode unset reply", "error", err)
			return nil
		}
		return reply
	case portmap.ProcGetport:
		var args portmap.GetportArgs
		if err := decodeArgs(msg.Body, &args); err != nil {
			reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
			return reply
		}
		port := s.Portmap.Getport(args)
		reply, err := buildUint32Reply(msg.XID, port)
		if err != nil {
			logger.ErrorCtx(ctx, "failed to encode getport reply", "error", err)
			return nil
		}
		return reply
	case portmap.ProcDump:
		reply, err := buildReply(msg.XID, mappingListBody(s.Portmap.Dump()))
		if err != nil {
			logger.ErrorCtx(ctx, "failed to encode dump reply", "error", err)
			return nil
		}
		return reply
	default:
		logger.DebugCtx(ctx, "unknown portmap procedure", "procedure", msg.Call.Procedure)
		reply, _ := rpc.MakeProcUnavailReply(msg.XID)
		return reply
	}
}

func buildBoolReply(xid uint32, v bool) ([]byte, error) {
	header, err := rpc.MakeSuccessReplyHeader(xid)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(header)
	if _, err := xdr.PackBool(buf, v); err != nil {
		return nil, err
	}
	return rpc.WrapFragment(buf.Bytes()), nil
}

func buildUint32Reply(xid uint32, v uint32) ([]byte, error) {
	header, err := rpc.MakeSuccessReplyHeader(xid)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(header)
	if _, err := xdr.PackUint32(buf, v); err != nil {
		return nil, err
	}
	return rpc.WrapFragment(buf.Bytes()), nil
}

// mappingListBody packs DUMP's reply as the (true, mapping)*, false
// chain RFC 1057 Appendix A specifies.
type mappingListBody []portmap.Mapping

func (b mappingListBody) Pack(w io.Writer) (int, error) {
	return xdr.PackNamedList(w, []portmap.Mapping(b))
}
