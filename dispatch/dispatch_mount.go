package dispatch

import (
	"context"
	"io"

	"github.com/Vaiz/nfs3-sub000/internal/logger"
	"github.com/Vaiz/nfs3-sub000/mount"
	"github.com/Vaiz/nfs3-sub000/rpc"
	"github.com/Vaiz/nfs3-sub000/xdr"
)

// dispatchMount routes a Mount v3 call. Some stacks accept v1/v2 for
// everything but MNT (macOS's umount uses v1), but this server only
// ever advertises v3 through Portmap's GETPORT and so only needs to
// accept v3 here.
func (s *Server[H]) dispatchMount(ctx context.Context, clientAddr string, msg *rpc.Message) []byte {
	if msg.Call.Version != mount.Version3 {
		reply, _ := rpc.MakeProgMismatchReply(msg.XID, mount.Version3, mount.Version3)
		return reply
	}

	switch msg.Call.Procedure {
	case mount.ProcNull:
		if len(msg.Body) != 0 {
			reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
			return reply
		}
		reply, _ := buildVoidReply(msg.XID)
		return reply
	case mount.ProcMnt:
		var args mount.MntArgs
		if err := decodeArgs(msg.Body, &args); err != nil {
			reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
			return reply
		}
		res := s.Mount.Mnt(ctx, clientAddr, args.DirPath)
		reply, err := buildReply(msg.XID, res)
		if err != nil {
			logger.ErrorCtx(ctx, "failed to encode mnt reply", "error", err)
			return nil
		}
		return reply
	case mount.ProcUmnt:
		var args mount.MntArgs
		if err := decodeArgs(msg.Body, &args); err != nil {
			reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
			return reply
		}
		s.Mount.Umnt(clientAddr, args.DirPath)
		reply, _ := buildVoidReply(msg.XID)
		return reply
	case mount.ProcUmntAll:
		s.Mount.UmntAll(clientAddr)
		reply, _ := buildVoidReply(msg.XID)
		return reply
	case mount.ProcDump:
		reply, err := buildReply(msg.XID, mountListBody(s.Mount.Dump()))
		if err != nil {
			logger.ErrorCtx(ctx, "failed to encode dump reply", "error", err)
			return nil
		}
		return reply
	case mount.ProcExport:
		reply, err := buildReply(msg.XID, exportListBody(s.Mount.Export()))
		if err != nil {
			logger.ErrorCtx(ctx, "failed to encode export reply", "error", err)
			return nil
		}
		return reply
	default:
		logger.DebugCtx(ctx, "unknown mount procedure", "procedure", msg.Call.Procedure)
		reply, _ := rpc.MakeProcUnavailReply(msg.XID)
		return reply
	}
}

// mountListBody packs DUMP's mountlist as the (true, entry)*, false
// chain RFC 1813 Appendix I specifies.
type mountListBody []mount.MountEntry

func (b mountListBody) Pack(w io.Writer) (int, error) {
	return xdr.PackNamedList(w, []mount.MountEntry(b))
}

// exportListBody packs EXPORT's list the same way.
type exportListBody []mount.ExportNode

func (b exportListBody) Pack(w io.Writer) (int, error) {
	return xdr.PackNamedList(w, []mount.ExportNode(b))
}
