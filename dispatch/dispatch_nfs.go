package dispatch

import (
	"context"
	"errors"
	"io"

	"github.com/Vaiz/nfs3-sub000/internal/logger"
	"github.com/Vaiz/nfs3-sub000/nfs3"
	"github.com/Vaiz/nfs3-sub000/rpc"
	"github.com/Vaiz/nfs3-sub000/vfs"
)

// dispatchNFS routes an NFS v3 call to its procedure. Version mismatch
// and unknown-procedure cases never reach the engine: this server
// speaks exactly one NFS version, so there is no range to report beyond
// [Version3, Version3].
func (s *Server[H]) dispatchNFS(ctx context.Context, msg *rpc.Message) []byte {
	if msg.Call.Version != nfs3.Version3 {
		reply, _ := rpc.MakeProgMismatchReply(msg.XID, nfs3.Version3, nfs3.Version3)
		return reply
	}

	switch msg.Call.Procedure {
	case nfs3.ProcNull:
		// NULL takes no arguments; trailing bytes are garbage.
		if len(msg.Body) != 0 {
			reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
			return reply
		}
		_ = s.NFS.Null(ctx)
		reply, _ := buildVoidReply(msg.XID)
		return reply
	case nfs3.ProcGetattr:
		return nfsCall(ctx, s, msg, new(nfs3.GetattrArgs), s.NFS.Getattr)
	case nfs3.ProcSetattr:
		return nfsCall(ctx, s, msg, new(nfs3.SetattrArgs), s.NFS.Setattr)
	case nfs3.ProcLookup:
		return nfsCall(ctx, s, msg, new(nfs3.LookupArgs), s.NFS.Lookup)
	case nfs3.ProcAccess:
		return nfsCall(ctx, s, msg, new(nfs3.AccessArgs), s.NFS.Access)
	case nfs3.ProcReadlink:
		return nfsCall(ctx, s, msg, new(nfs3.ReadlinkArgs), s.NFS.Readlink)
	case nfs3.ProcRead:
		return nfsCall(ctx, s, msg, new(nfs3.ReadArgs), s.NFS.Read)
	case nfs3.ProcWrite:
		return s.dispatchWrite(ctx, msg)
	case nfs3.ProcCreate:
		return nfsCall(ctx, s, msg, new(nfs3.CreateArgs), s.NFS.Create)
	case nfs3.ProcMkdir:
		return nfsCall(ctx, s, msg, new(nfs3.MkdirArgs), s.NFS.Mkdir)
	case nfs3.ProcSymlink:
		return nfsCall(ctx, s, msg, new(nfs3.SymlinkArgs), s.NFS.Symlink)
	case nfs3.ProcMknod:
		return nfsCall(ctx, s, msg, new(nfs3.MknodArgs), s.NFS.Mknod)
	case nfs3.ProcRemove:
		return nfsCall(ctx, s, msg, new(nfs3.RemoveArgs), s.NFS.Remove)
	case nfs3.ProcRmdir:
		return nfsCall(ctx, s, msg, new(nfs3.RmdirArgs), s.NFS.Rmdir)
	case nfs3.ProcRename:
		return nfsCall(ctx, s, msg, new(nfs3.RenameArgs), s.NFS.Rename)
	case nfs3.ProcLink:
		return nfsCall(ctx, s, msg, new(nfs3.LinkArgs), s.NFS.Link)
	case nfs3.ProcReaddir:
		return nfsCall(ctx, s, msg, new(nfs3.ReaddirArgs), s.NFS.Readdir)
	case nfs3.ProcReaddirplus:
		return nfsCall(ctx, s, msg, new(nfs3.ReaddirplusArgs), s.NFS.Readdirplus)
	case nfs3.ProcFsstat:
		return nfsCall(ctx, s, msg, new(nfs3.FsstatArgs), s.NFS.Fsstat)
	case nfs3.ProcFsinfo:
		return nfsCall(ctx, s, msg, new(nfs3.FsinfoArgs), s.NFS.Fsinfo)
	case nfs3.ProcPathconf:
		return nfsCall(ctx, s, msg, new(nfs3.PathconfArgs), s.NFS.Pathconf)
	case nfs3.ProcCommit:
		return nfsCall(ctx, s, msg, new(nfs3.CommitArgs), s.NFS.Commit)
	default:
		logger.DebugCtx(ctx, "unknown nfs procedure", "procedure", msg.Call.Procedure)
		reply, _ := rpc.MakeProcUnavailReply(msg.XID)
		return reply
	}
}

// argsPtr is the shape every nfs3 Args type's pointer satisfies.
type argsPtr[A any] interface {
	*A
	Unpack(r io.Reader) (int, error)
}

// nfsCall decodes args of type *A out of msg.Body, invokes call, and
// packs whatever Res value it returns. It is the single generic seam
// every read-only and mutating procedure (other than WRITE and NULL,
// which have their own non-uniform error-reporting shape) passes
// through, so that adding a procedure here never requires repeating the
// decode/GARBAGE_ARGS/encode boilerplate.
func nfsCall[H vfs.Handle, A any, PA argsPtr[A], R packer](
	ctx context.Context,
	s *Server[H],
	msg *rpc.Message,
	args PA,
	call func(context.Context, A) R,
) []byte {
	if err := decodeArgs(msg.Body, args); err != nil {
		logger.DebugCtx(ctx, "garbage arguments", "procedure", msg.Call.Procedure, "error", err)
		reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
		return reply
	}
	res := call(ctx, *args)
	reply, err := buildReply(msg.XID, res)
	if err != nil {
		logger.ErrorCtx(ctx, "failed to encode nfs reply", "error", err)
		return nil
	}
	return reply
}

// dispatchWrite handles WRITE separately: Engine.Write reports the
// count/data-length GARBAGE_ARGS condition as a returned error rather
// than through the Status field, since RFC 1813 places it at the RPC
// level rather than in nfsstat3.
func (s *Server[H]) dispatchWrite(ctx context.Context, msg *rpc.Message) []byte {
	var args nfs3.WriteArgs
	if err := decodeArgs(msg.Body, &args); err != nil {
		reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
		return reply
	}
	res, err := s.NFS.Write(ctx, args)
	if errors.Is(err, nfs3.ErrGarbageArgs) {
		reply, _ := rpc.MakeGarbageArgsReply(msg.XID)
		return reply
	}
	reply, err := buildReply(msg.XID, res)
	if err != nil {
		logger.ErrorCtx(ctx, "failed to encode write reply", "error", err)
		return nil
	}
	return reply
}
