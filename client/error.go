package client

import "fmt"

// ErrKind classifies a client Error the way a caller needs to branch:
// transport/envelope failures are opaque (Io, Xdr, Rpc), while a
// procedure's own nfsstat3/mountstat3 status travels in-band inside the
// returned *Res value instead of through this type, so a caller checking
// for e.g. nfs3.StatusNoEnt never needs to inspect an error at all.
type ErrKind int

const (
	// ErrKindIO covers dial/read/write/deadline failures on the
	// underlying connection.
	ErrKindIO ErrKind = iota
	// ErrKindXDR covers malformed wire data: short reads, bad discriminants,
	// a reply that failed to decode into the expected result type.
	ErrKindXDR
	// ErrKindRPC covers envelope-level RPC failures this client can't
	// recover from: XID mismatch, MSG_DENIED, PROG_MISMATCH,
	// PROC_UNAVAIL, GARBAGE_ARGS, SYSTEM_ERR.
	ErrKindRPC
	// ErrKindPortmap covers a portmapper lookup that found no mapping.
	ErrKindPortmap
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindIO:
		return "io"
	case ErrKindXDR:
		return "xdr"
	case ErrKindRPC:
		return "rpc"
	case ErrKindPortmap:
		return "portmap"
	default:
		return "unknown"
	}
}

// Error wraps every failure this package returns that isn't a procedure's
// own in-band status. Kind lets callers branch without parsing strings;
// Err carries the underlying cause for logging.
type Error struct {
	Kind ErrKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("nfs3 client: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
