package nfs3

import (
	"errors"

	"github.com/Vaiz/nfs3-sub000/fh"
	"github.com/Vaiz/nfs3-sub000/vfs"
)

// statusFromError maps a backend or handle-conversion error to the
// nfsstat3 code the protocol requires, preserving distinct codes rather
// than collapsing everything unrecognized into IO (RFC 1813's NOTEMPTY,
// ISDIR, etc. are semantically load-bearing for clients).
func statusFromError(err error) Status {
	if err == nil {
		return StatusOK
	}
	switch {
	case errors.Is(err, fh.ErrStale):
		return StatusErrStale
	case errors.Is(err, fh.ErrBadHandle):
		return StatusErrBadHandle
	case errors.Is(err, vfs.ErrNotExist):
		return StatusErrNoEnt
	case errors.Is(err, vfs.ErrExist):
		return StatusErrExist
	case errors.Is(err, vfs.ErrIsDir):
		return StatusErrIsDir
	case errors.Is(err, vfs.ErrNotDir):
		return StatusErrNotDir
	case errors.Is(err, vfs.ErrNotEmpty):
		return StatusErrNotEmpty
	case errors.Is(err, vfs.ErrInvalid):
		return StatusErrInval
	case errors.Is(err, vfs.ErrReadOnly):
		return StatusErrRofs
	case errors.Is(err, vfs.ErrNotSupported):
		return StatusErrNotSupp
	case errors.Is(err, vfs.ErrBadCookie):
		return StatusErrBadCookie
	case errors.Is(err, vfs.ErrBadType):
		return StatusErrBadType
	case errors.Is(err, vfs.ErrTooLarge):
		return StatusErrFBig
	case errors.Is(err, vfs.ErrNoSpace):
		return StatusErrNoSpc
	case errors.Is(err, vfs.ErrNotSync):
		return StatusErrNotSync
	case errors.Is(err, vfs.ErrServerFault):
		return StatusErrServerFault
	case errors.Is(err, vfs.ErrJukebox):
		return StatusErrJukebox
	default:
		return StatusErrIO
	}
}
