package vfs

import "context"

// ReadOnly adapts any NfsReadFileSystem into a full NfsFileSystem whose
// mutations all fail with ErrReadOnly, letting a read-only backend (for
// instance a mirror of a host filesystem opened O_RDONLY) sit behind the
// same engine a writable backend uses.
type ReadOnly[H Handle] struct {
	NfsReadFileSystem[H]
}

// NewReadOnly wraps fs as a read-only NfsFileSystem.
func NewReadOnly[H Handle](fs NfsReadFileSystem[H]) *ReadOnly[H] {
	return &ReadOnly[H]{NfsReadFileSystem: fs}
}

var _ NfsFileSystem[uint64] = (*ReadOnly[uint64])(nil)

func (r *ReadOnly[H]) Setattr(context.Context, H, AttrMutation, uint32, uint32, bool) error {
	return ErrReadOnly
}

func (r *ReadOnly[H]) Write(context.Context, H, uint64, []byte) (uint32, error) {
	return 0, ErrReadOnly
}

func (r *ReadOnly[H]) Create(context.Context, H, string, AttrMutation, bool) (h H, existedOK bool, err error) {
	return h, false, ErrReadOnly
}

func (r *ReadOnly[H]) CreateExclusive(context.Context, H, string, [8]byte) (h H, replayed bool, err error) {
	return h, false, ErrReadOnly
}

func (r *ReadOnly[H]) Mkdir(context.Context, H, string, AttrMutation) (h H, err error) {
	return h, ErrReadOnly
}

func (r *ReadOnly[H]) Symlink(context.Context, H, string, string, AttrMutation) (h H, err error) {
	return h, ErrReadOnly
}

func (r *ReadOnly[H]) Mknod(context.Context, H, string, ObjectType, uint32, uint32, AttrMutation) (h H, err error) {
	return h, ErrReadOnly
}

func (r *ReadOnly[H]) Remove(context.Context, H, string) error { return ErrReadOnly }
func (r *ReadOnly[H]) Rmdir(context.Context, H, string) error  { return ErrReadOnly }

func (r *ReadOnly[H]) Rename(context.Context, H, string, H, string) error {
	return ErrReadOnly
}

func (r *ReadOnly[H]) Link(context.Context, H, H, string) error {
	return ErrReadOnly
}
