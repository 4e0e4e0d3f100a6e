package nfs3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaiz/nfs3-sub000/fh"
	"github.com/Vaiz/nfs3-sub000/vfs"
)

// fakeNode and fakeFS give the engine tests a tiny, obviously-correct
// backend without pulling in the full reference memfs package.
type fakeNode struct {
	attr     vfs.Attr
	children map[string]uint64
	parent   uint64
	verf     [8]byte
	hasVerf  bool
}

type fakeFS struct {
	nodes  map[uint64]*fakeNode
	nextID uint64
}

func newFakeFS() *fakeFS {
	root := &fakeNode{attr: vfs.Attr{Type: vfs.TypeDirectory, FileID: 1}, children: map[string]uint64{}}
	return &fakeFS{nodes: map[uint64]*fakeNode{1: root}, nextID: 2}
}

func (f *fakeFS) RootDir() uint64 { return 1 }

func (f *fakeFS) Lookup(_ context.Context, dir uint64, name string) (uint64, error) {
	d, ok := f.nodes[dir]
	if !ok {
		return 0, vfs.ErrNotExist
	}
	id, ok := d.children[name]
	if !ok {
		return 0, vfs.ErrNotExist
	}
	return id, nil
}

func (f *fakeFS) Getattr(_ context.Context, h uint64) (vfs.Attr, error) {
	n, ok := f.nodes[h]
	if !ok {
		return vfs.Attr{}, vfs.ErrNotExist
	}
	return n.attr, nil
}

func (f *fakeFS) Read(context.Context, uint64, uint64, uint32) ([]byte, bool, error) {
	return nil, true, nil
}
func (f *fakeFS) Readlink(context.Context, uint64) (string, error) { return "", vfs.ErrBadType }
func (f *fakeFS) Readdir(context.Context, uint64, uint64) (vfs.DirIterator[uint64], error) {
	return nil, nil
}
func (f *fakeFS) Readdirplus(context.Context, uint64, uint64) (vfs.DirPlusIterator[uint64], error) {
	return nil, nil
}
func (f *fakeFS) DirGeneration(context.Context, uint64) (uint64, error) { return 7, nil }

func (f *fakeFS) Setattr(_ context.Context, h uint64, mutation vfs.AttrMutation, _, _ uint32, _ bool) error {
	n, ok := f.nodes[h]
	if !ok {
		return vfs.ErrNotExist
	}
	if mutation.Size != nil {
		n.attr.Size = *mutation.Size
	}
	return nil
}

func (f *fakeFS) Write(context.Context, uint64, uint64, []byte) (uint32, error) { return 0, nil }

func (f *fakeFS) Create(_ context.Context, dir uint64, name string, _ vfs.AttrMutation, guarded bool) (uint64, bool, error) {
	d := f.nodes[dir]
	if id, exists := d.children[name]; exists {
		if guarded {
			return 0, false, vfs.ErrExist
		}
		return id, true, nil
	}
	id := f.nextID
	f.nextID++
	f.nodes[id] = &fakeNode{attr: vfs.Attr{Type: vfs.TypeRegular, FileID: id}, parent: dir}
	d.children[name] = id
	return id, false, nil
}

func (f *fakeFS) CreateExclusive(_ context.Context, dir uint64, name string, verf [8]byte) (uint64, bool, error) {
	d := f.nodes[dir]
	if id, exists := d.children[name]; exists {
		existing := f.nodes[id]
		if existing.hasVerf && existing.verf == verf {
			return id, true, nil
		}
		return 0, false, vfs.ErrExist
	}
	id := f.nextID
	f.nextID++
	f.nodes[id] = &fakeNode{attr: vfs.Attr{Type: vfs.TypeRegular, FileID: id}, parent: dir, verf: verf, hasVerf: true}
	d.children[name] = id
	return id, false, nil
}

func (f *fakeFS) Mkdir(_ context.Context, dir uint64, name string, _ vfs.AttrMutation) (uint64, error) {
	d := f.nodes[dir]
	if _, exists := d.children[name]; exists {
		return 0, vfs.ErrExist
	}
	id := f.nextID
	f.nextID++
	f.nodes[id] = &fakeNode{attr: vfs.Attr{Type: vfs.TypeDirectory, FileID: id}, parent: dir, children: map[string]uint64{}}
	d.children[name] = id
	return id, nil
}

func (f *fakeFS) Symlink(context.Context, uint64, string, string, vfs.AttrMutation) (uint64, error) {
	return 0, vfs.ErrNotSupported
}
func (f *fakeFS) Mknod(context.Context, uint64, string, vfs.ObjectType, uint32, uint32, vfs.AttrMutation) (uint64, error) {
	return 0, vfs.ErrNotSupported
}

func (f *fakeFS) Remove(_ context.Context, dir uint64, name string) error {
	d := f.nodes[dir]
	if _, ok := d.children[name]; !ok {
		return vfs.ErrNotExist
	}
	delete(d.children, name)
	return nil
}
func (f *fakeFS) Rmdir(_ context.Context, dir uint64, name string) error { return f.Remove(context.Background(), dir, name) }

func (f *fakeFS) Rename(_ context.Context, fromDir uint64, fromName string, toDir uint64, toName string) error {
	d := f.nodes[fromDir]
	id, ok := d.children[fromName]
	if !ok {
		return vfs.ErrNotExist
	}
	if fromDir == toDir && fromName == toName {
		return nil
	}
	// ancestor check: walk up from toDir looking for id.
	for cur := toDir; ; {
		if cur == id {
			return vfs.ErrInvalid
		}
		if cur == f.RootDir() {
			break
		}
		cur = f.nodes[cur].parent
	}
	delete(d.children, fromName)
	f.nodes[toDir].children[toName] = id
	f.nodes[id].parent = toDir
	return nil
}

func (f *fakeFS) Link(context.Context, uint64, uint64, string) error { return vfs.ErrNotSupported }

var _ vfs.NfsFileSystem[uint64] = (*fakeFS)(nil)

func newTestEngine() *Engine[uint64] {
	return NewEngine[uint64](newFakeFS(), fh.NewConverter(42), false)
}

func TestGetattrRoundTrip(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	res := e.Getattr(ctx, GetattrArgs{Object: e.RootHandle()})
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, FileTypeDir, res.OK.Attributes.Type)
}

func TestGetattrBadHandle(t *testing.T) {
	e := newTestEngine()
	res := e.Getattr(context.Background(), GetattrArgs{Object: FileHandle{Data: []byte("short")}})
	assert.Equal(t, StatusErrBadHandle, res.Status)
}

func TestCreateThenLookup(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	root := e.RootHandle()
	createRes := e.Create(ctx, CreateArgs{Where: DirOpArgs{Dir: root, Name: "a.txt"}, How: CreateHow{Mode: CreateGuarded}})
	require.Equal(t, StatusOK, createRes.Status)
	require.NotNil(t, createRes.OK.Handle.Handle)

	lookupRes := e.Lookup(ctx, LookupArgs{Dir: root, Name: "a.txt"})
	require.Equal(t, StatusOK, lookupRes.Status)
	assert.Equal(t, createRes.OK.Handle.Handle.Data, lookupRes.OK.Object.Data)
}

func TestCreateGuardedExisting(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	root := e.RootHandle()
	args := CreateArgs{Where: DirOpArgs{Dir: root, Name: "dup"}, How: CreateHow{Mode: CreateGuarded}}
	require.Equal(t, StatusOK, e.Create(ctx, args).Status)
	assert.Equal(t, StatusErrExist, e.Create(ctx, args).Status)
}

func TestExclusiveCreateReplay(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	root := e.RootHandle()
	verf1 := [8]byte{1}
	args := CreateArgs{Where: DirOpArgs{Dir: root, Name: "x"}, How: CreateHow{Mode: CreateExclusive, Verf: verf1}}

	first := e.Create(ctx, args)
	require.Equal(t, StatusOK, first.Status)

	replay := e.Create(ctx, args)
	require.Equal(t, StatusOK, replay.Status)
	assert.Equal(t, first.OK.Handle.Handle.Data, replay.OK.Handle.Handle.Data)

	args.How.Verf = [8]byte{2}
	mismatched := e.Create(ctx, args)
	assert.Equal(t, StatusErrExist, mismatched.Status)
}

func TestRenameIntoDescendantIsInval(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	root := e.RootHandle()

	mkA := e.Mkdir(ctx, MkdirArgs{Where: DirOpArgs{Dir: root, Name: "a"}})
	require.Equal(t, StatusOK, mkA.Status)
	aHandle := FileHandle{Data: mkA.OK.Handle.Handle.Data}

	mkB := e.Mkdir(ctx, MkdirArgs{Where: DirOpArgs{Dir: aHandle, Name: "b"}})
	require.Equal(t, StatusOK, mkB.Status)
	bHandle := FileHandle{Data: mkB.OK.Handle.Handle.Data}

	res := e.Rename(ctx, RenameArgs{
		From: DirOpArgs{Dir: root, Name: "a"},
		To:   DirOpArgs{Dir: bHandle, Name: "a"},
	})
	assert.Equal(t, StatusErrInval, res.Status)
}

func TestAccessMasksReadOnlyBackend(t *testing.T) {
	fs := newFakeFS()
	e := NewEngine[uint64](fs, fh.NewConverter(1), true)
	res := e.Access(context.Background(), AccessArgs{Object: e.RootHandle(), Access: AccessAll})
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, AccessRead|AccessLookup, res.OK.Access)
}

func TestWriteGarbageArgsOnCountMismatch(t *testing.T) {
	e := newTestEngine()
	_, err := e.Write(context.Background(), WriteArgs{File: e.RootHandle(), Count: 5, Data: []byte("ab")})
	assert.ErrorIs(t, err, ErrGarbageArgs)
}

func TestRemoveNonExistent(t *testing.T) {
	e := newTestEngine()
	res := e.Remove(context.Background(), RemoveArgs{Dir: e.RootHandle(), Name: "nope"})
	assert.Equal(t, StatusErrNoEnt, res.Status)
}
