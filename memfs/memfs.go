// Package memfs implements the reference in-memory filesystem used to
// validate the nfs3 procedure engine: rename edge cases,
// exclusive-create replay, and directory iteration cursors. It keeps
// exactly what NFSv3's VFS contract (package vfs) needs: one global map
// from backend id to node, a monotonic id counter, and a single
// reader-writer lock guarding the whole tree.
package memfs

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Vaiz/nfs3-sub000/vfs"
)

// dirListCacheSize bounds the number of (directory, generation) sorted
// child-id listings kept around for READDIR/READDIRPLUS to resume from,
// so a cookie continuation reuses an open scan instead of rescanning
// the directory's full entry set.
const dirListCacheSize = 256

// dirListKey identifies one directory snapshot: the generation changes
// whenever the directory's entry set is mutated, so a stale cache entry
// is never served across a Mkdir/Create/Remove/Rename of that directory.
type dirListKey struct {
	dir uint64
	gen uint64
}

// RootID is the backend id of the export's root directory. File-id 0 is
// reserved by the vfs contract and is never assigned here.
const RootID uint64 = 1

type kind int

const (
	kindDir kind = iota
	kindFile
	kindSymlink
)

// node is either a directory or a file/symlink entry. Parent links are
// plain backend ids rather than pointers, so rename can repoint a
// subtree without ever creating a reference cycle between nodes.
type node struct {
	kind   kind
	name   string
	parent uint64
	attr   vfs.Attr

	// directory
	children map[string]uint64

	// file
	data []byte

	// symlink
	target string

	// exclusive-create verifier, set only while the file was created
	// via CreateExclusive and not yet touched by any other mutation.
	verf    [8]byte
	hasVerf bool
}

// FS is the reference NfsFileSystem[uint64] implementation. All mutating
// operations hold the write lock for the whole call; one coarse lock
// keeps directory mutations serialized without per-directory locking.
type FS struct {
	mu       sync.RWMutex
	nodes    map[uint64]*node
	nextID   uint64
	fsid     uint64
	dirLists *lru.Cache[dirListKey, []uint64]
}

var _ vfs.NfsFileSystem[uint64] = (*FS)(nil)

// New returns an empty filesystem containing only the root directory.
func New() *FS {
	now := time.Now()
	root := &node{
		kind:     kindDir,
		name:     "",
		parent:   RootID,
		children: map[string]uint64{},
		attr: vfs.Attr{
			Type:  vfs.TypeDirectory,
			Mode:  0o755,
			Nlink: 2,
		},
	}
	stampTimes(&root.attr, now)
	dirLists, _ := lru.New[dirListKey, []uint64](dirListCacheSize)
	fs := &FS{
		nodes:    map[uint64]*node{RootID: root},
		nextID:   RootID + 1,
		fsid:     1,
		dirLists: dirLists,
	}
	root.attr.FileID = RootID
	return fs
}

func stampTimes(a *vfs.Attr, t time.Time) {
	sec, nsec := uint32(t.Unix()), uint32(t.Nanosecond())
	a.AtimeSec, a.AtimeNsec = sec, nsec
	a.MtimeSec, a.MtimeNsec = sec, nsec
	a.CtimeSec, a.CtimeNsec = sec, nsec
}

func (fs *FS) now() time.Time { return time.Now() }

// RootDir implements vfs.NfsReadFileSystem.
func (fs *FS) RootDir() uint64 { return RootID }

func (fs *FS) get(id uint64) (*node, error) {
	n, ok := fs.nodes[id]
	if !ok {
		return nil, vfs.ErrNotExist
	}
	return n, nil
}

func (fs *FS) getDir(id uint64) (*node, error) {
	n, err := fs.get(id)
	if err != nil {
		return nil, err
	}
	if n.kind != kindDir {
		return nil, vfs.ErrNotDir
	}
	return n, nil
}

// Lookup implements vfs.NfsReadFileSystem.
func (fs *FS) Lookup(_ context.Context, dir uint64, name string) (uint64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	d, err := fs.getDir(dir)
	if err != nil {
		return 0, err
	}
	id, ok := d.children[name]
	if !ok {
		return 0, vfs.ErrNotExist
	}
	return id, nil
}

// LookupByPath resolves a slash-separated path from the root, stripping
// a leading/trailing "/" the way the mount dispatcher's export-name
// prefix strip leaves behind. It is not part of the vfs.Handle[H]
// contract (NfsReadFileSystem is generic over the backend handle type
// and the mount procedure needs a concrete one), so callers that wire
// FS directly into the mount handler use this method by name.
func (fs *FS) LookupByPath(path string) (uint64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.lookupByPathLocked(path)
}

func (fs *FS) lookupByPathLocked(path string) (uint64, error) {
	cur := RootID
	start := 0
	for start < len(path) {
		for start < len(path) && path[start] == '/' {
			start++
		}
		end := start
		for end < len(path) && path[end] != '/' {
			end++
		}
		if end == start {
			break
		}
		seg := path[start:end]
		d, err := fs.getDir(cur)
		if err != nil {
			return 0, err
		}
		id, ok := d.children[seg]
		if !ok {
			return 0, vfs.ErrNotExist
		}
		cur = id
		start = end
	}
	return cur, nil
}

// Getattr implements vfs.NfsReadFileSystem.
func (fs *FS) Getattr(_ context.Context, h uint64) (vfs.Attr, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.get(h)
	if err != nil {
		return vfs.Attr{}, err
	}
	return n.attr, nil
}

// Read implements vfs.NfsReadFileSystem.
func (fs *FS) Read(_ context.Context, h uint64, offset uint64, count uint32) ([]byte, bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.get(h)
	if err != nil {
		return nil, false, err
	}
	if n.kind != kindFile {
		return nil, false, vfs.ErrIsDir
	}
	if offset > uint64(len(n.data)) {
		return nil, true, nil
	}
	end := offset + uint64(count)
	if end > uint64(len(n.data)) {
		end = uint64(len(n.data))
	}
	out := append([]byte(nil), n.data[offset:end]...)
	eof := end == uint64(len(n.data))
	return out, eof, nil
}

// Readlink implements vfs.NfsReadFileSystem.
func (fs *FS) Readlink(_ context.Context, h uint64) (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.get(h)
	if err != nil {
		return "", err
	}
	if n.kind != kindSymlink {
		return "", vfs.ErrBadType
	}
	return n.target, nil
}

// DirGeneration implements vfs.NfsReadFileSystem: the cookieverf the
// engine hands out is derived from the directory's mtime, so any
// mutation that changes the entry set invalidates outstanding cookies.
func (fs *FS) DirGeneration(_ context.Context, dir uint64) (uint64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	d, err := fs.getDir(dir)
	if err != nil {
		return 0, err
	}
	return uint64(d.attr.MtimeSec)<<32 | uint64(d.attr.MtimeNsec), nil
}

// genLocked derives a directory's generation from its mtime, matching
// DirGeneration's formula. Callers must hold fs.mu.
func genLocked(d *node) uint64 {
	return uint64(d.attr.MtimeSec)<<32 | uint64(d.attr.MtimeNsec)
}

// sortedChildIDsCached returns dir's sorted child ids, reusing the
// cached listing for its current generation if one is present rather
// than re-walking and re-sorting d.children on every call. Callers must
// hold at least fs.mu.RLock.
func (fs *FS) sortedChildIDsCached(dirID uint64, d *node) []uint64 {
	key := dirListKey{dir: dirID, gen: genLocked(d)}
	if ids, ok := fs.dirLists.Get(key); ok {
		return ids
	}
	ids := fs.sortedChildIDs(d)
	fs.dirLists.Add(key, ids)
	return ids
}

func (fs *FS) sortedChildIDs(d *node) []uint64 {
	ids := make([]uint64, 0, len(d.children))
	for _, id := range d.children {
		ids = append(ids, id)
	}
	// Insertion sort is fine here: directories in the reference
	// filesystem are not expected to hold enough entries for this to
	// matter, and it keeps the dependency list free of a sort import
	// for a one-line need.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

type dirIter struct {
	fs    *FS
	dir   uint64
	ids   []uint64
	pos   int
}

func (it *dirIter) Next(_ context.Context) (vfs.Entry, uint64, bool, error) {
	it.fs.mu.RLock()
	defer it.fs.mu.RUnlock()
	if it.pos >= len(it.ids) {
		return vfs.Entry{}, 0, false, nil
	}
	id := it.ids[it.pos]
	it.pos++
	n, ok := it.fs.nodes[id]
	if !ok {
		return vfs.Entry{}, 0, false, vfs.ErrServerFault
	}
	return vfs.Entry{FileID: id, Name: n.name}, id, true, nil
}

type dirPlusIter struct {
	inner dirIter
}

func (it *dirPlusIter) Next(ctx context.Context) (vfs.EntryPlus, uint64, uint64, bool, error) {
	entry, cookie, ok, err := it.inner.Next(ctx)
	if err != nil || !ok {
		return vfs.EntryPlus{}, 0, cookie, ok, err
	}
	it.inner.fs.mu.RLock()
	n := it.inner.fs.nodes[entry.FileID]
	it.inner.fs.mu.RUnlock()
	return vfs.EntryPlus{Entry: entry, Attr: n.attr}, entry.FileID, cookie, true, nil
}

// position returns the index in ids of the first entry whose id is
// strictly greater than cookie, i.e. "just after cookie".
func position(ids []uint64, cookie uint64) (int, error) {
	if cookie == 0 {
		return 0, nil
	}
	for i, id := range ids {
		if id == cookie {
			return i + 1, nil
		}
		if id > cookie {
			// cookie fell between two live entries (the entry it
			// named was removed since); resuming here would skip or
			// duplicate nothing, but a stricter backend could also
			// choose ErrBadCookie. This one is lenient.
			return i, nil
		}
	}
	return 0, vfs.ErrBadCookie
}

// Readdir implements vfs.NfsReadFileSystem.
func (fs *FS) Readdir(_ context.Context, dir uint64, cookie uint64) (vfs.DirIterator[uint64], error) {
	fs.mu.RLock()
	d, err := fs.getDir(dir)
	if err != nil {
		fs.mu.RUnlock()
		return nil, err
	}
	ids := fs.sortedChildIDsCached(dir, d)
	fs.mu.RUnlock()
	pos, err := position(ids, cookie)
	if err != nil {
		return nil, err
	}
	return &dirIter{fs: fs, dir: dir, ids: ids, pos: pos}, nil
}

// Readdirplus implements vfs.NfsReadFileSystem.
func (fs *FS) Readdirplus(_ context.Context, dir uint64, cookie uint64) (vfs.DirPlusIterator[uint64], error) {
	fs.mu.RLock()
	d, err := fs.getDir(dir)
	if err != nil {
		fs.mu.RUnlock()
		return nil, err
	}
	ids := fs.sortedChildIDsCached(dir, d)
	fs.mu.RUnlock()
	pos, err := position(ids, cookie)
	if err != nil {
		return nil, err
	}
	return &dirPlusIter{inner: dirIter{fs: fs, dir: dir, ids: ids, pos: pos}}, nil
}

func applyMutation(a *vfs.Attr, m vfs.AttrMutation, now time.Time) {
	if m.Mode != nil {
		a.Mode = *m.Mode
	}
	if m.UID != nil {
		a.UID = *m.UID
	}
	if m.GID != nil {
		a.GID = *m.GID
	}
	if m.Size != nil {
		a.Size = *m.Size
	}
	if m.Atime != nil {
		if m.Atime.ToServerNow {
			a.AtimeSec, a.AtimeNsec = uint32(now.Unix()), uint32(now.Nanosecond())
		} else {
			a.AtimeSec, a.AtimeNsec = m.Atime.Sec, m.Atime.Nsec
		}
	}
	if m.Mtime != nil {
		if m.Mtime.ToServerNow {
			a.MtimeSec, a.MtimeNsec = uint32(now.Unix()), uint32(now.Nanosecond())
		} else {
			a.MtimeSec, a.MtimeNsec = m.Mtime.Sec, m.Mtime.Nsec
		}
	}
	a.CtimeSec, a.CtimeNsec = uint32(now.Unix()), uint32(now.Nanosecond())
}

// Setattr implements vfs.NfsFileSystem.
func (fs *FS) Setattr(_ context.Context, h uint64, mutation vfs.AttrMutation, guardCtimeSec, guardCtimeNsec uint32, hasGuard bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, err := fs.get(h)
	if err != nil {
		return err
	}
	if hasGuard && (n.attr.CtimeSec != guardCtimeSec || n.attr.CtimeNsec != guardCtimeNsec) {
		return vfs.ErrNotSync
	}
	if mutation.Size != nil && n.kind == kindFile {
		fs.resizeLocked(n, *mutation.Size)
	}
	applyMutation(&n.attr, mutation, fs.now())
	n.hasVerf = false
	return nil
}

func (fs *FS) resizeLocked(n *node, size uint64) {
	if size <= uint64(len(n.data)) {
		n.data = n.data[:size]
		return
	}
	grown := make([]byte, size)
	copy(grown, n.data)
	n.data = grown
}

// Write implements vfs.NfsFileSystem: extends the byte vector as
// necessary. Offsets past the current size are rejected with INVAL
// rather than zero-filling a hole.
func (fs *FS) Write(_ context.Context, h uint64, offset uint64, data []byte) (uint32, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, err := fs.get(h)
	if err != nil {
		return 0, err
	}
	if n.kind != kindFile {
		return 0, vfs.ErrIsDir
	}
	if offset > uint64(len(n.data)) {
		return 0, vfs.ErrInvalid
	}
	end := offset + uint64(len(data))
	if end > uint64(len(n.data)) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[offset:end], data)
	n.attr.Size = uint64(len(n.data))
	n.attr.Used = n.attr.Size
	now := fs.now()
	n.attr.MtimeSec, n.attr.MtimeNsec = uint32(now.Unix()), uint32(now.Nanosecond())
	n.attr.CtimeSec, n.attr.CtimeNsec = n.attr.MtimeSec, n.attr.MtimeNsec
	n.hasVerf = false
	return uint32(len(data)), nil
}

func (fs *FS) allocID() uint64 {
	id := fs.nextID
	fs.nextID++
	return id
}

func (fs *FS) touchDirLocked(dir *node) {
	now := fs.now()
	dir.attr.MtimeSec, dir.attr.MtimeNsec = uint32(now.Unix()), uint32(now.Nanosecond())
	dir.attr.CtimeSec, dir.attr.CtimeNsec = dir.attr.MtimeSec, dir.attr.MtimeNsec
}

func (fs *FS) newAttr(t vfs.ObjectType, mode uint32) vfs.Attr {
	a := vfs.Attr{Type: t, Mode: mode, Nlink: 1, FSID: fs.fsid}
	if t == vfs.TypeDirectory {
		a.Nlink = 2
	}
	stampTimes(&a, fs.now())
	return a
}

// Create implements vfs.NfsFileSystem's UNCHECKED/GUARDED modes.
func (fs *FS) Create(_ context.Context, dir uint64, name string, attr vfs.AttrMutation, guarded bool) (uint64, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d, err := fs.getDir(dir)
	if err != nil {
		return 0, false, err
	}
	if existing, ok := d.children[name]; ok {
		if guarded {
			return 0, false, vfs.ErrExist
		}
		n := fs.nodes[existing]
		if n.kind != kindFile {
			return 0, false, vfs.ErrExist
		}
		applyMutation(&n.attr, attr, fs.now())
		return existing, true, nil
	}
	id := fs.allocID()
	n := &node{kind: kindFile, name: name, parent: dir}
	n.attr = fs.newAttr(vfs.TypeRegular, 0o644)
	applyMutation(&n.attr, attr, fs.now())
	n.attr.FileID = id
	fs.nodes[id] = n
	d.children[name] = id
	fs.touchDirLocked(d)
	return id, false, nil
}

// CreateExclusive implements vfs.NfsFileSystem's EXCLUSIVE create mode.
func (fs *FS) CreateExclusive(_ context.Context, dir uint64, name string, verf [8]byte) (uint64, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d, err := fs.getDir(dir)
	if err != nil {
		return 0, false, err
	}
	if existing, ok := d.children[name]; ok {
		n := fs.nodes[existing]
		if n.kind == kindFile && n.hasVerf && n.verf == verf {
			return existing, true, nil
		}
		return 0, false, vfs.ErrExist
	}
	id := fs.allocID()
	n := &node{kind: kindFile, name: name, parent: dir, verf: verf, hasVerf: true}
	n.attr = fs.newAttr(vfs.TypeRegular, 0o644)
	n.attr.FileID = id
	fs.nodes[id] = n
	d.children[name] = id
	fs.touchDirLocked(d)
	return id, false, nil
}

// Mkdir implements vfs.NfsFileSystem.
func (fs *FS) Mkdir(_ context.Context, dir uint64, name string, attr vfs.AttrMutation) (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d, err := fs.getDir(dir)
	if err != nil {
		return 0, err
	}
	if _, ok := d.children[name]; ok {
		return 0, vfs.ErrExist
	}
	id := fs.allocID()
	n := &node{kind: kindDir, name: name, parent: dir, children: map[string]uint64{}}
	n.attr = fs.newAttr(vfs.TypeDirectory, 0o755)
	applyMutation(&n.attr, attr, fs.now())
	n.attr.FileID = id
	fs.nodes[id] = n
	d.children[name] = id
	fs.touchDirLocked(d)
	return id, nil
}

// Symlink implements vfs.NfsFileSystem.
func (fs *FS) Symlink(_ context.Context, dir uint64, name, target string, attr vfs.AttrMutation) (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d, err := fs.getDir(dir)
	if err != nil {
		return 0, err
	}
	if _, ok := d.children[name]; ok {
		return 0, vfs.ErrExist
	}
	id := fs.allocID()
	n := &node{kind: kindSymlink, name: name, parent: dir, target: target}
	n.attr = fs.newAttr(vfs.TypeSymlink, 0o777)
	n.attr.Size = uint64(len(target))
	applyMutation(&n.attr, attr, fs.now())
	n.attr.FileID = id
	fs.nodes[id] = n
	d.children[name] = id
	fs.touchDirLocked(d)
	return id, nil
}

// Mknod implements vfs.NfsFileSystem. Device/FIFO nodes carry no data of
// their own in this reference filesystem; only their attr.Rdev differs
// from a regular file.
func (fs *FS) Mknod(_ context.Context, dir uint64, name string, objType vfs.ObjectType, major, minor uint32, attr vfs.AttrMutation) (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d, err := fs.getDir(dir)
	if err != nil {
		return 0, err
	}
	if _, ok := d.children[name]; ok {
		return 0, vfs.ErrExist
	}
	id := fs.allocID()
	n := &node{kind: kindFile, name: name, parent: dir}
	n.attr = fs.newAttr(objType, 0o644)
	n.attr.RdevMajor, n.attr.RdevMinor = major, minor
	applyMutation(&n.attr, attr, fs.now())
	n.attr.FileID = id
	fs.nodes[id] = n
	d.children[name] = id
	fs.touchDirLocked(d)
	return id, nil
}

// Remove implements vfs.NfsFileSystem: rejects directories, matching
// REMOVE's ISDIR semantics.
func (fs *FS) Remove(_ context.Context, dir uint64, name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d, err := fs.getDir(dir)
	if err != nil {
		return err
	}
	id, ok := d.children[name]
	if !ok {
		return vfs.ErrNotExist
	}
	n := fs.nodes[id]
	if n.kind == kindDir {
		return vfs.ErrIsDir
	}
	delete(d.children, name)
	delete(fs.nodes, id)
	fs.touchDirLocked(d)
	return nil
}

// Rmdir implements vfs.NfsFileSystem: rejects non-empty directories.
func (fs *FS) Rmdir(_ context.Context, dir uint64, name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d, err := fs.getDir(dir)
	if err != nil {
		return err
	}
	id, ok := d.children[name]
	if !ok {
		return vfs.ErrNotExist
	}
	n := fs.nodes[id]
	if n.kind != kindDir {
		return vfs.ErrNotDir
	}
	if len(n.children) != 0 {
		return vfs.ErrNotEmpty
	}
	delete(d.children, name)
	delete(fs.nodes, id)
	fs.touchDirLocked(d)
	return nil
}

// isAncestorLocked reports whether candidate is target or an ancestor of
// target, walking parent links upward from target. The reference
// filesystem stores parents as plain ids, never back-pointers, so this
// walk cannot loop unless the tree itself already contains a cycle,
// which Rename never introduces.
func (fs *FS) isAncestorLocked(candidate, target uint64) bool {
	cur := target
	for {
		if cur == candidate {
			return true
		}
		if cur == RootID {
			return false
		}
		n, ok := fs.nodes[cur]
		if !ok {
			return false
		}
		cur = n.parent
	}
}

// Rename implements vfs.NfsFileSystem. Check order: source must exist,
// same-place rename is a noop, target collisions resolve by type, and a
// directory may never move into its own descendant.
func (fs *FS) Rename(_ context.Context, fromDir uint64, fromName string, toDir uint64, toName string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fd, err := fs.getDir(fromDir)
	if err != nil {
		return err
	}
	srcID, ok := fd.children[fromName]
	if !ok {
		return vfs.ErrNotExist
	}

	if fromDir == toDir && fromName == toName {
		return nil
	}

	td, err := fs.getDir(toDir)
	if err != nil {
		return err
	}

	src := fs.nodes[srcID]

	dstID, dstExists := td.children[toName]
	if dstExists {
		dst := fs.nodes[dstID]
		switch {
		case src.kind != kindDir && dst.kind != kindDir:
		case src.kind == kindDir && dst.kind == kindDir:
			if len(dst.children) != 0 {
				return vfs.ErrNotEmpty
			}
		default:
			return vfs.ErrNotDir
		}
	}

	if src.kind == kindDir && fs.isAncestorLocked(srcID, toDir) {
		return vfs.ErrInvalid
	}

	// Past this point the move cannot fail; only now may the displaced
	// target be dropped.
	if dstExists {
		delete(fs.nodes, dstID)
	}

	delete(fd.children, fromName)
	src.name = toName
	src.parent = toDir
	td.children[toName] = srcID

	fs.touchDirLocked(fd)
	if toDir != fromDir {
		fs.touchDirLocked(td)
	}
	return nil
}

// Link implements vfs.NfsFileSystem. Hard links are not modeled by this
// single-owner-per-node reference filesystem.
func (fs *FS) Link(_ context.Context, _ uint64, _ uint64, _ string) error {
	return vfs.ErrNotSupported
}
