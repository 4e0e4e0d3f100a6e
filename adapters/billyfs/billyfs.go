// Package billyfs adapts any github.com/go-git/go-billy/v5 filesystem
// into a vfs.NfsFileSystem[uint64], wrapping a host filesystem behind
// the same capability interface the reference memfs implements. It
// exists to show the VFS contract is genuinely backend-agnostic: any
// tree billy can already address (OS, in-memory, chroot, git worktree)
// gets NFS export without touching the protocol core.
//
// billy.Filesystem is path-addressed; NFS is handle-addressed. FS keeps
// a small bidirectional id<->path table under a single lock, the same
// granularity the reference memfs uses, and translates every vfs call
// into the corresponding billy path operation.
package billyfs

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/Vaiz/nfs3-sub000/vfs"
)

// chmoder is implemented by billy filesystems that support permission
// changes (e.g. osfs); not every billy.Filesystem does, so Setattr
// treats its absence as a silent no-op rather than a hard error, the
// same leniency NFSv3 servers extend to chmod on filesystems that don't
// track POSIX permissions.
type chmoder interface {
	Chmod(name string, mode os.FileMode) error
}

// RootID is the backend id assigned to the billy filesystem's root.
// File-id 0 stays reserved per the vfs contract.
const RootID uint64 = 1

type FS struct {
	mu   sync.RWMutex
	fs   billy.Filesystem
	fsid uint64

	idToPath map[uint64]string
	pathToID map[string]uint64
	nextID   uint64

	// dirGen tracks a per-directory-path generation counter bumped on
	// every mutation of that directory's entry set, mirrored into the
	// cookieverf the nfs3 engine derives for READDIR/READDIRPLUS.
	dirGen map[string]uint64

	// exclVerf stores CREATE(EXCLUSIVE) verifiers out of band: billy has
	// no xattr-like slot to stash them on the file itself, so the
	// adapter keeps the same in-memory side table a real mirror backend
	// would keep across a process lifetime; verifiers only need to be
	// valid for the lifetime of a single server generation.
	exclVerf map[uint64][8]byte
}

var _ vfs.NfsFileSystem[uint64] = (*FS)(nil)

// New adapts root, a billy.Filesystem rooted at the export's top
// directory, into an NfsFileSystem.
func New(root billy.Filesystem) *FS {
	fs := &FS{
		fs:       root,
		fsid:     2,
		idToPath: map[uint64]string{RootID: "/"},
		pathToID: map[string]uint64{"/": RootID},
		nextID:   RootID + 1,
		dirGen:   map[string]uint64{},
		exclVerf: map[uint64][8]byte{},
	}
	return fs
}

func (fs *FS) RootDir() uint64 { return RootID }

func (fs *FS) allocID() uint64 {
	id := fs.nextID
	fs.nextID++
	return id
}

// resolve maps a backend id to the billy path it was last seen at.
// Callers hold at least the read lock.
func (fs *FS) resolve(id uint64) (string, error) {
	p, ok := fs.idToPath[id]
	if !ok {
		return "", vfs.ErrNotExist
	}
	return p, nil
}

// identify returns the id bound to p, minting one on first sight. Billy
// trees may contain names never looked up through NFS yet (e.g. a
// pre-populated OS directory); this assigns them ids lazily, the same
// way a real mirror backend discovers inodes from `stat` on demand.
func (fs *FS) identify(p string) uint64 {
	if id, ok := fs.pathToID[p]; ok {
		return id
	}
	id := fs.allocID()
	fs.pathToID[p] = id
	fs.idToPath[id] = p
	return id
}

func (fs *FS) forget(p string) {
	if id, ok := fs.pathToID[p]; ok {
		delete(fs.pathToID, p)
		delete(fs.idToPath, id)
		delete(fs.exclVerf, id)
	}
}

func (fs *FS) rebind(oldPath, newPath string) {
	id, ok := fs.pathToID[oldPath]
	if !ok {
		return
	}
	delete(fs.pathToID, oldPath)
	fs.pathToID[newPath] = id
	fs.idToPath[id] = newPath
}

func mapOSErr(err error) error {
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return vfs.ErrNotExist
	case os.IsExist(err):
		return vfs.ErrExist
	case os.IsPermission(err):
		return vfs.ErrReadOnly
	default:
		return err
	}
}

func attrFromInfo(fsid uint64, id uint64, info os.FileInfo) vfs.Attr {
	a := vfs.Attr{
		FSID:   fsid,
		FileID: id,
		Mode:   uint32(info.Mode().Perm()),
		Size:   uint64(info.Size()),
		Used:   uint64(info.Size()),
		Nlink:  1,
	}
	switch {
	case info.IsDir():
		a.Type = vfs.TypeDirectory
		a.Nlink = 2
	case info.Mode()&os.ModeSymlink != 0:
		a.Type = vfs.TypeSymlink
	default:
		a.Type = vfs.TypeRegular
	}
	mt := info.ModTime()
	sec, nsec := uint32(mt.Unix()), uint32(mt.Nanosecond())
	a.AtimeSec, a.AtimeNsec = sec, nsec
	a.MtimeSec, a.MtimeNsec = sec, nsec
	a.CtimeSec, a.CtimeNsec = sec, nsec
	return a
}

func (fs *FS) Getattr(_ context.Context, h uint64) (vfs.Attr, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	p, err := fs.resolve(h)
	if err != nil {
		return vfs.Attr{}, err
	}
	info, err := fs.fs.Lstat(p)
	if err != nil {
		// Some billy backends (e.g. memfs) hold no entry for the root
		// until something is created under it; it is still a directory.
		if h == RootID && os.IsNotExist(err) {
			return vfs.Attr{FSID: fs.fsid, FileID: RootID, Type: vfs.TypeDirectory, Mode: 0o755, Nlink: 2}, nil
		}
		return vfs.Attr{}, mapOSErr(err)
	}
	return attrFromInfo(fs.fsid, h, info), nil
}

func (fs *FS) Lookup(_ context.Context, dir uint64, name string) (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dp, err := fs.resolve(dir)
	if err != nil {
		return 0, err
	}
	cp := fs.fs.Join(dp, name)
	if _, err := fs.fs.Lstat(cp); err != nil {
		return 0, mapOSErr(err)
	}
	return fs.identify(cp), nil
}

func (fs *FS) Read(_ context.Context, h uint64, offset uint64, count uint32) ([]byte, bool, error) {
	fs.mu.RLock()
	p, err := fs.resolve(h)
	fs.mu.RUnlock()
	if err != nil {
		return nil, false, err
	}
	f, err := fs.fs.Open(p)
	if err != nil {
		return nil, false, mapOSErr(err)
	}
	defer f.Close()
	buf := make([]byte, count)
	n, err := f.ReadAt(buf, int64(offset))
	eof := false
	if err == io.EOF {
		eof = true
		err = nil
	}
	if err != nil {
		return nil, false, mapOSErr(err)
	}
	if n < len(buf) {
		eof = true
	}
	return buf[:n], eof, nil
}

func (fs *FS) Readlink(_ context.Context, h uint64) (string, error) {
	fs.mu.RLock()
	p, err := fs.resolve(h)
	fs.mu.RUnlock()
	if err != nil {
		return "", err
	}
	target, err := fs.fs.Readlink(p)
	if err != nil {
		return "", mapOSErr(err)
	}
	return target, nil
}

// sortedEntries lists dp's children sorted by name, so a READDIR cursor
// resumes over a deterministic order between calls.
func (fs *FS) sortedEntries(dp string) ([]os.FileInfo, error) {
	infos, err := fs.fs.ReadDir(dp)
	if err != nil {
		return nil, mapOSErr(err)
	}
	sortFileInfos(infos)
	return infos, nil
}

type dirIter struct {
	fs    *FS
	dp    string
	infos []os.FileInfo
	pos   int
}

func (fs *FS) newIter(dir uint64, cookie uint64) (*dirIter, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dp, err := fs.resolve(dir)
	if err != nil {
		return nil, err
	}
	infos, err := fs.sortedEntries(dp)
	if err != nil {
		return nil, err
	}
	start := 0
	if cookie != 0 {
		found := false
		for i, info := range infos {
			if id, ok := fs.pathToID[fs.fs.Join(dp, info.Name())]; ok && id == cookie {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, vfs.ErrBadCookie
		}
	}
	return &dirIter{fs: fs, dp: dp, infos: infos, pos: start}, nil
}

func (it *dirIter) Next(_ context.Context) (vfs.Entry, uint64, bool, error) {
	if it.pos >= len(it.infos) {
		return vfs.Entry{}, 0, false, nil
	}
	info := it.infos[it.pos]
	it.pos++
	it.fs.mu.Lock()
	id := it.fs.identify(it.fs.fs.Join(it.dp, info.Name()))
	it.fs.mu.Unlock()
	return vfs.Entry{FileID: id, Name: info.Name()}, id, true, nil
}

func (it *dirIter) NextPlus(_ context.Context) (vfs.EntryPlus, uint64, uint64, bool, error) {
	if it.pos >= len(it.infos) {
		return vfs.EntryPlus{}, 0, 0, false, nil
	}
	info := it.infos[it.pos]
	it.pos++
	cp := it.fs.fs.Join(it.dp, info.Name())
	it.fs.mu.Lock()
	id := it.fs.identify(cp)
	it.fs.mu.Unlock()
	attr := attrFromInfo(it.fs.fsid, id, info)
	return vfs.EntryPlus{Entry: vfs.Entry{FileID: id, Name: info.Name()}, Attr: attr}, id, id, true, nil
}

type plusAdapter struct{ *dirIter }

func (p plusAdapter) Next(ctx context.Context) (vfs.EntryPlus, uint64, uint64, bool, error) {
	return p.dirIter.NextPlus(ctx)
}

func (fs *FS) Readdir(ctx context.Context, dir uint64, cookie uint64) (vfs.DirIterator[uint64], error) {
	return fs.newIter(dir, cookie)
}

func (fs *FS) Readdirplus(ctx context.Context, dir uint64, cookie uint64) (vfs.DirPlusIterator[uint64], error) {
	it, err := fs.newIter(dir, cookie)
	if err != nil {
		return nil, err
	}
	return plusAdapter{it}, nil
}

func (fs *FS) DirGeneration(_ context.Context, dir uint64) (uint64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	dp, err := fs.resolve(dir)
	if err != nil {
		return 0, err
	}
	return fs.dirGen[dp], nil
}

func (fs *FS) bumpGenLocked(dp string) { fs.dirGen[dp]++ }

func (fs *FS) Setattr(_ context.Context, h uint64, mutation vfs.AttrMutation, guardCtimeSec, guardCtimeNsec uint32, hasGuard bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p, err := fs.resolve(h)
	if err != nil {
		return err
	}
	if hasGuard {
		info, err := fs.fs.Lstat(p)
		if err != nil {
			return mapOSErr(err)
		}
		mt := info.ModTime()
		if uint32(mt.Unix()) != guardCtimeSec || uint32(mt.Nanosecond()) != guardCtimeNsec {
			return vfs.ErrNotSync
		}
	}
	if mutation.Mode != nil {
		if cm, ok := fs.fs.(chmoder); ok {
			if err := cm.Chmod(p, os.FileMode(*mutation.Mode)); err != nil {
				return mapOSErr(err)
			}
		}
	}
	if mutation.Size != nil {
		f, err := fs.fs.OpenFile(p, os.O_WRONLY, 0)
		if err != nil {
			return mapOSErr(err)
		}
		defer f.Close()
		if err := f.Truncate(int64(*mutation.Size)); err != nil {
			return mapOSErr(err)
		}
	}
	return nil
}

func (fs *FS) Write(_ context.Context, h uint64, offset uint64, data []byte) (uint32, error) {
	fs.mu.Lock()
	p, err := fs.resolve(h)
	fs.mu.Unlock()
	if err != nil {
		return 0, err
	}
	f, err := fs.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return 0, mapOSErr(err)
	}
	defer f.Close()
	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return 0, mapOSErr(err)
	}
	n, err := f.Write(data)
	if err != nil {
		return 0, mapOSErr(err)
	}
	return uint32(n), nil
}

func (fs *FS) Create(_ context.Context, dir uint64, name string, attr vfs.AttrMutation, guarded bool) (uint64, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dp, err := fs.resolve(dir)
	if err != nil {
		return 0, false, err
	}
	cp := fs.fs.Join(dp, name)
	_, statErr := fs.fs.Lstat(cp)
	existed := statErr == nil
	if existed && guarded {
		return 0, false, vfs.ErrExist
	}
	f, err := fs.fs.Create(cp)
	if err != nil {
		return 0, false, mapOSErr(err)
	}
	f.Close()
	fs.bumpGenLocked(dp)
	return fs.identify(cp), existed, nil
}

func (fs *FS) CreateExclusive(_ context.Context, dir uint64, name string, verf [8]byte) (uint64, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dp, err := fs.resolve(dir)
	if err != nil {
		return 0, false, err
	}
	cp := fs.fs.Join(dp, name)
	if _, err := fs.fs.Lstat(cp); err == nil {
		id := fs.identify(cp)
		if stored, ok := fs.exclVerf[id]; ok && stored == verf {
			return id, true, nil
		}
		return 0, false, vfs.ErrExist
	}
	f, err := fs.fs.Create(cp)
	if err != nil {
		return 0, false, mapOSErr(err)
	}
	f.Close()
	fs.bumpGenLocked(dp)
	id := fs.identify(cp)
	fs.exclVerf[id] = verf
	return id, false, nil
}

func (fs *FS) Mkdir(_ context.Context, dir uint64, name string, attr vfs.AttrMutation) (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dp, err := fs.resolve(dir)
	if err != nil {
		return 0, err
	}
	cp := fs.fs.Join(dp, name)
	if _, err := fs.fs.Lstat(cp); err == nil {
		return 0, vfs.ErrExist
	}
	if err := fs.fs.MkdirAll(cp, 0o755); err != nil {
		return 0, mapOSErr(err)
	}
	fs.bumpGenLocked(dp)
	return fs.identify(cp), nil
}

func (fs *FS) Symlink(_ context.Context, dir uint64, name, target string, attr vfs.AttrMutation) (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dp, err := fs.resolve(dir)
	if err != nil {
		return 0, err
	}
	cp := fs.fs.Join(dp, name)
	if _, err := fs.fs.Lstat(cp); err == nil {
		return 0, vfs.ErrExist
	}
	if err := fs.fs.Symlink(target, cp); err != nil {
		return 0, mapOSErr(err)
	}
	fs.bumpGenLocked(dp)
	return fs.identify(cp), nil
}

// Mknod has no billy.Filesystem equivalent (device/FIFO nodes are not a
// concept billy's path-based trees support), so it reports NOTSUPP.
func (fs *FS) Mknod(context.Context, uint64, string, vfs.ObjectType, uint32, uint32, vfs.AttrMutation) (uint64, error) {
	return 0, vfs.ErrNotSupported
}

func (fs *FS) Remove(_ context.Context, dir uint64, name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dp, err := fs.resolve(dir)
	if err != nil {
		return err
	}
	cp := fs.fs.Join(dp, name)
	info, err := fs.fs.Lstat(cp)
	if err != nil {
		return mapOSErr(err)
	}
	if info.IsDir() {
		return vfs.ErrIsDir
	}
	if err := fs.fs.Remove(cp); err != nil {
		return mapOSErr(err)
	}
	fs.forget(cp)
	fs.bumpGenLocked(dp)
	return nil
}

func (fs *FS) Rmdir(_ context.Context, dir uint64, name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dp, err := fs.resolve(dir)
	if err != nil {
		return err
	}
	cp := fs.fs.Join(dp, name)
	info, err := fs.fs.Lstat(cp)
	if err != nil {
		return mapOSErr(err)
	}
	if !info.IsDir() {
		return vfs.ErrNotDir
	}
	children, err := fs.fs.ReadDir(cp)
	if err != nil {
		return mapOSErr(err)
	}
	if len(children) > 0 {
		return vfs.ErrNotEmpty
	}
	if err := fs.fs.Remove(cp); err != nil {
		return mapOSErr(err)
	}
	fs.forget(cp)
	fs.bumpGenLocked(dp)
	return nil
}

// Link is declared by the vfs contract but, like the reference memfs,
// not implemented here: billy has no hard-link primitive across all its
// backends.
func (fs *FS) Link(context.Context, uint64, uint64, string) error {
	return vfs.ErrNotSupported
}

func (fs *FS) Rename(_ context.Context, fromDir uint64, fromName string, toDir uint64, toName string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fdp, err := fs.resolve(fromDir)
	if err != nil {
		return err
	}
	tdp, err := fs.resolve(toDir)
	if err != nil {
		return err
	}
	srcPath := fs.fs.Join(fdp, fromName)
	dstPath := fs.fs.Join(tdp, toName)

	srcInfo, err := fs.fs.Lstat(srcPath)
	if err != nil {
		return mapOSErr(err)
	}
	if srcPath == dstPath {
		return nil
	}
	if dstInfo, err := fs.fs.Lstat(dstPath); err == nil {
		switch {
		case srcInfo.IsDir() && dstInfo.IsDir():
			children, err := fs.fs.ReadDir(dstPath)
			if err != nil {
				return mapOSErr(err)
			}
			if len(children) > 0 {
				return vfs.ErrNotEmpty
			}
		case srcInfo.IsDir() != dstInfo.IsDir():
			return vfs.ErrNotDir
		default:
			if err := fs.fs.Remove(dstPath); err != nil {
				return mapOSErr(err)
			}
			fs.forget(dstPath)
		}
	}
	if srcInfo.IsDir() {
		prefix := srcPath + "/"
		if dstPath == srcPath || (len(dstPath) > len(prefix) && dstPath[:len(prefix)] == prefix) {
			return vfs.ErrInvalid
		}
	}
	if err := fs.fs.Rename(srcPath, dstPath); err != nil {
		return mapOSErr(err)
	}
	fs.rebind(srcPath, dstPath)
	fs.bumpGenLocked(fdp)
	fs.bumpGenLocked(tdp)
	return nil
}

func sortFileInfos(infos []os.FileInfo) {
	for i := 1; i < len(infos); i++ {
		for j := i; j > 0 && infos[j-1].Name() > infos[j].Name(); j-- {
			infos[j-1], infos[j] = infos[j], infos[j-1]
		}
	}
}
