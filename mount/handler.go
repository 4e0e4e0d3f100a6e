package mount

import (
	"context"
	"strings"
	"sync"
)

// Resolver looks up a path relative to the server's configured export
// root and returns the opaque backend id of the object it names, or an
// error (vfs.ErrNotExist and friends) if it cannot be resolved. Mount
// only ever needs to go from a path to a handle, never the reverse, so
// this is a bare function rather than requiring backends to implement a
// LookupByPath method on the generic vfs.NfsReadFileSystem contract;
// RFC 1813 Appendix I gives the mount procedure no other argument shape
// to support, and keeping it a function avoids widening the VFS
// interface every backend must implement for a capability only the
// mount handler uses.
type Resolver[H any] func(ctx context.Context, path string) (H, error)

// Encoder turns a backend id into the wire file handle MNT hands back.
type Encoder[H any] func(H) FileHandle

// Handler answers Mount v3 calls for a single configured export.
// Instances are safe for concurrent use: the mount-table bookkeeping
// (used only to answer DUMP, which no client's correctness
// depends on) is guarded by its own mutex, never held across a Resolve
// call into the backend.
type Handler[H any] struct {
	ExportName string
	Resolve    Resolver[H]
	Encode     Encoder[H]

	mu      sync.Mutex
	mounted map[string]map[string]bool // client host -> set of mounted paths
}

// NewHandler returns a Handler serving exportName (e.g. "/") backed by
// resolve/encode.
func NewHandler[H any](exportName string, resolve Resolver[H], encode Encoder[H]) *Handler[H] {
	return &Handler[H]{
		ExportName: exportName,
		Resolve:    resolve,
		Encode:     encode,
		mounted:    map[string]map[string]bool{},
	}
}

// Null implements MOUNTPROC3_NULL.
func (h *Handler[H]) Null() error { return nil }

// stripExportPrefix removes the server's configured export name from
// dirPath, matching the client's requested path against the configured
// root before ever touching the backend. Returns ok=false if dirPath
// does not fall under export.
func stripExportPrefix(export, dirPath string) (string, bool) {
	export = strings.TrimSuffix(export, "/")
	if export == "" {
		// root export ("/"): everything under it matches as-is.
		return dirPath, true
	}
	if dirPath == export {
		return "/", true
	}
	if strings.HasPrefix(dirPath, export+"/") {
		return dirPath[len(export):], true
	}
	return "", false
}

// Mnt implements MOUNTPROC3_MNT: strips the configured export prefix
// and, on a match, resolves the remaining path through the backend.
// clientHost records the mount for later DUMP/UMNT/UMNTALL bookkeeping;
// it may be empty if the caller does not track per-client state.
func (h *Handler[H]) Mnt(ctx context.Context, clientHost, dirPath string) MntRes {
	rel, ok := stripExportPrefix(h.ExportName, dirPath)
	if !ok {
		return MntRes{Status: StatusErrNoEnt}
	}
	id, err := h.Resolve(ctx, rel)
	if err != nil {
		return MntRes{Status: StatusErrNoEnt}
	}
	if clientHost != "" {
		h.recordMount(clientHost, dirPath)
	}
	return MntRes{
		Status: StatusOK,
		OK: &MountOK{
			Handle:      h.Encode(id),
			AuthFlavors: []uint32{0 /* AUTH_NULL */, 1 /* AUTH_UNIX */},
		},
	}
}

func (h *Handler[H]) recordMount(host, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.mounted[host]
	if !ok {
		set = map[string]bool{}
		h.mounted[host] = set
	}
	set[path] = true
}

// Umnt implements MOUNTPROC3_UMNT: drops one (host, path) mount record.
// No reply value beyond the RPC success/failure envelope.
func (h *Handler[H]) Umnt(host, dirPath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.mounted[host]; ok {
		delete(set, dirPath)
		if len(set) == 0 {
			delete(h.mounted, host)
		}
	}
}

// UmntAll implements MOUNTPROC3_UMNTALL: drops every mount record for
// host.
func (h *Handler[H]) UmntAll(host string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.mounted, host)
}

// Dump implements MOUNTPROC3_DUMP: the server's whole mount table, as a
// flat slice (callers encoding the reply chain it into MountEntry's
// linked-list wire shape).
func (h *Handler[H]) Dump() []MountEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []MountEntry
	for host, paths := range h.mounted {
		for path := range paths {
			out = append(out, MountEntry{HostName: host, DirPath: path})
		}
	}
	return out
}

// Export implements MOUNTPROC3_EXPORT: this server always advertises
// exactly one export, with no client-group restriction.
func (h *Handler[H]) Export() []ExportNode {
	return []ExportNode{{DirPath: h.ExportName}}
}
