// Package server assembles the full stack behind a single TCP listener:
// file-handle converter, NFS v3 engine, mount and portmap handlers,
// transaction tracker, and the per-connection transport loops. It is the
// one-stop constructor a host application uses when it does not need to
// wire the pieces individually.
package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/Vaiz/nfs3-sub000/dispatch"
	"github.com/Vaiz/nfs3-sub000/fh"
	"github.com/Vaiz/nfs3-sub000/internal/logger"
	"github.com/Vaiz/nfs3-sub000/mount"
	"github.com/Vaiz/nfs3-sub000/nfs3"
	"github.com/Vaiz/nfs3-sub000/portmap"
	"github.com/Vaiz/nfs3-sub000/transport"
	"github.com/Vaiz/nfs3-sub000/vfs"
)

// DefaultPort is the TCP port the reference server listens on when the
// caller does not bring its own listener.
const DefaultPort = 11111

// Config carries the knobs a host application can set; zero values fall
// back to sensible defaults.
type Config struct {
	// ExportName is the export path MNT matches against, "/" by default.
	ExportName string

	// ReadOnly wraps the backend so every mutation reports ROFS.
	ReadOnly bool

	// Tracker tuning; zero values use the transport package defaults.
	Retention     time.Duration
	MaxActive     int
	TrimThreshold int
}

// Server owns one backend and everything needed to serve it. Construct
// with New, then call Serve with a listener.
type Server[H vfs.Handle] struct {
	cfg     Config
	engine  *nfs3.Engine[H]
	handles *fh.Converter
	mnt     *mount.Handler[H]
	tracker *transport.Tracker
}

// New builds a Server around fsImpl. resolve maps an export-relative
// path to a backend id for the MNT procedure. The server's instance
// generation is captured here, once: file handles minted by a previous
// process (or a previous New call) decode as STALE, never as live
// objects.
func New[H vfs.Handle](fsImpl vfs.NfsFileSystem[H], resolve mount.Resolver[H], cfg Config) *Server[H] {
	if cfg.ExportName == "" {
		cfg.ExportName = "/"
	}
	var backend vfs.NfsFileSystem[H] = fsImpl
	if cfg.ReadOnly {
		backend = vfs.NewReadOnly[H](fsImpl)
	}

	handles := fh.NewConverter(uint64(time.Now().UnixMilli()))
	engine := nfs3.NewEngine[H](backend, handles, cfg.ReadOnly)
	encode := func(id H) mount.FileHandle {
		b := handles.ToHandle(uint64(id))
		return mount.FileHandle{Data: append([]byte(nil), b[:]...)}
	}
	return &Server[H]{
		cfg:     cfg,
		engine:  engine,
		handles: handles,
		mnt:     mount.NewHandler[H](cfg.ExportName, resolve, encode),
		tracker: transport.NewTracker(cfg.Retention, cfg.MaxActive, cfg.TrimThreshold),
	}
}

// Engine exposes the procedure engine, mainly so tests and embedding
// applications can drive procedures without a socket.
func (s *Server[H]) Engine() *nfs3.Engine[H] { return s.engine }

// Serve accepts connections on ln until ctx is cancelled or ln is
// closed, answering Portmap, Mount v3, and NFS v3 on that one port. It
// blocks; run it in a goroutine if the caller has other work.
func (s *Server[H]) Serve(ctx context.Context, ln net.Listener) error {
	port := uint32(DefaultPort)
	if ta, ok := ln.Addr().(*net.TCPAddr); ok {
		port = uint32(ta.Port)
	}
	pm := portmap.NewHandler(port)
	disp := dispatch.New[H](pm, s.mnt, s.engine, s.tracker)

	stop := make(chan struct{})
	defer close(stop)
	go s.tracker.RunCleaner(stop)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	logger.Info("serving nfs", "addr", ln.Addr().String(), "export", s.cfg.ExportName)
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go transport.NewConn(nc, disp).Serve(ctx)
	}
}

// ListenAndServe listens on addr (":11111" when empty) and calls Serve.
func (s *Server[H]) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = ":11111"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
