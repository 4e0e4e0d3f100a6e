package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/Vaiz/nfs3-sub000/internal/logger"
)

// MaxFragmentLength bounds a single inbound fragment's declared length,
// rejecting a corrupt or hostile header before ever allocating a buffer
// for it.
const MaxFragmentLength = (1 << 20) + (1 << 18)

// Dispatcher answers one complete, reassembled RPC record. It returns
// the bytes to write back (already including the record-marking
// fragment header) or drop=true if no reply should be sent at all (a
// suppressed retransmission). Implemented by the dispatch package.
type Dispatcher interface {
	Dispatch(ctx context.Context, clientAddr string, record []byte) (reply []byte, drop bool)
}

// Conn owns one accepted TCP connection for the lifetime of a session:
// a reader goroutine that reassembles fragments and spawns one task per
// complete record, and a single writer goroutine that owns the socket's
// write half and serializes every reply through one channel so fragment
// bytes from concurrent handlers never interleave on the wire. The
// channel is buffered to 256 replies, not unbounded: a handler whose
// reply finds it full waits until the writer makes room.
//
// ConnID is a per-connection trace id attached to every log line this
// connection produces, so concurrent requests on one socket can be
// correlated in a log stream even when replies complete out of request
// order.
type Conn struct {
	ConnID     string
	RemoteAddr string

	nc         net.Conn
	dispatcher Dispatcher

	replies chan []byte
	wg      sync.WaitGroup
}

// NewConn wraps nc, ready to be served by Serve.
func NewConn(nc net.Conn, dispatcher Dispatcher) *Conn {
	return &Conn{
		ConnID:     uuid.NewString(),
		RemoteAddr: nc.RemoteAddr().String(),
		nc:         nc,
		dispatcher: dispatcher,
		replies:    make(chan []byte, 256),
	}
}

// Serve runs the reader and writer loops until the connection closes or
// ctx is cancelled. It blocks until both loops have exited.
func (c *Conn) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lc := &logger.LogContext{ConnID: c.ConnID, ClientIP: c.RemoteAddr}
	ctx = logger.WithContext(ctx, lc)
	logger.InfoCtx(ctx, "connection accepted")

	var writerDone sync.WaitGroup
	writerDone.Add(1)
	go func() {
		defer writerDone.Done()
		c.writeLoop(ctx)
	}()

	c.readLoop(ctx)

	// The reader loop only returns once the socket is unusable for
	// reading (EOF or error). Wait for every spawned handler task to
	// queue its reply, then close the channel; the writer writes what is
	// still queued and exits, stopping at the first failed write, so on
	// a socket the client has closed the remaining replies go unwritten.
	c.wg.Wait()
	close(c.replies)
	writerDone.Wait()

	_ = c.nc.Close()
	logger.InfoCtx(ctx, "connection closed")
}

// readLoop reassembles fragments into complete RPC records and spawns an
// independent goroutine per record so multiple calls on one connection
// are decoded and dispatched concurrently. Replies are not required to
// preserve request arrival order; XIDs carry identity.
func (c *Conn) readLoop(ctx context.Context) {
	var pending []byte
	for {
		var hdrBuf [4]byte
		if _, err := io.ReadFull(c.nc, hdrBuf[:]); err != nil {
			if !errors.Is(err, io.EOF) {
				logger.DebugCtx(ctx, "fragment header read failed", "error", err)
			}
			return
		}
		v := binary.BigEndian.Uint32(hdrBuf[:])
		isLast := v&0x80000000 != 0
		length := v &^ 0x80000000
		if length > MaxFragmentLength {
			logger.WarnCtx(ctx, "oversized fragment, closing connection", "length", length)
			return
		}

		frag := make([]byte, length)
		if _, err := io.ReadFull(c.nc, frag); err != nil {
			logger.DebugCtx(ctx, "fragment body read failed", "error", err)
			return
		}
		pending = append(pending, frag...)

		if !isLast {
			continue
		}

		record := pending
		pending = nil

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			defer c.recoverHandlerPanic(ctx)
			reply, drop := c.dispatcher.Dispatch(ctx, c.RemoteAddr, record)
			if drop {
				return
			}
			select {
			case c.replies <- reply:
			case <-ctx.Done():
			}
		}()
	}
}

func (c *Conn) recoverHandlerPanic(ctx context.Context) {
	if r := recover(); r != nil {
		logger.ErrorCtx(ctx, "recovered panic in request handler", "panic", fmt.Sprint(r))
	}
}

// writeLoop is the single consumer of c.replies, owning the socket's
// write half so concurrently-produced reply fragments never interleave.
func (c *Conn) writeLoop(ctx context.Context) {
	for {
		select {
		case reply, ok := <-c.replies:
			if !ok {
				return
			}
			if _, err := c.nc.Write(reply); err != nil {
				logger.DebugCtx(ctx, "reply write failed", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
