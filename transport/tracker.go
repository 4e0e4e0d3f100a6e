// Package transport implements the per-connection RPC record-marking
// framing (C3) and the transaction tracker that suppresses retransmitted
// calls and bounds per-client concurrency (C4).
package transport

import (
	"sort"
	"sync"
	"time"
)

// DefaultRetention is how long a completed transaction is remembered so
// a retransmitted call can still be recognized as a duplicate.
const DefaultRetention = 60 * time.Second

// DefaultMaxActive is the default per-client cap on in-flight (not yet
// completed) transactions.
const DefaultMaxActive = 256

// DefaultTrimThreshold bounds how large a single client's transaction
// deque is allowed to grow before old completed entries are trimmed
// regardless of age, so a client that never lets its deque go idle
// cannot grow it unboundedly.
const DefaultTrimThreshold = 2048

// StartResult is the outcome of Tracker.Start.
type StartResult int

const (
	// Locked means the caller owns this (client, xid) transaction and
	// should proceed to dispatch it, calling the returned release func
	// exactly once when done.
	Locked StartResult = iota
	// AlreadyExists means a call with this xid is in flight or was
	// recently completed for this client: the caller must silently drop
	// the new call, emitting no reply.
	AlreadyExists
	// TooManyRequests means this client already has DefaultMaxActive (or
	// configured) in-flight transactions; the caller should reply with
	// the RPC-level SYSTEM_ERR accept_stat.
	TooManyRequests
)

type txState int

const (
	txInProgress txState = iota
	txCompleted
)

type transaction struct {
	xid         uint32
	state       txState
	completedAt time.Time
}

// clientEntry holds one client's transaction deque. insert keeps txs
// sorted ascending by numeric xid, so find checks the back first (the
// usual case of increasing xids) and otherwise binary-searches; trim
// therefore drops entries from the lowest xid upward.
type clientEntry struct {
	mu         sync.Mutex
	txs        []transaction
	activeCnt  int
	lastActive time.Time
}

// Tracker deduplicates retransmitted RPC calls and bounds per-client
// in-flight concurrency. The outer client map and each client's own
// deque are locked independently; neither lock is ever held across a
// blocking backend call. Start/release pairs bracket exactly the
// dispatch of one call.
type Tracker struct {
	mu            sync.RWMutex
	clients       map[string]*clientEntry
	retention     time.Duration
	maxActive     int
	trimThreshold int
}

// NewTracker returns a Tracker using the given parameters; zero values
// fall back to the package defaults.
func NewTracker(retention time.Duration, maxActive, trimThreshold int) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if maxActive <= 0 {
		maxActive = DefaultMaxActive
	}
	if trimThreshold <= 0 {
		trimThreshold = DefaultTrimThreshold
	}
	return &Tracker{
		clients:       map[string]*clientEntry{},
		retention:     retention,
		maxActive:     maxActive,
		trimThreshold: trimThreshold,
	}
}

func (t *Tracker) clientFor(addr string) *clientEntry {
	t.mu.RLock()
	c, ok := t.clients[addr]
	t.mu.RUnlock()
	if ok {
		return c
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok = t.clients[addr]; ok {
		return c
	}
	c = &clientEntry{}
	t.clients[addr] = c
	return c
}

// find locates xid in c.txs, checking the back first (the common case of
// a monotonically increasing xid stream lands here in O(1)) and falling
// back to a binary search over the sorted deque otherwise.
func (c *clientEntry) find(xid uint32) (int, bool) {
	n := len(c.txs)
	if n > 0 && c.txs[n-1].xid == xid {
		return n - 1, true
	}
	idx := sort.Search(n, func(i int) bool { return c.txs[i].xid >= xid })
	if idx < n && c.txs[idx].xid == xid {
		return idx, true
	}
	return idx, false
}

// insert places xid into the sorted deque at its correct position.
func (c *clientEntry) insert(xid uint32) {
	idx, _ := c.find(xid)
	c.txs = append(c.txs, transaction{})
	copy(c.txs[idx+1:], c.txs[idx:])
	c.txs[idx] = transaction{xid: xid, state: txInProgress}
}

// trim drops completed entries from the front of the deque once they
// are older than retention, or unconditionally once the deque has grown
// past trimThreshold (a client that never pauses must not be allowed to
// retain every transaction it has ever made forever).
func (c *clientEntry) trim(retention time.Duration, trimThreshold int, now time.Time) {
	for len(c.txs) > 0 {
		front := c.txs[0]
		if front.state != txCompleted {
			break
		}
		overThreshold := len(c.txs) > trimThreshold
		overAge := now.Sub(front.completedAt) > retention
		if !overThreshold && !overAge {
			break
		}
		c.txs = c.txs[1:]
	}
}

// Start attempts to claim (addr, xid) as a new in-flight transaction.
// On Locked, the caller must invoke the returned release func exactly
// once when it has finished processing (successfully or not); this
// marks the transaction Completed so a later retransmission of the same
// xid is recognized rather than reprocessed.
func (t *Tracker) Start(addr string, xid uint32, now time.Time) (StartResult, func()) {
	c := t.clientFor(addr)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastActive = now
	if _, found := c.find(xid); found {
		return AlreadyExists, noop
	}
	if c.activeCnt >= t.maxActive {
		return TooManyRequests, noop
	}

	c.insert(xid)
	c.activeCnt++

	release := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx, found := c.find(xid); found && c.txs[idx].state == txInProgress {
			c.txs[idx].state = txCompleted
			c.txs[idx].completedAt = time.Now()
			c.activeCnt--
		}
		c.trim(t.retention, t.trimThreshold, time.Now())
	}
	return Locked, release
}

func noop() {}

// EvictIdle walks every tracked client and drops those with no active
// transactions whose last activity is older than retention. This is the
// work the 10s periodic cleaner (see RunCleaner) performs; it never
// cancels in-flight work, only forgets clients that have gone quiet.
func (t *Tracker) EvictIdle(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for addr, c := range t.clients {
		c.mu.Lock()
		idle := c.activeCnt == 0 && now.Sub(c.lastActive) > t.retention
		c.mu.Unlock()
		if idle {
			delete(t.clients, addr)
		}
	}
}

// RunCleaner runs EvictIdle on a fixed 10s tick until stop is closed. It is
// meant to be launched once per server in its own goroutine.
func (t *Tracker) RunCleaner(stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			t.EvictIdle(now)
		}
	}
}

// ClientCount reports how many clients are currently tracked, for tests
// and diagnostics.
func (t *Tracker) ClientCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clients)
}
