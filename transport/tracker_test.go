package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateXidIsSuppressedWhileInFlight(t *testing.T) {
	tr := NewTracker(time.Minute, 0, 0)
	now := time.Now()

	res1, release := tr.Start("client1", 200, now)
	require.Equal(t, Locked, res1)

	res2, _ := tr.Start("client1", 200, now)
	assert.Equal(t, AlreadyExists, res2)

	release()

	res3, _ := tr.Start("client1", 200, now)
	assert.Equal(t, AlreadyExists, res3, "a completed xid is still recognized within retention")
}

func TestOutOfOrderXidsBothLock(t *testing.T) {
	tr := NewTracker(time.Minute, 0, 0)
	now := time.Now()

	res1, release1 := tr.Start("client1", 200, now)
	require.Equal(t, Locked, res1)

	res2, release2 := tr.Start("client1", 100, now)
	require.Equal(t, Locked, res2)

	release1()
	release2()
}

func TestTooManyActiveTransactionsIsRejected(t *testing.T) {
	tr := NewTracker(time.Minute, 2, 0)
	now := time.Now()

	res1, _ := tr.Start("client1", 1, now)
	require.Equal(t, Locked, res1)
	res2, _ := tr.Start("client1", 2, now)
	require.Equal(t, Locked, res2)

	res3, _ := tr.Start("client1", 3, now)
	assert.Equal(t, TooManyRequests, res3)
}

func TestReleaseFreesActiveSlot(t *testing.T) {
	tr := NewTracker(time.Minute, 1, 0)
	now := time.Now()

	_, release := tr.Start("client1", 1, now)
	res, _ := tr.Start("client1", 2, now)
	require.Equal(t, TooManyRequests, res)

	release()

	res2, _ := tr.Start("client1", 2, now)
	assert.Equal(t, Locked, res2)
}

func TestEvictIdleDropsQuietClients(t *testing.T) {
	tr := NewTracker(time.Minute, 0, 0)
	now := time.Now()

	_, release := tr.Start("client1", 1, now)
	release()
	require.Equal(t, 1, tr.ClientCount())

	tr.EvictIdle(now.Add(2 * time.Minute))
	assert.Equal(t, 0, tr.ClientCount())
}

func TestEvictIdleKeepsClientsWithActiveWork(t *testing.T) {
	tr := NewTracker(time.Minute, 0, 0)
	now := time.Now()

	tr.Start("client1", 1, now)
	tr.EvictIdle(now.Add(2 * time.Minute))
	assert.Equal(t, 1, tr.ClientCount(), "a client with an in-flight transaction is never evicted")
}

func TestDifferentClientsTrackedIndependently(t *testing.T) {
	tr := NewTracker(time.Minute, 0, 0)
	now := time.Now()

	res1, _ := tr.Start("client1", 1, now)
	res2, _ := tr.Start("client2", 1, now)
	assert.Equal(t, Locked, res1)
	assert.Equal(t, Locked, res2)
	assert.Equal(t, 2, tr.ClientCount())
}
