package audit_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/night-audit/audit"
)

func TestSystemLock_AcquireRelease(t *testing.T) {
	// GIVEN: A free lock
	// WHEN: Acquiring, then releasing
	// THEN: Holder info is visible while held and gone after release

	lock := audit.NewSystemLock()

	require.NoError(t, lock.Acquire("auditor", "night audit for 2024-06-01"))
	assert.True(t, lock.Held())

	info := lock.Holder()
	require.NotNil(t, info)
	assert.Equal(t, "auditor", info.Holder)
	assert.Equal(t, "night audit for 2024-06-01", info.Reason)
	assert.False(t, info.Since.IsZero())

	lock.Release()
	assert.False(t, lock.Held())
	assert.Nil(t, lock.Holder())

	assert.NoError(t, lock.Acquire("auditor", "again"))
}

func TestSystemLock_SecondAcquireFailsFast(t *testing.T) {
	// GIVEN: A lock held by the night auditor
	// WHEN: A second caller tries to acquire
	// THEN: Immediate LockHeldError naming the current holder; no waiting

	lock := audit.NewSystemLock()
	require.NoError(t, lock.Acquire("auditor", "night audit"))

	err := lock.Acquire("front-desk", "another audit")
	require.Error(t, err)
	assert.ErrorIs(t, err, audit.ErrLockHeld)

	var held *audit.LockHeldError
	require.ErrorAs(t, err, &held)
	assert.Equal(t, "auditor", held.Holder)
	assert.Equal(t, "night audit", held.Reason)
}

func TestSystemLock_ReleaseWhenFreeIsNoOp(t *testing.T) {
	lock := audit.NewSystemLock()
	lock.Release()
	assert.False(t, lock.Held())
}

func TestSystemLock_ConcurrentAcquire_ExactlyOneWins(t *testing.T) {
	// GIVEN: Many goroutines racing for the lock
	// THEN: Exactly one succeeds, everyone else gets LockHeldError

	lock := audit.NewSystemLock()

	const n = 32
	var wg sync.WaitGroup
	won := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := lock.Acquire("worker", "race")
			if err == nil {
				won <- "ok"
				return
			}
			var held *audit.LockHeldError
			if !errors.As(err, &held) {
				won <- "unexpected"
			}
		}(i)
	}
	wg.Wait()
	close(won)

	winners := 0
	for outcome := range won {
		require.Equal(t, "ok", outcome)
		winners++
	}
	assert.Equal(t, 1, winners)
}
