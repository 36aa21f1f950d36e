package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsUpToLimit(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := New(3, time.Minute)
	limiter.Clock = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		d := limiter.Check("10.1.2.3")
		require.True(t, d.Allowed, "request %d should be allowed", i+1)
		require.Equal(t, 2-i, d.Remaining)
	}

	d := limiter.Check("10.1.2.3")
	require.False(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)
}

func TestLimiterRejectsWithResetSeconds(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := start
	limiter := New(1, time.Minute)
	limiter.Clock = func() time.Time { return clock }

	require.True(t, limiter.Check("client").Allowed)

	clock = start.Add(10 * time.Second)
	d := limiter.Check("client")
	require.False(t, d.Allowed)
	require.Equal(t, 50, d.ResetIn)

	// Partial seconds round up.
	clock = start.Add(10*time.Second + 500*time.Millisecond)
	d = limiter.Check("client")
	require.False(t, d.Allowed)
	require.Equal(t, 50, d.ResetIn)
}

func TestLimiterResetsAfterWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := start
	limiter := New(2, time.Minute)
	limiter.Clock = func() time.Time { return clock }

	require.True(t, limiter.Check("client").Allowed)
	require.True(t, limiter.Check("client").Allowed)
	require.False(t, limiter.Check("client").Allowed)

	clock = start.Add(time.Minute + time.Second)
	d := limiter.Check("client")
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)
}

func TestLimiterIsolatesIdentifiers(t *testing.T) {
	limiter := New(1, time.Minute)

	require.True(t, limiter.Check("a").Allowed)
	require.False(t, limiter.Check("a").Allowed)
	require.True(t, limiter.Check("b").Allowed)
}

func TestLimiterSweepRemovesExpiredEntries(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := start
	limiter := New(5, time.Minute)
	limiter.Clock = func() time.Time { return clock }

	limiter.Check("old")
	clock = start.Add(30 * time.Second)
	limiter.Check("fresh")
	require.Equal(t, 2, limiter.Len())

	clock = start.Add(70 * time.Second)
	require.Equal(t, 1, limiter.Sweep())
	require.Equal(t, 1, limiter.Len())

	// The surviving entry is still counted against its original window.
	d := limiter.Check("fresh")
	require.True(t, d.Allowed)
	require.Equal(t, 3, d.Remaining)
}

func TestLimiterConcurrentChecks(t *testing.T) {
	limiter := New(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				limiter.Check("shared")
			}
		}()
	}
	wg.Wait()

	d := limiter.Check("shared")
	require.True(t, d.Allowed)
	require.Equal(t, 1000-501, d.Remaining)
}
