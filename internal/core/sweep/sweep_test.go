package sweep

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunnerInvokesSweepOnInterval(t *testing.T) {
	var passes int32
	runner := NewRunner("cache", 10*time.Millisecond, func() int {
		atomic.AddInt32(&passes, 1)
		return 0
	})

	runner.Start(context.Background())

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&passes) >= 2
	}, time.Second, 5*time.Millisecond)

	runner.Stop()
}

func TestRunnerStopHaltsLoop(t *testing.T) {
	var passes int32
	runner := NewRunner("rate_limit", 10*time.Millisecond, func() int {
		atomic.AddInt32(&passes, 1)
		return 1
	})

	runner.Start(context.Background())
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&passes) >= 1
	}, time.Second, 5*time.Millisecond)

	runner.Stop()
	settled := atomic.LoadInt32(&passes)

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, settled, atomic.LoadInt32(&passes))

	// Stop is idempotent.
	runner.Stop()
}

func TestRunnerRespectsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	runner := NewRunner("cache", 10*time.Millisecond, func() int { return 0 })
	runner.Start(ctx)

	cancel()

	select {
	case <-runner.done:
	case <-time.After(time.Second):
		t.Fatal("sweep loop did not exit after context cancel")
	}
}
