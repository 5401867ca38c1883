package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait_SpacesSequentialRequests(t *testing.T) {
	interval := 30 * time.Millisecond
	l := New(interval)
	ctx := context.Background()

	const n = 4
	start := time.Now()
	for i := 0; i < n; i++ {
		require.NoError(t, l.Wait(ctx, "example.com"))
	}
	elapsed := time.Since(start)

	// N sequential requests take at least (N-1) * interval
	assert.GreaterOrEqual(t, elapsed, time.Duration(n-1)*interval)
}

func TestWait_SerializesConcurrentCallers(t *testing.T) {
	interval := 25 * time.Millisecond
	l := New(interval)
	ctx := context.Background()

	const n = 5
	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Wait(ctx, "example.com"))
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(start), time.Duration(n-1)*interval)
}

func TestWait_DomainsAreIndependent(t *testing.T) {
	interval := 200 * time.Millisecond
	l := New(interval)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "a.example.com"))
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "b.example.com"))

	// A different domain never waits on the first one's slot
	assert.Less(t, time.Since(start), interval)
}

func TestWait_DisabledInterval(t *testing.T) {
	l := New(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx, "example.com"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWait_CancelledContext(t *testing.T) {
	l := New(time.Minute)
	ctx := context.Background()

	// Claim the slot, then cancel while the second caller is waiting
	require.NoError(t, l.Wait(ctx, "example.com"))

	cancelCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- l.Wait(cancelCtx, "example.com") }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}
