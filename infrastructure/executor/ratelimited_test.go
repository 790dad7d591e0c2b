package executor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimitedPoolForwardsSubmissions(t *testing.T) {
	inner := NewLocalPool(4)
	defer inner.Close()

	limited := NewRateLimitedPool(inner, rate.Inf, 1)

	var count atomic.Int64
	done := make(chan struct{})
	require.NoError(t, limited.Submit(func() {
		count.Add(1)
		close(done)
	}))
	<-done
	assert.Equal(t, int64(1), count.Load())
}

func TestRateLimitedPoolPacesSubmissions(t *testing.T) {
	inner := NewLocalPool(4)
	defer inner.Close()

	// Burst of 1 at 10/sec forces the second submission to wait roughly
	// 100ms for a fresh token.
	limited := NewRateLimitedPool(inner, rate.Limit(10), 1)

	start := time.Now()
	require.NoError(t, limited.Submit(func() {}))
	require.NoError(t, limited.Submit(func() {}))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond, "second submission should wait for a rate-limit token")
}

func TestRateLimitedPoolCloseForwardsToInner(t *testing.T) {
	inner := NewLocalPool(1)
	limited := NewRateLimitedPool(inner, rate.Inf, 1)
	assert.NoError(t, limited.Close())
}
