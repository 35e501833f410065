package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeBucketTime pins a bucket to a fake clock whose sleeps advance
// the clock instead of blocking.
func fakeBucketTime(tb *TokenBucket, clock *fakeClock) {
	tb.now = clock.Now
	tb.lastRefill = clock.Now()
	tb.sleep = func(_ context.Context, d time.Duration) error {
		clock.Advance(d)
		return nil
	}
}

func TestNewTokenBucket_Defaults(t *testing.T) {
	tb := NewTokenBucket(TokenBucketConfig{})

	if tb.config.Capacity != 100 {
		t.Errorf("Capacity = %v, want 100", tb.config.Capacity)
	}
	if tb.config.RefillRate != 10 {
		t.Errorf("RefillRate = %v, want 10", tb.config.RefillRate)
	}
}

func TestTokenBucket_StartsFull(t *testing.T) {
	clock := newFakeClock()
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 10, RefillRate: 1})
	fakeBucketTime(tb, clock)

	if !tb.TryAcquire(10) {
		t.Fatal("TryAcquire(capacity) on a fresh bucket = false, want true")
	}
	if tb.TryAcquire(10) {
		t.Error("Second TryAcquire(capacity) = true, want false (tokens exhausted)")
	}
	if tb.TryAcquire(1) {
		t.Error("TryAcquire(1) on empty bucket = true, want false")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	clock := newFakeClock()
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 10, RefillRate: 1})
	fakeBucketTime(tb, clock)

	if !tb.TryAcquire(10) {
		t.Fatal("TryAcquire(10) = false, want true")
	}

	// After capacity/rate seconds the bucket is full again, clamped.
	clock.Advance(10 * time.Second)
	if got := tb.Available(); got != 10 {
		t.Errorf("Available() after full refill = %v, want 10", got)
	}

	clock.Advance(time.Hour)
	if got := tb.Available(); got != 10 {
		t.Errorf("Available() after idle hour = %v, want 10 (clamped)", got)
	}
}

func TestTokenBucket_PartialRefill(t *testing.T) {
	clock := newFakeClock()
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 10, RefillRate: 2})
	fakeBucketTime(tb, clock)

	tb.TryAcquire(10)
	clock.Advance(2 * time.Second)

	if got := tb.Available(); got != 4 {
		t.Errorf("Available() = %v, want 4 (2s at 2 tokens/s)", got)
	}
}

func TestTokenBucket_AcquireBlocksOnce(t *testing.T) {
	clock := newFakeClock()
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 10, RefillRate: 1})

	var waits []time.Duration
	tb.now = clock.Now
	tb.lastRefill = clock.Now()
	tb.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		clock.Advance(d)
		return nil
	}

	tb.TryAcquire(10)

	if err := tb.Acquire(context.Background(), 5); err != nil {
		t.Fatalf("Acquire(5) = %v, want nil after waiting for refill", err)
	}

	if len(waits) != 1 {
		t.Fatalf("Slept %d times, want exactly 1", len(waits))
	}
	if waits[0] != 5*time.Second {
		t.Errorf("Wait = %v, want 5s (deficit / rate)", waits[0])
	}
}

func TestTokenBucket_AcquireImmediateWhenAvailable(t *testing.T) {
	clock := newFakeClock()
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 10, RefillRate: 1})

	var waits []time.Duration
	tb.now = clock.Now
	tb.lastRefill = clock.Now()
	tb.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	if err := tb.Acquire(context.Background(), 3); err != nil {
		t.Fatalf("Acquire(3) = %v, want nil", err)
	}
	if len(waits) != 0 {
		t.Errorf("Slept %d times, want 0", len(waits))
	}
	if got := tb.Available(); got != 7 {
		t.Errorf("Available() = %v, want 7", got)
	}
}

func TestTokenBucket_AcquireBeyondCapacityFails(t *testing.T) {
	clock := newFakeClock()
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 10, RefillRate: 1})
	fakeBucketTime(tb, clock)

	// More tokens than the bucket can ever hold: the single post-wait
	// retry fails instead of looping forever.
	err := tb.Acquire(context.Background(), 20)
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Acquire(20) = %v, want ErrRateLimitExceeded", err)
	}
}

func TestTokenBucket_AcquireNoRefillFails(t *testing.T) {
	clock := newFakeClock()
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 10, RefillRate: 1})

	tb.now = clock.Now
	tb.lastRefill = clock.Now()
	// Sleep returns without the clock moving, so no tokens accrue.
	tb.sleep = func(_ context.Context, _ time.Duration) error { return nil }

	tb.TryAcquire(10)

	err := tb.Acquire(context.Background(), 5)
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Acquire(5) = %v, want ErrRateLimitExceeded", err)
	}
}

func TestTokenBucket_AcquireCanceled(t *testing.T) {
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 10, RefillRate: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tb.Acquire(ctx, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() with canceled context = %v, want context.Canceled", err)
	}
}

func TestTokenBucket_Reset(t *testing.T) {
	clock := newFakeClock()
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 10, RefillRate: 1})
	fakeBucketTime(tb, clock)

	tb.TryAcquire(10)
	tb.Reset()

	if got := tb.Available(); got != 10 {
		t.Errorf("Available() after Reset = %v, want 10", got)
	}
}

func TestTokenBucket_Execute(t *testing.T) {
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 10, RefillRate: 100})

	ran := false
	err := tb.Execute(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})

	if err != nil {
		t.Errorf("Execute() = %v, want nil", err)
	}
	if !ran {
		t.Error("Execute() did not run the operation")
	}
}

func TestTokenBucket_ConcurrentConservation(t *testing.T) {
	clock := newFakeClock()
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 100, RefillRate: 0.0001})
	fakeBucketTime(tb, clock)

	done := make(chan bool)
	for i := 0; i < 20; i++ {
		go func() {
			done <- tb.TryAcquire(10)
		}()
	}

	granted := 0
	for i := 0; i < 20; i++ {
		if <-done {
			granted++
		}
	}

	// 100 tokens serve exactly 10 acquisitions of 10.
	if granted != 10 {
		t.Errorf("Granted %d acquisitions, want 10", granted)
	}
}
