package health

import (
	"context"
	"testing"

	"github.com/jonwraymond/llmops/resilience"
)

func TestLimiterChecker_Name(t *testing.T) {
	bucket := resilience.NewTokenBucket(resilience.TokenBucketConfig{})

	if got := NewLimiterChecker("", bucket, LimiterCheckerConfig{}).Name(); got != "rate-limiter" {
		t.Errorf("Name() = %v, want 'rate-limiter'", got)
	}
	if got := NewLimiterChecker("quota", bucket, LimiterCheckerConfig{}).Name(); got != "quota" {
		t.Errorf("Name() = %v, want 'quota'", got)
	}
}

func TestLimiterChecker_ThresholdDefaults(t *testing.T) {
	bucket := resilience.NewTokenBucket(resilience.TokenBucketConfig{})

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"zero", 0, 0.9},
		{"negative", -1, 0.9},
		{"one", 1, 0.9},
		{"valid", 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewLimiterChecker("", bucket, LimiterCheckerConfig{WarningThreshold: tt.value})
			if checker.config.WarningThreshold != tt.want {
				t.Errorf("WarningThreshold = %v, want %v", checker.config.WarningThreshold, tt.want)
			}
		})
	}
}

func TestLimiterChecker_FullBucket(t *testing.T) {
	bucket := resilience.NewTokenBucket(resilience.TokenBucketConfig{
		Capacity:   100,
		RefillRate: 10,
	})
	checker := NewLimiterChecker("", bucket, LimiterCheckerConfig{})

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if result.Details["capacity"] != 100.0 {
		t.Errorf("Details[capacity] = %v, want 100", result.Details["capacity"])
	}
}

func TestLimiterChecker_DrainedBucket(t *testing.T) {
	// Near-zero refill rate so the drained state holds during the check.
	bucket := resilience.NewTokenBucket(resilience.TokenBucketConfig{
		Capacity:   100,
		RefillRate: 0.001,
	})
	checker := NewLimiterChecker("", bucket, LimiterCheckerConfig{})

	if !bucket.TryAcquire(95) {
		t.Fatal("TryAcquire(95) should succeed on a full bucket")
	}

	result := checker.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want StatusDegraded", result.Status)
	}
}

func TestLimiterChecker_BelowThreshold(t *testing.T) {
	bucket := resilience.NewTokenBucket(resilience.TokenBucketConfig{
		Capacity:   100,
		RefillRate: 0.001,
	})
	checker := NewLimiterChecker("", bucket, LimiterCheckerConfig{WarningThreshold: 0.5})

	if !bucket.TryAcquire(40) {
		t.Fatal("TryAcquire(40) should succeed on a full bucket")
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
}

func TestLimiterChecker_CancelledContext(t *testing.T) {
	bucket := resilience.NewTokenBucket(resilience.TokenBucketConfig{})
	checker := NewLimiterChecker("", bucket, LimiterCheckerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := checker.Check(ctx)
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy", result.Status)
	}
}
