package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Errorf("request %d should be allowed", i)
		}
	}

	if tb.Allow() {
		t.Error("request beyond capacity should be denied")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 10*time.Millisecond)

	if !tb.Allow() {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow() {
		t.Fatal("second immediate request should be denied")
	}

	time.Sleep(15 * time.Millisecond)

	if !tb.Allow() {
		t.Error("request after refill period should be allowed")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Minute)
	tb.Allow()
	tb.Reset()

	if !tb.Allow() {
		t.Error("request after reset should be allowed")
	}
}

func TestPacerEnforcesGap(t *testing.T) {
	var slept []time.Duration
	p := NewPacer(50*time.Millisecond, 50*time.Millisecond)
	p.sleep = func(d time.Duration) { slept = append(slept, d) }

	p.Pace() // first call: no previous request, long since zero time
	p.Pace() // second call: should wait close to the full gap

	if len(slept) == 0 {
		t.Fatal("second Pace call should have slept")
	}
	last := slept[len(slept)-1]
	if last <= 0 || last > 50*time.Millisecond {
		t.Errorf("unexpected pace gap: %v", last)
	}
}

func TestPacerSwappedBounds(t *testing.T) {
	p := NewPacer(time.Second, time.Millisecond)
	if p.maxDelay != p.minDelay {
		t.Errorf("max delay should be clamped to min delay, got %v", p.maxDelay)
	}
}
