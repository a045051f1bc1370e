package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(perMinute, burst int) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(perMinute, burst)
	l.now = clock.Now
	return l, clock
}

func TestLimiterAllow(t *testing.T) {
	l, clock := newTestLimiter(60, 2)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst requests should be allowed")
	}
	if l.Allow("a") {
		t.Error("third immediate request should be limited")
	}
	if !l.Allow("b") {
		t.Error("keys must be limited independently")
	}

	clock.Advance(time.Second)
	if !l.Allow("a") {
		t.Error("token should refill after one second at 60/min")
	}
	if l.Allow("a") {
		t.Error("only one token should have refilled")
	}
}

func TestLimiterDisabled(t *testing.T) {
	l, _ := newTestLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d limited with limiting disabled", i)
		}
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d, disabled limiter should not track keys", l.Len())
	}
}

func TestLimiterCleanup(t *testing.T) {
	l, clock := newTestLimiter(30, 1)
	l.Allow("old")
	clock.Advance(9 * time.Minute)
	l.Allow("recent")
	clock.Advance(2 * time.Minute)

	l.Cleanup()
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	// a dropped key starts with a full bucket again
	if !l.Allow("old") {
		t.Error("expected evicted key to be allowed")
	}
}
