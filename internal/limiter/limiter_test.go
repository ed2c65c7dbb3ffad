package limiter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	l := New(Options{MaxInflight: 1})
	release, ok := l.Allow("render")
	if !ok {
		t.Fatal("first Allow refused")
	}
	if _, ok := l.Allow("RENDER"); ok {
		t.Fatal("second Allow on same key granted")
	}
	if _, ok := l.Allow("other"); !ok {
		t.Fatal("Allow on other key refused")
	}
	release()
	if _, ok := l.Allow("render"); !ok {
		t.Fatal("Allow after release refused")
	}
}

func TestAcquireCancelled(t *testing.T) {
	l := New(Options{MaxInflight: 1})
	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire error = %v, want DeadlineExceeded", err)
	}
	if got := l.InFlight("k"); got != 1 {
		t.Errorf("InFlight = %d, want 1", got)
	}
}

func TestDefaultCapacity(t *testing.T) {
	l := New(Options{})
	for i := 0; i < 2; i++ {
		if _, ok := l.Allow("k"); !ok {
			t.Fatalf("Allow #%d refused", i+1)
		}
	}
	if _, ok := l.Allow("k"); ok {
		t.Fatal("third Allow granted with default capacity 2")
	}
}
