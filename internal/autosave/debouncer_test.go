package autosave

import (
	"sync/atomic"
	"testing"
	"time"
)

const delay = 20 * time.Millisecond

func TestScheduleCoalesces(t *testing.T) {
	d := New(delay)
	var first, second atomic.Int32
	done := make(chan struct{})
	d.Schedule("f1", func() { first.Add(1) })
	d.Schedule("f1", func() { second.Add(1); close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("save never ran")
	}
	time.Sleep(2 * delay)
	if first.Load() != 0 || second.Load() != 1 {
		t.Errorf("runs = %d superseded, %d latest; want 0, 1", first.Load(), second.Load())
	}
	if d.Pending("f1") {
		t.Error("still pending after run")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	d := New(delay)
	var runs atomic.Int32
	d.Schedule("a", func() { runs.Add(1) })
	d.Schedule("b", func() { runs.Add(1) })
	time.Sleep(5 * delay)
	if got := runs.Load(); got != 2 {
		t.Errorf("runs = %d, want 2", got)
	}
}

func TestFlush(t *testing.T) {
	d := New(time.Hour)
	var runs atomic.Int32
	d.Schedule("f1", func() { runs.Add(1) })
	if !d.Flush("f1") {
		t.Fatal("Flush found nothing pending")
	}
	if runs.Load() != 1 {
		t.Fatalf("runs = %d after Flush, want 1", runs.Load())
	}
	if d.Flush("f1") {
		t.Error("second Flush ran again")
	}
}

func TestFlushBeatsTimer(t *testing.T) {
	d := New(delay)
	var runs atomic.Int32
	d.Schedule("f1", func() { runs.Add(1) })
	d.Flush("f1")
	time.Sleep(3 * delay)
	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestCancel(t *testing.T) {
	d := New(delay)
	var runs atomic.Int32
	d.Schedule("f1", func() { runs.Add(1) })
	if !d.Cancel("f1") {
		t.Fatal("Cancel found nothing pending")
	}
	time.Sleep(3 * delay)
	if runs.Load() != 0 {
		t.Error("cancelled save ran")
	}
}

func TestFlushAll(t *testing.T) {
	d := New(time.Hour)
	var runs atomic.Int32
	for _, k := range []string{"a", "b", "c"} {
		d.Schedule(k, func() { runs.Add(1) })
	}
	if n := d.FlushAll(); n != 3 || runs.Load() != 3 {
		t.Errorf("FlushAll = %d, runs = %d", n, runs.Load())
	}
}

func TestStopDropsPending(t *testing.T) {
	d := New(delay)
	var ran atomic.Int32
	d.Schedule("a", func() { ran.Add(1) })
	d.Schedule("b", func() { ran.Add(1) })
	d.Stop()
	time.Sleep(3 * delay)
	if ran.Load() != 0 {
		t.Errorf("stopped saves ran %d times", ran.Load())
	}
	if d.Pending("a") || d.Pending("b") {
		t.Error("saves still pending after Stop")
	}
}
