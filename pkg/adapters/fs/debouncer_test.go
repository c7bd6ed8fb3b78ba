package fs

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(30 * time.Millisecond)

	for i := 0; i < 10; i++ {
		d.trigger(func() { calls.Add(1) })
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("expected one call for the burst, got %d", got)
	}

	d.trigger(func() { calls.Add(1) })
	d.stopAndWait(time.Second)
	time.Sleep(60 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("pending call must be cancelled by stop, got %d calls", got)
	}

	d.trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("trigger after stop must be ignored, got %d calls", got)
	}
}
