package debounce

import (
	"sync"
	"testing"
	"time"
)

func TestLastTriggerWins(t *testing.T) {
	d := New(50 * time.Millisecond)

	var mu sync.Mutex
	var calls []float64
	done := make(chan struct{}, 3)

	for _, gain := range []float64{1.0, 2.0, 3.0} {
		gain := gain
		d.Trigger(func() {
			mu.Lock()
			calls = append(calls, gain)
			mu.Unlock()
			done <- struct{}{}
		})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}

	// Give any stray timers a chance to fire
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1: %v", len(calls), calls)
	}
	if calls[0] != 3.0 {
		t.Errorf("call used %v, want 3.0", calls[0])
	}
}

func TestSeparateBursts(t *testing.T) {
	d := New(20 * time.Millisecond)
	done := make(chan int, 2)

	d.Trigger(func() { done <- 1 })
	if got := <-done; got != 1 {
		t.Fatalf("got %d", got)
	}

	d.Trigger(func() { done <- 2 })
	select {
	case got := <-done:
		if got != 2 {
			t.Errorf("got %d, want 2", got)
		}
	case <-time.After(time.Second):
		t.Fatal("second burst never ran")
	}
}

func TestStop(t *testing.T) {
	d := New(20 * time.Millisecond)
	ran := make(chan struct{}, 1)

	d.Trigger(func() { ran <- struct{}{} })
	if !d.Pending() {
		t.Fatal("Pending() = false after Trigger")
	}
	if !d.Stop() {
		t.Fatal("Stop() = false with a pending call")
	}
	if d.Pending() {
		t.Error("Pending() = true after Stop")
	}

	select {
	case <-ran:
		t.Error("stopped call ran")
	case <-time.After(80 * time.Millisecond):
	}

	if d.Stop() {
		t.Error("Stop() = true with nothing pending")
	}
}
