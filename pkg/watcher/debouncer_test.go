package watcher

import (
	"context"
	"testing"
	"time"
)

func TestDebouncerBatchesBurst(t *testing.T) {
	input := make(chan ChangeEvent, 10)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// A burst of writes to the same file should collapse into one event.
	for i := 0; i < 5; i++ {
		input <- ChangeEvent{Paths: []string{"graph.json"}, Timestamp: time.Now()}
	}

	select {
	case event := <-d.Output():
		if len(event.Paths) != 5 {
			t.Errorf("Expected 5 accumulated paths, got %d", len(event.Paths))
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for debounced event")
	}

	// No further events without further input.
	select {
	case event, ok := <-d.Output():
		if ok {
			t.Errorf("Unexpected second event: %+v", event)
		}
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncerMaxWaitForcesFlush(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 200*time.Millisecond, 300*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// Keep the quiet-period timer from ever firing by sending steadily.
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				input <- ChangeEvent{Paths: []string{"graph.json"}, Timestamp: time.Now()}
			}
		}
	}()
	defer close(stop)

	start := time.Now()
	select {
	case <-d.Output():
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("maxWait flush took too long: %v", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("maxWait never forced a flush")
	}
}

func TestDebouncerFlushesOnCancel(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	input <- ChangeEvent{Paths: []string{"graph.json"}, Timestamp: time.Now()}
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case event, ok := <-d.Output():
		if !ok {
			t.Fatal("Output closed without flushing pending event")
		}
		if len(event.Paths) != 1 {
			t.Errorf("Expected 1 path, got %d", len(event.Paths))
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for flush on cancel")
	}
}
