package server

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRegistry_DrainAndJoinAll(t *testing.T) {
	var r registry
	var finished atomic.Int32

	release := make(chan struct{})
	for i := 0; i < 5; i++ {
		h := newTaskHandle()
		r.register(h)
		go func() {
			defer h.finish()
			<-release
			time.Sleep(10 * time.Millisecond)
			finished.Add(1)
		}()
	}

	if r.len() != 5 {
		t.Fatalf("len() = %d, want 5", r.len())
	}

	joined := make(chan int, 1)
	go func() {
		joined <- r.drainAndJoinAll()
	}()

	select {
	case <-joined:
		t.Fatal("drainAndJoinAll() returned before tasks finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)

	select {
	case n := <-joined:
		if n != 5 {
			t.Errorf("drainAndJoinAll() = %d, want 5", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("drainAndJoinAll() did not return")
	}

	if finished.Load() != 5 {
		t.Errorf("finished = %d, want 5", finished.Load())
	}
	if r.len() != 0 {
		t.Errorf("len() after drain = %d, want 0", r.len())
	}
}

func TestRegistry_FinishedTasksStillJoin(t *testing.T) {
	var r registry

	h := newTaskHandle()
	r.register(h)
	h.finish()

	if n := r.drainAndJoinAll(); n != 1 {
		t.Errorf("drainAndJoinAll() = %d, want 1", n)
	}
	if n := r.drainAndJoinAll(); n != 0 {
		t.Errorf("second drainAndJoinAll() = %d, want 0", n)
	}
}
