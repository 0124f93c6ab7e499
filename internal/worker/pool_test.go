package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPoolRunsJobs(t *testing.T) {
	p := NewPool(2, 8, zap.NewNop())

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		key := string(rune('a' + i))
		if err := p.Submit(Job{Key: key, Run: func(context.Context) {
			atomic.AddInt32(&ran, 1)
			wg.Done()
		}}); err != nil {
			t.Fatalf("Submit(%s): %v", key, err)
		}
	}
	wg.Wait()
	p.Stop()

	if ran != 5 {
		t.Fatalf("ran %d jobs, want 5", ran)
	}
}

func TestPoolSingleFlightPerKey(t *testing.T) {
	p := NewPool(1, 8, zap.NewNop())
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	if err := p.Submit(Job{Key: "lesson-1", Run: func(context.Context) {
		close(started)
		<-release
	}}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	<-started

	err := p.Submit(Job{Key: "lesson-1", Run: func(context.Context) {}})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("got %v, want ErrDuplicateKey", err)
	}

	// A different key is still accepted.
	if err := p.Submit(Job{Key: "lesson-2", Run: func(context.Context) {}}); err != nil {
		t.Fatalf("different key rejected: %v", err)
	}
	close(release)
}

func TestPoolKeyReusableAfterCompletion(t *testing.T) {
	p := NewPool(1, 8, zap.NewNop())
	defer p.Stop()

	done := make(chan struct{})
	if err := p.Submit(Job{Key: "k", Run: func(context.Context) { close(done) }}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	<-done

	// The first job released the key on completion; resubmission may
	// briefly race the release, so poll.
	deadline := time.After(2 * time.Second)
	for {
		err := p.Submit(Job{Key: "k", Run: func(context.Context) {}})
		if err == nil {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("key never released: %v", err)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPoolQueueFull(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop())
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	p.Submit(Job{Key: "running", Run: func(context.Context) {
		close(started)
		<-release
	}})
	<-started
	p.Submit(Job{Key: "queued", Run: func(context.Context) {}})

	err := p.Submit(Job{Key: "overflow", Run: func(context.Context) {}})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("got %v, want ErrQueueFull", err)
	}
	close(release)
}

func TestPoolSubmitAfterStop(t *testing.T) {
	p := NewPool(1, 4, zap.NewNop())
	p.Stop()

	err := p.Submit(Job{Key: "late", Run: func(context.Context) {
		t.Error("job ran after Stop")
	}})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("got %v, want ErrStopped", err)
	}

	// Stop is idempotent.
	p.Stop()
}

func TestPoolRecoversFromPanic(t *testing.T) {
	p := NewPool(1, 8, zap.NewNop())

	p.Submit(Job{Key: "boom", Run: func(context.Context) {
		panic("worker must survive this")
	}})

	done := make(chan struct{})
	deadline := time.After(2 * time.Second)
	for {
		err := p.Submit(Job{Key: "after", Run: func(context.Context) { close(done) }})
		if err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("pool dead after panic: %v", err)
		case <-time.After(10 * time.Millisecond):
		}
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("job after panic never ran")
	}
	p.Stop()
}
