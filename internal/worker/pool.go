package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the job queue cannot accept more work.
var ErrQueueFull = errors.New("worker queue is full")

// ErrDuplicateKey is returned when a job with the same key is already
// queued or running.
var ErrDuplicateKey = errors.New("a job with this key is already in flight")

// ErrStopped is returned when the pool is shutting down.
var ErrStopped = errors.New("worker pool is stopped")

// Job is a unit of background work keyed for single-flight dedup.
type Job struct {
	Key string
	Run func(ctx context.Context)
}

// Pool executes jobs on a fixed set of goroutines with a bounded
// queue. At most one job per key is in flight at a time, so repeated
// requests for the same lesson cannot stack up.
type Pool struct {
	jobs   chan Job
	log    *zap.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu       sync.Mutex
	inFlight map[string]struct{}
	stopped  bool
}

// NewPool starts workers goroutines draining a queue of the given
// size. Call Stop to drain and shut down.
func NewPool(workers, queueSize int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:     make(chan Job, queueSize),
		log:      log,
		cancel:   cancel,
		inFlight: make(map[string]struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(ctx, i)
	}
	return p
}

// Submit enqueues a job without blocking. A full queue or an in-flight
// job with the same key is rejected so the caller can answer 409. The
// enqueue happens under the mutex so it cannot race with Stop closing
// the channel.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	if _, dup := p.inFlight[job.Key]; dup {
		return ErrDuplicateKey
	}
	select {
	case p.jobs <- job:
		p.inFlight[job.Key] = struct{}{}
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains queued jobs and waits for running ones to finish.
// Subsequent Submit calls return ErrStopped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
	p.cancel()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(ctx, id, job)
	}
}

func (p *Pool) run(ctx context.Context, id int, job Job) {
	defer p.release(job.Key)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker job panicked",
				zap.Int("worker", id),
				zap.String("key", job.Key),
				zap.Any("panic", r))
		}
	}()
	job.Run(ctx)
}

func (p *Pool) release(key string) {
	p.mu.Lock()
	delete(p.inFlight, key)
	p.mu.Unlock()
}
