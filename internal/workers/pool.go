package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"realtime-rank/internal/lib/logger"
	"realtime-rank/internal/lib/logger/sl"
)

var ErrPoolClosed = errors.New("worker pool closed")

// WorkerPool runs jobs on a fixed number of goroutines and streams their results.
// Results is closed, and Done with it, once every worker has returned.
type WorkerPool[T any] struct {
	log           *slog.Logger
	workersCount  int
	jobs          chan Job[T]
	results       chan Result[T]
	Done          chan struct{}
	activeWorkers int32
	closeOnce     sync.Once
	closed        chan struct{}
}

func New[T any](log *slog.Logger, numWorkers int) *WorkerPool[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.Discard()
	}
	return &WorkerPool[T]{
		log:          log,
		workersCount: numWorkers,
		jobs:         make(chan Job[T]),
		results:      make(chan Result[T], numWorkers),
		Done:         make(chan struct{}),
		closed:       make(chan struct{}),
	}
}

// AddJob blocks until a worker takes the job, the pool is closed or ctx ends.
func (wp *WorkerPool[T]) AddJob(ctx context.Context, job Job[T]) error {
	select {
	case <-wp.closed:
		return ErrPoolClosed
	default:
	}

	select {
	case wp.jobs <- job:
		return nil
	case <-wp.closed:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs. Workers drain what they already took and exit.
func (wp *WorkerPool[T]) Close() {
	wp.closeOnce.Do(func() {
		close(wp.closed)
	})
}

func (wp *WorkerPool[T]) Results() <-chan Result[T] {
	return wp.results
}

func (wp *WorkerPool[T]) ActiveWorkersCount() int32 {
	return atomic.LoadInt32(&wp.activeWorkers)
}

func (wp *WorkerPool[T]) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < wp.workersCount; i++ {
		wg.Add(1)
		go wp.worker(ctx, &wg)
	}

	wg.Wait()
	close(wp.results)
	close(wp.Done)
}

func (wp *WorkerPool[T]) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	atomic.AddInt32(&wp.activeWorkers, 1)
	defer atomic.AddInt32(&wp.activeWorkers, -1)

	for {
		select {
		case job := <-wp.jobs:
			result := job.execute(ctx)
			if result.Err != nil {
				wp.log.Debug("job failed",
					slog.String("job_id", result.JobID),
					slog.String("kind", result.Kind),
					slog.Duration("elapsed", result.Elapsed),
					sl.Err(result.Err),
				)
			}
			select {
			case wp.results <- result:
			case <-ctx.Done():
				return
			}
		case <-wp.closed:
			return
		case <-ctx.Done():
			wp.log.Debug("worker cancelled", sl.Err(ctx.Err()))
			return
		}
	}
}
