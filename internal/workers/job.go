package workers

import (
	"context"
	"fmt"
	"time"
)

// Func transforms a job's argument. It returns its input alongside any error so the
// caller can keep the unprocessed value.
type Func[T any] func(ctx context.Context, arg T) (T, error)

// Job is one unit of work for a WorkerPool.
type Job[T any] struct {
	ID   string
	Kind string
	Arg  T
	Run  Func[T]
}

type Result[T any] struct {
	JobID   string
	Kind    string
	Value   T
	Err     error
	Elapsed time.Duration
}

func (j Job[T]) execute(ctx context.Context) Result[T] {
	started := time.Now()

	value, err := j.Run(ctx, j.Arg)
	if err != nil {
		err = fmt.Errorf("%s job %s: %w", j.Kind, j.ID, err)
	}

	return Result[T]{
		JobID:   j.ID,
		Kind:    j.Kind,
		Value:   value,
		Err:     err,
		Elapsed: time.Since(started),
	}
}
