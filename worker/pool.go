package worker

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Func processes a single job.
type Func[T any] func(ctx context.Context, job Job) (T, error)

// Pool runs jobs with at most Workers running at once.
type Pool[T any] struct {
	workers  int
	fn       Func[T]
	failFast bool

	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	jobsFailed    atomic.Uint64
	totalDuration atomic.Int64
}

// Option configures a Pool.
type Option func(*config)

type config struct {
	failFast bool
}

// WithFailFast stops starting new jobs after the first failure.
func WithFailFast() Option {
	return func(c *config) {
		c.failFast = true
	}
}

// NewPool creates a pool running fn. If workers <= 0, it defaults to
// runtime.NumCPU().
func NewPool[T any](fn Func[T], workers int, opts ...Option) *Pool[T] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return &Pool[T]{workers: workers, fn: fn, failFast: c.failFast}
}

// Run processes jobs and waits for all of them. Results keep job order.
func (p *Pool[T]) Run(ctx context.Context, jobs []Job) *BatchResult[T] {
	start := time.Now()
	results := make([]JobResult[T], len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, job := range jobs {
		p.jobsSubmitted.Add(1)
		results[i] = JobResult[T]{ID: job.ID, Input: job.Input}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				p.jobsFailed.Add(1)
				return nil
			}
			results[i] = p.process(gctx, job)
			if results[i].Err != nil && p.failFast {
				return results[i].Err
			}
			return nil
		})
	}
	_ = g.Wait()

	batch := &BatchResult[T]{
		Results:       results,
		TotalJobs:     len(jobs),
		TotalDuration: time.Since(start),
	}
	for _, r := range results {
		if r.Err != nil {
			batch.FailedJobs++
		}
	}
	return batch
}

func (p *Pool[T]) process(ctx context.Context, job Job) JobResult[T] {
	start := time.Now()
	result := JobResult[T]{ID: job.ID, Input: job.Input}

	if p.fn == nil {
		result.Err = ErrNoFunc
	} else {
		result.Value, result.Err = p.fn(ctx, job)
	}

	result.Duration = time.Since(start)
	p.jobsCompleted.Add(1)
	p.totalDuration.Add(int64(result.Duration))
	if result.Err != nil {
		p.jobsFailed.Add(1)
	}
	return result
}

// Stats returns cumulative pool statistics.
func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		JobsFailed:    p.jobsFailed.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	JobsFailed    uint64
	AvgDuration   time.Duration
}

func (p *Pool[T]) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.totalDuration.Load() / int64(completed)) //nolint:gosec // job count fits int64
}

// ErrNoFunc is returned when the pool has no job function configured.
var ErrNoFunc = poolError("no job function configured")

type poolError string

func (e poolError) Error() string {
	return string(e)
}
