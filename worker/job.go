package worker

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Job is one unit of work.
type Job struct {
	// ID identifies the job in results. Jobs assigns the input index.
	ID string

	// Input is the location the job reads.
	Input string
}

// Jobs creates one job per input, numbered from zero.
func Jobs(inputs ...string) []Job {
	jobs := make([]Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = Job{ID: strconv.Itoa(i), Input: in}
	}
	return jobs
}

// JobResult is the outcome of one job.
type JobResult[T any] struct {
	// ID matches the Job.ID that produced this result.
	ID string

	// Input is copied from the job.
	Input string

	// Value is the job's output when Err is nil.
	Value T

	// Err is the failure, if any. Jobs skipped after a fail-fast
	// cancellation carry the context error.
	Err error

	// Duration is the time the job ran.
	Duration time.Duration
}

// BatchResult aggregates the results of one Run, in job order.
type BatchResult[T any] struct {
	Results       []JobResult[T]
	TotalJobs     int
	FailedJobs    int
	TotalDuration time.Duration
}

// HasErrors returns true if any job failed.
func (br *BatchResult[T]) HasErrors() bool {
	return br.FailedJobs > 0
}

// Err joins the errors of all failed jobs, or returns nil.
func (br *BatchResult[T]) Err() error {
	var errs []error
	for _, r := range br.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Input, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Values returns the values of the successful jobs in job order.
func (br *BatchResult[T]) Values() []T {
	out := make([]T, 0, len(br.Results)-br.FailedJobs)
	for _, r := range br.Results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}
