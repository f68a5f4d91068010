package runner

import (
	"errors"
	"sync"
)

type Job func() error

// RunPool executes jobs with at most maxWorkers concurrently. The returned
// slice has one entry per job, nil for jobs that succeeded.
func RunPool(maxWorkers int, jobs []Job) []error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	errs := make([]error, len(jobs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxWorkers)

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, j Job) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = j()
		}(i, job)
	}
	wg.Wait()
	return errs
}

// ForEach runs fn for every index in [0, n) on the pool and returns the
// joined errors in index order. fn must only write to state owned by i.
func ForEach(maxWorkers, n int, fn func(i int) error) error {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = func() error { return fn(i) }
	}
	return errors.Join(RunPool(maxWorkers, jobs)...)
}
