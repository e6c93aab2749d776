package fetch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Options configures one orchestration run
type Options struct {
	// Workers bounds concurrent fetch attempts (default 5)
	Workers int
	// GitHubWorkers additionally bounds GitHub-lane fetchers (default 2).
	// It is always capped at Workers: the global bound is never exceeded.
	GitHubWorkers int
	// Timeout bounds each individual fetch attempt (default 20s)
	Timeout time.Duration
}

const (
	defaultWorkers       = 5
	defaultGitHubWorkers = 2
	defaultTimeout       = 20 * time.Second
)

// Result is the outcome of one scheduled fetch attempt.
// Exactly one of Version, Err, or Skipped is meaningful.
type Result struct {
	Key     string
	Version string
	Err     error
	// Skipped is true when no fetcher is registered for the key
	Skipped bool
}

// Ok reports whether the attempt produced a version
func (r Result) Ok() bool {
	return !r.Skipped && r.Err == nil
}

// FailureReason renders the error for summaries; timeouts are always
// reported as "timeout" regardless of where the deadline tripped.
func (r Result) FailureReason() string {
	if r.Err == nil {
		return ""
	}
	if errors.Is(r.Err, ErrRequestTimeout) || errors.Is(r.Err, context.DeadlineExceeded) {
		return "timeout"
	}
	return r.Err.Error()
}

// Summary collects every result of a run plus counts for reporting
type Summary struct {
	// Results holds one entry per input key, in input order
	Results   []Result
	Successes int
	Failures  int
	Skips     int
}

// Versions returns the successfully fetched versions by key
func (s *Summary) Versions() map[string]string {
	versions := make(map[string]string, s.Successes)
	for _, r := range s.Results {
		if r.Ok() {
			versions[r.Key] = r.Version
		}
	}
	return versions
}

// Run schedules one fetch attempt per key that has a registered fetcher.
// Keys without a fetcher are reported as skipped, not silently dropped.
// At most Workers attempts run concurrently; each attempt is bounded by
// Timeout, and the failure of one attempt never cancels or delays the
// others. Results come back in input order regardless of completion
// order, so applying them is deterministic.
func Run(ctx context.Context, keys []string, reg *Registry, opts Options) *Summary {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	githubWorkers := opts.GitHubWorkers
	if githubWorkers <= 0 {
		githubWorkers = defaultGitHubWorkers
	}
	if githubWorkers > workers {
		githubWorkers = workers
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	results := make([]Result, len(keys))
	globalSem := make(chan struct{}, workers)
	githubSem := make(chan struct{}, githubWorkers)

	var wg sync.WaitGroup
	for i, key := range keys {
		fetcher, ok := reg.Lookup(key)
		if !ok {
			results[i] = Result{Key: key, Skipped: true}
			continue
		}

		wg.Add(1)
		go func(slot int, key string, fetcher Fetcher) {
			defer wg.Done()

			globalSem <- struct{}{}
			defer func() { <-globalSem }()

			// The GitHub lane nests inside the global bound so the API's
			// secondary rate limit is respected without ever exceeding
			// Workers in-flight attempts overall.
			if fetcher.Lane() == LaneGitHub {
				githubSem <- struct{}{}
				defer func() { <-githubSem }()
			}

			attemptCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			version, err := fetcher.Fetch(attemptCtx)
			if err != nil {
				results[slot] = Result{Key: key, Err: err}
				return
			}
			version = strings.TrimSpace(version)
			if version == "" {
				results[slot] = Result{Key: key, Err: ErrNoVersionFound}
				return
			}
			results[slot] = Result{Key: key, Version: version}
		}(i, key, fetcher)
	}
	wg.Wait()

	summary := &Summary{Results: results}
	for _, r := range results {
		switch {
		case r.Skipped:
			summary.Skips++
		case r.Err != nil:
			summary.Failures++
		default:
			summary.Successes++
		}
	}
	return summary
}
