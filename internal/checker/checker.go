package checker

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/time/rate"
)

// PortProber is the subset of Engine the Runner needs.
type PortProber interface {
	CheckPort(ctx context.Context, host string, port int) PortResult
}

// ResultFunc is called once per finished port, from the worker goroutine.
type ResultFunc func(result PortResult)

// Runner fans port checks out with bounded concurrency and a global rate
// limit.
type Runner struct {
	Concurrency int // Maximum number of concurrent checks
	RateLimit   int // Checks per second (0 = unlimited)
}

// ScanPorts checks every port on host and returns results ordered by port.
// Ports not started before ctx is done are reported as errors.
func (r *Runner) ScanPorts(ctx context.Context, prober PortProber, host string, ports []int, onResult ResultFunc) []PortResult {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if r.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.RateLimit), r.RateLimit)
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	mu := sync.Mutex{}
	results := make([]PortResult, 0, len(ports))

	for _, port := range ports {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			var result PortResult
			if err := limiter.Wait(ctx); err != nil {
				result = PortResult{Host: host, Port: p, Status: StatusError, Error: strPtr(err.Error())}
			} else {
				result = prober.CheckPort(ctx, host, p)
			}

			if onResult != nil {
				onResult(result)
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(port)
	}

	wg.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Port < results[j].Port })
	return results
}
