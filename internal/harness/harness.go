package harness

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRoute        = "/"
	DefaultDelayedRoute = "/concurrent-test"
	DefaultConcurrency  = 100
	DefaultDelay        = 50 * time.Millisecond
)

type Config struct {
	// Route is requested once before the batch.
	Route string `conf:"route"`

	// DelayedRoute is the route requested concurrently. It is expected
	// to take Delay to respond.
	DelayedRoute string `conf:"delayed_route"`

	// Concurrency is the number of simultaneous requests.
	Concurrency int `conf:"concurrency"`

	// Delay is the per-request latency of the delayed route.
	Delay time.Duration `conf:"delay"`

	// Bound is the maximum duration of the batch. Zero derives it
	// from the concurrency and the delay.
	Bound time.Duration `conf:"bound"`
}

func (c Config) withDefaults() Config {
	if c.Route == "" {
		c.Route = DefaultRoute
	}
	if c.DelayedRoute == "" {
		c.DelayedRoute = DefaultDelayedRoute
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.Bound <= 0 {
		c.Bound = DefaultBound(c.Concurrency, c.Delay)
	}
	return c
}

// DefaultBound is 80% of the time the batch would take if requests
// were served one after another.
func DefaultBound(concurrency int, delay time.Duration) time.Duration {
	return time.Duration(concurrency) * delay * 4 / 5
}

// Report is the outcome of a harness run.
type Report struct {
	// Single is the duration of the single request.
	Single time.Duration

	// Batch is the duration of the concurrent batch.
	Batch time.Duration

	// Bound is the bound the batch was checked against.
	Bound time.Duration

	// Statuses counts the response status codes of the batch.
	Statuses map[int]int

	// Failures are the errors of requests that did not complete.
	Failures []error

	// Passed is set if the single request and every batch request succeeded
	// and the batch finished within the bound.
	Passed bool
}

// Err describes why the run did not pass, or returns nil.
func (r Report) Err() error {
	if r.Passed {
		return nil
	}

	var reasons []string

	if len(r.Failures) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d requests failed: %v", len(r.Failures), r.Failures[0]))
	}

	codes := make([]int, 0, len(r.Statuses))
	for code := range r.Statuses {
		if code != http.StatusOK {
			codes = append(codes, code)
		}
	}
	sort.Ints(codes)
	for _, code := range codes {
		reasons = append(reasons, fmt.Sprintf("%d responses with status %d", r.Statuses[code], code))
	}

	if r.Batch >= r.Bound {
		reasons = append(reasons, fmt.Sprintf("batch took %s, bound is %s", r.Batch, r.Bound))
	}

	if len(reasons) == 0 {
		return errors.New("concurrency check failed")
	}

	return errors.New(strings.Join(reasons, "; "))
}

// Run requests the route once, then sends the configured number of
// simultaneous requests to the delayed route and checks that the batch
// completes within the bound.
func Run(ctx context.Context, invoker Invoker, config Config, log *zap.Logger) (Report, error) {
	if log == nil {
		log = zap.NewNop()
	}

	config = config.withDefaults()

	report := Report{
		Bound:    config.Bound,
		Statuses: make(map[int]int),
	}

	start := time.Now()
	status, err := invoker.Invoke(ctx, config.Route)
	report.Single = time.Since(start)
	if err != nil {
		return report, fmt.Errorf("error probing %s: %w", config.Route, err)
	}
	if status != http.StatusOK {
		return report, fmt.Errorf("probing %s returned status %d", config.Route, status)
	}

	log.Info("sending concurrent requests",
		zap.Int("concurrency", config.Concurrency),
		zap.String("route", config.DelayedRoute),
	)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	start = time.Now()

	for i := 0; i < config.Concurrency; i++ {
		g.Go(func() error {
			status, err := invoker.Invoke(ctx, config.DelayedRoute)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				report.Failures = append(report.Failures, err)
				return nil
			}

			report.Statuses[status]++
			return nil
		})
	}

	_ = g.Wait()

	report.Batch = time.Since(start)
	report.Passed = len(report.Failures) == 0 &&
		report.Statuses[http.StatusOK] == config.Concurrency &&
		report.Batch < report.Bound

	log.Info("all requests completed",
		zap.Duration("batch", report.Batch),
		zap.Duration("bound", report.Bound),
		zap.Bool("passed", report.Passed),
	)

	return report, nil
}
