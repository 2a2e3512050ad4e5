package router

import (
	"context"
	"net/http"
	"time"
)

// Route is a fixed response served by the router engine.
type Route struct {
	Method      string
	Path        string
	Status      int
	Body        string
	ContentType string
	Headers     map[string]string

	// Delay is an artificial latency applied before responding.
	Delay time.Duration
}

// ExampleRoutes returns the routes of the example app.
func ExampleRoutes() []Route {
	return []Route{
		{
			Method: http.MethodGet,
			Path:   "/",
			Body:   "Hello from the example app!",
		},
		{
			Method: http.MethodGet,
			Path:   "/test",
			Body:   "This is a test route.",
		},
		{
			Method: http.MethodGet,
			Path:   "/concurrent-test",
			Body:   "Concurrent test route.",
			Delay:  50 * time.Millisecond,
		},
	}
}

// Handler returns the http handler serving the route.
func (r Route) Handler() http.Handler {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}

	contentType := r.ContentType
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := sleep(req.Context(), r.Delay); err != nil {
			// the caller is gone, nobody reads the response
			return
		}

		header := w.Header()
		header.Set("Content-Type", contentType)
		for name, value := range r.Headers {
			header.Set(name, value)
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(r.Body))
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
