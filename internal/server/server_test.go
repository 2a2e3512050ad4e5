package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func text(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	})
}

func TestNewMux_Routes(t *testing.T) {
	mux := NewMux([]*HttpHandler{
		AsHttpHandler("/", text("catch-all")).Handler,
		AsHttpHandler("/health", text("healthy")).Handler,
	}, nil)

	for path, expected := range map[string]string{
		"/":           "catch-all",
		"/health":     "healthy",
		"/any/path?x": "catch-all",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, expected, rec.Body.String(), path)
	}
}

func TestNewMux_MiddlewareOrder(t *testing.T) {
	var order []string

	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	mux := NewMux(
		[]*HttpHandler{AsHttpHandler("/", text("ok")).Handler},
		[]Middleware{tag("outer"), tag("inner")},
	)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestHttpServer_Serve(t *testing.T) {
	srv := NewHttpServer(HttpServerParams{
		Context:  context.Background(),
		Config:   HttpConfig{Host: "127.0.0.1", Port: 0, H2c: true},
		Handlers: []*HttpHandler{AsHttpHandler("/", text("hello")).Handler},
		Logger:   zaptest.NewLogger(t),
	})

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(context.Background())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	addr, err := srv.Addr(ctx)
	require.NoError(t, err)

	res, err := http.Get("http://" + addr.String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "hello", string(body))

	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-served)
}
