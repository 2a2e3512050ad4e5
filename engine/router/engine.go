package router

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/bridge"
)

type Config struct {
	// Manifest is the path of a TOML route manifest. If empty, the
	// example routes are served.
	Manifest string `conf:"manifest"`
}

type Params struct {
	// Routes are the routes to serve. Takes precedence over the
	// manifest of the config.
	Routes []Route

	// Config is the router engine configuration.
	Config Config

	// Log is the logger to use for the engine.
	Log *zap.Logger
}

// Engine executes descriptors against an in-process chi router and
// captures the response as an envelope.
type Engine struct {
	mux *chi.Mux
	log *zap.Logger
}

var _ bridge.Engine = (*Engine)(nil)

func New(params Params) (*Engine, error) {
	routes := params.Routes

	if routes == nil && params.Config.Manifest != "" {
		m, err := LoadManifest(params.Config.Manifest)
		if err != nil {
			return nil, fmt.Errorf("error loading manifest: %w", err)
		}
		routes = m.ToRoutes()
	}

	if routes == nil {
		routes = ExampleRoutes()
	}

	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		mux: newMux(routes),
		log: log.Named("engine_router"),
	}, nil
}

func newMux(routes []Route) *chi.Mux {
	r := chi.NewRouter()

	for _, route := range routes {
		r.Method(route.Method, route.Path, route.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusMethodNotAllowed)
	})

	return r
}

func writeText(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(http.StatusText(status)))
}

func (e *Engine) Start(context.Context) error {
	e.log.Debug("router ready")
	return nil
}

func (e *Engine) Shutdown(context.Context) error {
	return nil
}

// Handle serves req on the router. Unknown or unparsable paths yield
// a 404 envelope. Panics of route handlers are not recovered here.
func (e *Engine) Handle(ctx context.Context, req bridge.RequestDescriptor) ([]byte, error) {
	httpReq, err := req.HTTPRequest()
	if err != nil {
		// a path that cannot be parsed matches no route
		e.log.Debug("unroutable request", zap.Error(err))
		return bridge.MarshalEnvelope(bridge.NotFoundEnvelope())
	}

	rec := newRecorder()
	e.mux.ServeHTTP(rec, httpReq.WithContext(ctx))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return bridge.MarshalEnvelope(rec.envelope())
}

// recorder is an http.ResponseWriter buffering the response in memory.
type recorder struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}

	r.status = status
	r.wroteHeader = true
}

func (r *recorder) Write(p []byte) (int, error) {
	r.WriteHeader(http.StatusOK)
	return r.body.Write(p)
}

func (r *recorder) envelope() bridge.ResponseEnvelope {
	status := r.status
	if !r.wroteHeader {
		status = http.StatusOK
	}

	return bridge.ResponseEnvelope{
		Status:  status,
		Headers: bridge.HeadersFromHTTP(r.header),
		// envelopes carry text, invalid utf-8 is replaced
		Body: strings.ToValidUTF8(r.body.String(), "\uFFFD"),
	}
}
