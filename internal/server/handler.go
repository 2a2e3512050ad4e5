package server

import (
	"net/http"

	"go.uber.org/fx"
)

type HttpHandler struct {
	Name    string
	Handler http.Handler
}

type HttpHandlerResult struct {
	fx.Out

	Handler *HttpHandler `group:"handlers"`
}

func AsHttpHandler(
	name string,
	handler http.Handler,
) HttpHandlerResult {
	return HttpHandlerResult{
		Handler: &HttpHandler{
			Name:    name,
			Handler: handler,
		},
	}
}

// Middleware wraps the handler of the whole server.
type Middleware func(http.Handler) http.Handler

type HttpMiddlewareResult struct {
	fx.Out

	Middleware Middleware `group:"middleware"`
}

func AsHttpMiddleware(middleware Middleware) HttpMiddlewareResult {
	return HttpMiddlewareResult{Middleware: middleware}
}

// NewMux mounts handlers on a mux and wraps it in middleware. The
// first middleware is the outermost.
func NewMux(handlers []*HttpHandler, middleware []Middleware) http.Handler {
	mux := http.NewServeMux()

	for _, handler := range handlers {
		mux.Handle(handler.Name, handler.Handler)
	}

	var h http.Handler = mux
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}

	return h
}
