package metrics

import (
	"go.uber.org/fx"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/internal/server"
)

func NewMetricsRoute(config Config, m *Metrics) server.HttpHandlerResult {
	return server.AsHttpHandler(config.Endpoint(), m.Handler())
}

func NewCollectMiddleware(config Config, m *Metrics) server.HttpMiddlewareResult {
	return server.AsHttpMiddleware(m.Collect(config.Endpoint(), "/health"))
}

func Module(config Config) fx.Option {
	options := []fx.Option{
		// provide metrics config
		fx.Supply(config),
		// provide collectors
		fx.Provide(New),
		// observe bridge calls
		fx.Provide(func(m *Metrics) bridge.Observer { return m }),
	}

	if config.Enabled {
		options = append(options,
			// provide metrics endpoint
			fx.Provide(NewMetricsRoute),
			// record http requests
			fx.Provide(NewCollectMiddleware),
		)
	}

	return fx.Module("metrics", options...)
}
