package server

import (
	"go.uber.org/fx"

	"github.com/lambda-feedback/shimbridge/util/logging"
)

// Module serves the registered http handlers for the lifetime of the app.
func Module(config HttpConfig) fx.Option {
	return fx.Module("server",
		logging.DecorateLogger("server"),
		fx.Supply(config),
		fx.Provide(NewLifecycleServer),
		// force construction, the server has no dependents
		fx.Invoke(func(*HttpServer) {}),
	)
}
