package app

import (
	"go.uber.org/fx"

	"github.com/lambda-feedback/shimbridge/handler"
	"github.com/lambda-feedback/shimbridge/internal/server"
	"github.com/lambda-feedback/shimbridge/util/logging"
)

// ServeModule hosts the bridge handler on a standalone http server.
// Run it on a shell created by New, which provides the bridge.
func ServeModule(config server.HttpConfig) fx.Option {
	return fx.Module(
		"serve",
		logging.DecorateLogger("serve"),
		handler.Module(),
		server.Module(config),
	)
}
