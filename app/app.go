package app

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/config"
	"github.com/lambda-feedback/shimbridge/engine"
	"github.com/lambda-feedback/shimbridge/internal/metrics"
	"github.com/lambda-feedback/shimbridge/internal/shell"
	"github.com/lambda-feedback/shimbridge/util/conf"
	"github.com/lambda-feedback/shimbridge/util/logging"
)

// New creates a shell carrying the modules shared by every host: the
// engine, the bridge in front of it and the metrics observing it.
func New(ctx *cli.Context) (*shell.Shell, error) {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return nil, err
	}

	config, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return nil, err
	}

	return shell.New(log, SharedModule(config)), nil
}

func SharedModule(config config.Config) fx.Option {
	return fx.Module(
		"shared",
		// provide global config
		fx.Supply(config),
		// provide auth config
		fx.Supply(config.Auth),
		// provide engine
		engine.Module(config.Engine),
		// provide metrics
		metrics.Module(config.Metrics),
		// provide bridge
		bridge.Module(config.Bridge),
	)
}
