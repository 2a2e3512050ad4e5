package engine

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type EngineParams struct {
	fx.In

	Context context.Context

	Config Config

	Log *zap.Logger
}

// NewEngine creates the configured engine for fx. Its lifecycle is
// driven by the bridge.
func NewEngine(params EngineParams) (Engine, error) {
	return New(Params{
		Context: params.Context,
		Config:  params.Config,
		Log:     params.Log,
	})
}

func Module(config Config) fx.Option {
	return fx.Module(
		"engine",
		// provide engine config
		fx.Supply(config),
		// provide engine
		fx.Provide(NewEngine),
	)
}
