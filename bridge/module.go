package bridge

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// LifecycleParams defines the dependencies of a bridge managed by fx.
type LifecycleParams struct {
	fx.In

	Config Config

	Engine Engine

	Observer Observer `optional:"true"`

	Log *zap.Logger
}

// NewLifecycleBridge creates a bridge bound to the fx lifecycle.
func NewLifecycleBridge(params LifecycleParams, lc fx.Lifecycle) (*Bridge, error) {
	b, err := New(Params{
		Config:   params.Config,
		Engine:   params.Engine,
		Observer: params.Observer,
		Log:      params.Log,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return b.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return b.Shutdown(ctx)
		},
	})

	return b, nil
}

// Module provides the bridge, the descriptor builder and the
// envelope unmarshaller.
func Module(config Config) fx.Option {
	return fx.Module(
		"bridge",
		// provide bridge config
		fx.Supply(config),
		// provide bridge
		fx.Provide(NewLifecycleBridge),
		// provide descriptor builder
		fx.Provide(NewBuilder),
		// provide envelope unmarshaller
		fx.Provide(NewUnmarshaller),
	)
}
