package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/config"
	"github.com/lambda-feedback/shimbridge/engine"
	"github.com/lambda-feedback/shimbridge/util/conf"
	"github.com/lambda-feedback/shimbridge/util/logging"
)

// startBridge creates and starts a bridge for one-shot commands that
// do not run a host. The returned func stops the bridge.
func startBridge(ctx *cli.Context) (*bridge.Bridge, func(), error) {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return nil, nil, err
	}

	e, err := engine.New(engine.Params{
		Context: ctx.Context,
		Config:  cfg.Engine,
		Log:     log,
	})
	if err != nil {
		return nil, nil, err
	}

	b, err := bridge.New(bridge.Params{
		Config: cfg.Bridge,
		Engine: e,
		Log:    log,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := b.Start(ctx.Context); err != nil {
		return nil, nil, fmt.Errorf("error starting bridge: %w", err)
	}

	stop := func() {
		if err := b.Shutdown(context.Background()); err != nil {
			log.Warn("error stopping bridge", zap.Error(err))
		}
	}

	return b, stop, nil
}
