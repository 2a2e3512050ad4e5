package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/config"
	"github.com/lambda-feedback/shimbridge/engine/process"
	"github.com/lambda-feedback/shimbridge/engine/router"
	"github.com/lambda-feedback/shimbridge/engine/rpc"
	"github.com/lambda-feedback/shimbridge/internal/execution/supervisor"
	"github.com/lambda-feedback/shimbridge/util/conf"
	"github.com/lambda-feedback/shimbridge/util/logging"
)

var (
	workerCmdDescription = `The worker command serves the router engine, with the example
routes or the routes of a manifest, to another shimbridge
process. It is the counterpart of the process and rpc engines.

With --protocol jsonl, requests are read as JSON lines from
stdin (--io stdio) or from the request file (--io file), as
done by the process engine. With --protocol rpc, the engine
is served over json-rpc on the transport and endpoint passed
by the rpc engine.

Logs are written to stderr, stdout is reserved for responses.`
	workerCmd = &cli.Command{
		Name:        "worker",
		Usage:       "Serve the router engine as a worker process.",
		Description: workerCmdDescription,
		Action:      workerAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "protocol",
				Usage: "the protocol spoken with the host. Options: jsonl, rpc.",
				Value: "jsonl",
			},
			&cli.StringFlag{
				Name:  "io",
				Usage: "the jsonl interface. Options: stdio, file.",
				Value: string(supervisor.StdIO),
			},
		},
	}
)

func workerAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return err
	}

	engine, err := router.New(router.Params{
		Config: cfg.Engine.Router,
		Log:    log,
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch ctx.String("protocol") {
	case "jsonl":
		return serveJSONL(sigCtx, ctx, engine, log)

	case "rpc":
		rpcConfig := cfg.Engine.RPC
		if transport := os.Getenv(rpc.TransportEnv); transport != "" {
			rpcConfig.Transport = rpc.Transport(transport)
		}
		if endpoint := os.Getenv(rpc.EndpointEnv); endpoint != "" {
			rpcConfig.Endpoint = endpoint
		}

		return rpc.Serve(sigCtx, engine, rpcConfig, log)
	}

	return fmt.Errorf("unsupported worker protocol: %s", ctx.String("protocol"))
}

func serveJSONL(sigCtx context.Context, ctx *cli.Context, engine *router.Engine, log *zap.Logger) error {
	switch supervisor.IOInterface(ctx.String("io")) {
	case supervisor.StdIO:
		return process.Serve(sigCtx, engine, os.Stdin, os.Stdout, log)

	case supervisor.FileIO:
		reqPath := os.Getenv(supervisor.RequestFileEnv)
		resPath := os.Getenv(supervisor.ResponseFileEnv)

		// the files are passed as trailing arguments as well
		if (reqPath == "" || resPath == "") && ctx.NArg() >= 2 {
			reqPath = ctx.Args().Get(ctx.NArg() - 2)
			resPath = ctx.Args().Get(ctx.NArg() - 1)
		}

		if reqPath == "" || resPath == "" {
			return fmt.Errorf("no request or response file given")
		}

		return process.ServeFiles(sigCtx, engine, reqPath, resPath, log)
	}

	return fmt.Errorf("%w: %s", supervisor.ErrUnsupportedIOMode, ctx.String("io"))
}

func init() {
	rootApp.Commands = append(rootApp.Commands, workerCmd)
}
