package cmd

import (
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/app"
	"github.com/lambda-feedback/shimbridge/internal/server"
	"github.com/lambda-feedback/shimbridge/util/conf"
	"github.com/lambda-feedback/shimbridge/util/logging"
)

var (
	serveCmdDescription = `The serve command starts a http server and waits for requests
to handle. Every request, except for the health check, is
turned into a request descriptor and handed to the configured
engine through the bridge.

The command will launch the http server and blocks indefin-
itely, processing incoming http requests.`
	serveCmd = &cli.Command{
		Name:        "serve",
		Usage:       "Start a http server and listen for requests.",
		Description: serveCmdDescription,
		Action:      serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "host",
				Aliases:  []string{"H"},
				Usage:    "The host to listen on.",
				Value:    "localhost",
				Category: "http",
				EnvVars:  []string{"HTTP_HOST"},
			},
			&cli.IntFlag{
				Name:     "port",
				Aliases:  []string{"P"},
				Usage:    "The port to listen on.",
				Value:    8080,
				Category: "http",
				EnvVars:  []string{"HTTP_PORT"},
			},
			&cli.BoolFlag{
				Name:     "h2c",
				Usage:    "Enable HTTP/2 cleartext upgrade.",
				Value:    false,
				Category: "http",
				EnvVars:  []string{"HTTP_H2C"},
			},
			&cli.DurationFlag{
				Name:     "read-header-timeout",
				Usage:    "The time allowed to read request headers.",
				Value:    10 * time.Second,
				Category: "http",
			},
		},
	}
)

func serveAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	shell, err := app.New(ctx)
	if err != nil {
		return err
	}

	cfg, err := conf.Parse[server.HttpConfig](conf.ParseOptions{
		Defaults: conf.DefaultConfig{
			"host": ctx.String("host"),
			"port": ctx.Int("port"),
		},
		EnvPrefix: envPrefix + "HTTP_",
		Log:       log,
		Cli:       ctx,
	})
	if err != nil {
		return err
	}

	log.Info("starting http server",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Bool("h2c", cfg.H2c),
	)

	return shell.Run(ctx.Context, app.ServeModule(cfg))
}

func init() {
	rootApp.Commands = append(rootApp.Commands, serveCmd)
}
