package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/config"
	"github.com/lambda-feedback/shimbridge/internal/shell"
	"github.com/lambda-feedback/shimbridge/util/conf"
	"github.com/lambda-feedback/shimbridge/util/logging"
)

const envPrefix = "SHIMBRIDGE_"

var (
	appName  = "shimbridge"
	appUsage = `A bridge between http hosts and request handlers running in
an independent execution context: an in-process router, a
pool of worker processes or an engine served over json-rpc.`

	// cliMap maps root flags to their config keys
	cliMap = map[string]string{
		"log-level":       "log.level",
		"log-format":      "log.format",
		"log-file":        "log.file",
		"auth-key":        "auth.key",
		"max-concurrency": "bridge.max_concurrency",
		"call-timeout":    "bridge.call_timeout",
		"max-body-bytes":  "bridge.max_body_bytes",
		"engine":          "engine.type",
		"manifest":        "engine.router.manifest",
		"command":         "engine.process.cmd",
		"cwd":             "engine.process.cwd",
		"arg":             "engine.process.args",
		"interface":       "engine.process.io",
		"max-workers":     "engine.process.max_workers",
		"persistent":      "engine.process.persistent",
		"rpc-transport":   "engine.rpc.transport",
		"rpc-endpoint":    "engine.rpc.endpoint",
		"metrics":         "metrics.enabled",
	}

	rootApp = &cli.App{
		Name:            appName,
		Usage:           appUsage,
		HideHelpCommand: true,
		Args:            true,
		Flags: []cli.Flag{
			// general flags
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "set the log level. Options: debug, info, warn, error, panic, fatal.",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "set the log format. Options: production, development.",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "additionally write logs to a size-rotated file.",
				EnvVars: []string{"LOG_FILE"},
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "load configuration from a JSON file.",
				Aliases: []string{"C"},
				EnvVars: []string{"SHIMBRIDGE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "load SHIMBRIDGE_ prefixed configuration from a dotenv file.",
				EnvVars: []string{"SHIMBRIDGE_ENV_FILE"},
			},
			// bridge flags
			&cli.StringFlag{
				Name:     "auth-key",
				Usage:    "require clients to send this key in the api-key header.",
				Category: "bridge",
				EnvVars:  []string{"AUTH_KEY"},
			},
			&cli.IntFlag{
				Name:     "max-concurrency",
				Usage:    "the maximum number of calls executed by the engine at once.",
				Category: "bridge",
				EnvVars:  []string{"BRIDGE_MAX_CONCURRENCY"},
			},
			&cli.DurationFlag{
				Name:     "call-timeout",
				Usage:    "the maximum duration of a single call. 0 disables the timeout.",
				Category: "bridge",
				EnvVars:  []string{"BRIDGE_CALL_TIMEOUT"},
			},
			&cli.Int64Flag{
				Name:     "max-body-bytes",
				Usage:    "the maximum size of request bodies. 0 means unlimited.",
				Category: "bridge",
				EnvVars:  []string{"BRIDGE_MAX_BODY_BYTES"},
			},
			&cli.BoolFlag{
				Name:     "metrics",
				Usage:    "expose prometheus metrics on /metrics.",
				Category: "bridge",
				EnvVars:  []string{"METRICS_ENABLED"},
			},
			// engine flags
			&cli.StringFlag{
				Name:     "engine",
				Usage:    "the engine handling requests. Options: router, process, rpc.",
				Aliases:  []string{"e"},
				Category: "engine",
				EnvVars:  []string{"ENGINE_TYPE"},
			},
			&cli.StringFlag{
				Name:     "manifest",
				Usage:    "a TOML route manifest served by the router engine.",
				Aliases:  []string{"m"},
				Category: "engine",
				EnvVars:  []string{"ENGINE_MANIFEST"},
			},
			&cli.StringFlag{
				Name:     "command",
				Usage:    "the command to invoke in order to start the worker process.",
				Aliases:  []string{"c"},
				Category: "engine",
				EnvVars:  []string{"ENGINE_COMMAND"},
			},
			&cli.StringFlag{
				Name:     "cwd",
				Usage:    "the working directory of the worker process.",
				Category: "engine",
				EnvVars:  []string{"ENGINE_CWD"},
			},
			&cli.StringSliceFlag{
				Name:     "arg",
				Usage:    "additional arguments to pass to the worker process.",
				Aliases:  []string{"a"},
				Category: "engine",
				EnvVars:  []string{"ENGINE_ARGS"},
			},
			&cli.StringFlag{
				Name:     "interface",
				Usage:    "the interface to use for communication with the worker process. Options: stdio, file.",
				Aliases:  []string{"i"},
				Category: "engine",
				EnvVars:  []string{"ENGINE_INTERFACE"},
			},
			&cli.IntFlag{
				Name:     "max-workers",
				Usage:    "the maximum number of worker processes.",
				Aliases:  []string{"n"},
				Category: "engine",
				EnvVars:  []string{"ENGINE_MAX_WORKERS"},
			},
			&cli.BoolFlag{
				Name:     "persistent",
				Usage:    "route all requests to a single long-running worker process.",
				Category: "engine",
				EnvVars:  []string{"ENGINE_PERSISTENT"},
			},
			&cli.StringFlag{
				Name:     "rpc-transport",
				Usage:    "the transport used to reach the rpc engine. Options: ipc, http, ws, tcp.",
				Category: "engine",
				EnvVars:  []string{"ENGINE_RPC_TRANSPORT"},
			},
			&cli.StringFlag{
				Name:     "rpc-endpoint",
				Usage:    "the socket, url or address of the rpc engine.",
				Category: "engine",
				EnvVars:  []string{"ENGINE_RPC_ENDPOINT"},
			},
		},
		Before: func(ctx *cli.Context) error {
			// create the logger
			log, err := createLogger(ctx)
			if err != nil {
				return err
			}

			// inject logger into cli context
			ctx.Context = logging.ContextWithLogger(ctx.Context, log)

			// parse config using defaults, files, env and flags
			cfg, err := conf.Parse[config.Config](conf.ParseOptions{
				Cli:       ctx,
				CliMap:    cliMap,
				Defaults:  config.DefaultConfig,
				EnvPrefix: envPrefix,
				FileName:  ctx.String("config"),
				EnvFile:   ctx.String("env-file"),
				Log:       log,
			})
			if err != nil {
				return err
			}

			// inject the config into the cli context
			ctx.Context = conf.ContextWithConfig(ctx.Context, cfg)

			return nil
		},
		After: func(ctx *cli.Context) error {
			log, err := logging.LoggerFromContext(ctx.Context)
			if err != nil {
				return err
			}

			_ = log.Sync()

			return nil
		},
	}
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}
}

type ExecuteParams struct {
	Version  string
	Compiled time.Time
}

// Execute runs the cli and returns the process exit code.
func Execute(params ExecuteParams) int {
	rootApp.Version = params.Version
	rootApp.Compiled = params.Compiled

	return run(context.Background(), os.Args)
}

func run(ctx context.Context, args []string) int {
	err := rootApp.RunContext(ctx, args)
	if err == nil {
		return 0
	}

	// shell exit errors have been logged already
	var exitErr *shell.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "exit error: %s\n", err.Error())
	}

	return shell.ExitCode(err)
}

func createLogger(ctx *cli.Context) (*zap.Logger, error) {
	return logging.NewLogger(logging.Options{
		App:        appName,
		Level:      ctx.String("log-level"),
		Format:     ctx.String("log-format"),
		File:       ctx.String("log-file"),
		MaxSizeMB:  100,
		MaxBackups: 3,
	})
}
