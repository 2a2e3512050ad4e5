package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/config"
	"github.com/lambda-feedback/shimbridge/internal/harness"
	"github.com/lambda-feedback/shimbridge/util/conf"
	"github.com/lambda-feedback/shimbridge/util/logging"
)

var (
	verifyCmdDescription = `The verify command checks that requests are executed concur-
rently. It sends a batch of simultaneous requests to a route
that takes a fixed delay to respond and fails unless the batch
completes well below the time a serial execution would take.

Without --url, the check runs against the configured engine
through an in-process bridge. With --url, it runs against a
live host, e.g. one started with the serve command.

The process engine handles at most --max-workers requests at
once (one with --persistent, the number of cpu cores by
default). Verifying it needs --max-workers of at least -k.`
	verifyCmd = &cli.Command{
		Name:        "verify",
		Usage:       "Verify that the bridge executes requests concurrently.",
		Description: verifyCmdDescription,
		Action:      verifyAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "the base url of a live host to verify.",
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"k"},
				Usage:   "the number of simultaneous requests.",
				Value:   harness.DefaultConcurrency,
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "the response delay of the delayed route.",
				Value: harness.DefaultDelay,
			},
			&cli.DurationFlag{
				Name:  "bound",
				Usage: "the maximum duration of the batch. Defaults to 80% of a serial execution.",
			},
			&cli.StringFlag{
				Name:  "route",
				Usage: "the route requested once before the batch.",
				Value: harness.DefaultRoute,
			},
			&cli.StringFlag{
				Name:  "delayed-route",
				Usage: "the route requested concurrently.",
				Value: harness.DefaultDelayedRoute,
			},
		},
	}
)

func verifyAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	var invoker harness.Invoker

	if url := ctx.String("url"); url != "" {
		invoker = harness.NewHTTPInvoker(url, nil)
	} else {
		cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
		if err != nil {
			return err
		}

		if n, ok := cfg.Engine.Parallelism(); ok && n < ctx.Int("concurrency") {
			log.Warn("engine handles fewer requests at once than the batch size, verification will likely fail",
				zap.Int("parallelism", n),
				zap.Int("concurrency", ctx.Int("concurrency")),
			)
		}

		b, stop, err := startBridge(ctx)
		if err != nil {
			return err
		}
		defer stop()

		invoker = harness.NewBridgeInvoker(b)
	}

	report, err := harness.Run(ctx.Context, invoker, harness.Config{
		Route:        ctx.String("route"),
		DelayedRoute: ctx.String("delayed-route"),
		Concurrency:  ctx.Int("concurrency"),
		Delay:        ctx.Duration("delay"),
		Bound:        ctx.Duration("bound"),
	}, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "single request: %s\nbatch of %d: %s (bound %s)\n",
		report.Single, ctx.Int("concurrency"), report.Batch, report.Bound)

	if err := report.Err(); err != nil {
		return cli.Exit(fmt.Sprintf("concurrent execution could not be verified: %v", err), 1)
	}

	fmt.Fprintln(ctx.App.Writer, "concurrent execution verified")

	return nil
}

func init() {
	rootApp.Commands = append(rootApp.Commands, verifyCmd)
}
