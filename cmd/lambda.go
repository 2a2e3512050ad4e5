package cmd

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/app"
	"github.com/lambda-feedback/shimbridge/app/lambda"
	"github.com/lambda-feedback/shimbridge/util/conf"
	"github.com/lambda-feedback/shimbridge/util/logging"
)

var (
	lambdaCmdDescription = `The lambda command starts shimbridge as an AWS Lambda runtime
interface client, which allows it to be directly invoked by
the AWS Lambda runtime without any additional dependencies.
API Gateway and ALB events are converted into http requests
and pass through the same bridge as the http server.

The command will start the AWS runtime interface client and
blocks indefinitely, processing incoming AWS Lambda events.`
	lambdaCmd = &cli.Command{
		Name:        "lambda",
		Usage:       "Run the AWS Lambda handler",
		Description: lambdaCmdDescription,
		Action:      lambdaAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "lambda-proxy-source",
				Usage:    "the source of the AWS Lambda event. Options: API_GW_V1, API_GW_V2, ALB.",
				Value:    "API_GW_V2",
				EnvVars:  []string{"LAMBDA_PROXY_SOURCE"},
				Category: "lambda",
			},
		},
	}
)

func lambdaAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	cfg, err := conf.Parse[lambda.Config](conf.ParseOptions{
		EnvPrefix: envPrefix + "LAMBDA_",
		Log:       log,
		Cli:       ctx,
	})
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	shell, err := app.New(ctx)
	if err != nil {
		return err
	}

	log.Info("starting AWS Lambda handler", zap.Stringer("proxy_source", cfg.ProxySource))

	return shell.Run(ctx.Context, lambda.Module(cfg))
}

func init() {
	rootApp.Commands = append(rootApp.Commands, lambdaCmd)
}
