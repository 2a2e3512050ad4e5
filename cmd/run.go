package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/util/logging"
)

type hostMode string

const (
	hostModeAuto   hostMode = "auto"
	hostModeServe  hostMode = "serve"
	hostModeLambda hostMode = "lambda"
)

var (
	runCmdDescription = `The run command picks the host from the environment, so the
same binary and configuration can be deployed to different
platforms.

With --mode auto (the default), shimbridge starts the AWS
Lambda runtime client if AWS_LAMBDA_RUNTIME_API is set, and
the standalone http server otherwise. --mode serve and
--mode lambda skip the detection.`
	runCmd = &cli.Command{
		Name:        "run",
		Usage:       "Detect execution environment and start the host.",
		Description: runCmdDescription,
		Action:      runAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Usage:   "The host to start. Options: auto, serve, lambda.",
				Value:   string(hostModeAuto),
				EnvVars: []string{envPrefix + "MODE"},
			},
		},
	}
)

func runAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	mode, err := detectHostMode(hostMode(ctx.String("mode")), os.LookupEnv)
	if err != nil {
		return err
	}

	log.Info("selected host", zap.String("mode", string(mode)))

	if mode == hostModeLambda {
		return lambdaAction(ctx)
	}

	return serveAction(ctx)
}

func detectHostMode(mode hostMode, lookupEnv func(string) (string, bool)) (hostMode, error) {
	switch mode {
	case hostModeServe, hostModeLambda:
		return mode, nil
	case hostModeAuto, "":
		if api, ok := lookupEnv("AWS_LAMBDA_RUNTIME_API"); ok && api != "" {
			return hostModeLambda, nil
		}
		return hostModeServe, nil
	default:
		return "", fmt.Errorf("unknown host mode %q", mode)
	}
}

func init() {
	runCmd.Flags = append(runCmd.Flags, serveCmd.Flags...)
	runCmd.Flags = append(runCmd.Flags, lambdaCmd.Flags...)

	rootApp.Commands = append(rootApp.Commands, runCmd)
}
