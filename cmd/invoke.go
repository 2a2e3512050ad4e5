package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/util/logging"
)

var (
	invokeCmdDescription = `The invoke command performs a single bridge call against the
configured engine and prints the resulting response envelope
as JSON. No http host is started, which makes the command
useful to check an engine in isolation.

Example:
  shimbridge invoke GET /test
  shimbridge invoke -H "content-type: application/json" -d '{}' POST /echo`
	invokeCmd = &cli.Command{
		Name:        "invoke",
		Usage:       "Perform a single bridge call and print the envelope.",
		Description: invokeCmdDescription,
		ArgsUsage:   "METHOD PATH",
		Action:      invokeAction,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "header",
				Aliases: []string{"H"},
				Usage:   "a request header in the form 'name: value'. May be repeated.",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "the request body.",
			},
			&cli.PathFlag{
				Name:  "data-file",
				Usage: "read the request body from a file.",
			},
		},
	}
)

func invokeAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	if ctx.NArg() != 2 {
		return fmt.Errorf("expected METHOD and PATH arguments, got %d arguments", ctx.NArg())
	}

	headers, err := parseHeaders(ctx.StringSlice("header"))
	if err != nil {
		return err
	}

	body, err := invokeBody(ctx)
	if err != nil {
		return err
	}

	b, stop, err := startBridge(ctx)
	if err != nil {
		return err
	}
	defer stop()

	call := b.InvokeRaw(ctx.Context, ctx.Args().Get(0), ctx.Args().Get(1), headers, body)

	result, err := call.Wait(ctx.Context)
	if err != nil {
		return err
	}

	if fault := call.Fault(); fault != nil {
		log.Warn("call faulted", zap.Error(fault))
	}

	_, err = fmt.Fprintln(ctx.App.Writer, result)
	return err
}

func invokeBody(ctx *cli.Context) (bridge.Body, error) {
	if path := ctx.Path("data-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return bridge.Body{}, fmt.Errorf("error reading data file: %w", err)
		}
		return bridge.BodyOf(data), nil
	}

	if ctx.IsSet("data") {
		return bridge.BodyOf([]byte(ctx.String("data"))), nil
	}

	return bridge.NoBody(), nil
}

// parseHeaders converts 'name: value' strings into headers, keeping
// their order. No headers yields nil.
func parseHeaders(raw []string) (bridge.Headers, error) {
	var headers bridge.Headers

	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'name: value'", h)
		}

		headers = headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	return headers, nil
}

func init() {
	rootApp.Commands = append(rootApp.Commands, invokeCmd)
}
