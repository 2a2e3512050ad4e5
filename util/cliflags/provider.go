// Package cliflags provides the flags set on a urfave/cli context to
// koanf. Flags left at their default are not provided, so they never
// shadow values from files or the environment.
package cliflags

import (
	"errors"

	"github.com/knadh/koanf/maps"
	"github.com/urfave/cli/v2"
)

var ErrReadBytes = errors.New("cli flag provider does not support ReadBytes")

// CLIFlags is a koanf.Provider over a fixed map of flag values.
type CLIFlags struct {
	mp map[string]any
}

// Provider collects the explicitly set flags of ctx and its parents.
// rename maps a flag name to a config key. If delim is not empty, keys
// are unflattened by delim, so rename can return nested keys.
func Provider(ctx *cli.Context, delim string, rename func(string) string) *CLIFlags {
	known := map[string]cli.Flag{}
	collect := func(flags []cli.Flag) {
		for _, flag := range flags {
			known[flag.Names()[0]] = flag
		}
	}

	collect(ctx.App.VisibleFlags())
	if ctx.Command != nil {
		collect(ctx.Command.VisibleFlags())
	}

	mp := make(map[string]any)
	for _, name := range ctx.FlagNames() {
		flag, ok := known[name]
		if !ok {
			continue
		}

		value, ok := flagValue(ctx, flag)
		if !ok {
			continue
		}

		key := name
		if rename != nil {
			key = rename(name)
		}
		mp[key] = value
	}

	if delim != "" {
		mp = maps.Unflatten(mp, delim)
	}

	return &CLIFlags{mp: mp}
}

func (e *CLIFlags) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytes
}

func (e *CLIFlags) Read() (map[string]any, error) {
	return e.mp, nil
}

// flagValue reads the typed value of flag. Generic flags are skipped.
func flagValue(ctx *cli.Context, flag cli.Flag) (any, bool) {
	name := flag.Names()[0]

	switch flag.(type) {
	case *cli.StringFlag:
		return ctx.String(name), true
	case *cli.PathFlag:
		return ctx.Path(name), true
	case *cli.StringSliceFlag:
		return ctx.StringSlice(name), true
	case *cli.BoolFlag:
		return ctx.Bool(name), true
	case *cli.IntFlag:
		return ctx.Int(name), true
	case *cli.IntSliceFlag:
		return ctx.IntSlice(name), true
	case *cli.Int64Flag:
		return ctx.Int64(name), true
	case *cli.Int64SliceFlag:
		return ctx.Int64Slice(name), true
	case *cli.UintFlag:
		return ctx.Uint(name), true
	case *cli.Float64Flag:
		return ctx.Float64(name), true
	case *cli.Float64SliceFlag:
		return ctx.Float64Slice(name), true
	case *cli.DurationFlag:
		return ctx.Duration(name), true
	default:
		return nil, false
	}
}
