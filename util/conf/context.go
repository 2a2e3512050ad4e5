package conf

import (
	"context"
	"errors"
	"fmt"
)

type configKey struct{}

var (
	ErrNoConfigInContext = errors.New("no config in context")
	ErrConfigType        = errors.New("unexpected config type in context")
)

// GetConfigFromContext returns the config stored by ContextWithConfig.
// It fails if the stored value is not a C.
func GetConfigFromContext[C any](ctx context.Context) (C, error) {
	var zero C

	value := ctx.Value(configKey{})
	if value == nil {
		return zero, ErrNoConfigInContext
	}

	config, ok := value.(C)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrConfigType, value)
	}

	return config, nil
}

func ContextWithConfig[C any](ctx context.Context, config C) context.Context {
	return context.WithValue(ctx, configKey{}, config)
}
