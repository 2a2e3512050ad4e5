package util

import "fmt"

// Must returns v, or panics if err is set. It is meant for values
// whose construction can only fail on programmer error, e.g. encoding
// a constant.
func Must[V any](v V, err error) V {
	if err != nil {
		panic(fmt.Errorf("util.Must: %w", err))
	}

	return v
}
