package util

import "strings"

var truthyValues = map[string]struct{}{
	"true": {},
	"1":    {},
	"yes":  {},
	"y":    {},
	"on":   {},
}

// Truthy reports whether s spells a boolean true, as commonly used in
// env vars. Case and surrounding whitespace are ignored.
func Truthy(s string) bool {
	_, ok := truthyValues[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
