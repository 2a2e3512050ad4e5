package router

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Manifest declares the routes of a router engine.
//
//	[[route]]
//	method = "GET"
//	path = "/hello"
//	status = 200
//	body = "hello"
//	delay_ms = 50
//	content_type = "text/plain"
//	[route.headers]
//	x-example = "1"
type Manifest struct {
	Routes []ManifestRoute `toml:"route"`
}

type ManifestRoute struct {
	Method      string            `toml:"method"`
	Path        string            `toml:"path"`
	Status      int               `toml:"status"`
	Body        string            `toml:"body"`
	DelayMS     int               `toml:"delay_ms"`
	ContentType string            `toml:"content_type"`
	Headers     map[string]string `toml:"headers"`
}

// LoadManifest reads and validates a TOML route manifest.
func LoadManifest(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}

	return ParseManifest(b)
}

// ParseManifest parses and validates a TOML route manifest.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}

	return m, nil
}

func (m Manifest) Validate() error {
	if len(m.Routes) == 0 {
		return errors.New("manifest declares no routes")
	}

	seen := make(map[string]struct{}, len(m.Routes))

	for i, r := range m.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("route %d: path must start with /: %q", i, r.Path)
		}

		if r.Status != 0 && (r.Status < 100 || r.Status > 599) {
			return fmt.Errorf("route %d: invalid status %d", i, r.Status)
		}

		if r.DelayMS < 0 {
			return fmt.Errorf("route %d: negative delay", i)
		}

		key := r.method() + " " + r.Path
		if _, ok := seen[key]; ok {
			return fmt.Errorf("route %d: duplicate route %s", i, key)
		}
		seen[key] = struct{}{}
	}

	return nil
}

// ToRoutes converts the manifest into routes.
func (m Manifest) ToRoutes() []Route {
	routes := make([]Route, 0, len(m.Routes))

	for _, r := range m.Routes {
		routes = append(routes, Route{
			Method:      r.method(),
			Path:        r.Path,
			Status:      r.Status,
			Body:        r.Body,
			ContentType: r.ContentType,
			Headers:     r.Headers,
			Delay:       time.Duration(r.DelayMS) * time.Millisecond,
		})
	}

	return routes
}

func (r ManifestRoute) method() string {
	if r.Method == "" {
		return http.MethodGet
	}

	return strings.ToUpper(r.Method)
}
