package router_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lambda-feedback/shimbridge/engine/router"
)

func TestParseManifest(t *testing.T) {
	data := []byte(`
[[route]]
method = "post"
path = "/items"
status = 201
body = "created"
delay_ms = 25
content_type = "text/plain"

[route.headers]
x-example = "1"

[[route]]
path = "/"
body = "index"
`)

	m, err := router.ParseManifest(data)
	require.NoError(t, err)

	routes := m.ToRoutes()
	require.Len(t, routes, 2)

	assert.Equal(t, router.Route{
		Method:      http.MethodPost,
		Path:        "/items",
		Status:      http.StatusCreated,
		Body:        "created",
		ContentType: "text/plain",
		Headers:     map[string]string{"x-example": "1"},
		Delay:       25 * time.Millisecond,
	}, routes[0])

	assert.Equal(t, http.MethodGet, routes[1].Method)
	assert.Equal(t, "index", routes[1].Body)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not toml", data: `[[route`},
		{name: "no routes", data: ``},
		{name: "relative path", data: "[[route]]\npath = \"test\""},
		{name: "invalid status", data: "[[route]]\npath = \"/\"\nstatus = 42"},
		{name: "negative delay", data: "[[route]]\npath = \"/\"\ndelay_ms = -1"},
		{name: "duplicate", data: "[[route]]\npath = \"/\"\n[[route]]\nmethod = \"GET\"\npath = \"/\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := router.ParseManifest([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestExampleRoutes(t *testing.T) {
	routes := router.ExampleRoutes()
	require.Len(t, routes, 3)

	assert.Equal(t, "/concurrent-test", routes[2].Path)
	assert.Equal(t, 50*time.Millisecond, routes[2].Delay)
}
