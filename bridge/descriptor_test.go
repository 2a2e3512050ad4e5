package bridge_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/bridge/schema"
)

func TestNewDescriptor_UpperCasesMethod(t *testing.T) {
	d := bridge.NewDescriptor("get", "/?q=1", nil, bridge.NoBody())

	assert.Equal(t, "GET", d.Method)
	assert.Equal(t, "/?q=1", d.Path)
}

func TestDescriptor_WireRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		d    bridge.RequestDescriptor
	}{
		{
			name: "absent headers and body",
			d:    bridge.NewDescriptor("GET", "/", nil, bridge.NoBody()),
		},
		{
			name: "empty body",
			d:    bridge.NewDescriptor("POST", "/submit", bridge.Headers{}, bridge.BodyOf([]byte{})),
		},
		{
			name: "duplicate headers and body",
			d: bridge.NewDescriptor("PUT", "/a?b=c", bridge.Headers{
				{Name: "Cookie", Value: "a=1"},
				{Name: "Cookie", Value: "b=2"},
			}, bridge.BodyOf([]byte("payload"))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bridge.MarshalDescriptor(tt.d)
			require.NoError(t, err)

			decoded, err := bridge.UnmarshalDescriptor(data)
			require.NoError(t, err)

			assert.Equal(t, tt.d.Method, decoded.Method)
			assert.Equal(t, tt.d.Path, decoded.Path)
			assert.Equal(t, tt.d.Headers, decoded.Headers)
			assert.True(t, tt.d.Body.Equal(decoded.Body))
		})
	}
}

func TestUnmarshalDescriptor_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing method":  `{"path":"/"}`,
		"empty method":    `{"method":"","path":"/"}`,
		"truncated":       `{`,
		"odd header pair": `{"method":"GET","path":"/","headers":[["Accept"]],"body":null}`,
		"header mapping":  `{"method":"GET","path":"/","headers":{"Accept":"*/*"},"body":null}`,
		"numeric body":    `{"method":"GET","path":"/","headers":null,"body":1}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := bridge.UnmarshalDescriptor([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalDescriptor_SchemaViolation(t *testing.T) {
	_, err := bridge.UnmarshalDescriptor([]byte(`{"method":"GET","path":"/","headers":[["Accept"]]}`))

	var validationErr *schema.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUnmarshalDescriptor_NormalizesMethod(t *testing.T) {
	d, err := bridge.UnmarshalDescriptor([]byte(`{"method":"get","path":"/","headers":null,"body":null}`))
	require.NoError(t, err)

	assert.Equal(t, "GET", d.Method)
	assert.False(t, d.Body.Present())
}

func TestDescriptor_HTTPRequest(t *testing.T) {
	d := bridge.NewDescriptor("POST", "/items?id=3", bridge.Headers{
		{Name: "Host", Value: "example.com"},
		{Name: "X-Tag", Value: "a"},
		{Name: "X-Tag", Value: "b"},
	}, bridge.BodyOf([]byte("hello")))

	req, err := d.HTTPRequest()
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/items", req.URL.Path)
	assert.Equal(t, "id=3", req.URL.RawQuery)
	assert.Equal(t, "/items?id=3", req.RequestURI)
	assert.Equal(t, "example.com", req.Host)
	assert.Empty(t, req.Header.Get("Host"))
	assert.Equal(t, []string{"a", "b"}, req.Header.Values("X-Tag"))
	assert.Equal(t, int64(5), req.ContentLength)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestDescriptor_HTTPRequest_EmptyPath(t *testing.T) {
	req, err := bridge.NewDescriptor("GET", "", nil, bridge.NoBody()).HTTPRequest()
	require.NoError(t, err)

	assert.Equal(t, "/", req.URL.Path)
}
