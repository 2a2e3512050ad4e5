package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/lambda-feedback/shimbridge/bridge/schema"
)

// RequestDescriptor is the portable form of one inbound request. It is
// owned by the call that created it and discarded once the call
// resolves.
type RequestDescriptor struct {
	// Method is the upper-case http method.
	Method string `json:"method"`

	// Path is the request target including any query component.
	Path string `json:"path"`

	// Headers are the request headers in received order. Nil means no
	// headers were passed.
	Headers Headers `json:"headers"`

	// Body is the fully drained request body.
	Body Body `json:"body"`
}

// NewDescriptor creates a descriptor, normalizing the method.
func NewDescriptor(method, path string, headers Headers, body Body) RequestDescriptor {
	return RequestDescriptor{
		Method:  strings.ToUpper(method),
		Path:    path,
		Headers: headers,
		Body:    body,
	}
}

// MarshalDescriptor serializes the descriptor into its wire form.
func MarshalDescriptor(d RequestDescriptor) ([]byte, error) {
	return json.Marshal(d)
}

var getDescriptorSchema = sync.OnceValues(schema.NewDescriptorSchema)

// UnmarshalDescriptor parses a descriptor from its wire form. The
// data is validated against the descriptor schema first.
func UnmarshalDescriptor(data []byte) (RequestDescriptor, error) {
	s, err := getDescriptorSchema()
	if err != nil {
		return RequestDescriptor{}, err
	}

	if err := s.Validate(data); err != nil {
		return RequestDescriptor{}, err
	}

	var d RequestDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return RequestDescriptor{}, fmt.Errorf("invalid descriptor: %w", err)
	}

	d.Method = strings.ToUpper(d.Method)

	return d, nil
}

// HTTPRequest converts the descriptor into a server-side http.Request,
// as handed to an in-process http.Handler.
func (d RequestDescriptor) HTTPRequest() (*http.Request, error) {
	path := d.Path
	if path == "" {
		path = "/"
	}

	req, err := http.NewRequest(d.Method, path, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	req.RequestURI = path
	req.Header = d.Headers.HTTP()
	if host := d.Headers.Get("Host"); host != "" {
		req.Host = host
		req.Header.Del("Host")
	}

	if d.Body.Present() {
		req.Body = io.NopCloser(bytes.NewReader(d.Body.Bytes()))
		req.ContentLength = int64(d.Body.Len())
	} else {
		req.Body = http.NoBody
	}

	return req, nil
}
