package bridge

import (
	"fmt"
	"io"
	"net/http"
)

// Builder converts live inbound requests into request descriptors.
type Builder struct {
	maxBodyBytes int64
}

// NewBuilder creates a builder honoring the body limit of config.
// A zero limit means unlimited.
func NewBuilder(config Config) *Builder {
	return &Builder{maxBodyBytes: config.MaxBodyBytes}
}

// Build drains body completely and returns the descriptor. A nil body
// means no body was sent. If reading fails, a *TransportError is
// returned.
func (b *Builder) Build(
	method string,
	path string,
	headers Headers,
	body io.Reader,
) (RequestDescriptor, error) {
	if body == nil {
		return NewDescriptor(method, path, headers, NoBody()), nil
	}

	data, err := b.drain(body)
	if err != nil {
		return RequestDescriptor{}, &TransportError{Err: err}
	}

	return NewDescriptor(method, path, headers, BodyOf(data)), nil
}

// BuildHTTP builds a descriptor from a net/http server request. The
// Host header is restored from r.Host, as net/http strips it from
// r.Header.
func (b *Builder) BuildHTTP(r *http.Request) (RequestDescriptor, error) {
	path := r.RequestURI
	if r.URL != nil {
		path = r.URL.RequestURI()
	}

	headers := make(Headers, 0, len(r.Header)+1)
	if r.Host != "" {
		headers = append(headers, Header{Name: "Host", Value: r.Host})
	}
	headers = append(headers, HeadersFromHTTP(r.Header)...)

	var body io.Reader
	if hasBody(r) {
		body = r.Body
	}

	return b.Build(r.Method, path, headers, body)
}

func (b *Builder) drain(body io.Reader) ([]byte, error) {
	if b.maxBodyBytes <= 0 {
		return io.ReadAll(body)
	}

	data, err := io.ReadAll(io.LimitReader(body, b.maxBodyBytes+1))
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > b.maxBodyBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, b.maxBodyBytes)
	}

	return data, nil
}

// hasBody reports whether the client sent a body, even an empty one.
// net/http replaces a zero-length body with http.NoBody, so the
// Content-Length header decides in that case.
func hasBody(r *http.Request) bool {
	if r.Body == nil {
		return false
	}

	if r.ContentLength > 0 || len(r.TransferEncoding) > 0 {
		return true
	}

	_, ok := r.Header["Content-Length"]
	return ok
}
