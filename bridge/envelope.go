package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/lambda-feedback/shimbridge/bridge/schema"
)

// InternalErrorBody is the fixed body written for any internal
// failure.
const InternalErrorBody = "Internal Server Error"

// ResponseEnvelope is the result of a single bridge call.
type ResponseEnvelope struct {
	// Status is the http status code, 100-599.
	Status int `json:"status"`

	// Headers are the response headers in order.
	Headers Headers `json:"headers"`

	// Body is the textual response payload.
	Body string `json:"body"`
}

// NewEnvelope creates a text envelope.
func NewEnvelope(status int, body string, headers ...Header) ResponseEnvelope {
	return ResponseEnvelope{
		Status:  status,
		Headers: Headers(headers),
		Body:    body,
	}
}

// InternalErrorEnvelope is the envelope substituted for faults.
func InternalErrorEnvelope() ResponseEnvelope {
	return NewEnvelope(
		http.StatusInternalServerError,
		InternalErrorBody,
		Header{Name: "content-type", Value: "text/plain; charset=utf-8"},
	)
}

// NotFoundEnvelope is the envelope engines return for unknown routes.
func NotFoundEnvelope() ResponseEnvelope {
	return NewEnvelope(
		http.StatusNotFound,
		"Not Found",
		Header{Name: "content-type", Value: "text/plain; charset=utf-8"},
	)
}

// Valid reports whether the status is a valid http status code.
func (e ResponseEnvelope) Valid() bool {
	return e.Status >= 100 && e.Status <= 599
}

// Final reports whether the envelope can end an http exchange. 1xx
// statuses are informational and cannot.
func (e ResponseEnvelope) Final() bool {
	return e.Status >= 200 && e.Status <= 599
}

// MarshalEnvelope serializes an envelope. Headers are always written
// as ordered pairs.
func MarshalEnvelope(e ResponseEnvelope) ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("invalid status code %d", e.Status)
	}

	if e.Headers == nil {
		e.Headers = Headers{}
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

var (
	envelopeSchemaOnce sync.Once
	envelopeSchema     *schema.Schema
	envelopeSchemaErr  error
)

func getEnvelopeSchema() (*schema.Schema, error) {
	envelopeSchemaOnce.Do(func() {
		envelopeSchema, envelopeSchemaErr = schema.NewEnvelopeSchema()
	})

	return envelopeSchema, envelopeSchemaErr
}

// ParseEnvelope parses a serialized envelope. Any malformed input is
// reported as *EnvelopeParseError.
func ParseEnvelope(data []byte) (ResponseEnvelope, error) {
	s, err := getEnvelopeSchema()
	if err != nil {
		return ResponseEnvelope{}, &EnvelopeParseError{Err: err}
	}

	if err := s.Validate(data); err != nil {
		return ResponseEnvelope{}, &EnvelopeParseError{Err: err}
	}

	var e ResponseEnvelope

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&e); err != nil {
		return ResponseEnvelope{}, &EnvelopeParseError{Err: err}
	}

	// reject trailing content
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return ResponseEnvelope{}, &EnvelopeParseError{Err: errors.New("trailing content")}
	}

	if !e.Valid() {
		return ResponseEnvelope{}, &EnvelopeParseError{Err: fmt.Errorf("invalid status code %d", e.Status)}
	}

	return e, nil
}
