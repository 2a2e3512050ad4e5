package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var ErrDuplicateHeader = errors.New("duplicate header name in mapping")

// Header is a single header name/value pair.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of header pairs. Repeated names are
// allowed and keep the order in which they were added.
type Headers []Header

// HeadersFromHTTP converts a http.Header into ordered pairs. Names
// are emitted in lexical order, values of a name in received order.
func HeadersFromHTTP(h http.Header) Headers {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make(Headers, 0, len(h))
	for _, name := range names {
		for _, value := range h[name] {
			headers = append(headers, Header{Name: name, Value: value})
		}
	}

	return headers
}

// Add appends a header pair.
func (h Headers) Add(name, value string) Headers {
	return append(h, Header{Name: name, Value: value})
}

// Get returns the first value for the given name, compared
// case-insensitively.
func (h Headers) Get(name string) string {
	for _, header := range h {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}

	return ""
}

// Values returns all values for the given name in order.
func (h Headers) Values(name string) []string {
	var values []string
	for _, header := range h {
		if strings.EqualFold(header.Name, name) {
			values = append(values, header.Value)
		}
	}

	return values
}

// Without returns a copy of the headers with every pair named
// name removed.
func (h Headers) Without(name string) Headers {
	out := make(Headers, 0, len(h))
	for _, header := range h {
		if !strings.EqualFold(header.Name, name) {
			out = append(out, header)
		}
	}

	return out
}

// HTTP returns the headers as a http.Header, keeping value order.
func (h Headers) HTTP() http.Header {
	out := make(http.Header, len(h))
	for _, header := range h {
		out.Add(header.Name, header.Value)
	}

	return out
}

// MarshalJSON encodes the headers as a list of [name, value] pairs.
// Nil headers encode as null.
func (h Headers) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("null"), nil
	}

	pairs := make([][2]string, 0, len(h))
	for _, header := range h {
		pairs = append(pairs, [2]string{header.Name, header.Value})
	}

	return json.Marshal(pairs)
}

// UnmarshalJSON decodes either a list of [name, value] pairs or a
// name to value object. Object keys are converted to pairs in lexical
// order, as objects carry no order. An object repeating a key is
// rejected, as it cannot carry both values.
func (h *Headers) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))

	if trimmed == "null" {
		*h = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "{") {
		headers, err := headersFromObject(data)
		if err != nil {
			return err
		}

		*h = headers
		return nil
	}

	var pairs [][]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("invalid header pairs: %w", err)
	}

	headers := make(Headers, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return fmt.Errorf("header pair %d has %d elements", i, len(pair))
		}
		headers = append(headers, Header{Name: pair[0], Value: pair[1]})
	}

	*h = headers
	return nil
}

func headersFromObject(data []byte) (Headers, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	// opening brace
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid header object: %w", err)
	}

	values := map[string]string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid header object: %w", err)
		}
		name, _ := tok.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid header object: %w", err)
		}

		if _, ok := values[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateHeader, name)
		}
		values[name] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid header object: %w", err)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make(Headers, 0, len(values))
	for _, name := range names {
		headers = append(headers, Header{Name: name, Value: values[name]})
	}

	return headers, nil
}
