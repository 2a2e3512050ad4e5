package bridge

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Body is an optional request body. An absent body ("no body was
// sent") is distinct from a present body of length zero.
type Body struct {
	data    []byte
	present bool
}

// NoBody returns an absent body.
func NoBody() Body {
	return Body{}
}

// BodyOf returns a present body holding data. BodyOf(nil) is a
// present, zero-length body.
func BodyOf(data []byte) Body {
	if data == nil {
		data = []byte{}
	}

	return Body{data: data, present: true}
}

// Present reports whether a body was sent.
func (b Body) Present() bool {
	return b.present
}

// Bytes returns the body bytes, nil if the body is absent.
func (b Body) Bytes() []byte {
	if !b.present {
		return nil
	}

	return b.data
}

// Len returns the body length, 0 if absent.
func (b Body) Len() int {
	return len(b.data)
}

func (b Body) String() string {
	if !b.present {
		return "<absent>"
	}

	return fmt.Sprintf("<%d bytes>", len(b.data))
}

// Equal reports whether both bodies have the same presence and bytes.
func (b Body) Equal(other Body) bool {
	return b.present == other.present && bytes.Equal(b.data, other.data)
}

// MarshalJSON encodes an absent body as null and a present body as a
// base64 string.
func (b Body) MarshalJSON() ([]byte, error) {
	if !b.present {
		return []byte("null"), nil
	}

	return json.Marshal(base64.StdEncoding.EncodeToString(b.data))
}

// UnmarshalJSON decodes null as an absent body and a base64 string as
// a present body.
func (b *Body) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*b = NoBody()
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("invalid body encoding: %w", err)
	}

	*b = BodyOf(decoded)
	return nil
}
