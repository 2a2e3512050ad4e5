package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type SchemaType int

const (
	SchemaTypeDescriptor SchemaType = iota
	SchemaTypeEnvelope
)

func (t SchemaType) String() string {
	switch t {
	case SchemaTypeDescriptor:
		return "descriptor"
	case SchemaTypeEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Type   SchemaType
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Type, strings.Join(e.Errors, "; "))
}

type Schema struct {
	schemaType SchemaType
	schema     *gojsonschema.Schema
}

// Validate validates raw json data against the schema.
func (s *Schema) Validate(data []byte) error {
	res, err := s.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", s.schemaType, err)
	}

	if res.Valid() {
		return nil
	}

	errs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		errs = append(errs, e.String())
	}

	return &ValidationError{Type: s.schemaType, Errors: errs}
}

//go:embed envelope.json
var envelope json.RawMessage
var envelopeLoader = gojsonschema.NewBytesLoader(envelope)

//go:embed descriptor.json
var descriptor json.RawMessage
var descriptorLoader = gojsonschema.NewBytesLoader(descriptor)

func NewEnvelopeSchema() (*Schema, error) {
	schema, err := gojsonschema.NewSchema(envelopeLoader)
	if err != nil {
		return nil, err
	}

	return &Schema{schemaType: SchemaTypeEnvelope, schema: schema}, nil
}

func NewDescriptorSchema() (*Schema, error) {
	schema, err := gojsonschema.NewSchema(descriptorLoader)
	if err != nil {
		return nil, err
	}

	return &Schema{schemaType: SchemaTypeDescriptor, schema: schema}, nil
}
