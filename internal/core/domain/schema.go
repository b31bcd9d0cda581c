package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// JSON schema type names.
const (
	TypeNull    = "null"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// TypeList is the JSON schema "type" keyword, which may be a string or a list.
type TypeList []string

// UnmarshalJSON accepts both "string" and ["string", "null"].
func (t *TypeList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TypeList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("schema type: %w", err)
	}
	*t = list
	return nil
}

// Schema is a JSON schema declaration for a stream or one of its fields.
// Only the subset of JSON schema that the tap emits is modelled.
type Schema struct {
	Type        TypeList           `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`

	// AdditionalProperties keeps undeclared object keys during conformance.
	AdditionalProperties bool `json:"additionalProperties,omitempty"`
}

// Allows reports whether the schema admits values of the given JSON type.
// A schema without a type admits anything.
func (s *Schema) Allows(jsonType string) bool {
	if s == nil || len(s.Type) == 0 {
		return true
	}
	for _, t := range s.Type {
		if t == jsonType {
			return true
		}
		// Every integer is also a number.
		if t == TypeNumber && jsonType == TypeInteger {
			return true
		}
	}
	return false
}

// FieldNames returns the declared property names in lexical order.
func (s *Schema) FieldNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy so callers can extend a shared declaration.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := &Schema{
		Type:        append(TypeList(nil), s.Type...),
		Format:      s.Format,
		Description: s.Description,
		Items:       s.Items.Clone(),

		AdditionalProperties: s.AdditionalProperties,
	}
	if s.Properties != nil {
		c.Properties = make(map[string]*Schema, len(s.Properties))
		for name, p := range s.Properties {
			c.Properties[name] = p.Clone()
		}
	}
	return c
}

// Conform maps fields onto the declared property set.
// Declared fields missing from the payload are emitted as nil, undeclared
// fields are dropped unless AdditionalProperties is set, and a value whose
// type the schema does not allow fails the whole record with a
// *SchemaMismatchError.
func (s *Schema) Conform(stream string, fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.Properties))
	if s.AdditionalProperties {
		for k, v := range fields {
			if _, declared := s.Properties[k]; !declared {
				out[k] = v
			}
		}
	}
	for name, prop := range s.Properties {
		v, err := conformValue(stream, name, prop, fields[name])
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func conformValue(stream, path string, prop *Schema, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	got := JSONTypeOf(v)
	if !prop.Allows(got) {
		return nil, &SchemaMismatchError{Stream: stream, Field: path, Want: prop.Type, Got: got}
	}

	switch val := v.(type) {
	case map[string]any:
		// Objects without declared properties pass through untouched.
		if len(prop.Properties) == 0 {
			return val, nil
		}
		out := make(map[string]any, len(prop.Properties))
		if prop.AdditionalProperties {
			for k, v := range val {
				if _, declared := prop.Properties[k]; !declared {
					out[k] = v
				}
			}
		}
		for name, child := range prop.Properties {
			cv, err := conformValue(stream, path+"."+name, child, val[name])
			if err != nil {
				return nil, err
			}
			out[name] = cv
		}
		return out, nil
	case []any:
		if prop.Items == nil {
			return val, nil
		}
		out := make([]any, len(val))
		for i, item := range val {
			cv, err := conformValue(stream, fmt.Sprintf("%s[%d]", path, i), prop.Items, item)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	default:
		return v, nil
	}
}

// JSONTypeOf returns the JSON schema type name of a decoded value.
func JSONTypeOf(v any) string {
	switch val := v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBoolean
	case string:
		return TypeString
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return TypeInteger
		}
		return TypeNumber
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return TypeInteger
		}
		return TypeNumber
	case float32:
		return JSONTypeOf(float64(val))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	default:
		return fmt.Sprintf("%T", v)
	}
}
