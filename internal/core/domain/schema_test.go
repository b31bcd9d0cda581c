package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactSchemaJSON = `{
  "type": ["null", "object"],
  "properties": {
    "id": {"type": ["null", "integer"]},
    "name": {"type": ["null", "string"]},
    "value": {"type": ["null", "number", "string"]},
    "is_organization": {"type": ["null", "boolean"]},
    "tags": {"type": ["null", "array"], "items": {"type": ["null", "string"]}},
    "address": {
      "type": ["null", "object"],
      "properties": {
        "line1": {"type": ["null", "string"]},
        "city": {"type": ["null", "string"]},
        "postal_code": {"type": ["null", "string"]},
        "state": {"type": ["null", "string"]},
        "country": {"type": ["null", "string"]}
      }
    },
    "created_at": {"type": ["null", "string"], "format": "date-time"}
  }
}`

func loadContactSchema(t *testing.T) *Schema {
	t.Helper()
	var s Schema
	require.NoError(t, json.Unmarshal([]byte(contactSchemaJSON), &s))
	return &s
}

func TestTypeList_UnmarshalJSON(t *testing.T) {
	t.Run("single string", func(t *testing.T) {
		var tl TypeList
		require.NoError(t, json.Unmarshal([]byte(`"string"`), &tl))
		assert.Equal(t, TypeList{"string"}, tl)
	})

	t.Run("list", func(t *testing.T) {
		var tl TypeList
		require.NoError(t, json.Unmarshal([]byte(`["null","integer"]`), &tl))
		assert.Equal(t, TypeList{"null", "integer"}, tl)
	})

	t.Run("invalid", func(t *testing.T) {
		var tl TypeList
		assert.Error(t, json.Unmarshal([]byte(`42`), &tl))
	})
}

func TestSchema_Allows(t *testing.T) {
	s := &Schema{Type: TypeList{"null", "number"}}

	assert.True(t, s.Allows(TypeNumber))
	assert.True(t, s.Allows(TypeInteger), "integers are numbers")
	assert.True(t, s.Allows(TypeNull))
	assert.False(t, s.Allows(TypeString))

	var untyped *Schema
	assert.True(t, untyped.Allows(TypeObject))
}

func TestSchema_FieldNames(t *testing.T) {
	s := loadContactSchema(t)
	assert.Equal(t,
		[]string{"address", "created_at", "id", "is_organization", "name", "tags", "value"},
		s.FieldNames())
}

func TestSchema_Clone(t *testing.T) {
	s := loadContactSchema(t)
	c := s.Clone()

	c.Properties["custom_fields"] = &Schema{Type: TypeList{"null", "object"}}
	c.Properties["address"].Properties["line2"] = &Schema{Type: TypeList{"null", "string"}}

	assert.NotContains(t, s.Properties, "custom_fields")
	assert.NotContains(t, s.Properties["address"].Properties, "line2")
}

func TestSchema_Conform(t *testing.T) {
	s := loadContactSchema(t)

	t.Run("absent fields become null", func(t *testing.T) {
		out, err := s.Conform("contacts", map[string]any{"id": json.Number("7")})
		require.NoError(t, err)

		assert.Len(t, out, len(s.Properties))
		assert.Equal(t, json.Number("7"), out["id"])
		assert.Contains(t, out, "name")
		assert.Nil(t, out["name"])
		assert.Nil(t, out["address"])
	})

	t.Run("undeclared fields are dropped", func(t *testing.T) {
		out, err := s.Conform("contacts", map[string]any{"id": 1.0, "shoe_size": 44.0})
		require.NoError(t, err)
		assert.NotContains(t, out, "shoe_size")
	})

	t.Run("nested address is filled out", func(t *testing.T) {
		out, err := s.Conform("contacts", map[string]any{
			"address": map[string]any{"city": "Lisbon", "extra": "x"},
		})
		require.NoError(t, err)

		addr, ok := out["address"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Lisbon", addr["city"])
		assert.Contains(t, addr, "line1")
		assert.Nil(t, addr["line1"])
		assert.NotContains(t, addr, "extra")
	})

	t.Run("union types accept either branch", func(t *testing.T) {
		_, err := s.Conform("contacts", map[string]any{"value": "1000.00"})
		require.NoError(t, err)
		_, err = s.Conform("contacts", map[string]any{"value": 1000.5})
		require.NoError(t, err)
	})

	t.Run("type mismatch fails the record", func(t *testing.T) {
		_, err := s.Conform("contacts", map[string]any{"is_organization": "yes"})
		require.Error(t, err)

		var mismatch *SchemaMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, "is_organization", mismatch.Field)
		assert.Equal(t, TypeString, mismatch.Got)
	})

	t.Run("array items are checked", func(t *testing.T) {
		_, err := s.Conform("contacts", map[string]any{"tags": []any{"vip", 3.0}})
		var mismatch *SchemaMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, "tags[1]", mismatch.Field)
	})

	t.Run("fractional value is not an integer", func(t *testing.T) {
		_, err := s.Conform("contacts", map[string]any{"id": 1.5})
		assert.True(t, errors.Is(err, ErrSchemaMismatch))
	})
}

func TestJSONTypeOf(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, TypeNull},
		{true, TypeBoolean},
		{"x", TypeString},
		{json.Number("12"), TypeInteger},
		{json.Number("1.25"), TypeNumber},
		{3.0, TypeInteger},
		{3.5, TypeNumber},
		{42, TypeInteger},
		{[]any{}, TypeArray},
		{map[string]any{}, TypeObject},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, JSONTypeOf(tt.in))
		})
	}
}

func TestSchema_Conform_AdditionalProperties(t *testing.T) {
	s := &Schema{Properties: map[string]*Schema{
		"data": {
			Type:                 TypeList{"null", "object"},
			AdditionalProperties: true,
			Properties: map[string]*Schema{
				"custom_fields": {Type: TypeList{"null", "object"}},
			},
		},
	}}

	out, err := s.Conform("events", map[string]any{
		"data": map[string]any{"id": json.Number("5"), "name": "Acme"},
	})
	require.NoError(t, err)

	data := out["data"].(map[string]any)
	assert.Equal(t, json.Number("5"), data["id"])
	assert.Equal(t, "Acme", data["name"])
	assert.Contains(t, data, "custom_fields")
	assert.Nil(t, data["custom_fields"])
}
