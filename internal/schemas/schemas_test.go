package schemas

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// embeddedNames returns the embedded schema names in lexical order.
func embeddedNames(t *testing.T) []string {
	t.Helper()
	entries, err := fs.ReadDir(files, ".")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if ext := path.Ext(e.Name()); ext == ".json" {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	sort.Strings(names)
	return names
}

func mustLoad(t *testing.T, name string) *domain.Schema {
	t.Helper()
	s, err := Load(name)
	require.NoError(t, err)
	return s
}

func TestEmbeddedNames(t *testing.T) {
	names := embeddedNames(t)
	assert.Len(t, names, 23)
	assert.Contains(t, names, "events")
	assert.Contains(t, names, "line_items")
	assert.Equal(t, "accounts", names[0])
}

func TestLoad_AllSchemasParse(t *testing.T) {
	for _, name := range embeddedNames(t) {
		t.Run(name, func(t *testing.T) {
			s, err := Load(name)
			require.NoError(t, err)
			assert.True(t, s.Allows(domain.TypeObject))
			assert.NotEmpty(t, s.Properties)

			// Every top-level field is nullable.
			for field, prop := range s.Properties {
				assert.True(t, prop.Allows(domain.TypeNull), "%s.%s must be nullable", name, field)
			}
		})
	}
}

func TestLoad_AddressShape(t *testing.T) {
	s, err := Load("contacts")
	require.NoError(t, err)

	for _, field := range []string{"address", "billing_address", "shipping_address"} {
		addr := s.Properties[field]
		require.NotNil(t, addr, field)
		assert.Equal(t, []string{"city", "country", "line1", "postal_code", "state"}, addr.FieldNames())
	}
}

func TestLoad_ReturnsIndependentCopies(t *testing.T) {
	a := mustLoad(t, "deals")
	a.Properties["custom_fields"].Properties = map[string]*domain.Schema{"Region": {}}

	b := mustLoad(t, "deals")
	assert.Empty(t, b.Properties["custom_fields"].Properties)
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("widgets")
	assert.ErrorIs(t, err, domain.ErrUnknownStream)
}
