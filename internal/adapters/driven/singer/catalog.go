package singer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// Metadata inclusion values.
const (
	InclusionAvailable = "available"
	InclusionAutomatic = "automatic"
)

// Catalog is the Singer catalog printed by --discover and read by --catalog.
type Catalog struct {
	Streams []CatalogEntry `json:"streams"`
}

// CatalogEntry describes one stream.
type CatalogEntry struct {
	TapStreamID   string          `json:"tap_stream_id"`
	Stream        string          `json:"stream"`
	Schema        *domain.Schema  `json:"schema"`
	KeyProperties []string        `json:"key_properties"`
	Metadata      []MetadataEntry `json:"metadata"`
}

// MetadataEntry is metadata for the stream (empty breadcrumb) or one property.
type MetadataEntry struct {
	Breadcrumb []string       `json:"breadcrumb"`
	Metadata   map[string]any `json:"metadata"`
}

// NewCatalog builds a catalog in which every stream is selected.
func NewCatalog(streams []domain.Stream) *Catalog {
	c := &Catalog{Streams: make([]CatalogEntry, 0, len(streams))}
	for _, s := range streams {
		c.Streams = append(c.Streams, newEntry(s))
	}
	return c
}

func newEntry(s domain.Stream) CatalogEntry {
	keys := append([]string{}, s.KeyProperties...)

	root := map[string]any{
		"selected":                  true,
		"inclusion":                 InclusionAvailable,
		"forced-replication-method": string(s.Replication),
		"table-key-properties":      keys,
	}
	if s.Parent != "" {
		root["parent-tap-stream-id"] = s.Parent
	}

	entry := CatalogEntry{
		TapStreamID:   s.Name,
		Stream:        s.Name,
		Schema:        s.Schema,
		KeyProperties: keys,
		Metadata:      []MetadataEntry{{Breadcrumb: []string{}, Metadata: root}},
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	for _, name := range s.Schema.FieldNames() {
		inclusion := InclusionAvailable
		if isKey[name] {
			inclusion = InclusionAutomatic
		}
		entry.Metadata = append(entry.Metadata, MetadataEntry{
			Breadcrumb: []string{"properties", name},
			Metadata:   map[string]any{"inclusion": inclusion},
		})
	}
	return entry
}

// Selected returns the names of streams whose root metadata is selected,
// in catalog order.
func (c *Catalog) Selected() []string {
	var names []string
	for _, e := range c.Streams {
		if e.selected() {
			names = append(names, e.TapStreamID)
		}
	}
	return names
}

func (e *CatalogEntry) selected() bool {
	for _, m := range e.Metadata {
		if len(m.Breadcrumb) != 0 {
			continue
		}
		sel, ok := m.Metadata["selected"].(bool)
		return ok && sel
	}
	return false
}

// Write prints the catalog as indented JSON.
func (c *Catalog) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// ReadCatalog decodes a catalog.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: catalog: %w", domain.ErrInvalidInput, err)
	}
	for i := range c.Streams {
		if c.Streams[i].TapStreamID == "" {
			c.Streams[i].TapStreamID = c.Streams[i].Stream
		}
	}
	return &c, nil
}

// LoadCatalogFile reads the catalog at path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadCatalog(f)
}
