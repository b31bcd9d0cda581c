// Package schemas embeds the JSON schema declared for every stream.
package schemas

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

//go:embed *.json
var files embed.FS

// Load returns a fresh copy of the named stream's schema.
// Returns domain.ErrUnknownStream if no schema is embedded for name.
func Load(name string) (*domain.Schema, error) {
	data, err := files.ReadFile(name + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: no schema for %s", domain.ErrUnknownStream, name)
	}
	var s domain.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	return &s, nil
}
