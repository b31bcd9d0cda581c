package zendesk

import (
	"context"
	"slices"
	"sort"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

// Custom field resource types.
const (
	resourceContact = "contact"
	resourceLead    = "lead"
	resourceDeal    = "deal"
)

// customFieldSchema maps a Sell custom field type to a nullable JSON schema.
// Unknown types are left untyped so any value passes conformance.
func customFieldSchema(fieldType string) *domain.Schema {
	nullable := func(t ...string) domain.TypeList {
		return append(domain.TypeList{domain.TypeNull}, t...)
	}
	switch fieldType {
	case "string", "text", "list", "phone", "email", "url":
		return &domain.Schema{Type: nullable(domain.TypeString)}
	case "number":
		// Sell returns numbers as strings for some accounts.
		return &domain.Schema{Type: nullable(domain.TypeNumber, domain.TypeString)}
	case "bool", "boolean":
		return &domain.Schema{Type: nullable(domain.TypeBoolean)}
	case "date":
		return &domain.Schema{Type: nullable(domain.TypeString), Format: "date"}
	case "datetime":
		return &domain.Schema{Type: nullable(domain.TypeString), Format: "date-time"}
	case "multi_select_list":
		return &domain.Schema{
			Type:  nullable(domain.TypeArray),
			Items: &domain.Schema{Type: domain.TypeList{domain.TypeString}},
		}
	case "address":
		return addressSchema()
	default:
		return &domain.Schema{}
	}
}

func addressSchema() *domain.Schema {
	str := func() *domain.Schema {
		return &domain.Schema{Type: domain.TypeList{domain.TypeNull, domain.TypeString}}
	}
	return &domain.Schema{
		Type: domain.TypeList{domain.TypeNull, domain.TypeObject},
		Properties: map[string]*domain.Schema{
			"line1":       str(),
			"city":        str(),
			"postal_code": str(),
			"state":       str(),
			"country":     str(),
		},
	}
}

// customFieldProperties fetches the custom fields of every resource and
// returns them as schema properties. A name defined by several resources
// admits the values of each of them. Resources without a custom fields
// endpoint (404) contribute nothing.
func (c *Connector) customFieldProperties(ctx context.Context, resources ...string) (map[string]*domain.Schema, error) {
	props := make(map[string]*domain.Schema)
	for _, resource := range resources {
		fields, err := c.client.CustomFields(ctx, resource)
		if IsNotFound(err) {
			logger.Debug("no custom fields endpoint for %s", resource)
			continue
		}
		if err != nil {
			return nil, err
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		for _, f := range fields {
			if f.Name == "" {
				continue
			}
			props[f.Name] = mergeFieldSchema(props[f.Name], customFieldSchema(f.Type))
		}
	}
	return props, nil
}

// mergeFieldSchema widens a to also admit every value b admits.
// An untyped side makes the result untyped.
func mergeFieldSchema(a, b *domain.Schema) *domain.Schema {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if len(a.Type) == 0 || len(b.Type) == 0 {
		return &domain.Schema{}
	}

	out := &domain.Schema{Type: append(domain.TypeList(nil), a.Type...)}
	for _, t := range b.Type {
		if !slices.Contains(out.Type, t) {
			out.Type = append(out.Type, t)
		}
	}
	if a.Format == b.Format {
		out.Format = a.Format
	}
	if a.Items != nil || b.Items != nil {
		out.Items = mergeFieldSchema(a.Items.Clone(), b.Items.Clone())
	}
	if a.Properties != nil || b.Properties != nil {
		out.Properties = make(map[string]*domain.Schema, len(a.Properties)+len(b.Properties))
		for name, p := range a.Properties {
			out.Properties[name] = p.Clone()
		}
		for name, p := range b.Properties {
			out.Properties[name] = mergeFieldSchema(out.Properties[name], p.Clone())
		}
	}
	return out
}

// applyCustomFields replaces the custom_fields property of schema (or of
// schema.data for events) with the discovered fields. Failure to discover
// keeps the static schema.
func (c *Connector) applyCustomFields(ctx context.Context, def *streamDef, schema *domain.Schema) {
	if !c.config.CustomFields || len(def.customFields) == 0 {
		return
	}
	props, err := c.customFieldProperties(ctx, def.customFields...)
	if err != nil {
		logger.Warn("stream %s: custom fields unavailable, using static schema: %v", def.name, err)
		return
	}
	if len(props) == 0 {
		return
	}

	target := schema
	if def.kind == kindEvents {
		target = schema.Properties["data"]
		if target == nil {
			return
		}
	}
	if target.Properties == nil {
		target.Properties = make(map[string]*domain.Schema)
	}
	target.Properties["custom_fields"] = &domain.Schema{
		Type:       domain.TypeList{domain.TypeNull, domain.TypeObject},
		Properties: props,
	}
	logger.Debug("stream %s: %d custom fields", def.name, len(props))
}
