package singer

import (
	"encoding/json"
	"fmt"
	"io"
)

// About describes the tap for --about.
type About struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Version        string         `json:"version"`
	Capabilities   []string       `json:"capabilities"`
	SettingsSchema map[string]any `json:"settings_schema"`
}

// Capabilities advertised by the tap.
var Capabilities = []string{"catalog", "discover", "state", "about"}

// NewAbout returns the description of the tap at version.
func NewAbout(name, version string) *About {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	integer := func(desc string, def int) map[string]any {
		return map[string]any{"type": "integer", "description": desc, "default": def}
	}
	return &About{
		Name:         name,
		Description:  "Singer tap extracting Zendesk Sell CRM data",
		Version:      version,
		Capabilities: append([]string(nil), Capabilities...),
		SettingsSchema: map[string]any{
			"type":     "object",
			"required": []string{"access_token"},
			"properties": map[string]any{
				"access_token": map[string]any{
					"type": "string", "description": "Zendesk Sell OAuth access token", "secret": true,
				},
				"device_uuid":             str("Sync API device identifier; generated when absent"),
				"api_url":                 str("API root URL"),
				"user_agent":              str("User-Agent header"),
				"per_page":                integer("Page size of list requests (max 100)", 100),
				"max_parallel_streams":    integer("Streams read concurrently", 1),
				"request_timeout_seconds": integer("HTTP request timeout", 30),
				"requests_per_second": map[string]any{
					"type": "number", "description": "Proactive request throttle", "default": 10,
				},
				"max_retries": integer("Attempts per request on transient failures", 5),
				"custom_fields": map[string]any{
					"type": "boolean", "description": "Discover custom fields into schemas", "default": true,
				},
				"streams": map[string]any{
					"type": "array", "items": map[string]any{"type": "string"},
					"description": "Streams to sync when no catalog is given",
				},
			},
		},
	}
}

// Write prints the description as indented JSON.
func (a *About) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("write about: %w", err)
	}
	return nil
}
