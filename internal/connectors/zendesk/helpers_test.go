package zendesk

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/schemas"
)

// newTestServer starts a server for handler and returns a client against it.
func newTestServer(t *testing.T, handler http.Handler) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClientWithHTTPClient(srv.Client(), testConfig(srv.URL))
	return srv, client
}

// loadSchema loads an embedded stream schema.
func loadSchema(t *testing.T, name string) *domain.Schema {
	t.Helper()
	s, err := schemas.Load(name)
	require.NoError(t, err)
	return s
}

func testConfig(baseURL string) *Config {
	return &Config{
		AccessToken:  "test-token",
		BaseURL:      baseURL,
		UserAgent:    "tap-zendesk-sell/test",
		PerPage:      2,
		CustomFields: true,
	}
}

// writeJSON writes v as the response body.
func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// listBody renders a Sell collection response. next sets meta.links.next_page.
func listBody(next bool, items ...map[string]any) map[string]any {
	wrapped := make([]map[string]any, 0, len(items))
	for _, item := range items {
		wrapped = append(wrapped, map[string]any{"data": item, "meta": map[string]any{"type": "thing"}})
	}
	links := map[string]any{"self": "https://api.example/self"}
	if next {
		links["next_page"] = "https://api.example/next"
	}
	return map[string]any{
		"items": wrapped,
		"meta":  map[string]any{"type": "collection", "count": len(items), "links": links},
	}
}

// queueItem renders one Sync API queue item.
func queueItem(id int, resource, event, ack string) map[string]any {
	sync := map[string]any{"event_type": event, "revision": 7}
	if ack != "" {
		sync["ack_key"] = ack
	}
	return map[string]any{
		"data": map[string]any{"id": id, "name": "n", "custom_fields": map[string]any{"Tier": "gold"}},
		"meta": map[string]any{"type": resource, "sync": sync},
	}
}
