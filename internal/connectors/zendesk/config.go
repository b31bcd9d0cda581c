package zendesk

import (
	"strings"
	"time"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// Config holds the connector settings derived from the tap configuration.
type Config struct {
	// AccessToken authenticates every request.
	AccessToken string

	// BaseURL is the API root, without trailing slash.
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// PerPage is the list page size (1..100).
	PerPage int

	// RequestsPerSecond is the proactive throttle.
	RequestsPerSecond float64

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// CustomFields enables custom field discovery.
	CustomFields bool
}

// ParseConfig derives the connector config from the tap configuration.
// cfg is expected to have had defaults applied.
func ParseConfig(cfg *domain.Config) *Config {
	return &Config{
		AccessToken:       cfg.AccessToken,
		BaseURL:           strings.TrimRight(cfg.APIURL, "/"),
		UserAgent:         cfg.UserAgent,
		PerPage:           cfg.PerPage,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           cfg.RequestTimeout(),
		CustomFields:      cfg.CustomFieldsEnabled(),
	}
}
