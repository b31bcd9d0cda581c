package domain

import (
	"fmt"
	"net/url"
	"time"
)

// Configuration defaults.
const (
	DefaultAPIURL            = "https://api.getbase.com"
	DefaultPerPage           = 100
	MaxPerPage               = 100
	DefaultParallelStreams   = 1
	DefaultRequestTimeout    = 30
	DefaultRequestsPerSecond = 10
	DefaultMaxRetries        = 5
	DefaultUserAgent         = "tap-zendesk-sell"
)

// Config is the tap configuration as read from the --config file.
type Config struct {
	// AccessToken is the Zendesk Sell personal access token. Required.
	AccessToken string `mapstructure:"access_token" toml:"access_token" json:"access_token"`

	// DeviceUUID scopes the Sync API event stream. Generated when empty.
	DeviceUUID string `mapstructure:"device_uuid" toml:"device_uuid,omitempty" json:"device_uuid,omitempty"`

	APIURL                string   `mapstructure:"api_url" toml:"api_url,omitempty" json:"api_url,omitempty"`
	UserAgent             string   `mapstructure:"user_agent" toml:"user_agent,omitempty" json:"user_agent,omitempty"`
	PerPage               int      `mapstructure:"per_page" toml:"per_page,omitempty" json:"per_page,omitempty"`
	MaxParallelStreams    int      `mapstructure:"max_parallel_streams" toml:"max_parallel_streams,omitempty" json:"max_parallel_streams,omitempty"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds" toml:"request_timeout_seconds,omitempty" json:"request_timeout_seconds,omitempty"`
	RequestsPerSecond     float64  `mapstructure:"requests_per_second" toml:"requests_per_second,omitempty" json:"requests_per_second,omitempty"`
	MaxRetries            int      `mapstructure:"max_retries" toml:"max_retries,omitempty" json:"max_retries,omitempty"`
	CustomFields          *bool    `mapstructure:"custom_fields" toml:"custom_fields,omitempty" json:"custom_fields,omitempty"`
	Streams               []string `mapstructure:"streams" toml:"streams,omitempty" json:"streams,omitempty"`
}

// ApplyDefaults fills zero values with defaults and clamps out-of-range ones.
func (c *Config) ApplyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.PerPage <= 0 {
		c.PerPage = DefaultPerPage
	}
	if c.PerPage > MaxPerPage {
		c.PerPage = MaxPerPage
	}
	if c.MaxParallelStreams <= 0 {
		c.MaxParallelStreams = DefaultParallelStreams
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = DefaultRequestTimeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.CustomFields == nil {
		enabled := true
		c.CustomFields = &enabled
	}
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("%w: access_token is required", ErrConfigInvalid)
	}
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: api_url %q is not an absolute URL", ErrConfigInvalid, c.APIURL)
		}
	}
	return nil
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// CustomFieldsEnabled reports whether custom field discovery is on.
func (c *Config) CustomFieldsEnabled() bool {
	return c.CustomFields == nil || *c.CustomFields
}
