package driven

import "github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"

// ConfigStore provides access to the tap configuration.
// Implementations handle persistence (e.g., JSON or TOML files) and decoding.
type ConfigStore interface {
	// Load reads, defaults and validates the configuration.
	Load() (*domain.Config, error)

	// Save persists cfg to storage.
	Save(cfg *domain.Config) error

	// Path returns the configuration file path.
	Path() string
}
