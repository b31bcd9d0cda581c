package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// Environment variables consulted when the file leaves a setting empty.
const (
	EnvAccessToken = "TAP_ZENDESK_SELL_ACCESS_TOKEN"
	EnvDeviceUUID  = "TAP_ZENDESK_SELL_DEVICE_UUID"
)

// DefaultFileName is the config file created by init-config.
const DefaultFileName = "config.toml"

// ConfigStore is a file-based implementation of driven.ConfigStore.
// The format follows the file extension: .toml files are TOML, anything
// else is JSON as Singer runners write it.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
	getenv   func(string) string
}

// NewConfigStore creates a config store for path.
// If path is empty, defaults to ~/.tap-zendesk-sell/config.toml.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".tap-zendesk-sell", DefaultFileName)
	}
	return &ConfigStore{
		filePath: path,
		getenv:   os.Getenv,
	}, nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Load reads the file, fills empty secrets from the environment, applies
// defaults and validates the result.
func (s *ConfigStore) Load() (*domain.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readMap()
	if err != nil {
		return nil, err
	}

	cfg, err := decode(raw)
	if err != nil {
		return nil, err
	}

	if cfg.AccessToken == "" {
		cfg.AccessToken = s.getenv(EnvAccessToken)
	}
	if cfg.DeviceUUID == "" {
		cfg.DeviceUUID = s.getenv(EnvDeviceUUID)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg in the file's format with restricted permissions.
func (s *ConfigStore) Save(cfg *domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		data []byte
		err  error
	)
	if s.isTOML() {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(s.filePath, data, 0600)
}

func (s *ConfigStore) isTOML() bool {
	return strings.EqualFold(filepath.Ext(s.filePath), ".toml")
}

// readMap decodes the file into a generic map. A missing file is an empty
// map so that a config made only of environment variables still loads.
func (s *ConfigStore) readMap() (map[string]any, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("config file %s not found, using environment", s.filePath)
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var loaded map[string]any
	if s.isTOML() {
		err = toml.Unmarshal(data, &loaded)
	} else {
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrConfigInvalid, s.filePath, err)
	}
	if loaded == nil {
		loaded = map[string]any{}
	}
	return loaded, nil
}

// decode maps the generic config map onto domain.Config. Values are
// weakly typed so "50" and 50 are both a valid per_page.
func decode(raw map[string]any) (*domain.Config, error) {
	var (
		cfg domain.Config
		md  mapstructure.Metadata
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Metadata:         &md,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigInvalid, err)
	}
	if len(md.Unused) > 0 {
		logger.Debug("ignoring unknown config keys: %s", strings.Join(md.Unused, ", "))
	}
	return &cfg, nil
}
