package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kim-interface/kimm/internal/defs"
	"github.com/kim-interface/kimm/internal/fsutil"
)

// managerState represents the lifecycle state of the ConfigManager.
type managerState int

const (
	stateUninitialized managerState = iota
	stateInitialized
)

// @MX:ANCHOR: [AUTO] ConfigManager is the single entry point to the environment settings; use it only after Load().
// @MX:REASON: [AUTO] the CLI composition root, logging setup and backup wiring all read from it
// ConfigManager provides thread-safe settings management.
// It must be initialized via Load() before use.
type ConfigManager struct {
	mu             sync.RWMutex
	config         *Config
	path           string
	state          managerState
	loader         *Loader
	loadedSections map[string]bool
}

// NewConfigManager creates a new ConfigManager instance in uninitialized state.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		loader: NewLoader(),
		state:  stateUninitialized,
	}
}

// SettingsPath returns the settings file of the environment rooted at root.
// KIMM_CONFIG overrides it.
func SettingsPath(root string) string {
	if p := os.Getenv("KIMM_CONFIG"); p != "" {
		return filepath.Clean(p)
	}
	return filepath.Join(filepath.Clean(root), defs.SettingsYAML)
}

// @MX:NOTE: [AUTO] file values over compiled defaults, KIMM_* environment variables over both.
// Load reads kimm.yaml from the environment root. It merges file values with
// compiled defaults and applies environment variable overrides. The settings
// are validated before being stored.
func (m *ConfigManager) Load(root string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := SettingsPath(root)
	cfg, err := m.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	m.loadedSections = m.loader.LoadedSections()

	// Environment variables have higher priority than the file.
	applyEnvOverrides(cfg)

	if err := Validate(cfg, m.loadedSections); err != nil {
		return nil, err
	}

	m.config = cfg
	m.path = path
	m.state = stateInitialized

	return cfg, nil
}

// Get returns the current in-memory settings.
// Returns nil if the manager has not been initialized via Load().
func (m *ConfigManager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Path returns the settings file location resolved by Load.
func (m *ConfigManager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// LoadedSections reports which sections were present in the file.
func (m *ConfigManager) LoadedSections() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.loadedSections))
	for k, v := range m.loadedSections {
		out[k] = v
	}
	return out
}

// GetSection returns a named settings section.
// Returns ErrNotInitialized if Load() has not been called.
// Returns ErrSectionNotFound if the section name is invalid.
func (m *ConfigManager) GetSection(name string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == stateUninitialized {
		return nil, ErrNotInitialized
	}

	switch name {
	case "user":
		return m.config.User, nil
	case "backup":
		return m.config.Backup, nil
	case "machine":
		return m.config.Machine, nil
	case "logging":
		return m.config.Logging, nil
	case "metrics":
		return m.config.Metrics, nil
	case "ireporter":
		return m.config.IReporter, nil
	case "release":
		return m.config.Release, nil
	default:
		return nil, ErrSectionNotFound
	}
}

// Save persists the current settings atomically.
// Returns ErrNotInitialized if Load() has not been called.
func (m *ConfigManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), defs.DirPerm); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	return fsutil.AtomicWrite(m.path, data, defs.FilePerm)
}

// applyEnvOverrides applies environment variable overrides to the settings.
// Environment variables have higher priority than file-based values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KIMM_USER"); v != "" {
		cfg.User.Name = v
	}
	if v := os.Getenv("KIMM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("KIMM_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("KIMM_NO_COLOR"); v == "true" || v == "1" {
		cfg.Logging.NoColor = true
	}
	if v := os.Getenv("KIMM_LOKI_URL"); v != "" {
		cfg.Logging.Loki.URL = v
	}
	if v := os.Getenv("KIMM_BACKUP_RETENTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backup.Retention = n
		}
	}
	if v := os.Getenv("KIMM_BACKUP_ON_START"); v != "" {
		cfg.Backup.OnStart = !strings.EqualFold(v, "false") && v != "0"
	}
	if v := os.Getenv("KIMM_MIRROR_DRIVER"); v != "" {
		cfg.Backup.Mirror.Driver = v
	}
	if v := os.Getenv("KIMM_MIRROR_BUCKET"); v != "" {
		cfg.Backup.Mirror.Bucket = v
	}
	if v := os.Getenv("KIMM_MIRROR_ENDPOINT"); v != "" {
		cfg.Backup.Mirror.Endpoint = v
	}
	if v := os.Getenv("KIMM_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("KIMM_IREPORTER_URL"); v != "" {
		cfg.IReporter.BaseURL = v
	}
}
