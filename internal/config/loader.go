package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader reads the settings file.
// It is thread-safe via sync.RWMutex.
type Loader struct {
	mu             sync.RWMutex
	loadedSections map[string]bool
}

// NewLoader creates a new Loader instance.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the settings file at path and returns a Config with defaults
// applied for every missing field. A missing file yields the defaults.
func (l *Loader) Load(path string) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loadedSections = make(map[string]bool)
	cfg := NewDefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var sections map[string]yaml.Node
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, ErrInvalidYAML)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, ErrInvalidYAML)
	}
	for name := range sections {
		if IsValidSectionName(name) {
			l.loadedSections[name] = true
		}
	}
	return cfg, nil
}

// LoadedSections returns a copy of the map indicating which sections
// were present in the settings file.
func (l *Loader) LoadedSections() map[string]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]bool, len(l.loadedSections))
	maps.Copy(result, l.loadedSections)
	return result
}
