package config

import (
	"slices"
)

// Config is the root settings aggregate of one environment.
type Config struct {
	User      UserConfig      `yaml:"user"`
	Backup    BackupConfig    `yaml:"backup"`
	Machine   MachineConfig   `yaml:"machine"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	IReporter IReporterConfig `yaml:"ireporter"`
	Release   ReleaseConfig   `yaml:"release"`
}

// UserConfig names the operator recorded in timestamps and the changelog.
// An empty name falls back to the login name.
type UserConfig struct {
	Name string `yaml:"name"`
}

// BackupConfig represents the backup section.
type BackupConfig struct {
	Retention int          `yaml:"retention"`
	OnStart   bool         `yaml:"on_start"`
	Mirror    MirrorConfig `yaml:"mirror"`
}

// MirrorConfig selects where new past snapshots are copied.
// Credentials for the s3 driver come from the AWS environment.
type MirrorConfig struct {
	Driver    string `yaml:"driver"` // "none", "s3", "dir"
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
	Dir       string `yaml:"dir"`
}

// MachineConfig represents the machine section.
type MachineConfig struct {
	SeedDefaultMapping bool `yaml:"seed_default_mapping"`
}

// LoggingConfig represents the logging section.
type LoggingConfig struct {
	Level   string     `yaml:"level"`
	Format  string     `yaml:"format"` // "text", "json"
	File    string     `yaml:"file"`   // relative paths resolve under logs/; "-" is stderr
	NoColor bool       `yaml:"no_color"`
	Loki    LokiConfig `yaml:"loki"`
}

// LokiConfig enables shipping log lines to Grafana Loki when URL is set.
type LokiConfig struct {
	URL      string            `yaml:"url"`
	TenantID string            `yaml:"tenant_id"`
	Labels   map[string]string `yaml:"labels"`
}

// MetricsConfig represents the metrics section.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// IReporterConfig represents the ireporter section.
type IReporterConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ReleaseConfig carries the version shown by the release notes viewer.
type ReleaseConfig struct {
	Version     string `yaml:"version"`
	VersionDate string `yaml:"version_date"`
}

// sectionNames lists all valid section names.
var sectionNames = []string{
	"user", "backup", "machine", "logging", "metrics", "ireporter", "release",
}

// IsValidSectionName checks if the given name is a valid section name.
func IsValidSectionName(name string) bool {
	return slices.Contains(sectionNames, name)
}

// ValidSectionNames returns all valid section names.
func ValidSectionNames() []string {
	result := make([]string, len(sectionNames))
	copy(result, sectionNames)
	return result
}
