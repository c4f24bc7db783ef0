package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kim-interface/kimm/internal/defs"
)

// setupManagerTestDir creates an environment root holding kimm.yaml with the
// given content. An empty content leaves the file out.
func setupManagerTestDir(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	if content == "" {
		return root
	}
	if err := os.WriteFile(filepath.Join(root, defs.SettingsYAML), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	return root
}

const validSettings = `
user:
  name: jdoe
backup:
  retention: 10
  on_start: false
  mirror:
    driver: dir
    dir: /mnt/share/kim
machine:
  seed_default_mapping: true
logging:
  level: debug
  format: json
  loki:
    url: http://loki.local:3100
    labels:
      site: plant-7
ireporter:
  base_url: https://reporter.local/api/v1/getvalue/KIM_Interface
`

func TestNewConfigManager(t *testing.T) {
	t.Parallel()

	m := NewConfigManager()
	if m == nil {
		t.Fatal("NewConfigManager() returned nil")
	}
	if m.loader == nil {
		t.Error("NewConfigManager() should initialize loader")
	}
	if m.state != stateUninitialized {
		t.Errorf("expected state %d (uninitialized), got %d", stateUninitialized, m.state)
	}
	if m.Get() != nil {
		t.Error("Get() before Load() should return nil")
	}
}

func TestConfigManagerLoadValid(t *testing.T) {
	t.Parallel()

	root := setupManagerTestDir(t, validSettings)
	m := NewConfigManager()

	cfg, err := m.Load(root)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.User.Name != "jdoe" {
		t.Errorf("User.Name: got %q, want %q", cfg.User.Name, "jdoe")
	}
	if cfg.Backup.Retention != 10 {
		t.Errorf("Backup.Retention: got %d, want 10", cfg.Backup.Retention)
	}
	if cfg.Backup.OnStart {
		t.Error("Backup.OnStart: got true, want false")
	}
	if cfg.Backup.Mirror.Driver != "dir" || cfg.Backup.Mirror.Dir != "/mnt/share/kim" {
		t.Errorf("Backup.Mirror: got %+v", cfg.Backup.Mirror)
	}
	if !cfg.Machine.SeedDefaultMapping {
		t.Error("Machine.SeedDefaultMapping: got false, want true")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want json", cfg.Logging.Format)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Logging.File != DefaultLogFile {
		t.Errorf("Logging.File: got %q, want %q", cfg.Logging.File, DefaultLogFile)
	}
	if cfg.Logging.Loki.Labels["site"] != "plant-7" {
		t.Errorf("Loki label site: got %q", cfg.Logging.Loki.Labels["site"])
	}

	loaded := m.LoadedSections()
	for _, name := range []string{"user", "backup", "machine", "logging", "ireporter"} {
		if !loaded[name] {
			t.Errorf("section %q should be marked loaded", name)
		}
	}
	if loaded["metrics"] {
		t.Error("section metrics was not in the file")
	}
	if m.Path() != filepath.Join(root, defs.SettingsYAML) {
		t.Errorf("Path(): got %q", m.Path())
	}
}

func TestConfigManagerLoadDefaults(t *testing.T) {
	t.Parallel()

	root := setupManagerTestDir(t, "")
	m := NewConfigManager()

	cfg, err := m.Load(root)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backup.Retention != DefaultRetention {
		t.Errorf("Backup.Retention: got %d, want %d", cfg.Backup.Retention, DefaultRetention)
	}
	if len(m.LoadedSections()) != 0 {
		t.Errorf("no sections should be loaded, got %v", m.LoadedSections())
	}
}

func TestConfigManagerLoadInvalidYAML(t *testing.T) {
	t.Parallel()

	root := setupManagerTestDir(t, "backup: [retention: 3\n")
	_, err := NewConfigManager().Load(root)
	if !errors.Is(err, ErrInvalidYAML) {
		t.Fatalf("expected ErrInvalidYAML, got %v", err)
	}
}

func TestConfigManagerLoadInvalidValues(t *testing.T) {
	t.Parallel()

	root := setupManagerTestDir(t, "backup:\n  retention: 0\n  mirror:\n    driver: s3\n")
	_, err := NewConfigManager().Load(root)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if !errors.Is(err, ErrInvalidMirror) {
		t.Errorf("expected ErrInvalidMirror, got %v", err)
	}
	var ve *ValidationErrors
	if !errors.As(err, &ve) || len(ve.Errors) != 2 {
		t.Errorf("expected 2 validation errors, got %v", err)
	}
}

func TestConfigManagerEnvOverrides(t *testing.T) {
	root := setupManagerTestDir(t, validSettings)
	t.Setenv("KIMM_USER", "operator2")
	t.Setenv("KIMM_LOG_LEVEL", "warn")
	t.Setenv("KIMM_NO_COLOR", "1")
	t.Setenv("KIMM_BACKUP_RETENTION", "3")
	t.Setenv("KIMM_BACKUP_ON_START", "true")
	t.Setenv("KIMM_METRICS_TEXTFILE", "/var/lib/node_exporter/kimm.prom")

	cfg, err := NewConfigManager().Load(root)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.User.Name != "operator2" {
		t.Errorf("User.Name: got %q, want operator2", cfg.User.Name)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want warn", cfg.Logging.Level)
	}
	if !cfg.Logging.NoColor {
		t.Error("Logging.NoColor should be true")
	}
	if cfg.Backup.Retention != 3 {
		t.Errorf("Backup.Retention: got %d, want 3", cfg.Backup.Retention)
	}
	if !cfg.Backup.OnStart {
		t.Error("Backup.OnStart should be true")
	}
	if cfg.Metrics.Textfile != "/var/lib/node_exporter/kimm.prom" {
		t.Errorf("Metrics.Textfile: got %q", cfg.Metrics.Textfile)
	}
}

func TestConfigManagerSettingsPathOverride(t *testing.T) {
	other := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(other, []byte("user:\n  name: from-override\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KIMM_CONFIG", other)

	m := NewConfigManager()
	cfg, err := m.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.User.Name != "from-override" {
		t.Errorf("User.Name: got %q", cfg.User.Name)
	}
	if m.Path() != other {
		t.Errorf("Path(): got %q, want %q", m.Path(), other)
	}
}

func TestConfigManagerGetSection(t *testing.T) {
	t.Parallel()

	m := NewConfigManager()
	if _, err := m.GetSection("user"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}

	if _, err := m.Load(setupManagerTestDir(t, validSettings)); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	for _, name := range ValidSectionNames() {
		if _, err := m.GetSection(name); err != nil {
			t.Errorf("GetSection(%q) error: %v", name, err)
		}
	}
	sec, _ := m.GetSection("backup")
	if b, ok := sec.(BackupConfig); !ok || b.Retention != 10 {
		t.Errorf("GetSection(backup): got %#v", sec)
	}
	if _, err := m.GetSection("llm"); !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestConfigManagerSaveRoundTrip(t *testing.T) {
	t.Parallel()

	if err := NewConfigManager().Save(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Save() before Load(): expected ErrNotInitialized, got %v", err)
	}

	root := setupManagerTestDir(t, "")
	m := NewConfigManager()
	cfg, err := m.Load(root)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	cfg.User.Name = "saved-user"
	cfg.Backup.Retention = 7
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	again, err := NewConfigManager().Load(root)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if again.User.Name != "saved-user" || again.Backup.Retention != 7 {
		t.Errorf("round trip lost values: %+v", again)
	}
}
