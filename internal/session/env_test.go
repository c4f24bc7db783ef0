package session

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewPaths(t *testing.T) {
	t.Parallel()

	p := NewPaths("/srv/kim")
	want := map[string]string{
		"RootFile":   filepath.Join("/srv/kim", "config", "KIM_interface_configuration.json"),
		"Mappings":   filepath.Join("/srv/kim", "config", "mapping configurations"),
		"Changelog":  filepath.Join("/srv/kim", "logs", "changelog.txt"),
		"Latest":     filepath.Join("/srv/kim", "bin", "backups", "latest"),
		"Past":       filepath.Join("/srv/kim", "bin", "backups", "past"),
		"RuntimeLog": filepath.Join("/srv/kim", "logs", "runtime_log.txt"),
		"Results":    filepath.Join("/srv/kim", "results.txt"),
	}
	got := map[string]string{
		"RootFile":   p.RootFile,
		"Mappings":   p.Mappings,
		"Changelog":  p.Changelog,
		"Latest":     p.Latest,
		"Past":       p.Past,
		"RuntimeLog": p.RuntimeLog,
		"Results":    p.Results,
	}
	for k, w := range want {
		if got[k] != w {
			t.Errorf("%s: got %q, want %q", k, got[k], w)
		}
	}

	if mf := p.MachineFile("AB1", "AB1-Press"); mf != filepath.Join(p.Mappings, "AB1", "AB1-Press.json") {
		t.Errorf("MachineFile: got %q", mf)
	}
}

func TestEnvStamp(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.Local)
	env := New(t.TempDir(), "jdoe", WithClock(func() time.Time { return fixed }))

	if got, want := env.Stamp(), "2024-01-02 03:04:05.123456 | jdoe"; got != want {
		t.Errorf("Stamp: got %q, want %q", got, want)
	}
	if env.SessionID == "" {
		t.Error("SessionID should be set")
	}
}

func TestEnvDefaultUser(t *testing.T) {
	t.Setenv("USERNAME", "operator1")

	env := New(t.TempDir(), "")
	if env.User != "operator1" {
		t.Errorf("User: got %q, want %q", env.User, "operator1")
	}
}
