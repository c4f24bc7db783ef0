// Package backup keeps the rolling copies of the configuration tree: one
// "latest" copy refreshed on every rotation and a capped set of "past"
// snapshots named after the root document timestamp they captured.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kim-interface/kimm/internal/defs"
	"github.com/kim-interface/kimm/internal/fsutil"
	"github.com/kim-interface/kimm/internal/metrics"
	"github.com/kim-interface/kimm/internal/mirror"
	"github.com/kim-interface/kimm/internal/session"
	"github.com/kim-interface/kimm/pkg/models"
)

// DefaultRetention is the number of past snapshots kept when none is configured.
const DefaultRetention = 25

// ErrNoSnapshot is returned by Restore for an unknown snapshot name.
var ErrNoSnapshot = errors.New("backup: no such snapshot")

// Snapshot is one entry of the past archive.
type Snapshot struct {
	Name    string
	Path    string
	Created time.Time
}

// Result describes what one rotation did.
type Result struct {
	Archived string   // past snapshot created from latest, if any
	Skipped  bool     // latest matched an existing snapshot and was discarded
	Pruned   []string // snapshots deleted to respect the retention cap
	Mirrored int      // files uploaded by the mirror
	Retained int
}

type marker struct {
	CreatedAt time.Time `json:"created_at"`
	Timestamp string    `json:"timestamp"`
	Session   string    `json:"session"`
}

// Manager rotates and restores backups of one environment.
type Manager struct {
	env       *session.Env
	retention int
	metrics   *metrics.Recorder
	mirror    mirror.Mirror
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRetention sets the past snapshot cap. Values below 1 keep the default.
func WithRetention(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retention = n
		}
	}
}

// WithMetrics records rotations on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Manager) { m.metrics = r }
}

// WithMirror uploads every new past snapshot through mr.
func WithMirror(mr mirror.Mirror) Option {
	return func(m *Manager) { m.mirror = mr }
}

// New creates a Manager.
func New(env *session.Env, opts ...Option) *Manager {
	m := &Manager{env: env, retention: DefaultRetention}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Retention returns the configured cap.
func (m *Manager) Retention() int { return m.retention }

// SnapshotName derives a directory name from a root document timestamp:
// the user part and the fraction of a second are dropped and colons become dots.
func SnapshotName(timestamp string) string {
	ts, _, _ := strings.Cut(timestamp, session.StampSeparator)
	ts, _, _ = strings.Cut(strings.TrimSpace(ts), ".")
	return strings.NewReplacer(":", ".", "/", "-", `\`, "-").Replace(ts)
}

// @MX:ANCHOR: [AUTO] Rotate is the only writer of bin/backups.
// @MX:REASON: [AUTO] runs at every session start and before a restore
// Rotate archives the current latest copy into past (unless a snapshot of
// the same timestamp exists), enforces the retention cap and copies the live
// configuration tree into latest.
func (m *Manager) Rotate(ctx context.Context) (res Result, err error) {
	log := m.env.Logger.With().Str("component", "backup").Logger()
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
			m.metrics.BackupRotation(result, -1)
			return
		}
		m.metrics.BackupRotation(result, res.Retained)
	}()

	paths := m.env.Paths
	for _, dir := range []string{paths.Backups, paths.Past} {
		if err := os.MkdirAll(dir, defs.DirPerm); err != nil {
			return res, fmt.Errorf("backup: create %s: %w", dir, err)
		}
	}

	if fsutil.Exists(paths.Latest) {
		if err := m.archiveLatest(ctx, &res); err != nil {
			return res, err
		}
	}

	if err := m.refreshLatest(ctx); err != nil {
		return res, err
	}

	snaps, err := m.List()
	if err != nil {
		return res, err
	}
	res.Retained = len(snaps)

	if res.Archived != "" && m.mirror != nil {
		n, err := m.mirror.Upload(ctx, res.Archived, filepath.Join(paths.Past, res.Archived))
		res.Mirrored = n
		if err != nil {
			log.Warn().Err(err).Str("driver", m.mirror.Driver()).Str("snapshot", res.Archived).Msg("mirror upload failed")
		} else {
			log.Info().Str("driver", m.mirror.Driver()).Str("snapshot", res.Archived).Int("files", n).Msg("snapshot mirrored")
		}
	}

	log.Debug().Str("archived", res.Archived).Bool("skipped", res.Skipped).
		Strs("pruned", res.Pruned).Int("retained", res.Retained).Msg("rotation done")
	return res, nil
}

// archiveLatest moves latest into past, or discards it when its snapshot
// already exists.
func (m *Manager) archiveLatest(ctx context.Context, res *Result) error {
	paths := m.env.Paths
	ts, err := latestTimestamp(filepath.Join(paths.Latest, defs.RootJSON))
	if err != nil {
		m.env.Logger.Warn().Err(err).Msg("latest backup has no readable root document, discarding it")
		return removeAll(paths.Latest)
	}
	name := SnapshotName(ts)
	if name == "" {
		info, err := os.Stat(paths.Latest)
		if err != nil {
			return fmt.Errorf("backup: stat latest: %w", err)
		}
		name = info.ModTime().Format("2006-01-02 15.04.05")
	}

	target := filepath.Join(paths.Past, name)
	if fsutil.Exists(target) {
		res.Skipped = true
		return removeAll(paths.Latest)
	}

	pruned, err := m.prune(ctx, m.retention-1)
	res.Pruned = pruned
	if err != nil {
		return err
	}

	if err := os.Rename(paths.Latest, target); err != nil {
		return fmt.Errorf("backup: archive latest as %s: %w", name, err)
	}
	data, err := json.MarshalIndent(marker{CreatedAt: m.env.Now().UTC(), Timestamp: ts, Session: m.env.SessionID}, "", "    ")
	if err != nil {
		return err
	}
	if err := fsutil.AtomicWrite(filepath.Join(target, defs.SnapshotJSON), data, defs.FilePerm); err != nil {
		return fmt.Errorf("backup: write marker: %w", err)
	}
	res.Archived = name
	return nil
}

// refreshLatest copies the live tree into latest.tmp and swaps it in.
func (m *Manager) refreshLatest(ctx context.Context) error {
	paths := m.env.Paths
	tmp := paths.Latest + ".tmp"
	if err := removeAll(tmp); err != nil {
		return err
	}
	if !fsutil.Exists(paths.Config) {
		return nil
	}
	if err := fsutil.CopyTree(ctx, paths.Config, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("backup: copy configuration: %w", err)
	}
	if err := removeAll(paths.Latest); err != nil {
		return err
	}
	if err := os.Rename(tmp, paths.Latest); err != nil {
		return fmt.Errorf("backup: install latest: %w", err)
	}
	return nil
}

// prune deletes the oldest snapshots until at most keep remain.
func (m *Manager) prune(ctx context.Context, keep int) ([]string, error) {
	snaps, err := m.List()
	if err != nil {
		return nil, err
	}
	var pruned []string
	for len(snaps) > keep && len(snaps) > 0 {
		if err := ctx.Err(); err != nil {
			return pruned, err
		}
		oldest := snaps[0]
		if err := removeAll(oldest.Path); err != nil {
			return pruned, err
		}
		m.env.Logger.Info().Str("snapshot", oldest.Name).Msg("pruned past backup")
		pruned = append(pruned, oldest.Name)
		snaps = snaps[1:]
	}
	return pruned, nil
}

// List returns the past snapshots, oldest first.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.env.Paths.Past)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("backup: list past: %w", err)
	}
	snaps := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(m.env.Paths.Past, e.Name())
		snaps = append(snaps, Snapshot{Name: e.Name(), Path: p, Created: createdAt(p, e)})
	}
	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].Created.Equal(snaps[j].Created) {
			return snaps[i].Name < snaps[j].Name
		}
		return snaps[i].Created.Before(snaps[j].Created)
	})
	return snaps, nil
}

// Restore replaces the live configuration tree with a past snapshot. The
// current tree is rotated into the archive first.
func (m *Manager) Restore(ctx context.Context, name string) error {
	paths := m.env.Paths
	src := filepath.Join(paths.Past, name)
	if name == "" || strings.ContainsAny(name, `/\`) || !fsutil.Exists(src) {
		return fmt.Errorf("%w: %q", ErrNoSnapshot, name)
	}

	// Stage first: the rotation below may prune the snapshot being restored.
	stage := filepath.Join(paths.Root, ".kimm-restore")
	if err := removeAll(stage); err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(stage) }()
	if err := fsutil.CopyTree(ctx, src, stage); err != nil {
		return fmt.Errorf("backup: stage %s: %w", name, err)
	}
	if err := removeAll(filepath.Join(stage, defs.SnapshotJSON)); err != nil {
		return err
	}

	if _, err := m.Rotate(ctx); err != nil {
		return err
	}

	old := paths.Config + ".old"
	if err := removeAll(old); err != nil {
		return err
	}
	if err := os.Rename(paths.Config, old); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("backup: set aside configuration: %w", err)
	}
	if err := os.Rename(stage, paths.Config); err != nil {
		_ = os.Rename(old, paths.Config)
		return fmt.Errorf("backup: install snapshot %s: %w", name, err)
	}
	m.env.Logger.Info().Str("snapshot", name).Msg("configuration restored")
	return removeAll(old)
}

func latestTimestamp(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	doc, err := models.DecodeRoot(data)
	if err != nil {
		return "", err
	}
	return doc.Timestamp, nil
}

func createdAt(dir string, e fs.DirEntry) time.Time {
	if data, err := os.ReadFile(filepath.Join(dir, defs.SnapshotJSON)); err == nil {
		var mk marker
		if json.Unmarshal(data, &mk) == nil && !mk.CreatedAt.IsZero() {
			return mk.CreatedAt
		}
	}
	if info, err := e.Info(); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}

func removeAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("backup: remove %s: %w", path, err)
	}
	return nil
}
