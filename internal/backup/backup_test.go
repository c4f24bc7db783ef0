package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kim-interface/kimm/internal/defs"
	"github.com/kim-interface/kimm/internal/metrics"
	"github.com/kim-interface/kimm/internal/mirror"
	"github.com/kim-interface/kimm/internal/session"
	"github.com/kim-interface/kimm/internal/store"
	"github.com/kim-interface/kimm/pkg/models"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newEnv(t *testing.T) (*session.Env, *store.Store, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2024, 3, 4, 10, 20, 30, 500000000, time.UTC)}
	env := session.New(t.TempDir(), "jdoe", session.WithClock(c.Now))
	st := store.New(env)
	_, err := st.Init(context.Background())
	require.NoError(t, err)
	return env, st, c
}

// touch saves the root document again so its timestamp moves to c.now.
func touch(t *testing.T, st *store.Store) {
	t.Helper()
	root, err := st.LoadRoot(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.SaveRoot(context.Background(), root, ""))
}

func writePast(t *testing.T, env *session.Env, name string, created time.Time) {
	t.Helper()
	dir := filepath.Join(env.Paths.Past, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.Marshal(marker{CreatedAt: created})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, defs.SnapshotJSON), data, 0o644))
}

func TestSnapshotName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"2024-03-04 10:20:30.500000 | jdoe", "2024-03-04 10.20.30"},
		{"2024-03-04 10:20:30", "2024-03-04 10.20.30"},
		{"2021-12-01 08:00:00.000001 | a | b", "2021-12-01 08.00.00"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SnapshotName(tt.in), tt.in)
	}
}

func TestRotateFirstRunCreatesLatest(t *testing.T) {
	t.Parallel()

	env, _, _ := newEnv(t)
	m := New(env)

	res, err := m.Rotate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Archived)
	assert.FileExists(t, filepath.Join(env.Paths.Latest, defs.RootJSON))
	assert.NoDirExists(t, env.Paths.Latest+".tmp")
}

func TestRotateIsIdempotent(t *testing.T) {
	t.Parallel()

	env, _, _ := newEnv(t)
	m := New(env)
	ctx := context.Background()

	_, err := m.Rotate(ctx)
	require.NoError(t, err)

	res, err := m.Rotate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04 10.20.30", res.Archived)

	res, err = m.Rotate(ctx)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Archived)

	snaps, err := m.List()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.FileExists(t, filepath.Join(snaps[0].Path, defs.RootJSON))
	assert.FileExists(t, filepath.Join(snaps[0].Path, defs.SnapshotJSON))
}

func TestRotateRespectsRetention(t *testing.T) {
	t.Parallel()

	env, st, c := newEnv(t)
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		writePast(t, env, fmt.Sprintf("old-%02d", i), base.Add(time.Duration(i)*time.Hour))
	}
	rec := metrics.New()
	m := New(env, WithMetrics(rec))
	ctx := context.Background()

	_, err := m.Rotate(ctx)
	require.NoError(t, err)
	c.now = c.now.Add(time.Minute)
	touch(t, st)

	res, err := m.Rotate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04 10.20.30", res.Archived)
	assert.Len(t, res.Pruned, 6)
	assert.Equal(t, "old-00", res.Pruned[0])
	assert.Equal(t, DefaultRetention, res.Retained)

	snaps, err := m.List()
	require.NoError(t, err)
	require.Len(t, snaps, DefaultRetention)
	assert.Equal(t, "old-06", snaps[0].Name)
	assert.Equal(t, "2024-03-04 10.20.30", snaps[len(snaps)-1].Name)

	expected := `
# HELP kimm_backup_snapshots Number of past snapshots retained
# TYPE kimm_backup_snapshots gauge
kimm_backup_snapshots 25
`
	assert.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "kimm_backup_snapshots"))
}

func TestRotateWithSmallRetention(t *testing.T) {
	t.Parallel()

	env, st, c := newEnv(t)
	m := New(env, WithRetention(2))
	ctx := context.Background()

	_, err := m.Rotate(ctx)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		c.now = c.now.Add(time.Minute)
		touch(t, st)
		_, err := m.Rotate(ctx)
		require.NoError(t, err)
	}

	snaps, err := m.List()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "2024-03-04 10.22.30", snaps[0].Name)
	assert.Equal(t, "2024-03-04 10.23.30", snaps[1].Name)
}

func TestRotateMirrorsNewSnapshot(t *testing.T) {
	t.Parallel()

	env, _, _ := newEnv(t)
	target := t.TempDir()
	mr, err := mirror.NewDir(target)
	require.NoError(t, err)
	m := New(env, WithMirror(mr))
	ctx := context.Background()

	_, err = m.Rotate(ctx)
	require.NoError(t, err)
	res, err := m.Rotate(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Mirrored)
	assert.FileExists(t, filepath.Join(target, res.Archived, defs.RootJSON))
}

func TestRestore(t *testing.T) {
	t.Parallel()

	env, st, c := newEnv(t)
	m := New(env)
	ctx := context.Background()

	root, err := st.LoadRoot(ctx)
	require.NoError(t, err)
	root.Models = append(root.Models, models.ModelSummary{Name: "AB1", BaseInformation: []string{}, Machines: []string{}})
	require.NoError(t, st.SaveRoot(ctx, root, "Add Model: AB1"))
	_, err = m.Rotate(ctx)
	require.NoError(t, err)

	c.now = c.now.Add(time.Minute)
	root.Models = nil
	require.NoError(t, st.SaveRoot(ctx, root, "Remove Model: AB1"))
	res, err := m.Rotate(ctx)
	require.NoError(t, err)
	name := res.Archived
	require.NotEmpty(t, name)

	require.NoError(t, m.Restore(ctx, name))

	restored, err := st.LoadRoot(ctx)
	require.NoError(t, err)
	require.Len(t, restored.Models, 1)
	assert.Equal(t, "AB1", restored.Models[0].Name)
	assert.NoFileExists(t, filepath.Join(env.Paths.Config, defs.SnapshotJSON))
	assert.NoDirExists(t, env.Paths.Config+".old")
}

func TestRestoreUnknown(t *testing.T) {
	t.Parallel()

	env, _, _ := newEnv(t)
	err := New(env).Restore(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	err = New(env).Restore(context.Background(), "../config")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
