// Package cli provides the Cobra command tree of kimm and the dependency
// wiring behind it. This file defines the Dependencies struct (Composition
// Root) that builds the session, store, engine and backup manager once per
// process.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kim-interface/kimm/internal/backup"
	"github.com/kim-interface/kimm/internal/config"
	"github.com/kim-interface/kimm/internal/engine"
	"github.com/kim-interface/kimm/internal/export"
	"github.com/kim-interface/kimm/internal/logging"
	"github.com/kim-interface/kimm/internal/metrics"
	"github.com/kim-interface/kimm/internal/mirror"
	"github.com/kim-interface/kimm/internal/session"
	"github.com/kim-interface/kimm/internal/store"
	"github.com/kim-interface/kimm/internal/ui"
)

// Options are the global flags that shape the Dependencies.
type Options struct {
	Root           string
	User           string
	NoBackup       bool
	NonInteractive bool
	LogLevel       string
}

// Dependencies holds every service used by CLI commands.
// This is the Composition Root: the only place where concrete types
// are instantiated and wired together.
type Dependencies struct {
	Config   *config.ConfigManager
	Settings *config.Config
	Env      *session.Env
	Store    *store.Store
	Engine   *engine.Engine
	Backup   *backup.Manager
	Exporter *export.Exporter
	Metrics  *metrics.Recorder
	Logger   zerolog.Logger

	Theme    *ui.Theme
	Headless *ui.HeadlessManager
	Forms    *ui.Forms
	Progress ui.Progress

	closeLog func()
}

// deps is the global dependencies instance, initialized by the root
// command's PersistentPreRunE.
var deps *Dependencies

// @MX:ANCHOR: [AUTO] InitDependencies is the Composition Root that wires all domain modules
// @MX:REASON: [AUTO] every command except help and version runs behind it
// InitDependencies loads the settings of the environment at opts.Root and
// wires the services on top of them.
func InitDependencies(ctx context.Context, opts Options) (*Dependencies, error) {
	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	cm := config.NewConfigManager()
	cfg, err := cm.Load(root)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.User == "" {
		opts.User = cfg.User.Name
	}

	paths := session.NewPaths(root)
	logger, closeLog, err := logging.Setup(cfg.Logging, paths.Logs)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	env := session.New(root, opts.User, session.WithLogger(logger))
	rec := metrics.New()

	d := &Dependencies{
		Config:   cm,
		Settings: cfg,
		Env:      env,
		Store:    store.New(env),
		Metrics:  rec,
		Exporter: export.New(rec),
		Logger:   env.Logger,
		closeLog: closeLog,
	}
	d.Engine = engine.New(d.Store,
		engine.WithMetrics(rec),
		engine.WithDefaultMapping(cfg.Machine.SeedDefaultMapping),
	)

	backupOpts := []backup.Option{backup.WithRetention(cfg.Backup.Retention), backup.WithMetrics(rec)}
	mr, err := mirror.Open(ctx, mirrorConfig(cfg.Backup.Mirror))
	if err != nil {
		// Mirror problems never block commands.
		d.Logger.Warn().Err(err).Str("driver", cfg.Backup.Mirror.Driver).Msg("backup mirror disabled")
	} else if mr != nil {
		backupOpts = append(backupOpts, backup.WithMirror(mr))
	}
	d.Backup = backup.New(env, backupOpts...)

	d.Theme = ui.NewTheme(ui.ThemeConfig{NoColor: cfg.Logging.NoColor || os.Getenv("NO_COLOR") != ""})
	d.Headless = ui.NewHeadlessManager()
	if opts.NonInteractive {
		d.Headless.ForceHeadless(true)
	}
	d.Forms = ui.NewForms(d.Theme, d.Headless)
	d.Progress = ui.NewProgress(d.Theme, d.Headless)

	d.Logger.Debug().
		Str("root", root).
		Str("settings", cm.Path()).
		Int("retention", cfg.Backup.Retention).
		Msg("dependencies initialized")
	return d, nil
}

// Close writes the metrics textfile when configured and flushes the logs.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if path := d.Settings.Metrics.Textfile; path != "" {
		if err := d.Metrics.WriteTextfile(path); err != nil {
			d.Logger.Warn().Err(err).Str("path", path).Msg("write metrics textfile")
		}
	}
	if d.closeLog != nil {
		d.closeLog()
	}
}

// GetDeps returns the current Dependencies instance.
// Returns nil if no command has run yet.
func GetDeps() *Dependencies {
	return deps
}

// SetDeps replaces the global dependencies (used for testing).
func SetDeps(d *Dependencies) {
	deps = d
}

// resolveRoot picks the environment root: the flag, then KIMM_ROOT, then the
// working directory.
func resolveRoot(flag string) (string, error) {
	root := flag
	if root == "" {
		root = os.Getenv("KIMM_ROOT")
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", root, err)
	}
	return abs, nil
}

// mirrorConfig maps the settings section onto the mirror constructor.
// Static S3 keys are read from the environment only.
func mirrorConfig(c config.MirrorConfig) mirror.Config {
	return mirror.Config{
		Driver:          c.Driver,
		Bucket:          c.Bucket,
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		Prefix:          c.Prefix,
		PathStyle:       c.PathStyle,
		AccessKeyID:     os.Getenv("KIMM_MIRROR_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("KIMM_MIRROR_SECRET_ACCESS_KEY"),
		Dir:             c.Dir,
	}
}
