// Package session defines Env, the explicit context handed to the store, the
// mutation engine and the backup manager: resolved paths, the acting user,
// the clock and the logger. It is built once per process by the CLI.
package session

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kim-interface/kimm/internal/defs"
)

// TimestampLayout is the date part of every document timestamp.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// StampSeparator joins the fields of a timestamp and of a changelog line.
const StampSeparator = " | "

// Paths holds every location derived from the environment root.
type Paths struct {
	Root       string
	Config     string
	Mappings   string
	RootFile   string
	Logs       string
	Changelog  string
	RuntimeLog string
	Results    string
	Backups    string
	Latest     string
	Past       string
}

// NewPaths derives the layout below root.
func NewPaths(root string) Paths {
	root = filepath.Clean(root)
	cfg := filepath.Join(root, defs.ConfigDir)
	logs := filepath.Join(root, defs.LogsDir)
	backups := filepath.Join(root, filepath.FromSlash(defs.BackupsDir))
	return Paths{
		Root:       root,
		Config:     cfg,
		Mappings:   filepath.Join(cfg, defs.MappingsDir),
		RootFile:   filepath.Join(cfg, defs.RootJSON),
		Logs:       logs,
		Changelog:  filepath.Join(logs, defs.ChangelogTXT),
		RuntimeLog: filepath.Join(logs, defs.RuntimeLogTXT),
		Results:    filepath.Join(root, defs.ResultsTXT),
		Backups:    backups,
		Latest:     filepath.Join(backups, defs.LatestSlot),
		Past:       filepath.Join(backups, defs.PastSlot),
	}
}

// ModelDir is the directory holding a Model's machine documents.
func (p Paths) ModelDir(model string) string {
	return filepath.Join(p.Mappings, model)
}

// MachineFile is the path of a Machine's document.
func (p Paths) MachineFile(model, machine string) string {
	return filepath.Join(p.ModelDir(model), machine+defs.MachineExt)
}

// Env is the per-process context.
type Env struct {
	Paths     Paths
	User      string
	SessionID string
	Now       func() time.Time
	Logger    zerolog.Logger
}

// Option customizes an Env.
type Option func(*Env)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Env) { e.Now = now }
}

// WithLogger sets the logger; the session id is attached to it.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Env) { e.Logger = l }
}

// New builds an Env rooted at root acting as user. An empty user falls back
// to CurrentUser.
func New(root, userName string, opts ...Option) *Env {
	if strings.TrimSpace(userName) == "" {
		userName = CurrentUser()
	}
	e := &Env{
		Paths:     NewPaths(root),
		User:      userName,
		SessionID: uuid.NewString(),
		Now:       time.Now,
		Logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Logger = e.Logger.With().Str("session", e.SessionID).Str("user", e.User).Logger()
	return e
}

// Stamp returns the document timestamp "<date time> | <user>" for the current time.
func (e *Env) Stamp() string {
	return e.Now().Format(TimestampLayout) + StampSeparator + e.User
}

// CurrentUser returns the login name of the operator.
func CurrentUser() string {
	for _, key := range []string{"USERNAME", "USER", "LOGNAME"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
