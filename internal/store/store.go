// Package store is the on-disk authority for the configuration catalogue: the
// root document, one document per Machine below a per-Model directory, and the
// changelog. Every document write is atomic and stamped with time and user.
package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kim-interface/kimm/internal/defs"
	"github.com/kim-interface/kimm/internal/fsutil"
	"github.com/kim-interface/kimm/internal/session"
	"github.com/kim-interface/kimm/pkg/models"
)

// Store reads and writes the configuration tree of one environment.
type Store struct {
	env *session.Env
}

// New creates a Store for env.
func New(env *session.Env) *Store {
	return &Store{env: env}
}

// Env returns the session environment of the store.
func (s *Store) Env() *session.Env {
	return s.env
}

// Init creates the directory tree, an empty root document and the changelog
// when they are missing. It reports whether a root document was created.
func (s *Store) Init(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p := s.env.Paths
	for _, dir := range []string{p.Mappings, p.Logs, p.Backups} {
		if err := os.MkdirAll(dir, defs.DirPerm); err != nil {
			return false, storageErr("create directory", dir, err)
		}
	}

	f, err := os.OpenFile(p.Changelog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, defs.FilePerm)
	if err != nil {
		return false, storageErr("create changelog", p.Changelog, err)
	}
	if err := f.Close(); err != nil {
		return false, storageErr("create changelog", p.Changelog, err)
	}

	if fsutil.Exists(p.RootFile) {
		return false, nil
	}
	if err := s.writeRoot(models.NewRootDocument()); err != nil {
		return false, err
	}
	s.env.Logger.Info().Str("path", p.RootFile).Msg("created empty root document")
	return true, nil
}

// LoadRoot reads the root document. A missing file is a StorageError
// wrapping fs.ErrNotExist.
func (s *Store) LoadRoot(ctx context.Context) (*models.RootDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.env.Paths.RootFile
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storageErr("read root document", path, err)
	}
	doc, err := models.DecodeRoot(data)
	if err != nil {
		return nil, storageErr("parse root document", path, err)
	}
	return doc, nil
}

// SaveRoot stamps and writes the root document with its headers and
// measurements repaired. A non-empty action appends one changelog line.
func (s *Store) SaveRoot(ctx context.Context, doc *models.RootDocument, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.writeRoot(doc); err != nil {
		return err
	}
	if action != "" {
		return s.Record(defs.RootJSON, action)
	}
	return nil
}

func (s *Store) writeRoot(doc *models.RootDocument) error {
	doc.Timestamp = s.env.Stamp()
	repairRoot(doc)
	data, err := models.Encode(doc)
	if err != nil {
		return storageErr("encode root document", s.env.Paths.RootFile, err)
	}
	if err := fsutil.AtomicWrite(s.env.Paths.RootFile, data, defs.FilePerm); err != nil {
		return storageErr("write root document", s.env.Paths.RootFile, err)
	}
	return nil
}

// LoadMachine reads the document of a Machine. A missing file is reported as
// a ConsistencyError wrapping fs.ErrNotExist.
func (s *Store) LoadMachine(ctx context.Context, model, machine string) (*models.MachineDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.env.Paths.MachineFile(model, machine)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ConsistencyError{
			Entity: "machine",
			Name:   models.MachineKey{Model: model, Machine: machine}.String(),
			Detail: "machine document is missing: " + path,
			Err:    err,
		}
	}
	if err != nil {
		return nil, storageErr("read machine document", path, err)
	}
	doc, err := models.DecodeMachine(data)
	if err != nil {
		return nil, storageErr("parse machine document", path, err)
	}
	return doc, nil
}

// SaveMachine stamps and writes a machine document, repairing every mapped
// item first. A non-empty action marks a
// standalone edit: the root document is restamped so the next backup rotation
// sees the change, and one changelog line naming the machine file is appended.
// Cascade writes pass an empty action; their plan saves the root itself.
func (s *Store) SaveMachine(ctx context.Context, model, machine string, doc *models.MachineDocument, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.env.Paths.MachineFile(model, machine)
	doc.Machine = machine
	doc.Timestamp = s.env.Stamp()
	RepairMappings(doc.Mappings)
	data, err := models.Encode(doc)
	if err != nil {
		return storageErr("encode machine document", path, err)
	}
	if err := fsutil.AtomicWrite(path, data, defs.FilePerm); err != nil {
		return storageErr("write machine document", path, err)
	}
	if action == "" {
		return nil
	}
	if err := s.touchRoot(ctx); err != nil {
		return err
	}
	return s.Record(filepath.Base(path), action)
}

func (s *Store) touchRoot(ctx context.Context) error {
	root, err := s.LoadRoot(ctx)
	if err != nil {
		return err
	}
	return s.writeRoot(root)
}

// LoadCatalogue assembles the full hierarchy with mis-decoded text repaired.
// Machines whose document is missing are logged and assembled without
// mapping configurations.
func (s *Store) LoadCatalogue(ctx context.Context) (models.Catalogue, error) {
	root, err := s.LoadRoot(ctx)
	if err != nil {
		return models.Catalogue{}, err
	}
	docs := make(map[models.MachineKey]*models.MachineDocument)
	for _, m := range root.Models {
		for _, name := range m.Machines {
			doc, err := s.LoadMachine(ctx, m.Name, name)
			var ce *ConsistencyError
			if errors.As(err, &ce) {
				s.env.Logger.Warn().Str("model", m.Name).Str("machine", name).Msg(ce.Detail)
				continue
			}
			if err != nil {
				return models.Catalogue{}, err
			}
			docs[models.MachineKey{Model: m.Name, Machine: name}] = doc
		}
	}
	cat := models.Assemble(root, docs)
	repairCatalogue(&cat)
	return cat, nil
}
