package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kim-interface/kimm/internal/defs"
	"github.com/kim-interface/kimm/internal/fsutil"
	"github.com/kim-interface/kimm/pkg/models"
)

// CreateModelDir creates the directory of a new Model.
func (s *Store) CreateModelDir(ctx context.Context, model string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.env.Paths.ModelDir(model)
	if err := os.MkdirAll(dir, defs.DirPerm); err != nil {
		return storageErr("create model directory", dir, err)
	}
	return nil
}

// RenameModelDir moves the directory of a Model and renames every machine
// document inside whose name carries the old Model prefix. It returns the
// old to new machine names that were renamed.
func (s *Store) RenameModelDir(ctx context.Context, oldModel, newModel string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	from, to := s.env.Paths.ModelDir(oldModel), s.env.Paths.ModelDir(newModel)
	if fsutil.Exists(to) {
		return nil, storageErr("rename model directory", to, fs.ErrExist)
	}
	if !fsutil.Exists(from) {
		return nil, &ConsistencyError{Entity: "model", Name: oldModel, Detail: "model directory is missing: " + from, Err: fs.ErrNotExist}
	}
	if err := os.Rename(from, to); err != nil {
		return nil, storageErr("rename model directory", from, err)
	}

	entries, err := os.ReadDir(to)
	if err != nil {
		return nil, storageErr("list model directory", to, err)
	}
	renamed := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != defs.MachineExt {
			continue
		}
		machine := strings.TrimSuffix(e.Name(), defs.MachineExt)
		next := models.RenamePrefix(machine, oldModel, newModel)
		if next == machine {
			continue
		}
		if err := ctx.Err(); err != nil {
			return renamed, err
		}
		src := filepath.Join(to, e.Name())
		dst := filepath.Join(to, next+defs.MachineExt)
		if err := os.Rename(src, dst); err != nil {
			return renamed, storageErr("rename machine document", src, err)
		}
		renamed[machine] = next
	}
	return renamed, nil
}

// DeleteModelDir removes the directory of a Model and everything in it.
func (s *Store) DeleteModelDir(ctx context.Context, model string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.env.Paths.ModelDir(model)
	if err := os.RemoveAll(dir); err != nil {
		return storageErr("delete model directory", dir, err)
	}
	return nil
}

// CreateMachineFile writes the first version of a machine document. It fails
// with fs.ErrExist when the file is already present.
func (s *Store) CreateMachineFile(ctx context.Context, model, machine string, doc *models.MachineDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.env.Paths.MachineFile(model, machine)
	doc.Machine = machine
	doc.Timestamp = s.env.Stamp()
	data, err := models.Encode(doc)
	if err != nil {
		return storageErr("encode machine document", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, defs.FilePerm)
	if err != nil {
		return storageErr("create machine document", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return storageErr("write machine document", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return storageErr("write machine document", path, err)
	}
	return nil
}

// RenameMachineFile moves a machine document within its Model directory.
func (s *Store) RenameMachineFile(ctx context.Context, model, oldMachine, newMachine string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from := s.env.Paths.MachineFile(model, oldMachine)
	to := s.env.Paths.MachineFile(model, newMachine)
	if from == to {
		return nil
	}
	if fsutil.Exists(to) {
		return storageErr("rename machine document", to, fs.ErrExist)
	}
	if err := os.Rename(from, to); err != nil {
		return storageErr("rename machine document", from, err)
	}
	return nil
}

// DeleteMachineFile removes a machine document. A missing file is not an error.
func (s *Store) DeleteMachineFile(ctx context.Context, model, machine string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.env.Paths.MachineFile(model, machine)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return storageErr("delete machine document", path, err)
	}
	return nil
}

// MachineFileName returns the base name of a machine document.
func MachineFileName(machine string) string {
	return fmt.Sprintf("%s%s", machine, defs.MachineExt)
}
