package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kim-interface/kimm/internal/defs"
	"github.com/kim-interface/kimm/internal/textfix"
	"github.com/kim-interface/kimm/pkg/models"
)

// Audit compares the root document with the mapping configuration tree and
// returns every disagreement it finds. It never modifies anything.
func (s *Store) Audit(ctx context.Context) ([]*ConsistencyError, error) {
	root, err := s.LoadRoot(ctx)
	if err != nil {
		return nil, err
	}

	var problems []*ConsistencyError
	report := func(entity, name, format string, args ...any) {
		problems = append(problems, &ConsistencyError{Entity: entity, Name: name, Detail: fmt.Sprintf(format, args...)})
	}

	listed := make(map[models.MachineKey]bool)
	for _, m := range root.Models {
		for _, name := range m.Machines {
			key := models.MachineKey{Model: m.Name, Machine: name}
			listed[key] = true

			sum, _, ok := root.Machine(m.Name, name)
			if !ok {
				report("machine", key.String(), "listed by its model but has no machine summary")
			}
			if !models.HasPrefix(name, m.Name) {
				report("machine", key.String(), "name does not start with the model prefix %s", m.Name)
			}

			doc, err := s.LoadMachine(ctx, m.Name, name)
			var ce *ConsistencyError
			switch {
			case errors.As(err, &ce):
				problems = append(problems, ce)
				continue
			case err != nil:
				return problems, err
			}
			if doc.Machine != name {
				report("machine", key.String(), "document names machine %q", doc.Machine)
			}
			available := models.AvailableItems(m.BaseInformation, sum.Measurements)
			for _, c := range doc.Mappings {
				for _, fm := range c.Configuration {
					if !containsRepaired(available, fm.Item) {
						report("mapping", key.String()+"#"+c.ID, "field %q is no longer a header or measurement", fm.Item)
					}
				}
			}
		}
	}

	for _, sum := range root.Machines {
		owner := sum.Model
		if owner == "" {
			continue
		}
		if !listed[models.MachineKey{Model: owner, Machine: sum.Name}] {
			report("machine", models.MachineKey{Model: owner, Machine: sum.Name}.String(), "summary is not listed by its model")
		}
	}

	entries, err := os.ReadDir(s.env.Paths.Mappings)
	if err != nil && !os.IsNotExist(err) {
		return problems, storageErr("list mapping configurations", s.env.Paths.Mappings, err)
	}
	for _, dir := range entries {
		if !dir.IsDir() {
			continue
		}
		if _, _, ok := root.Model(dir.Name()); !ok {
			report("model", dir.Name(), "directory has no model in the root document")
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.env.Paths.Mappings, dir.Name()))
		if err != nil {
			return problems, storageErr("list model directory", dir.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != defs.MachineExt {
				continue
			}
			key := models.MachineKey{Model: dir.Name(), Machine: strings.TrimSuffix(f.Name(), defs.MachineExt)}
			if !listed[key] {
				report("machine", key.String(), "orphan machine document")
			}
		}
	}

	return problems, nil
}

func containsRepaired(values []string, item string) bool {
	want := textfix.Repair(item)
	return slices.ContainsFunc(values, func(v string) bool { return textfix.Repair(v) == want })
}
