package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kim-interface/kimm/internal/validate"
	"github.com/kim-interface/kimm/pkg/models"
)

// AddModel creates a Model with the given name and base-information headers.
// Blank header entries are skipped.
func (e *Engine) AddModel(ctx context.Context, name string, baseInformation []string) (_ models.Model, err error) {
	defer e.observe("model", "add", time.Now(), &err)

	root, err := e.store.LoadRoot(ctx)
	if err != nil {
		return models.Model{}, err
	}
	name, err = validate.ModelName(name, models.Keys(root.Models), "")
	if err != nil {
		return models.Model{}, err
	}
	info, err := validate.FreeText(validate.Headers, baseInformation)
	if err != nil {
		return models.Model{}, err
	}

	next := root.Clone()
	next.Models = append(next.Models, models.ModelSummary{Name: name, BaseInformation: info, Machines: []string{}})

	plan := newPlan("model", "add")
	plan.add("create model directory "+name, func(ctx context.Context) error {
		return e.store.CreateModelDir(ctx, name)
	})
	plan.add("save root document", func(ctx context.Context) error {
		return e.store.SaveRoot(ctx, next, "Add Model: "+name)
	})
	if err := plan.Apply(ctx); err != nil {
		return models.Model{}, err
	}
	return e.assembled(ctx, next, name), nil
}

// @MX:ANCHOR: [AUTO] EditModel carries the rename and header-removal cascades into every Machine of the Model.
// @MX:REASON: [AUTO] touches the root document, the model directory and every machine document in one plan
// EditModel renames a Model and/or replaces its headers. Only checked slots
// are kept. On rename, every Machine name carrying the old prefix gets the new
// one, in the root document, in each machine document and on disk. Field-Mappings
// that referenced a removed header are pruned.
func (e *Engine) EditModel(ctx context.Context, ref models.Ref[models.Model], newName string, headers []validate.Slot) (_ models.Model, err error) {
	defer e.observe("model", "edit", time.Now(), &err)

	root, err := e.store.LoadRoot(ctx)
	if err != nil {
		return models.Model{}, err
	}
	old, idx, err := resolveModel(root, ref)
	if err != nil {
		return models.Model{}, err
	}
	newName, err = validate.ModelName(newName, models.Keys(root.Models), old.Name)
	if err != nil {
		return models.Model{}, err
	}
	info, err := validate.FreeTextSlots(validate.Headers, headers)
	if err != nil {
		return models.Model{}, err
	}
	renaming := newName != old.Name
	removed := removedItems(old.BaseInformation, info)

	// New machine names must stay unique once the prefix changes.
	renames := make(map[string]string, len(old.Machines))
	newNames := make([]string, len(old.Machines))
	for i, m := range old.Machines {
		newNames[i] = m
		if renaming {
			newNames[i] = models.RenamePrefix(m, old.Name, newName)
		}
		renames[m] = newNames[i]
	}
	for i, nn := range newNames {
		if nn == old.Machines[i] {
			continue
		}
		others := slices.Delete(slices.Clone(newNames), i, i+1)
		if _, err := validate.MachineName(nn, newName, others, ""); err != nil {
			return models.Model{}, err
		}
	}

	// Load the machine documents that change.
	type rewrite struct {
		name string
		doc  *models.MachineDocument
	}
	var rewrites []rewrite
	if renaming || len(removed) > 0 {
		for _, sum := range root.MachinesOf(old.Name) {
			doc, err := e.store.LoadMachine(ctx, old.Name, sum.Name)
			if err != nil {
				return models.Model{}, err
			}
			nn := renames[sum.Name]
			next := doc.Clone()
			pruned := prune(next, removed)
			if pruned || nn != sum.Name {
				rewrites = append(rewrites, rewrite{name: nn, doc: next})
			}
		}
	}

	next := root.Clone()
	next.Models[idx] = models.ModelSummary{Name: newName, BaseInformation: info, Machines: newNames}
	for i, sum := range next.Machines {
		owned := sum.Model == old.Name || (sum.Model == "" && slices.Contains(old.Machines, sum.Name))
		if !owned {
			continue
		}
		// Stale summaries missing from the Model's list keep a valid name.
		nn, ok := renames[sum.Name]
		if !ok {
			nn = models.RenamePrefix(sum.Name, old.Name, newName)
		}
		next.Machines[i].Name = nn
		next.Machines[i].Model = newName
	}

	plan := newPlan("model", "edit")
	if renaming {
		plan.add(fmt.Sprintf("rename model directory %s to %s", old.Name, newName), func(ctx context.Context) error {
			_, err := e.store.RenameModelDir(ctx, old.Name, newName)
			return err
		})
	}
	for _, rw := range rewrites {
		plan.add("update machine document "+rw.name, func(ctx context.Context) error {
			return e.store.SaveMachine(ctx, newName, rw.name, rw.doc, "")
		})
	}
	plan.add("save root document", func(ctx context.Context) error {
		return e.store.SaveRoot(ctx, next, "Edit Model: "+newName)
	})
	if err := plan.Apply(ctx); err != nil {
		return models.Model{}, err
	}

	return e.assembled(ctx, next, newName), nil
}

// RemoveModel deletes a Model, its Machines and its directory.
func (e *Engine) RemoveModel(ctx context.Context, ref models.Ref[models.Model]) (err error) {
	defer e.observe("model", "remove", time.Now(), &err)

	root, err := e.store.LoadRoot(ctx)
	if err != nil {
		return err
	}
	old, idx, err := resolveModel(root, ref)
	if err != nil {
		return err
	}

	next := root.Clone()
	next.Models = slices.Delete(next.Models, idx, idx+1)
	next.Machines = slices.DeleteFunc(next.Machines, func(s models.MachineSummary) bool {
		if s.Model != "" {
			return s.Model == old.Name
		}
		return slices.Contains(old.Machines, s.Name)
	})

	plan := newPlan("model", "remove")
	plan.add("save root document", func(ctx context.Context) error {
		return e.store.SaveRoot(ctx, next, "Remove Model: "+old.Name)
	})
	plan.add("delete model directory "+old.Name, func(ctx context.Context) error {
		return e.store.DeleteModelDir(ctx, old.Name)
	})
	return plan.Apply(ctx)
}
