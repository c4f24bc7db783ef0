package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kim-interface/kimm/internal/validate"
	"github.com/kim-interface/kimm/pkg/models"
)

// AddMachine creates a Machine under model with the given measurements and
// an empty machine document. Blank measurement entries are skipped.
func (e *Engine) AddMachine(ctx context.Context, model models.Ref[models.Model], name string, measurements []string) (_ models.Machine, err error) {
	defer e.observe("machine", "add", time.Now(), &err)

	root, err := e.store.LoadRoot(ctx)
	if err != nil {
		return models.Machine{}, err
	}
	ms, idx, err := resolveModel(root, model)
	if err != nil {
		return models.Machine{}, err
	}
	name, err = validate.MachineName(name, ms.Name, ms.Machines, "")
	if err != nil {
		return models.Machine{}, err
	}
	meas, err := validate.FreeText(validate.Measurements, measurements)
	if err != nil {
		return models.Machine{}, err
	}

	next := root.Clone()
	next.Models[idx].Machines = append(next.Models[idx].Machines, name)
	next.Machines = append(next.Machines, models.MachineSummary{Name: name, Model: ms.Name, Measurements: meas})

	doc := models.NewMachineDocument(name)
	if e.seedDefault {
		doc.Mappings = append(doc.Mappings, defaultMapping(ms.BaseInformation, meas))
	}

	plan := newPlan("machine", "add")
	plan.add("ensure model directory "+ms.Name, func(ctx context.Context) error {
		return e.store.CreateModelDir(ctx, ms.Name)
	})
	plan.add("create machine document "+name, func(ctx context.Context) error {
		return e.store.CreateMachineFile(ctx, ms.Name, name, doc)
	})
	plan.add("save root document", func(ctx context.Context) error {
		return e.store.SaveRoot(ctx, next, "Add Machine: "+name)
	})
	if err := plan.Apply(ctx); err != nil {
		return models.Machine{}, err
	}
	return machineOf(e.assembled(ctx, next, ms.Name), name), nil
}

// defaultMapping maps every header and measurement to sheet 1, cluster 1.
func defaultMapping(headers, measurements []string) models.MappingConfiguration {
	c := models.MappingConfiguration{ID: "1", Configuration: []models.FieldMapping{}}
	for _, item := range models.AvailableItems(headers, measurements) {
		c.Configuration = append(c.Configuration, models.NewFieldMapping(item, 1, 1))
	}
	return c
}

// EditMachine renames a Machine and/or replaces its measurements. Only checked
// slots are kept. Field-Mappings of removed measurements are pruned.
func (e *Engine) EditMachine(ctx context.Context, model models.Ref[models.Model], ref models.Ref[models.Machine], newName string, measurements []validate.Slot) (_ models.Machine, err error) {
	defer e.observe("machine", "edit", time.Now(), &err)

	root, err := e.store.LoadRoot(ctx)
	if err != nil {
		return models.Machine{}, err
	}
	ms, idx, err := resolveModel(root, model)
	if err != nil {
		return models.Machine{}, err
	}
	old, err := resolveMachine(root, ms, ref)
	if err != nil {
		return models.Machine{}, err
	}
	newName, err = validate.MachineName(newName, ms.Name, ms.Machines, old.Name)
	if err != nil {
		return models.Machine{}, err
	}
	meas, err := validate.FreeTextSlots(validate.Measurements, measurements)
	if err != nil {
		return models.Machine{}, err
	}
	doc, err := e.store.LoadMachine(ctx, ms.Name, old.Name)
	if err != nil {
		return models.Machine{}, err
	}

	renaming := newName != old.Name
	nextDoc := doc.Clone()
	pruned := prune(nextDoc, removedItems(old.Measurements, meas))

	next := root.Clone()
	pos := slices.Index(next.Models[idx].Machines, old.Name)
	next.Models[idx].Machines[pos] = newName
	if _, si, ok := root.Machine(ms.Name, old.Name); ok {
		next.Machines[si] = models.MachineSummary{Name: newName, Model: ms.Name, Measurements: meas}
	} else {
		next.Machines = append(next.Machines, models.MachineSummary{Name: newName, Model: ms.Name, Measurements: meas})
	}

	plan := newPlan("machine", "edit")
	if renaming {
		plan.add(fmt.Sprintf("rename machine document %s to %s", old.Name, newName), func(ctx context.Context) error {
			return e.store.RenameMachineFile(ctx, ms.Name, old.Name, newName)
		})
	}
	if renaming || pruned {
		plan.add("update machine document "+newName, func(ctx context.Context) error {
			return e.store.SaveMachine(ctx, ms.Name, newName, nextDoc, "")
		})
	}
	plan.add("save root document", func(ctx context.Context) error {
		return e.store.SaveRoot(ctx, next, "Edit Machine: "+newName)
	})
	if err := plan.Apply(ctx); err != nil {
		return models.Machine{}, err
	}
	return machineOf(e.assembled(ctx, next, ms.Name), newName), nil
}

// RemoveMachine deletes a Machine and its document.
func (e *Engine) RemoveMachine(ctx context.Context, model models.Ref[models.Model], ref models.Ref[models.Machine]) (err error) {
	defer e.observe("machine", "remove", time.Now(), &err)

	root, err := e.store.LoadRoot(ctx)
	if err != nil {
		return err
	}
	ms, idx, err := resolveModel(root, model)
	if err != nil {
		return err
	}
	old, err := resolveMachine(root, ms, ref)
	if err != nil {
		return err
	}

	next := root.Clone()
	next.Models[idx].Machines = slices.DeleteFunc(next.Models[idx].Machines, func(n string) bool { return n == old.Name })
	if _, si, ok := root.Machine(ms.Name, old.Name); ok {
		next.Machines = slices.Delete(next.Machines, si, si+1)
	}

	plan := newPlan("machine", "remove")
	plan.add("save root document", func(ctx context.Context) error {
		return e.store.SaveRoot(ctx, next, "Remove Machine: "+old.Name)
	})
	plan.add("delete machine document "+old.Name, func(ctx context.Context) error {
		return e.store.DeleteMachineFile(ctx, ms.Name, old.Name)
	})
	return plan.Apply(ctx)
}

func machineOf(m models.Model, name string) models.Machine {
	mc, _, _ := models.Find(m.Machines, name)
	return mc
}
