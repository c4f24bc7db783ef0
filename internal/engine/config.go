package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kim-interface/kimm/internal/store"
	"github.com/kim-interface/kimm/internal/validate"
	"github.com/kim-interface/kimm/pkg/models"
)

// ConfigInput is the form state of a new Mapping Configuration: the
// base-information headers of the Model and the measurements of the Machine,
// each with its checkbox and sheet/cluster entries.
type ConfigInput struct {
	BaseInformation []validate.Selection
	Measurements    []validate.Selection
}

// machineScope is a resolved Machine together with its Model and document.
type machineScope struct {
	model   models.ModelSummary
	machine models.MachineSummary
	doc     *models.MachineDocument
}

func (s machineScope) available() []string {
	return models.AvailableItems(s.model.BaseInformation, s.machine.Measurements)
}

func (e *Engine) loadScope(ctx context.Context, model models.Ref[models.Model], machine models.Ref[models.Machine]) (machineScope, error) {
	root, err := e.store.LoadRoot(ctx)
	if err != nil {
		return machineScope{}, err
	}
	ms, _, err := resolveModel(root, model)
	if err != nil {
		return machineScope{}, err
	}
	sum, err := resolveMachine(root, ms, machine)
	if err != nil {
		return machineScope{}, err
	}
	doc, err := e.store.LoadMachine(ctx, ms.Name, sum.Name)
	if err != nil {
		return machineScope{}, err
	}
	return machineScope{model: ms, machine: sum, doc: doc}, nil
}

func configAction(verb, machine, id string) string {
	return fmt.Sprintf("%s Configuration: %s; ID # %s", verb, machine, id)
}

// saveScope writes the machine document of s as a single-step plan.
func (e *Engine) saveScope(ctx context.Context, op string, s machineScope, doc *models.MachineDocument, action string) error {
	plan := newPlan("config", op)
	plan.add("save machine document "+store.MachineFileName(s.machine.Name), func(ctx context.Context) error {
		return e.store.SaveMachine(ctx, s.model.Name, s.machine.Name, doc, action)
	})
	return plan.Apply(ctx)
}

// AddConfig appends a Mapping Configuration built from the checked items of in.
func (e *Engine) AddConfig(ctx context.Context, model models.Ref[models.Model], machine models.Ref[models.Machine], id string, in ConfigInput) (_ models.MappingConfiguration, err error) {
	defer e.observe("config", "add", time.Now(), &err)

	s, err := e.loadScope(ctx, model, machine)
	if err != nil {
		return models.MappingConfiguration{}, err
	}
	id, err = validate.ConfigID(id, s.machine.Name, models.Keys(s.doc.Mappings), "")
	if err != nil {
		return models.MappingConfiguration{}, err
	}
	base, err := validate.Mappings(validate.GroupBaseInformation, in.BaseInformation, s.model.BaseInformation)
	if err != nil {
		return models.MappingConfiguration{}, err
	}
	meas, err := validate.Mappings(validate.GroupMeasurements, in.Measurements, s.machine.Measurements)
	if err != nil {
		return models.MappingConfiguration{}, err
	}

	cfg := models.MappingConfiguration{ID: id, Configuration: append(base, meas...)}
	next := s.doc.Clone()
	next.Mappings = append(next.Mappings, cfg)
	if err := e.saveScope(ctx, "add", s, next, configAction("Add", s.machine.Name, id)); err != nil {
		return models.MappingConfiguration{}, err
	}
	return cfg.Clone(), nil
}

// EditConfig replaces the id and Field-Mappings of a Mapping Configuration.
// Unchecked selections are dropped from the configuration.
func (e *Engine) EditConfig(ctx context.Context, model models.Ref[models.Model], machine models.Ref[models.Machine], ref models.Ref[models.MappingConfiguration], newID string, selections []validate.Selection) (_ models.MappingConfiguration, err error) {
	defer e.observe("config", "edit", time.Now(), &err)

	s, err := e.loadScope(ctx, model, machine)
	if err != nil {
		return models.MappingConfiguration{}, err
	}
	old, idx, err := resolveConfig(s.doc, ref)
	if err != nil {
		return models.MappingConfiguration{}, err
	}
	newID, err = validate.ConfigID(newID, s.machine.Name, models.Keys(s.doc.Mappings), old.ID)
	if err != nil {
		return models.MappingConfiguration{}, err
	}
	fms, err := validate.Mappings(validate.GroupConfiguration, selections, s.available())
	if err != nil {
		return models.MappingConfiguration{}, err
	}

	cfg := models.MappingConfiguration{ID: newID, Configuration: fms}
	next := s.doc.Clone()
	next.Mappings[idx] = cfg
	if err := e.saveScope(ctx, "edit", s, next, configAction("Edit", s.machine.Name, newID)); err != nil {
		return models.MappingConfiguration{}, err
	}
	return cfg.Clone(), nil
}

// DuplicateConfig copies a Mapping Configuration under newID.
func (e *Engine) DuplicateConfig(ctx context.Context, model models.Ref[models.Model], machine models.Ref[models.Machine], ref models.Ref[models.MappingConfiguration], newID string) (_ models.MappingConfiguration, err error) {
	defer e.observe("config", "duplicate", time.Now(), &err)

	s, err := e.loadScope(ctx, model, machine)
	if err != nil {
		return models.MappingConfiguration{}, err
	}
	src, _, err := resolveConfig(s.doc, ref)
	if err != nil {
		return models.MappingConfiguration{}, err
	}
	newID, err = validate.ConfigID(newID, s.machine.Name, models.Keys(s.doc.Mappings), "")
	if err != nil {
		return models.MappingConfiguration{}, err
	}

	cfg := src.Clone()
	cfg.ID = newID
	store.RepairMappings([]models.MappingConfiguration{cfg})
	next := s.doc.Clone()
	next.Mappings = append(next.Mappings, cfg)
	if err := e.saveScope(ctx, "duplicate", s, next, configAction("Duplicate", s.machine.Name, newID)); err != nil {
		return models.MappingConfiguration{}, err
	}
	return cfg.Clone(), nil
}

// RemoveConfig deletes a Mapping Configuration by id.
func (e *Engine) RemoveConfig(ctx context.Context, model models.Ref[models.Model], machine models.Ref[models.Machine], ref models.Ref[models.MappingConfiguration]) (err error) {
	defer e.observe("config", "remove", time.Now(), &err)

	s, err := e.loadScope(ctx, model, machine)
	if err != nil {
		return err
	}
	old, idx, err := resolveConfig(s.doc, ref)
	if err != nil {
		return err
	}

	next := s.doc.Clone()
	next.Mappings = slices.Delete(next.Mappings, idx, idx+1)
	return e.saveScope(ctx, "remove", s, next, configAction("Remove", s.machine.Name, old.ID))
}
