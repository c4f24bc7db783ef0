// Package engine applies add/edit/remove/duplicate operations to the
// configuration catalogue. Every operation re-reads the documents it needs,
// validates all input against them, builds a Plan on cloned documents and
// then applies it, so a rejected input never touches disk.
package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kim-interface/kimm/internal/metrics"
	"github.com/kim-interface/kimm/internal/store"
	"github.com/kim-interface/kimm/internal/textfix"
	"github.com/kim-interface/kimm/internal/validate"
	"github.com/kim-interface/kimm/pkg/models"
)

// Engine is the mutation engine of one environment.
type Engine struct {
	store       *store.Store
	metrics     *metrics.Recorder
	seedDefault bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMetrics records every mutation on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithDefaultMapping makes AddMachine seed mapping "1" with every header and
// measurement at sheet 1, cluster 1.
func WithDefaultMapping(enabled bool) Option {
	return func(e *Engine) { e.seedDefault = enabled }
}

// New creates an Engine on top of st.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{store: st}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// observe records the outcome of a mutation. Use with defer and a named error.
func (e *Engine) observe(entity, op string, start time.Time, errp *error) {
	result := metrics.ResultSuccess
	if err := *errp; err != nil {
		result = metrics.ResultError
		if kind, ok := validate.KindOf(err); ok {
			result = metrics.ResultValidation
			e.metrics.ValidationFailure(string(kind))
		}
		e.store.Env().Logger.Warn().Err(err).Str("entity", entity).Str("op", op).Msg("mutation rejected")
	} else {
		e.store.Env().Logger.Debug().Str("entity", entity).Str("op", op).Msg("mutation applied")
	}
	e.metrics.ObserveMutation(entity, op, result, time.Since(start))
}

// resolveModel finds the summary named by ref in root.
func resolveModel(root *models.RootDocument, ref models.Ref[models.Model]) (models.ModelSummary, int, error) {
	ms, err := models.Resolve(models.ByKey[models.ModelSummary](ref.Key()), root.Models)
	if err != nil {
		return models.ModelSummary{}, -1, fmt.Errorf("model: %w", err)
	}
	_, idx, _ := root.Model(ms.Name)
	return ms, idx, nil
}

// resolveMachine finds the summary of a Machine listed by model.
func resolveMachine(root *models.RootDocument, model models.ModelSummary, ref models.Ref[models.Machine]) (models.MachineSummary, error) {
	sum, err := models.Resolve(models.ByKey[models.MachineSummary](ref.Key()), root.MachinesOf(model.Name))
	if err != nil {
		return models.MachineSummary{}, fmt.Errorf("machine of %s: %w", model.Name, err)
	}
	return sum, nil
}

func resolveConfig(doc *models.MachineDocument, ref models.Ref[models.MappingConfiguration]) (models.MappingConfiguration, int, error) {
	c, idx, ok := models.Find(doc.Mappings, ref.Key())
	if !ok {
		return models.MappingConfiguration{}, -1, fmt.Errorf("mapping configuration of %s: %w: %q", doc.Machine, models.ErrNotFound, ref.Key())
	}
	return c, idx, nil
}

// Catalogue returns the full hierarchy.
func (e *Engine) Catalogue(ctx context.Context) (models.Catalogue, error) {
	return e.store.LoadCatalogue(ctx)
}

// Model returns one assembled Model with its Machines and mappings.
func (e *Engine) Model(ctx context.Context, ref models.Ref[models.Model]) (models.Model, error) {
	cat, err := e.store.LoadCatalogue(ctx)
	if err != nil {
		return models.Model{}, err
	}
	m, err := models.Resolve(ref, cat.Models)
	if err != nil {
		return models.Model{}, fmt.Errorf("model: %w", err)
	}
	return m, nil
}

// Machine returns one assembled Machine.
func (e *Engine) Machine(ctx context.Context, model models.Ref[models.Model], ref models.Ref[models.Machine]) (models.Machine, error) {
	m, err := e.Model(ctx, model)
	if err != nil {
		return models.Machine{}, err
	}
	mc, err := models.Resolve(ref, m.Machines)
	if err != nil {
		return models.Machine{}, fmt.Errorf("machine of %s: %w", m.Name, err)
	}
	return mc, nil
}

// Config returns one Mapping Configuration.
func (e *Engine) Config(ctx context.Context, model models.Ref[models.Model], machine models.Ref[models.Machine], ref models.Ref[models.MappingConfiguration]) (models.MappingConfiguration, error) {
	mc, err := e.Machine(ctx, model, machine)
	if err != nil {
		return models.MappingConfiguration{}, err
	}
	c, err := models.Resolve(ref, mc.MappingConfigurations)
	if err != nil {
		return models.MappingConfiguration{}, fmt.Errorf("mapping configuration of %s: %w", mc.Name, err)
	}
	return c, nil
}

// MachineKeys enumerates every Machine of every Model.
func (e *Engine) MachineKeys(ctx context.Context) ([]models.MachineKey, error) {
	root, err := e.store.LoadRoot(ctx)
	if err != nil {
		return nil, err
	}
	var keys []models.MachineKey
	for _, m := range root.Models {
		for _, name := range m.Machines {
			keys = append(keys, models.MachineKey{Model: m.Name, Machine: name})
		}
	}
	return keys, nil
}

// FindMachine locates a Machine by name alone. The name must be unique across Models.
func (e *Engine) FindMachine(ctx context.Context, name string) (models.MachineKey, error) {
	keys, err := e.MachineKeys(ctx)
	if err != nil {
		return models.MachineKey{}, err
	}
	var found []models.MachineKey
	for _, k := range keys {
		if k.Machine == name {
			found = append(found, k)
		}
	}
	switch len(found) {
	case 0:
		return models.MachineKey{}, fmt.Errorf("machine: %w: %q", models.ErrNotFound, name)
	case 1:
		return found[0], nil
	default:
		return models.MachineKey{}, fmt.Errorf("%w: %q exists under %d models", ErrAmbiguous, name, len(found))
	}
}

// ConfigIDs lists the Mapping Configuration ids of a Machine.
func (e *Engine) ConfigIDs(ctx context.Context, model models.Ref[models.Model], machine models.Ref[models.Machine]) ([]string, error) {
	root, err := e.store.LoadRoot(ctx)
	if err != nil {
		return nil, err
	}
	ms, _, err := resolveModel(root, model)
	if err != nil {
		return nil, err
	}
	sum, err := resolveMachine(root, ms, machine)
	if err != nil {
		return nil, err
	}
	doc, err := e.store.LoadMachine(ctx, ms.Name, sum.Name)
	if err != nil {
		return nil, err
	}
	return models.Keys(doc.Mappings), nil
}

// assembled rebuilds one Model from root and its machine documents after a
// successful mutation. Unreadable machine documents are logged and skipped.
func (e *Engine) assembled(ctx context.Context, root *models.RootDocument, name string) models.Model {
	ms, _, ok := root.Model(name)
	if !ok {
		return models.Model{Name: name}
	}
	docs := make(map[models.MachineKey]*models.MachineDocument, len(ms.Machines))
	for _, m := range ms.Machines {
		doc, err := e.store.LoadMachine(ctx, name, m)
		if err != nil {
			e.store.Env().Logger.Warn().Err(err).Str("model", name).Str("machine", m).Msg("reload after mutation")
			continue
		}
		docs[models.MachineKey{Model: name, Machine: m}] = doc
	}
	m := models.AssembleModel(root, ms, docs)
	store.RepairModel(&m)
	return m
}

// prune drops every Field-Mapping whose item was removed, even when another
// header or measurement carries the same text. It reports whether anything
// was dropped.
func prune(doc *models.MachineDocument, removed []string) bool {
	if len(removed) == 0 {
		return false
	}
	changed := false
	for i := range doc.Mappings {
		kept := doc.Mappings[i].Configuration[:0:0]
		for _, fm := range doc.Mappings[i].Configuration {
			if containsText(removed, fm.Item) {
				changed = true
				continue
			}
			kept = append(kept, fm)
		}
		doc.Mappings[i].Configuration = kept
	}
	return changed
}

// removedItems returns the entries of before that are missing from after.
func removedItems(before, after []string) []string {
	var out []string
	for _, b := range before {
		if !containsText(after, b) {
			out = append(out, b)
		}
	}
	return out
}

func containsText(values []string, item string) bool {
	want := textfix.Repair(item)
	return slices.ContainsFunc(values, func(v string) bool { return textfix.Repair(v) == want })
}
