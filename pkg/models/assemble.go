package models

import "slices"

// MachineKey identifies a Machine by its owning Model and its name.
type MachineKey struct {
	Model   string
	Machine string
}

// String returns "MODEL/Machine".
func (k MachineKey) String() string {
	return k.Model + "/" + k.Machine
}

// Assemble builds the entity hierarchy from a root document and the machine
// documents keyed by owner. Machines without a document get no mappings.
func Assemble(root *RootDocument, docs map[MachineKey]*MachineDocument) Catalogue {
	cat := Catalogue{Timestamp: root.Timestamp, Models: make([]Model, 0, len(root.Models))}
	for _, ms := range root.Models {
		cat.Models = append(cat.Models, AssembleModel(root, ms, docs))
	}
	return cat
}

// AssembleModel builds one Model from its summary.
func AssembleModel(root *RootDocument, ms ModelSummary, docs map[MachineKey]*MachineDocument) Model {
	m := Model{
		Name:            ms.Name,
		BaseInformation: orEmpty(slices.Clone(ms.BaseInformation), nil),
		Machines:        make([]Machine, 0, len(ms.Machines)),
	}
	for _, name := range ms.Machines {
		mc := Machine{Name: name, Model: ms.Name, Measurements: []string{}, MappingConfigurations: []MappingConfiguration{}}
		if sum, _, ok := root.Machine(ms.Name, name); ok {
			mc.Measurements = orEmpty(slices.Clone(sum.Measurements), nil)
		}
		if doc, ok := docs[MachineKey{Model: ms.Name, Machine: name}]; ok && doc != nil {
			for _, c := range doc.Mappings {
				mc.MappingConfigurations = append(mc.MappingConfigurations, c.Clone())
			}
		}
		m.Machines = append(m.Machines, mc)
	}
	return m
}

// AvailableItems returns the headers of the Model followed by the measurements
// of the Machine: every item a Field-Mapping of that Machine may reference.
func AvailableItems(baseInformation, measurements []string) []string {
	items := make([]string, 0, len(baseInformation)+len(measurements))
	items = append(items, baseInformation...)
	items = append(items, measurements...)
	return items
}
