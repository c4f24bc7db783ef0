package models

import (
	"slices"
	"strings"
)

// ValueKind is the declared type of a Field-Mapping value.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
)

// ModelNameLength is the fixed length of a Model name and of the Machine name prefix.
const ModelNameLength = 3

// FieldMapping maps one header or measurement (Item) to a spreadsheet cell.
type FieldMapping struct {
	Item    string    `json:"item"`
	Sheet   int       `json:"sheet"`
	Cluster int       `json:"cluster"`
	Type    ValueKind `json:"type"`
	Value   string    `json:"value"`
}

// NewFieldMapping returns a string mapping with an empty value.
func NewFieldMapping(item string, sheet, cluster int) FieldMapping {
	return FieldMapping{Item: item, Sheet: sheet, Cluster: cluster, Type: KindString, Value: ""}
}

// MappingConfiguration is a named set of Field-Mappings owned by a Machine.
type MappingConfiguration struct {
	ID            string         `json:"id"`
	Configuration []FieldMapping `json:"configuration"`
}

// Key implements Keyed.
func (c MappingConfiguration) Key() string { return c.ID }

// Items returns the mapped item names in order.
func (c MappingConfiguration) Items() []string {
	items := make([]string, len(c.Configuration))
	for i, fm := range c.Configuration {
		items[i] = fm.Item
	}
	return items
}

// Clone returns a deep copy.
func (c MappingConfiguration) Clone() MappingConfiguration {
	out := MappingConfiguration{ID: c.ID, Configuration: make([]FieldMapping, len(c.Configuration))}
	copy(out.Configuration, c.Configuration)
	return out
}

// Machine is a station belonging to a Model.
type Machine struct {
	Name                  string
	Model                 string
	Measurements          []string
	MappingConfigurations []MappingConfiguration
}

// Key implements Keyed.
func (m Machine) Key() string { return m.Name }

// Clone returns a deep copy.
func (m Machine) Clone() Machine {
	out := Machine{
		Name:                  m.Name,
		Model:                 m.Model,
		Measurements:          slices.Clone(m.Measurements),
		MappingConfigurations: make([]MappingConfiguration, len(m.MappingConfigurations)),
	}
	for i, c := range m.MappingConfigurations {
		out.MappingConfigurations[i] = c.Clone()
	}
	if out.Measurements == nil {
		out.Measurements = []string{}
	}
	return out
}

// Model is a production model code with its base-information headers.
type Model struct {
	Name            string
	BaseInformation []string
	Machines        []Machine
}

// Key implements Keyed.
func (m Model) Key() string { return m.Name }

// Clone returns a deep copy.
func (m Model) Clone() Model {
	out := Model{
		Name:            m.Name,
		BaseInformation: slices.Clone(m.BaseInformation),
		Machines:        make([]Machine, len(m.Machines)),
	}
	for i, mc := range m.Machines {
		out.Machines[i] = mc.Clone()
	}
	if out.BaseInformation == nil {
		out.BaseInformation = []string{}
	}
	return out
}

// MachineNames returns the names of the Model's Machines in order.
func (m Model) MachineNames() []string {
	names := make([]string, len(m.Machines))
	for i, mc := range m.Machines {
		names[i] = mc.Name
	}
	return names
}

// Catalogue is the full assembled hierarchy.
type Catalogue struct {
	Timestamp string
	Models    []Model
}

// ModelNames returns every Model name in order.
func (c Catalogue) ModelNames() []string {
	names := make([]string, len(c.Models))
	for i, m := range c.Models {
		names[i] = m.Name
	}
	return names
}

// HasPrefix reports whether a Machine name carries the Model prefix.
func HasPrefix(machine, model string) bool {
	return model != "" && strings.HasPrefix(machine, model)
}

// RenamePrefix rewrites the Model prefix of a Machine name. Names that do not
// carry oldModel as their prefix are returned unchanged.
func RenamePrefix(machine, oldModel, newModel string) string {
	if !HasPrefix(machine, oldModel) {
		return machine
	}
	return newModel + machine[len(oldModel):]
}
