package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// RootDocument is the top-level configuration file.
type RootDocument struct {
	Timestamp string           `json:"timestamp"`
	Models    []ModelSummary   `json:"models"`
	Machines  []MachineSummary `json:"machines"`
}

// ModelSummary is a Model as listed in the root document.
type ModelSummary struct {
	Name            string   `json:"name"`
	BaseInformation []string `json:"base_information"`
	Machines        []string `json:"machines"`
}

// MachineSummary is a Machine as listed in the root document.
type MachineSummary struct {
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Measurements []string `json:"measurements"`
}

// MachineDocument is the per-Machine file holding its mapping configurations.
type MachineDocument struct {
	Timestamp string                 `json:"timestamp"`
	Machine   string                 `json:"machine"`
	Mappings  []MappingConfiguration `json:"mappings"`
}

// NewRootDocument returns an empty root document.
func NewRootDocument() *RootDocument {
	return &RootDocument{Models: []ModelSummary{}, Machines: []MachineSummary{}}
}

// NewMachineDocument returns an empty document for the named Machine.
func NewMachineDocument(machine string) *MachineDocument {
	return &MachineDocument{Machine: machine, Mappings: []MappingConfiguration{}}
}

// Key implements Keyed.
func (s ModelSummary) Key() string { return s.Name }

// Key implements Keyed.
func (s MachineSummary) Key() string { return s.Name }

// UnmarshalJSON accepts both the current keys and the legacy
// model_name / model_base_information / model_machines keys.
func (s *ModelSummary) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name            string   `json:"name"`
		BaseInformation []string `json:"base_information"`
		Machines        []string `json:"machines"`
		LegacyName      string   `json:"model_name"`
		LegacyBase      []string `json:"model_base_information"`
		LegacyMachines  []string `json:"model_machines"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Name = firstNonEmpty(raw.Name, raw.LegacyName)
	s.BaseInformation = orEmpty(raw.BaseInformation, raw.LegacyBase)
	s.Machines = orEmpty(raw.Machines, raw.LegacyMachines)
	return nil
}

// UnmarshalJSON tolerates a missing measurements array.
func (s *MachineSummary) UnmarshalJSON(b []byte) error {
	type plain MachineSummary
	var raw plain
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = MachineSummary(raw)
	s.Measurements = orEmpty(s.Measurements, nil)
	return nil
}

// UnmarshalJSON accepts a numeric id.
func (c *MappingConfiguration) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID            flexString     `json:"id"`
		Configuration []FieldMapping `json:"configuration"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.ID = string(raw.ID)
	c.Configuration = raw.Configuration
	if c.Configuration == nil {
		c.Configuration = []FieldMapping{}
	}
	return nil
}

// UnmarshalJSON accepts sheet and cluster as numbers or numeric strings.
func (f *FieldMapping) UnmarshalJSON(b []byte) error {
	var raw struct {
		Item    string     `json:"item"`
		Sheet   flexInt    `json:"sheet"`
		Cluster flexInt    `json:"cluster"`
		Type    ValueKind  `json:"type"`
		Value   flexString `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	f.Item = raw.Item
	f.Sheet = int(raw.Sheet)
	f.Cluster = int(raw.Cluster)
	f.Type = raw.Type
	if f.Type == "" {
		f.Type = KindString
	}
	f.Value = string(raw.Value)
	return nil
}

// Normalize replaces nil slices so encoding never emits null.
func (d *RootDocument) Normalize() {
	if d.Models == nil {
		d.Models = []ModelSummary{}
	}
	if d.Machines == nil {
		d.Machines = []MachineSummary{}
	}
	for i := range d.Models {
		d.Models[i].BaseInformation = orEmpty(d.Models[i].BaseInformation, nil)
		d.Models[i].Machines = orEmpty(d.Models[i].Machines, nil)
	}
	for i := range d.Machines {
		d.Machines[i].Measurements = orEmpty(d.Machines[i].Measurements, nil)
	}
}

// Normalize replaces nil slices so encoding never emits null.
func (d *MachineDocument) Normalize() {
	if d.Mappings == nil {
		d.Mappings = []MappingConfiguration{}
	}
	for i := range d.Mappings {
		if d.Mappings[i].Configuration == nil {
			d.Mappings[i].Configuration = []FieldMapping{}
		}
	}
}

// Clone returns a deep copy.
func (d *RootDocument) Clone() *RootDocument {
	out := &RootDocument{
		Timestamp: d.Timestamp,
		Models:    make([]ModelSummary, len(d.Models)),
		Machines:  make([]MachineSummary, len(d.Machines)),
	}
	for i, m := range d.Models {
		out.Models[i] = ModelSummary{
			Name:            m.Name,
			BaseInformation: orEmpty(slices.Clone(m.BaseInformation), nil),
			Machines:        orEmpty(slices.Clone(m.Machines), nil),
		}
	}
	for i, m := range d.Machines {
		out.Machines[i] = MachineSummary{
			Name:         m.Name,
			Model:        m.Model,
			Measurements: orEmpty(slices.Clone(m.Measurements), nil),
		}
	}
	return out
}

// Clone returns a deep copy.
func (d *MachineDocument) Clone() *MachineDocument {
	out := &MachineDocument{
		Timestamp: d.Timestamp,
		Machine:   d.Machine,
		Mappings:  make([]MappingConfiguration, len(d.Mappings)),
	}
	for i, c := range d.Mappings {
		out.Mappings[i] = c.Clone()
	}
	return out
}

// Model returns the summary of the named Model and its index.
func (d *RootDocument) Model(name string) (ModelSummary, int, bool) {
	return Find(d.Models, name)
}

// Machine returns the summary of a Machine owned by model.
// Summaries written before the model field existed are matched through the
// Model's machine list.
func (d *RootDocument) Machine(model, name string) (MachineSummary, int, bool) {
	for i, m := range d.Machines {
		if m.Name != name {
			continue
		}
		if m.Model == model {
			return m, i, true
		}
		if m.Model == "" {
			if ms, _, ok := d.Model(model); ok && slices.Contains(ms.Machines, name) {
				return m, i, true
			}
		}
	}
	return MachineSummary{}, -1, false
}

// MachinesOf returns the summaries of the Machines listed by model, in the
// model's order. A listed Machine without a summary gets an empty one.
func (d *RootDocument) MachinesOf(model string) []MachineSummary {
	ms, _, ok := d.Model(model)
	if !ok {
		return nil
	}
	out := make([]MachineSummary, 0, len(ms.Machines))
	for _, name := range ms.Machines {
		sum, _, found := d.Machine(model, name)
		if !found {
			sum = MachineSummary{Name: name, Model: model, Measurements: []string{}}
		}
		out = append(out, sum)
	}
	return out
}

// Encode returns the canonical serialized form: 4-space indentation, no HTML
// escaping, trailing newline.
func Encode(v any) ([]byte, error) {
	switch d := v.(type) {
	case *RootDocument:
		d.Normalize()
	case *MachineDocument:
		d.Normalize()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRoot parses a root document.
func DecodeRoot(data []byte) (*RootDocument, error) {
	doc := &RootDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode root document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

// DecodeMachine parses a machine document.
func DecodeMachine(data []byte) (*MachineDocument, error) {
	doc := &MachineDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode machine document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

// flexInt decodes a JSON number or a numeric string.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%q is not a whole number", s)
	}
	*n = flexInt(v)
	return nil
}

// flexString decodes a JSON string, or keeps the literal text of a number or bool.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	t := strings.TrimSpace(string(b))
	switch {
	case t == "null":
		*s = ""
	case strings.HasPrefix(t, `"`):
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
	default:
		*s = flexString(t)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orEmpty(primary, fallback []string) []string {
	if primary != nil {
		return primary
	}
	if fallback != nil {
		return fallback
	}
	return []string{}
}
