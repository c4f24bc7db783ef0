package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRootLegacyKeys(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"timestamp": "2024-01-02 03:04:05.123456 | jdoe",
		"models": [{"model_name": "AB1", "model_base_information": ["Operator"], "model_machines": ["AB1-Press"]}],
		"machines": [{"name": "AB1-Press", "measurements": ["Ø Bore"], "unknown": true}]
	}`)

	doc, err := DecodeRoot(data)
	require.NoError(t, err)
	require.Len(t, doc.Models, 1)
	assert.Equal(t, "AB1", doc.Models[0].Name)
	assert.Equal(t, []string{"Operator"}, doc.Models[0].BaseInformation)
	assert.Equal(t, []string{"AB1-Press"}, doc.Models[0].Machines)

	sum, _, ok := doc.Machine("AB1", "AB1-Press")
	require.True(t, ok, "legacy machine summary without model field should resolve through the model list")
	assert.Equal(t, []string{"Ø Bore"}, sum.Measurements)
}

func TestDecodeRootMissingArrays(t *testing.T) {
	t.Parallel()

	doc, err := DecodeRoot([]byte(`{"timestamp": "x", "models": [{"name": "AB1"}]}`))
	require.NoError(t, err)
	assert.NotNil(t, doc.Machines)
	assert.NotNil(t, doc.Models[0].BaseInformation)
	assert.NotNil(t, doc.Models[0].Machines)
}

func TestDecodeMachineFlexibleNumbers(t *testing.T) {
	t.Parallel()

	data := []byte(`{"timestamp": "t", "machine": "AB1-Press", "mappings": [
		{"id": 7, "configuration": [{"item": "Operator", "sheet": "2", "cluster": 3, "type": "string", "value": ""}]},
		{"id": "1-1"}
	]}`)

	doc, err := DecodeMachine(data)
	require.NoError(t, err)
	require.Len(t, doc.Mappings, 2)
	assert.Equal(t, "7", doc.Mappings[0].ID)
	assert.Equal(t, 2, doc.Mappings[0].Configuration[0].Sheet)
	assert.Equal(t, 3, doc.Mappings[0].Configuration[0].Cluster)
	assert.NotNil(t, doc.Mappings[1].Configuration)
}

func TestDecodeMachineRejectsNonNumericSheet(t *testing.T) {
	t.Parallel()

	_, err := DecodeMachine([]byte(`{"mappings": [{"id": "1", "configuration": [{"item": "x", "sheet": "two", "cluster": 1}]}]}`))
	require.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	doc := NewMachineDocument("AB1-Press")
	doc.Timestamp = "2024-01-02 03:04:05.000000 | jdoe"
	doc.Mappings = append(doc.Mappings, MappingConfiguration{
		ID:            "1-1",
		Configuration: []FieldMapping{NewFieldMapping("Operator", 1, 2), NewFieldMapping("Ø Bore", 1, 3)},
	})

	data, err := Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"machine\": \"AB1-Press\"")
	assert.Contains(t, string(data), `"item": "Ø Bore"`, "non-ASCII text is written as UTF-8")

	back, err := DecodeMachine(data)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestEncodeNeverEmitsNull(t *testing.T) {
	t.Parallel()

	data, err := Encode(&RootDocument{Models: []ModelSummary{{Name: "AB1"}}})
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "null"), "encoded document contains null: %s", data)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	scope := []Model{{Name: "AB1"}, {Name: "CD2", BaseInformation: []string{"Lot"}}}

	got, err := Resolve(ByKey[Model]("CD2"), scope)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lot"}, got.BaseInformation)

	stale := Model{Name: "CD2"}
	got, err = Resolve(Resolved(stale), scope)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lot"}, got.BaseInformation, "resolved refs return the canonical entity")

	_, err = Resolve(ByKey[Model]("ZZ9"), scope)
	assert.True(t, errors.Is(err, ErrNotFound))

	var zero Ref[Model]
	_, err = Resolve(zero, scope)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenamePrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		machine, oldModel, newModel, want string
	}{
		{"AB1-Press", "AB1", "AB2", "AB2-Press"},
		{"AB1", "AB1", "XY9", "XY9"},
		{"Press AB1", "AB1", "AB2", "Press AB1"},
		{"CD2-Lathe", "AB1", "AB2", "CD2-Lathe"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RenamePrefix(tt.machine, tt.oldModel, tt.newModel), tt.machine)
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	doc := &RootDocument{
		Models:   []ModelSummary{{Name: "AB1", BaseInformation: []string{"Operator"}, Machines: []string{"AB1-Press"}}},
		Machines: []MachineSummary{{Name: "AB1-Press", Model: "AB1", Measurements: []string{"Bore"}}},
	}
	clone := doc.Clone()
	clone.Models[0].BaseInformation[0] = "Changed"
	clone.Machines[0].Measurements = append(clone.Machines[0].Measurements, "Extra")

	assert.Equal(t, "Operator", doc.Models[0].BaseInformation[0])
	assert.Len(t, doc.Machines[0].Measurements, 1)
}

func TestAssemble(t *testing.T) {
	t.Parallel()

	root := &RootDocument{
		Timestamp: "ts",
		Models:    []ModelSummary{{Name: "AB1", BaseInformation: []string{"Operator"}, Machines: []string{"AB1-Press", "AB1-Lathe"}}},
		Machines: []MachineSummary{
			{Name: "AB1-Press", Model: "AB1", Measurements: []string{"Bore"}},
			{Name: "AB1-Lathe", Model: "AB1", Measurements: []string{}},
		},
	}
	docs := map[MachineKey]*MachineDocument{
		{Model: "AB1", Machine: "AB1-Press"}: {Machine: "AB1-Press", Mappings: []MappingConfiguration{{ID: "1"}}},
	}

	cat := Assemble(root, docs)
	require.Len(t, cat.Models, 1)
	m := cat.Models[0]
	assert.Equal(t, []string{"AB1-Press", "AB1-Lathe"}, m.MachineNames())
	assert.Equal(t, []string{"Bore"}, m.Machines[0].Measurements)
	assert.Len(t, m.Machines[0].MappingConfigurations, 1)
	assert.Empty(t, m.Machines[1].MappingConfigurations)
	assert.Equal(t, "AB1", m.Machines[1].Model)
}
