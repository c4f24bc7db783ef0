package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelName(t *testing.T) {
	t.Parallel()

	existing := []string{"AB1", "CD2"}
	tests := []struct {
		name  string
		input string
		prior string
		kind  Kind
	}{
		{"valid", "EF3", "", ""},
		{"blank", "", "", BlankName},
		{"whitespace", "   ", "", BlankName},
		{"too short", "AB", "", InvalidLength},
		{"too long", "AB12", "", InvalidLength},
		{"lowercase", "ab1", "", InvalidCharacters},
		{"dash", "A-1", "", InvalidCharacters},
		{"duplicate", "AB1", "", DuplicateName},
		{"edit keeps own name", "AB1", "AB1", ""},
		{"edit into sibling", "CD2", "AB1", DuplicateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ModelName(tt.input, existing, tt.prior)
			if tt.kind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.input, got)
				return
			}
			kind, ok := KindOf(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestModelNameMessages(t *testing.T) {
	t.Parallel()

	_, err := ModelName("ab1", nil, "")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Model names can only contain capital letters and digits."))
	assert.ErrorIs(t, err, ErrInvalidCharacters)

	_, err = ModelName("AB1", []string{"AB1"}, "")
	assert.Contains(t, err.Error(), "The Model 'AB1' has already been defined.")
}

func TestMachineName(t *testing.T) {
	t.Parallel()

	siblings := []string{"AB1-Press"}
	tests := []struct {
		input string
		prior string
		kind  Kind
	}{
		{"AB1-Lathe 2", "", ""},
		{"", "", BlankName},
		{"AB1_Press", "", InvalidCharacters},
		{"AB1/Press", "", InvalidCharacters},
		{"AB1-Press", "", DuplicateName},
		{"AB1-Press", "AB1-Press", ""},
	}
	for _, tt := range tests {
		_, err := MachineName(tt.input, "AB1", siblings, tt.prior)
		if tt.kind == "" {
			assert.NoError(t, err, tt.input)
			continue
		}
		kind, _ := KindOf(err)
		assert.Equal(t, tt.kind, kind, tt.input)
	}

	_, err := MachineName("AB1-Press", "AB1", siblings, "")
	assert.Contains(t, err.Error(), "The Machine 'AB1-Press' for AB1")
}

func TestConfigID(t *testing.T) {
	t.Parallel()

	siblings := []string{"1", "1-1"}
	tests := []struct {
		input string
		prior string
		kind  Kind
	}{
		{"2-10", "", ""},
		{"", "", BlankName},
		{"1a", "", InvalidCharacters},
		{"a1", "", InvalidCharacters},
		{"1 1", "", InvalidCharacters},
		{"1-1", "", DuplicateID},
		{"1-1", "1-1", ""},
	}
	for _, tt := range tests {
		_, err := ConfigID(tt.input, "AB1-Press", siblings, tt.prior)
		if tt.kind == "" {
			assert.NoError(t, err, tt.input)
			continue
		}
		kind, _ := KindOf(err)
		assert.Equal(t, tt.kind, kind, tt.input)
	}
}

func TestFreeText(t *testing.T) {
	t.Parallel()

	got, err := FreeText(Headers, []string{"Operator", "", "  ", "Lot", "Ã˜ Bore"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Operator", "Lot", "Ø Bore"}, got)

	_, err = FreeText(Measurements, []string{strings.Repeat("x", 51)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldTooLong)
	assert.Contains(t, err.Error(), "Measurement specs must be 50 characters or less.")

	got, err = FreeText(Measurements, []string{strings.Repeat("Ø", 50)})
	require.NoError(t, err, "length counts characters, not bytes")
	assert.Len(t, got, 1)
}

func TestFreeTextSlots(t *testing.T) {
	t.Parallel()

	got, err := FreeTextSlots(Headers, []Slot{
		{Checked: true, Value: "Operator"},
		{Checked: false, Value: "Lot"},
		{Checked: false, Value: ""},
		{Checked: true, Value: "Date"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Operator", "Date"}, got)

	_, err = FreeTextSlots(Headers, []Slot{{Checked: true, Value: ""}})
	kind, _ := KindOf(err)
	assert.Equal(t, MissingFieldValue, kind)
	assert.Contains(t, err.Error(), "Selected Base Information headers must have a value.")

	_, err = FreeTextSlots(Measurements, []Slot{{Checked: true, Value: strings.Repeat("m", 60)}})
	assert.True(t, errors.Is(err, ErrFieldTooLong))
}

func TestMappings(t *testing.T) {
	t.Parallel()

	available := []string{"Operator", "Ø Bore"}

	got, err := Mappings(GroupMeasurements, []Selection{
		{Item: "Operator", Checked: true, Sheet: "1", Cluster: "2"},
		{Item: "Ã˜ Bore", Checked: true, Sheet: " 1 ", Cluster: "3"},
		{Item: "Operator", Checked: false, Sheet: "", Cluster: ""},
	}, available)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ø Bore", got[1].Item, "item takes the canonical spelling")
	assert.Equal(t, 3, got[1].Cluster)
	assert.Equal(t, "string", string(got[0].Type))
	assert.Equal(t, "", got[0].Value)

	_, err = Mappings(GroupBaseInformation, []Selection{{Item: "Operator", Checked: true, Sheet: "1"}}, available)
	kind, _ := KindOf(err)
	assert.Equal(t, IncompleteMapping, kind)
	assert.Contains(t, err.Error(), "Selected Model Base Information fields must all have")

	_, err = Mappings(GroupConfiguration, []Selection{{Item: "Operator", Checked: true, Sheet: "x", Cluster: "1"}}, available)
	assert.ErrorIs(t, err, ErrIncompleteMapping)

	_, err = Mappings(GroupConfiguration, []Selection{{Item: "Operator", Checked: true, Sheet: "0", Cluster: "1"}}, available)
	assert.ErrorIs(t, err, ErrIncompleteMapping)

	_, err = Mappings(GroupConfiguration, []Selection{Select("Gone", 1, 1)}, available)
	assert.ErrorIs(t, err, ErrUnknownItem)

	got, err = Mappings(GroupMeasurements, []Selection{Select("Ø Bore", 1, 1)}, []string{"Ã˜ Bore"})
	require.NoError(t, err)
	assert.Equal(t, "Ø Bore", got[0].Item, "legacy spelling in available is repaired")
}
