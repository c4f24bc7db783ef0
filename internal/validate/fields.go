package validate

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kim-interface/kimm/internal/textfix"
	"github.com/kim-interface/kimm/pkg/models"
)

// MaxFieldLength is the longest header or measurement name accepted.
const MaxFieldLength = 50

// TextKind selects the wording used for free-text failures.
type TextKind int

const (
	Headers TextKind = iota
	Measurements
)

func (k TextKind) field() string {
	if k == Measurements {
		return "machine.measurements"
	}
	return "model.base_information"
}

func (k TextKind) tooLong() string {
	if k == Measurements {
		return "Measurement specs must be 50 characters or less.\n" +
			"One or more spec you have entered is too long."
	}
	return "Base information headers must be 50 characters or less.\n" +
		"One or more header you have entered is too long."
}

func (k TextKind) missing() string {
	if k == Measurements {
		return "Selected measurement specs must have a value.\n" +
			"One or more spec you have selected does not have a value."
	}
	return "Selected Base Information headers must have a value.\n" +
		"One or more header you have selected does not have a value."
}

// Slot is one edit-time input row: a checkbox and its text.
type Slot struct {
	Checked bool
	Value   string
}

// CheckedSlots turns a plain list into slots that are all checked.
func CheckedSlots(values []string) []Slot {
	slots := make([]Slot, len(values))
	for i, v := range values {
		slots[i] = Slot{Checked: true, Value: v}
	}
	return slots
}

// FreeText validates add-time input: blank entries are skipped, the rest must
// fit MaxFieldLength. The repaired values are returned in input order.
func FreeText(kind TextKind, values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		v = textfix.Repair(v)
		if utf8.RuneCountInString(v) > MaxFieldLength {
			return nil, fail(FieldTooLong, kind.field(), v, "%s", kind.tooLong())
		}
		out = append(out, v)
	}
	return out, nil
}

// FreeTextSlots validates edit-time input: unchecked slots are dropped and a
// checked slot must carry a value that fits MaxFieldLength.
func FreeTextSlots(kind TextKind, slots []Slot) ([]string, error) {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if !s.Checked {
			continue
		}
		if strings.TrimSpace(s.Value) == "" {
			return nil, fail(MissingFieldValue, kind.field(), s.Value, "%s", kind.missing())
		}
		v := textfix.Repair(s.Value)
		if utf8.RuneCountInString(v) > MaxFieldLength {
			return nil, fail(FieldTooLong, kind.field(), v, "%s", kind.tooLong())
		}
		out = append(out, v)
	}
	return out, nil
}

// Group selects the wording used for incomplete mapping failures.
type Group int

const (
	GroupBaseInformation Group = iota
	GroupMeasurements
	GroupConfiguration
)

func (g Group) incomplete() string {
	switch g {
	case GroupBaseInformation:
		return "Selected Model Base Information fields must all have\n" +
			"Sheet and Cluster #'s. You have ommited a # for at least one."
	case GroupMeasurements:
		return "Selected Machine Measurements fields must all have\n" +
			"Sheet and Cluster #'s. You have ommited a # for at least one."
	default:
		return "Selected Configuration maps must all have\n" +
			"Sheet and Cluster #'s. You have ommited a # for at least one."
	}
}

// Selection is one candidate item of a mapping configuration form.
type Selection struct {
	Item    string
	Checked bool
	Sheet   string
	Cluster string
}

// Select builds a checked selection from already parsed numbers.
func Select(item string, sheet, cluster int) Selection {
	return Selection{Item: item, Checked: true, Sheet: strconv.Itoa(sheet), Cluster: strconv.Itoa(cluster)}
}

// Mappings turns the checked selections into Field-Mappings. Every checked item
// must be present in available and carry positive sheet and cluster numbers.
func Mappings(group Group, selections []Selection, available []string) ([]models.FieldMapping, error) {
	const field = "config.configuration"

	out := make([]models.FieldMapping, 0, len(selections))
	for _, s := range selections {
		if !s.Checked {
			continue
		}
		item, ok := lookupItem(s.Item, available)
		if !ok {
			return nil, fail(UnknownItem, field, s.Item,
				"The field '%s' is not a base information header or measurement\n"+
					"of this Machine. Refresh the list and select it again.", s.Item)
		}
		sheet, cluster := strings.TrimSpace(s.Sheet), strings.TrimSpace(s.Cluster)
		if sheet == "" || cluster == "" {
			return nil, fail(IncompleteMapping, field, s.Item, "%s", group.incomplete())
		}
		sn, err1 := strconv.Atoi(sheet)
		cn, err2 := strconv.Atoi(cluster)
		if err1 != nil || err2 != nil || sn < 1 || cn < 1 {
			return nil, fail(IncompleteMapping, field, s.Item,
				"Sheet and Cluster #'s must be whole numbers greater than 0.\n"+
					"Check the numbers entered for '%s'.", s.Item)
		}
		out = append(out, models.NewFieldMapping(item, sn, cn))
	}
	return out, nil
}

// lookupItem finds item in available after text repair and returns the
// repaired spelling from available.
func lookupItem(item string, available []string) (string, bool) {
	want := textfix.Repair(item)
	for _, a := range available {
		if fixed := textfix.Repair(a); fixed == want {
			return fixed, true
		}
	}
	return "", false
}
