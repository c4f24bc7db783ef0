package validate

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kim-interface/kimm/pkg/models"
)

var (
	modelNamePattern   = regexp.MustCompile(`^[A-Z0-9]+$`)
	machineNamePattern = regexp.MustCompile(`^[A-Za-z0-9\- ]+$`)
	configIDPattern    = regexp.MustCompile(`^[0-9\-]+$`)
)

// ModelName checks a new or edited Model name. existing holds every current
// Model name; prior is the name being edited ("" on add) and is not a collision.
func ModelName(name string, existing []string, prior string) (string, error) {
	const field = "model.name"

	if strings.TrimSpace(name) == "" {
		return "", fail(BlankName, field, name, "Model names cannot be blank.")
	}
	if utf8.RuneCountInString(name) != models.ModelNameLength {
		return "", fail(InvalidLength, field, name, "Model names must be %d characters in length.", models.ModelNameLength)
	}
	if !modelNamePattern.MatchString(name) {
		return "", fail(InvalidCharacters, field, name,
			"Model names can only contain capital letters and digits.\n"+
				"You have included an invalid character in this name.")
	}
	if name != prior && slices.Contains(existing, name) {
		return "", fail(DuplicateName, field, name,
			"Model names must be unique.\n"+
				"The Model '%s' has already been defined.\n"+
				"Choose a different name for this Model.", name)
	}
	return name, nil
}

// MachineName checks a Machine name against its sibling Machines of model.
func MachineName(name, model string, siblings []string, prior string) (string, error) {
	const field = "machine.name"

	if strings.TrimSpace(name) == "" {
		return "", fail(BlankName, field, name, "Machine names cannot be blank.")
	}
	if !machineNamePattern.MatchString(name) {
		return "", fail(InvalidCharacters, field, name,
			"Machine names must be alphanumeric (A-Z, 0-9). They may contain\n"+
				"spaces ' ' and dashes '-' but no other special characters.\n"+
				"You have included an invalid character in this name.")
	}
	if name != prior && slices.Contains(siblings, name) {
		return "", fail(DuplicateName, field, name,
			"Machine names must be unique.\n"+
				"The Machine '%s' for %s\n"+
				"has already been assigned.\n"+
				"Choose a different name for this Machine.", name, model)
	}
	return name, nil
}

// ConfigID checks a Mapping Configuration id against the sibling ids of machine.
func ConfigID(id, machine string, siblings []string, prior string) (string, error) {
	const field = "config.id"

	if strings.TrimSpace(id) == "" {
		return "", fail(BlankName, field, id, "Mapping Configuration IDs cannot be blank.")
	}
	if !configIDPattern.MatchString(id) {
		return "", fail(InvalidCharacters, field, id,
			"Mapping Configuration IDs can only contain digits (0-9) and dashes '-'.\n"+
				"You have included an invalid character in this ID.")
	}
	if id != prior && slices.Contains(siblings, id) {
		return "", fail(DuplicateID, field, id,
			"Mapping Configuration IDs must be unique.\n"+
				"The ID %s for %s has already been assigned.\n"+
				"Choose a different Mapping Configuration ID for this new Configuration.", id, machine)
	}
	return id, nil
}
