// Package ireporter builds the i-Reporter request URL that fetches the
// mapping of one Machine and Mapping Configuration.
package ireporter

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the KIM_Interface value endpoint.
const DefaultBaseURL = "http://10.1.30.90:3000/api/v1/getvalue/KIM_Interface"

// Selection errors carry the operator-facing messages.
var (
	ErrNoMachine = errors.New("Please select a Machine to generate a URL.")
	ErrNoConfig  = errors.New("Please select a Mapping Configuration to generate a URL.")
)

// Build returns base?machine_name=<machine>&mapping_config=<id>. Spaces in
// the machine name become underscores. An empty base uses DefaultBaseURL.
func Build(base, machine, id string) (string, error) {
	machine = strings.TrimSpace(machine)
	id = strings.TrimSpace(id)
	if machine == "" {
		return "", ErrNoMachine
	}
	if id == "" {
		return "", ErrNoConfig
	}
	if base == "" {
		base = DefaultBaseURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("machine_name", MachineParam(machine))
	q.Set("mapping_config", id)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// MachineParam is the machine_name value for a Machine name.
func MachineParam(machine string) string {
	return strings.ReplaceAll(machine, " ", "_")
}
