package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseBool accepts only true/false, yes/no, on/off and 1/0 (any case).
// Every other spelling is a configuration error.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q (want true/false, yes/no, on/off, 1/0)", s)
	}
}

// Flag is a boolean setting in the customers file. It decodes through ParseBool
// so quoted values like "True" or "no" behave the same as bare YAML booleans.
type Flag bool

func (f *Flag) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: boolean setting must be a scalar", value.Line)
	}
	b, err := ParseBool(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*f = Flag(b)
	return nil
}

func (f Flag) Bool() bool { return bool(f) }
