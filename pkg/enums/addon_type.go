package enums

import "fmt"

// AddonType maps to the addon_type enum in Postgres.
type AddonType string

const (
	AddonTypeStems AddonType = "STEMS"
	AddonTypeMIDI  AddonType = "MIDI"
)

var validAddonTypes = []AddonType{
	AddonTypeStems,
	AddonTypeMIDI,
}

// String implements fmt.Stringer.
func (a AddonType) String() string {
	return string(a)
}

// IsValid reports whether the value matches the canonical addon_type enum.
func (a AddonType) IsValid() bool {
	for _, candidate := range validAddonTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAddonType converts raw input into AddonType.
func ParseAddonType(value string) (AddonType, error) {
	for _, candidate := range validAddonTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid addon type %q", value)
}
