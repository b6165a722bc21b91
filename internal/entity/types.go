package entity

import (
	"fmt"
	"strings"
)

// Type discriminates the kinds of racing entities paddock resolves.
type Type string

const (
	TypeDriver  Type = "driver"
	TypeTeam    Type = "team"
	TypeCircuit Type = "circuit"
	TypeRound   Type = "round"
)

var allTypes = []Type{TypeDriver, TypeTeam, TypeCircuit, TypeRound}

// AllTypes returns the known entity types in dependency order: circuits and
// teams before the rounds and drivers that may reference them.
func AllTypes() []Type {
	return []Type{TypeCircuit, TypeTeam, TypeDriver, TypeRound}
}

// ParseType converts a string into a known Type.
func ParseType(value string) (Type, error) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range allTypes {
		if t == normalized {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q (want driver, team, circuit, or round)", value)
}

// Valid reports whether t is a known entity type.
func (t Type) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t Type) String() string { return string(t) }
