// Package callback converts live callbacks (verbs, flows and the actions
// inside them) to stable string addresses and back, so suspended work can be
// written to a saved game and re-attached after loading.
package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Address separator and scope tags.
const (
	Separator      = "#"
	TagUIActors    = "UIACTORS"
	TagInventory   = "INVENTORY"
	TagDefaultVerb = "DEFAULT_VERB"
	TagInkManager  = "INK_MANAGER"
)

// Scope says which part of the world an address points into.
type Scope int

const (
	ScopePlain     Scope = iota // scene id or scene actor id
	ScopeUIActors               // UI actor
	ScopeInventory              // inventory item
	ScopeDefault                // world default verbs
	ScopeFlow                   // dialog flow
)

var ErrMalformedAddress = errors.New("malformed callback address")

// Address identifies a runner or an action within a runner.
//
//	plain:     owner#verb[#idx]
//	ui/inv:    UIACTORS#actor#verb[#idx], INVENTORY#actor#verb[#idx]
//	defaults:  DEFAULT_VERB#verb[#idx]
//	flows:     INK_MANAGER#flow[#idx]
type Address struct {
	Scope Scope
	Owner string // scene or actor id, empty for defaults and flows
	Verb  string // verb key, or flow name
	Index int    // action index, -1 for the runner itself
}

// String formats the address.
func (a Address) String() string {
	var parts []string
	switch a.Scope {
	case ScopeUIActors:
		parts = []string{TagUIActors, a.Owner, a.Verb}
	case ScopeInventory:
		parts = []string{TagInventory, a.Owner, a.Verb}
	case ScopeDefault:
		parts = []string{TagDefaultVerb, a.Verb}
	case ScopeFlow:
		parts = []string{TagInkManager, a.Verb}
	default:
		parts = []string{a.Owner, a.Verb}
	}
	if a.Index >= 0 {
		parts = append(parts, strconv.Itoa(a.Index))
	}
	return strings.Join(parts, Separator)
}

// Parse reads an address string.
func Parse(s string) (Address, error) {
	parts := strings.Split(s, Separator)
	for _, p := range parts {
		if p == "" {
			return Address{}, fmt.Errorf("%w: %q", ErrMalformedAddress, s)
		}
	}

	var addr Address
	var rest []string
	switch parts[0] {
	case TagInkManager:
		addr.Scope, rest = ScopeFlow, parts[1:]
	case TagDefaultVerb:
		addr.Scope, rest = ScopeDefault, parts[1:]
	case TagUIActors, TagInventory:
		addr.Scope = ScopeUIActors
		if parts[0] == TagInventory {
			addr.Scope = ScopeInventory
		}
		if len(parts) < 2 {
			return Address{}, fmt.Errorf("%w: %q: missing actor", ErrMalformedAddress, s)
		}
		addr.Owner, rest = parts[1], parts[2:]
	default:
		addr.Owner, rest = parts[0], parts[1:]
	}

	switch len(rest) {
	case 1:
		addr.Verb, addr.Index = rest[0], -1
	case 2:
		idx, err := strconv.Atoi(rest[1])
		if err != nil || idx < 0 {
			return Address{}, fmt.Errorf("%w: %q: bad action index %q", ErrMalformedAddress, s, rest[1])
		}
		addr.Verb, addr.Index = rest[0], idx
	default:
		return Address{}, fmt.Errorf("%w: %q", ErrMalformedAddress, s)
	}
	return addr, nil
}
