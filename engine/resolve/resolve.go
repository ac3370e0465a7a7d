// Package resolve maps actor names from parsed intents to actor ids.
package resolve

import (
	"fmt"
	"strings"

	"github.com/nathoo/scenecore/engine/world"
	"github.com/nathoo/scenecore/types"
)

// Result holds the resolved actor IDs for an intent.
type Result struct {
	ObjectID string
	TargetID string
}

// AmbiguityError indicates multiple actors matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates no actor matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("you don't see %q here", e.Name)
}

// Resolve maps object/target name strings from an intent to actor IDs.
func Resolve(w *world.World, intent types.Intent) (Result, error) {
	var res Result
	var err error

	if intent.Object != "" {
		res.ObjectID, err = ResolveName(w, intent.Object)
		if err != nil {
			return res, err
		}
	}

	if intent.Target != "" {
		res.TargetID, err = ResolveName(w, intent.Target)
		if err != nil {
			return res, err
		}
	}

	return res, nil
}

// ResolveName resolves a single name among the visible, interactive actors
// of the current scene and the inventory items.
func ResolveName(w *world.World, name string) (string, error) {
	candidates := Candidates(w)

	// 1. Exact actor ID match.
	for _, a := range candidates {
		if a.ID == name {
			return a.ID, nil
		}
	}

	// 2. Search by description.
	var matches []string
	nameLower := strings.ToLower(name)
	for _, a := range candidates {
		if containsStr(matches, a.ID) {
			continue
		}
		if matchesName(a, nameLower) {
			matches = append(matches, a.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// Candidates returns the actors the player can refer to: visible,
// interactive actors in the current scene, then the inventory.
func Candidates(w *world.World) []*world.Actor {
	var out []*world.Actor
	if s := w.CurrentScene(); s != nil {
		for _, a := range s.Actors() {
			if a.Visible && a.Interactive && a.ID != s.PlayerID {
				out = append(out, a)
			}
		}
	}
	return append(out, w.Inventory.Actors()...)
}

// matchesName checks if an actor's description matches the query
// (case-insensitive). Supports exact match, word-based partial match, and
// actor ID match.
func matchesName(a *world.Actor, nameLower string) bool {
	if a.Desc != "" {
		descLower := strings.ToLower(a.Desc)
		// Exact match.
		if descLower == nameLower {
			return true
		}
		// Word-based partial match: query matches any word in the description.
		// e.g. "key" matches "rusty key", "guard" matches "castle guard".
		for _, word := range strings.Fields(descLower) {
			if word == nameLower {
				return true
			}
		}
	}
	idLower := strings.ToLower(a.ID)
	if idLower == nameLower {
		return true
	}
	// Underscore normalization: "rusty key" matches actor ID "rusty_key".
	return strings.ReplaceAll(nameLower, " ", "_") == idLower
}

func containsStr(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
