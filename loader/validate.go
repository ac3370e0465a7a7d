package loader

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/actions"
	"github.com/nathoo/scenecore/engine/callback"
	"github.com/nathoo/scenecore/engine/verb"
	"github.com/nathoo/scenecore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// reservedIDs cannot be used as scene or actor ids: they are address tags.
var reservedIDs = map[string]bool{
	callback.TagUIActors:    true,
	callback.TagInventory:   true,
	callback.TagDefaultVerb: true,
	callback.TagInkManager:  true,
}

// validator holds the id sets built from a WorldDef.
type validator struct {
	def    *types.WorldDef
	reg    *action.Registry
	ve     *ValidationError
	scenes map[string]bool
	actors map[string]bool
	verbs  map[string]bool // verb ids, any owner
}

// validate checks the compiled def for referential integrity and consistency.
// Warnings are logged; only errors fail the load.
func validate(def *types.WorldDef, reg *action.Registry, logger *zap.Logger) error {
	v := &validator{
		def:    def,
		reg:    reg,
		ve:     &ValidationError{},
		scenes: map[string]bool{},
		actors: map[string]bool{},
		verbs:  map[string]bool{},
	}
	v.collectIDs()

	// Game title required.
	if def.Game.Title == "" {
		v.ve.errorf("Game.title is required")
	}

	// Start scene exists.
	if def.Game.Start == "" {
		v.ve.errorf("Game.start is required")
	} else if !v.scenes[def.Game.Start] {
		v.ve.errorf("start scene %q not found in defined scenes", def.Game.Start)
	}

	for _, s := range def.Scenes {
		v.checkVerbs("scene "+s.ID, s.Verbs)
		for _, a := range s.Actors {
			v.checkVerbs("actor "+a.ID, a.Verbs)
		}
		if s.Player != "" && !v.actors[s.Player] {
			v.ve.errorf("scene %q player %q is not a defined actor", s.ID, s.Player)
		}
	}
	for _, a := range def.Inventory {
		v.checkVerbs("item "+a.ID, a.Verbs)
	}
	for _, a := range def.UIActors {
		v.checkVerbs("UI actor "+a.ID, a.Verbs)
	}
	v.checkVerbs("defaults", def.DefaultVerbs)
	for _, f := range def.Flows {
		v.checkActions("dialog "+f.Name, f.Actions)
	}

	for _, w := range v.ve.Warnings {
		logger.Warn("game validation", zap.String("warning", w))
	}
	if len(v.ve.Errors) > 0 {
		return v.ve
	}
	return nil
}

// collectIDs fills the id sets and reports malformed or duplicate ids.
func (v *validator) collectIDs() {
	for _, s := range v.def.Scenes {
		v.checkID("scene", s.ID)
		if v.scenes[s.ID] {
			v.ve.errorf("duplicate scene %q", s.ID)
		}
		v.scenes[s.ID] = true
	}

	addActor := func(a types.ActorDef) {
		v.checkID("actor", a.ID)
		if v.actors[a.ID] {
			v.ve.errorf("duplicate actor %q", a.ID)
		}
		if v.scenes[a.ID] {
			v.ve.errorf("actor %q has the same id as a scene", a.ID)
		}
		v.actors[a.ID] = true
	}
	for _, s := range v.def.Scenes {
		for _, a := range s.Actors {
			addActor(a)
		}
	}
	for _, a := range v.def.Inventory {
		addActor(a)
	}
	for _, a := range v.def.UIActors {
		addActor(a)
	}

	flows := map[string]bool{}
	for _, f := range v.def.Flows {
		v.checkID("dialog", f.Name)
		if flows[f.Name] {
			v.ve.errorf("duplicate dialog %q", f.Name)
		}
		flows[f.Name] = true
	}

	visit := func(verbs []types.VerbDef) {
		for _, vd := range verbs {
			v.verbs[vd.ID] = true
		}
	}
	visit(v.def.DefaultVerbs)
	for _, s := range v.def.Scenes {
		visit(s.Verbs)
		for _, a := range s.Actors {
			visit(a.Verbs)
		}
	}
	for _, a := range v.def.Inventory {
		visit(a.Verbs)
	}
	for _, a := range v.def.UIActors {
		visit(a.Verbs)
	}
}

// checkID rejects ids that would break callback addresses.
func (v *validator) checkID(kind, id string) {
	switch {
	case id == "":
		v.ve.errorf("%s with empty id", kind)
	case strings.Contains(id, callback.Separator):
		v.ve.errorf("%s %q contains %q", kind, id, callback.Separator)
	case reservedIDs[id]:
		v.ve.errorf("%s %q uses a reserved name", kind, id)
	}
}

func (v *validator) checkVerbs(owner string, verbs []types.VerbDef) {
	keys := map[string]bool{}
	for _, vd := range verbs {
		if vd.ID == "" {
			v.ve.errorf("%s has a verb with empty id", owner)
			continue
		}
		if strings.Contains(vd.ID, callback.Separator) {
			v.ve.errorf("%s verb %q contains %q", owner, vd.ID, callback.Separator)
		}
		// Target and state are part of the verb key, and so of its address.
		if strings.Contains(vd.Target, callback.Separator) {
			v.ve.errorf("%s verb %q target %q contains %q", owner, vd.ID, vd.Target, callback.Separator)
		}
		if strings.Contains(vd.State, callback.Separator) {
			v.ve.errorf("%s verb %q state %q contains %q", owner, vd.ID, vd.State, callback.Separator)
		}
		key := verb.Key(vd.ID, vd.Target, vd.State)
		if keys[key] {
			v.ve.errorf("%s defines verb %q twice", owner, key)
		}
		keys[key] = true
		if vd.Target != "" && !v.actors[vd.Target] {
			v.ve.warnf("%s verb %q targets undefined actor %q", owner, vd.ID, vd.Target)
		}
		v.checkActions(owner+" verb "+key, vd.Actions)
	}
}

// checkActions warns on unregistered actions and dangling references.
func (v *validator) checkActions(where string, defs []types.ActionDef) {
	for _, ad := range defs {
		at := where
		if ad.Line > 0 {
			at = fmt.Sprintf("%s (line %d)", where, ad.Line)
		}
		fields, ok := v.reg.Schema(ad.Name)
		if !ok {
			v.ve.warnf("%s: unknown action %q", at, ad.Name)
			continue
		}
		for _, f := range fields {
			val, set := ad.Params[f.Name]
			if !set || val == "" || val == actions.RefTarget || val == actions.RefPlayer {
				continue
			}
			switch f.Type {
			case action.TypeActor:
				if !v.actors[val] {
					v.ve.warnf("%s: %s %s references undefined actor %q", at, ad.Name, f.Name, val)
				}
			case action.TypeScene:
				if !v.scenes[val] {
					v.ve.warnf("%s: %s %s references undefined scene %q", at, ad.Name, f.Name, val)
				}
			case action.TypeVerb:
				if !v.verbs[verbID(val)] {
					v.ve.warnf("%s: %s %s references undefined verb %q", at, ad.Name, f.Name, val)
				}
			}
		}
	}
}

// verbID strips the target and state parts of a verb key.
func verbID(key string) string {
	id, _, _ := strings.Cut(key, ".")
	return id
}
