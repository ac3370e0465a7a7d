// Package loader loads Lua game content into Go structs at load time.
// The Lua VM is discarded after loading: zero Lua at runtime.
package loader

import (
	"fmt"
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/types"
)

// Marker keys set on the tables returned by constructors and helpers.
const (
	keyKind = "__kind"
	keyID   = "__id"
	keyLine = "__line"

	kindActor  = "actor"
	kindVerb   = "verb"
	kindAction = "action"
)

// rawScene holds a scene table before compilation.
type rawScene struct {
	id    string
	table *lua.LTable
}

// rawActor holds a top-level actor table (item or UI actor).
type rawActor struct {
	id    string
	table *lua.LTable
}

// rawFlow holds a dialog flow table.
type rawFlow struct {
	name  string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// getVector reads a {x=, y=} or {x, y} table.
func getVector(tbl *lua.LTable) types.Vector2 {
	if tbl == nil {
		return types.Vector2{}
	}
	if tbl.MaxN() >= 2 {
		x, _ := tbl.RawGetInt(1).(lua.LNumber)
		y, _ := tbl.RawGetInt(2).(lua.LNumber)
		return types.Vector2{X: float64(x), Y: float64(y)}
	}
	return types.Vector2{X: getNumber(tbl, "x"), Y: getNumber(tbl, "y")}
}

// toParam converts a Lua value to the textual form action parameters use.
func toParam(v lua.LValue) (string, error) {
	switch val := v.(type) {
	case lua.LString:
		return string(val), nil
	case lua.LNumber:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), nil
	case lua.LBool:
		return strconv.FormatBool(bool(val)), nil
	case *lua.LTable:
		return action.FormatVector(getVector(val)), nil
	default:
		return "", fmt.Errorf("unsupported value of type %s", v.Type())
	}
}

// arrayItems returns the sequential part of a table.
func arrayItems(tbl *lua.LTable) []*lua.LTable {
	var out []*lua.LTable
	for i := 1; i <= tbl.MaxN(); i++ {
		if t, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
			out = append(out, t)
		}
	}
	return out
}

// compile converts all collected Lua data into a WorldDef.
func compile(coll *collector) (*types.WorldDef, error) {
	def := &types.WorldDef{}

	// Game.
	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	def.Game = compileGame(coll.game)

	for _, raw := range coll.scenes {
		scene, err := compileScene(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling scene %s: %w", raw.id, err)
		}
		def.Scenes = append(def.Scenes, scene)
	}

	for _, raw := range coll.items {
		a, err := compileActor(raw.id, "item", raw.table)
		if err != nil {
			return nil, fmt.Errorf("compiling item %s: %w", raw.id, err)
		}
		def.Inventory = append(def.Inventory, a)
	}

	for _, raw := range coll.uiActors {
		a, err := compileActor(raw.id, "ui", raw.table)
		if err != nil {
			return nil, fmt.Errorf("compiling UI actor %s: %w", raw.id, err)
		}
		def.UIActors = append(def.UIActors, a)
	}

	for _, tbl := range coll.defaults {
		verbs, err := compileVerbs(tbl)
		if err != nil {
			return nil, fmt.Errorf("compiling defaults: %w", err)
		}
		def.DefaultVerbs = append(def.DefaultVerbs, verbs...)
	}

	for _, raw := range coll.flows {
		actions, err := compileActions(raw.table)
		if err != nil {
			return nil, fmt.Errorf("compiling dialog %s: %w", raw.name, err)
		}
		def.Flows = append(def.Flows, types.FlowDef{Name: raw.name, Actions: actions})
	}

	return def, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Start:   getString(tbl, "start"),
		Intro:   getString(tbl, "intro"),
		Seed:    int64(getInt(tbl, "seed")),
	}
}

// compileScene compiles a scene table. Its sequential part holds Actor and
// Verb markers.
func compileScene(raw rawScene) (types.SceneDef, error) {
	tbl := raw.table
	scene := types.SceneDef{
		ID:          raw.id,
		Description: getString(tbl, "description"),
		State:       getString(tbl, "state"),
		Player:      getString(tbl, "player"),
	}
	for i, item := range arrayItems(tbl) {
		switch getString(item, keyKind) {
		case kindActor:
			id := getString(item, keyID)
			a, err := compileActor(id, getString(item, "kind"), item)
			if err != nil {
				return scene, fmt.Errorf("actor %s: %w", id, err)
			}
			scene.Actors = append(scene.Actors, a)
		case kindVerb:
			v, err := compileVerb(item)
			if err != nil {
				return scene, err
			}
			scene.Verbs = append(scene.Verbs, v)
		default:
			return scene, fmt.Errorf("entry %d: expected Actor or Verb", i+1)
		}
	}
	return scene, nil
}

func compileActor(id, kind string, tbl *lua.LTable) (types.ActorDef, error) {
	if k := getString(tbl, "kind"); k != "" {
		kind = k
	}
	a := types.ActorDef{
		ID:          id,
		Kind:        kind,
		Desc:        getString(tbl, "desc"),
		State:       getString(tbl, "state"),
		Visible:     getBool(tbl, "visible", true),
		Interactive: getBool(tbl, "interactive", true),
		Position:    getVector(getTable(tbl, "pos")),
		StandAnim:   getString(tbl, "stand"),
		TalkAnim:    getString(tbl, "talk"),
	}
	verbs, err := compileVerbs(tbl)
	if err != nil {
		return a, err
	}
	a.Verbs = verbs
	return a, nil
}

// compileVerbs compiles the Verb markers in the sequential part of tbl.
func compileVerbs(tbl *lua.LTable) ([]types.VerbDef, error) {
	var verbs []types.VerbDef
	for i, item := range arrayItems(tbl) {
		if getString(item, keyKind) != kindVerb {
			return nil, fmt.Errorf("entry %d: expected Verb", i+1)
		}
		v, err := compileVerb(item)
		if err != nil {
			return nil, err
		}
		verbs = append(verbs, v)
	}
	return verbs, nil
}

func compileVerb(tbl *lua.LTable) (types.VerbDef, error) {
	v := types.VerbDef{
		ID:     getString(tbl, keyID),
		Target: getString(tbl, "target"),
		State:  getString(tbl, "state"),
		Icon:   getString(tbl, "icon"),
	}
	actions, err := compileActions(tbl)
	if err != nil {
		return v, fmt.Errorf("verb %s: %w", v.ID, err)
	}
	v.Actions = actions
	return v, nil
}

// compileActions compiles the action tables in the sequential part of tbl.
func compileActions(tbl *lua.LTable) ([]types.ActionDef, error) {
	var out []types.ActionDef
	for i := 1; i <= tbl.MaxN(); i++ {
		item, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok || getString(item, keyKind) != kindAction {
			return nil, fmt.Errorf("entry %d: expected an action", i)
		}
		ad, err := compileAction(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, ad)
	}
	return out, nil
}

func compileAction(tbl *lua.LTable) (types.ActionDef, error) {
	ad := types.ActionDef{
		Name:   getString(tbl, keyID),
		Params: map[string]string{},
		Line:   getInt(tbl, keyLine),
	}
	var err error
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok || err != nil {
			return
		}
		key := string(ks)
		if key == keyKind || key == keyID || key == keyLine {
			return
		}
		s, perr := toParam(v)
		if perr != nil {
			err = fmt.Errorf("%s param %q: %w", ad.Name, key, perr)
			return
		}
		ad.Params[key] = s
	})
	return ad, err
}
