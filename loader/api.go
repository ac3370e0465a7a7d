package loader

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/scenecore/engine/action"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game     *lua.LTable
	scenes   []rawScene
	items    []rawActor
	uiActors []rawActor
	defaults []*lua.LTable
	flows    []rawFlow
}

// registerAPI registers all Lua constructors and action helpers as globals.
func registerAPI(L *lua.LState, coll *collector, reg *action.Registry) {
	registerConstructors(L, coll)
	registerDialog(L, coll)
	registerActionHelpers(L, reg)
}

// curried returns a global of the form Name "id" { ... }: the first call
// takes the id and returns a function taking the body table.
func curried(L *lua.LState, body func(L *lua.LState, id string, tbl *lua.LTable) int) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			return body(L, id, L.CheckTable(1))
		}))
		return 1
	})
}

// mark tags tbl as a kind/id marker and returns it to Lua.
func mark(L *lua.LState, tbl *lua.LTable, kind, id string) int {
	tbl.RawSetString(keyKind, lua.LString(kind))
	tbl.RawSetString(keyID, lua.LString(id))
	L.Push(tbl)
	return 1
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Scene "id" { description = "...", Actor "a" {...}, Verb "v" {...} }
	L.SetGlobal("Scene", curried(L, func(L *lua.LState, id string, tbl *lua.LTable) int {
		coll.scenes = append(coll.scenes, rawScene{id: id, table: tbl})
		return 0
	}))

	// Actor "id" { ... } is only meaningful inside a Scene; it returns a marker.
	L.SetGlobal("Actor", curried(L, func(L *lua.LState, id string, tbl *lua.LTable) int {
		return mark(L, tbl, kindActor, id)
	}))

	// Item "id" { ... } starts in the inventory.
	L.SetGlobal("Item", curried(L, func(L *lua.LState, id string, tbl *lua.LTable) int {
		coll.items = append(coll.items, rawActor{id: id, table: tbl})
		return mark(L, tbl, kindActor, id)
	}))

	// UIActor "id" { ... }
	L.SetGlobal("UIActor", curried(L, func(L *lua.LState, id string, tbl *lua.LTable) int {
		coll.uiActors = append(coll.uiActors, rawActor{id: id, table: tbl})
		return mark(L, tbl, kindActor, id)
	}))

	// Verb "id" { target = "...", state = "...", icon = "...", actions... }
	L.SetGlobal("Verb", curried(L, func(L *lua.LState, id string, tbl *lua.LTable) int {
		return mark(L, tbl, kindVerb, id)
	}))

	// Defaults { Verb "lookat" {...}, ... }
	L.SetGlobal("Defaults", L.NewFunction(func(L *lua.LState) int {
		coll.defaults = append(coll.defaults, L.CheckTable(1))
		return 0
	}))
}

// registerActionHelpers registers Action("name", {...}) and one CamelCase
// helper per registered action: SetState{...}, Wait{...}, End().
// Helpers never shadow an existing global.
func registerActionHelpers(L *lua.LState, reg *action.Registry) {
	L.SetGlobal("Action", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		return pushAction(L, name, L.OptTable(2, L.NewTable()))
	}))

	for _, name := range reg.Names() {
		helper := camelCase(name)
		if L.GetGlobal(helper) != lua.LNil {
			continue
		}
		L.SetGlobal(helper, L.NewFunction(func(L *lua.LState) int {
			return pushAction(L, name, L.OptTable(1, L.NewTable()))
		}))
	}
}

// registerDialog defines Dialog, which doubles as the flow constructor:
// Dialog "name" {...} defines a flow, Dialog{flow = "name"} runs one.
func registerDialog(L *lua.LState, coll *collector) {
	L.SetGlobal("Dialog", L.NewFunction(func(L *lua.LState) int {
		if L.Get(1).Type() == lua.LTString {
			name := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				coll.flows = append(coll.flows, rawFlow{name: name, table: L.CheckTable(1)})
				return 0
			}))
			return 1
		}
		return pushAction(L, "dialog", L.OptTable(1, L.NewTable()))
	}))
}

// pushAction tags tbl as an action with the calling source line.
func pushAction(L *lua.LState, name string, tbl *lua.LTable) int {
	if dbg, ok := L.GetStack(1); ok {
		if _, err := L.GetInfo("l", dbg, lua.LNil); err == nil && dbg.CurrentLine > 0 {
			tbl.RawSetString(keyLine, lua.LNumber(dbg.CurrentLine))
		}
	}
	return mark(L, tbl, kindAction, name)
}

// camelCase maps set_state to SetState.
func camelCase(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
