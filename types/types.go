// Package types defines the shared definition structures for the SceneCore engine.
// This package contains only type definitions: what the loader produces and
// what world.Build consumes. Runtime objects live in engine/world.
package types

// Intent is the parsed representation of a player command.
type Intent struct {
	Verb   string
	Object string // optional
	Target string // optional
}

// Result is the output of a single game step.
type Result struct {
	Verb    string // composite key of the verb that ran, if any
	Output  []string
	Pending bool // something is still suspended after the step
}

// Vector2 is a 2D position.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ActionDef is a single action as authored: registry name plus raw parameters.
type ActionDef struct {
	Name   string
	Params map[string]string
	Line   int // source line for diagnostics, 0 if unknown
}

// VerbDef is an authored verb. Target and State are optional key parts.
type VerbDef struct {
	ID      string
	Target  string
	State   string
	Icon    string
	Actions []ActionDef
}

// ActorDef is the base definition of an actor (character, object, item).
type ActorDef struct {
	ID          string
	Kind        string // "character", "object", "item", "ui"
	Desc        string
	State       string
	Visible     bool
	Interactive bool
	Position    Vector2
	StandAnim   string
	TalkAnim    string
	Verbs       []VerbDef
}

// SceneDef is the base definition of a scene.
type SceneDef struct {
	ID          string
	Description string
	State       string
	Player      string
	Actors      []ActorDef
	Verbs       []VerbDef
}

// FlowDef is a named dialog flow: a static action list run by the flow manager.
type FlowDef struct {
	Name    string
	Actions []ActionDef
}

// GameDef holds game metadata from Lua.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Start   string // starting scene ID
	Intro   string
	Seed    int64
}

// WorldDef is the complete authored world.
type WorldDef struct {
	Game         GameDef
	Scenes       []SceneDef
	Inventory    []ActorDef
	UIActors     []ActorDef
	DefaultVerbs []VerbDef
	Flows        []FlowDef
}
