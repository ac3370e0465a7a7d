// Package world holds the runtime object graph the verb engine runs
// against: scenes, actors, inventory, default verbs, dialog flows, timers
// and the text queue. Everything is driven from a single goroutine through
// Update; callbacks resume synchronously.
package world

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/verb"
)

// Location tags for actors that are not in a scene.
const (
	LocInventory = "INVENTORY"
	LocUIActors  = "UIACTORS"
)

// ErrNotFound is returned when a scene or actor does not exist.
var ErrNotFound = errors.New("not found")

// Binder is implemented by actions that need the world. Build calls Bind
// once for every action it creates.
type Binder interface {
	Bind(w *World)
}

// World is the root of the runtime graph.
type World struct {
	Title   string
	Version string
	Start   string
	Intro   string

	Inventory *ActorSet
	UIActors  *ActorSet
	Verbs     *verb.Manager // world default verbs
	Flows     *Flows
	Timers    *Timers
	Text      *TextManager
	Sound     SoundPlayer
	RNG       *RNG

	scenes     map[string]*Scene
	sceneOrder []string
	current    *Scene

	props   map[string]string
	cutMode bool
	time    float64
	output  []string

	logger *zap.Logger
}

// New creates an empty world. A nil logger discards output.
func New(logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &World{
		Inventory: NewActorSet(),
		UIActors:  NewActorSet(),
		Verbs:     verb.NewManager(),
		Flows:     newFlows(),
		Timers:    &Timers{},
		RNG:       NewRNG(0),
		scenes:    map[string]*Scene{},
		props:     map[string]string{},
		logger:    logger,
	}
	w.Text = newTextManager(w.Print)
	w.Sound = printSound{w: w}
	return w
}

// Logger returns the world logger.
func (w *World) Logger() *zap.Logger { return w.logger }

// Print appends a line to the pending output.
func (w *World) Print(line string) { w.output = append(w.output, line) }

// Drain returns and clears the pending output.
func (w *World) Drain() []string {
	out := w.output
	w.output = nil
	return out
}

// AddScene registers a scene.
func (w *World) AddScene(s *Scene) {
	if _, ok := w.scenes[s.ID]; !ok {
		w.sceneOrder = append(w.sceneOrder, s.ID)
	}
	w.scenes[s.ID] = s
}

// Scene returns the scene with the given id, or nil.
func (w *World) Scene(id string) *Scene { return w.scenes[id] }

// Scenes returns every scene in definition order.
func (w *World) Scenes() []*Scene {
	out := make([]*Scene, 0, len(w.sceneOrder))
	for _, id := range w.sceneOrder {
		out = append(out, w.scenes[id])
	}
	return out
}

// CurrentScene returns the active scene, or nil before the game starts.
func (w *World) CurrentScene() *Scene { return w.current }

// SetCurrentScene makes id the active scene and runs its init verb.
func (w *World) SetCurrentScene(id string) error {
	s := w.scenes[id]
	if s == nil {
		return fmt.Errorf("scene %q: %w", id, ErrNotFound)
	}
	w.current = s
	w.logger.Debug("scene changed", zap.String("scene", id))
	if v := s.Verbs.Get("init", s.State, ""); v != nil {
		if err := v.Run("", nil); err != nil {
			w.logger.Warn("scene init", zap.String("scene", id), zap.Error(err))
		}
	}
	return nil
}

// RestoreCurrentScene sets the active scene without running init.
func (w *World) RestoreCurrentScene(id string) error {
	s := w.scenes[id]
	if s == nil {
		return fmt.Errorf("scene %q: %w", id, ErrNotFound)
	}
	w.current = s
	return nil
}

// Actor returns an actor in the current scene, the inventory or the UI
// actors, searched in that order.
func (w *World) Actor(id string) *Actor {
	if w.current != nil {
		if a := w.current.Actor(id); a != nil {
			return a
		}
	}
	if a := w.Inventory.Get(id); a != nil {
		return a
	}
	return w.UIActors.Get(id)
}

// FindActor searches everywhere and returns the actor with its location:
// a scene id, LocInventory or LocUIActors.
func (w *World) FindActor(id string) (*Actor, string) {
	if a := w.Inventory.Get(id); a != nil {
		return a, LocInventory
	}
	if a := w.UIActors.Get(id); a != nil {
		return a, LocUIActors
	}
	if w.current != nil {
		if a := w.current.Actor(id); a != nil {
			return a, w.current.ID
		}
	}
	for _, sid := range w.sceneOrder {
		if a := w.scenes[sid].Actor(id); a != nil {
			return a, sid
		}
	}
	return nil, ""
}

// MoveActor moves an actor to a scene id, LocInventory or LocUIActors.
func (w *World) MoveActor(id, loc string) error {
	a, from := w.FindActor(id)
	if a == nil {
		return fmt.Errorf("actor %q: %w", id, ErrNotFound)
	}
	if from == loc {
		return nil
	}
	var to func(*Actor)
	switch loc {
	case LocInventory:
		to = w.Inventory.Add
	case LocUIActors:
		to = w.UIActors.Add
	default:
		s := w.scenes[loc]
		if s == nil {
			return fmt.Errorf("scene %q: %w", loc, ErrNotFound)
		}
		to = s.AddActor
	}

	switch from {
	case LocInventory:
		w.Inventory.Remove(id)
	case LocUIActors:
		w.UIActors.Remove(id)
	default:
		w.scenes[from].RemoveActor(id)
	}
	to(a)
	return nil
}

// ResolveVerb finds the verb to run for id on owner with an optional target.
// Actor verbs fall back to the world defaults. A nil owner means the current
// scene, which also falls back to the defaults.
func (w *World) ResolveVerb(owner *Actor, id, target string) *verb.Verb {
	state := ""
	if owner != nil {
		state = owner.State
		if v := owner.Verbs.Get(id, state, target); v != nil {
			return v
		}
	} else if w.current != nil {
		state = w.current.State
		if v := w.current.Verbs.Get(id, state, target); v != nil {
			return v
		}
	}
	return w.Verbs.Get(id, state, target)
}

// Property returns a custom world property.
func (w *World) Property(name string) string { return w.props[name] }

// SetProperty sets a custom world property. An empty value removes it.
func (w *World) SetProperty(name, value string) {
	if value == "" {
		delete(w.props, name)
		return
	}
	w.props[name] = value
}

// Properties returns a copy of every custom property.
func (w *World) Properties() map[string]string {
	out := make(map[string]string, len(w.props))
	for k, v := range w.props {
		out[k] = v
	}
	return out
}

func (w *World) CutMode() bool      { return w.cutMode }
func (w *World) SetCutMode(on bool) { w.cutMode = on }

// Time returns the elapsed game time in seconds.
func (w *World) Time() float64 { return w.time }

// SetTime restores the elapsed game time.
func (w *World) SetTime(t float64) { w.time = t }

// Update advances game time by delta seconds.
func (w *World) Update(delta float64) {
	if delta <= 0 {
		return
	}
	w.time += delta
	w.Timers.Update(delta)
	w.Text.Update(delta)
}

// VerbOwner pairs a verb manager with the owner it belongs to.
type VerbOwner struct {
	Scene   string // empty for inventory, UI actors, defaults and flows
	Actor   string // empty for scene verbs, defaults and flows
	Loc     string // LocInventory, LocUIActors, scene id, "DEFAULT_VERB" or "INK_MANAGER"
	Manager *verb.Manager
}

// Owners lists every verb manager in the world in a stable order.
func (w *World) Owners() []VerbOwner {
	var out []VerbOwner
	for _, s := range w.Scenes() {
		out = append(out, VerbOwner{Scene: s.ID, Loc: s.ID, Manager: s.Verbs})
		for _, a := range s.Actors() {
			out = append(out, VerbOwner{Scene: s.ID, Actor: a.ID, Loc: s.ID, Manager: a.Verbs})
		}
	}
	for _, a := range w.Inventory.Actors() {
		out = append(out, VerbOwner{Actor: a.ID, Loc: LocInventory, Manager: a.Verbs})
	}
	for _, a := range w.UIActors.Actors() {
		out = append(out, VerbOwner{Actor: a.ID, Loc: LocUIActors, Manager: a.Verbs})
	}
	out = append(out, VerbOwner{Loc: "DEFAULT_VERB", Manager: w.Verbs})
	return out
}

// RunningVerbs returns every running or suspended verb and flow.
func (w *World) RunningVerbs() []*verb.Verb {
	var out []*verb.Verb
	for _, o := range w.Owners() {
		out = append(out, o.Manager.Running()...)
	}
	for _, f := range w.Flows.Runners() {
		if f.IP() >= 0 {
			out = append(out, f)
		}
	}
	return out
}

// Busy reports whether anything is still pending: a suspended verb, a
// timer or a text on screen.
func (w *World) Busy() bool {
	return w.Timers.Len() > 0 || w.Text.Current() != nil || len(w.RunningVerbs()) > 0
}

// CancelAll cancels every running verb and flow and clears timers and text.
func (w *World) CancelAll() {
	for _, v := range w.RunningVerbs() {
		v.Cancel()
	}
	w.Timers.Clear()
	w.Text.Clear()
}

// SceneIDs returns the scene ids, sorted.
func (w *World) SceneIDs() []string {
	ids := append([]string(nil), w.sceneOrder...)
	sort.Strings(ids)
	return ids
}
