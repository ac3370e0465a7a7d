// Package save captures the runtime state of a world, including suspended
// verbs and the callback addresses that link them, and restores it onto a
// freshly built world.
package save

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/callback"
	"github.com/nathoo/scenecore/engine/verb"
	"github.com/nathoo/scenecore/engine/world"
	"github.com/nathoo/scenecore/types"
)

// FormatVersion is written into every save.
const FormatVersion = "1"

// SaveData is the serializable save format.
type SaveData struct {
	ID           string                `json:"id"`
	Version      string                `json:"version"`
	Game         string                `json:"game"`
	GameVersion  string                `json:"game_version"`
	Time         float64               `json:"time"`
	Scene        string                `json:"scene"`
	CutMode      bool                  `json:"cut_mode"`
	Properties   map[string]string     `json:"properties"`
	RNGSeed      int64                 `json:"rng_seed"`
	RNGPosition  int64                 `json:"rng_position"`
	Scenes       map[string]SceneState `json:"scenes"`
	Actors       map[string]ActorState `json:"actors"`
	DefaultVerbs map[string]VerbState  `json:"default_verbs"`
	Flows        map[string]VerbState  `json:"flows"`
	Timers       []TimerState          `json:"timers"`
	Texts        []TextState           `json:"texts"`
}

// SceneState is the saved state of a scene.
type SceneState struct {
	State string               `json:"state,omitempty"`
	Verbs map[string]VerbState `json:"verbs,omitempty"`
}

// ActorState is the saved state of an actor. Location is a scene id,
// world.LocInventory or world.LocUIActors.
type ActorState struct {
	Location    string               `json:"location"`
	State       string               `json:"state,omitempty"`
	Desc        string               `json:"desc,omitempty"`
	Visible     bool                 `json:"visible"`
	Interactive bool                 `json:"interactive"`
	Pos         types.Vector2        `json:"pos"`
	Anim        string               `json:"anim,omitempty"`
	Verbs       map[string]VerbState `json:"verbs,omitempty"`
}

// VerbState is the runtime state of a verb. IP is -1 for an idle verb that
// is saved only for the state of its actions.
type VerbState struct {
	IP      int                 `json:"ip"`
	CB      string              `json:"cb,omitempty"`
	Target  string              `json:"target,omitempty"`
	Actions map[int]ActionState `json:"actions,omitempty"`
}

// ActionState is the runtime state of one action: the address of the runner
// waiting on it and its own resumable fields.
type ActionState struct {
	CB    string         `json:"cb,omitempty"`
	State map[string]any `json:"state,omitempty"`
}

// TimerState is a pending timer.
type TimerState struct {
	Time  float64 `json:"time"`
	CB    string  `json:"cb"`
	Scene string  `json:"scene,omitempty"` // scope of CB; empty means the current scene
}

// TextState is a pending text.
type TextState struct {
	Str     string  `json:"str"`
	Actor   string  `json:"actor,omitempty"`
	Speaker string  `json:"speaker,omitempty"`
	Type    string  `json:"type"`
	Time    float64 `json:"time"`
	CB      string  `json:"cb,omitempty"`
	Scene   string  `json:"scene,omitempty"` // scope of CB; empty means the current scene
}

// Snapshot captures the runtime state of w.
func Snapshot(w *world.World, ser *callback.Serializer) *SaveData {
	sd := &SaveData{
		ID:           uuid.NewString(),
		Version:      FormatVersion,
		Game:         w.Title,
		GameVersion:  w.Version,
		Time:         w.Time(),
		CutMode:      w.CutMode(),
		Properties:   w.Properties(),
		RNGSeed:      w.RNG.Seed(),
		RNGPosition:  w.RNG.Position(),
		Scenes:       map[string]SceneState{},
		Actors:       map[string]ActorState{},
		DefaultVerbs: map[string]VerbState{},
		Flows:        map[string]VerbState{},
	}
	cur := w.CurrentScene()
	if cur != nil {
		sd.Scene = cur.ID
	}

	for _, s := range w.Scenes() {
		sd.Scenes[s.ID] = SceneState{State: s.State, Verbs: snapshotVerbs(w, s, ser, s.Verbs)}
		for _, a := range s.Actors() {
			sd.Actors[a.ID] = snapshotActor(w, s, ser, a, s.ID)
		}
	}
	for _, a := range w.Inventory.Actors() {
		sd.Actors[a.ID] = snapshotActor(w, cur, ser, a, world.LocInventory)
	}
	for _, a := range w.UIActors.Actors() {
		sd.Actors[a.ID] = snapshotActor(w, cur, ser, a, world.LocUIActors)
	}
	sd.DefaultVerbs = snapshotVerbs(w, cur, ser, w.Verbs)
	for _, f := range w.Flows.Runners() {
		if vs, ok := snapshotVerb(w, cur, ser, f); ok {
			sd.Flows[f.ID()] = vs
		}
	}

	// A verb keeps running after its owner's scene is left, so timers and
	// texts are addressed relative to whichever scene owns them.
	for _, t := range w.Timers.Entries() {
		addr, scene, ok := ser.SerializeAnyScene(w, cur, t.CB)
		if !ok || addr == "" {
			continue
		}
		sd.Timers = append(sd.Timers, TimerState{Time: t.Time, CB: addr, Scene: scopeID(cur, scene)})
	}
	for _, t := range w.Text.Pending() {
		addr, scene, _ := ser.SerializeAnyScene(w, cur, t.CB)
		sd.Texts = append(sd.Texts, TextState{
			Str: t.Str, Actor: t.Actor, Speaker: t.Speaker,
			Type: string(t.Type), Time: t.Time, CB: addr, Scene: scopeID(cur, scene),
		})
	}
	return sd
}

// scopeID returns scene unless it is the current scene.
func scopeID(cur *world.Scene, scene string) string {
	if cur != nil && cur.ID == scene {
		return ""
	}
	return scene
}

func snapshotActor(w *world.World, s *world.Scene, ser *callback.Serializer, a *world.Actor, loc string) ActorState {
	return ActorState{
		Location:    loc,
		State:       a.State,
		Desc:        a.Desc,
		Visible:     a.Visible,
		Interactive: a.Interactive,
		Pos:         a.Pos,
		Anim:        a.Anim,
		Verbs:       snapshotVerbs(w, s, ser, a.Verbs),
	}
}

func snapshotVerbs(w *world.World, s *world.Scene, ser *callback.Serializer, m *verb.Manager) map[string]VerbState {
	out := map[string]VerbState{}
	for _, v := range m.Verbs() {
		if vs, ok := snapshotVerb(w, s, ser, v); ok {
			out[v.Key()] = vs
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// snapshotVerb reports ok=false for a verb with nothing worth saving.
func snapshotVerb(w *world.World, s *world.Scene, ser *callback.Serializer, v *verb.Verb) (VerbState, bool) {
	vs := VerbState{IP: v.IP(), Target: v.CurrentTarget()}
	if v.IP() >= 0 {
		vs.CB, _ = ser.Serialize(w, s, v.Callback())
	}
	for i, a := range v.Actions() {
		var as ActionState
		if h, ok := a.(action.RunnerHolder); ok && h.Runner() != nil {
			as.CB, _ = ser.Serialize(w, s, h.Runner())
		}
		if st, ok := a.(action.Stateful); ok {
			if m := st.SaveState(); !emptyState(m) {
				as.State = m
			}
		}
		if as.CB != "" || as.State != nil {
			if vs.Actions == nil {
				vs.Actions = map[int]ActionState{}
			}
			vs.Actions[i] = as
		}
	}
	return vs, v.IP() >= 0 || vs.Actions != nil
}

func emptyState(m map[string]any) bool {
	for _, v := range m {
		switch x := v.(type) {
		case nil:
		case string:
			if x != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Restore applies sd to a freshly built world. Structural state (actor
// locations, scene and actor attributes) is applied first; callback
// addresses are resolved only once the whole graph is in place.
// Unresolvable addresses are logged and dropped.
func Restore(w *world.World, ser *callback.Serializer, sd *SaveData) error {
	log := w.Logger()

	w.SetTime(sd.Time)
	w.SetCutMode(sd.CutMode)
	for k := range w.Properties() {
		w.SetProperty(k, "")
	}
	for k, v := range sd.Properties {
		w.SetProperty(k, v)
	}
	w.RNG = world.RestoreRNG(sd.RNGSeed, sd.RNGPosition)

	for _, id := range sortedKeys(sd.Actors) {
		st := sd.Actors[id]
		if err := w.MoveActor(id, st.Location); err != nil {
			log.Warn("restore actor", zap.String("actor", id), zap.Error(err))
			continue
		}
		a, _ := w.FindActor(id)
		a.State = st.State
		a.Desc = st.Desc
		a.Visible = st.Visible
		a.Interactive = st.Interactive
		a.Pos = st.Pos
		a.Anim = st.Anim
	}
	for id, st := range sd.Scenes {
		if s := w.Scene(id); s != nil {
			s.State = st.State
		}
	}
	if sd.Scene != "" {
		if err := w.RestoreCurrentScene(sd.Scene); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
	}
	cur := w.CurrentScene()

	// Second pass: every owner exists, resolve addresses.
	r := &restorer{w: w, ser: ser, log: log}
	for id, st := range sd.Scenes {
		if s := w.Scene(id); s != nil {
			r.verbs(s, s.Verbs, st.Verbs)
		}
	}
	for id, st := range sd.Actors {
		a, loc := w.FindActor(id)
		if a == nil {
			continue
		}
		scope := cur
		if s := w.Scene(loc); s != nil {
			scope = s
		}
		r.verbs(scope, a.Verbs, st.Verbs)
	}
	r.verbs(cur, w.Verbs, sd.DefaultVerbs)
	for name, vs := range sd.Flows {
		if f := w.Flows.Runner(name); f != nil {
			r.verb(cur, f, vs)
		} else {
			log.Warn("restore: flow not found", zap.String("flow", name))
		}
	}

	scope := func(id string) *world.Scene {
		if s := w.Scene(id); s != nil {
			return s
		}
		return cur
	}
	for _, t := range sd.Timers {
		if cb := ser.Find(w, scope(t.Scene), t.CB); cb != nil {
			w.Timers.Add(t.Time, cb)
		}
	}
	texts := make([]world.Text, 0, len(sd.Texts))
	for _, t := range sd.Texts {
		texts = append(texts, world.Text{
			Str: t.Str, Actor: t.Actor, Speaker: t.Speaker,
			Type: world.TextType(t.Type), Time: t.Time,
			CB: ser.Find(w, scope(t.Scene), t.CB),
		})
	}
	w.Text.Restore(texts)

	dropped := dropOrphans(w)
	for _, t := range r.touched {
		if !dropped[t.owner] {
			t.action.Restore()
		}
	}
	return nil
}

// dropOrphans resets every suspended verb whose in-flight action nothing
// will ever resume: no timer, text, nested verb or flow holds it. Resetting
// a nested verb can orphan its parent, so this runs to a fixed point.
func dropOrphans(w *world.World) map[*verb.Verb]bool {
	dropped := map[*verb.Verb]bool{}
	for {
		pending := map[action.Callback]bool{}
		for _, t := range w.Timers.Entries() {
			pending[t.CB] = true
		}
		for _, t := range w.Text.Pending() {
			if t.CB != nil {
				pending[t.CB] = true
			}
		}
		running := w.RunningVerbs()
		for _, v := range running {
			if cb := v.Callback(); cb != nil {
				pending[cb] = true
			}
		}

		changed := false
		for _, v := range running {
			if v.IP() >= len(v.Actions()) {
				continue
			}
			a := v.Actions()[v.IP()]
			if cb, ok := a.(action.Callback); ok && pending[cb] {
				continue
			}
			w.Logger().Warn("restore: nothing will resume verb, resetting it",
				zap.String("verb", v.Key()), zap.Int("ip", v.IP()))
			if h, ok := a.(action.RunnerHolder); ok {
				h.SetRunner(nil)
			}
			v.SetIP(-1)
			v.SetCallback(nil)
			dropped[v] = true
			changed = true
		}
		if !changed {
			return dropped
		}
	}
}

type restorer struct {
	w       *world.World
	ser     *callback.Serializer
	log     *zap.Logger
	touched []restored
}

type restored struct {
	owner  *verb.Verb
	action action.Restorer
}

func (r *restorer) verbs(s *world.Scene, m *verb.Manager, states map[string]VerbState) {
	for key, vs := range states {
		v := m.Lookup(key)
		if v == nil {
			r.log.Warn("restore: verb not found", zap.String("verb", key))
			continue
		}
		r.verb(s, v, vs)
	}
}

func (r *restorer) verb(s *world.Scene, v *verb.Verb, vs VerbState) {
	actions := v.Actions()
	if vs.IP >= len(actions) {
		r.log.Warn("restore: verb cursor out of range",
			zap.String("verb", v.Key()), zap.Int("ip", vs.IP))
		return
	}
	v.SetIP(vs.IP)
	v.SetCurrentTarget(vs.Target)
	v.SetCallback(r.ser.Find(r.w, s, vs.CB))

	for i, as := range vs.Actions {
		if i < 0 || i >= len(actions) {
			continue
		}
		a := actions[i]
		if h, ok := a.(action.RunnerHolder); ok && as.CB != "" {
			if runner, ok := r.ser.Find(r.w, s, as.CB).(action.Runner); ok {
				h.SetRunner(runner)
			}
		}
		if st, ok := a.(action.Stateful); ok && as.State != nil {
			st.LoadState(as.State)
		}
		if rs, ok := a.(action.Restorer); ok {
			r.touched = append(r.touched, restored{owner: v, action: rs})
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
