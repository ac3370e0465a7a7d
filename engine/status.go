package engine

import (
	"fmt"
	"sort"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/verb"
	"github.com/nathoo/scenecore/engine/world"
)

// Status is a snapshot of the live state for status bars and debug output.
type Status struct {
	Scene      string
	SceneState string
	Time       float64
	CutMode    bool
	Running    []string // keys of running or suspended verbs
	Timers     int
	Texts      int
}

// Status reports the current scene, clock and pending work.
func (e *Engine) Status() Status {
	w := e.World
	st := Status{Time: w.Time(), CutMode: w.CutMode(), Timers: w.Timers.Len()}
	if s := w.CurrentScene(); s != nil {
		st.Scene = s.ID
		st.SceneState = s.State
	}
	for _, v := range w.RunningVerbs() {
		st.Running = append(st.Running, v.Key())
	}
	if w.Text.Current() != nil {
		st.Texts = 1 + len(w.Text.Pending())
	}
	return st
}

// VerbInfo describes one verb for listings.
type VerbInfo struct {
	Key    string
	Status verb.Status
	IP     int
	Target string // current target while running
}

// Verbs lists the verbs of ownerID, or of the current scene when ownerID is
// empty.
func (e *Engine) Verbs(ownerID string) ([]VerbInfo, error) {
	var m *verb.Manager
	if ownerID == "" {
		s := e.World.CurrentScene()
		if s == nil {
			return nil, fmt.Errorf("no current scene: %w", world.ErrNotFound)
		}
		m = s.Verbs
	} else {
		a, _ := e.World.FindActor(ownerID)
		if a == nil {
			return nil, fmt.Errorf("actor %q: %w", ownerID, world.ErrNotFound)
		}
		m = a.Verbs
	}
	var out []VerbInfo
	for _, v := range m.Verbs() {
		out = append(out, VerbInfo{Key: v.Key(), Status: v.Status(), IP: v.IP(), Target: v.CurrentTarget()})
	}
	return out, nil
}

// Pending lists every outstanding callback with its persisted address, in
// the form a save file would store it. Unaddressable callbacks show "?".
func (e *Engine) Pending() []string {
	w := e.World
	s := w.CurrentScene()
	addr := func(cb action.Callback) string {
		if cb == nil {
			return "-"
		}
		a, ok := e.Serializer.Serialize(w, s, cb)
		if !ok {
			return "?"
		}
		return a
	}

	var out []string
	for _, v := range w.RunningVerbs() {
		out = append(out, fmt.Sprintf("verb %s ip=%d parent=%s", v.Key(), v.IP(), addr(v.Callback())))
	}
	for _, t := range w.Timers.Entries() {
		out = append(out, fmt.Sprintf("timer %.2fs -> %s", t.Time, addr(t.CB)))
	}
	if cur := w.Text.Current(); cur != nil {
		out = append(out, fmt.Sprintf("text %q -> %s", cur.Str, addr(cur.CB)))
	}
	sort.Strings(out)
	return out
}
