package actions

import "github.com/nathoo/scenecore/engine/action"

// WaitAction suspends its runner for Time seconds of game time.
type WaitAction struct {
	worldRef
	action.CallbackAction
	Time float64
}

// NewWaitAction returns a one second wait.
func NewWaitAction() *WaitAction {
	return &WaitAction{CallbackAction: action.NewCallbackAction(), Time: 1}
}

func (a *WaitAction) Params() []action.Field {
	return []action.Field{
		action.Float("time", &a.Time).Required().Default("1").Describe("Seconds to wait."),
	}
}

func (a *WaitAction) Run(r action.Runner) bool {
	a.Begin(r)
	a.w.Timers.Add(a.Time, a)
	return true
}

func (a *WaitAction) Cancel() {
	a.w.Timers.Remove(a)
	a.Release()
}

// AnimationAction plays a named animation on an actor for a duration. When
// it ends the actor returns to its previous animation unless Keep is set.
type AnimationAction struct {
	worldRef
	action.CallbackAction
	Actor     string
	Animation string
	Time      float64
	Keep      bool

	actorID      string
	previousAnim string
}

// NewAnimationAction returns an animation action that waits.
func NewAnimationAction() *AnimationAction {
	return &AnimationAction{CallbackAction: action.NewCallbackAction(), Time: 1}
}

func (a *AnimationAction) Params() []action.Field {
	return []action.Field{
		action.ActorRef("actor", &a.Actor).Required(),
		action.String("animation", &a.Animation).Required(),
		action.Float("time", &a.Time).Default("1").Describe("Duration in seconds."),
		action.Bool("keep", &a.Keep).Default("false").Describe("Keep the animation when it ends."),
		a.WaitField(),
	}
}

func (a *AnimationAction) Run(r action.Runner) bool {
	act := a.actor(r, a.Actor)
	if act == nil {
		return false
	}
	a.actorID = act.ID
	a.previousAnim = act.Anim
	act.Anim = a.Animation

	wait := a.Begin(r)
	a.w.Timers.Add(a.Time, a)
	return wait
}

// Resume ends the animation and resumes the runner when waiting.
func (a *AnimationAction) Resume() {
	a.restoreAnim()
	a.CallbackAction.Resume()
}

func (a *AnimationAction) Cancel() {
	a.w.Timers.Remove(a)
	a.restoreAnim()
	a.Release()
}

// Restore shows the animation again after a saved game is loaded.
func (a *AnimationAction) Restore() {
	if act := a.w.Actor(a.actorID); act != nil && a.previousAnim != "" {
		act.Anim = a.Animation
	}
}

func (a *AnimationAction) SaveState() map[string]any {
	return map[string]any{"actor": a.actorID, "previousAnim": a.previousAnim}
}

func (a *AnimationAction) LoadState(s map[string]any) {
	a.actorID = stateString(s, "actor")
	a.previousAnim = stateString(s, "previousAnim")
}

func (a *AnimationAction) restoreAnim() {
	if a.Keep || a.previousAnim == "" {
		a.previousAnim = ""
		return
	}
	if act := a.w.Actor(a.actorID); act != nil {
		act.Anim = a.previousAnim
	}
	a.previousAnim = ""
}

// stateString reads a string from decoded action state, which may come
// from JSON or msgpack.
func stateString(s map[string]any, key string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}
