package actions

import (
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/verb"
)

// RunVerbAction runs another verb and, when waiting, resumes its runner once
// that verb finishes.
type RunVerbAction struct {
	worldRef
	action.CallbackAction
	Actor  string
	Verb   string
	Target string

	running *verb.Verb
}

// NewRunVerbAction returns a run_verb action that waits.
func NewRunVerbAction() *RunVerbAction {
	return &RunVerbAction{CallbackAction: action.NewCallbackAction()}
}

func (a *RunVerbAction) Params() []action.Field {
	return []action.Field{
		action.ActorRef("actor", &a.Actor).Describe("Verb owner; empty for the scene."),
		action.VerbRef("verb", &a.Verb).Required(),
		action.ActorRef("target", &a.Target),
		a.WaitField(),
	}
}

func (a *RunVerbAction) Run(r action.Runner) bool {
	v, target := a.resolve(r)
	if v == nil {
		a.logger().Error("run_verb: verb not found",
			zap.String("actor", a.Actor), zap.String("verb", a.Verb))
		return false
	}
	wait := a.Begin(r)
	a.running = v
	if err := v.Run(target, a); err != nil {
		a.Release()
		a.running = nil
		return false
	}
	return wait
}

// Resume is called by the nested verb when it ends.
func (a *RunVerbAction) Resume() {
	a.running = nil
	a.CallbackAction.Resume()
}

func (a *RunVerbAction) Cancel() {
	a.Release()
	if v := a.running; v != nil {
		a.running = nil
		v.Cancel()
	}
}

// Restore re-attaches the nested verb after a saved game is loaded.
func (a *RunVerbAction) Restore() {
	for _, v := range a.w.RunningVerbs() {
		if v.Callback() == action.Callback(a) {
			a.running = v
			return
		}
	}
}

func (a *RunVerbAction) resolve(r action.Runner) (*verb.Verb, string) {
	target := a.actorID(r, a.Target)
	if a.Actor == "" {
		return a.w.ResolveVerb(nil, a.Verb, target), target
	}
	act := a.actor(r, a.Actor)
	if act == nil {
		return nil, target
	}
	return a.w.ResolveVerb(act, a.Verb, target), target
}

// CancelVerbAction cancels a running verb.
type CancelVerbAction struct {
	worldRef
	Actor  string
	Verb   string
	Target string
}

func (a *CancelVerbAction) Params() []action.Field {
	return []action.Field{
		action.ActorRef("actor", &a.Actor).Describe("Verb owner; empty for the scene."),
		action.VerbRef("verb", &a.Verb).Required(),
		action.ActorRef("target", &a.Target),
	}
}

func (a *CancelVerbAction) Run(r action.Runner) bool {
	target := a.actorID(r, a.Target)
	var v *verb.Verb
	if a.Actor == "" {
		v = a.w.ResolveVerb(nil, a.Verb, target)
	} else if act := a.actor(r, a.Actor); act != nil {
		v = a.w.ResolveVerb(act, a.Verb, target)
	}
	if v == nil {
		a.logger().Error("cancel_verb: verb not found",
			zap.String("actor", a.Actor), zap.String("verb", a.Verb))
		return false
	}
	v.Cancel()
	return false
}
