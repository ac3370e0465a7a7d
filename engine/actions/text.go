package actions

import (
	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/world"
)

var textTypes = []string{string(world.TextSubtitle), string(world.TextTalk), string(world.TextPlain)}

// SayAction shows a line spoken by an actor. With type talk the actor plays
// its talk animation until the text ends.
type SayAction struct {
	worldRef
	action.CallbackAction
	Actor     string
	Text      string
	Type      string
	Animation string
	Queue     bool

	actorID      string
	previousAnim string
}

// NewSayAction returns a subtitle that waits.
func NewSayAction() *SayAction {
	return &SayAction{CallbackAction: action.NewCallbackAction(), Type: string(world.TextSubtitle)}
}

func (a *SayAction) Params() []action.Field {
	return []action.Field{
		action.ActorRef("actor", &a.Actor).Describe("Speaker; empty for narration."),
		action.Text("text", &a.Text).Required(),
		action.Option("type", &a.Type, textTypes...).Default(string(world.TextSubtitle)),
		action.String("animation", &a.Animation).Describe("Talk animation; defaults to the actor's."),
		action.Bool("queue", &a.Queue).Default("false").Describe("Queue behind the current text."),
		a.WaitField(),
	}
}

func (a *SayAction) Run(r action.Runner) bool {
	wait := a.Begin(r)

	t := world.Text{Str: a.Text, Type: world.TextType(a.Type), CB: a}
	a.actorID, a.previousAnim = "", ""
	if a.Actor != "" {
		if act := a.actor(r, a.Actor); act != nil {
			a.actorID = act.ID
			t.Actor = act.ID
			t.Speaker = act.Name()
			if t.Type == world.TextTalk {
				a.previousAnim = act.Anim
				act.Anim = a.talkAnim(act)
			}
		}
	}
	a.w.Text.Add(t, a.Queue)
	return wait
}

// Resume restores the speaker animation and resumes the runner.
func (a *SayAction) Resume() {
	a.restoreAnim()
	a.CallbackAction.Resume()
}

func (a *SayAction) Cancel() {
	a.w.Text.Remove(a)
	a.restoreAnim()
	a.Release()
}

// Restore puts the speaker back in its talk animation after loading.
func (a *SayAction) Restore() {
	if a.previousAnim == "" {
		return
	}
	if act := a.w.Actor(a.actorID); act != nil {
		act.Anim = a.talkAnim(act)
	}
}

func (a *SayAction) SaveState() map[string]any {
	return map[string]any{"actor": a.actorID, "previousAnim": a.previousAnim}
}

func (a *SayAction) LoadState(s map[string]any) {
	a.actorID = stateString(s, "actor")
	a.previousAnim = stateString(s, "previousAnim")
}

func (a *SayAction) talkAnim(act *world.Actor) string {
	if a.Animation != "" {
		return a.Animation
	}
	return act.TalkAnim
}

func (a *SayAction) restoreAnim() {
	if a.previousAnim == "" {
		return
	}
	if act := a.w.Actor(a.actorID); act != nil {
		act.Anim = a.previousAnim
	}
	a.previousAnim = ""
}

// TextAction shows narration text.
type TextAction struct {
	worldRef
	action.CallbackAction
	Text  string
	Type  string
	Queue bool
}

// NewTextAction returns a plain text that waits.
func NewTextAction() *TextAction {
	return &TextAction{CallbackAction: action.NewCallbackAction(), Type: string(world.TextPlain)}
}

func (a *TextAction) Params() []action.Field {
	return []action.Field{
		action.Text("text", &a.Text).Required(),
		action.Option("type", &a.Type, textTypes...).Default(string(world.TextPlain)),
		action.Bool("queue", &a.Queue).Default("false"),
		a.WaitField(),
	}
}

func (a *TextAction) Run(r action.Runner) bool {
	wait := a.Begin(r)
	a.w.Text.Add(world.Text{Str: a.Text, Type: world.TextType(a.Type), CB: a}, a.Queue)
	return wait
}

func (a *TextAction) Cancel() {
	a.w.Text.Remove(a)
	a.Release()
}
