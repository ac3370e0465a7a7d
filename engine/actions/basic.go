package actions

import (
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/types"
)

// CommentAction does nothing. With Debug set it logs its text.
type CommentAction struct {
	worldRef
	Comment string
	Debug   bool
}

func (a *CommentAction) Params() []action.Field {
	return []action.Field{
		action.Text("comment", &a.Comment).Describe("Free text for authors."),
		action.Bool("debug", &a.Debug).Default("false").Describe("Log the comment when run."),
	}
}

func (a *CommentAction) Run(action.Runner) bool {
	if a.Debug {
		a.logger().Debug("comment", zap.String("text", a.Comment))
	}
	return false
}

// SetStateAction changes the state of an actor, or of the current scene
// when no actor is given.
type SetStateAction struct {
	worldRef
	Actor string
	State string
}

func (a *SetStateAction) Params() []action.Field {
	return []action.Field{
		action.ActorRef("actor", &a.Actor).Describe("Actor to change; empty for the scene."),
		action.String("state", &a.State).Describe("New state; empty clears it."),
	}
}

func (a *SetStateAction) Run(r action.Runner) bool {
	if a.Actor == "" {
		if s := a.w.CurrentScene(); s != nil {
			s.State = a.State
		}
		return false
	}
	if act := a.actor(r, a.Actor); act != nil {
		act.State = a.State
	}
	return false
}

// SetAttrAction changes visibility, interactivity or description.
type SetAttrAction struct {
	worldRef
	Actor       string
	Visible     *bool
	Interactive *bool
	Desc        string
}

func (a *SetAttrAction) Params() []action.Field {
	return []action.Field{
		action.ActorRef("actor", &a.Actor).Required(),
		action.OptionalBool("visible", &a.Visible),
		action.OptionalBool("interactive", &a.Interactive),
		action.Text("desc", &a.Desc).Describe("New description; empty leaves it."),
	}
}

func (a *SetAttrAction) Run(r action.Runner) bool {
	act := a.actor(r, a.Actor)
	if act == nil {
		return false
	}
	if a.Visible != nil {
		act.Visible = *a.Visible
	}
	if a.Interactive != nil {
		act.Interactive = *a.Interactive
	}
	if a.Desc != "" {
		act.Desc = a.Desc
	}
	return false
}

// PositionAction places an actor.
type PositionAction struct {
	worldRef
	Actor string
	Pos   types.Vector2
}

func (a *PositionAction) Params() []action.Field {
	return []action.Field{
		action.ActorRef("actor", &a.Actor).Required(),
		action.Vector("pos", &a.Pos).Required(),
	}
}

func (a *PositionAction) Run(r action.Runner) bool {
	if act := a.actor(r, a.Actor); act != nil {
		act.Pos = a.Pos
	}
	return false
}

// SoundAction sends play and stop cues to the sound player.
type SoundAction struct {
	worldRef
	Play string
	Stop string
}

func (a *SoundAction) Params() []action.Field {
	return []action.Field{
		action.String("play", &a.Play),
		action.String("stop", &a.Stop),
	}
}

func (a *SoundAction) Run(action.Runner) bool {
	if a.Stop != "" {
		a.w.Sound.Stop(a.Stop)
	}
	if a.Play != "" {
		a.w.Sound.Play(a.Play)
	}
	return false
}

// PropertyAction sets a custom world property.
type PropertyAction struct {
	worldRef
	Prop  string
	Value string
}

func (a *PropertyAction) Params() []action.Field {
	return []action.Field{
		action.String("prop", &a.Prop).Required(),
		action.String("value", &a.Value).Describe("Empty removes the property."),
	}
}

func (a *PropertyAction) Run(action.Runner) bool {
	a.w.SetProperty(a.Prop, a.Value)
	return false
}

// CutmodeAction turns cut mode (player input blocked) on or off.
type CutmodeAction struct {
	worldRef
	Value bool
}

func (a *CutmodeAction) Params() []action.Field {
	return []action.Field{action.Bool("value", &a.Value).Default("true")}
}

func (a *CutmodeAction) Run(action.Runner) bool {
	a.w.SetCutMode(a.Value)
	return false
}
