// Package actions holds the built-in action vocabulary and registers it.
package actions

import (
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/world"
)

// Actor references with special meaning.
const (
	RefTarget = "$TARGET" // the target the verb was run with
	RefPlayer = "$PLAYER" // the player of the current scene
)

// Register adds every built-in action to reg.
func Register(reg *action.Registry) {
	reg.Register("comment", "actions.CommentAction", func() action.Action { return &CommentAction{} })
	reg.Register("wait", "actions.WaitAction", func() action.Action { return NewWaitAction() })
	reg.Register("say", "actions.SayAction", func() action.Action { return NewSayAction() })
	reg.Register("text", "actions.TextAction", func() action.Action { return NewTextAction() })
	reg.Register("set_state", "actions.SetStateAction", func() action.Action { return &SetStateAction{} })
	reg.Register("set_attr", "actions.SetAttrAction", func() action.Action { return &SetAttrAction{} })
	reg.Register("position", "actions.PositionAction", func() action.Action { return &PositionAction{} })
	reg.Register("sound", "actions.SoundAction", func() action.Action { return &SoundAction{} })
	reg.Register("property", "actions.PropertyAction", func() action.Action { return &PropertyAction{} })
	reg.Register("cutmode", "actions.CutmodeAction", func() action.Action { return &CutmodeAction{Value: true} })
	reg.Register("run_verb", "actions.RunVerbAction", func() action.Action { return NewRunVerbAction() })
	reg.Register("cancel_verb", "actions.CancelVerbAction", func() action.Action { return &CancelVerbAction{} })
	reg.Register("pickup", "actions.PickUpAction", func() action.Action { return &PickUpAction{} })
	reg.Register("drop_item", "actions.DropItemAction", func() action.Action { return &DropItemAction{} })
	reg.Register("leave", "actions.LeaveAction", func() action.Action { return &LeaveAction{} })
	reg.Register("dialog", "actions.DialogAction", func() action.Action { return NewDialogAction() })
	reg.Register("if_attr", "actions.IfAttrAction", func() action.Action { return &IfAttrAction{Attr: "state"} })
	reg.Register("if_property", "actions.IfPropertyAction", func() action.Action { return &IfPropertyAction{} })
	reg.Register("if_random", "actions.IfRandomAction", func() action.Action { return &IfRandomAction{Chance: 0.5} })
	reg.Register("end", "actions.EndAction", func() action.Action { return &EndAction{} })
	reg.Register("animation", "actions.AnimationAction", func() action.Action { return NewAnimationAction() })
}

// NewRegistry returns a registry holding every built-in action.
func NewRegistry(logger *zap.Logger) *action.Registry {
	reg := action.NewRegistry(logger)
	Register(reg)
	return reg
}

// worldRef is embedded by actions that need the world.
type worldRef struct {
	w *world.World
}

// Bind implements world.Binder.
func (b *worldRef) Bind(w *world.World) { b.w = w }

func (b *worldRef) logger() *zap.Logger {
	if b.w == nil {
		return zap.NewNop()
	}
	return b.w.Logger()
}

// actorID expands special references.
func (b *worldRef) actorID(r action.Runner, id string) string {
	switch id {
	case RefTarget:
		return r.CurrentTarget()
	case RefPlayer:
		if s := b.w.CurrentScene(); s != nil {
			return s.PlayerID
		}
		return ""
	}
	return id
}

// actor finds a referenced actor and logs when it is missing.
func (b *worldRef) actor(r action.Runner, id string) *world.Actor {
	id = b.actorID(r, id)
	a := b.w.Actor(id)
	if a == nil {
		b.logger().Error("actor not found", zap.String("actor", id))
	}
	return a
}
