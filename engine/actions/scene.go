package actions

import (
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/world"
)

// PickUpAction moves an actor from the scene into the inventory.
type PickUpAction struct {
	worldRef
	Actor string
}

func (a *PickUpAction) Params() []action.Field {
	return []action.Field{action.ActorRef("actor", &a.Actor).Required()}
}

func (a *PickUpAction) Run(r action.Runner) bool {
	id := a.actorID(r, a.Actor)
	if err := a.w.MoveActor(id, world.LocInventory); err != nil {
		a.logger().Error("pickup", zap.Error(err))
	}
	return false
}

// DropItemAction moves an inventory item into the current scene.
type DropItemAction struct {
	worldRef
	Actor string
}

func (a *DropItemAction) Params() []action.Field {
	return []action.Field{action.ActorRef("actor", &a.Actor).Required()}
}

func (a *DropItemAction) Run(r action.Runner) bool {
	s := a.w.CurrentScene()
	if s == nil {
		return false
	}
	id := a.actorID(r, a.Actor)
	if err := a.w.MoveActor(id, s.ID); err != nil {
		a.logger().Error("drop_item", zap.Error(err))
	}
	return false
}

// LeaveAction changes the current scene.
type LeaveAction struct {
	worldRef
	Scene string
}

func (a *LeaveAction) Params() []action.Field {
	return []action.Field{action.SceneRef("scene", &a.Scene).Required()}
}

func (a *LeaveAction) Run(action.Runner) bool {
	if err := a.w.SetCurrentScene(a.Scene); err != nil {
		a.logger().Error("leave", zap.Error(err))
	}
	return false
}

// DialogAction runs a dialog flow.
type DialogAction struct {
	worldRef
	action.CallbackAction
	Flow string
}

// NewDialogAction returns a dialog action that waits for the flow.
func NewDialogAction() *DialogAction {
	return &DialogAction{CallbackAction: action.NewCallbackAction()}
}

func (a *DialogAction) Params() []action.Field {
	return []action.Field{
		action.String("flow", &a.Flow).Required(),
		a.WaitField(),
	}
}

func (a *DialogAction) Run(r action.Runner) bool {
	wait := a.Begin(r)
	if err := a.w.Flows.Run(a.Flow, a); err != nil {
		a.logger().Error("dialog", zap.Error(err))
		a.Release()
		return false
	}
	return wait
}

func (a *DialogAction) Cancel() {
	a.Release()
	if f := a.w.Flows.Runner(a.Flow); f != nil && f.Callback() == action.Callback(a) {
		f.Cancel()
	}
}
