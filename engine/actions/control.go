package actions

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/world"
)

// Control actions open a block that runs only when their condition holds.
// Every block ends with an EndAction.

// IfAttrAction tests an actor attribute.
type IfAttrAction struct {
	worldRef
	Actor string
	Attr  string
	Value string
}

func (a *IfAttrAction) OpensBlock() {}

func (a *IfAttrAction) Params() []action.Field {
	return []action.Field{
		action.ActorRef("actor", &a.Actor).Required(),
		action.Option("attr", &a.Attr, "state", "visible", "interactive", "inventory").Default("state"),
		action.String("value", &a.Value),
	}
}

func (a *IfAttrAction) Run(r action.Runner) bool {
	if !a.holds(r) {
		action.SkipBlock(r)
	}
	return false
}

func (a *IfAttrAction) holds(r action.Runner) bool {
	id := a.actorID(r, a.Actor)
	act, loc := a.w.FindActor(id)
	if act == nil {
		a.logger().Error("if_attr: actor not found", zap.String("actor", id))
		return false
	}
	switch a.Attr {
	case "visible":
		return boolIs(act.Visible, a.Value)
	case "interactive":
		return boolIs(act.Interactive, a.Value)
	case "inventory":
		return boolIs(loc == world.LocInventory, a.Value)
	default:
		return act.State == a.Value
	}
}

// IfPropertyAction tests a custom world property.
type IfPropertyAction struct {
	worldRef
	Prop  string
	Value string
}

func (a *IfPropertyAction) OpensBlock() {}

func (a *IfPropertyAction) Params() []action.Field {
	return []action.Field{
		action.String("prop", &a.Prop).Required(),
		action.String("value", &a.Value).Describe("Empty tests that the property is unset."),
	}
}

func (a *IfPropertyAction) Run(r action.Runner) bool {
	if a.w.Property(a.Prop) != a.Value {
		action.SkipBlock(r)
	}
	return false
}

// IfRandomAction runs its block with the given probability using the
// world RNG.
type IfRandomAction struct {
	worldRef
	Chance float64
}

func (a *IfRandomAction) OpensBlock() {}

func (a *IfRandomAction) Params() []action.Field {
	return []action.Field{
		action.Float("chance", &a.Chance).Default("0.5").Describe("Probability in [0, 1]."),
	}
}

func (a *IfRandomAction) Run(r action.Runner) bool {
	if !a.w.RNG.Chance(a.Chance) {
		action.SkipBlock(r)
	}
	return false
}

// EndAction closes a control block.
type EndAction struct{}

func (a *EndAction) ClosesBlock()           {}
func (a *EndAction) Params() []action.Field { return nil }
func (a *EndAction) Run(action.Runner) bool { return false }

// boolIs compares b with a textual boolean. An empty or invalid value
// means true.
func boolIs(b bool, value string) bool {
	want, err := strconv.ParseBool(value)
	if err != nil {
		want = true
	}
	return b == want
}
