package world

import (
	"fmt"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/verb"
)

// Flows holds the named dialog flows. Each flow is a runner with a static
// action list; the flow itself is the callback its actions resume.
type Flows struct {
	byName map[string]*verb.Verb
	order  []string
}

func newFlows() *Flows {
	return &Flows{byName: map[string]*verb.Verb{}}
}

// Add registers a flow runner under its id.
func (f *Flows) Add(v *verb.Verb) {
	if _, ok := f.byName[v.ID()]; !ok {
		f.order = append(f.order, v.ID())
	}
	f.byName[v.ID()] = v
}

// Runner returns the flow with the given name, or nil.
func (f *Flows) Runner(name string) *verb.Verb { return f.byName[name] }

// Runners returns every flow in definition order.
func (f *Flows) Runners() []*verb.Verb {
	out := make([]*verb.Verb, 0, len(f.order))
	for _, n := range f.order {
		out = append(out, f.byName[n])
	}
	return out
}

// Run starts a flow. cb is resumed when the flow ends.
func (f *Flows) Run(name string, cb action.Callback) error {
	v := f.byName[name]
	if v == nil {
		return fmt.Errorf("flow %q not found", name)
	}
	return v.Run("", cb)
}
