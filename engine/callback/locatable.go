package callback

import (
	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/verb"
	"github.com/nathoo/scenecore/engine/world"
)

// Locatable is one owner of callbacks that can address them.
//
// Resolve reports owned=true when the address belongs to this provider,
// even if the verb or index inside it does not exist (cb is then nil).
type Locatable interface {
	AddressOf(cb action.Callback) (Address, bool)
	Resolve(addr Address) (cb action.Callback, owned bool)
}

// managerLocator addresses the verbs of a single verb manager.
type managerLocator struct {
	scope Scope
	owner string
	m     *verb.Manager
}

func (l managerLocator) AddressOf(cb action.Callback) (Address, bool) {
	for _, v := range l.m.Verbs() {
		if idx, ok := indexIn(v, cb); ok {
			return Address{Scope: l.scope, Owner: l.owner, Verb: v.Key(), Index: idx}, true
		}
	}
	return Address{}, false
}

func (l managerLocator) Resolve(addr Address) (action.Callback, bool) {
	if addr.Scope != l.scope || addr.Owner != l.owner {
		return nil, false
	}
	return resolveIn(l.m.Lookup(addr.Verb), addr.Index), true
}

// actorsLocator addresses the verbs of a list of actors.
type actorsLocator struct {
	scope  Scope
	actors []*world.Actor
	lookup func(id string) *world.Actor
}

func (l actorsLocator) AddressOf(cb action.Callback) (Address, bool) {
	for _, a := range l.actors {
		if addr, ok := (managerLocator{l.scope, a.ID, a.Verbs}).AddressOf(cb); ok {
			return addr, true
		}
	}
	return Address{}, false
}

func (l actorsLocator) Resolve(addr Address) (action.Callback, bool) {
	if addr.Scope != l.scope {
		return nil, false
	}
	a := l.lookup(addr.Owner)
	if a == nil {
		return nil, false
	}
	return resolveIn(a.Verbs.Lookup(addr.Verb), addr.Index), true
}

// flowsLocator addresses dialog flows and their actions.
type flowsLocator struct {
	flows *world.Flows
}

func (l flowsLocator) AddressOf(cb action.Callback) (Address, bool) {
	for _, f := range l.flows.Runners() {
		if idx, ok := indexIn(f, cb); ok {
			return Address{Scope: ScopeFlow, Verb: f.ID(), Index: idx}, true
		}
	}
	return Address{}, false
}

func (l flowsLocator) Resolve(addr Address) (action.Callback, bool) {
	if addr.Scope != ScopeFlow {
		return nil, false
	}
	return resolveIn(l.flows.Runner(addr.Verb), addr.Index), true
}

// indexIn reports -1 when cb is the verb itself, or the index of the action
// that is cb.
func indexIn(v *verb.Verb, cb action.Callback) (int, bool) {
	if action.Callback(v) == cb {
		return -1, true
	}
	for i, a := range v.Actions() {
		if c, ok := a.(action.Callback); ok && c == cb {
			return i, true
		}
	}
	return 0, false
}

func resolveIn(v *verb.Verb, idx int) action.Callback {
	if v == nil {
		return nil
	}
	if idx < 0 {
		return v
	}
	actions := v.Actions()
	if idx >= len(actions) {
		return nil
	}
	c, _ := actions[idx].(action.Callback)
	return c
}
