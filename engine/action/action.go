// Package action defines the executable unit of a verb: the Action interface,
// its parameter schema, the runner/callback contract, and the registry that
// builds actions from authored names and parameters.
package action

// Callback is something that can be resumed when asynchronous work completes.
type Callback interface {
	Resume()
}

// Runner executes an ordered list of actions with a cursor. Verbs and dialog
// flows are runners; control actions move the cursor through SetIP.
type Runner interface {
	Callback
	Actions() []Action
	CurrentTarget() string
	IP() int
	SetIP(ip int)
	Cancel()
}

// Action is a single step of a runner.
//
// Run executes the action and reports whether the runner must wait for the
// action's callback before advancing.
type Action interface {
	Params() []Field
	Run(r Runner) (wait bool)
}

// Canceler is implemented by actions that register pending work (timers,
// queued text, nested verbs). Cancel must unregister it so no callback
// fires into a cancelled runner.
type Canceler interface {
	Cancel()
}

// Stateful actions carry runtime fields that are saved separately from
// their authored parameters.
type Stateful interface {
	SaveState() map[string]any
	LoadState(state map[string]any)
}

// Restorer actions re-establish transient in-memory state after a saved game
// has been loaded and every callback address has been resolved.
type Restorer interface {
	Restore()
}

// RunnerHolder actions keep a back reference to the runner that is waiting
// on them. The reference is persisted as a callback address.
type RunnerHolder interface {
	Runner() Runner
	SetRunner(r Runner)
}

// Opener marks an action that opens a conditional block closed by a Closer.
type Opener interface {
	OpensBlock()
}

// Closer marks the end of a conditional block.
type Closer interface {
	ClosesBlock()
}
