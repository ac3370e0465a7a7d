package action

// CallbackAction is embedded by actions that suspend their runner until an
// external event (timer, text, nested verb) calls Resume.
//
// When Wait is false the action lets its runner continue immediately and the
// eventual Resume is a no-op.
type CallbackAction struct {
	Wait   bool
	runner Runner
}

// NewCallbackAction returns a CallbackAction that waits by default.
func NewCallbackAction() CallbackAction {
	return CallbackAction{Wait: true}
}

// Runner returns the runner waiting on this action, if any.
func (c *CallbackAction) Runner() Runner { return c.runner }

// SetRunner records the runner waiting on this action.
func (c *CallbackAction) SetRunner(r Runner) { c.runner = r }

// Begin records the runner and returns the value Run should report.
func (c *CallbackAction) Begin(r Runner) bool {
	if c.Wait {
		c.runner = r
	} else {
		c.runner = nil
	}
	return c.Wait
}

// Resume resumes the waiting runner exactly once.
func (c *CallbackAction) Resume() {
	if !c.Wait || c.runner == nil {
		return
	}
	r := c.runner
	c.runner = nil
	r.Resume()
}

// Release drops the runner reference without resuming it.
func (c *CallbackAction) Release() { c.runner = nil }

// WaitField is the schema entry shared by every callback action.
func (c *CallbackAction) WaitField() Field {
	return Bool("wait", &c.Wait).Default("true").
		Describe("If true, the runner waits until the action finishes.")
}
