// Package verb implements verbs, the ordered action lists that actors,
// scenes and the world respond to, and the managers that hold them.
package verb

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
)

// Status is the runtime state of a verb.
type Status int

const (
	Idle      Status = iota // not running
	Running                 // executing actions synchronously
	Suspended               // waiting for a callback
)

func (s Status) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Suspended:
		return "SUSPENDED"
	default:
		return "IDLE"
	}
}

// ErrAlreadyRunning is returned by Run when the verb has not finished.
var ErrAlreadyRunning = errors.New("verb already running")

// Key builds the composite verb key id[.target][.state].
func Key(id, target, state string) string {
	var b strings.Builder
	b.WriteString(id)
	if target != "" {
		b.WriteByte('.')
		b.WriteString(target)
	}
	if state != "" {
		b.WriteByte('.')
		b.WriteString(state)
	}
	return b.String()
}

// Verb is an ordered list of actions executed one after another. An action
// that asks to wait suspends the verb until its callback resumes it.
type Verb struct {
	id     string
	target string
	state  string
	Icon   string

	actions []action.Action

	ip            int // -1 when not running
	currentTarget string
	cb            action.Callback

	stepping bool
	resumed  bool

	logger *zap.Logger
}

// New creates an idle verb. A nil logger discards output.
func New(id, target, state string, logger *zap.Logger) *Verb {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verb{id: id, target: target, state: state, ip: -1, logger: logger}
}

func (v *Verb) ID() string     { return v.id }
func (v *Verb) Target() string { return v.target }
func (v *Verb) State() string  { return v.state }
func (v *Verb) Key() string    { return Key(v.id, v.target, v.state) }

// Add appends an action.
func (v *Verb) Add(a action.Action) { v.actions = append(v.actions, a) }

func (v *Verb) Actions() []action.Action { return v.actions }
func (v *Verb) CurrentTarget() string    { return v.currentTarget }
func (v *Verb) IP() int                  { return v.ip }

// SetIP moves the cursor. Control actions use it to jump; save restore uses
// it to put a verb back where it was suspended.
func (v *Verb) SetIP(ip int) { v.ip = ip }

// SetCurrentTarget restores the target the verb was run with.
func (v *Verb) SetCurrentTarget(t string) { v.currentTarget = t }

// Callback returns the parent callback resumed when the verb finishes.
func (v *Verb) Callback() action.Callback { return v.cb }

// SetCallback restores the parent callback.
func (v *Verb) SetCallback(cb action.Callback) { v.cb = cb }

// Status reports whether the verb is idle, running or suspended.
func (v *Verb) Status() Status {
	switch {
	case v.ip < 0:
		return Idle
	case v.stepping:
		return Running
	default:
		return Suspended
	}
}

// Run starts the verb from its first action. cb, if non-nil, is resumed once
// when the verb finishes or is cancelled.
func (v *Verb) Run(currentTarget string, cb action.Callback) error {
	if v.ip >= 0 {
		v.logger.Warn("verb already running, run ignored",
			zap.String("verb", v.Key()), zap.Int("ip", v.ip))
		return ErrAlreadyRunning
	}
	v.currentTarget = currentTarget
	v.cb = cb
	v.ip = 0
	v.logger.Debug(">>> Running verb", zap.String("verb", v.Key()),
		zap.String("target", currentTarget), zap.Int("actions", len(v.actions)))
	v.step()
	return nil
}

// Resume continues after the action that suspended the verb. It is ignored
// when the verb is not running.
func (v *Verb) Resume() {
	if v.ip < 0 {
		v.logger.Debug("resume ignored, verb not running", zap.String("verb", v.Key()))
		return
	}
	if v.stepping {
		// The current action completed before returning.
		v.resumed = true
		return
	}
	v.ip++
	v.step()
}

// Cancel stops the verb, cancels the in-flight action and resumes the
// parent callback.
func (v *Verb) Cancel() {
	if v.ip < 0 {
		return
	}
	ip := v.ip
	v.ip = -1
	v.stepping = false
	if ip < len(v.actions) {
		a := v.actions[ip]
		if h, ok := a.(action.RunnerHolder); ok {
			h.SetRunner(nil)
		}
		if c, ok := a.(action.Canceler); ok {
			c.Cancel()
		}
	}
	v.logger.Debug("CANCEL verb", zap.String("verb", v.Key()), zap.Int("ip", ip))
	v.resumeParent()
}

func (v *Verb) step() {
	v.stepping = true
	for v.ip >= 0 && v.ip < len(v.actions) {
		a := v.actions[v.ip]
		v.resumed = false
		v.logger.Debug("step", zap.String("verb", v.Key()), zap.Int("ip", v.ip))

		wait := v.run(a)
		if v.ip < 0 {
			return
		}
		if wait && !v.resumed {
			v.stepping = false
			return
		}
		v.ip++
	}
	v.stepping = false

	if v.ip >= len(v.actions) {
		v.ip = -1
		v.logger.Debug("<<< FINISHED verb", zap.String("verb", v.Key()))
		v.resumeParent()
	}
}

func (v *Verb) run(a action.Action) (wait bool) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("action failed",
				zap.String("verb", v.Key()), zap.Int("ip", v.ip), zap.Any("panic", r))
			wait = false
		}
	}()
	return a.Run(v)
}

func (v *Verb) resumeParent() {
	cb := v.cb
	v.cb = nil
	if cb != nil {
		cb.Resume()
	}
}
