package verb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
)

// trace records the order actions ran in.
type trace struct{ log []string }

type mark struct {
	name string
	t    *trace
}

func (m *mark) Params() []action.Field { return nil }
func (m *mark) Run(action.Runner) bool {
	m.t.log = append(m.t.log, m.name)
	return false
}

// pause suspends its runner until resumed by the test.
type pause struct {
	action.CallbackAction
	name      string
	t         *trace
	cancelled bool
}

func newPause(name string, t *trace) *pause {
	return &pause{CallbackAction: action.NewCallbackAction(), name: name, t: t}
}

func (p *pause) Params() []action.Field { return []action.Field{p.WaitField()} }
func (p *pause) Run(r action.Runner) bool {
	p.t.log = append(p.t.log, p.name)
	return p.Begin(r)
}
func (p *pause) Cancel() { p.cancelled = true }

// instant waits but completes before returning.
type instant struct{ action.CallbackAction }

func (i *instant) Params() []action.Field { return nil }
func (i *instant) Run(r action.Runner) bool {
	i.Wait = true
	i.Begin(r)
	i.Resume()
	return true
}

type boom struct{}

func (boom) Params() []action.Field { return nil }
func (boom) Run(action.Runner) bool { panic("broken action") }

type counter struct{ n int }

func (c *counter) Resume() { c.n++ }

func newVerb(actions ...action.Action) *Verb {
	v := New("open", "", "", zap.NewNop())
	for _, a := range actions {
		v.Add(a)
	}
	return v
}

func TestKey(t *testing.T) {
	assert.Equal(t, "open", Key("open", "", ""))
	assert.Equal(t, "use.key", Key("use", "key", ""))
	assert.Equal(t, "open.closed", Key("open", "", "closed"))
	assert.Equal(t, "use.key.closed", Key("use", "key", "closed"))
}

func TestRunSequential(t *testing.T) {
	tr := &trace{}
	cb := &counter{}
	v := newVerb(&mark{"a", tr}, &mark{"b", tr}, &mark{"c", tr})

	require.NoError(t, v.Run("", cb))
	assert.Equal(t, []string{"a", "b", "c"}, tr.log)
	assert.Equal(t, Idle, v.Status())
	assert.Equal(t, -1, v.IP())
	assert.Equal(t, 1, cb.n)
	assert.Nil(t, v.Callback())
}

func TestEmptyVerbFinishes(t *testing.T) {
	cb := &counter{}
	v := newVerb()
	require.NoError(t, v.Run("", cb))
	assert.Equal(t, 1, cb.n)
	assert.Equal(t, Idle, v.Status())
}

func TestSuspendResume(t *testing.T) {
	tr := &trace{}
	cb := &counter{}
	p := newPause("wait", tr)
	v := newVerb(&mark{"a", tr}, p, &mark{"b", tr})

	require.NoError(t, v.Run("door", cb))
	assert.Equal(t, []string{"a", "wait"}, tr.log)
	assert.Equal(t, Suspended, v.Status())
	assert.Equal(t, 1, v.IP())
	assert.Equal(t, "door", v.CurrentTarget())
	assert.Equal(t, 0, cb.n)

	p.Resume()
	assert.Equal(t, []string{"a", "wait", "b"}, tr.log)
	assert.Equal(t, Idle, v.Status())
	assert.Equal(t, 1, cb.n)
}

func TestNoWaitContinues(t *testing.T) {
	tr := &trace{}
	p := newPause("wait", tr)
	p.Wait = false
	v := newVerb(p, &mark{"b", tr})

	require.NoError(t, v.Run("", nil))
	assert.Equal(t, []string{"wait", "b"}, tr.log)
	assert.Equal(t, Idle, v.Status())

	// The late callback is a no-op.
	p.Resume()
	assert.Equal(t, []string{"wait", "b"}, tr.log)
}

func TestSynchronousResume(t *testing.T) {
	tr := &trace{}
	v := newVerb(&instant{}, &mark{"after", tr})
	require.NoError(t, v.Run("", nil))
	assert.Equal(t, []string{"after"}, tr.log)
	assert.Equal(t, Idle, v.Status())
}

func TestRunWhileRunningRejected(t *testing.T) {
	tr := &trace{}
	p := newPause("wait", tr)
	v := newVerb(p)

	require.NoError(t, v.Run("", nil))
	assert.ErrorIs(t, v.Run("", nil), ErrAlreadyRunning)
	assert.Equal(t, []string{"wait"}, tr.log)
}

func TestCancel(t *testing.T) {
	tr := &trace{}
	cb := &counter{}
	p := newPause("wait", tr)
	v := newVerb(p, &mark{"b", tr})

	require.NoError(t, v.Run("", cb))
	v.Cancel()

	assert.Equal(t, Idle, v.Status())
	assert.True(t, p.cancelled)
	assert.Equal(t, 1, cb.n)

	// Late callback from the cancelled action does nothing.
	p.Resume()
	assert.Equal(t, []string{"wait"}, tr.log)
	assert.Equal(t, Idle, v.Status())
	assert.Equal(t, 1, cb.n)

	// Cancelling an idle verb is a no-op.
	v.Cancel()
	assert.Equal(t, 1, cb.n)
}

func TestCancelThenRerunIgnoresStaleCallback(t *testing.T) {
	tr := &trace{}
	p := newPause("wait", tr)
	v := newVerb(&mark{"a", tr}, p, &mark{"b", tr})

	require.NoError(t, v.Run("", nil))
	v.Cancel()
	require.NoError(t, v.Run("", nil))
	require.Equal(t, Suspended, v.Status())

	p.Resume()
	assert.Equal(t, []string{"a", "wait", "a", "wait", "b"}, tr.log)
}

func TestPanicIsLoggedAndSkipped(t *testing.T) {
	tr := &trace{}
	v := newVerb(&mark{"a", tr}, boom{}, &mark{"b", tr})
	require.NoError(t, v.Run("", nil))
	assert.Equal(t, []string{"a", "b"}, tr.log)
	assert.Equal(t, Idle, v.Status())
}

func TestResumeIdleIgnored(t *testing.T) {
	tr := &trace{}
	v := newVerb(&mark{"a", tr})
	v.Resume()
	assert.Empty(t, tr.log)
	assert.Equal(t, Idle, v.Status())
}

func TestNestedVerbResumesParent(t *testing.T) {
	tr := &trace{}
	p := newPause("inner", tr)
	inner := New("inner", "", "", nil)
	inner.Add(p)

	outer := newVerb(&mark{"a", tr}, &runInner{v: inner, CallbackAction: action.NewCallbackAction()}, &mark{"b", tr})
	require.NoError(t, outer.Run("", nil))
	assert.Equal(t, Suspended, outer.Status())
	assert.Equal(t, Suspended, inner.Status())

	p.Resume()
	assert.Equal(t, []string{"a", "inner", "b"}, tr.log)
	assert.Equal(t, Idle, outer.Status())
	assert.Equal(t, Idle, inner.Status())
}

func TestCancelCascadesToNested(t *testing.T) {
	tr := &trace{}
	p := newPause("inner", tr)
	inner := New("inner", "", "", nil)
	inner.Add(p)
	ri := &runInner{v: inner, CallbackAction: action.NewCallbackAction()}

	outer := newVerb(ri, &mark{"b", tr})
	require.NoError(t, outer.Run("", nil))
	outer.Cancel()

	assert.Equal(t, Idle, outer.Status())
	assert.Equal(t, Idle, inner.Status())
	assert.True(t, p.cancelled)
	assert.Equal(t, []string{"inner"}, tr.log)
}

type runInner struct {
	action.CallbackAction
	v *Verb
}

func (r *runInner) Params() []action.Field { return nil }
func (r *runInner) Run(rn action.Runner) bool {
	wait := r.Begin(rn)
	_ = r.v.Run("", r)
	return wait
}
func (r *runInner) Cancel() { r.v.Cancel() }

func TestManagerPriority(t *testing.T) {
	m := NewManager()
	for _, k := range [][3]string{
		{"use", "", ""},
		{"use", "", "closed"},
		{"use", "key", ""},
		{"use", "key", "closed"},
		{"open", "", ""},
	} {
		m.Add(New(k[0], k[1], k[2], nil))
	}

	tests := []struct {
		id, state, target string
		want              string
	}{
		{"use", "closed", "key", "use.key.closed"},
		{"use", "open", "key", "use.key"},
		{"use", "", "key", "use.key"},
		{"use", "closed", "", "use.closed"},
		{"use", "closed", "rope", "use.closed"},
		{"use", "", "", "use"},
		{"open", "closed", "key", "open"},
	}
	for _, tt := range tests {
		got := m.Get(tt.id, tt.state, tt.target)
		require.NotNil(t, got, "%+v", tt)
		assert.Equal(t, tt.want, got.Key(), "%+v", tt)
	}
	assert.Nil(t, m.Get("pickup", "", ""))
}

func TestManagerOrderAndReplace(t *testing.T) {
	m := NewManager()
	m.Add(New("b", "", "", nil))
	m.Add(New("a", "", "", nil))
	m.Add(New("a", "", "s", nil))
	replacement := New("b", "", "", nil)
	m.Add(replacement)

	var keys []string
	for _, v := range m.Verbs() {
		keys = append(keys, v.Key())
	}
	assert.Equal(t, []string{"b", "a", "a.s"}, keys)
	assert.Same(t, replacement, m.Lookup("b"))
	assert.Equal(t, []string{"b", "a"}, m.IDs())
	assert.Equal(t, 3, m.Len())
}

func TestManagerRunning(t *testing.T) {
	tr := &trace{}
	m := NewManager()
	v := New("wait", "", "", nil)
	v.Add(newPause("p", tr))
	m.Add(v)
	m.Add(New("idle", "", "", nil))

	assert.Empty(t, m.Running())
	require.NoError(t, v.Run("", nil))
	assert.Equal(t, []*Verb{v}, m.Running())
}
