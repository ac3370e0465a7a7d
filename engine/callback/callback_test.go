package callback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/verb"
	"github.com/nathoo/scenecore/engine/world"
)

type waitAction struct{ action.CallbackAction }

func (w *waitAction) Params() []action.Field   { return nil }
func (w *waitAction) Run(r action.Runner) bool { return w.Begin(r) }

type plainAction struct{}

func (p *plainAction) Params() []action.Field { return nil }
func (p *plainAction) Run(action.Runner) bool { return false }

func newVerb(id, target, state string, actions ...action.Action) *verb.Verb {
	v := verb.New(id, target, state, nil)
	for _, a := range actions {
		v.Add(a)
	}
	return v
}

func wait() *waitAction { return &waitAction{action.NewCallbackAction()} }

// fixture: scene "lobby" with player "hero" and "door", an inventory item,
// a UI actor, a flow and default verbs.
func fixture() (*world.World, *world.Scene) {
	w := world.New(nil)

	s := world.NewScene("lobby")
	s.PlayerID = "hero"
	s.Verbs.Add(newVerb("init", "", "", &plainAction{}, wait()))

	hero := world.NewActor("hero")
	hero.Verbs.Add(newVerb("talkto", "", "", wait()))
	door := world.NewActor("door")
	door.Verbs.Add(newVerb("open", "", "", wait(), &plainAction{}))
	door.Verbs.Add(newVerb("use", "key", "closed", &plainAction{}, wait()))
	s.AddActor(door)
	s.AddActor(hero)
	w.AddScene(s)
	if err := w.RestoreCurrentScene("lobby"); err != nil {
		panic(err)
	}

	key := world.NewActor("key")
	key.Verbs.Add(newVerb("lookat", "", "", wait()))
	w.Inventory.Add(key)

	menu := world.NewActor("menu")
	menu.Verbs.Add(newVerb("action", "", "", wait()))
	w.UIActors.Add(menu)

	w.Flows.Add(newVerb("intro", "", "", &plainAction{}, &plainAction{}, wait()))
	w.Verbs.Add(newVerb("lookat", "", "", wait()))
	return w, s
}

func TestParseAndString(t *testing.T) {
	tests := []struct {
		in   string
		want Address
	}{
		{"door#open#0", Address{ScopePlain, "door", "open", 0}},
		{"lobby#init", Address{ScopePlain, "lobby", "init", -1}},
		{"door#use.key.closed#1", Address{ScopePlain, "door", "use.key.closed", 1}},
		{"UIACTORS#menu#action#0", Address{ScopeUIActors, "menu", "action", 0}},
		{"INVENTORY#key#lookat", Address{ScopeInventory, "key", "lookat", -1}},
		{"DEFAULT_VERB#lookat#0", Address{ScopeDefault, "", "lookat", 0}},
		{"INK_MANAGER#intro", Address{ScopeFlow, "", "intro", -1}},
		{"INK_MANAGER#intro#2", Address{ScopeFlow, "", "intro", 2}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"door",
		"door#",
		"#open",
		"door#open#x",
		"door#open#-1",
		"door#open#0#1",
		"UIACTORS",
		"UIACTORS#menu",
		"INVENTORY##lookat",
		"DEFAULT_VERB",
		"INK_MANAGER#",
	} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrMalformedAddress, in)
	}
}

func TestSerializeAddresses(t *testing.T) {
	w, s := fixture()
	ser := NewSerializer(zap.NewNop())
	door := s.Actor("door")

	tests := []struct {
		name string
		cb   action.Callback
		want string
	}{
		{"actor action", door.Verbs.Lookup("open").Actions()[0].(action.Callback), "door#open#0"},
		{"actor verb", door.Verbs.Lookup("open"), "door#open"},
		{"composite key", door.Verbs.Lookup("use.key.closed").Actions()[1].(action.Callback), "door#use.key.closed#1"},
		{"player", s.Player().Verbs.Lookup("talkto").Actions()[0].(action.Callback), "hero#talkto#0"},
		{"scene", s.Verbs.Lookup("init").Actions()[1].(action.Callback), "lobby#init#1"},
		{"inventory", w.Inventory.Get("key").Verbs.Lookup("lookat").Actions()[0].(action.Callback), "INVENTORY#key#lookat#0"},
		{"ui actor", w.UIActors.Get("menu").Verbs.Lookup("action"), "UIACTORS#menu#action"},
		{"default", w.Verbs.Lookup("lookat").Actions()[0].(action.Callback), "DEFAULT_VERB#lookat#0"},
		{"flow runner", w.Flows.Runner("intro"), "INK_MANAGER#intro"},
		{"flow action", w.Flows.Runner("intro").Actions()[2].(action.Callback), "INK_MANAGER#intro#2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ser.Serialize(w, s, tt.cb)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Same(t, tt.cb, ser.Find(w, s, got))
		})
	}
}

func TestRoundTripEveryCallback(t *testing.T) {
	w, s := fixture()
	ser := NewSerializer(nil)

	var all []action.Callback
	for _, o := range w.Owners() {
		for _, v := range o.Manager.Verbs() {
			all = append(all, v)
			for _, a := range v.Actions() {
				if c, ok := a.(action.Callback); ok {
					all = append(all, c)
				}
			}
		}
	}
	for _, f := range w.Flows.Runners() {
		all = append(all, f)
	}
	require.NotEmpty(t, all)

	for _, cb := range all {
		addr, ok := ser.Serialize(w, s, cb)
		require.True(t, ok)
		assert.Same(t, cb, ser.Find(w, s, addr), addr)
	}
}

func TestSerializeNilAndUnknown(t *testing.T) {
	w, s := fixture()
	ser := NewSerializer(nil)

	addr, ok := ser.Serialize(w, s, nil)
	assert.True(t, ok)
	assert.Empty(t, addr)
	assert.Nil(t, ser.Find(w, s, ""))

	addr, ok = ser.Serialize(w, s, wait())
	assert.False(t, ok)
	assert.Empty(t, addr)
}

func TestSerializeAnyScene(t *testing.T) {
	w, s := fixture()
	ser := NewSerializer(nil)

	street := world.NewScene("street")
	gate := world.NewActor("gate")
	gate.Verbs.Add(newVerb("swing", "", "", &plainAction{}, wait()))
	street.AddActor(gate)
	w.AddScene(street)

	cb := gate.Verbs.Lookup("swing").Actions()[1].(action.Callback)
	_, ok := ser.Serialize(w, s, cb)
	assert.False(t, ok)

	addr, scene, ok := ser.SerializeAnyScene(w, s, cb)
	require.True(t, ok)
	assert.Equal(t, "gate#swing#1", addr)
	assert.Equal(t, "street", scene)
	assert.Same(t, cb, ser.Find(w, street, addr))

	addr, scene, ok = ser.SerializeAnyScene(w, s, s.Actor("door").Verbs.Lookup("open"))
	require.True(t, ok)
	assert.Equal(t, "door#open", addr)
	assert.Equal(t, "lobby", scene)

	_, _, ok = ser.SerializeAnyScene(w, s, wait())
	assert.False(t, ok)
}

func TestFindMissing(t *testing.T) {
	w, s := fixture()
	ser := NewSerializer(nil)

	for _, addr := range []string{
		"ghost#open#0",
		"door#close#0",
		"door#open#9",
		"door#open#1", // not a callback
		"INVENTORY#ghost#lookat#0",
		"UIACTORS#menu#lookat",
		"DEFAULT_VERB#talkto",
		"INK_MANAGER#outro",
		"door#open#zero",
	} {
		assert.Nil(t, ser.Find(w, s, addr), addr)
	}
}

func TestFindPlainFallsBackToInventory(t *testing.T) {
	w, s := fixture()
	ser := NewSerializer(nil)
	want := w.Inventory.Get("key").Verbs.Lookup("lookat")
	assert.Same(t, want, ser.Find(w, s, "key#lookat"))
}

func TestNoScene(t *testing.T) {
	w, s := fixture()
	ser := NewSerializer(nil)
	cb := s.Actor("door").Verbs.Lookup("open")

	_, ok := ser.Serialize(w, nil, cb)
	assert.False(t, ok)
	assert.Nil(t, ser.Find(w, nil, "door#open"))

	addr, ok := ser.Serialize(w, nil, w.Verbs.Lookup("lookat"))
	require.True(t, ok)
	assert.Equal(t, "DEFAULT_VERB#lookat", addr)
}

func TestSuspendedWaitExample(t *testing.T) {
	w, s := fixture()
	ser := NewSerializer(nil)
	open := s.Actor("door").Verbs.Lookup("open")
	require.NoError(t, open.Run("", nil))
	require.Equal(t, verb.Suspended, open.Status())

	pending := open.Actions()[open.IP()].(action.Callback)
	addr, ok := ser.Serialize(w, s, pending)
	require.True(t, ok)
	assert.Equal(t, "door#open#0", addr)

	ser.Find(w, s, addr).Resume()
	assert.Equal(t, verb.Idle, open.Status())
}
