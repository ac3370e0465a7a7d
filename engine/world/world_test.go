package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/verb"
	"github.com/nathoo/scenecore/types"
)

type resumes struct{ n int }

func (r *resumes) Resume() { r.n++ }

// note prints its text through the world it was bound to.
type note struct {
	Text string
	w    *World
}

func (n *note) Params() []action.Field { return []action.Field{action.String("text", &n.Text)} }
func (n *note) Bind(w *World)          { n.w = w }

func (n *note) Run(action.Runner) bool {
	n.w.Print(n.Text)
	return false
}

func testRegistry() *action.Registry {
	reg := action.NewRegistry(zap.NewNop())
	reg.Register("note", "test.Note", func() action.Action { return &note{} })
	return reg
}

func testDef() *types.WorldDef {
	lookat := func(text string) types.VerbDef {
		return types.VerbDef{ID: "lookat", Actions: []types.ActionDef{
			{Name: "note", Params: map[string]string{"text": text}},
		}}
	}
	return &types.WorldDef{
		Game: types.GameDef{Title: "Test", Start: "hall", Seed: 7},
		Scenes: []types.SceneDef{
			{
				ID:     "hall",
				Player: "hero",
				Verbs: []types.VerbDef{{ID: "init", Actions: []types.ActionDef{
					{Name: "note", Params: map[string]string{"text": "You enter the hall."}},
				}}},
				Actors: []types.ActorDef{
					{ID: "hero", Kind: "character", Visible: true, Interactive: true},
					{ID: "door", Desc: "a door", State: "closed", Visible: true, Interactive: true, Verbs: []types.VerbDef{
						lookat("A closed door."),
						{ID: "lookat", State: "open", Actions: []types.ActionDef{
							{Name: "note", Params: map[string]string{"text": "An open door."}},
						}},
						{ID: "open", Actions: []types.ActionDef{
							{Name: "missing"},
							{Name: "note", Params: map[string]string{"text": "Creak."}},
						}},
					}},
				},
			},
			{ID: "garden"},
		},
		Inventory:    []types.ActorDef{{ID: "key", Desc: "a key", Visible: true, Interactive: true}},
		UIActors:     []types.ActorDef{{ID: "menu"}},
		DefaultVerbs: []types.VerbDef{lookat("Nothing special."), {ID: "pickup"}},
		Flows: []types.FlowDef{{Name: "intro", Actions: []types.ActionDef{
			{Name: "note", Params: map[string]string{"text": "Hello."}},
		}}},
	}
}

func build(t *testing.T) *World {
	t.Helper()
	w, err := Build(testDef(), testRegistry(), zap.NewNop())
	require.NoError(t, err)
	return w
}

func TestBuild(t *testing.T) {
	w := build(t)

	assert.Equal(t, "Test", w.Title)
	assert.Len(t, w.Scenes(), 2)
	assert.Nil(t, w.CurrentScene())

	door := w.Scene("hall").Actor("door")
	require.NotNil(t, door)
	assert.Equal(t, "stand", door.Anim)

	// The unregistered action is skipped, the rest of the verb survives.
	open := door.Verbs.Lookup("open")
	require.NotNil(t, open)
	assert.Len(t, open.Actions(), 1)

	assert.Equal(t, 1, w.Inventory.Len())
	assert.NotNil(t, w.UIActors.Get("menu"))
	assert.NotNil(t, w.Flows.Runner("intro"))
	assert.Equal(t, int64(7), w.RNG.Seed())
}

func TestBuildMissingStart(t *testing.T) {
	def := testDef()
	def.Game.Start = "attic"
	_, err := Build(def, testRegistry(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetCurrentSceneRunsInit(t *testing.T) {
	w := build(t)
	require.NoError(t, w.SetCurrentScene("hall"))
	assert.Equal(t, []string{"You enter the hall."}, w.Drain())
	assert.Empty(t, w.Drain())

	assert.ErrorIs(t, w.SetCurrentScene("attic"), ErrNotFound)
	assert.Equal(t, "hall", w.CurrentScene().ID)
}

func TestResolveVerb(t *testing.T) {
	w := build(t)
	require.NoError(t, w.SetCurrentScene("hall"))
	door := w.Actor("door")

	assert.Same(t, door.Verbs.Lookup("lookat"), w.ResolveVerb(door, "lookat", ""))

	door.State = "open"
	assert.Same(t, door.Verbs.Lookup("lookat.open"), w.ResolveVerb(door, "lookat", ""))

	// Falls back to the world defaults.
	hero := w.Actor("hero")
	assert.Same(t, w.Verbs.Lookup("lookat"), w.ResolveVerb(hero, "lookat", ""))
	assert.Nil(t, w.ResolveVerb(hero, "talkto", ""))

	// Scene level.
	assert.Same(t, w.CurrentScene().Verbs.Lookup("init"), w.ResolveVerb(nil, "init", ""))
}

func TestActorLookupAndMove(t *testing.T) {
	w := build(t)
	require.NoError(t, w.SetCurrentScene("hall"))

	assert.NotNil(t, w.Actor("door"))
	assert.NotNil(t, w.Actor("key"))
	assert.NotNil(t, w.Actor("menu"))
	assert.Nil(t, w.Actor("ghost"))

	require.NoError(t, w.MoveActor("door", LocInventory))
	_, loc := w.FindActor("door")
	assert.Equal(t, LocInventory, loc)
	assert.Nil(t, w.CurrentScene().Actor("door"))

	require.NoError(t, w.MoveActor("door", "garden"))
	_, loc = w.FindActor("door")
	assert.Equal(t, "garden", loc)

	assert.ErrorIs(t, w.MoveActor("ghost", "hall"), ErrNotFound)
	assert.ErrorIs(t, w.MoveActor("door", "attic"), ErrNotFound)
}

func TestTimers(t *testing.T) {
	var ts Timers
	a, b := &resumes{}, &resumes{}
	ts.Add(1, a)
	ts.Add(2, b)

	ts.Update(0.5)
	assert.Equal(t, 0, a.n)
	ts.Update(0.5)
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, ts.Len())

	assert.True(t, ts.Remove(b))
	assert.False(t, ts.Remove(b))
	ts.Update(5)
	assert.Equal(t, 0, b.n)
}

func TestTimersAddDuringResume(t *testing.T) {
	var ts Timers
	second := &resumes{}
	first := callbackFunc(func() { ts.Add(1, second) })
	ts.Add(1, first)

	ts.Update(1)
	assert.Equal(t, 1, ts.Len())
	ts.Update(1)
	assert.Equal(t, 1, second.n)
}

type callbackFunc func()

func (f callbackFunc) Resume() { f() }

func TestTextManager(t *testing.T) {
	var out []string
	tm := newTextManager(func(s string) { out = append(out, s) })
	tm.Speed = 0.1
	tm.MinTime = 1

	a, b := &resumes{}, &resumes{}
	tm.Add(Text{Str: "Hi", Speaker: "Hero", Type: TextTalk, CB: a}, true)
	tm.Add(Text{Str: "A much longer line", CB: b}, true)

	assert.Equal(t, []string{`Hero: "Hi"`}, out)
	assert.Len(t, tm.Pending(), 2)

	tm.Update(1)
	assert.Equal(t, 1, a.n)
	assert.Equal(t, "A much longer line", out[1])

	tm.Update(1)
	assert.Equal(t, 0, b.n)
	tm.Skip()
	assert.Equal(t, 1, b.n)
	assert.Nil(t, tm.Current())
}

func TestTextManagerReplaceAndRemove(t *testing.T) {
	tm := newTextManager(nil)
	a, b := &resumes{}, &resumes{}
	tm.Add(Text{Str: "first", CB: a}, false)
	tm.Add(Text{Str: "second", CB: b}, false)
	assert.Equal(t, 1, a.n, "replaced text resumes its callback")
	assert.Equal(t, "second", tm.Current().Str)

	tm.Remove(b)
	assert.Nil(t, tm.Current())
	tm.Update(10)
	assert.Equal(t, 0, b.n)
}

func TestTextManagerRestorePrintsCurrent(t *testing.T) {
	var out []string
	tm := newTextManager(func(s string) { out = append(out, s) })
	tm.Restore([]Text{
		{Str: "Hello.", Speaker: "Hero", Type: TextTalk, Time: 1},
		{Str: "Bye.", Speaker: "Hero", Type: TextTalk, Time: 1},
	})

	assert.Equal(t, []string{`Hero: "Hello."`}, out)
	assert.Len(t, tm.Pending(), 2)

	tm.Restore(nil)
	assert.Nil(t, tm.Current())
	assert.Len(t, out, 1)
}

func TestTextDuration(t *testing.T) {
	tm := newTextManager(nil)
	tm.Speed = 0.5
	tm.MinTime = 1
	assert.Equal(t, 1.0, tm.Duration("a"))
	assert.Equal(t, 2.0, tm.Duration("abcd"))
	assert.Equal(t, 2.0, tm.Duration("日本"), "wide runes count two cells")
}

func TestFlows(t *testing.T) {
	w := build(t)
	cb := &resumes{}
	require.NoError(t, w.Flows.Run("intro", cb))
	assert.Equal(t, []string{"Hello."}, w.Drain())
	assert.Equal(t, 1, cb.n)
	assert.Error(t, w.Flows.Run("outro", nil))
}

func TestPropertiesAndCutMode(t *testing.T) {
	w := New(nil)
	w.SetProperty("seen", "true")
	assert.Equal(t, "true", w.Property("seen"))
	w.SetProperty("seen", "")
	assert.Empty(t, w.Properties())

	w.SetCutMode(true)
	assert.True(t, w.CutMode())
}

func TestUpdateAndBusy(t *testing.T) {
	w := New(nil)
	assert.False(t, w.Busy())

	cb := &resumes{}
	w.Timers.Add(1, cb)
	assert.True(t, w.Busy())

	w.Update(0)
	assert.Equal(t, 0.0, w.Time())
	w.Update(1)
	assert.Equal(t, 1.0, w.Time())
	assert.Equal(t, 1, cb.n)
	assert.False(t, w.Busy())
}

func TestCancelAll(t *testing.T) {
	w := build(t)
	v := verb.New("wait", "", "", nil)
	v.Add(&hold{})
	w.Verbs.Add(v)
	require.NoError(t, v.Run("", nil))
	w.Timers.Add(3, &resumes{})

	assert.Len(t, w.RunningVerbs(), 1)
	w.CancelAll()
	assert.False(t, w.Busy())
}

type hold struct{}

func (hold) Params() []action.Field { return nil }
func (hold) Run(action.Runner) bool { return true }

func TestPrintSound(t *testing.T) {
	w := New(nil)
	w.Sound.Play("door")
	w.Sound.Stop("door")
	assert.Equal(t, []string{"[sound: door]", "[sound stopped: door]"}, w.Drain())
}
