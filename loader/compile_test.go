package loader

import (
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/scenecore/engine/actions"
)

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh collector.
func newTestVM() (*lua.LState, *collector) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	coll := &collector{}
	registerAPI(L, coll, actions.NewRegistry(nil))
	return L, coll
}

func TestCompileGame(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		return {
			title = "Test Game",
			author = "Author",
			version = "1.0",
			start = "hall",
			intro = "Welcome!",
			seed = 7
		}
	`); err != nil {
		t.Fatal(err)
	}

	tbl := L.CheckTable(-1)
	game := compileGame(tbl)

	if game.Title != "Test Game" {
		t.Errorf("Title = %q, want %q", game.Title, "Test Game")
	}
	if game.Author != "Author" {
		t.Errorf("Author = %q, want %q", game.Author, "Author")
	}
	if game.Version != "1.0" {
		t.Errorf("Version = %q, want %q", game.Version, "1.0")
	}
	if game.Start != "hall" {
		t.Errorf("Start = %q, want %q", game.Start, "hall")
	}
	if game.Intro != "Welcome!" {
		t.Errorf("Intro = %q, want %q", game.Intro, "Welcome!")
	}
	if game.Seed != 7 {
		t.Errorf("Seed = %d, want 7", game.Seed)
	}
}

func TestCompileScene_ActorsAndVerbs(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Scene "hall" {
			description = "A hall.",
			state = "dark",
			player = "hero",

			Actor "hero" { desc = "hero", pos = { x = 1, y = 2 } },
			Actor "door" {
				desc = "oak door",
				state = "locked",
				interactive = false,
				Verb "open" { state = "unlocked",
					Wait { time = 2 },
					SetState { actor = "$TARGET", state = "open" },
				},
			},
			Verb "init" {
				Text { text = "Dust everywhere." },
			},
		}
	`); err != nil {
		t.Fatal(err)
	}

	if len(coll.scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(coll.scenes))
	}
	scene, err := compileScene(coll.scenes[0])
	if err != nil {
		t.Fatal(err)
	}

	if scene.ID != "hall" || scene.Description != "A hall." {
		t.Errorf("scene = %q %q", scene.ID, scene.Description)
	}
	if scene.State != "dark" {
		t.Errorf("State = %q, want %q", scene.State, "dark")
	}
	if scene.Player != "hero" {
		t.Errorf("Player = %q, want %q", scene.Player, "hero")
	}
	if len(scene.Actors) != 2 {
		t.Fatalf("expected 2 actors, got %d", len(scene.Actors))
	}
	hero := scene.Actors[0]
	if hero.Position.X != 1 || hero.Position.Y != 2 {
		t.Errorf("hero pos = %+v", hero.Position)
	}
	if !hero.Visible || !hero.Interactive {
		t.Error("actors should default to visible and interactive")
	}

	door := scene.Actors[1]
	if door.Interactive {
		t.Error("door should not be interactive")
	}
	if door.State != "locked" {
		t.Errorf("door state = %q", door.State)
	}
	if len(door.Verbs) != 1 {
		t.Fatalf("expected 1 door verb, got %d", len(door.Verbs))
	}
	open := door.Verbs[0]
	if open.ID != "open" || open.State != "unlocked" {
		t.Errorf("verb = %q state %q", open.ID, open.State)
	}
	if len(open.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(open.Actions))
	}
	if open.Actions[0].Name != "wait" || open.Actions[0].Params["time"] != "2" {
		t.Errorf("action 0 = %+v", open.Actions[0])
	}
	if open.Actions[1].Name != "set_state" || open.Actions[1].Params["actor"] != "$TARGET" {
		t.Errorf("action 1 = %+v", open.Actions[1])
	}
	if open.Actions[0].Line == 0 {
		t.Error("expected a source line on compiled actions")
	}

	if len(scene.Verbs) != 1 || scene.Verbs[0].ID != "init" {
		t.Errorf("scene verbs = %+v", scene.Verbs)
	}
}

func TestCompileScene_RejectsStrayEntries(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Scene "hall" {
			description = "A hall.",
			Text { text = "not allowed here" },
		}
	`); err != nil {
		t.Fatal(err)
	}
	if _, err := compileScene(coll.scenes[0]); err == nil {
		t.Fatal("expected error for an action directly in a scene")
	}
}

func TestCompileAction_ParamConversion(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		return Action("position", { actor = "hero", pos = { 3, 4.5 }, flag = true, n = 0.25 })
	`); err != nil {
		t.Fatal(err)
	}
	ad, err := compileAction(L.CheckTable(-1))
	if err != nil {
		t.Fatal(err)
	}

	if ad.Name != "position" {
		t.Errorf("Name = %q", ad.Name)
	}
	tests := map[string]string{
		"actor": "hero",
		"pos":   "3,4.5",
		"flag":  "true",
		"n":     "0.25",
	}
	for k, want := range tests {
		if got := ad.Params[k]; got != want {
			t.Errorf("param %s = %q, want %q", k, got, want)
		}
	}
	for _, k := range []string{keyKind, keyID, keyLine} {
		if _, ok := ad.Params[k]; ok {
			t.Errorf("marker key %s leaked into params", k)
		}
	}
}

func TestCompileAction_UnsupportedValue(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`return Wait { time = function() end }`); err != nil {
		t.Fatal(err)
	}
	if _, err := compileAction(L.CheckTable(-1)); err == nil {
		t.Fatal("expected error for a function parameter")
	}
}

func TestDialog_FlowAndAction(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Dialog "intro" {
			Say { actor = "hero", text = "Hi." },
			Dialog { flow = "outro" },
		}
	`); err != nil {
		t.Fatal(err)
	}
	if len(coll.flows) != 1 || coll.flows[0].name != "intro" {
		t.Fatalf("flows = %+v", coll.flows)
	}
	acts, err := compileActions(coll.flows[0].table)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(acts))
	}
	if acts[1].Name != "dialog" || acts[1].Params["flow"] != "outro" {
		t.Errorf("action 1 = %+v", acts[1])
	}
}

func TestActionHelpers_Registered(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	for _, name := range []string{"Say", "SetState", "RunVerb", "IfAttr", "End", "Wait", "Action"} {
		if L.GetGlobal(name).Type() != lua.LTFunction {
			t.Errorf("global %s not defined", name)
		}
	}
}

func TestCamelCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"say", "Say"},
		{"set_state", "SetState"},
		{"if_random", "IfRandom"},
		{"drop__item", "DropItem"},
	}
	for _, tt := range tests {
		if got := camelCase(tt.in); got != tt.want {
			t.Errorf("camelCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompile_NoGame(t *testing.T) {
	if _, err := compile(&collector{}); err == nil {
		t.Fatal("expected error without Game{}")
	}
}
