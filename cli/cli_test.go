package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nathoo/scenecore/engine"
	"github.com/nathoo/scenecore/engine/save"
	"github.com/nathoo/scenecore/types"
)

func act(name string, kv ...string) types.ActionDef {
	params := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		params[kv[i]] = kv[i+1]
	}
	return types.ActionDef{Name: name, Params: params}
}

// testDef returns a minimal game definition for CLI testing.
func testDef() *types.WorldDef {
	return &types.WorldDef{
		Game: types.GameDef{
			Title:   "Test Game",
			Author:  "Test",
			Version: "1.0",
			Start:   "hall",
			Intro:   "Welcome to the test.",
		},
		Scenes: []types.SceneDef{
			{
				ID:          "hall",
				Description: "A grand hall.",
				Actors: []types.ActorDef{
					{ID: "door", Desc: "Oak Door", Visible: true, Interactive: true, Verbs: []types.VerbDef{
						{ID: "open", Actions: []types.ActionDef{
							act("wait", "time", "2"),
							act("set_state", "actor", "door", "state", "open"),
							act("text", "text", "The door swings open."),
						}},
					}},
					{ID: "arch", Desc: "Archway", Visible: true, Interactive: true, Verbs: []types.VerbDef{
						{ID: "goto", Actions: []types.ActionDef{act("leave", "scene", "garden")}},
					}},
				},
			},
			{ID: "garden", Description: "A peaceful garden."},
		},
	}
}

func newEngine(t *testing.T, auto bool) *engine.Engine {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.AutoAdvance = auto
	eng, err := engine.New(testDef(), engine.WithOptions(opts))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return eng
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := &CLI{
		Engine: newEngine(t, true),
		Saves:  save.NewRepository(t.TempDir(), save.FormatJSON),
		In:     strings.NewReader(input),
		Out:    &out,
	}
	return c, &out
}

func TestCLI_IntroAndStartingScene(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Welcome to the test.") {
		t.Error("expected intro text in output")
	}
	if !strings.Contains(output, "A grand hall.") {
		t.Error("expected starting scene description in output")
	}
}

func TestCLI_BasicGameplay(t *testing.T) {
	c, out := newTestCLI(t, "open door\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "The door swings open.") {
		t.Error("expected the open verb to finish with auto-advance")
	}
}

func TestCLI_Navigation(t *testing.T) {
	c, out := newTestCLI(t, "walk to archway\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "A peaceful garden.") {
		t.Error("expected garden description after walking through the archway")
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	for _, cmd := range []string{"/save", "/load", "/tick", "/verbs", "/address", "/quit"} {
		if !strings.Contains(output, cmd) {
			t.Errorf("expected %s in help output", cmd)
		}
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := save.NewRepository(t.TempDir(), save.FormatMsgpack)

	// Play a bit and save.
	var out bytes.Buffer
	c := &CLI{
		Engine: newEngine(t, true),
		Saves:  repo,
		In:     strings.NewReader("walk to archway\n/save test\n/quit\n"),
		Out:    &out,
	}
	c.Run(ctx)

	if !strings.Contains(out.String(), "Game saved to test.") {
		t.Error("expected save confirmation")
	}

	// Start fresh and load.
	var out2 bytes.Buffer
	c2 := &CLI{
		Engine: newEngine(t, true),
		Saves:  repo,
		In:     strings.NewReader("/saves\n/load test\n/quit\n"),
		Out:    &out2,
	}
	c2.Run(ctx)

	loadOutput := out2.String()
	if !strings.Contains(loadOutput, "Saves: test") {
		t.Errorf("expected save listing, got %q", loadOutput)
	}
	if !strings.Contains(loadOutput, "Game loaded from test") {
		t.Error("expected load confirmation")
	}
	// After loading, player should be in the garden (from the saved state).
	if !strings.Contains(loadOutput, "A peaceful garden.") {
		t.Error("expected garden description after loading save")
	}
}

func TestCLI_SuspendedVerbSurvivesSave(t *testing.T) {
	ctx := context.Background()
	repo := save.NewRepository(t.TempDir(), save.FormatJSON)

	var out bytes.Buffer
	c := &CLI{
		Engine: newEngine(t, false),
		Saves:  repo,
		In:     strings.NewReader("/tick 5\nopen door\n/save mid\n/quit\n"),
		Out:    &out,
	}
	c.Run(ctx)

	var out2 bytes.Buffer
	c2 := &CLI{
		Engine: newEngine(t, false),
		Saves:  repo,
		In:     strings.NewReader("/load mid\n/address\n/tick 2\n/quit\n"),
		Out:    &out2,
	}
	c2.Run(ctx)

	output := out2.String()
	if !strings.Contains(output, "door#open#0") {
		t.Errorf("expected the pending wait address, got %q", output)
	}
	if !strings.Contains(output, "The door swings open.") {
		t.Error("expected the loaded verb to finish after ticking")
	}
}

func TestCLI_LoadShowsTextOnScreen(t *testing.T) {
	ctx := context.Background()
	repo := save.NewRepository(t.TempDir(), save.FormatJSON)

	c := &CLI{
		Engine: newEngine(t, false),
		Saves:  repo,
		In:     strings.NewReader("open door\n/tick 1\n/tick 1\n/save mid\n/quit\n"),
		Out:    &bytes.Buffer{},
	}
	c.Run(ctx)

	var out bytes.Buffer
	c2 := &CLI{
		Engine: newEngine(t, false),
		Saves:  repo,
		In:     strings.NewReader("/load mid\n/quit\n"),
		Out:    &out,
	}
	c2.Run(ctx)

	output := out.String()
	loaded := strings.Index(output, "Game loaded from mid")
	if loaded < 0 {
		t.Fatalf("expected load confirmation, got %q", output)
	}
	if !strings.Contains(output[loaded:], "The door swings open.") {
		t.Errorf("expected the restored text after loading, got %q", output)
	}
}

func TestCLI_UnknownMetaCommand(t *testing.T) {
	c, out := newTestCLI(t, "/bogus\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Unknown command") {
		t.Error("expected unknown command message")
	}
}

func TestCLI_TraceToggle(t *testing.T) {
	c, out := newTestCLI(t, "/trace\nopen door\n/trace\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Trace output enabled") {
		t.Error("expected trace enabled message")
	}
	if !strings.Contains(output, "[trace] Verb: open") {
		t.Error("expected the verb key in trace output")
	}
	if !strings.Contains(output, "Trace output disabled") {
		t.Error("expected trace disabled message")
	}
}

func TestCLI_StateCommand(t *testing.T) {
	c, out := newTestCLI(t, "/state\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Scene: hall") {
		t.Error("expected scene in state output")
	}
	if !strings.Contains(output, "Time:") {
		t.Error("expected time in state output")
	}
}

func TestCLI_VerbsCommand(t *testing.T) {
	c, out := newTestCLI(t, "/verbs door\n/verbs ghost\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "open") || !strings.Contains(output, "IDLE") {
		t.Errorf("expected the door verbs, got %q", output)
	}
	if !strings.Contains(output, `actor "ghost"`) {
		t.Error("expected an error for an unknown actor")
	}
}

func TestCLI_TickAndSkip(t *testing.T) {
	c := &CLI{Engine: newEngine(t, false)}
	var out bytes.Buffer
	c.Out = &out
	c.In = strings.NewReader("/skip\nopen door\n/tick 1\n/tick x\n/tick 1\n/skip\n/address\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Invalid duration: x") {
		t.Error("expected invalid duration message")
	}
	if !strings.Contains(output, "The door swings open.") {
		t.Error("expected the verb to finish after two ticks")
	}
	if !strings.Contains(output, "Nothing pending.") {
		t.Error("expected nothing pending after skipping the text")
	}
}

func TestCLI_EmptyInput(t *testing.T) {
	c, out := newTestCLI(t, "\n\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	// Empty lines should be skipped (no "What do you want to do?" spam).
	if strings.Count(output, "What do you want to do?") > 0 {
		t.Error("empty lines should be silently skipped by CLI")
	}
}

func TestCLI_LoadNonexistent(t *testing.T) {
	c, out := newTestCLI(t, "/load nonexistent\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "No save named nonexistent.") {
		t.Error("expected missing save message")
	}
}

func TestCLI_Reload(t *testing.T) {
	reloads := make(chan *types.WorldDef, 1)
	def := testDef()
	def.Scenes[1].Description = "A garden in bloom."
	reloads <- def

	c, out := newTestCLI(t, "walk to archway\n/quit\n")
	c.Reloads = reloads
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Scripts reloaded.") {
		t.Error("expected reload confirmation")
	}
	if !strings.Contains(output, "A garden in bloom.") {
		t.Error("expected the reloaded description")
	}
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "look\nagain\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	// Start + first look + again.
	count := strings.Count(output, "A grand hall.")
	if count < 3 {
		t.Errorf("expected 'A grand hall.' at least 3 times (start + look + again), got %d", count)
	}
}

func TestCLI_G_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "look\ng\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	count := strings.Count(output, "A grand hall.")
	if count < 3 {
		t.Errorf("expected 'A grand hall.' at least 3 times, got %d", count)
	}
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	c, out := newTestCLI(t, "again\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Nothing to repeat") {
		t.Error("expected 'Nothing to repeat' when no prior command")
	}
}
