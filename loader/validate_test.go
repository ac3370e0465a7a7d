package loader

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/actions"
	"github.com/nathoo/scenecore/types"
)

// validDef returns a minimal valid WorldDef for testing.
func validDef() *types.WorldDef {
	return &types.WorldDef{
		Game: types.GameDef{
			Title: "Test",
			Start: "hall",
		},
		Scenes: []types.SceneDef{
			{
				ID:          "hall",
				Description: "A hall.",
				Player:      "hero",
				Actors: []types.ActorDef{
					{ID: "hero"},
					{ID: "door", Verbs: []types.VerbDef{
						{ID: "open", Actions: []types.ActionDef{
							{Name: "set_state", Params: map[string]string{"actor": "$TARGET", "state": "open"}},
						}},
					}},
				},
			},
		},
	}
}

func runValidate(def *types.WorldDef) *ValidationError {
	err := validate(def, actions.NewRegistry(nil), zap.NewNop())
	if err == nil {
		return nil
	}
	return err.(*ValidationError)
}

func TestValidate_ValidDef(t *testing.T) {
	if ve := runValidate(validDef()); ve != nil {
		t.Fatalf("expected no error, got: %v", ve)
	}
}

func TestValidate_MissingStartScene(t *testing.T) {
	def := validDef()
	def.Game.Start = "nonexistent"

	ve := runValidate(def)
	if ve == nil {
		t.Fatal("expected error for missing start scene")
	}
	assertContains(t, ve.Errors, "start scene")
}

func TestValidate_EmptyTitle(t *testing.T) {
	def := validDef()
	def.Game.Title = ""

	ve := runValidate(def)
	if ve == nil {
		t.Fatal("expected error for empty title")
	}
	assertContains(t, ve.Errors, "Game.title")
}

func TestValidate_UnknownPlayer(t *testing.T) {
	def := validDef()
	def.Scenes[0].Player = "ghost"

	ve := runValidate(def)
	if ve == nil {
		t.Fatal("expected error for an undefined player")
	}
	assertContains(t, ve.Errors, `player "ghost"`)
}

func TestValidate_ReservedAndMalformedIDs(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"reserved ui tag", "UIACTORS", "reserved name"},
		{"reserved default tag", "DEFAULT_VERB", "reserved name"},
		{"reserved flow tag", "INK_MANAGER", "reserved name"},
		{"separator", "a#b", `contains "#"`},
		{"empty", "", "empty id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDef()
			def.Inventory = append(def.Inventory, types.ActorDef{ID: tt.id})

			ve := runValidate(def)
			if ve == nil {
				t.Fatalf("expected error for id %q", tt.id)
			}
			assertContains(t, ve.Errors, tt.want)
		})
	}
}

func TestValidate_Duplicates(t *testing.T) {
	def := validDef()
	def.Scenes = append(def.Scenes, types.SceneDef{ID: "hall"})
	def.Inventory = append(def.Inventory, types.ActorDef{ID: "door"})
	def.Flows = []types.FlowDef{{Name: "chat"}, {Name: "chat"}}

	ve := runValidate(def)
	if ve == nil {
		t.Fatal("expected duplicate errors")
	}
	assertContains(t, ve.Errors, `duplicate scene "hall"`)
	assertContains(t, ve.Errors, `duplicate actor "door"`)
	assertContains(t, ve.Errors, `duplicate dialog "chat"`)
}

func TestValidate_DuplicateVerbKey(t *testing.T) {
	def := validDef()
	door := &def.Scenes[0].Actors[1]
	door.Verbs = append(door.Verbs,
		types.VerbDef{ID: "open", State: "locked"},
		types.VerbDef{ID: "open", State: "locked"})

	ve := runValidate(def)
	if ve == nil {
		t.Fatal("expected error for duplicate verb key")
	}
	assertContains(t, ve.Errors, `"open.locked" twice`)
	for _, e := range ve.Errors {
		if strings.Contains(e, `"open" twice`) {
			t.Errorf("plain open should not clash with open.locked: %s", e)
		}
	}
}

func TestValidate_VerbKeySeparator(t *testing.T) {
	tests := []struct {
		name string
		vd   types.VerbDef
		want string
	}{
		{"state", types.VerbDef{ID: "open", State: "half#open"}, `state "half#open" contains "#"`},
		{"target", types.VerbDef{ID: "use", Target: "key#1"}, `target "key#1" contains "#"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDef()
			door := &def.Scenes[0].Actors[1]
			door.Verbs = append(door.Verbs, tt.vd)

			ve := runValidate(def)
			if ve == nil {
				t.Fatalf("expected error for verb %+v", tt.vd)
			}
			assertContains(t, ve.Errors, tt.want)
		})
	}
}

func TestValidate_WarningsDoNotFail(t *testing.T) {
	def := validDef()
	door := &def.Scenes[0].Actors[1]
	door.Verbs = append(door.Verbs, types.VerbDef{ID: "push", Target: "ghost", Actions: []types.ActionDef{
		{Name: "teleport", Line: 12},
		{Name: "leave", Params: map[string]string{"scene": "attic"}},
		{Name: "run_verb", Params: map[string]string{"actor": "$PLAYER", "verb": "dance"}},
		{Name: "say", Params: map[string]string{"actor": "nobody", "text": "Hi."}},
	}})

	ve := &ValidationError{}
	v := &validator{def: def, reg: actions.NewRegistry(nil), ve: ve,
		scenes: map[string]bool{}, actors: map[string]bool{}, verbs: map[string]bool{}}
	v.collectIDs()
	v.checkVerbs("actor door", door.Verbs)

	if len(ve.Errors) != 0 {
		t.Errorf("unexpected errors: %v", ve.Errors)
	}
	assertContains(t, ve.Warnings, `targets undefined actor "ghost"`)
	assertContains(t, ve.Warnings, `(line 12): unknown action "teleport"`)
	assertContains(t, ve.Warnings, `undefined scene "attic"`)
	assertContains(t, ve.Warnings, `undefined verb "dance"`)
	assertContains(t, ve.Warnings, `undefined actor "nobody"`)

	if err := validate(def, actions.NewRegistry(nil), zap.NewNop()); err != nil {
		t.Errorf("warnings should not fail validation: %v", err)
	}
}

func TestVerbID(t *testing.T) {
	tests := map[string]string{
		"open":             "open",
		"use.key":          "use",
		"open.door.locked": "open",
	}
	for in, want := range tests {
		if got := verbID(in); got != want {
			t.Errorf("verbID(%q) = %q, want %q", in, got, want)
		}
	}
}

func assertContains(t *testing.T, strs []string, substr string) {
	t.Helper()
	for _, s := range strs {
		if strings.Contains(s, substr) {
			return
		}
	}
	t.Errorf("expected one of %v to contain %q", strs, substr)
}
