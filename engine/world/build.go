package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/verb"
	"github.com/nathoo/scenecore/types"
)

// Build instantiates the runtime graph from definitions. Actions whose name
// is not registered are logged and skipped; the rest of the verb loads.
// The current scene is not set; callers start the game explicitly.
func Build(def *types.WorldDef, reg *action.Registry, logger *zap.Logger) (*World, error) {
	w := New(logger)
	w.Title = def.Game.Title
	w.Version = def.Game.Version
	w.Start = def.Game.Start
	w.Intro = def.Game.Intro
	w.RNG = NewRNG(def.Game.Seed)

	b := &builder{w: w, reg: reg}

	for _, sd := range def.Scenes {
		s := NewScene(sd.ID)
		s.Description = sd.Description
		s.State = sd.State
		s.PlayerID = sd.Player
		for _, vd := range sd.Verbs {
			s.Verbs.Add(b.verb(vd))
		}
		for _, ad := range sd.Actors {
			s.AddActor(b.actor(ad))
		}
		w.AddScene(s)
	}
	for _, ad := range def.Inventory {
		w.Inventory.Add(b.actor(ad))
	}
	for _, ad := range def.UIActors {
		w.UIActors.Add(b.actor(ad))
	}
	for _, vd := range def.DefaultVerbs {
		w.Verbs.Add(b.verb(vd))
	}
	for _, fd := range def.Flows {
		w.Flows.Add(b.verb(types.VerbDef{ID: fd.Name, Actions: fd.Actions}))
	}

	if w.Start != "" && w.Scene(w.Start) == nil {
		return nil, fmt.Errorf("start scene %q: %w", w.Start, ErrNotFound)
	}

	for _, a := range b.bind {
		a.Bind(w)
	}
	w.logger.Info("world built",
		zap.Int("scenes", len(w.sceneOrder)),
		zap.Int("actions", b.actions),
		zap.Int("skipped", b.skipped))
	return w, nil
}

type builder struct {
	w       *World
	reg     *action.Registry
	bind    []Binder
	actions int
	skipped int
}

func (b *builder) actor(ad types.ActorDef) *Actor {
	a := NewActor(ad.ID)
	a.Kind = ad.Kind
	a.Desc = ad.Desc
	a.State = ad.State
	a.Visible = ad.Visible
	a.Interactive = ad.Interactive
	a.Pos = ad.Position
	if ad.StandAnim != "" {
		a.StandAnim = ad.StandAnim
	}
	if ad.TalkAnim != "" {
		a.TalkAnim = ad.TalkAnim
	}
	a.Anim = a.StandAnim
	for _, vd := range ad.Verbs {
		a.Verbs.Add(b.verb(vd))
	}
	return a
}

func (b *builder) verb(vd types.VerbDef) *verb.Verb {
	v := verb.New(vd.ID, vd.Target, vd.State, b.w.logger)
	v.Icon = vd.Icon
	for _, ad := range vd.Actions {
		a := b.reg.Create(ad.Name, ad.Params)
		if a == nil {
			b.skipped++
			b.w.logger.Error("action skipped",
				zap.String("verb", v.Key()), zap.String("action", ad.Name), zap.Int("line", ad.Line))
			continue
		}
		if bd, ok := a.(Binder); ok {
			b.bind = append(b.bind, bd)
		}
		b.actions++
		v.Add(a)
	}
	return v
}
