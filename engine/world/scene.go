package world

import "github.com/nathoo/scenecore/engine/verb"

// Scene is a location: a set of actors, an optional player actor and
// scene-level verbs (init, exit handlers).
type Scene struct {
	ID          string
	Description string
	State       string
	PlayerID    string

	actors actorList
	Verbs  *verb.Manager
}

// NewScene creates an empty scene.
func NewScene(id string) *Scene {
	return &Scene{ID: id, actors: newActorList(), Verbs: verb.NewManager()}
}

// AddActor places an actor in the scene.
func (s *Scene) AddActor(a *Actor) { s.actors.add(a) }

// RemoveActor takes an actor out of the scene and returns it.
func (s *Scene) RemoveActor(id string) *Actor { return s.actors.remove(id) }

// Actor returns the scene actor with the given id, or nil.
func (s *Scene) Actor(id string) *Actor { return s.actors.get(id) }

// Actors returns the scene actors in insertion order, player included.
func (s *Scene) Actors() []*Actor { return s.actors.all() }

// Player returns the player actor, or nil when the scene has none.
func (s *Scene) Player() *Actor {
	if s.PlayerID == "" {
		return nil
	}
	return s.actors.get(s.PlayerID)
}
