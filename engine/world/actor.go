package world

import (
	"github.com/nathoo/scenecore/engine/verb"
	"github.com/nathoo/scenecore/types"
)

// Actor is anything in a scene the player can interact with: characters,
// objects, inventory items and UI actors.
type Actor struct {
	ID          string
	Kind        string
	Desc        string
	State       string
	Visible     bool
	Interactive bool
	Pos         types.Vector2

	Anim      string
	StandAnim string
	TalkAnim  string

	Verbs *verb.Manager
}

// NewActor creates a visible, interactive actor with no verbs.
func NewActor(id string) *Actor {
	return &Actor{
		ID:          id,
		Visible:     true,
		Interactive: true,
		StandAnim:   "stand",
		TalkAnim:    "talk",
		Verbs:       verb.NewManager(),
	}
}

// Name returns the description, falling back to the id.
func (a *Actor) Name() string {
	if a.Desc != "" {
		return a.Desc
	}
	return a.ID
}

// actorList is an ordered set of actors keyed by id.
type actorList struct {
	byID  map[string]*Actor
	order []string
}

func newActorList() actorList {
	return actorList{byID: map[string]*Actor{}}
}

func (l *actorList) add(a *Actor) {
	if _, ok := l.byID[a.ID]; !ok {
		l.order = append(l.order, a.ID)
	}
	l.byID[a.ID] = a
}

func (l *actorList) remove(id string) *Actor {
	a, ok := l.byID[id]
	if !ok {
		return nil
	}
	delete(l.byID, id)
	for i, o := range l.order {
		if o == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return a
}

func (l *actorList) get(id string) *Actor { return l.byID[id] }

func (l *actorList) all() []*Actor {
	out := make([]*Actor, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}

// ActorSet is an ordered collection of actors outside any scene: the
// inventory and the UI actors.
type ActorSet struct {
	list actorList
}

// NewActorSet returns an empty set.
func NewActorSet() *ActorSet {
	return &ActorSet{list: newActorList()}
}

func (s *ActorSet) Add(a *Actor)            { s.list.add(a) }
func (s *ActorSet) Remove(id string) *Actor { return s.list.remove(id) }
func (s *ActorSet) Get(id string) *Actor    { return s.list.get(id) }
func (s *ActorSet) Actors() []*Actor        { return s.list.all() }
func (s *ActorSet) Len() int                { return len(s.list.order) }
func (s *ActorSet) Contains(id string) bool { return s.list.get(id) != nil }
