package callback

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/world"
)

// Serializer maps callbacks to addresses relative to a world and a scene.
type Serializer struct {
	logger *zap.Logger
}

// NewSerializer returns a serializer. A nil logger discards output.
func NewSerializer(logger *zap.Logger) *Serializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serializer{logger: logger}
}

// Locators returns the providers for w and s in search order: UI actors,
// inventory, dialog flows, scene verbs, the player, other scene actors and
// the world default verbs. s may be nil.
func Locators(w *world.World, s *world.Scene) []Locatable {
	locs := []Locatable{
		actorsLocator{scope: ScopeUIActors, actors: w.UIActors.Actors(), lookup: w.UIActors.Get},
		actorsLocator{scope: ScopeInventory, actors: w.Inventory.Actors(), lookup: w.Inventory.Get},
		flowsLocator{flows: w.Flows},
	}
	if s != nil {
		var ordered []*world.Actor
		if p := s.Player(); p != nil {
			ordered = append(ordered, p)
		}
		for _, a := range s.Actors() {
			if a.ID != s.PlayerID {
				ordered = append(ordered, a)
			}
		}
		locs = append(locs,
			managerLocator{scope: ScopePlain, owner: s.ID, m: s.Verbs},
			actorsLocator{scope: ScopePlain, actors: ordered, lookup: func(id string) *world.Actor {
				if a := s.Actor(id); a != nil {
					return a
				}
				return w.Inventory.Get(id)
			}},
		)
	}
	return append(locs, managerLocator{scope: ScopeDefault, m: w.Verbs})
}

// Serialize returns the address of cb. A nil callback serializes to the
// empty string. A callback that is not reachable from w and s is logged
// and reported with ok=false.
func (sr *Serializer) Serialize(w *world.World, s *world.Scene, cb action.Callback) (addr string, ok bool) {
	if cb == nil {
		return "", true
	}
	if addr, ok := locate(w, s, cb); ok {
		return addr, true
	}
	sr.logger.Error("callback not found, it will not be saved", zap.String("type", fmt.Sprintf("%T", cb)))
	return "", false
}

// SerializeAnyScene is Serialize for callbacks whose owner may have left
// the current scene: s is tried first, then every other scene in world
// order. It returns the scene the address is relative to.
func (sr *Serializer) SerializeAnyScene(w *world.World, s *world.Scene, cb action.Callback) (addr, scene string, ok bool) {
	if cb == nil {
		return "", "", true
	}
	scopes := []*world.Scene{s}
	for _, o := range w.Scenes() {
		if o != s {
			scopes = append(scopes, o)
		}
	}
	for _, sc := range scopes {
		if addr, ok := locate(w, sc, cb); ok {
			if sc != nil {
				scene = sc.ID
			}
			return addr, scene, true
		}
	}
	sr.logger.Error("callback not found in any scene, it will not be saved", zap.String("type", fmt.Sprintf("%T", cb)))
	return "", "", false
}

func locate(w *world.World, s *world.Scene, cb action.Callback) (string, bool) {
	for _, l := range Locators(w, s) {
		if a, found := l.AddressOf(cb); found {
			return a.String(), true
		}
	}
	return "", false
}

// Find resolves an address back to a live callback. The empty address and
// every unresolvable address yield nil; the latter are logged.
func (sr *Serializer) Find(w *world.World, s *world.Scene, addr string) action.Callback {
	if addr == "" {
		return nil
	}
	a, err := Parse(addr)
	if err != nil {
		sr.logger.Error("callback address", zap.Error(err))
		return nil
	}
	for _, l := range Locators(w, s) {
		cb, owned := l.Resolve(a)
		if !owned {
			continue
		}
		if cb == nil {
			sr.logger.Error("callback not found", zap.String("address", addr))
		}
		return cb
	}
	sr.logger.Error("callback owner not found", zap.String("address", addr))
	return nil
}
