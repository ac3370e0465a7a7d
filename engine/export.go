package engine

import (
	"fmt"

	"github.com/nathoo/scenecore/engine/action"
)

// VerbRecord is the persisted form of one verb: its owner location, key and
// encoded actions.
type VerbRecord struct {
	Loc     string          `json:"loc"`
	Owner   string          `json:"owner,omitempty"`
	Key     string          `json:"key"`
	Actions []action.Record `json:"actions"`
}

// Export encodes every verb in the world as action records, in world order.
func (e *Engine) Export() ([]VerbRecord, error) {
	var out []VerbRecord
	for _, o := range e.World.Owners() {
		for _, v := range o.Manager.Verbs() {
			rec := VerbRecord{Loc: o.Loc, Owner: o.Actor, Key: v.Key()}
			for i, a := range v.Actions() {
				r, err := action.Encode(e.Registry, a)
				if err != nil {
					return nil, fmt.Errorf("verb %s#%s action %d: %w", o.Loc, v.Key(), i, err)
				}
				rec.Actions = append(rec.Actions, r)
			}
			out = append(out, rec)
		}
	}
	return out, nil
}
