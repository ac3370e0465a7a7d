package world

import "github.com/nathoo/scenecore/engine/action"

// Timer resumes its callback once Time seconds of game time have elapsed.
type Timer struct {
	Time float64
	CB   action.Callback
}

// Timers is the game-time timer list.
type Timers struct {
	timers []*Timer
}

// Add schedules cb to be resumed after t seconds.
func (ts *Timers) Add(t float64, cb action.Callback) {
	ts.timers = append(ts.timers, &Timer{Time: t, CB: cb})
}

// Remove unschedules every timer for cb and reports whether any existed.
func (ts *Timers) Remove(cb action.Callback) bool {
	kept := ts.timers[:0]
	removed := false
	for _, t := range ts.timers {
		if t.CB == cb {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	ts.timers = kept
	return removed
}

// Update advances every timer by delta and resumes the expired ones in
// scheduling order.
func (ts *Timers) Update(delta float64) {
	var fired []action.Callback
	kept := ts.timers[:0]
	for _, t := range ts.timers {
		t.Time -= delta
		if t.Time <= 0 {
			fired = append(fired, t.CB)
			continue
		}
		kept = append(kept, t)
	}
	ts.timers = kept

	for _, cb := range fired {
		cb.Resume()
	}
}

// Len returns the number of pending timers.
func (ts *Timers) Len() int { return len(ts.timers) }

// Entries returns a copy of the pending timers.
func (ts *Timers) Entries() []Timer {
	out := make([]Timer, len(ts.timers))
	for i, t := range ts.timers {
		out[i] = *t
	}
	return out
}

// Clear drops every timer without resuming.
func (ts *Timers) Clear() { ts.timers = nil }
