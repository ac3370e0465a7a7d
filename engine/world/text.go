package world

import (
	"fmt"
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/nathoo/scenecore/engine/action"
)

// TextType selects how a text is presented.
type TextType string

const (
	TextSubtitle TextType = "subtitle"
	TextTalk     TextType = "talk"
	TextPlain    TextType = "plain"
)

// Text is one entry of the text queue.
type Text struct {
	Str     string
	Actor   string // speaking actor id, empty for narration
	Speaker string // display name of the speaker
	Type    TextType
	Time    float64 // remaining display time in seconds
	CB      action.Callback
}

// Default text timing.
const (
	DefaultTextSpeed   = 0.06
	DefaultMinTextTime = 1.5
)

// TextManager shows texts one at a time. Each text stays current for a time
// proportional to its display width; when it expires its callback resumes.
type TextManager struct {
	Speed   float64 // seconds per display cell
	MinTime float64

	current *Text
	queue   []*Text
	print   func(string)
}

func newTextManager(print func(string)) *TextManager {
	return &TextManager{Speed: DefaultTextSpeed, MinTime: DefaultMinTextTime, print: print}
}

// Duration returns the display time for s.
func (tm *TextManager) Duration(s string) float64 {
	return math.Max(tm.MinTime, float64(runewidth.StringWidth(s))*tm.Speed)
}

// Add shows t, or queues it behind the current text when queue is true.
// Without queueing, pending texts are dropped and their callbacks resumed.
func (tm *TextManager) Add(t Text, queue bool) {
	if t.Time <= 0 {
		t.Time = tm.Duration(t.Str)
	}
	if !queue {
		tm.clear()
	}
	tm.queue = append(tm.queue, &t)
	if tm.current == nil {
		tm.next()
	}
}

// Update advances the current text and moves on when it expires.
func (tm *TextManager) Update(delta float64) {
	for tm.current != nil && delta > 0 {
		step := math.Min(delta, tm.current.Time)
		tm.current.Time -= step
		delta -= step
		if tm.current.Time > 0 {
			return
		}
		tm.finish()
	}
}

// Skip ends the current text immediately.
func (tm *TextManager) Skip() {
	if tm.current != nil {
		tm.finish()
	}
}

// Remove drops texts whose callback is cb without resuming it.
func (tm *TextManager) Remove(cb action.Callback) {
	kept := tm.queue[:0]
	for _, t := range tm.queue {
		if t.CB != cb {
			kept = append(kept, t)
		}
	}
	tm.queue = kept
	if tm.current != nil && tm.current.CB == cb {
		tm.current = nil
		tm.next()
	}
}

// Current returns the text being shown, or nil.
func (tm *TextManager) Current() *Text { return tm.current }

// Pending returns the current text followed by the queue.
func (tm *TextManager) Pending() []Text {
	var out []Text
	if tm.current != nil {
		out = append(out, *tm.current)
	}
	for _, t := range tm.queue {
		out = append(out, *t)
	}
	return out
}

// Restore replaces the manager contents. The first text becomes current and
// is printed again, since the player has not seen it in this session.
func (tm *TextManager) Restore(texts []Text) {
	tm.current = nil
	tm.queue = nil
	for i := range texts {
		t := texts[i]
		tm.queue = append(tm.queue, &t)
	}
	tm.next()
}

// Clear drops every text without resuming callbacks.
func (tm *TextManager) Clear() {
	tm.current = nil
	tm.queue = nil
}

func (tm *TextManager) clear() {
	var cbs []action.Callback
	if tm.current != nil && tm.current.CB != nil {
		cbs = append(cbs, tm.current.CB)
	}
	for _, t := range tm.queue {
		if t.CB != nil {
			cbs = append(cbs, t.CB)
		}
	}
	tm.current = nil
	tm.queue = nil
	for _, cb := range cbs {
		cb.Resume()
	}
}

func (tm *TextManager) finish() {
	cb := tm.current.CB
	tm.current = nil
	tm.next()
	if cb != nil {
		cb.Resume()
	}
}

func (tm *TextManager) next() {
	if len(tm.queue) == 0 {
		return
	}
	tm.current = tm.queue[0]
	tm.queue = tm.queue[1:]
	if tm.print != nil {
		tm.print(FormatText(*tm.current))
	}
}

// FormatText renders a text as an output line.
func FormatText(t Text) string {
	if t.Speaker == "" || t.Type == TextPlain {
		return t.Str
	}
	return fmt.Sprintf("%s: %q", t.Speaker, t.Str)
}
