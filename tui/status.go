package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sceneDisplayName derives a human-readable name from a scene ID.
// "great_hall" -> "Great Hall", "castle_gates" -> "Castle Gates".
func sceneDisplayName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing the
// current scene and its state, running verbs, pending timers, the inventory
// and the game clock.
func (m Model) renderStatusBar() string {
	st := m.engine.Status()

	left := " " + sceneDisplayName(st.Scene)
	if st.SceneState != "" {
		left += " (" + st.SceneState + ")"
	}
	if st.CutMode {
		left += " | cutscene"
	}
	if len(st.Running) > 0 {
		left += " | " + strings.Join(st.Running, ",")
	}
	if st.Timers > 0 {
		left += fmt.Sprintf(" | timers:%d", st.Timers)
	}

	clock := fmt.Sprintf("%.1fs", st.Time)
	if m.paused {
		clock += " paused"
	}
	right := clock + " "

	// Show inventory items if they fit, otherwise just count.
	items := m.engine.World.Inventory.Actors()
	if len(items) > 0 {
		names := make([]string, 0, len(items))
		for _, a := range items {
			names = append(names, a.Name())
		}
		candidate := fmt.Sprintf("Inv: %s | %s ", strings.Join(names, ", "), clock)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | %s ", len(items), clock)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
