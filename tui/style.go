package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleSceneDesc = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleYouSee = lipgloss.NewStyle().
			Bold(true)

	styleWaiting = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSpeaker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindSceneDesc lineKind = iota
	kindYouSee
	kindWaiting
	kindDialogue
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "You see:"):
		return kindYouSee
	case line == "Please wait.", line == "Time passes.":
		return kindWaiting
	case strings.HasPrefix(line, "You don't see"),
		strings.HasPrefix(line, "You can't"),
		strings.HasPrefix(line, "You are already"),
		strings.HasPrefix(line, "I don't understand"),
		strings.HasPrefix(line, "which "):
		return kindError
	case containsQuotedSpeech(line):
		return kindDialogue
	default:
		return kindSceneDesc
	}
}

// containsQuotedSpeech checks if a line is spoken text: Speaker: "words".
func containsQuotedSpeech(line string) bool {
	i := strings.Index(line, `: "`)
	if i <= 0 || !strings.HasSuffix(line, `"`) {
		return false
	}
	return len(line)-i-4 > 2
}

// styledYouSee renders "You see: item1, item2." with item names bold.
func styledYouSee(line string) string {
	const prefix = "You see: "
	if !strings.HasPrefix(line, prefix) {
		return styleSceneDesc.Render(line)
	}
	return styleSceneDesc.Render(prefix) + styleYouSee.Render(line[len(prefix):])
}

// styledDialogue renders `Speaker: "words"` with the speaker highlighted.
func styledDialogue(line string) string {
	i := strings.Index(line, `: "`)
	if i <= 0 {
		return styleDialogue.Render(line)
	}
	return styleSpeaker.Render(line[:i+1]) + styleDialogue.Render(line[i+1:])
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
