package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/nathoo/scenecore/engine"
	"github.com/nathoo/scenecore/engine/save"
	"github.com/nathoo/scenecore/types"
)

// tickInterval is the wall-clock period of the game clock.
const tickInterval = 100 * time.Millisecond

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the SceneCore TUI.
type Model struct {
	ctx     context.Context
	engine  *engine.Engine
	saves   *save.Repository
	reloads <-chan *types.WorldDef

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated narrative lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	trace    bool
	paused   bool
	quitting bool
	lastCmd  string
}

// gameOutputMsg carries output from the engine into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for intro)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// tickMsg advances the game clock by one interval.
type tickMsg time.Time

// reloadMsg carries definitions from the script watcher.
type reloadMsg struct{ def *types.WorldDef }

// Option configures a Model.
type Option func(*Model)

// WithReloads makes the model apply definitions received on ch.
func WithReloads(ch <-chan *types.WorldDef) Option {
	return func(m *Model) { m.reloads = ch }
}

// New creates a TUI model wired to the given engine. The engine should not
// auto-advance: the model drives its clock in real time.
func New(ctx context.Context, eng *engine.Engine, saves *save.Repository, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	m := Model{
		ctx:     ctx,
		engine:  eng,
		saves:   saves,
		input:   ti,
		history: NewHistory(100),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Run starts the Bubble Tea program.
func Run(ctx context.Context, eng *engine.Engine, saves *save.Repository, opts ...Option) error {
	m := New(ctx, eng, saves, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init returns the initial commands: the intro and starting scene, the
// clock, and the reload listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput(), tick(), m.waitForReload())
}

// initialOutput starts the engine on the calling goroutine; only the
// resulting message is delivered asynchronously.
func (m Model) initialOutput() tea.Cmd {
	game := m.engine.Def.Game
	header := game.Title
	if game.Version != "" {
		header += " v" + game.Version
	}
	if game.Author != "" {
		header += " by " + game.Author
	}
	lines := []string{header, ""}

	result := m.engine.Start()
	lines = append(lines, result.Output...)

	return func() tea.Msg { return gameOutputMsg{lines: lines} }
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitForReload() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	ch := m.reloads
	return func() tea.Msg {
		def, ok := <-ch
		if !ok {
			return nil
		}
		return reloadMsg{def: def}
	}
}

// Update handles messages (key presses, window resize, clock, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "esc":
			// Esc skips the text on screen, like a click would.
			result := m.engine.Skip()
			if len(result.Output) > 0 {
				m = m.appendOutput(gameOutputMsg{lines: result.Output})
			}
			return m, nil

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "tab":
			if full, ok := m.history.Complete(m.input.Value()); ok {
				m.input.SetValue(full)
				m.input.CursorEnd()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case tickMsg:
		if !m.paused {
			result := m.engine.Update(tickInterval.Seconds())
			if len(result.Output) > 0 {
				m = m.appendOutput(gameOutputMsg{lines: result.Output})
			}
		}
		return m, tick()

	case reloadMsg:
		if err := m.engine.Reload(m.ctx, msg.def); err != nil {
			m = m.appendOutput(gameOutputMsg{lines: []string{fmt.Sprintf("Reload failed: %v", err)}, isSystem: true})
		} else {
			m = m.appendOutput(gameOutputMsg{lines: []string{"Scripts reloaded."}, isSystem: true})
		}
		return m, m.waitForReload()

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	// Handle "again" / "g".
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else {
		m.lastCmd = input
	}

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// Game command.
	result := m.engine.Step(input)
	output := result.Output
	if m.trace {
		output = append(output, m.formatTrace(result)...)
	}
	m = m.appendOutput(gameOutputMsg{input: input, lines: output})
	return m, nil
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindYouSee:
		return styledYouSee(line)
	case kindWaiting:
		return styleWaiting.Render(line)
	case kindDialogue:
		return styledDialogue(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleSceneDesc.Render(line)
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries. Width is measured in terminal cells.
func wordWrap(text string, width int) string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := runewidth.StringWidth(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/pause":
		m.paused = !m.paused
		if m.paused {
			return []string{"Clock paused."}, false
		}
		return []string{"Clock running."}, false

	case "/tick":
		return m.cmdTick(arg), false

	case "/skip":
		return m.engine.Skip().Output, false

	case "/verbs":
		return m.cmdVerbs(arg), false

	case "/address":
		if p := m.engine.Pending(); len(p) > 0 {
			return p, false
		}
		return []string{"Nothing pending."}, false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	if m.saves == nil {
		return []string{"Save failed: no save directory configured"}
	}

	sd := m.engine.Snapshot(m.ctx)
	if err := m.saves.Save(m.ctx, name, sd); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

func (m *Model) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	if m.saves == nil {
		return []string{"Load failed: no save directory configured"}
	}

	sd, err := m.saves.Load(m.ctx, name)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	if err := m.engine.Restore(m.ctx, sd); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	output := []string{fmt.Sprintf("Game loaded from %s (time %.1fs).", name, sd.Time)}
	output = append(output, m.engine.DescribeScene()...)
	output = append(output, m.engine.World.Drain()...)
	return output
}

func (m *Model) cmdTick(arg string) []string {
	secs := m.engine.Options().Tick
	if arg != "" {
		n, err := strconv.ParseFloat(arg, 64)
		if err != nil || n <= 0 {
			return []string{fmt.Sprintf("Invalid duration: %s", arg)}
		}
		secs = n
	}
	return m.engine.Update(secs).Output
}

func (m *Model) cmdVerbs(owner string) []string {
	infos, err := m.engine.Verbs(owner)
	if err != nil {
		return []string{err.Error()}
	}
	if len(infos) == 0 {
		return []string{"No verbs."}
	}
	var out []string
	for _, v := range infos {
		line := fmt.Sprintf("%-24s %s", v.Key, v.Status)
		if v.IP >= 0 {
			line += fmt.Sprintf(" ip=%d target=%s", v.IP, v.Target)
		}
		out = append(out, line)
	}
	return out
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /save [name]   Save game (default: quicksave)",
		"  /load [name]   Load game (default: quicksave)",
		"  /pause         Pause or resume the clock",
		"  /tick [secs]   Advance the clock by hand",
		"  /skip          Dismiss the text on screen (or press Esc)",
		"  /verbs [actor] List verbs of an actor or the scene",
		"  /address       Show pending callbacks and their addresses",
		"  /state         Debug: dump current state",
		"  /trace         Toggle debug trace output",
		"  /help          Show this help",
		"  /quit          Exit game",
		"",
		"Game commands:",
		"  look (l)               Describe the scene",
		"  look at <thing> (x)    Look closely at something",
		"  pick up <thing>        Pick something up",
		"  open / close <thing>",
		"  use <item> with <thing>",
		"  give <item> to <actor>",
		"  talk to <actor>",
		"  walk to <thing>        Go somewhere",
		"  inventory (i)          Check what you're carrying",
		"  wait [secs] (z)        Let time pass",
		"  again (g)              Repeat your last command",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history, Tab to complete",
	}
}

func (m *Model) cmdState() []string {
	st := m.engine.Status()
	output := []string{
		fmt.Sprintf("Time: %.2fs", st.Time),
		fmt.Sprintf("Scene: %s (state %q)", st.Scene, st.SceneState),
	}
	var inv []string
	for _, a := range m.engine.World.Inventory.Actors() {
		inv = append(inv, a.ID)
	}
	output = append(output, fmt.Sprintf("Inventory: %v", inv))
	if st.CutMode {
		output = append(output, "Cut mode: on")
	}
	if len(st.Running) > 0 {
		output = append(output, fmt.Sprintf("Running: %v", st.Running))
	}
	return output
}

func (m *Model) formatTrace(result types.Result) []string {
	var lines []string
	if result.Verb != "" {
		lines = append(lines, fmt.Sprintf("[trace] Verb: %s", result.Verb))
	}
	if result.Pending {
		for _, p := range m.engine.Pending() {
			lines = append(lines, fmt.Sprintf("[trace]   %s", p))
		}
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
