// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the SceneCore engine.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/scenecore/engine"
	"github.com/nathoo/scenecore/engine/save"
	"github.com/nathoo/scenecore/types"
)

// DefaultSlot is the save name used when /save and /load get no argument.
const DefaultSlot = "quicksave"

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Saves     *save.Repository
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)

	// Reloads delivers fresh definitions from the script watcher. They are
	// applied between commands.
	Reloads <-chan *types.WorldDef

	lastCmd string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine and save repository.
func New(eng *engine.Engine, saves *save.Repository) *CLI {
	return &CLI{
		Engine: eng,
		Saves:  saves,
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// Run starts the game loop. It shows the intro and the starting scene,
// then loops: prompt → input → dispatch → output.
func (c *CLI) Run(ctx context.Context) {
	c.printResult(c.Engine.Start())

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		c.applyReloads(ctx)

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(ctx, input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
	}
}

// applyReloads swaps in any definitions the watcher delivered.
func (c *CLI) applyReloads(ctx context.Context) {
	for {
		select {
		case def := <-c.Reloads:
			if err := c.Engine.Reload(ctx, def); err != nil {
				c.printSystem(fmt.Sprintf("Reload failed: %v", err))
				continue
			}
			c.printSystem("Scripts reloaded.")
		default:
			return
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(ctx, arg)

	case "/load":
		c.cmdLoad(ctx, arg)

	case "/saves":
		c.cmdSaves(ctx)

	case "/tick":
		c.cmdTick(arg)

	case "/skip":
		c.printResult(c.Engine.Skip())

	case "/verbs":
		c.cmdVerbs(arg)

	case "/address":
		c.cmdAddress()

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(ctx context.Context, name string) {
	if name == "" {
		name = DefaultSlot
	}
	if c.Saves == nil {
		c.printSystem("Save failed: no save directory configured")
		return
	}

	sd := c.Engine.Snapshot(ctx)
	if err := c.Saves.Save(ctx, name, sd); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(ctx context.Context, name string) {
	if name == "" {
		name = DefaultSlot
	}
	if c.Saves == nil {
		c.printSystem("Load failed: no save directory configured")
		return
	}

	sd, err := c.Saves.Load(ctx, name)
	if errors.Is(err, save.ErrNoSave) {
		c.printSystem(fmt.Sprintf("No save named %s.", name))
		return
	}
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	if err := c.Engine.Restore(ctx, sd); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game loaded from %s (time %.1fs).", name, sd.Time))

	// Show current scene after loading, then the text on screen.
	for _, line := range c.Engine.DescribeScene() {
		c.printLine(line)
	}
	for _, line := range c.Engine.World.Drain() {
		c.printLine(line)
	}
}

func (c *CLI) cmdSaves(ctx context.Context) {
	if c.Saves == nil {
		c.printSystem("No save directory configured.")
		return
	}
	names, err := c.Saves.List(ctx)
	if err != nil {
		c.printSystem(fmt.Sprintf("Listing saves failed: %v", err))
		return
	}
	if len(names) == 0 {
		c.printSystem("No saves.")
		return
	}
	c.printSystem("Saves: " + strings.Join(names, ", "))
}

func (c *CLI) cmdTick(arg string) {
	secs := c.Engine.Options().Tick
	if arg != "" {
		n, err := strconv.ParseFloat(arg, 64)
		if err != nil || n <= 0 {
			c.printSystem(fmt.Sprintf("Invalid duration: %s", arg))
			return
		}
		secs = n
	}
	c.printResult(c.Engine.Update(secs))
}

func (c *CLI) cmdVerbs(owner string) {
	infos, err := c.Engine.Verbs(owner)
	if err != nil {
		c.printSystem(err.Error())
		return
	}
	if len(infos) == 0 {
		c.printSystem("No verbs.")
		return
	}
	for _, v := range infos {
		line := fmt.Sprintf("%-24s %s", v.Key, v.Status)
		if v.IP >= 0 {
			line += fmt.Sprintf(" ip=%d target=%s", v.IP, v.Target)
		}
		c.printSystem(line)
	}
}

func (c *CLI) cmdAddress() {
	pending := c.Engine.Pending()
	if len(pending) == 0 {
		c.printSystem("Nothing pending.")
		return
	}
	for _, p := range pending {
		c.printSystem(p)
	}
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]   Save game (default: quicksave)",
		"  /load [name]   Load game (default: quicksave)",
		"  /saves         List saved games",
		"  /tick [secs]   Advance the clock",
		"  /skip          Dismiss the text on screen",
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
		"  push / pull <thing>",
		"  use <item> with <thing>",
		"  give <item> to <actor>",
		"  talk to <actor>",
		"  walk to <thing>        Go somewhere",
		"  inventory (i)          Check what you're carrying",
		"  wait [secs] (z)        Let time pass",
		"  again (g)              Repeat your last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	st := c.Engine.Status()
	w := c.Engine.World
	c.printSystem(fmt.Sprintf("Time: %.2fs", st.Time))
	c.printSystem(fmt.Sprintf("Scene: %s (state %q)", st.Scene, st.SceneState))
	if st.CutMode {
		c.printSystem("Cut mode: on")
	}

	var inv []string
	for _, a := range w.Inventory.Actors() {
		inv = append(inv, a.ID)
	}
	c.printSystem(fmt.Sprintf("Inventory: %v", inv))

	if s := w.CurrentScene(); s != nil {
		for _, a := range s.Actors() {
			if a.State != "" {
				c.printSystem(fmt.Sprintf("Actor %s: %s", a.ID, a.State))
			}
		}
	}

	props := w.Properties()
	if len(props) > 0 {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c.printSystem(fmt.Sprintf("Property %s = %s", k, props[k]))
		}
	}
	if len(st.Running) > 0 {
		c.printSystem(fmt.Sprintf("Running: %v", st.Running))
	}
}

func (c *CLI) printTrace(result types.Result) {
	if result.Verb != "" {
		c.printSystem(fmt.Sprintf("[trace] Verb: %s", result.Verb))
	}
	if result.Pending {
		for _, p := range c.Engine.Pending() {
			c.printSystem(fmt.Sprintf("[trace]   %s", p))
		}
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
