// Package engine provides the Step() orchestrator that wires together
// parsing, actor resolution, verb lookup and the simulated clock that
// resumes suspended verbs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/actions"
	"github.com/nathoo/scenecore/engine/callback"
	"github.com/nathoo/scenecore/engine/parser"
	"github.com/nathoo/scenecore/engine/resolve"
	"github.com/nathoo/scenecore/engine/save"
	"github.com/nathoo/scenecore/engine/verb"
	"github.com/nathoo/scenecore/engine/world"
	"github.com/nathoo/scenecore/types"
)

const tracerName = "github.com/nathoo/scenecore/engine"

// ErrNoVerb is returned when no verb matches a request.
var ErrNoVerb = errors.New("no such verb")

// Options tune the simulated clock and the save format.
type Options struct {
	// AutoAdvance advances game time after each step until nothing is
	// pending, so a text front end never waits on the clock.
	AutoAdvance bool
	Tick        float64 // seconds per auto-advance tick
	MaxSettle   float64 // max seconds advanced by one step
	TextSpeed   float64
	MinTextTime float64
	Format      save.Format
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		AutoAdvance: true,
		Tick:        0.1,
		MaxSettle:   120,
		TextSpeed:   world.DefaultTextSpeed,
		MinTextTime: world.DefaultMinTextTime,
		Format:      save.FormatJSON,
	}
}

// Engine holds the game definitions and the live world.
type Engine struct {
	Def        *types.WorldDef
	World      *world.World
	Registry   *action.Registry
	Serializer *callback.Serializer

	opts   Options
	sound  world.SoundPlayer
	logger *zap.Logger
	tracer trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRegistry sets the action registry. Defaults to the built-in actions.
func WithRegistry(r *action.Registry) Option {
	return func(e *Engine) { e.Registry = r }
}

// WithOptions replaces the engine options.
func WithOptions(o Options) Option {
	return func(e *Engine) { e.opts = o }
}

// WithSound routes sound actions to p instead of the output log.
func WithSound(p world.SoundPlayer) Option {
	return func(e *Engine) { e.sound = p }
}

// WithTracerProvider sets the provider save and load spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(tracerName) }
}

// New builds the world from def.
func New(def *types.WorldDef, opts ...Option) (*Engine, error) {
	e := &Engine{
		Def:    def,
		opts:   DefaultOptions(),
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Registry == nil {
		e.Registry = actions.NewRegistry(e.logger)
	}
	e.Serializer = callback.NewSerializer(e.logger)

	w, err := e.build(def)
	if err != nil {
		return nil, err
	}
	e.World = w
	return e, nil
}

// Options returns the engine options.
func (e *Engine) Options() Options { return e.opts }

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger { return e.logger }

func (e *Engine) build(def *types.WorldDef) (*world.World, error) {
	w, err := world.Build(def, e.Registry, e.logger)
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}
	if e.opts.TextSpeed > 0 {
		w.Text.Speed = e.opts.TextSpeed
	}
	if e.opts.MinTextTime > 0 {
		w.Text.MinTime = e.opts.MinTextTime
	}
	if e.sound != nil {
		w.Sound = e.sound
	}
	return w, nil
}

// Start enters the start scene, running its init verb, and returns the
// intro and the scene description.
func (e *Engine) Start() types.Result {
	var result types.Result
	if e.World.Intro != "" {
		e.World.Print(e.World.Intro)
	}
	if err := e.World.SetCurrentScene(e.World.Start); err != nil {
		e.logger.Error("start", zap.Error(err))
		result.Output = append(result.Output, err.Error())
		return result
	}
	e.settle()
	result.Output = append(result.Output, e.World.Drain()...)
	result.Output = append(result.Output, e.DescribeScene()...)
	result.Pending = e.World.Busy()
	return result
}

// Step processes one player command and returns the result.
func (e *Engine) Step(input string) types.Result {
	var result types.Result
	w := e.World
	before := w.CurrentScene()

	// 1. Parse input.
	intent := parser.Parse(input)

	// 2. Empty input.
	if intent.Verb == "" {
		result.Output = append(result.Output, "What do you want to do?")
		return result
	}

	// 3. Cut scenes block player commands.
	if w.CutMode() {
		result.Output = append(result.Output, "Please wait.")
		result.Pending = true
		return result
	}

	// 4. Built-ins and verbs.
	switch intent.Verb {
	case "look":
		result.Output = append(result.Output, e.DescribeScene()...)
	case "inventory":
		result.Output = append(result.Output, e.describeInventory())
	case "wait":
		secs := 1.0
		if intent.Object != "" {
			if v, err := strconv.ParseFloat(intent.Object, 64); err == nil && v > 0 {
				secs = v
			}
		}
		e.advance(secs, false)
		result.Output = append(result.Output, "Time passes.")
	default:
		key, msg := e.runIntent(intent)
		result.Verb = key
		if msg != "" {
			result.Output = append(result.Output, msg)
		}
	}

	// 5. Let suspended verbs finish.
	e.settle()
	result.Output = append(result.Output, e.World.Drain()...)

	// 6. Describe the new scene after a scene change.
	if after := e.World.CurrentScene(); after != nil && after != before {
		result.Output = append(result.Output, e.DescribeScene()...)
	}
	result.Pending = e.World.Busy()
	return result
}

// runIntent resolves and starts the verb for intent. It returns the verb key
// that ran, or a message when nothing could run.
func (e *Engine) runIntent(intent types.Intent) (string, string) {
	w := e.World
	res, err := resolve.Resolve(w, intent)
	if err != nil {
		return "", err.Error()
	}

	var owner *world.Actor
	target := res.TargetID
	if res.ObjectID != "" {
		owner = w.Actor(res.ObjectID)
		if target == "" {
			target = res.ObjectID
		}
	}

	v := w.ResolveVerb(owner, intent.Verb, res.TargetID)
	if v == nil {
		return "", e.fallback(intent.Verb, owner)
	}
	if err := v.Run(target, nil); err != nil {
		if errors.Is(err, verb.ErrAlreadyRunning) {
			return v.Key(), "You are already doing that."
		}
		return v.Key(), err.Error()
	}
	return v.Key(), ""
}

func (e *Engine) fallback(verbID string, owner *world.Actor) string {
	if owner == nil {
		switch verbID {
		case "goto":
			return "Go where?"
		case "leave":
			return "You can't leave right now."
		}
		return "I don't understand that."
	}
	name := owner.Name()
	switch verbID {
	case "lookat":
		return fmt.Sprintf("You see nothing special about the %s.", name)
	case "pickup":
		return fmt.Sprintf("You can't pick up the %s.", name)
	case "talkto":
		return fmt.Sprintf("The %s has nothing to say.", name)
	case "goto":
		return "You can't go there."
	default:
		msg := fmt.Sprintf("You can't do anything useful with the %s.", name)
		if ids := owner.Verbs.IDs(); len(ids) > 0 {
			msg += " Try: " + strings.Join(ids, ", ") + "."
		}
		return msg
	}
}

// Update advances game time by delta seconds.
func (e *Engine) Update(delta float64) types.Result {
	before := e.World.CurrentScene()
	e.World.Update(delta)
	result := types.Result{Output: e.World.Drain()}
	if after := e.World.CurrentScene(); after != nil && after != before {
		result.Output = append(result.Output, e.DescribeScene()...)
	}
	result.Pending = e.World.Busy()
	return result
}

// Skip ends the text on screen.
func (e *Engine) Skip() types.Result {
	e.World.Text.Skip()
	e.settle()
	return types.Result{Output: e.World.Drain(), Pending: e.World.Busy()}
}

// Busy reports whether a verb, timer or text is pending.
func (e *Engine) Busy() bool { return e.World.Busy() }

// settle advances time in ticks until nothing is pending, bounded by
// MaxSettle. It does nothing unless AutoAdvance is on.
func (e *Engine) settle() {
	if !e.opts.AutoAdvance {
		return
	}
	e.advance(e.opts.MaxSettle, true)
}

// advance moves the clock forward secs seconds in ticks, stopping early
// once nothing is pending when untilIdle is set.
func (e *Engine) advance(secs float64, untilIdle bool) {
	tick := e.opts.Tick
	if tick <= 0 {
		tick = 0.1
	}
	for elapsed := 0.0; elapsed < secs; elapsed += tick {
		if untilIdle && !e.World.Busy() {
			return
		}
		e.World.Update(math.Min(tick, secs-elapsed))
	}
}

// FindVerb locates the verb id on ownerID ("" for the current scene) for
// the given target.
func (e *Engine) FindVerb(ownerID, id, target string) (*verb.Verb, error) {
	var owner *world.Actor
	if ownerID != "" {
		owner, _ = e.World.FindActor(ownerID)
		if owner == nil {
			return nil, fmt.Errorf("actor %q: %w", ownerID, world.ErrNotFound)
		}
	}
	v := e.World.ResolveVerb(owner, id, target)
	if v == nil {
		return nil, fmt.Errorf("%q: %w", id, ErrNoVerb)
	}
	return v, nil
}

// RunVerb runs a verb directly, bypassing the parser.
func (e *Engine) RunVerb(ownerID, id, target string) (types.Result, error) {
	v, err := e.FindVerb(ownerID, id, target)
	if err != nil {
		return types.Result{}, err
	}
	if err := v.Run(target, nil); err != nil {
		return types.Result{}, err
	}
	e.settle()
	return types.Result{Verb: v.Key(), Output: e.World.Drain(), Pending: e.World.Busy()}, nil
}

// CancelVerb cancels a running verb and everything it is waiting on.
func (e *Engine) CancelVerb(ownerID, id, target string) error {
	v, err := e.FindVerb(ownerID, id, target)
	if err != nil {
		return err
	}
	v.Cancel()
	return nil
}

// DescribeScene returns the scene description and the visible actors.
func (e *Engine) DescribeScene() []string {
	s := e.World.CurrentScene()
	if s == nil {
		return []string{"You are nowhere."}
	}
	var output []string
	if s.Description != "" {
		output = append(output, s.Description)
	}
	var names []string
	for _, a := range resolve.Candidates(e.World) {
		if _, loc := e.World.FindActor(a.ID); loc == s.ID {
			names = append(names, a.Name())
		}
	}
	if len(names) > 0 {
		output = append(output, "You see: "+strings.Join(names, ", ")+".")
	}
	return output
}

func (e *Engine) describeInventory() string {
	items := e.World.Inventory.Actors()
	if len(items) == 0 {
		return "You are carrying nothing."
	}
	names := make([]string, 0, len(items))
	for _, a := range items {
		names = append(names, a.Name())
	}
	return "You are carrying: " + strings.Join(names, ", ") + "."
}

// Snapshot captures the runtime state.
func (e *Engine) Snapshot(ctx context.Context) *save.SaveData {
	_, span := e.tracer.Start(ctx, "engine.Snapshot")
	defer span.End()
	sd := save.Snapshot(e.World, e.Serializer)
	span.SetAttributes(
		attribute.String("save.id", sd.ID),
		attribute.Int("save.actors", len(sd.Actors)),
		attribute.Int("save.timers", len(sd.Timers)),
	)
	return sd
}

// Restore rebuilds the world from the definitions and applies sd. The
// current world is kept when restoring fails.
func (e *Engine) Restore(ctx context.Context, sd *save.SaveData) (err error) {
	_, span := e.tracer.Start(ctx, "engine.Restore")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("save.id", sd.ID), attribute.String("save.scene", sd.Scene))

	if sd.Game != "" && sd.Game != e.Def.Game.Title {
		return fmt.Errorf("save is for %q, not %q", sd.Game, e.Def.Game.Title)
	}
	w, err := e.build(e.Def)
	if err != nil {
		return err
	}
	if err := save.Restore(w, e.Serializer, sd); err != nil {
		return err
	}
	e.World = w
	e.logger.Info("game restored", zap.String("save", sd.ID), zap.String("scene", sd.Scene))
	return nil
}

// Save encodes the runtime state in the configured format.
func (e *Engine) Save(ctx context.Context) ([]byte, error) {
	return save.Encode(e.Snapshot(ctx), e.opts.Format)
}

// Load decodes data in the configured format and restores it.
func (e *Engine) Load(ctx context.Context, data []byte) error {
	sd, err := save.Decode(data, e.opts.Format)
	if err != nil {
		return err
	}
	return e.Restore(ctx, sd)
}

// Reload swaps in fresh definitions, typically after a script edit, and
// carries the running game over to them.
func (e *Engine) Reload(ctx context.Context, def *types.WorldDef) error {
	sd := e.Snapshot(ctx)
	sd.Game = ""
	old := e.Def
	e.Def = def
	if err := e.Restore(ctx, sd); err != nil {
		e.Def = old
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}
