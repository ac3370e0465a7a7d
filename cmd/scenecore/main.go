// SceneCore runs point-and-click adventure games scripted in Lua.
// Usage: scenecore [--version] [--plain] [--script <file>] [--config <file>] [--watch] [--trace] [--debug] <game_directory>
//
//	scenecore export <game_directory>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/cli"
	"github.com/nathoo/scenecore/config"
	"github.com/nathoo/scenecore/engine"
	"github.com/nathoo/scenecore/engine/actions"
	"github.com/nathoo/scenecore/engine/save"
	"github.com/nathoo/scenecore/loader"
	"github.com/nathoo/scenecore/tui"
	"github.com/nathoo/scenecore/types"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: scenecore [--version] [--plain] [--script <file>] [--config <file>] [--watch] [--trace] [--debug] <game_directory>\n" +
	"       scenecore export <game_directory>\n"

type flags struct {
	plain      bool
	trace      bool
	watch      bool
	debug      bool
	export     bool
	scriptFile string
	configFile string
	gameDir    string
}

func main() {
	f, ok := parseArgs(os.Args[1:])
	if !ok {
		return
	}
	if f.gameDir == "" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs returns false when the invocation is already handled.
func parseArgs(args []string) (flags, bool) {
	var f flags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("scenecore %s (commit %s, built %s)\n", version, commit, date)
			return f, false
		case "--plain":
			f.plain = true
		case "--trace":
			f.trace = true
		case "--watch":
			f.watch = true
		case "--debug":
			f.debug = true
		case "--script", "--config":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a file path\n", args[i])
				os.Exit(1)
			}
			if args[i] == "--script" {
				f.scriptFile = args[i+1]
			} else {
				f.configFile = args[i+1]
			}
			i++
		case "export":
			if f.gameDir == "" && !f.export {
				f.export = true
				continue
			}
			fallthrough
		default:
			if f.gameDir == "" {
				f.gameDir = args[i]
			}
		}
	}
	return f, true
}

func run(ctx context.Context, f flags) error {
	cfgPath := f.configFile
	if cfgPath == "" {
		cfgPath = filepath.Join(f.gameDir, config.ConfigFile)
	}
	cfg, undecoded, err := config.Load(f.gameDir, cfgPath)
	if err != nil {
		return err
	}
	if f.debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	if f.watch {
		cfg.Script.Watch = true
	}

	interactive := !f.export && f.scriptFile == "" && !f.plain && isatty.IsTerminal(os.Stdout.Fd())
	if interactive && (cfg.Log.File == config.LogFileStdErr || cfg.Log.File == config.LogFileStdOut) {
		// The alternate screen owns the terminal.
		cfg.Log.File = config.LogFileNone
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	for _, k := range undecoded {
		logger.Warn("unknown config key", zap.String("key", k), zap.String("file", cfgPath))
	}

	reg := actions.NewRegistry(logger)
	ld := loader.New(reg, loader.WithLogger(logger), loader.WithCacheSize(cfg.Script.CacheSize))
	def, err := ld.Load(cfg.Game.Dir)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}

	opts := cfg.EngineOptions()
	if interactive {
		opts.AutoAdvance = false
	}
	eng, err := engine.New(def, engine.WithOptions(opts), engine.WithLogger(logger), engine.WithRegistry(reg))
	if err != nil {
		return err
	}

	if f.export {
		return export(eng)
	}

	var reloads chan *types.WorldDef
	if cfg.Script.Watch {
		reloads = make(chan *types.WorldDef, 1)
		go func() {
			err := ld.Watch(ctx, cfg.Game.Dir, func(def *types.WorldDef, err error) {
				if err != nil {
					logger.Error("reload", zap.Error(err))
					return
				}
				select {
				case reloads <- def:
				case <-ctx.Done():
				}
			})
			if err != nil {
				logger.Error("watch", zap.String("dir", cfg.Game.Dir), zap.Error(err))
			}
		}()
	}

	saves := save.NewRepository(cfg.Save.Dir, opts.Format)

	if !interactive {
		fmt.Printf("%s v%s by %s\n\n", def.Game.Title, def.Game.Version, def.Game.Author)
		c := cli.New(eng, saves)
		c.Trace = f.trace
		c.Reloads = reloads
		if f.scriptFile != "" {
			sf, err := os.Open(f.scriptFile)
			if err != nil {
				return fmt.Errorf("opening script: %w", err)
			}
			defer sf.Close()
			c.In = sf
			c.EchoInput = true
		}
		c.Run(ctx)
		return nil
	}

	var tuiOpts []tui.Option
	if reloads != nil {
		tuiOpts = append(tuiOpts, tui.WithReloads(reloads))
	}
	return tui.Run(ctx, eng, saves, tuiOpts...)
}

// export prints every verb of the loaded game as action records.
func export(eng *engine.Engine) error {
	recs, err := eng.Export()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}
