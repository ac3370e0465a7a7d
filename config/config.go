// Package config holds the runtime settings of the scenecore command.
// Settings come from defaults, then an optional TOML file, then SCENECORE_*
// environment variables; command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nathoo/scenecore/engine"
	"github.com/nathoo/scenecore/engine/save"
	"github.com/nathoo/scenecore/engine/world"
)

const (
	// ConfigFile is the file looked up in the game directory.
	ConfigFile = "scenecore.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SCENECORE_"

	LogFileStdErr = "stderr"
	LogFileStdOut = "stdout"
	LogFileNone   = "none" // discard all log output

	DefaultSaveDir   = "saves"
	DefaultLogLevel  = "info"
	DefaultCacheSize = 64
)

// Config is the full set of settings.
type Config struct {
	Game   GameConfig   `toml:"game" envPrefix:"GAME_"`
	Save   SaveConfig   `toml:"save" envPrefix:"SAVE_"`
	Engine EngineConfig `toml:"engine" envPrefix:"ENGINE_"`
	Script ScriptConfig `toml:"script" envPrefix:"SCRIPT_"`
	Log    LogConfig    `toml:"log" envPrefix:"LOG_"`
}

type GameConfig struct {
	Dir string `toml:"dir" env:"DIR"`
}

type SaveConfig struct {
	Dir    string `toml:"dir" env:"DIR"`
	Format string `toml:"format" env:"FORMAT"` // json or msgpack
}

// EngineConfig mirrors engine.Options.
type EngineConfig struct {
	AutoAdvance bool    `toml:"auto_advance" env:"AUTO_ADVANCE"`
	Tick        float64 `toml:"tick" env:"TICK"`
	MaxSettle   float64 `toml:"max_settle" env:"MAX_SETTLE"`
	TextSpeed   float64 `toml:"text_speed" env:"TEXT_SPEED"`
	MinTextTime float64 `toml:"min_text_time" env:"MIN_TEXT_TIME"`
}

type ScriptConfig struct {
	CacheSize int  `toml:"cache_size" env:"CACHE_SIZE"`
	Watch     bool `toml:"watch" env:"WATCH"`
}

type LogConfig struct {
	Level       string `toml:"level" env:"LEVEL"`
	Development bool   `toml:"development" env:"DEVELOPMENT"`
	File        string `toml:"file" env:"FILE"` // path, stderr, stdout or none
}

// Default returns the default settings for a game in baseDir.
func Default(baseDir string) *Config {
	return &Config{
		Game: GameConfig{Dir: baseDir},
		Save: SaveConfig{
			Dir:    filepath.Join(baseDir, DefaultSaveDir),
			Format: string(save.FormatJSON),
		},
		Engine: EngineConfig{
			AutoAdvance: true,
			Tick:        0.1,
			MaxSettle:   120,
			TextSpeed:   world.DefaultTextSpeed,
			MinTextTime: world.DefaultMinTextTime,
		},
		Script: ScriptConfig{CacheSize: DefaultCacheSize},
		Log:    LogConfig{Level: DefaultLogLevel, File: LogFileStdErr},
	}
}

// Load returns the settings for baseDir. The TOML file at path is optional:
// an empty path or a missing file leaves the defaults. Environment overrides
// are applied after the file.
func Load(baseDir, path string) (*Config, []string, error) {
	cfg := Default(baseDir)
	var undecoded []string

	if path != "" {
		meta, err := toml.DecodeFile(path, cfg)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			for _, k := range meta.Undecoded() {
				undecoded = append(undecoded, k.String())
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, undecoded, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if _, err := save.ParseFormat(c.Save.Format); err != nil {
		return fmt.Errorf("save.format: %w", err)
	}
	if c.Engine.Tick <= 0 {
		return fmt.Errorf("engine.tick must be positive, got %g", c.Engine.Tick)
	}
	if c.Engine.MaxSettle < 0 {
		return fmt.Errorf("engine.max_settle must not be negative, got %g", c.Engine.MaxSettle)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// EngineOptions converts the [engine] and [save] sections.
func (c *Config) EngineOptions() engine.Options {
	format, _ := save.ParseFormat(c.Save.Format)
	return engine.Options{
		AutoAdvance: c.Engine.AutoAdvance,
		Tick:        c.Engine.Tick,
		MaxSettle:   c.Engine.MaxSettle,
		TextSpeed:   c.Engine.TextSpeed,
		MinTextTime: c.Engine.MinTextTime,
		Format:      format,
	}
}

// NewLogger builds the logger described by the [log] section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	if c.Log.File == LogFileNone {
		return zap.NewNop(), nil
	}
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	out := c.Log.File
	if out == "" {
		out = LogFileStdErr
	}
	zc.OutputPaths = []string{out}
	zc.ErrorOutputPaths = []string{LogFileStdErr}
	return zc.Build()
}
