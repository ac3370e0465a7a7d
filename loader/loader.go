package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/engine/action"
	"github.com/nathoo/scenecore/engine/actions"
	"github.com/nathoo/scenecore/types"
)

// Loader turns a directory of Lua scripts into a WorldDef.
type Loader struct {
	reg    *action.Registry
	cache  *protoCache
	logger *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for validation warnings.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithCacheSize sets how many compiled chunks are kept between loads.
func WithCacheSize(n int) Option {
	return func(ld *Loader) { ld.cache = newProtoCache(n) }
}

// New returns a loader whose action helpers and validation follow reg.
// A nil registry means the built-in actions.
func New(reg *action.Registry, opts ...Option) *Loader {
	ld := &Loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(ld)
	}
	if reg == nil {
		reg = actions.NewRegistry(ld.logger)
	}
	ld.reg = reg
	if ld.cache == nil {
		ld.cache = newProtoCache(DefaultCacheSize)
	}
	return ld
}

// Load reads all .lua files from dir with a one-off loader.
func Load(dir string, reg *action.Registry) (*types.WorldDef, error) {
	return New(reg).Load(dir)
}

// Load reads all .lua files from dir, compiles them into game definitions,
// validates references, and returns the WorldDef. The Lua VM is discarded
// after loading.
func (ld *Loader) Load(dir string) (*types.WorldDef, error) {
	luaFiles, err := luaFilesIn(dir)
	if err != nil {
		return nil, err
	}

	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	// Open safe libs only.
	openSafeLibs(L)

	// Sandbox: remove dangerous globals.
	sandbox(L)

	// Register API.
	coll := &collector{}
	registerAPI(L, coll, ld.reg)

	// Execute each file.
	for _, f := range luaFiles {
		path := filepath.Join(dir, f)
		proto, err := ld.cache.compile(path)
		if err != nil {
			return nil, err
		}
		L.Push(L.NewFunctionFromProto(proto))
		if err := L.PCall(0, lua.MultRet, nil); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	// Compile.
	def, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling game data: %w", err)
	}

	// Validate.
	if err := validate(def, ld.reg, ld.logger); err != nil {
		return nil, err
	}

	hits, misses := ld.cache.stats()
	ld.logger.Info("game loaded",
		zap.String("dir", dir),
		zap.Int("files", len(luaFiles)),
		zap.Int("scenes", len(def.Scenes)),
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses))
	return def, nil
}

// luaFilesIn lists the scripts in dir: game.lua first, rest alphabetical.
func luaFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading game directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	return sortedLuaFiles(luaFiles), nil
}

// sortedLuaFiles puts game.lua first, then the rest in alphabetical order.
func sortedLuaFiles(files []string) []string {
	sort.Slice(files, func(i, j int) bool {
		if files[i] == "game.lua" {
			return files[j] != "game.lua"
		}
		if files[j] == "game.lua" {
			return false
		}
		return files[i] < files[j]
	})
	return files
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	// Table library (table.insert, table.sort, etc.)
	lua.OpenTable(L)
	// String library (string.format, string.sub, etc.)
	lua.OpenString(L)
	// Math library (math.floor, math.max, etc.)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Remove math.randomseed; randomness comes from the world RNG.
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
		tbl.RawSetString("random", lua.LNil)
	}
}
