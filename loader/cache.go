package loader

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/golang/groupcache/lru"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// DefaultCacheSize is the number of compiled chunks kept by a Loader.
const DefaultCacheSize = 64

// chunkKey identifies one version of a script file.
type chunkKey struct {
	path    string
	modTime int64
	size    int64
}

// protoCache keeps compiled function prototypes so reloading an unchanged
// file skips parsing. Prototypes are immutable and can be shared between
// Lua states.
type protoCache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	hits   int
	misses int
}

func newProtoCache(size int) *protoCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &protoCache{lru: lru.New(size)}
}

// compile returns the prototype for path, compiling it on a miss.
func (c *protoCache) compile(path string) (*lua.FunctionProto, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := chunkKey{path: path, modTime: fi.ModTime().UnixNano(), size: fi.Size()}

	c.mu.Lock()
	if v, ok := c.lru.Get(key); ok {
		c.hits++
		c.mu.Unlock()
		return v.(*lua.FunctionProto), nil
	}
	c.misses++
	c.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	chunk, err := parse.Parse(bufio.NewReader(f), path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", path, err)
	}

	c.mu.Lock()
	c.lru.Add(key, proto)
	c.mu.Unlock()
	return proto, nil
}

// stats returns the hit and miss counts.
func (c *protoCache) stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
