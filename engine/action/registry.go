package action

import (
	"fmt"
	"reflect"
	"sort"

	"go.uber.org/zap"
)

// Factory returns a fresh action with its default parameter values.
type Factory func() Action

type entry struct {
	name    string
	class   string
	factory Factory
}

// Registry maps authored action names and persisted class identifiers to
// factories. It is populated once at startup and read-only afterwards.
type Registry struct {
	logger  *zap.Logger
	byName  map[string]*entry
	byClass map[string]*entry
	byType  map[reflect.Type]*entry
	aliases map[string]string
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:  logger,
		byName:  map[string]*entry{},
		byClass: map[string]*entry{},
		byType:  map[reflect.Type]*entry{},
		aliases: map[string]string{},
	}
}

// Register adds an action type under an authoring name and a class id.
// Registering the same name or class twice panics.
func (r *Registry) Register(name, class string, f Factory) {
	if _, dup := r.byName[name]; dup {
		panic(fmt.Sprintf("action: duplicate name %q", name))
	}
	if _, dup := r.byClass[class]; dup {
		panic(fmt.Sprintf("action: duplicate class %q", class))
	}
	e := &entry{name: name, class: class, factory: f}
	r.byName[name] = e
	r.byClass[class] = e
	r.byType[reflect.TypeOf(f())] = e
}

// AliasClass lets records written under an old class id load as class.
func (r *Registry) AliasClass(old, class string) {
	r.aliases[old] = class
}

// Create builds an action by authoring name and applies params.
// Unknown names and factory failures are logged and yield nil. Parameter
// errors are logged and the action is still returned.
func (r *Registry) Create(name string, params map[string]string) Action {
	e, ok := r.byName[name]
	if !ok {
		r.logger.Error("action not registered", zap.String("name", name))
		return nil
	}
	return r.build(e, params)
}

// CreateByClass builds an action by persisted class id.
func (r *Registry) CreateByClass(class string, params map[string]string) Action {
	if to, ok := r.aliases[class]; ok {
		class = to
	}
	e, ok := r.byClass[class]
	if !ok {
		r.logger.Error("action class not registered", zap.String("class", class))
		return nil
	}
	return r.build(e, params)
}

func (r *Registry) build(e *entry, params map[string]string) (a Action) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("action factory failed",
				zap.String("class", e.class), zap.Any("panic", rec))
			a = nil
		}
	}()

	a = e.factory()
	if err := SetParams(a, params); err != nil {
		r.logger.Warn("action parameters",
			zap.String("action", e.name), zap.Error(err))
	}
	return a
}

// Class returns the persisted class id of an action instance.
func (r *Registry) Class(a Action) (string, bool) {
	e, ok := r.byType[reflect.TypeOf(a)]
	if !ok {
		return "", false
	}
	return e.class, true
}

// Name returns the authoring name of an action instance.
func (r *Registry) Name(a Action) (string, bool) {
	e, ok := r.byType[reflect.TypeOf(a)]
	if !ok {
		return "", false
	}
	return e.name, true
}

// Has reports whether an authoring name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns all authoring names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Schema returns the parameter schema of a registered action with defaults.
func (r *Registry) Schema(name string) ([]Field, bool) {
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.factory().Params(), true
}
