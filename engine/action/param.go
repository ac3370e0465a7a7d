package action

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/scenecore/types"
)

// ParamType is the declared type of an action parameter.
type ParamType int

const (
	TypeString ParamType = iota
	TypeText
	TypeFloat
	TypeInteger
	TypeBoolean
	TypeVector2
	TypeActor
	TypeScene
	TypeVerb
	TypeOption
)

var paramTypeNames = [...]string{
	TypeString:  "STRING",
	TypeText:    "TEXT",
	TypeFloat:   "FLOAT",
	TypeInteger: "INTEGER",
	TypeBoolean: "BOOLEAN",
	TypeVector2: "VECTOR2",
	TypeActor:   "ACTOR",
	TypeScene:   "SCENE",
	TypeVerb:    "VERB",
	TypeOption:  "OPTION",
}

func (t ParamType) String() string {
	if int(t) < len(paramTypeNames) {
		return paramTypeNames[t]
	}
	return fmt.Sprintf("ParamType(%d)", int(t))
}

var (
	ErrUnknownParam = errors.New("unknown parameter")
	ErrMissingParam = errors.New("missing required parameter")
)

// ParameterError reports a parameter that could not be applied to an action.
// The affected field keeps its previous (default) value.
type ParameterError struct {
	Param string
	Value string
	Err   error
}

func (e *ParameterError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("parameter %q: %v", e.Param, e.Err)
	}
	return fmt.Sprintf("parameter %q = %q: %v", e.Param, e.Value, e.Err)
}

func (e *ParameterError) Unwrap() error { return e.Err }

// Field is one entry of an action's parameter schema, bound to the storage
// of a specific action instance.
type Field struct {
	Name         string
	Type         ParamType
	Mandatory    bool
	DefaultValue string
	Options      []string
	Doc          string

	set func(string) error
	get func() string
}

// Required marks the field as mandatory.
func (f Field) Required() Field {
	f.Mandatory = true
	return f
}

// Default records the documented default value.
func (f Field) Default(v string) Field {
	f.DefaultValue = v
	return f
}

// Describe attaches a human readable description.
func (f Field) Describe(doc string) Field {
	f.Doc = doc
	return f
}

// Set parses v and stores it. On error the stored value is unchanged.
func (f Field) Set(v string) error {
	if f.set == nil {
		return fmt.Errorf("field %q is read-only", f.Name)
	}
	return f.set(v)
}

// Get formats the stored value.
func (f Field) Get() string {
	if f.get == nil {
		return ""
	}
	return f.get()
}

func stringField(name string, t ParamType, p *string) Field {
	return Field{
		Name: name,
		Type: t,
		set:  func(v string) error { *p = v; return nil },
		get:  func() string { return *p },
	}
}

// String binds a STRING parameter.
func String(name string, p *string) Field { return stringField(name, TypeString, p) }

// Text binds a TEXT parameter (translatable, possibly long).
func Text(name string, p *string) Field { return stringField(name, TypeText, p) }

// ActorRef binds an ACTOR parameter holding an actor id.
func ActorRef(name string, p *string) Field { return stringField(name, TypeActor, p) }

// SceneRef binds a SCENE parameter holding a scene id.
func SceneRef(name string, p *string) Field { return stringField(name, TypeScene, p) }

// VerbRef binds a VERB parameter holding a verb id.
func VerbRef(name string, p *string) Field { return stringField(name, TypeVerb, p) }

// Float binds a FLOAT parameter.
func Float(name string, p *float64) Field {
	return Field{
		Name: name,
		Type: TypeFloat,
		set: func(v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return err
			}
			*p = f
			return nil
		},
		get: func() string { return strconv.FormatFloat(*p, 'g', -1, 64) },
	}
}

// Int binds an INTEGER parameter.
func Int(name string, p *int) Field {
	return Field{
		Name: name,
		Type: TypeInteger,
		set: func(v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*p = n
			return nil
		},
		get: func() string { return strconv.Itoa(*p) },
	}
}

// Bool binds a BOOLEAN parameter.
func Bool(name string, p *bool) Field {
	return Field{
		Name: name,
		Type: TypeBoolean,
		set: func(v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*p = b
			return nil
		},
		get: func() string { return strconv.FormatBool(*p) },
	}
}

// OptionalBool binds a BOOLEAN parameter that may be left unset.
// The empty string clears it.
func OptionalBool(name string, p **bool) Field {
	return Field{
		Name: name,
		Type: TypeBoolean,
		set: func(v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				*p = nil
				return nil
			}
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*p = &b
			return nil
		},
		get: func() string {
			if *p == nil {
				return ""
			}
			return strconv.FormatBool(**p)
		},
	}
}

// Vector binds a VECTOR2 parameter written as "x,y".
func Vector(name string, p *types.Vector2) Field {
	return Field{
		Name: name,
		Type: TypeVector2,
		set: func(v string) error {
			vec, err := ParseVector(v)
			if err != nil {
				return err
			}
			*p = vec
			return nil
		},
		get: func() string { return FormatVector(*p) },
	}
}

// Option binds an OPTION parameter restricted to the given values.
func Option(name string, p *string, options ...string) Field {
	return Field{
		Name:    name,
		Type:    TypeOption,
		Options: options,
		set: func(v string) error {
			if !slices.Contains(options, v) {
				return fmt.Errorf("not one of %s", strings.Join(options, "|"))
			}
			*p = v
			return nil
		},
		get: func() string { return *p },
	}
}

// ParseVector parses "x,y".
func ParseVector(s string) (types.Vector2, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return types.Vector2{}, fmt.Errorf("vector %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return types.Vector2{}, fmt.Errorf("vector %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return types.Vector2{}, fmt.Errorf("vector %q: %w", s, err)
	}
	return types.Vector2{X: x, Y: y}, nil
}

// FormatVector is the inverse of ParseVector.
func FormatVector(v types.Vector2) string {
	return strconv.FormatFloat(v.X, 'g', -1, 64) + "," + strconv.FormatFloat(v.Y, 'g', -1, 64)
}

// SetParams applies raw parameters to an action. It is permissive: every
// parameter that can be applied is applied, and the rest are returned as
// joined *ParameterError values.
func SetParams(a Action, params map[string]string) error {
	fields := a.Params()
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		v := params[name]
		f, ok := byName[name]
		if !ok {
			errs = append(errs, &ParameterError{Param: name, Value: v, Err: ErrUnknownParam})
			continue
		}
		if err := f.Set(v); err != nil {
			errs = append(errs, &ParameterError{Param: name, Value: v, Err: err})
		}
	}

	for _, f := range fields {
		if _, ok := params[f.Name]; f.Mandatory && !ok {
			errs = append(errs, &ParameterError{Param: f.Name, Err: ErrMissingParam})
		}
	}
	return errors.Join(errs...)
}

// GetParams reads every non-empty parameter of an action.
func GetParams(a Action) map[string]string {
	out := map[string]string{}
	for _, f := range a.Params() {
		if v := f.Get(); v != "" {
			out[f.Name] = v
		}
	}
	return out
}
