package action

import (
	"errors"
	"fmt"
	"sort"
)

// ClassKey is the record field holding the action class id.
const ClassKey = "class"

// Record is the persisted form of an action definition:
// {"class": <class id>, <param>: <value>, ...}.
type Record map[string]string

var ErrUnknownClass = errors.New("unknown action class")

// Encode converts an action into a record.
func Encode(reg *Registry, a Action) (Record, error) {
	class, ok := reg.Class(a)
	if !ok {
		return nil, fmt.Errorf("encode %T: %w", a, ErrUnknownClass)
	}
	rec := Record{ClassKey: class}
	for k, v := range GetParams(a) {
		rec[k] = v
	}
	return rec, nil
}

// Decode builds an action from a record. Parameter errors are logged by the
// registry and do not fail decoding.
func Decode(reg *Registry, rec Record) (Action, error) {
	class := rec[ClassKey]
	if class == "" {
		return nil, fmt.Errorf("decode action: missing %q", ClassKey)
	}
	params := make(map[string]string, len(rec))
	for k, v := range rec {
		if k != ClassKey {
			params[k] = v
		}
	}
	a := reg.CreateByClass(class, params)
	if a == nil {
		return nil, fmt.Errorf("decode %q: %w", class, ErrUnknownClass)
	}
	return a, nil
}

// Keys returns the record's parameter names in sorted order, class first.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		if k != ClassKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return append([]string{ClassKey}, keys...)
}
