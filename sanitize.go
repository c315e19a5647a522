package main

import (
	"math"
	"reflect"
	"time"

	"github.com/goccy/go-json"
)

// Markers substituted for values that cannot be serialized
const (
	SanitizedFunction    = "[Function]"
	SanitizedUnsupported = "[Unsupported]"
	SanitizedCircular    = "[Circular]"
	SanitizedMaxDepth    = "[MaxDepth]"
)

// DefaultSanitizeDepth bounds nesting of imported planner state
const DefaultSanitizeDepth = 32

// sanitizer copies a dynamic value tree. seen holds the containers on the current
// path, so a shared subtree is copied twice but a cycle is cut.
type sanitizer struct {
	maxDepth int
	seen     map[uintptr]struct{}
}

// Sanitize returns a deep copy of v that only contains JSON data: nil, bool, string,
// finite numbers, map[string]any and []any. Functions, channels and other host values are
// replaced by marker strings, a container that contains itself becomes [Circular] and
// anything nested deeper than maxDepth becomes [MaxDepth]. Non-finite floats become nil.
func Sanitize(v any, maxDepth int) any {
	if maxDepth <= 0 {
		maxDepth = DefaultSanitizeDepth
	}
	s := &sanitizer{maxDepth: maxDepth, seen: make(map[uintptr]struct{})}
	return s.value(v, 0)
}

func (s *sanitizer) value(v any, depth int) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, string, json.Number:
		return x
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case map[string]any:
		return s.object(x, depth)
	case []any:
		return s.array(x, depth)
	case *map[string]any:
		if x == nil {
			return nil
		}
		return s.object(*x, depth)
	case *[]any:
		if x == nil {
			return nil
		}
		return s.array(*x, depth)
	}

	// Only the kind is inspected here; the value itself is never walked reflectively.
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return SanitizedFunction
	}
	return SanitizedUnsupported
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func (s *sanitizer) enter(id uintptr, depth int) (marker string, ok bool) {
	if depth >= s.maxDepth {
		return SanitizedMaxDepth, false
	}
	if id == 0 {
		return "", true
	}
	if _, cyclic := s.seen[id]; cyclic {
		return SanitizedCircular, false
	}
	s.seen[id] = struct{}{}
	return "", true
}

func (s *sanitizer) leave(id uintptr) {
	delete(s.seen, id)
}

func (s *sanitizer) object(m map[string]any, depth int) any {
	if m == nil {
		return nil
	}
	id := reflect.ValueOf(m).Pointer()
	if marker, ok := s.enter(id, depth); !ok {
		return marker
	}
	defer s.leave(id)

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = s.value(v, depth+1)
	}
	return out
}

func (s *sanitizer) array(a []any, depth int) any {
	if a == nil {
		return nil
	}
	var id uintptr
	if cap(a) > 0 {
		id = reflect.ValueOf(a).Pointer()
	}
	if marker, ok := s.enter(id, depth); !ok {
		return marker
	}
	defer s.leave(id)

	out := make([]any, len(a))
	for i, v := range a {
		out[i] = s.value(v, depth+1)
	}
	return out
}
