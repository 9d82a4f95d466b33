// Package merge deep-merges decoded JSON documents.
package merge

// Merge returns a new document holding base deep-merged with override.
//
// Arrays in base are concatenated with the override value, objects present on
// both sides are merged recursively, and every other override value replaces
// the base value. Neither input is modified.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = clone(v)
	}
	for k, v := range override {
		out[k] = combine(out[k], v)
	}
	return out
}

func combine(base, override any) any {
	switch b := base.(type) {
	case []any:
		if o, ok := override.([]any); ok {
			return append(b, clone(o).([]any)...)
		}
		return append(b, clone(override))
	case map[string]any:
		if o, ok := override.(map[string]any); ok {
			return Merge(b, o)
		}
	}
	return clone(override)
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = clone(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = clone(item)
		}
		return out
	default:
		return v
	}
}
