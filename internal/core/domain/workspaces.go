package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// Workspaces is the normalized form of the manifest "workspaces" field.
//
// The field is either a list of glob patterns or an object with "packages" and
// "nohoist" lists. Structured records which shape was read so that the field
// is written back the way it was declared.
type Workspaces struct {
	Patterns   []string
	Nohoist    []string
	Structured bool

	// raw holds a value of any other shape, passed through untouched.
	raw json.RawMessage
	// keys is the key order of a structured object as read, and fields holds
	// its keys other than "packages" and "nohoist".
	keys   []string
	fields map[string]json.RawMessage
}

// NewWorkspaces returns a workspaces field with the flat list shape.
func NewWorkspaces(patterns ...string) Workspaces {
	if patterns == nil {
		patterns = []string{}
	}
	return Workspaces{Patterns: patterns}
}

// IsZero reports whether the field is absent.
func (w Workspaces) IsZero() bool {
	return w.Patterns == nil && w.Nohoist == nil && !w.Structured && w.raw == nil
}

// Clone returns a deep copy of the field.
func (w Workspaces) Clone() Workspaces {
	return Workspaces{
		Patterns:   slices.Clone(w.Patterns),
		Nohoist:    slices.Clone(w.Nohoist),
		Structured: w.Structured,
		raw:        slices.Clone(w.raw),
		keys:       slices.Clone(w.keys),
		fields:     maps.Clone(w.fields),
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *Workspaces) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*w = Workspaces{}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var patterns []string
		if err := json.Unmarshal(trimmed, &patterns); err == nil {
			*w = NewWorkspaces(patterns...)
			return nil
		}
	case len(trimmed) > 0 && trimmed[0] == '{':
		if structured, ok := decodeStructured(trimmed); ok {
			*w = structured
			return nil
		}
	}
	*w = Workspaces{raw: slices.Clone(trimmed)}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (w Workspaces) MarshalJSON() ([]byte, error) {
	if w.raw != nil {
		return w.raw, nil
	}
	patterns := w.Patterns
	if patterns == nil {
		patterns = []string{}
	}
	if w.Structured || len(w.Nohoist) > 0 {
		return w.marshalStructured(patterns)
	}
	return marshalNoEscape(patterns)
}

func decodeStructured(data []byte) (Workspaces, bool) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return Workspaces{}, false
	}
	keys, err := objectKeys(data)
	if err != nil {
		return Workspaces{}, false
	}

	w := Workspaces{Structured: true, keys: keys}
	for key, value := range object {
		switch key {
		case "packages":
			if err := json.Unmarshal(value, &w.Patterns); err != nil {
				return Workspaces{}, false
			}
		case "nohoist":
			if err := json.Unmarshal(value, &w.Nohoist); err != nil {
				return Workspaces{}, false
			}
		default:
			if w.fields == nil {
				w.fields = make(map[string]json.RawMessage)
			}
			w.fields[key] = value
		}
	}
	return w, true
}

// marshalStructured writes the object form in the key order it was read.
// "packages" is omitted only when the source object had no such key.
func (w Workspaces) marshalStructured(patterns []string) ([]byte, error) {
	keys := slices.Clone(w.keys)
	if len(w.Nohoist) > 0 && !slices.Contains(keys, "nohoist") {
		keys = append(keys, "nohoist")
	}
	if (w.Patterns != nil || len(w.keys) == 0) && !slices.Contains(keys, "packages") {
		keys = append(keys, "packages")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		var (
			value []byte
			err   error
		)
		switch key {
		case "packages":
			value, err = marshalNoEscape(patterns)
		case "nohoist":
			nohoist := w.Nohoist
			if nohoist == nil {
				nohoist = []string{}
			}
			value, err = marshalNoEscape(nohoist)
		default:
			value = w.fields[key]
		}
		if err != nil {
			return nil, err
		}
		encodedKey, err := marshalNoEscape(key)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
