package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

const (
	// ManifestFileName is the file name of a package manifest.
	ManifestFileName = "package.json"

	// SentinelVersion stands in for the version of a manifest that declares none.
	SentinelVersion = "0.0.0-test"

	// RootPackageName is the name of the synthesized root manifest.
	RootPackageName = "canarist-root"

	// RootPackageVersion is the version of the synthesized root manifest.
	RootPackageVersion = "0.0.0-private"
)

// Section identifies one of the dependency sections of a manifest.
type Section uint8

const (
	// SectionDependencies is the "dependencies" section.
	SectionDependencies Section = iota
	// SectionDevDependencies is the "devDependencies" section.
	SectionDevDependencies
	// SectionPeerDependencies is the "peerDependencies" section.
	SectionPeerDependencies
	// SectionOptionalDependencies is the "optionalDependencies" section.
	SectionOptionalDependencies
)

// AllSections lists every dependency section in manifest order.
var AllSections = []Section{
	SectionDependencies,
	SectionDevDependencies,
	SectionPeerDependencies,
	SectionOptionalDependencies,
}

// InstallSections lists the sections the package manager installs from.
// Peer ranges are left loose for consumers, so they are excluded.
var InstallSections = []Section{
	SectionDependencies,
	SectionDevDependencies,
	SectionOptionalDependencies,
}

// String returns the manifest key of the section.
func (s Section) String() string {
	switch s {
	case SectionDependencies:
		return "dependencies"
	case SectionDevDependencies:
		return "devDependencies"
	case SectionPeerDependencies:
		return "peerDependencies"
	case SectionOptionalDependencies:
		return "optionalDependencies"
	default:
		return "unknown"
	}
}

// Dependencies maps a package name to a semver range.
type Dependencies map[string]string

// Names returns the dependency names in sorted order.
func (d Dependencies) Names() []string {
	return slices.Sorted(maps.Keys(d))
}

// Manifest is a package manifest (package.json).
//
// The recognized fields are decoded into typed values. Every other top-level
// field is kept as raw JSON and written back verbatim, in its original position.
type Manifest struct {
	Name                 string
	Version              string
	Workspaces           Workspaces
	Resolutions          map[string]string
	Dependencies         Dependencies
	DevDependencies      Dependencies
	PeerDependencies     Dependencies
	OptionalDependencies Dependencies

	extra map[string]json.RawMessage
	order []string
}

// knownKeys is the order in which recognized fields are appended when they
// were not part of the source document.
var knownKeys = []string{
	"name",
	"version",
	"workspaces",
	"resolutions",
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"optionalDependencies",
}

// ParseManifest decodes a manifest from JSON.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Section returns the dependencies of the given section. The result may be nil.
func (m *Manifest) Section(s Section) Dependencies {
	switch s {
	case SectionDependencies:
		return m.Dependencies
	case SectionDevDependencies:
		return m.DevDependencies
	case SectionPeerDependencies:
		return m.PeerDependencies
	case SectionOptionalDependencies:
		return m.OptionalDependencies
	default:
		return nil
	}
}

// DefaultVersion sets the version to v when the manifest declares none. The
// field is placed right after "name". It reports whether the manifest changed.
func (m *Manifest) DefaultVersion(v string) bool {
	if m.Version != "" {
		return false
	}
	m.Version = v
	if slices.Contains(m.order, "version") {
		return true
	}
	at := 0
	if i := slices.Index(m.order, "name"); i >= 0 {
		at = i + 1
	}
	m.order = slices.Insert(m.order, at, "version")
	return true
}

// Field returns the raw JSON of an unrecognized top-level field.
func (m *Manifest) Field(key string) (json.RawMessage, bool) {
	raw, ok := m.extra[key]
	return raw, ok
}

// SetField sets an unrecognized top-level field to the JSON encoding of value.
func (m *Manifest) SetField(key string, value any) error {
	if slices.Contains(knownKeys, key) {
		return zerr.With(zerr.New("field is managed by the manifest model"), "field", key)
	}
	raw, err := marshalNoEscape(value)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to encode manifest field"), "field", key)
	}
	if m.extra == nil {
		m.extra = make(map[string]json.RawMessage)
	}
	if _, exists := m.extra[key]; !exists && !slices.Contains(m.order, key) {
		m.order = append(m.order, key)
	}
	m.extra[key] = raw
	return nil
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() Manifest {
	c := Manifest{
		Name:                 m.Name,
		Version:              m.Version,
		Workspaces:           m.Workspaces.Clone(),
		Resolutions:          maps.Clone(m.Resolutions),
		Dependencies:         maps.Clone(m.Dependencies),
		DevDependencies:      maps.Clone(m.DevDependencies),
		PeerDependencies:     maps.Clone(m.PeerDependencies),
		OptionalDependencies: maps.Clone(m.OptionalDependencies),
		order:                slices.Clone(m.order),
	}
	if m.extra != nil {
		c.extra = make(map[string]json.RawMessage, len(m.extra))
		for k, v := range m.extra {
			c.extra[k] = slices.Clone(v)
		}
	}
	return c
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return zerr.New("manifest must be a JSON object")
	}

	order, err := objectKeys(data)
	if err != nil {
		return err
	}

	decoded := Manifest{order: order}
	for _, key := range order {
		value := raw[key]
		if slices.Contains(knownKeys, key) && bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			// Kept verbatim unless the field is set later.
			if decoded.extra == nil {
				decoded.extra = make(map[string]json.RawMessage)
			}
			decoded.extra[key] = value
			continue
		}
		var target any
		switch key {
		case "name":
			target = &decoded.Name
		case "version":
			target = &decoded.Version
		case "workspaces":
			target = &decoded.Workspaces
		case "resolutions":
			target = &decoded.Resolutions
		case "dependencies":
			target = &decoded.Dependencies
		case "devDependencies":
			target = &decoded.DevDependencies
		case "peerDependencies":
			target = &decoded.PeerDependencies
		case "optionalDependencies":
			target = &decoded.OptionalDependencies
		default:
			if decoded.extra == nil {
				decoded.extra = make(map[string]json.RawMessage)
			}
			decoded.extra[key] = value
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return zerr.With(zerr.Wrap(err, "invalid manifest field"), "field", key)
		}
	}

	*m = decoded
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Manifest) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(m.order)+len(knownKeys))
	for _, key := range m.order {
		if m.has(key) {
			keys = append(keys, key)
		}
	}
	for _, key := range knownKeys {
		if m.has(key) && !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := marshalNoEscape(key)
		if err != nil {
			return nil, err
		}
		value, err := m.value(key)
		if err != nil {
			return nil, zerr.With(err, "field", key)
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode returns the manifest as indented JSON followed by a newline, the way
// package managers write package.json.
func (m *Manifest) Encode() ([]byte, error) {
	compact, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (m *Manifest) has(key string) bool {
	if m.hasField(key) {
		return true
	}
	_, ok := m.extra[key]
	return ok
}

func (m *Manifest) hasField(key string) bool {
	switch key {
	case "name":
		return m.Name != ""
	case "version":
		return m.Version != ""
	case "workspaces":
		return !m.Workspaces.IsZero()
	case "resolutions":
		return m.Resolutions != nil
	case "dependencies":
		return m.Dependencies != nil
	case "devDependencies":
		return m.DevDependencies != nil
	case "peerDependencies":
		return m.PeerDependencies != nil
	case "optionalDependencies":
		return m.OptionalDependencies != nil
	default:
		return false
	}
}

func (m *Manifest) value(key string) ([]byte, error) {
	if !m.hasField(key) {
		return m.extra[key], nil
	}
	switch key {
	case "name":
		return marshalNoEscape(m.Name)
	case "version":
		return marshalNoEscape(m.Version)
	case "workspaces":
		return m.Workspaces.MarshalJSON()
	case "resolutions":
		return marshalNoEscape(m.Resolutions)
	case "dependencies", "devDependencies", "peerDependencies", "optionalDependencies":
		for _, s := range AllSections {
			if s.String() == key {
				return marshalNoEscape(m.Section(s))
			}
		}
	}
	return m.extra[key], nil
}

// objectKeys returns the top-level keys of a JSON object in document order.
// Duplicate keys keep their first position.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var keys []string
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, zerr.New("unexpected token in manifest object")
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

// marshalNoEscape encodes v without escaping <, > and &, which are common in
// semver ranges.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
