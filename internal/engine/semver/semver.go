// Package semver computes version floors of npm-style semver ranges.
package semver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	// operatorSpace matches whitespace between an operator and its operand (">= 1.2.3").
	operatorSpace = regexp.MustCompile(`(<=|>=|<|>|=|~>|~|\^)\s+`)
	hyphenRange   = regexp.MustCompile(`^(\S+)\s+-\s+(\S+)$`)
	operatorRe    = regexp.MustCompile(`^(<=|>=|<|>|=|~>|~|\^)?(.*)$`)
	partialRe     = regexp.MustCompile(
		`^[v=]?\s*(\d+|[xX*])(?:\.(\d+|[xX*]))?(?:\.(\d+|[xX*]))?(?:-([0-9A-Za-z.-]+))?(?:\+[0-9A-Za-z.-]+)?$`,
	)
)

// comparator is the lower bound contributed by one comparator of a range.
type comparator struct {
	op      string
	version *semver.Version
}

// MinVersion returns the lowest version that satisfies rng.
//
// It returns domain.ErrInvalidRange when rng is not a semver range (tags,
// URLs, protocols) and domain.ErrUnsatisfiableRange when nothing satisfies it.
func MinVersion(rng string) (*semver.Version, error) {
	normalized := normalize(rng)

	constraint, err := semver.NewConstraint(normalized)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidRange.Error()), "range", rng)
	}

	for _, candidate := range []string{"0.0.0", "0.0.0-0"} {
		v := semver.MustParse(candidate)
		if constraint.Check(v) {
			return v, nil
		}
	}

	var minimum *semver.Version
	for _, set := range strings.Split(normalized, "||") {
		comparators, err := lowerBounds(set)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidRange.Error()), "range", rng)
		}

		var setMin *semver.Version
		for _, c := range comparators {
			v := c.version
			if c.op == ">" {
				v = bump(v)
			}
			if setMin == nil || v.GreaterThan(setMin) {
				setMin = v
			}
		}

		if setMin != nil && (minimum == nil || minimum.GreaterThan(setMin)) {
			minimum = setMin
		}
	}

	if minimum != nil && constraint.Check(minimum) {
		return minimum, nil
	}
	return nil, zerr.With(domain.ErrUnsatisfiableRange, "range", rng)
}

// GreaterThan reports whether version a is greater than version b.
// Unparsable versions are never greater.
func GreaterThan(a, b string) bool {
	va, err := semver.NewVersion(a)
	if err != nil {
		return false
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return true
	}
	return va.GreaterThan(vb)
}

func normalize(rng string) string {
	rng = strings.TrimSpace(rng)
	if rng == "" {
		return "*"
	}
	return operatorSpace.ReplaceAllString(rng, "$1")
}

// lowerBounds returns the comparators of a single comparator set that bound
// it from below. Upper bounds do not affect the floor and are dropped.
func lowerBounds(set string) ([]comparator, error) {
	set = strings.TrimSpace(set)
	if m := hyphenRange.FindStringSubmatch(set); m != nil {
		p, err := parsePartial(m[1])
		if err != nil {
			return nil, err
		}
		if p.anyMajor {
			return nil, nil
		}
		return []comparator{{op: ">=", version: p.floor()}}, nil
	}

	var bounds []comparator
	for _, field := range strings.Fields(set) {
		m := operatorRe.FindStringSubmatch(field)
		op, operand := m[1], m[2]

		p, err := parsePartial(operand)
		if err != nil {
			return nil, err
		}
		if p.anyMajor {
			continue
		}

		switch op {
		case "<", "<=":
			continue
		case ">":
			switch {
			case !p.hasMinor:
				bounds = append(bounds, comparator{op: ">=", version: version(p.major+1, 0, 0, "")})
			case !p.hasPatch:
				bounds = append(bounds, comparator{op: ">=", version: version(p.major, p.minor+1, 0, "")})
			default:
				bounds = append(bounds, comparator{op: ">", version: p.floor()})
			}
		default:
			bounds = append(bounds, comparator{op: ">=", version: p.floor()})
		}
	}
	return bounds, nil
}

type partial struct {
	major, minor, patch uint64
	anyMajor            bool
	hasMinor, hasPatch  bool
	prerelease          string
}

func (p partial) floor() *semver.Version {
	return version(p.major, p.minor, p.patch, p.prerelease)
}

func parsePartial(s string) (partial, error) {
	m := partialRe.FindStringSubmatch(s)
	if m == nil {
		return partial{}, zerr.With(zerr.New("invalid version"), "version", s)
	}

	var p partial
	if isWildcard(m[1]) {
		p.anyMajor = true
		return p, nil
	}
	p.major, _ = strconv.ParseUint(m[1], 10, 64)

	if m[2] != "" && !isWildcard(m[2]) {
		p.minor, _ = strconv.ParseUint(m[2], 10, 64)
		p.hasMinor = true
	}
	if p.hasMinor && m[3] != "" && !isWildcard(m[3]) {
		p.patch, _ = strconv.ParseUint(m[3], 10, 64)
		p.hasPatch = true
	}
	if p.hasPatch {
		p.prerelease = m[4]
	}
	return p, nil
}

func isWildcard(s string) bool {
	return s == "x" || s == "X" || s == "*"
}

// bump returns the lowest version strictly greater than v.
func bump(v *semver.Version) *semver.Version {
	if v.Prerelease() == "" {
		next := v.IncPatch()
		return &next
	}
	return version(v.Major(), v.Minor(), v.Patch(), v.Prerelease()+".0")
}

func version(major, minor, patch uint64, prerelease string) *semver.Version {
	return semver.New(major, minor, patch, prerelease, "")
}
