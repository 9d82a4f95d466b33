package workspace

import (
	mver "github.com/Masterminds/semver/v3"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/engine/semver"
)

// AlignOptions configures Align.
type AlignOptions struct {
	// Unpin rewrites external dependency ranges to a caret range at the
	// greatest minimum version required anywhere in the forest.
	Unpin bool
}

// VersionChange is one dependency range rewritten by Align.
type VersionChange struct {
	Path    string
	Section domain.Section
	Name    string
	From    string
	To      string
}

// SkippedRange is an external range left untouched by unpin because no
// minimum version could be computed for it.
type SkippedRange struct {
	Path    string
	Section domain.Section
	Name    string
	Range   string
	Err     error
}

// Alignment is the result of Align.
type Alignment struct {
	// Manifests holds the rewritten repository roots followed by their
	// members, in load order.
	Manifests []domain.Member
	Changes   []VersionChange
	Skipped   []SkippedRange
}

// Align pins every dependency on a package of the forest to the version of
// that package, in all four dependency sections.
//
// Manifests without a version are treated, and written, as
// domain.SentinelVersion. The loaded manifests are not modified. Aligning the
// returned manifests again yields no further changes.
func Align(target string, repos []domain.LoadedRepository, opts AlignOptions) Alignment {
	var result Alignment

	for _, repo := range repos {
		m := repo.Manifest.Clone()
		m.DefaultVersion(domain.SentinelVersion)
		result.Manifests = append(result.Manifests, domain.Member{Path: repo.ManifestPath(target), Manifest: m})
	}
	for _, repo := range repos {
		for _, member := range repo.Packages {
			m := member.Manifest.Clone()
			m.DefaultVersion(domain.SentinelVersion)
			result.Manifests = append(result.Manifests, domain.Member{Path: member.Path, Manifest: m})
		}
	}

	versions := make(map[string]string)
	for _, member := range result.Manifests {
		if member.Manifest.Name != "" {
			versions[member.Manifest.Name] = member.Manifest.Version
		}
	}

	var floors map[string]*mver.Version
	if opts.Unpin {
		floors, result.Skipped = externalFloors(result.Manifests, versions)
	}

	for i := range result.Manifests {
		member := &result.Manifests[i]
		for _, section := range domain.AllSections {
			deps := member.Manifest.Section(section)
			for _, name := range deps.Names() {
				to, ok := versions[name]
				if !ok {
					to, ok = unpinned(floors, section, name, deps[name])
				}
				if !ok || deps[name] == to {
					continue
				}
				result.Changes = append(result.Changes, VersionChange{
					Path:    member.Path,
					Section: section,
					Name:    name,
					From:    deps[name],
					To:      to,
				})
				deps[name] = to
			}
		}
	}

	return result
}

// externalFloors computes, for every dependency outside the forest, the
// greatest of the minimum versions its declared ranges allow.
func externalFloors(members []domain.Member, versions map[string]string) (map[string]*mver.Version, []SkippedRange) {
	floors := make(map[string]*mver.Version)
	var skipped []SkippedRange

	for _, member := range members {
		for _, section := range domain.InstallSections {
			deps := member.Manifest.Section(section)
			for _, name := range deps.Names() {
				if _, internal := versions[name]; internal {
					continue
				}
				floor, err := semver.MinVersion(deps[name])
				if err != nil {
					skipped = append(skipped, SkippedRange{
						Path:    member.Path,
						Section: section,
						Name:    name,
						Range:   deps[name],
						Err:     err,
					})
					continue
				}
				if current, ok := floors[name]; !ok || floor.GreaterThan(current) {
					floors[name] = floor
				}
			}
		}
	}
	return floors, skipped
}

// unpinned returns the caret range replacing an external declaration. Peer
// ranges, ranges without a computable floor and floors of 0.0.0 are kept.
func unpinned(floors map[string]*mver.Version, section domain.Section, name, rng string) (string, bool) {
	if section == domain.SectionPeerDependencies {
		return "", false
	}
	floor, ok := floors[name]
	if !ok || isZero(floor) {
		return "", false
	}
	if _, err := semver.MinVersion(rng); err != nil {
		return "", false
	}
	return "^" + floor.String(), true
}

// isZero reports whether v is the floor of a range without a lower bound.
func isZero(v *mver.Version) bool {
	s := v.String()
	return s == "0.0.0" || s == "0.0.0-0"
}
