package fs

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/zerr"
)

// globstar matches any number of directories.
const globstar = "**"

// glob resolves a slash separated pattern below root to sorted, unique paths.
//
// Segments follow path.Match. A "**" segment matches zero or more directories.
func glob(fs afero.Fs, walker *Walker, root, pattern string) ([]string, error) {
	pattern = path.Clean(pattern)
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrGlobFailed.Error()), "pattern", pattern)
	}

	var matches []string
	if !strings.Contains(pattern, globstar) {
		found, err := afero.Glob(fs, filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrGlobFailed.Error()), "pattern", pattern)
		}
		matches = found
	} else {
		segments := strings.Split(pattern, "/")
		base := filepath.Join(root, filepath.FromSlash(staticPrefix(segments)))
		for file := range walker.WalkFiles(base) {
			rel, err := filepath.Rel(root, file)
			if err != nil {
				continue
			}
			if matchSegments(segments, strings.Split(filepath.ToSlash(rel), "/")) {
				matches = append(matches, file)
			}
		}
	}

	unique := make(map[string]bool, len(matches))
	result := make([]string, 0, len(matches))
	for _, match := range matches {
		abs, err := filepath.Abs(match)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", match)
		}
		if !unique[abs] {
			unique[abs] = true
			result = append(result, abs)
		}
	}
	sort.Strings(result)

	return result, nil
}

// staticPrefix returns the leading segments without glob metacharacters.
func staticPrefix(segments []string) string {
	var prefix []string
	for _, s := range segments {
		if strings.ContainsAny(s, `*?[\`) {
			break
		}
		prefix = append(prefix, s)
	}
	return path.Join(prefix...)
}

func matchSegments(pattern, name []string) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	if pattern[0] == globstar {
		for i := 0; i <= len(name); i++ {
			if matchSegments(pattern[1:], name[i:]) {
				return true
			}
		}
		return false
	}
	if len(name) == 0 {
		return false
	}
	ok, _ := path.Match(pattern[0], name[0])
	return ok && matchSegments(pattern[1:], name[1:])
}
