package config

import (
	"path/filepath"

	"github.com/spf13/afero"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// searchPlaces are the file names looked up in every directory, in order.
var searchPlaces = []string{
	domain.ManifestFileName,
	".canaristrc",
	".canaristrc.json",
	".canaristrc.yaml",
	".canaristrc.yml",
	"canarist.config.yaml",
}

// discover walks up from cwd and returns the first config file found, along
// with its path. It returns a nil file when no directory holds a config.
func discover(fsys afero.Fs, cwd string) (*File, string, error) {
	dir := filepath.Clean(cwd)
	for {
		for _, name := range searchPlaces {
			path := filepath.Join(dir, name)
			info, err := fsys.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}

			data, err := afero.ReadFile(fsys, path)
			if err != nil {
				return nil, "", zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
			}

			file, found, err := parse(name, data)
			if err != nil {
				return nil, "", zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
			}
			if found {
				return file, path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// parse decodes a config file. A package.json only counts as a config file
// when it carries a "canarist" key.
func parse(name string, data []byte) (*File, bool, error) {
	var file File

	if name == domain.ManifestFileName {
		var pkg packageJSON
		if err := yaml.Unmarshal(data, &pkg); err != nil {
			return nil, false, err
		}
		if pkg.Canarist.Kind == 0 {
			return nil, false, nil
		}
		if err := pkg.Canarist.Decode(&file); err != nil {
			return nil, false, err
		}
		return &file, true, nil
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, false, err
	}
	return &file, true, nil
}
