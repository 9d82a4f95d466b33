package config

import (
	"gopkg.in/yaml.v3"
)

// File represents the structure of a canarist config file.
//
// A file either declares repositories directly (single config) or a list of
// named projects, each carrying its own repositories.
type File struct {
	Repositories    []RepositoryDTO `yaml:"repositories"`
	TargetDirectory string          `yaml:"targetDirectory"`
	RootManifest    map[string]any  `yaml:"rootManifest"`
	YarnArguments   string          `yaml:"yarnArguments"`
	Unpin           bool            `yaml:"unpin"`
	Jobs            int             `yaml:"jobs"`
	Projects        []ProjectDTO    `yaml:"projects"`
}

// ProjectDTO is a named set of repositories within a projects config.
type ProjectDTO struct {
	Name            string          `yaml:"name"`
	Repositories    []RepositoryDTO `yaml:"repositories"`
	TargetDirectory string          `yaml:"targetDirectory"`
	RootManifest    map[string]any  `yaml:"rootManifest"`
	YarnArguments   string          `yaml:"yarnArguments"`
	Unpin           bool            `yaml:"unpin"`
	Jobs            int             `yaml:"jobs"`
}

// IsSingle reports whether the file declares repositories directly.
func (f *File) IsSingle() bool {
	return f.Repositories != nil
}

// IsProjects reports whether the file declares named projects.
func (f *File) IsProjects() bool {
	return f.Projects != nil
}

// Project returns the project with the given name.
func (f *File) Project(name string) (*ProjectDTO, bool) {
	for i := range f.Projects {
		if f.Projects[i].Name == name {
			return &f.Projects[i], true
		}
	}
	return nil, false
}

// RepositoryDTO represents a repository entry in the configuration.
// It is written either as a plain URL or as a mapping.
type RepositoryDTO struct {
	URL       string     `yaml:"url"`
	Branch    *string    `yaml:"branch"`
	Directory string     `yaml:"directory"`
	Commands  StringList `yaml:"commands"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (r *RepositoryDTO) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.URL = value.Value
		return nil
	}

	type plain RepositoryDTO
	var dto plain
	if err := value.Decode(&dto); err != nil {
		return err
	}
	*r = RepositoryDTO(dto)
	return nil
}

// StringList is a list of strings that may also be written as a single string.
// It stays nil when absent, and is empty but non-nil for an explicit empty list.
type StringList []string

// UnmarshalYAML accepts both a scalar and a sequence.
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*s = StringList{value.Value}
		return nil
	}

	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	if list == nil {
		list = []string{}
	}
	*s = list
	return nil
}

// packageJSON holds the "canarist" key of a package.json file.
// A zero Kind means the key is absent.
type packageJSON struct {
	Canarist yaml.Node `yaml:"canarist"`
}
