package domain

import "path/filepath"

const (
	// DefaultBranch is checked out for remote repositories without an explicit branch.
	DefaultBranch = "master"

	// DefaultCommand runs in every repository without explicit commands.
	DefaultCommand = "yarn test"

	// EncryptionKeyEnv holds the key for decrypting "enc:" repository URLs.
	EncryptionKeyEnv = "CANARIST_ENCRYPTION_KEY"
)

// Repository describes one repository cloned into the target directory.
type Repository struct {
	URL       string
	Branch    string
	Directory string
	Commands  []string
}

// ManifestPath returns the path of the repository's root manifest within target.
func (r Repository) ManifestPath(target string) string {
	return filepath.Join(target, r.Directory, ManifestFileName)
}

// Dir returns the path of the repository checkout within target.
func (r Repository) Dir(target string) string {
	return filepath.Join(target, r.Directory)
}

// RepositoryInput is a repository as written by the user, before defaults are applied.
type RepositoryInput struct {
	URL       string
	Branch    *string
	Directory string
	// Commands is nil when the user did not declare any.
	Commands []string
}

// Config is the normalized configuration of one run.
type Config struct {
	TargetDirectory string
	RootManifest    map[string]any
	YarnArguments   string
	Unpin           bool
	Jobs            int
	Repositories    []Repository
}

// Arguments are the command line inputs of a run.
type Arguments struct {
	Target        string
	Repositories  []RepositoryInput
	RootManifest  string
	YarnArguments string
	Project       string
	Unpin         bool
	Jobs          int
}

// Member is a package manifest at a known path.
type Member struct {
	Path     string
	Manifest Manifest
}

// LoadedRepository is a cloned repository with its parsed manifests.
type LoadedRepository struct {
	Repository
	Manifest Manifest
	Packages []Member
}
