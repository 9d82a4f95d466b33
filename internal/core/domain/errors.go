package domain

import "go.trai.ch/zerr"

var (
	// ErrNoRepositories is returned when neither arguments nor a config file name any repository.
	ErrNoRepositories = zerr.New("no repositories are passed through arguments")

	// ErrNoRepositoriesConfigured is returned when the config file has an empty repository list.
	ErrNoRepositoriesConfigured = zerr.New("no repositories are configured")

	// ErrProjectNotFound is returned when the selected project is not part of the projects config.
	ErrProjectNotFound = zerr.New("project does not exist")

	// ErrProjectConfigMissing is returned when a project is selected but the config has no projects.
	ErrProjectConfigMissing = zerr.New("project config does not exist")

	// ErrNoProjectSelected is returned when the config declares projects but none was selected.
	ErrNoProjectSelected = zerr.New("no project is selected")

	// ErrDuplicateDirectory is returned when two repositories would be cloned into the same directory.
	ErrDuplicateDirectory = zerr.New("duplicate repository directory")

	// ErrInvalidRootManifest is returned when the root manifest fragment is not a JSON object.
	ErrInvalidRootManifest = zerr.New("root manifest must be a JSON object")

	// ErrInvalidRepositoryArgument is returned when a repository sub-argument cannot be parsed.
	ErrInvalidRepositoryArgument = zerr.New("invalid repository argument")

	// ErrInvalidEncryptionKey is returned when CANARIST_ENCRYPTION_KEY is not 64 hex characters.
	ErrInvalidEncryptionKey = zerr.New("CANARIST_ENCRYPTION_KEY is not 64 hex characters")

	// ErrDecryptFailed is returned when an encrypted repository URL cannot be decrypted.
	ErrDecryptFailed = zerr.New("failed to decrypt repository url")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrTargetCreateFailed is returned when the target directory cannot be created.
	ErrTargetCreateFailed = zerr.New("failed to create target directory")

	// ErrCloneFailed is returned when a repository cannot be cloned.
	ErrCloneFailed = zerr.New("failed to clone repository")

	// ErrManifestReadFailed is returned when a manifest file cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read manifest")

	// ErrManifestParseFailed is returned when a manifest file is not valid JSON.
	ErrManifestParseFailed = zerr.New("failed to parse manifest")

	// ErrManifestWriteFailed is returned when a manifest file cannot be written.
	ErrManifestWriteFailed = zerr.New("failed to write manifest")

	// ErrGlobFailed is returned when a workspace pattern is malformed.
	ErrGlobFailed = zerr.New("failed to expand workspace pattern")

	// ErrInvalidWorkspacePattern is returned when a workspace pattern leaves its repository directory.
	ErrInvalidWorkspacePattern = zerr.New("workspace pattern escapes repository directory")

	// ErrDuplicatePackageName is returned when two manifests in one run share a name.
	ErrDuplicatePackageName = zerr.New("duplicate package name")

	// ErrInvalidRange is returned when a dependency range is not a valid semver range.
	ErrInvalidRange = zerr.New("invalid semver range")

	// ErrUnsatisfiableRange is returned when no version can satisfy a dependency range.
	ErrUnsatisfiableRange = zerr.New("range cannot be satisfied")

	// ErrInstallFailed is returned when the package manager install fails.
	ErrInstallFailed = zerr.New("failed to install dependencies")

	// ErrCommandFailed is returned when a configured repository command fails.
	ErrCommandFailed = zerr.New("failed to run configured command")
)
