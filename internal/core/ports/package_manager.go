package ports

import (
	"context"
	"io"
)

// PackageManager installs the dependencies of the assembled workspace.
//
//go:generate mockgen -source=package_manager.go -destination=mocks/mock_package_manager.go -package=mocks
type PackageManager interface {
	// Install runs the package manager once in dir with the given extra arguments.
	Install(ctx context.Context, dir, args string, stdout, stderr io.Writer) error
}
