// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/canarist/internal/core/domain"
)

// Executor defines the interface for running shell commands.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command line in its directory.
	//
	// Output is copied to stdout and stderr. It returns an error carrying the
	// exit code and captured stderr if the command fails.
	Execute(ctx context.Context, cmd domain.Command, stdout, stderr io.Writer) error
}
