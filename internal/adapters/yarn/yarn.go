// Package yarn provides the yarn implementation of the package manager port.
package yarn

import (
	"context"
	"io"
	"strings"

	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/core/ports"
	"go.trai.ch/zerr"
)

// Binary is the package manager executable.
const Binary = "yarn"

var _ ports.PackageManager = (*Yarn)(nil)

// Yarn runs yarn through an executor.
type Yarn struct {
	executor ports.Executor
}

// New creates a new Yarn.
func New(executor ports.Executor) *Yarn {
	return &Yarn{executor: executor}
}

// Install runs "yarn <args>" in dir.
func (y *Yarn) Install(ctx context.Context, dir, args string, stdout, stderr io.Writer) error {
	line := strings.TrimSpace(Binary + " " + args)
	err := y.executor.Execute(ctx, domain.Command{Line: line, Dir: dir}, stdout, stderr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "directory", dir)
	}
	return nil
}
