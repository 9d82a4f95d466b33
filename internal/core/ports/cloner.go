package ports

import (
	"context"

	"go.trai.ch/canarist/internal/core/domain"
)

// Cloner fetches repositories into the target directory.
//
//go:generate mockgen -source=cloner.go -destination=mocks/mock_cloner.go -package=mocks
type Cloner interface {
	// Clone checks out every repository below target, at most jobs at a time.
	Clone(ctx context.Context, target string, repos []domain.Repository, jobs int) error
}
