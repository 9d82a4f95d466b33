// Package git provides the go-git implementation of the repository cloner.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Cloner = (*Cloner)(nil)

// Cloner implements ports.Cloner with go-git.
type Cloner struct {
	logger ports.Logger
}

// NewCloner creates a new Cloner.
func NewCloner(logger ports.Logger) *Cloner {
	return &Cloner{logger: logger}
}

// Clone checks out every repository into its directory below target, running
// at most jobs clones at a time. The first failure cancels the others.
func (c *Cloner) Clone(ctx context.Context, target string, repos []domain.Repository, jobs int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))

	for _, repo := range repos {
		g.Go(func() error {
			return c.clone(ctx, target, repo)
		})
	}
	return g.Wait()
}

func (c *Cloner) clone(ctx context.Context, target string, repo domain.Repository) error {
	dir := repo.Dir(target)

	source := repo.URL
	if repo.Branch != "" {
		source += "#" + repo.Branch
	}
	c.logger.Info(fmt.Sprintf("cloning %q into %q", source, dir))

	opts := &git.CloneOptions{
		URL:          repo.URL,
		SingleBranch: true,
		Tags:         git.NoTags,
	}
	if repo.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(repo.Branch)
	}
	if !isLocal(repo.URL) {
		opts.Depth = 1
	}

	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		wrapped := zerr.With(zerr.Wrap(err, domain.ErrCloneFailed.Error()), "url", repo.URL)
		wrapped = zerr.With(wrapped, "directory", dir)
		if repo.Branch != "" {
			wrapped = zerr.With(wrapped, "branch", repo.Branch)
		}
		return wrapped
	}
	return nil
}

// isLocal reports whether url points at a repository on the local filesystem.
// Local sources are cloned in full since the file transport cannot serve
// shallow fetches.
func isLocal(url string) bool {
	if strings.HasPrefix(url, "file://") {
		return true
	}
	ep, err := transport.NewEndpoint(url)
	return err == nil && ep.Protocol == "file"
}
