package yarn

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/canarist/internal/adapters/shell"
	"go.trai.ch/canarist/internal/core/ports"
)

const NodeID graft.ID = "adapter.package_manager"

func init() {
	graft.Register(graft.Node[ports.PackageManager]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (ports.PackageManager, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return New(executor), nil
		},
	})
}
