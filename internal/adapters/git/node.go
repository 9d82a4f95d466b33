package git

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/canarist/internal/adapters/logger"
	"go.trai.ch/canarist/internal/core/ports"
)

const NodeID graft.ID = "adapter.cloner"

func init() {
	graft.Register(graft.Node[ports.Cloner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Cloner, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewCloner(log), nil
		},
	})
}
