package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logger"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
// 保留的物品维持原有顺序。
type FilterNode struct {
	Filters []Filter
	Logger  *logger.Logger
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}
	log := logger.OrNop(n.Logger)

	out := make([]*core.Item, 0, len(items))
	filtered := 0
	for _, item := range items {
		if item == nil {
			continue
		}
		drop := false
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器错误时保留该物品，不中断流程
				log.Warn("filter failed", "filter", f.Name(), "product_id", item.ID, "error", err)
				continue
			}
			if ok {
				drop = true
				break
			}
		}
		if drop {
			filtered++
			continue
		}
		out = append(out, item)
	}
	if filtered > 0 {
		log.Debug("filtered items", "count", filtered)
	}
	return out, nil
}
