package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/shoprec/core"
)

// Pipeline 把一次推荐拆成可组合的 Node 链：召回 -> 过滤 -> 重排。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行每个 Node；任一 Node 出错则中止，错误带上 Node 名称。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
