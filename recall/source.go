package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Source 表示一个可复用的召回源（文本相似/浏览历史/CF/热门）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// AsNode 把 Source 包装成 Recall 阶段的 pipeline.Node，忽略输入 items。
func AsNode(src Source) pipeline.Node {
	return &sourceNode{src: src}
}

type sourceNode struct {
	src Source
}

func (n *sourceNode) Name() string        { return n.src.Name() }
func (n *sourceNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *sourceNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return n.src.Recall(ctx, rctx)
}

func labelSource(items []*core.Item, name string) {
	for _, it := range items {
		it.PutLabel("recall_source", utils.Label{Value: name, Source: "recall"})
	}
}
