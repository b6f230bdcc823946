package recall

import (
	"context"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// Trending 是热门召回源，按热门列表原有顺序返回前 TopN 个。
// Trending 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Trending struct {
	Catalog *catalog.Catalog

	// TopN <= 0 使用默认值 12
	TopN int
}

func (r *Trending) Name() string        { return "recall.trending" }
func (r *Trending) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Trending) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Trending) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	topN := core.ResolveTopN(r.TopN, (&core.DefaultRecallConfig{}).DefaultTrendingTopN())
	products := r.Catalog.Trending(topN)
	out := make([]*core.Item, 0, len(products))
	for _, p := range products {
		out = append(out, core.NewItem(p.Summary()))
	}
	labelSource(out, r.Name())
	return out, nil
}
