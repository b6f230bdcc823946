package recall

import (
	"context"
	"strconv"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// ContentRecall 是基于商品名称文本相似度的召回源。
// 种子为 rctx.SeedName；rctx.ExcludeID 非空时剔除该商品，否则丢弃第一名。
// 同名商品只保留相似度最高的一个，并继续向后取满 Limit 条。
type ContentRecall struct {
	Catalog *catalog.Catalog

	// Index 为 nil 时每次调用都重新拟合
	Index Indexer

	// Limit 返回条数，<= 0 使用默认值 16
	Limit int
}

func (r *ContentRecall) Name() string { return "recall.content" }

func (r *ContentRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil {
		return nil, nil
	}
	limit := core.ResolveTopN(r.Limit, (&core.DefaultRecallConfig{}).DefaultSimilarLimit())
	matches := resolveIndexer(r.Index)(r.Catalog).Query(rctx.SeedName, rctx.ExcludeID, 0)

	seen := make(map[string]bool, limit)
	out := make([]*core.Item, 0, limit)
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		if seen[m.Product.Name] {
			continue
		}
		seen[m.Product.Name] = true
		it := core.NewItem(m.Product.Summary())
		it.Score = m.Similarity
		it.PutLabel("similarity", utils.Label{
			Value:  strconv.FormatFloat(m.Similarity, 'f', 4, 64),
			Source: "recall",
		})
		out = append(out, it)
	}
	labelSource(out, r.Name())
	return out, nil
}
