package rerank

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// LinearScore 按线性加权打分并降序排序：
//
//	z = Bias + sum(Weights[f] * feature(f))
//
// Sigmoid 为 true 时输出 1 / (1 + exp(-z))。
// 可用特征：score、rating、rating_count、price、actual_price、discount。
// - 写入 labels：rank_model
type LinearScore struct {
	Bias    float64
	Weights map[string]float64
	Sigmoid bool
}

func (n *LinearScore) Name() string        { return "rerank.linear" }
func (n *LinearScore) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *LinearScore) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Weights) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		it.Score = n.score(features(it))
		it.PutLabel("rank_model", utils.Label{Value: "linear", Source: "rerank"})
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

func (n *LinearScore) score(f map[string]float64) float64 {
	z := n.Bias
	for k, w := range n.Weights {
		z += w * f[k]
	}
	if n.Sigmoid {
		return 1 / (1 + math.Exp(-z))
	}
	return z
}

func features(it *core.Item) map[string]float64 {
	p := it.Product
	f := map[string]float64{
		"score":        it.Score,
		"rating":       p.Rating,
		"rating_count": float64(p.RatingCount),
		"price":        p.Price,
		"actual_price": p.ActualPrice,
	}
	// 原价缺失时折扣为 0
	if p.ActualPrice > 0 {
		f["discount"] = 1 - p.Price/p.ActualPrice
	}
	return f
}
