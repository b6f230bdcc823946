package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// RatingSort 按商品评分降序稳定排序，同分保持上游顺序。
type RatingSort struct{}

func (n *RatingSort) Name() string {
	return "rerank.sort_rating"
}

func (n *RatingSort) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *RatingSort) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := append([]*core.Item(nil), items...)
	core.SortByRating(out)
	return out, nil
}
