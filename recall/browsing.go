package recall

import (
	"context"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/history"
	"github.com/rushteam/shoprec/pkg/logger"
	"github.com/rushteam/shoprec/pkg/utils"
)

// BrowsingRecall 以用户最近浏览的商品为种子做文本相似召回，结果按评分降序。
//
// 没有浏览记录或种子商品已不在目录中时返回空结果而不是错误。
type BrowsingRecall struct {
	Catalog *catalog.Catalog
	History history.Store
	Index   Indexer
	Logger  *logger.Logger

	// Limit 文本相似召回条数，<= 0 使用默认值 16
	Limit int
}

func (r *BrowsingRecall) Name() string { return "recall.browsing" }

func (r *BrowsingRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil || r.History == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	log := logger.OrNop(r.Logger).With("source", r.Name(), "user_id", rctx.UserID)

	entry, ok, err := history.Latest(ctx, r.History, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Debug("no browsing history")
		return nil, nil
	}
	seed, ok := r.Catalog.Get(entry.ProductID)
	if !ok {
		log.Warn("seed product missing from catalog", "product_id", entry.ProductID)
		return nil, nil
	}
	log.Debug("browsing seed", "product_id", seed.ID, "name", seed.Name)

	seeded := *rctx
	seeded.SeedName = seed.Name
	seeded.ExcludeID = ""
	items, err := (&ContentRecall{Catalog: r.Catalog, Index: r.Index, Limit: r.Limit}).Recall(ctx, &seeded)
	if err != nil {
		return nil, err
	}
	core.SortByRating(items)
	for _, it := range items {
		it.PutLabel("seed_product", utils.Label{Value: seed.ID, Source: "recall"})
	}
	labelSource(items, r.Name())
	return items, nil
}
