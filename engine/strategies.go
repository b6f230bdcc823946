package engine

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/history"
	"github.com/rushteam/shoprec/recall"
)

// SimilarProducts 按名称做文本相似搜索（游客搜索），丢弃排名第一的结果。
func (e *Engine) SimilarProducts(ctx context.Context, name string, limit int) (core.ResultSet, error) {
	limit = core.ResolveTopN(limit, e.defaults.DefaultSimilarLimit())
	src := &recall.ContentRecall{Catalog: e.Catalog(), Index: e.indexer(), Limit: limit}
	rctx := &core.RecommendContext{SeedName: name, Strategy: StrategySimilar}
	return e.run(ctx, rctx, recall.AsNode(src), limit)
}

// ContentBased 以用户最近浏览的商品为种子推荐，结果按评分降序。
// 没有浏览记录时返回空结果。
func (e *Engine) ContentBased(ctx context.Context, userID string, topN int) (core.ResultSet, error) {
	topN = core.ResolveTopN(topN, e.defaults.DefaultContentTopN())
	src := &recall.BrowsingRecall{
		Catalog: e.Catalog(),
		History: e.history,
		Index:   e.indexer(),
		Limit:   e.defaults.DefaultSimilarLimit(),
		Logger:  e.log,
	}
	rctx := &core.RecommendContext{UserID: userID, Strategy: StrategyContent}
	return e.run(ctx, rctx, recall.AsNode(src), topN)
}

// Collaborative 基于用户的协同过滤；用户不在评分矩阵中时返回 core.ErrUserNotFound。
func (e *Engine) Collaborative(ctx context.Context, userID string, topN int) (core.ResultSet, error) {
	topN = core.ResolveTopN(topN, e.defaults.DefaultCollaborativeTopN())
	src := &recall.UserBasedCF{Catalog: e.Catalog(), TopN: topN}
	rctx := &core.RecommendContext{UserID: userID, Strategy: StrategyCollaborative}
	return e.run(ctx, rctx, recall.AsNode(src), topN)
}

// Hybrid 并发执行名称相似召回与协同过滤，内容结果在前，按名称去重后截断。
func (e *Engine) Hybrid(ctx context.Context, userID, name string, topN int) (core.ResultSet, error) {
	topN = core.ResolveTopN(topN, e.defaults.DefaultHybridTopN())
	cat := e.Catalog()
	fanout := &recall.Fanout{
		Sources: []recall.Source{
			&recall.ContentRecall{Catalog: cat, Index: e.indexer(), Limit: e.defaults.DefaultSimilarLimit()},
			&recall.UserBasedCF{Catalog: cat, TopN: e.defaults.DefaultCollaborativeTopN()},
		},
		DedupKey: recall.DedupName,
		FailFast: true,
		Logger:   e.log,
	}
	rctx := &core.RecommendContext{UserID: userID, SeedName: name, Strategy: StrategyHybrid}
	return e.run(ctx, rctx, fanout, topN)
}

// OnProductClick 返回与被点击商品相似的商品（不含其自身）。
func (e *Engine) OnProductClick(ctx context.Context, productID string) (core.ResultSet, error) {
	cat := e.Catalog()
	p, err := cat.Lookup(productID)
	if err != nil {
		e.metrics.Observe(StrategyClick, outcomeOf(err), 0)
		return core.ResultSet{Strategy: StrategyClick, Items: []core.ProductSummary{}}, err
	}
	limit := e.defaults.DefaultSimilarLimit()
	src := &recall.ContentRecall{Catalog: cat, Index: e.indexer(), Limit: limit}
	rctx := &core.RecommendContext{SeedName: p.Name, ExcludeID: p.ID, Strategy: StrategyClick}
	return e.run(ctx, rctx, recall.AsNode(src), limit)
}

// Trending 返回热门列表前 n 个。
func (e *Engine) Trending(ctx context.Context, n int) (core.ResultSet, error) {
	n = core.ResolveTopN(n, e.defaults.DefaultTrendingTopN())
	src := &recall.Trending{Catalog: e.Catalog(), TopN: n}
	return e.run(ctx, &core.RecommendContext{Strategy: StrategyTrending}, src, n)
}

// Product 返回商品详情。
func (e *Engine) Product(_ context.Context, productID string) (core.ProductSummary, error) {
	p, err := e.Catalog().Lookup(productID)
	if err != nil {
		return core.ProductSummary{}, err
	}
	return p.Summary(), nil
}

// RecordView 记录一次浏览；商品不存在时返回 core.ErrProductNotFound。
func (e *Engine) RecordView(ctx context.Context, userID, productID string) error {
	if _, err := e.Catalog().Lookup(productID); err != nil {
		return err
	}
	if err := e.history.Append(ctx, userID, productID); err != nil {
		return err
	}
	e.metrics.ViewRecorded()
	e.log.Debug("view recorded", "user_id", userID, "product_id", productID)
	return nil
}

// History 返回用户最近 n 条浏览记录（n <= 0 返回全部）。
func (e *Engine) History(ctx context.Context, userID string, n int) ([]history.Entry, error) {
	return e.history.Recent(ctx, userID, n)
}
