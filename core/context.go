package core

import "github.com/rushteam/shoprec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/种子商品/参数，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// UserID 是评分矩阵使用的短用户 ID，也是浏览历史的用户键
	UserID string

	// SeedName 是内容召回的种子商品名称（按名称搜索 / 混合推荐）
	SeedName string

	// ExcludeID 非空时，文本相似度结果中剔除该商品（商品点击场景）
	ExcludeID string

	// Strategy 是本次请求的策略名称（content / collaborative / hybrid / click / similar）
	Strategy string

	// Labels 是请求级标签，可驱动 Filter/ReRank 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 CEL 表达式可以读取 rctx.params.max_price
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
