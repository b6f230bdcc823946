package core

import (
	"sort"

	"github.com/rushteam/shoprec/pkg/utils"
)

// Item 是推荐链路中的统一承载结构：商品投影、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 是召回阶段的相似度/权重。
type Item struct {
	ID      string
	Score   float64
	Product ProductSummary
	Meta    map[string]any
	Labels  map[string]utils.Label
}

func NewItem(p ProductSummary) *Item {
	return &Item{
		ID:      p.ID,
		Score:   0,
		Product: p,
		Meta:    make(map[string]any),
		Labels:  make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Summaries 把 Item 列表还原成结果投影，保持顺序，跳过 nil。
func Summaries(items []*Item) []ProductSummary {
	out := make([]ProductSummary, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, it.Product)
	}
	return out
}

// SortByRating 按商品评分降序稳定排序（同分保持原顺序）。
func SortByRating(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Product.Rating > items[j].Product.Rating
	})
}
