package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// Dedup 按字段去重，保留首个出现的商品。
// Field 取值：
//   - "name"（默认）：商品名称
//   - "id"：ProductID
//   - 其他：label[Field].Value，取不到时不参与去重
type Dedup struct {
	Field string
}

func (n *Dedup) Name() string {
	return "rerank.dedup"
}

func (n *Dedup) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Dedup) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	field := n.Field
	if field == "" {
		field = "name"
	}

	seen := make(map[string]bool, len(items))
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		var key string
		switch field {
		case "name":
			key = it.Product.Name
		case "id":
			key = it.ID
		default:
			if lbl, ok := it.Labels[field]; ok {
				key = lbl.Value
			}
		}
		if key == "" {
			out = append(out, it)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out, nil
}
