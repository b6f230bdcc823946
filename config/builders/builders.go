// Package builders 注册可由配置驱动的附加 Node。
//
// 召回源依赖运行时的目录与浏览历史，由 engine 直接组装，不在此注册。
package builders

import (
	"fmt"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/rerank"
)

func init() {
	config.Register("filter.expr", BuildExprFilterNode)
	config.Register("filter.blacklist", BuildBlacklistNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.sort_rating", BuildRatingSortNode)
	config.Register("rerank.dedup", BuildDedupNode)
	config.Register("rerank.linear", BuildLinearNode)
}

func BuildExprFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	f, err := buildExprFilter(cfg)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func BuildBlacklistNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &filter.FilterNode{Filters: []filter.Filter{buildBlacklist(cfg)}}, nil
}

// BuildFilterNode 组合多个过滤器：
//
//	type: filter
//	config:
//	  filters:
//	    - {type: expr, expr: "item.rating >= 4"}
//	    - {type: blacklist, product_ids: [B07X]}
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "expr":
			f, err := buildExprFilter(filterMap)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		case "blacklist":
			filters = append(filters, buildBlacklist(filterMap))
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("n must be >= 0, got %d", n)
	}
	return &rerank.TopNNode{N: int(n)}, nil
}

func BuildRatingSortNode(map[string]interface{}) (pipeline.Node, error) {
	return &rerank.RatingSort{}, nil
}

func BuildDedupNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Dedup{Field: conv.ConfigGet(cfg, "field", "name")}, nil
}

// BuildLinearNode 从配置构建线性打分节点：
//
//	type: rerank.linear
//	config:
//	  bias: 0
//	  sigmoid: false
//	  weights: {rating: 1.0, discount: 2.0}
func BuildLinearNode(cfg map[string]interface{}) (pipeline.Node, error) {
	raw, ok := cfg["weights"].(map[string]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("weights not found or empty")
	}
	weights := make(map[string]float64, len(raw))
	for k, v := range raw {
		w, ok := conv.ToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("weight %s is not a number", k)
		}
		weights[k] = w
	}
	bias, _ := conv.ToFloat64(cfg["bias"])
	return &rerank.LinearScore{
		Bias:    bias,
		Weights: weights,
		Sigmoid: conv.ConfigGet(cfg, "sigmoid", false),
	}, nil
}

func buildExprFilter(cfg map[string]interface{}) (*filter.ExprFilter, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr not found")
	}
	return filter.NewExprFilter(expr)
}

func buildBlacklist(cfg map[string]interface{}) *filter.BlacklistFilter {
	return filter.NewBlacklistFilter(conv.SliceAnyToString(cfg["product_ids"]))
}
