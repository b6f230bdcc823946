package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式描述“保留条件”：表达式为 false 的商品被过滤。
//
//	filter.NewExprFilter(`item.rating >= 4.0 && item.price < 1000.0`)
type ExprFilter struct {
	expr *dsl.Expr
}

func NewExprFilter(expr string) (*ExprFilter, error) {
	compiled, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.InvalidInput(core.ModuleEngine, "post filter: "+err.Error())
	}
	return &ExprFilter{expr: compiled}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	keep, err := f.expr.Match(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
