package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Expr 是编译好的商品过滤表达式，使用 CEL (Common Expression Language)。
// 编译一次后可并发求值。
//
// 可用变量：
//   - item.id / item.name / item.price / item.actual_price / item.rating / item.rating_count / item.score
//   - label.<key>：商品上的 Label 值，例如 label.recall_source
//   - rctx.user_id / rctx.seed_name / rctx.strategy / rctx.params
//
// 示例：
//   - `item.rating >= 4.0 && item.price < 500.0`
//   - `label.recall_source.contains("u2u")`
//   - `!item.name.contains("Refurbished")`
type Expr struct {
	src string
	prg cel.Program
}

// Compile 编译表达式，表达式必须返回布尔值。
func Compile(expr string) (*Expr, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if t := ast.OutputType(); !t.IsAssignableType(cel.BoolType) {
		return nil, fmt.Errorf("expression must return bool, got %s", t)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Expr{src: expr, prg: prg}, nil
}

func (e *Expr) String() string { return e.src }

// Match 对一个商品求值。
func (e *Expr) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := e.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 label 会报错，应先用 has(label.key) 判断
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Eval 把一个 item 与 rctx 绑定，便于一次性求值多个表达式。
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
}

func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 编译并执行表达式；空表达式恒为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	compiled, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return compiled.Match(e.item, e.rctx)
}

func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{}, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = v.Value
	}
	p := it.Product
	item := map[string]interface{}{
		"id":           it.ID,
		"name":         p.Name,
		"price":        p.Price,
		"actual_price": p.ActualPrice,
		"rating":       p.Rating,
		"rating_count": p.RatingCount,
		"score":        it.Score,
		"meta":         it.Meta,
	}
	if rctx == nil {
		rctx = &core.RecommendContext{}
	}
	params := rctx.Params
	if params == nil {
		params = map[string]any{}
	}
	return map[string]interface{}{
		"item":  item,
		"label": labels,
		"rctx": map[string]interface{}{
			"user_id":   rctx.UserID,
			"seed_name": rctx.SeedName,
			"strategy":  rctx.Strategy,
			"params":    params,
		},
	}
}
