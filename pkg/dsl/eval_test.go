package dsl

import (
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

func TestExpr_Match(t *testing.T) {
	it := core.NewItem(core.ProductSummary{ID: "P1", Name: "Red Shoes", Price: 399, Rating: 4.2, RatingCount: 120})
	it.Score = 0.8
	it.PutLabel("recall_source", utils.Label{Value: "recall.content", Source: "recall"})
	rctx := &core.RecommendContext{UserID: "U1", Strategy: "hybrid", Params: map[string]any{"max_price": 500.0}}

	tests := []struct {
		expr string
		want bool
	}{
		{expr: `item.rating >= 4.0 && item.price < 500.0`, want: true},
		{expr: `item.rating_count > 200`, want: false},
		{expr: `item.name.contains("Shoes")`, want: true},
		{expr: `label.recall_source == "recall.content"`, want: true},
		{expr: `has(label.similar_user)`, want: false},
		{expr: `item.price <= rctx.params.max_price`, want: true},
		{expr: `rctx.strategy == "hybrid" && rctx.user_id == "U1"`, want: true},
		{expr: `item.score > 0.9`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			e, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := e.Match(it, rctx)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, expr := range []string{`item.rating >=`, `1 + 2`} {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) expected error", expr)
		}
	}

	it := core.NewItem(core.ProductSummary{ID: "P1"})
	if _, err := NewEval(it, nil).Evaluate(`label.missing == "x"`); err == nil {
		t.Error("Evaluate() on missing label expected error")
	}
	if ok, err := NewEval(it, nil).Evaluate(""); !ok || err != nil {
		t.Errorf("Evaluate(\"\") = %v, %v", ok, err)
	}
}
