package filter

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func items() []*core.Item {
	return []*core.Item{
		core.NewItem(core.ProductSummary{ID: "P1", Name: "Red Shoes", Price: 300, Rating: 4.5}),
		core.NewItem(core.ProductSummary{ID: "P2", Name: "Red Sneakers", Price: 900, Rating: 4.1}),
		core.NewItem(core.ProductSummary{ID: "P3", Name: "Blue Hat", Price: 150, Rating: 3.2}),
	}
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestFilterNode(t *testing.T) {
	ratingFloor, err := NewExprFilter(`item.rating >= 4.0`)
	if err != nil {
		t.Fatalf("NewExprFilter() error = %v", err)
	}
	broken, err := NewExprFilter(`label.missing == "x"`)
	if err != nil {
		t.Fatalf("NewExprFilter() error = %v", err)
	}

	tests := []struct {
		name    string
		filters []Filter
		want    []string
	}{
		{name: "no filters", want: []string{"P1", "P2", "P3"}},
		{name: "blacklist", filters: []Filter{NewBlacklistFilter([]string{"P2"})}, want: []string{"P1", "P3"}},
		{name: "expr", filters: []Filter{ratingFloor}, want: []string{"P1", "P2"}},
		{
			name:    "any filter drops",
			filters: []Filter{ratingFloor, NewBlacklistFilter([]string{"P1"})},
			want:    []string{"P2"},
		},
		{name: "eval error keeps item", filters: []Filter{broken}, want: []string{"P1", "P2", "P3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &FilterNode{Filters: tt.filters}
			got, err := n.Process(context.Background(), &core.RecommendContext{}, items())
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Process() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestNewExprFilter_Invalid(t *testing.T) {
	_, err := NewExprFilter(`item.rating >`)
	if !core.IsInvalidInput(err) {
		t.Errorf("NewExprFilter() error = %v, want INVALID_INPUT", err)
	}
}
