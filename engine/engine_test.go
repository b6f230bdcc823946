package engine

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/history"
	"github.com/rushteam/shoprec/pkg/metrics"
)

func fixture() *catalog.Catalog {
	return catalog.New([]core.Product{
		{ID: "P1", Name: "Red Shoes", Rating: 4.0, DiscountedPrice: 399, ShortUserID: "A"},
		{ID: "P1", Name: "Red Shoes", Rating: 4.0, DiscountedPrice: 399, ShortUserID: "B"},
		{ID: "P2", Name: "Red Sneakers", Rating: 4.5, ShortUserID: "B"},
		{ID: "P3", Name: "Blue Hat", Rating: 3.0, ShortUserID: "C"},
		{ID: "P4", Name: "Red Running Shoes", Rating: 4.8, ShortUserID: "B"},
		{ID: "P5", Name: "Green Hat", Rating: 2.0, ShortUserID: "C"},
		{ID: "P6", Name: "Red Sneakers", Rating: 5.0, ShortUserID: "B"},
	}).WithTrending([]core.Product{
		{ID: "T1", Name: "Trend One"},
		{ID: "T2", Name: "Trend Two"},
	})
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(fixture(), nil, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func ids(rs core.ResultSet) []string {
	return rs.IDs()
}

func TestOnProductClick(t *testing.T) {
	small := catalog.New([]core.Product{
		{ID: "P1", Name: "Red Shoes", Rating: 4.0},
		{ID: "P2", Name: "Red Sneakers", Rating: 4.5},
		{ID: "P3", Name: "Blue Hat", Rating: 3.0},
	})
	e, err := New(small, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	ctx := context.Background()

	rs, err := e.OnProductClick(ctx, "P1")
	if err != nil {
		t.Fatalf("OnProductClick() error = %v", err)
	}
	if got := ids(rs); !reflect.DeepEqual(got, []string{"P2", "P3"}) {
		t.Errorf("OnProductClick(P1) = %v, want [P2 P3]", got)
	}
	if rs.Strategy != StrategyClick {
		t.Errorf("Strategy = %q", rs.Strategy)
	}

	if _, err := e.OnProductClick(ctx, "P404"); !core.IsProductNotFound(err) {
		t.Errorf("OnProductClick(P404) error = %v, want PRODUCT_NOT_FOUND", err)
	}
}

func assertDistinctNames(t *testing.T, rs core.ResultSet) {
	t.Helper()
	seen := map[string]bool{}
	for _, name := range rs.Names() {
		if seen[name] {
			t.Errorf("duplicate name %q in %s result %v", name, rs.Strategy, ids(rs))
		}
		seen[name] = true
	}
}

// similarLimit 覆盖文本相似度条数，n <= 0 时沿用默认值。
type similarLimit struct {
	core.DefaultRecallConfig
	n int
}

func (c *similarLimit) DefaultSimilarLimit() int {
	return core.ResolveTopN(c.n, c.DefaultRecallConfig.DefaultSimilarLimit())
}

func TestOnProductClick_DistinctNames(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		productID string
		limit     int
		want      []string
	}{
		{name: "same-name products collapse", productID: "P1", want: []string{"P4", "P2", "P3", "P5"}},
		{name: "limit still filled after collapse", productID: "P1", limit: 3, want: []string{"P4", "P2", "P3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, WithDefaults(&similarLimit{n: tt.limit}))
			rs, err := e.OnProductClick(ctx, tt.productID)
			if err != nil {
				t.Fatalf("OnProductClick(%s) error = %v", tt.productID, err)
			}
			if got := ids(rs); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("OnProductClick(%s) = %v, want %v", tt.productID, got, tt.want)
			}
			assertDistinctNames(t, rs)
		})
	}

	// 点击 P2 时同名的 P6 相似度最高，排在第一位，P2 自身不出现
	rs, err := e.OnProductClick(ctx, "P2")
	if err != nil {
		t.Fatalf("OnProductClick(P2) error = %v", err)
	}
	if got := ids(rs); len(got) == 0 || got[0] != "P6" {
		t.Errorf("OnProductClick(P2) = %v, want P6 first", got)
	}
	for _, id := range ids(rs) {
		if id == "P2" {
			t.Errorf("OnProductClick(P2) returned the clicked product: %v", ids(rs))
		}
	}
	assertDistinctNames(t, rs)
}

func TestAllStrategies_DistinctNames(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	if err := e.RecordView(ctx, "U1", "P1"); err != nil {
		t.Fatal(err)
	}

	calls := map[string]func() (core.ResultSet, error){
		StrategySimilar:       func() (core.ResultSet, error) { return e.SimilarProducts(ctx, "Red Sneakers", 0) },
		StrategyContent:       func() (core.ResultSet, error) { return e.ContentBased(ctx, "U1", 0) },
		StrategyCollaborative: func() (core.ResultSet, error) { return e.Collaborative(ctx, "A", 0) },
		StrategyHybrid:        func() (core.ResultSet, error) { return e.Hybrid(ctx, "A", "Red Shoes", 0) },
		StrategyClick:         func() (core.ResultSet, error) { return e.OnProductClick(ctx, "P4") },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			rs, err := call()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			assertDistinctNames(t, rs)
		})
	}
}

func TestSimilarProducts(t *testing.T) {
	e := newEngine(t)
	rs, err := e.SimilarProducts(context.Background(), "Red Shoes", 0)
	if err != nil {
		t.Fatalf("SimilarProducts() error = %v", err)
	}
	// P6 与 P2 同名，只保留相似度排序中先出现的 P2
	if got := ids(rs); !reflect.DeepEqual(got, []string{"P4", "P2", "P3", "P5"}) {
		t.Errorf("SimilarProducts() = %v", got)
	}

	rs, _ = e.SimilarProducts(context.Background(), "Red Shoes", 2)
	if rs.Len() != 2 {
		t.Errorf("SimilarProducts(limit 2) len = %d", rs.Len())
	}
}

func TestContentBased(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	for _, pid := range []string{"P3", "P1"} {
		if err := e.RecordView(ctx, "U1", pid); err != nil {
			t.Fatalf("RecordView(%s) error = %v", pid, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	rs, err := e.ContentBased(ctx, "U1", 0)
	if err != nil {
		t.Fatalf("ContentBased(U1) error = %v", err)
	}
	// 种子是最近浏览的 P1，因此 P1 自身被丢弃，P3 出现在结果中
	if got, want := ids(rs), []string{"P4", "P2", "P3", "P5"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ContentBased(U1) = %v, want %v", got, want)
	}

	rs, err = e.ContentBased(ctx, "U1", 2)
	if err != nil || rs.Len() != 2 {
		t.Errorf("ContentBased(U1, 2) = %v, %v", ids(rs), err)
	}

	rs, err = e.ContentBased(ctx, "U3", 0)
	if err != nil {
		t.Fatalf("ContentBased(U3) error = %v", err)
	}
	if !rs.Empty() || rs.Items == nil {
		t.Errorf("ContentBased(U3) = %#v, want empty non-nil items", rs.Items)
	}
}

func TestCollaborative(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	rs, err := e.Collaborative(ctx, "A", 0)
	if err != nil {
		t.Fatalf("Collaborative(A) error = %v", err)
	}
	// P2 与评分更高的 P6 同名，被去掉
	if got, want := ids(rs), []string{"P6", "P4", "P3", "P5"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Collaborative(A) = %v, want %v", got, want)
	}
	for i := 1; i < rs.Len(); i++ {
		if rs.Items[i].Rating > rs.Items[i-1].Rating {
			t.Errorf("not sorted by rating: %v", ids(rs))
		}
	}

	if _, err := e.Collaborative(ctx, "U2", 0); !core.IsUserNotFound(err) {
		t.Errorf("Collaborative(U2) error = %v, want USER_NOT_FOUND", err)
	}
}

func TestHybrid(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	rs, err := e.Hybrid(ctx, "A", "Red Shoes", 0)
	if err != nil {
		t.Fatalf("Hybrid() error = %v", err)
	}
	// P6 与内容结果中的 P2 同名，内容结果优先
	if got, want := ids(rs), []string{"P4", "P2", "P3", "P5"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Hybrid() = %v, want %v", got, want)
	}
	seen := map[string]bool{}
	for _, name := range rs.Names() {
		if seen[name] {
			t.Errorf("duplicate name %q in %v", name, rs.Names())
		}
		seen[name] = true
	}

	rs, _ = e.Hybrid(ctx, "A", "Red Shoes", 2)
	if got := ids(rs); !reflect.DeepEqual(got, []string{"P4", "P2"}) {
		t.Errorf("Hybrid(topN 2) = %v", got)
	}

	if _, err := e.Hybrid(ctx, "U2", "Red Shoes", 0); !core.IsUserNotFound(err) {
		t.Errorf("Hybrid(U2) error = %v, want USER_NOT_FOUND", err)
	}
}

func TestPostFilters(t *testing.T) {
	e := newEngine(t, WithPostFilter(`item.rating >= 4.0`))
	rs, err := e.Hybrid(context.Background(), "A", "Red Shoes", 0)
	if err != nil {
		t.Fatalf("Hybrid() error = %v", err)
	}
	if got := ids(rs); !reflect.DeepEqual(got, []string{"P4", "P2"}) {
		t.Errorf("filtered Hybrid() = %v", got)
	}

	if _, err := New(fixture(), nil, WithPostFilter(`item.rating >`)); !core.IsInvalidInput(err) {
		t.Errorf("New() with bad filter error = %v, want INVALID_INPUT", err)
	}

	path := filepath.Join(t.TempDir(), "post.yaml")
	yaml := "pipeline:\n  nodes:\n    - type: rerank.sort_rating\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	e = newEngine(t, WithPipelineFile(path))
	rs, err = e.SimilarProducts(context.Background(), "Red Shoes", 0)
	if err != nil {
		t.Fatalf("SimilarProducts() error = %v", err)
	}
	if got := ids(rs); !reflect.DeepEqual(got, []string{"P4", "P2", "P3", "P5"}) {
		t.Errorf("SimilarProducts() with sort node = %v", got)
	}

	if _, err := New(fixture(), nil, WithPipelineFile(filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Error("New() with missing pipeline file should fail")
	}
}

func TestSetCatalog_InvalidatesIndexCache(t *testing.T) {
	e := newEngine(t, WithIndexCache(true))
	ctx := context.Background()

	if _, err := e.SimilarProducts(ctx, "Red Shoes", 0); err != nil {
		t.Fatal(err)
	}
	e.SetCatalog(catalog.New([]core.Product{
		{ID: "Q1", Name: "Red Shoes"},
		{ID: "Q2", Name: "Red Boots"},
	}))
	rs, err := e.SimilarProducts(ctx, "Red Shoes", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(rs); !reflect.DeepEqual(got, []string{"Q2"}) {
		t.Errorf("SimilarProducts() after SetCatalog = %v, want [Q2]", got)
	}
}

func TestRecordViewAndHistory(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	if err := e.RecordView(ctx, "U1", "P404"); !core.IsProductNotFound(err) {
		t.Errorf("RecordView(P404) error = %v, want PRODUCT_NOT_FOUND", err)
	}
	if err := e.RecordView(ctx, "U1", "P2"); err != nil {
		t.Fatalf("RecordView() error = %v", err)
	}
	entries, err := e.History(ctx, "U1", 0)
	if err != nil || len(entries) != 1 || entries[0].ProductID != "P2" {
		t.Errorf("History() = %+v, %v", entries, err)
	}
}

func TestProductAndTrending(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	p, err := e.Product(ctx, "P1")
	if err != nil || p.Name != "Red Shoes" || p.Price != 399 {
		t.Errorf("Product(P1) = %+v, %v", p, err)
	}
	if _, err := e.Product(ctx, "nope"); !core.IsProductNotFound(err) {
		t.Errorf("Product(nope) error = %v", err)
	}

	rs, err := e.Trending(ctx, 0)
	if err != nil || !reflect.DeepEqual(ids(rs), []string{"T1", "T2"}) {
		t.Errorf("Trending(0) = %v, %v", ids(rs), err)
	}
	rs, _ = e.Trending(ctx, 1)
	if !reflect.DeepEqual(ids(rs), []string{"T1"}) {
		t.Errorf("Trending(1) = %v", ids(rs))
	}
}

func TestClose_OwnedHistoryOnly(t *testing.T) {
	e, err := New(fixture(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.closers) != 1 {
		t.Fatalf("closers = %d, want the owned memory history", len(e.closers))
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	hist := history.NewMemory()
	defer hist.Close()
	e, err = New(fixture(), hist)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.closers) != 0 {
		t.Errorf("caller-owned history must not be closed by the engine")
	}
}

func TestMetricsRecorded(t *testing.T) {
	rec := metrics.NewRecorder()
	e := newEngine(t, WithMetrics(rec))
	ctx := context.Background()

	_, _ = e.Collaborative(ctx, "A", 0)
	_, _ = e.Collaborative(ctx, "U2", 0)

	n, err := testutil.GatherAndCount(rec.Registry(), "shoprec_recommendations_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("series = %d, want 2 (ok + not_found)", n)
	}
}
