package recall

import (
	"sort"
	"sync"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/tfidf"
)

// TextIndex 是目录商品名称上的 TF-IDF 相似度索引。
type TextIndex struct {
	catalog *catalog.Catalog
	model   *tfidf.Model
}

// Match 是一次查询命中的商品及其余弦相似度。
type Match struct {
	Product    core.Product
	Similarity float64
}

// BuildTextIndex 用目录中全部商品名称拟合 TF-IDF。
func BuildTextIndex(c *catalog.Catalog) *TextIndex {
	return &TextIndex{catalog: c, model: tfidf.Fit(c.Names())}
}

// Query 返回与 name 最相似的商品，相似度降序，同分保持目录顺序。
// excludeID 非空时剔除该商品，否则丢弃排名第一的结果（通常是查询商品自身）。
// limit <= 0 时不截断。
func (ix *TextIndex) Query(name, excludeID string, limit int) []Match {
	n := ix.catalog.Len()
	if n == 0 {
		return nil
	}
	sims := ix.model.Similarities(name)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})

	if excludeID == "" {
		order = order[1:]
	}
	out := make([]Match, 0, len(order))
	for _, i := range order {
		p := ix.catalog.At(i)
		if excludeID != "" && p.ID == excludeID {
			continue
		}
		out = append(out, Match{Product: p, Similarity: sims[i]})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Indexer 为目录返回文本索引。
type Indexer func(c *catalog.Catalog) *TextIndex

// IndexCache 按目录实例缓存 TextIndex；目录替换后下一次调用重新拟合。
type IndexCache struct {
	mu  sync.Mutex
	cat *catalog.Catalog
	ix  *TextIndex
}

func (c *IndexCache) Index(cat *catalog.Catalog) *TextIndex {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ix == nil || c.cat != cat {
		c.cat = cat
		c.ix = BuildTextIndex(cat)
	}
	return c.ix
}

// Invalidate 清空缓存。
func (c *IndexCache) Invalidate() {
	c.mu.Lock()
	c.cat, c.ix = nil, nil
	c.mu.Unlock()
}

func resolveIndexer(f Indexer) Indexer {
	if f == nil {
		return BuildTextIndex
	}
	return f
}
