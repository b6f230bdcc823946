// Package catalog 是只读的内存商品目录（Catalog Store）。
//
// 目录在进程启动时加载一次，之后不可变：所有读方法都返回副本，
// 推荐调用不能修改目录本身，因此可以在多个请求之间并发共享。
package catalog

import (
	"github.com/rushteam/shoprec/core"
)

// Catalog 是不可变的商品表。
type Catalog struct {
	products []core.Product
	index    map[string]int
	ratings  []core.RatingRow
	trending []core.Product
}

// New 用商品行构建目录。
// 同一个 ProductID 出现多次时保留第一行作为商品，每一行都作为一条评分关联。
func New(rows []core.Product) *Catalog {
	c := &Catalog{
		products: make([]core.Product, 0, len(rows)),
		index:    make(map[string]int, len(rows)),
		ratings:  make([]core.RatingRow, 0, len(rows)),
	}
	for _, p := range rows {
		if p.ID == "" {
			continue
		}
		if p.ShortUserID != "" {
			c.ratings = append(c.ratings, core.RatingRow{
				UserID:    p.ShortUserID,
				ProductID: p.ID,
				Rating:    p.Rating,
			})
		}
		if _, ok := c.index[p.ID]; ok {
			continue
		}
		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// WithTrending 返回带热门列表的新目录，原目录不变。
func (c *Catalog) WithTrending(trending []core.Product) *Catalog {
	cp := *c
	cp.trending = append([]core.Product(nil), trending...)
	return &cp
}

// Len 返回商品数量。
func (c *Catalog) Len() int {
	return len(c.products)
}

// Products 返回全部商品（目录顺序）的副本。
func (c *Catalog) Products() []core.Product {
	return append([]core.Product(nil), c.products...)
}

// At 返回目录顺序中第 i 个商品。
func (c *Catalog) At(i int) core.Product {
	return c.products[i]
}

// Names 返回全部商品名称（目录顺序）。
func (c *Catalog) Names() []string {
	out := make([]string, len(c.products))
	for i, p := range c.products {
		out[i] = p.Name
	}
	return out
}

// Get 按 ProductID 精确查找。
func (c *Catalog) Get(id string) (core.Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return core.Product{}, false
	}
	return c.products[i], true
}

// Lookup 与 Get 相同，但不存在时返回 PRODUCT_NOT_FOUND。
func (c *Catalog) Lookup(id string) (core.Product, error) {
	p, ok := c.Get(id)
	if !ok {
		return core.Product{}, core.ProductNotFound(id)
	}
	return p, nil
}

// Position 返回商品在目录中的下标，用于按目录顺序稳定排序。
func (c *Catalog) Position(id string) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// Ratings 返回全部评分关联的副本。
func (c *Catalog) Ratings() []core.RatingRow {
	return append([]core.RatingRow(nil), c.ratings...)
}

// Trending 返回热门列表的前 n 个（n <= 0 返回全部）。
func (c *Catalog) Trending(n int) []core.Product {
	if n <= 0 || n > len(c.trending) {
		n = len(c.trending)
	}
	return append([]core.Product(nil), c.trending[:n]...)
}
