package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/conv"
)

// 列名（不区分大小写），每个字段可有多个别名。
var columnAliases = map[string][]string{
	"id":               {"productid", "product_id", "id"},
	"name":             {"name", "product_name"},
	"actual_price":     {"actual_price"},
	"discounted_price": {"discounted_price", "price"},
	"rating":           {"rating"},
	"rating_count":     {"rating_count", "reviewcount", "review_count"},
	"description":      {"description", "about_product"},
	"image_url":        {"imageurl", "image_url", "img_link"},
	"short_user_id":    {"shorten_user_id", "short_user_id", "user_id"},
}

// LoadOptions 控制 CSV 读取。
type LoadOptions struct {
	// RequireID 为 true 时缺少 ProductID 列会报错（主目录需要，热门列表不需要）
	RequireID bool
}

// ReadCSV 从 r 读取带表头的商品 CSV。列顺序任意，未知列忽略。
func ReadCSV(r io.Reader, opts LoadOptions) ([]core.Product, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.InvalidInput(core.ModuleCatalog, "catalog: missing csv header")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := resolveColumns(header)
	if _, ok := cols["name"]; !ok {
		return nil, core.InvalidInput(core.ModuleCatalog, "catalog: csv has no Name column")
	}
	if _, ok := cols["id"]; opts.RequireID && !ok {
		return nil, core.InvalidInput(core.ModuleCatalog, "catalog: csv has no ProductID column")
	}

	var out []core.Product
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		p, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if opts.RequireID && p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadFile 读取目录 CSV 文件并构建 Catalog。
func LoadFile(path string) (*Catalog, error) {
	rows, err := readFile(path, LoadOptions{RequireID: true})
	if err != nil {
		return nil, err
	}
	return New(rows), nil
}

// LoadTrendingFile 读取热门商品 CSV（popularProducts.csv），ProductID 可缺省。
func LoadTrendingFile(path string) ([]core.Product, error) {
	return readFile(path, LoadOptions{})
}

func readFile(path string, opts LoadOptions) ([]core.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return rows, nil
}

func resolveColumns(header []string) map[string]int {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		// 去掉 UTF-8 BOM
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	cols := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := pos[a]; ok {
				cols[field] = i
				break
			}
		}
	}
	return cols
}

func parseRow(rec []string, cols map[string]int) (core.Product, error) {
	get := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(field string) (float64, error) {
		v, err := conv.ParseNumber(get(field))
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", field, err)
		}
		return v, nil
	}

	p := core.Product{
		ID:          get("id"),
		Name:        get("name"),
		Description: get("description"),
		ImageURL:    get("image_url"),
		ShortUserID: get("short_user_id"),
	}
	var err error
	if p.ActualPrice, err = num("actual_price"); err != nil {
		return p, err
	}
	if p.DiscountedPrice, err = num("discounted_price"); err != nil {
		return p, err
	}
	if p.Rating, err = num("rating"); err != nil {
		return p, err
	}
	count, err := num("rating_count")
	if err != nil {
		return p, err
	}
	p.RatingCount = int64(count)
	return p, nil
}
