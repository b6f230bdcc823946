package core

// Product 是商品目录中的一行（只读）。
// ID 在整个目录中唯一；ShortUserID 仅用于构建用户-商品评分矩阵。
type Product struct {
	ID              string
	Name            string
	ActualPrice     float64
	DiscountedPrice float64
	Rating          float64 // 0-5
	RatingCount     int64
	Description     string
	ImageURL        string
	ShortUserID     string
}

// Summary 投影为推荐结果使用的统一结构。
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.DiscountedPrice,
		ActualPrice: p.ActualPrice,
		Rating:      p.Rating,
		RatingCount: p.RatingCount,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
}

// RatingRow 是一条用户评分关联：(短用户 ID, 商品 ID, 评分)。
// 扁平文件中同一个 ProductID 可能出现多行（每个评分用户一行）。
type RatingRow struct {
	UserID    string
	ProductID string
	Rating    float64
}

// ProductSummary 是所有推荐策略统一返回的商品投影。
// 某个来源无法提供的字段保持零值，合并时不需要做字段探测。
type ProductSummary struct {
	ID          string  `json:"product_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"discounted_price"`
	ActualPrice float64 `json:"actual_price"`
	Rating      float64 `json:"rating"`
	RatingCount int64   `json:"rating_count"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
}

// ResultSet 是一次推荐调用的结果。
// Items 为空表示"没有可推荐的商品"，这是正常结果而不是错误。
type ResultSet struct {
	Strategy string           `json:"strategy"`
	Items    []ProductSummary `json:"items"`
}

// Empty 报告结果集是否为空。
func (r ResultSet) Empty() bool {
	return len(r.Items) == 0
}

// Len 返回结果数量。
func (r ResultSet) Len() int {
	return len(r.Items)
}

// Names 返回结果中的商品名称，按顺序。
func (r ResultSet) Names() []string {
	out := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, it.Name)
	}
	return out
}

// IDs 返回结果中的商品 ID，按顺序。
func (r ResultSet) IDs() []string {
	out := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, it.ID)
	}
	return out
}
