package recall

import (
	"math"
	"sort"

	"github.com/rushteam/shoprec/core"
)

// UserItemMatrix 是 用户 × 商品 的稠密评分矩阵。
// 行、列分别按用户 ID、商品 ID 字典序排列；格子为该用户对该商品评分的均值，未评分为 0。
type UserItemMatrix struct {
	Users    []string
	Products []string
	Cells    [][]float64

	userIndex map[string]int
}

// BuildMatrix 从评分关联构建矩阵。
func BuildMatrix(ratings []core.RatingRow) *UserItemMatrix {
	userSet := make(map[string]struct{})
	productSet := make(map[string]struct{})
	for _, r := range ratings {
		userSet[r.UserID] = struct{}{}
		productSet[r.ProductID] = struct{}{}
	}
	m := &UserItemMatrix{
		Users:     sortedKeys(userSet),
		Products:  sortedKeys(productSet),
		userIndex: make(map[string]int, len(userSet)),
	}
	for i, u := range m.Users {
		m.userIndex[u] = i
	}
	productIndex := make(map[string]int, len(m.Products))
	for j, p := range m.Products {
		productIndex[p] = j
	}

	sums := make([][]float64, len(m.Users))
	counts := make([][]int, len(m.Users))
	for i := range sums {
		sums[i] = make([]float64, len(m.Products))
		counts[i] = make([]int, len(m.Products))
	}
	for _, r := range ratings {
		i, j := m.userIndex[r.UserID], productIndex[r.ProductID]
		sums[i][j] += r.Rating
		counts[i][j]++
	}
	m.Cells = sums
	for i := range sums {
		for j, c := range counts[i] {
			if c > 0 {
				m.Cells[i][j] = sums[i][j] / float64(c)
			}
		}
	}
	return m
}

// Row 返回用户所在行的下标。
func (m *UserItemMatrix) Row(userID string) (int, bool) {
	i, ok := m.userIndex[userID]
	return i, ok
}

// Similarities 返回第 row 行与每一行的余弦相似度；零向量的相似度为 0。
func (m *UserItemMatrix) Similarities(row int) []float64 {
	out := make([]float64, len(m.Users))
	for i := range m.Cells {
		out[i] = denseCosine(m.Cells[row], m.Cells[i])
	}
	return out
}

func denseCosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
