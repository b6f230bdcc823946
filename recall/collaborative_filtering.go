package recall

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// UserBasedCF 是基于用户的协同过滤召回源（User-CF）。
//
// 核心思想："兴趣相似的用户，喜欢相似的物品"
//
// 算法流程：
//  1. 用目录评分构建 用户 × 商品 矩阵
//  2. 计算目标用户与其他用户的余弦相似度，降序（稳定）遍历
//  3. 收集相似用户评过分而目标用户未评分的商品，候选数达到 TopN 即停止
//  4. 候选按目录顺序取详情，按评分降序（稳定）截断到 TopN
//
// 目标用户不在矩阵中时返回 core.ErrUserNotFound。
type UserBasedCF struct {
	Catalog *catalog.Catalog

	// TopN 返回条数，<= 0 使用默认值 12
	TopN int
}

func (r *UserBasedCF) Name() string { return "recall.u2u" }

func (r *UserBasedCF) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil {
		return nil, nil
	}
	topN := core.ResolveTopN(r.TopN, (&core.DefaultRecallConfig{}).DefaultCollaborativeTopN())

	m := BuildMatrix(r.Catalog.Ratings())
	target, ok := m.Row(rctx.UserID)
	if !ok {
		return nil, core.UserNotFound(rctx.UserID)
	}

	sims := m.Similarities(target)
	others := make([]int, 0, len(m.Users))
	for i := range m.Users {
		if i != target {
			others = append(others, i)
		}
	}
	sort.SliceStable(others, func(a, b int) bool {
		return sims[others[a]] > sims[others[b]]
	})

	targetRow := m.Cells[target]
	candidates := make(map[string]string) // productID -> 贡献的相似用户
	for _, u := range others {
		for j, rating := range m.Cells[u] {
			if rating > 0 && targetRow[j] == 0 {
				if _, seen := candidates[m.Products[j]]; !seen {
					candidates[m.Products[j]] = m.Users[u]
				}
			}
		}
		if len(candidates) >= topN {
			break
		}
	}

	positions := make([]int, 0, len(candidates))
	for id := range candidates {
		if pos, ok := r.Catalog.Position(id); ok {
			positions = append(positions, pos)
		}
	}
	sort.Ints(positions)

	out := make([]*core.Item, 0, len(positions))
	for _, pos := range positions {
		p := r.Catalog.At(pos)
		via := candidates[p.ID]
		it := core.NewItem(p.Summary())
		it.Score = p.Rating
		it.PutLabel("similar_user", utils.Label{Value: via, Source: "recall"})
		out = append(out, it)
	}
	core.SortByRating(out)
	if len(out) > topN {
		out = out[:topN]
	}
	labelSource(out, r.Name())
	return out, nil
}
