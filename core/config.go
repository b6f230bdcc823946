package core

// RecallConfig 是推荐策略相关的配置接口，用于提供默认值。
type RecallConfig interface {
	// DefaultContentTopN 基于浏览历史的内容推荐默认条数
	DefaultContentTopN() int

	// DefaultCollaborativeTopN 协同过滤默认条数
	DefaultCollaborativeTopN() int

	// DefaultHybridTopN 混合推荐默认条数
	DefaultHybridTopN() int

	// DefaultSimilarLimit 文本相似度索引返回的条数
	DefaultSimilarLimit() int

	// DefaultTrendingTopN 热门商品默认条数
	DefaultTrendingTopN() int
}

// DefaultRecallConfig 是默认的推荐配置实现。
type DefaultRecallConfig struct{}

func (c *DefaultRecallConfig) DefaultContentTopN() int { return 16 }

func (c *DefaultRecallConfig) DefaultCollaborativeTopN() int { return 12 }

func (c *DefaultRecallConfig) DefaultHybridTopN() int { return 16 }

func (c *DefaultRecallConfig) DefaultSimilarLimit() int { return 16 }

func (c *DefaultRecallConfig) DefaultTrendingTopN() int { return 12 }

// ResolveTopN 在 n <= 0 时返回默认值。
func ResolveTopN(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
