// Package shoprec 是一个电商商品推荐引擎。
//
// 设计要点：
// - Pipeline-first: 每个推荐策略都是 Node 串联（Recall → Filter → ReRank）
// - Labels-first: labels 全链路透传，说明每个商品从哪个召回源、哪个种子来
// - 目录只读: 商品目录与 TF-IDF 索引构建后不再修改，替换目录即整体替换
package shoprec

import (
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/pipeline"
)

// 轻量 facade：便于直接 import "shoprec" 使用核心抽象。
type (
	Engine         = engine.Engine
	Pipeline       = pipeline.Pipeline
	Node           = pipeline.Node
	Kind           = pipeline.Kind
	ProductSummary = core.ProductSummary
	ResultSet      = core.ResultSet
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)

// New 是 engine.New 的别名。
var New = engine.New
