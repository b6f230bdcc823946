// Package engine 组合召回、过滤、重排节点，对外提供各推荐策略。
//
// 每次调用都是无状态的：目录通过 atomic.Pointer 整体替换，
// TF-IDF 模型与评分矩阵默认每次调用重新构建。
package engine

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/config"
	_ "github.com/rushteam/shoprec/config/builders"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/history"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logger"
	"github.com/rushteam/shoprec/pkg/metrics"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
)

// 策略名称，用于 ResultSet.Strategy、日志与指标。
const (
	StrategySimilar       = "similar"
	StrategyContent       = "content"
	StrategyCollaborative = "collaborative"
	StrategyHybrid        = "hybrid"
	StrategyClick         = "click"
	StrategyTrending      = "trending"
)

type Engine struct {
	catalog  atomic.Pointer[catalog.Catalog]
	history  history.Store
	closers  []io.Closer
	defaults core.RecallConfig
	cache    *recall.IndexCache
	post     []pipeline.Node
	log      *logger.Logger
	metrics  *metrics.Recorder
}

type Option func(*Engine) error

// WithIndexCache 按目录实例缓存 TF-IDF 模型；SetCatalog 会使其失效。
func WithIndexCache(enabled bool) Option {
	return func(e *Engine) error {
		if enabled {
			e.cache = &recall.IndexCache{}
		} else {
			e.cache = nil
		}
		return nil
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) error {
		e.log = logger.OrNop(l).With("component", "engine")
		return nil
	}
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) error {
		e.metrics = r
		return nil
	}
}

func WithDefaults(d core.RecallConfig) Option {
	return func(e *Engine) error {
		if d != nil {
			e.defaults = d
		}
		return nil
	}
}

// WithPostNodes 追加在每个策略最终截断之前执行的节点。
func WithPostNodes(nodes ...pipeline.Node) Option {
	return func(e *Engine) error {
		e.post = append(e.post, nodes...)
		return nil
	}
}

// WithPostFilter 追加一个 CEL 保留条件，例如 `item.rating >= 4.0`。空表达式忽略。
func WithPostFilter(expr string) Option {
	return func(e *Engine) error {
		if expr == "" {
			return nil
		}
		f, err := filter.NewExprFilter(expr)
		if err != nil {
			return err
		}
		e.post = append(e.post, &filter.FilterNode{Filters: []filter.Filter{f}, Logger: e.log})
		return nil
	}
}

// WithPipelineFile 从 YAML/JSON 文件加载附加节点（类型需已在 config 注册）。空路径忽略。
func WithPipelineFile(path string) Option {
	return func(e *Engine) error {
		if path == "" {
			return nil
		}
		nodes, err := config.LoadPostNodes(path)
		if err != nil {
			return err
		}
		e.post = append(e.post, nodes...)
		return nil
	}
}

// New 创建引擎。hist 为 nil 时使用内存浏览历史，由引擎持有并在 Close 时释放；
// 传入的 hist 由调用方负责关闭。
func New(cat *catalog.Catalog, hist history.Store, opts ...Option) (*Engine, error) {
	if cat == nil {
		cat = catalog.New(nil)
	}
	e := &Engine{
		history:  hist,
		defaults: &core.DefaultRecallConfig{},
		log:      logger.Nop(),
	}
	if hist == nil {
		mem := history.NewMemory()
		e.history = mem
		e.closers = append(e.closers, mem)
	}
	e.catalog.Store(cat)
	for _, opt := range opts {
		if err := opt(e); err != nil {
			_ = e.Close()
			return nil, err
		}
	}
	return e, nil
}

// Close 释放引擎自己创建的资源，可重复调用。
func (e *Engine) Close() error {
	var errs []error
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Catalog 返回当前目录。
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog.Load()
}

// SetCatalog 原子替换目录，已缓存的文本索引随之失效。
func (e *Engine) SetCatalog(c *catalog.Catalog) {
	if c == nil {
		c = catalog.New(nil)
	}
	e.catalog.Store(c)
	if e.cache != nil {
		e.cache.Invalidate()
	}
	e.log.Info("catalog replaced", "products", c.Len())
}

func (e *Engine) indexer() recall.Indexer {
	if e.cache == nil {
		return nil
	}
	return e.cache.Index
}

// run 执行 source -> 按名称去重 -> post 节点 -> TopN，并记录日志与指标。
// 任何策略的结果集中都不会出现同名商品。
func (e *Engine) run(
	ctx context.Context,
	rctx *core.RecommendContext,
	source pipeline.Node,
	topN int,
) (core.ResultSet, error) {
	start := time.Now()
	nodes := make([]pipeline.Node, 0, len(e.post)+3)
	nodes = append(nodes, source, &rerank.Dedup{Field: "name"})
	nodes = append(nodes, e.post...)
	nodes = append(nodes, &rerank.TopNNode{N: topN})

	items, err := (&pipeline.Pipeline{Nodes: nodes}).Run(ctx, rctx, nil)
	elapsed := time.Since(start)
	if err != nil {
		e.metrics.Observe(rctx.Strategy, outcomeOf(err), elapsed)
		e.log.Debug("recommend failed", "strategy", rctx.Strategy, "user_id", rctx.UserID, "error", err)
		return core.ResultSet{Strategy: rctx.Strategy, Items: []core.ProductSummary{}}, err
	}

	rs := core.ResultSet{Strategy: rctx.Strategy, Items: core.Summaries(items)}
	outcome := metrics.OutcomeOK
	if rs.Empty() {
		outcome = metrics.OutcomeEmpty
	}
	e.metrics.Observe(rctx.Strategy, outcome, elapsed)
	e.log.Debug("recommend",
		"strategy", rctx.Strategy,
		"user_id", rctx.UserID,
		"seed", rctx.SeedName,
		"items", rs.Len(),
		"elapsed", elapsed,
	)
	return rs, nil
}

func outcomeOf(err error) string {
	if core.IsUserNotFound(err) || core.IsProductNotFound(err) {
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}
