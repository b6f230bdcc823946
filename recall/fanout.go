package recall

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logger"
	"github.com/rushteam/shoprec/pkg/utils"
)

// 去重键。
const (
	DedupNone = ""
	DedupID   = "id"
	DedupName = "name"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，按 Sources 顺序拼接结果。
// 每个源写入自己的槽位，拼接顺序与完成先后无关；去重时先出现的保留。
type Fanout struct {
	Sources []Source

	// DedupKey 去重键：DedupID / DedupName / DedupNone
	DedupKey string

	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）

	// FailFast 为 true 时任一召回源出错则整体返回该错误；
	// 否则记录日志并把该源视为空结果。
	FailFast bool

	Logger *logger.Logger
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return n.Recall(ctx, rctx)
}

func (n *Fanout) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}
	log := logger.OrNop(n.Logger)

	slots := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				if n.FailFast {
					return fmt.Errorf("%s: %w", src.Name(), err)
				}
				log.Warn("recall source failed", "source", src.Name(), "error", err)
				return nil
			}
			for _, it := range items {
				it.PutLabel("recall_priority", utils.Label{Value: fmt.Sprint(i), Source: "recall"})
			}
			slots[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	all := make([]*core.Item, 0, total)
	for _, s := range slots {
		all = append(all, s...)
	}
	return Dedup(all, n.DedupKey), nil
}

// Dedup 按 key 去重，保留第一次出现的条目，并把后出现条目的 labels 合并进去。
func Dedup(items []*core.Item, key string) []*core.Item {
	if key == DedupNone {
		return items
	}
	seen := make(map[string]*core.Item, len(items))
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		k := it.ID
		if key == DedupName {
			k = it.Product.Name
		}
		if old, ok := seen[k]; ok {
			for lk, lv := range it.Labels {
				old.PutLabel(lk, lv)
			}
			continue
		}
		seen[k] = it
		out = append(out, it)
	}
	return out
}
