// Package config 维护可由配置文件驱动的附加节点注册表。
//
// 附加节点插在每个推荐策略的召回之后、最终截断之前，只允许过滤与重排阶段；
// 召回源依赖运行时目录与浏览历史，由 engine 组装。
// 内置节点在 config/builders 的 init 中注册，engine 已隐式导入。
package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/shoprec/pipeline"
)

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 构建 Node。
type NodeBuilder = pipeline.NodeBuilder

var (
	mu       sync.RWMutex
	builders = make(map[string]NodeBuilder)
)

// Register 注册一种节点类型；同名重复注册以最后一次为准。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	mu.Lock()
	builders[typeName] = builder
	mu.Unlock()
}

func lookup(typeName string) (NodeBuilder, bool) {
	mu.RLock()
	b, ok := builders[typeName]
	mu.RUnlock()
	return b, ok
}

// SupportedTypes 返回已注册的节点类型（排序）。
func SupportedTypes() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(builders))
	for t := range builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回包含全部已注册类型的 NodeFactory。
func DefaultFactory() *pipeline.NodeFactory {
	mu.RLock()
	defer mu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, b := range builders {
		f.Register(typeName, b)
	}
	return f
}

// ValidatePipelineConfig 检查每个节点都声明了类型且类型已注册。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			return fmt.Errorf("node %d: type is required", i)
		}
		if _, ok := lookup(nc.Type); !ok {
			return fmt.Errorf("node %d: unsupported type %q (supported: %v)", i, nc.Type, SupportedTypes())
		}
	}
	return nil
}

// BuildPostNodes 校验并构建附加节点，拒绝召回阶段的节点。
func BuildPostNodes(cfg *pipeline.Config) ([]pipeline.Node, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}
	nodes, err := cfg.BuildNodes(DefaultFactory())
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Kind() == pipeline.KindRecall {
			return nil, fmt.Errorf("node %s: recall nodes cannot be used as post nodes", n.Name())
		}
	}
	return nodes, nil
}

// LoadPostNodes 从 YAML/JSON 文件加载附加节点。
func LoadPostNodes(path string) ([]pipeline.Node, error) {
	cfg, err := pipeline.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", path, err)
	}
	return BuildPostNodes(cfg)
}
