// Package settings 加载进程配置：内置默认值 -> YAML 文件 -> SHOPREC_ 环境变量，
// 之后用 validator 校验。
//
// 环境变量按第一个下划线切分为 段.键：
//
//	SHOPREC_MODE                 -> mode
//	SHOPREC_SERVER_ADDR          -> server.addr
//	SHOPREC_HISTORY_REDIS_ADDR   -> history.redis_addr
//	SHOPREC_ENGINE_POST_FILTER   -> engine.post_filter
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix        = "SHOPREC_"
	ConfigPathEnvVar = "SHOPREC_CONFIG"
)

type Settings struct {
	Mode    string          `koanf:"mode" validate:"oneof=dev prod production"`
	Server  ServerSettings  `koanf:"server"`
	Catalog CatalogSettings `koanf:"catalog"`
	History HistorySettings `koanf:"history"`
	Engine  EngineSettings  `koanf:"engine"`
}

type ServerSettings struct {
	Addr            string        `koanf:"addr" validate:"required,hostname_port"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`

	// CORSOrigins 为空时不启用 CORS；环境变量用逗号分隔
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests <= 0 关闭按 IP 限流
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"required_with=RateLimitRequests"`
}

type CatalogSettings struct {
	// Path 是商品 CSV（必须含 ProductID 列）
	Path string `koanf:"path" validate:"required"`
	// TrendingPath 是热门商品 CSV，可选
	TrendingPath string `koanf:"trending_path"`
}

// 浏览历史后端。
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type HistorySettings struct {
	Backend       string        `koanf:"backend" validate:"oneof=memory redis sqlite postgres"`
	DSN           string        `koanf:"dsn"`
	RedisAddr     string        `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db" validate:"min=0"`
	MaxEntries    int64         `koanf:"max_entries" validate:"min=0"`
	TTL           time.Duration `koanf:"ttl" validate:"min=0"`
}

// EngineSettings 同时实现 core.RecallConfig，提供各策略默认条数。
type EngineSettings struct {
	IndexCache        bool   `koanf:"index_cache"`
	PostFilter        string `koanf:"post_filter"`
	PipelineFile      string `koanf:"pipeline_file"`
	ContentTopN       int    `koanf:"content_top_n" validate:"min=1"`
	CollaborativeTopN int    `koanf:"collaborative_top_n" validate:"min=1"`
	HybridTopN        int    `koanf:"hybrid_top_n" validate:"min=1"`
	SimilarLimit      int    `koanf:"similar_limit" validate:"min=1"`
	TrendingTopN      int    `koanf:"trending_top_n" validate:"min=1"`
}

func (e EngineSettings) DefaultContentTopN() int       { return e.ContentTopN }
func (e EngineSettings) DefaultCollaborativeTopN() int { return e.CollaborativeTopN }
func (e EngineSettings) DefaultHybridTopN() int        { return e.HybridTopN }
func (e EngineSettings) DefaultSimilarLimit() int      { return e.SimilarLimit }
func (e EngineSettings) DefaultTrendingTopN() int      { return e.TrendingTopN }

// Defaults 返回内置默认配置。
func Defaults() *Settings {
	return &Settings{
		Mode: "dev",
		Server: ServerSettings{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitWindow: time.Minute,
		},
		Catalog: CatalogSettings{
			Path:         "models/clean_data.csv",
			TrendingPath: "models/trending_products.csv",
		},
		History: HistorySettings{
			Backend:    BackendSQLite,
			DSN:        "shoprec.db",
			MaxEntries: 0,
		},
		Engine: EngineSettings{
			ContentTopN:       16,
			CollaborativeTopN: 12,
			HybridTopN:        16,
			SimilarLimit:      16,
			TrendingTopN:      12,
		},
	}
}

// Load 按优先级 环境变量 > 配置文件 > 默认值 加载配置。
// path 为空时读取 SHOPREC_CONFIG；都为空则跳过文件层。
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return s, nil
}

// sliceConfigPaths 中的字段来自环境变量时是逗号分隔的字符串。
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc: SHOPREC_ENGINE_POST_FILTER -> engine.post_filter
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate 校验结构体约束以及跨字段规则。
func (s *Settings) Validate() error {
	if err := getValidator().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	switch s.History.Backend {
	case BackendSQLite, BackendPostgres:
		if s.History.DSN == "" {
			return fmt.Errorf("history.dsn is required for backend %s", s.History.Backend)
		}
	}
	return nil
}
