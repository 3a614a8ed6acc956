// Package settings 加载服务配置：默认值 -> YAML 文件 -> 环境变量，逐层覆盖后统一校验。
package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/wardrobe/pkg/logging"
	"github.com/rushteam/wardrobe/pkg/validation"
	"github.com/rushteam/wardrobe/rerank"
)

// 目录来源
const (
	SourceFile  = "file"
	SourceRedis = "redis"
)

// DefaultConfigPaths 按优先级查找配置文件，使用第一个存在的。
var DefaultConfigPaths = []string{
	"wardrobe.yaml",
	"wardrobe.yml",
	"/etc/wardrobe/config.yaml",
}

// ConfigPathEnvVar 指定配置文件路径，优先于 DefaultConfigPaths。
const ConfigPathEnvVar = "CONFIG_PATH"

type Settings struct {
	Catalog CatalogSettings `koanf:"catalog"`
	Redis   RedisSettings   `koanf:"redis"`
	Feast   FeastSettings   `koanf:"feast"`
	Engine  EngineSettings  `koanf:"engine"`
	Capsule CapsuleSettings `koanf:"capsule"`
	Logging logging.Config  `koanf:"logging"`
	Metrics MetricsSettings `koanf:"metrics"`
}

type CatalogSettings struct {
	// Source: file / redis
	Source string `koanf:"source" validate:"oneof=file redis"`
	// Path 为 JSON 数组或 JSON Lines 文件，Source=file 时必填
	Path string `koanf:"path"`
	// Watch 为 true 时文件变化后自动重载
	Watch bool `koanf:"watch"`
	// ShardRows 相似度计算每个分片的行数，0 使用默认值
	ShardRows int `koanf:"shard_rows" validate:"gte=0"`
	// Dimension embedding 维度，0 表示按目录中最常见的长度推断
	Dimension int `koanf:"dimension" validate:"gte=0"`
}

type RedisSettings struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
	Prefix   string `koanf:"prefix"`
}

// FeastSettings 配置 embedding 补全；Endpoint 为空时不启用。
type FeastSettings struct {
	Endpoint  string        `koanf:"endpoint"`
	Project   string        `koanf:"project"`
	Feature   string        `koanf:"feature"`
	EntityKey string        `koanf:"entity_key"`
	Token     string        `koanf:"token"`
	TLS       bool          `koanf:"tls"`
	Timeout   time.Duration `koanf:"timeout" validate:"gte=0"`
	BatchSize int           `koanf:"batch_size" validate:"gte=0"`
}

type EngineSettings struct {
	// Timeout 单次调用超时，0 表示不限制
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
	// 自定义 Pipeline 配置文件（YAML/JSON），为空使用内置配置
	RecommendPipeline string `koanf:"recommend_pipeline"`
	CapsulePipeline   string `koanf:"capsule_pipeline"`
}

type CapsuleSettings struct {
	PoolSize     int                 `koanf:"pool_size" validate:"gte=0"`
	IncludeLiked bool                `koanf:"include_liked"`
	Seed         uint64              `koanf:"seed"`
	Plan         []rerank.QuotaEntry `koanf:"plan" validate:"dive"`
}

type MetricsSettings struct {
	Enabled bool `koanf:"enabled"`
}

// Default 返回默认配置。
func Default() *Settings {
	return &Settings{
		Catalog: CatalogSettings{
			Source: SourceFile,
			Path:   "data/catalog.json",
		},
		Redis: RedisSettings{
			Addr:   "127.0.0.1:6379",
			Prefix: "wardrobe",
		},
		Feast: FeastSettings{
			Project:   "wardrobe",
			Feature:   "item_embedding:embedding",
			EntityKey: "item_id",
			Timeout:   5 * time.Second,
			BatchSize: 256,
		},
		Engine: EngineSettings{
			Timeout: 2 * time.Second,
		},
		Capsule: CapsuleSettings{
			PoolSize: 500,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载并校验。
// path 为空时依次查找 CONFIG_PATH 与 DefaultConfigPaths，都不存在则只用默认值和环境变量。
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return s, nil
}

// Validate 校验字段约束以及字段之间的依赖。
func (s *Settings) Validate() error {
	if err := validation.ValidateStruct(s); err != nil {
		return err
	}
	switch s.Catalog.Source {
	case SourceFile:
		if s.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required when catalog.source is %q", SourceFile)
		}
	case SourceRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when catalog.source is %q", SourceRedis)
		}
	}
	if s.Feast.Endpoint != "" && s.Feast.Feature == "" {
		return fmt.Errorf("feast.feature is required when feast.endpoint is set")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// EnvPrefix 是环境变量前缀。
const EnvPrefix = "WARDROBE_"

// envMappings 把去掉前缀并转小写后的环境变量名映射到配置路径，
// 未列出的变量被忽略。
var envMappings = map[string]string{
	"catalog_source":     "catalog.source",
	"catalog_path":       "catalog.path",
	"catalog_watch":      "catalog.watch",
	"catalog_shard_rows": "catalog.shard_rows",
	"catalog_dimension":  "catalog.dimension",

	"redis_addr":     "redis.addr",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",
	"redis_prefix":   "redis.prefix",

	"feast_endpoint":   "feast.endpoint",
	"feast_project":    "feast.project",
	"feast_feature":    "feast.feature",
	"feast_entity_key": "feast.entity_key",
	"feast_token":      "feast.token",
	"feast_tls":        "feast.tls",
	"feast_timeout":    "feast.timeout",
	"feast_batch_size": "feast.batch_size",

	"engine_timeout":            "engine.timeout",
	"engine_recommend_pipeline": "engine.recommend_pipeline",
	"engine_capsule_pipeline":   "engine.capsule_pipeline",

	"capsule_pool_size":     "capsule.pool_size",
	"capsule_include_liked": "capsule.include_liked",
	"capsule_seed":          "capsule.seed",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"metrics_enabled": "metrics.enabled",
}

// envTransformFunc: WARDROBE_REDIS_ADDR -> redis.addr
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}
