package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/rushteam/wardrobe/catalog"
	"github.com/rushteam/wardrobe/config"
	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/engine"
	"github.com/rushteam/wardrobe/feast"
	"github.com/rushteam/wardrobe/pipeline"
	"github.com/rushteam/wardrobe/pkg/logging"
	"github.com/rushteam/wardrobe/settings"
	"github.com/rushteam/wardrobe/store"
)

// commonFlags 是所有子命令共享的参数。
type commonFlags struct {
	config  string
	catalog string
	metrics bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "settings file (YAML); defaults to $CONFIG_PATH or ./wardrobe.yaml")
	fs.StringVar(&c.catalog, "catalog", "", "catalog file, overrides catalog.path and forces catalog.source=file")
	fs.BoolVar(&c.metrics, "metrics", false, "print Prometheus metrics to stderr on exit")
}

type app struct {
	settings *settings.Settings
	holder   *catalog.Holder
	engine   *engine.Engine
	metrics  bool
}

// newApp 加载配置、初始化日志、加载目录并构建 Engine。
func newApp(ctx context.Context, cf commonFlags) (*app, error) {
	s, err := settings.Load(cf.config)
	if err != nil {
		return nil, err
	}
	if cf.catalog != "" {
		s.Catalog.Source = settings.SourceFile
		s.Catalog.Path = cf.catalog
	}
	logging.Init(s.Logging)

	holder := catalog.NewHolder(nil)
	if err := holder.Reload(ctx, catalogLoader(s)); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	c := holder.Load()
	logging.Info().Str("source", s.Catalog.Source).Int("items", c.Len()).
		Int("embedded", c.EmbeddedCount()).Int("dimension", c.Dimension()).Msg("catalog loaded")

	opts := []engine.Option{
		engine.WithTimeout(s.Engine.Timeout),
		engine.WithCapsuleOptions(config.CapsuleOptions{
			PoolSize:     s.Capsule.PoolSize,
			IncludeLiked: s.Capsule.IncludeLiked,
			Plan:         s.Capsule.Plan,
			Seed:         s.Capsule.Seed,
		}),
	}
	if p := s.Engine.RecommendPipeline; p != "" {
		cfg, err := pipeline.Load(p)
		if err != nil {
			return nil, fmt.Errorf("load recommend pipeline %s: %w", p, err)
		}
		opts = append(opts, engine.WithRecommendPipeline(cfg))
	}
	if p := s.Engine.CapsulePipeline; p != "" {
		cfg, err := pipeline.Load(p)
		if err != nil {
			return nil, fmt.Errorf("load capsule pipeline %s: %w", p, err)
		}
		opts = append(opts, engine.WithCapsulePipeline(cfg))
	}
	eng, err := engine.New(holder, opts...)
	if err != nil {
		return nil, err
	}
	return &app{
		settings: s,
		holder:   holder,
		engine:   eng,
		metrics:  cf.metrics || s.Metrics.Enabled,
	}, nil
}

// catalogLoader 按配置返回目录加载函数：读文件或 redis，再按需用 Feast 补全 embedding。
func catalogLoader(s *settings.Settings) catalog.ReloadFunc {
	return func(ctx context.Context) (*catalog.Catalog, error) {
		items, err := readItems(ctx, s)
		if err != nil {
			return nil, err
		}
		if s.Feast.Endpoint != "" {
			if err := enrich(ctx, s.Feast, items); err != nil {
				return nil, err
			}
		}
		return catalog.New(items, catalogOptions(s.Catalog)...)
	}
}

func catalogOptions(c settings.CatalogSettings) []catalog.Option {
	var opts []catalog.Option
	if c.Dimension > 0 {
		opts = append(opts, catalog.WithDimension(c.Dimension))
	}
	if c.ShardRows > 0 {
		opts = append(opts, catalog.WithShardRows(c.ShardRows))
	}
	return opts
}

func readItems(ctx context.Context, s *settings.Settings) ([]*core.Item, error) {
	switch s.Catalog.Source {
	case settings.SourceRedis:
		rs, err := openRedis(ctx, s.Redis)
		if err != nil {
			return nil, err
		}
		defer rs.Close()
		return catalog.ReadStore(ctx, rs, s.Redis.Prefix)
	default:
		return catalog.ReadFile(s.Catalog.Path)
	}
}

func openRedis(ctx context.Context, r settings.RedisSettings) (*store.RedisStore, error) {
	return store.NewRedisStore(ctx, store.RedisOptions{Addr: r.Addr, Password: r.Password, DB: r.DB})
}

func enrich(ctx context.Context, f settings.FeastSettings, items []*core.Item) error {
	var opts []feast.ClientOption
	if f.Timeout > 0 {
		opts = append(opts, feast.WithTimeout(f.Timeout))
	}
	if f.Token != "" {
		opts = append(opts, feast.WithToken(f.Token, f.TLS))
	}
	client, err := feast.NewGrpcClient(f.Endpoint, f.Project, opts...)
	if err != nil {
		return err
	}
	resilient := feast.NewResilientClient(client, feast.DefaultResilientConfig())
	defer resilient.Close()

	e := &catalog.FeastEnricher{
		Client:    resilient,
		Feature:   f.Feature,
		EntityKey: f.EntityKey,
		BatchSize: f.BatchSize,
	}
	n, err := e.Enrich(ctx, items)
	if err != nil {
		return fmt.Errorf("feast enrich: %w", err)
	}
	logging.Info().Int("filled", n).Str("feature", f.Feature).Msg("embeddings filled from feast")
	return nil
}

func (a *app) close() {
	if a.metrics {
		if err := dumpMetrics(os.Stderr); err != nil {
			logging.Warn().Err(err).Msg("dump metrics")
		}
	}
}

// dumpMetrics 以文本格式输出默认注册表中的全部指标。
func dumpMetrics(w io.Writer) error {
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseIDs 解析逗号分隔的 ID 列表，例如 "15970,39386"。
func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
