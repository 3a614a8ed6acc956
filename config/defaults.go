package config

import (
	"github.com/rushteam/wardrobe/pipeline"
	"github.com/rushteam/wardrobe/rerank"
)

// 内置 Pipeline 名称
const (
	PipelineRecommend = "recommend"
	PipelineCapsule   = "capsule"
)

// DefaultCapsulePoolSize 是胶囊衣橱候选池大小（相似度最高的 N 个）。
const DefaultCapsulePoolSize = 500

// CapsuleOptions 调整默认胶囊衣橱 Pipeline。
type CapsuleOptions struct {
	// PoolSize <= 0 时使用 DefaultCapsulePoolSize
	PoolSize int
	// IncludeLiked 为 true 时候选池保留喜欢过的物品
	IncludeLiked bool
	// Plan 为空时使用 rerank.DefaultPlan()
	Plan []rerank.QuotaEntry
	Seed uint64
}

func node(typ string, cfg map[string]any) pipeline.NodeConfig {
	return pipeline.NodeConfig{Type: typ, Config: cfg}
}

func filterNode(excludeLiked bool) pipeline.NodeConfig {
	var filters []any
	if excludeLiked {
		filters = append(filters, map[string]any{"type": "liked"})
	}
	filters = append(filters, map[string]any{"type": "expr"})
	return node("filter", map[string]any{"filters": filters})
}

// DefaultRecommend 返回推荐 Pipeline 的默认配置：
// 全量召回，去掉喜欢过的并应用请求过滤表达式，按探索度打分，截断后生成理由。
func DefaultRecommend() *pipeline.Config {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = PipelineRecommend
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		node("recall.embedding", nil),
		filterNode(true),
		node("rank.serendipity", nil),
		node("rerank.topn", nil),
		node("explain.recommend", nil),
	}
	return cfg
}

// DefaultCapsule 返回胶囊衣橱 Pipeline 的默认配置。
func DefaultCapsule(opts CapsuleOptions) *pipeline.Config {
	pool := opts.PoolSize
	if pool <= 0 {
		pool = DefaultCapsulePoolSize
	}
	capsule := map[string]any{
		"include_liked": opts.IncludeLiked,
		"seed":          int64(opts.Seed),
	}
	if len(opts.Plan) > 0 {
		plan := make([]any, len(opts.Plan))
		for i, q := range opts.Plan {
			plan[i] = map[string]any{"category": q.Category, "quota": q.Quota, "match": q.Match}
		}
		capsule["plan"] = plan
	}

	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = PipelineCapsule
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		node("recall.embedding", map[string]any{"top_k": pool, "exclude_liked": !opts.IncludeLiked}),
		filterNode(!opts.IncludeLiked),
		node("rerank.capsule", capsule),
		node("explain.capsule", nil),
	}
	return cfg
}
