// Package builders 在 init 中向 config 注册表注册全部内置 Node。
package builders

import (
	"fmt"

	"github.com/rushteam/wardrobe/config"
	"github.com/rushteam/wardrobe/explain"
	"github.com/rushteam/wardrobe/filter"
	"github.com/rushteam/wardrobe/pipeline"
	"github.com/rushteam/wardrobe/pkg/conv"
	"github.com/rushteam/wardrobe/pkg/dsl"
	"github.com/rushteam/wardrobe/pkg/validation"
	"github.com/rushteam/wardrobe/rank"
	"github.com/rushteam/wardrobe/recall"
	"github.com/rushteam/wardrobe/rerank"
)

func init() {
	config.Register("recall.embedding", BuildEmbeddingRecallNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rank.serendipity", BuildSerendipityNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.capsule", BuildCapsuleNode)
	config.Register("explain.recommend", BuildExplainNode(explain.ModeRecommend))
	config.Register("explain.capsule", BuildExplainNode(explain.ModeCapsule))
}

func BuildEmbeddingRecallNode(cfg map[string]any) (pipeline.Node, error) {
	topK := conv.ConfigGetInt(cfg, "top_k", 0)
	if topK < 0 {
		return nil, fmt.Errorf("top_k must be >= 0, got %d", topK)
	}
	return &recall.EmbeddingRecall{
		TopK:         topK,
		ExcludeLiked: conv.ConfigGet(cfg, "exclude_liked", false),
	}, nil
}

// BuildFilterNode 解析 filters 列表：
//
//	filters:
//	  - type: liked
//	  - type: expr              # expr 为空时使用请求级过滤表达式
//	    expr: item.season == "Summer"
//	  - type: blacklist
//	    item_ids: [12, 34]
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "liked":
			filters = append(filters, &filter.LikedFilter{})
		case "expr":
			expr := conv.ConfigGet(filterMap, "expr", "")
			if expr != "" {
				if _, err := dsl.Compile(expr); err != nil {
					return nil, err
				}
			}
			filters = append(filters, &filter.ExprFilter{Expr: expr})
		case "blacklist":
			filters = append(filters, filter.NewBlacklistFilter(conv.SliceAnyToInt64(filterMap["item_ids"])))
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildSerendipityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rank.SerendipityNode{Limit: conv.ConfigGetInt(cfg, "limit", 0)}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

// BuildCapsuleNode 解析配额计划，未配置 plan 时使用默认计划。
//
//	plan:
//	  - {category: Topwear, quota: 3}
//	  - {category: Footwear, quota: 2, match: master}
//	include_liked: false
//	seed: 42
func BuildCapsuleNode(cfg map[string]any) (pipeline.Node, error) {
	node := &rerank.CapsuleNode{
		IncludeLiked: conv.ConfigGet(cfg, "include_liked", false),
		Seed:         uint64(conv.ConfigGetInt64(cfg, "seed", 0)),
	}
	raw, ok := cfg["plan"].([]any)
	if !ok {
		node.Plan = rerank.DefaultPlan()
		return node, nil
	}
	plan := make([]rerank.QuotaEntry, 0, len(raw))
	for i, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("plan[%d]: expected map, got %T", i, e)
		}
		q := rerank.QuotaEntry{
			Category: conv.ConfigGet(m, "category", ""),
			Quota:    conv.ConfigGetInt(m, "quota", 0),
			Match:    conv.ConfigGet(m, "match", rerank.MatchSub),
		}
		if err := validation.ValidateStruct(&q); err != nil {
			return nil, fmt.Errorf("plan[%d]: %w", i, err)
		}
		plan = append(plan, q)
	}
	node.Plan = plan
	return node, nil
}

func BuildExplainNode(mode explain.Mode) config.NodeBuilder {
	return func(map[string]any) (pipeline.Node, error) {
		return &explain.Node{Mode: mode}, nil
	}
}
