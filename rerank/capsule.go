package rerank

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pipeline"
	"github.com/rushteam/wardrobe/pkg/dsl"
	"github.com/rushteam/wardrobe/pkg/logging"
	"github.com/rushteam/wardrobe/pkg/metrics"
	"github.com/rushteam/wardrobe/pkg/utils"
	"github.com/rushteam/wardrobe/recall"
)

// 配额条目的匹配字段
const (
	MatchSub    = "sub"    // 按 subCategory 匹配
	MatchMaster = "master" // 按 masterCategory 匹配
)

// QuotaEntry 是配额计划中的一项：从候选池中最多选 Quota 件属于 Category 的物品。
type QuotaEntry struct {
	Category string `koanf:"category" yaml:"category" json:"category" validate:"required"`
	Quota    int    `koanf:"quota" yaml:"quota" json:"quota" validate:"gte=0"`
	Match    string `koanf:"match" yaml:"match" json:"match" validate:"omitempty,oneof=sub master"`
}

// Matches 判断物品是否属于该条目的类目（忽略大小写）。
func (q QuotaEntry) Matches(it *core.Item) bool {
	v := it.SubCategory
	if q.Match == MatchMaster {
		v = it.MasterCategory
	}
	return v != "" && strings.EqualFold(v, q.Category)
}

// DefaultPlan 是默认配额计划：上装 3、下装 2、鞋 2（按 masterCategory）、配饰 1。
func DefaultPlan() []QuotaEntry {
	return []QuotaEntry{
		{Category: "Topwear", Quota: 3, Match: MatchSub},
		{Category: "Bottomwear", Quota: 2, Match: MatchSub},
		{Category: "Footwear", Quota: 2, Match: MatchMaster},
		{Category: "Accessories", Quota: 1, Match: MatchSub},
	}
}

// CapsuleNode 在相似度候选池上按配额计划贪心选出胶囊衣橱。
//
//  1. 喜欢列表为空或预算为 0 时返回空结果
//  2. 按计划顺序，每项取 min(Quota, 剩余预算) 个相似度最高的未选中匹配物品
//  3. 剩余预算由池中相似度最高的未选中物品补齐
//  4. 目录中没有任何合法 embedding 时，从整个目录随机抽取 min(预算, 目录大小) 件
//
// 候选池（recall.embedding 的 TopK + filter）由上游节点提供。预算取自 rctx.Budget。
type CapsuleNode struct {
	Plan []QuotaEntry

	// IncludeLiked 仅影响随机兜底：为 false 时兜底也不抽取喜欢过的物品
	IncludeLiked bool

	// Seed 随机兜底的种子，0 表示按时间取种
	Seed uint64
}

func (n *CapsuleNode) Name() string        { return "rerank.capsule" }
func (n *CapsuleNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *CapsuleNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	if rctx == nil || rctx.Budget <= 0 || len(rctx.LikedIDs) == 0 {
		return nil, nil
	}
	if rctx.Snapshot == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "capsule: no catalog snapshot in context")
	}
	budget := rctx.Budget

	if rctx.Snapshot.Index().Len() == 0 {
		return n.fallback(ctx, rctx, budget), nil
	}

	pool := slices.Clone(cands)
	slices.SortStableFunc(pool, recall.BySimilarity)

	plan := n.Plan
	if plan == nil {
		plan = DefaultPlan()
	}

	selected := make([]*core.Candidate, 0, budget)
	taken := make(map[int64]struct{}, budget)
	take := func(c *core.Candidate, slot string) {
		c.Score = c.Similarity
		c.PutLabel("capsule_slot", utils.Label{Value: slot, Source: "rerank"})
		selected = append(selected, c)
		taken[c.ID()] = struct{}{}
	}

	for _, q := range plan {
		want := min(q.Quota, budget-len(selected))
		for _, c := range pool {
			if want <= 0 {
				break
			}
			if _, ok := taken[c.ID()]; ok || !q.Matches(c.Item) {
				continue
			}
			take(c, q.Category)
			want--
		}
		if len(selected) >= budget {
			break
		}
	}

	for _, c := range pool {
		if len(selected) >= budget {
			break
		}
		if _, ok := taken[c.ID()]; ok {
			continue
		}
		take(c, "fill")
	}
	return selected, nil
}

// fallback 在目录没有任何合法 embedding 时随机抽样，请求级过滤表达式同样生效。
func (n *CapsuleNode) fallback(ctx context.Context, rctx *core.RecommendContext, budget int) []*core.Candidate {
	all := rctx.Snapshot.All()
	eligible := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if !n.IncludeLiked && rctx.IsLiked(it.ID) {
			continue
		}
		if rctx.Filter != "" {
			ok, err := dsl.Eval(rctx.Filter, core.NewCandidate(it))
			if err != nil || !ok {
				continue
			}
		}
		eligible = append(eligible, it)
	}

	seed := n.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	k := min(budget, len(eligible))
	perm := r.Perm(len(eligible))

	out := make([]*core.Candidate, 0, k)
	for _, i := range perm[:k] {
		c := core.NewCandidate(eligible[i])
		c.PutLabel("capsule_slot", utils.Label{Value: "fallback", Source: "rerank"})
		out = append(out, c)
	}

	metrics.CapsuleFallback.Inc()
	rctx.PutLabel("capsule_fallback", utils.Label{Value: "true", Source: "rerank"})
	logging.Ctx(ctx).Warn().Int("budget", budget).Int("sampled", len(out)).
		Msg("capsule: no valid embeddings in catalog, using random sample")
	return out
}

// CapsuleStats 是胶囊衣橱的统计。
type CapsuleStats struct {
	// OutfitsPossible = 上装数 × 下装数 × 鞋数（masterCategory），不设下限
	OutfitsPossible   int `json:"outfits_possible"`
	CategoriesCovered int `json:"categories_covered"`
	ColorDiversity    int `json:"color_diversity"`
}

// ComputeStats 统计一组物品的可搭配套数、覆盖子类目数、颜色数（忽略缺省值）。
func ComputeStats(items []*core.Item) CapsuleStats {
	var tops, bottoms, shoes int
	cats := make(map[string]struct{})
	colours := make(map[string]struct{})
	for _, it := range items {
		switch {
		case strings.EqualFold(it.SubCategory, "Topwear"):
			tops++
		case strings.EqualFold(it.SubCategory, "Bottomwear"):
			bottoms++
		}
		if strings.EqualFold(it.MasterCategory, "Footwear") {
			shoes++
		}
		if it.SubCategory != "" {
			cats[strings.ToLower(it.SubCategory)] = struct{}{}
		}
		if it.BaseColour != "" {
			colours[strings.ToLower(it.BaseColour)] = struct{}{}
		}
	}
	return CapsuleStats{
		OutfitsPossible:   tops * bottoms * shoes,
		CategoriesCovered: len(cats),
		ColorDiversity:    len(colours),
	}
}
