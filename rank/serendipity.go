// Package rank 提供多目标排序节点。
package rank

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pipeline"
	"github.com/rushteam/wardrobe/pkg/utils"
)

// DefaultLimit 是未指定条数时返回的推荐数。
const DefaultLimit = 10

// Weights 根据探索度 s ∈ [0,1] 返回相似度、新颖度、多样性三项权重，三者之和恒为 1。
//
//	sim = 1 − s, nov = 0.7·s, div = 1 − (sim + nov)
//
// sim + nov ∈ [0.7, 1]，1 − (sim + nov) 无舍入误差，sim + nov + div 精确等于 1。
func Weights(s float64) (sim, nov, div float64) {
	sim = 1 - s
	nov = 0.7 * s
	div = 1 - (sim + nov)
	return sim, nov, div
}

// SerendipityNode 按探索度融合相似度、新颖度、多样性打分，并贪心构造前 K 个结果。
//
// 多样性依赖已入选集合，因此采用在线贪心：每轮对所有剩余候选按当前已入选集合计算
// 多样性与总分，取总分最高者（同分取 ID 较小者）入选，直到凑满 K 个或候选耗尽。
// 复杂度 O(K·N)。最终按入选时的分数降序、ID 升序稳定排序。
//
// 探索度与 K 取自 rctx.Serendipity / rctx.Limit；Limit 字段非 0 时覆盖 rctx.Limit。
type SerendipityNode struct {
	Limit int
}

func (n *SerendipityNode) Name() string        { return "rank.serendipity" }
func (n *SerendipityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SerendipityNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	var s float64
	k := n.Limit
	if rctx != nil {
		s = rctx.Serendipity
		if k <= 0 {
			k = rctx.Limit
		}
		rctx.PutLabel("total_available", utils.Label{Value: strconv.Itoa(len(cands)), Source: "rank"})
	}
	if k <= 0 {
		k = DefaultLimit
	}
	if len(cands) == 0 {
		return cands, nil
	}
	k = min(k, len(cands))
	simW, novW, divW := Weights(s)

	remaining := slices.Clone(cands)
	tracker := NewDiversityTracker()
	out := make([]*core.Candidate, 0, k)
	for len(out) < k && len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		best := -1
		var bestScore, bestDiv float64
		for i, c := range remaining {
			div := tracker.Score(c.Item)
			score := simW*c.Similarity + novW*c.Novelty + divW*div
			if best < 0 || score > bestScore || (score == bestScore && c.ID() < remaining[best].ID()) {
				best, bestScore, bestDiv = i, score, div
			}
		}
		c := remaining[best]
		c.Diversity = bestDiv
		c.Score = bestScore
		c.PutLabel("rank_model", utils.Label{Value: "serendipity", Source: "rank"})
		tracker.Add(c.Item)
		out = append(out, c)

		remaining[best] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}

	slices.SortStableFunc(out, ByScore)
	return out, nil
}

// ByScore 按分数降序、ID 升序比较两个候选。
func ByScore(a, b *core.Candidate) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.ID(), b.ID())
}
