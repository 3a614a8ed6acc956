// Package recall 提供召回节点：从目录快照生成带相似度的候选。
package recall

import (
	"cmp"
	"context"
	"slices"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pipeline"
	"github.com/rushteam/wardrobe/pkg/utils"
)

// EmbeddingRecall 用口味向量与目录中每个合法 embedding 做批量余弦相似度召回。
//
// TopK <= 0 时返回全部候选（按目录顺序）；TopK > 0 时返回相似度最高的 TopK 个，
// 相似度相同按 ID 升序。Novelty 同时设为 1 − Similarity。
// ExcludeLiked 为 true 时在截断前去掉喜欢过的物品。
type EmbeddingRecall struct {
	TopK         int
	ExcludeLiked bool
}

func (r *EmbeddingRecall) Name() string        { return "recall.embedding" }
func (r *EmbeddingRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *EmbeddingRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	if rctx == nil || rctx.Snapshot == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "recall: no catalog snapshot in context")
	}
	idx := rctx.Snapshot.Index()
	if idx.Len() == 0 {
		return nil, nil
	}

	query := make([]float64, rctx.Snapshot.Dimension())
	if rctx.User != nil && len(rctx.User.Vector) == len(query) {
		query = rctx.User.Vector
	}
	sims, err := idx.Similarity(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0, idx.Len())
	for row := range idx.Len() {
		it := idx.ItemAt(row)
		if r.ExcludeLiked && rctx.IsLiked(it.ID) {
			continue
		}
		c := core.NewCandidate(it)
		c.Similarity = sims[row]
		c.Novelty = 1 - sims[row]
		c.PutLabel("recall_source", utils.Label{Value: "embedding", Source: "recall"})
		out = append(out, c)
	}

	if r.TopK > 0 && r.TopK < len(out) {
		slices.SortStableFunc(out, BySimilarity)
		out = out[:r.TopK]
	}
	return out, nil
}

// BySimilarity 按相似度降序、ID 升序比较两个候选。
func BySimilarity(a, b *core.Candidate) int {
	if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
		return c
	}
	return cmp.Compare(a.ID(), b.ID())
}
