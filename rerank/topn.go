// Package rerank 提供排序后的重排节点：Top-N 截断与胶囊衣橱配额选择。
package rerank

import (
	"context"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pipeline"
)

// TopNNode 在排序后截取前 N 个候选。
//
// N <= 0 时使用 rctx.Limit；两者都 <= 0 时不截断。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 || len(cands) <= limit {
		return cands, nil
	}
	return cands[:limit], nil
}
