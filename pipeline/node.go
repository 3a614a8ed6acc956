package pipeline

import (
	"context"

	"github.com/rushteam/wardrobe/core"
)

// Kind 用于标记 Node 所处阶段，便于日志与观测。
type Kind string

const (
	KindRecall  Kind = "recall"  // 召回：从目录快照生成带相似度的候选
	KindFilter  Kind = "filter"  // 过滤：剔除喜欢过的 / 不满足表达式的候选
	KindRank    Kind = "rank"    // 排序：多目标打分并排序
	KindReRank  Kind = "rerank"  // 重排：截断、胶囊衣橱配额选择
	KindExplain Kind = "explain" // 解释：生成推荐理由
)

// Node 是 Pipeline 的最小可扩展单元，统一采用“候选入 -> 候选出”的形态。
// Node 本身无状态，请求级数据通过 rctx 传入，因此一个 Node 可被并发请求共享。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		cands []*core.Candidate,
	) ([]*core.Candidate, error)
}
