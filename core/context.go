package core

import "github.com/rushteam/wardrobe/pkg/utils"

// RecommendContext 承载用户/请求参数/目录快照，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	RequestID string

	// LikedIDs 是调用方传入的喜欢物品 ID（可能重复、可能不在目录中）
	LikedIDs []int64

	// User 是本次请求构建的口味画像
	User *UserProfile

	// Snapshot 是本次请求使用的目录快照，请求期间不会变化
	Snapshot Snapshot

	// Serendipity ∈ [0,1]：0 偏安全（相似度），1 偏探索（新颖度 + 多样性）
	Serendipity float64
	// Limit 推荐条数上限；Budget 胶囊衣橱件数上限
	Limit  int
	Budget int

	// Filter 是请求级属性过滤表达式（CEL），为空表示不过滤
	Filter string

	// Labels 是请求级标签，节点可写入统计信息（例如 total_available）
	Labels map[string]utils.Label

	// Params 请求级扩展参数
	Params map[string]any

	liked map[int64]struct{}
}

// IsLiked 判断物品是否在喜欢列表中。
func (rctx *RecommendContext) IsLiked(id int64) bool {
	if rctx == nil {
		return false
	}
	if rctx.liked == nil {
		rctx.liked = make(map[int64]struct{}, len(rctx.LikedIDs))
		for _, v := range rctx.LikedIDs {
			rctx.liked[v] = struct{}{}
		}
	}
	_, ok := rctx.liked[id]
	return ok
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
