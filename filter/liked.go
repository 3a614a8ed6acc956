package filter

import (
	"context"

	"github.com/rushteam/wardrobe/core"
)

// LikedFilter 移除用户已经喜欢过的物品。
type LikedFilter struct{}

func (f *LikedFilter) Name() string { return "filter.liked" }

func (f *LikedFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, c *core.Candidate) (bool, error) {
	return rctx.IsLiked(c.ID()), nil
}
