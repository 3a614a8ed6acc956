package filter

import (
	"context"

	"github.com/rushteam/wardrobe/core"
)

// BlacklistFilter 移除固定的物品 ID（例如下架商品），通常来自 pipeline 配置。
type BlacklistFilter struct {
	ids map[int64]struct{}
}

// NewBlacklistFilter 创建黑名单过滤器。
func NewBlacklistFilter(ids []int64) *BlacklistFilter {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return &BlacklistFilter{ids: m}
}

func (f *BlacklistFilter) Name() string { return "filter.blacklist" }

func (f *BlacklistFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, c *core.Candidate) (bool, error) {
	_, ok := f.ids[c.ID()]
	return ok, nil
}
