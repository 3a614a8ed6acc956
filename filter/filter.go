// Package filter 提供候选过滤：FilterNode 组合多个 Filter，任一命中即剔除候选。
package filter

import (
	"context"

	"github.com/rushteam/wardrobe/core"
)

// Filter 判断一个候选是否应该被过滤掉。返回 true 表示移除。
type Filter interface {
	Name() string

	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, c *core.Candidate) (bool, error)
}
