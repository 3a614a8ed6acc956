// Package profile 根据用户喜欢的物品构建口味画像与风格洞察。
package profile

import (
	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/vector"
)

// Build 计算喜欢物品 embedding 的逐元素均值。
//
// 重复 ID 只计一次；目录中不存在的 ID 以及没有合法 embedding 的物品被跳过。
// 没有可用 embedding 时返回 Dimension() 维零向量，这是合法状态。
// 属性计数覆盖所有在目录中命中的喜欢物品（包括没有 embedding 的）。
func Build(liked []int64, cat core.Catalog) *core.UserProfile {
	p := core.NewUserProfile(cat.Dimension())
	seen := make(map[int64]struct{}, len(liked))
	var vectors [][]float64
	for _, id := range liked {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		it, ok := cat.Get(id)
		if !ok {
			continue
		}
		p.LikedCount++
		p.AddAttributes(it)
		if it.HasEmbedding() && len(it.Embedding) == cat.Dimension() {
			vectors = append(vectors, it.Embedding)
		}
	}
	p.EmbeddedCount = len(vectors)
	p.Vector = vector.Mean(cat.Dimension(), vectors)
	return p
}

// LikedItems 返回在目录中命中的喜欢物品（去重，保持传入顺序）。
func LikedItems(liked []int64, cat core.Catalog) []*core.Item {
	seen := make(map[int64]struct{}, len(liked))
	out := make([]*core.Item, 0, len(liked))
	for _, id := range liked {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if it, ok := cat.Get(id); ok {
			out = append(out, it)
		}
	}
	return out
}
