package core

import "context"

// Catalog 是目录的领域接口（只读）。
//
// 设计原则：
//   - 定义在领域层（core），由 catalog 包实现
//   - 一次加载后不可变；所有推荐计算只读不写
//   - All 的顺序稳定，作为确定性排序的兜底
type Catalog interface {
	// Get 按 ID 查询物品，不存在时返回 (nil, false)
	Get(id int64) (*Item, bool)

	// All 按加载顺序返回全部物品
	All() []*Item

	// Dimension 返回 embedding 维度 D（目录内恒定）
	Dimension() int
}

// VectorIndex 是目录中“有合法 embedding 的物品”的批量相似度视图。
//
// 行号 row ∈ [0, Len()) 与 ItemAt(row) 一一对应，顺序与 Catalog.All 的相对顺序一致。
type VectorIndex interface {
	// Len 返回可参与相似度计算的物品数
	Len() int

	// ItemAt 返回第 row 行对应的物品
	ItemAt(row int) *Item

	// Similarity 批量计算 query 与每一行的余弦相似度，结果按行号排列
	Similarity(ctx context.Context, query []float64) ([]float64, error)
}

// Snapshot 是一次请求所使用的目录快照：目录本身 + 其向量视图。
type Snapshot interface {
	Catalog
	Index() VectorIndex
}
