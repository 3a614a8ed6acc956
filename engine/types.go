package engine

import (
	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/rerank"
)

// RecommendRequest 是推荐请求。
type RecommendRequest struct {
	LikedIDs []int64 `json:"liked_ids"`
	// Serendipity ∈ [0,1]：0 偏安全，1 偏探索
	Serendipity float64 `json:"serendipity" validate:"gte=0,lte=1"`
	Limit       int     `json:"limit" validate:"gt=0"`
	// Filter 是可选的 CEL 属性过滤表达式，例如 item.gender == "Women"
	Filter string `json:"filter,omitempty"`
}

// CapsuleRequest 是胶囊衣橱请求。
type CapsuleRequest struct {
	LikedIDs []int64 `json:"liked_ids"`
	Budget   int     `json:"budget" validate:"gte=0"`
	Filter   string  `json:"filter,omitempty"`
}

// Recommendation 是一条推荐结果。
type Recommendation struct {
	Item        *core.Item `json:"item"`
	Similarity  float64    `json:"similarity"`
	Novelty     float64    `json:"novelty"`
	Diversity   float64    `json:"diversity"`
	Score       float64    `json:"score"`
	Explanation string     `json:"explanation"`
}

// RecommendResult 是按分数降序排列的推荐列表。
type RecommendResult struct {
	Items []Recommendation `json:"recommendations"`
	// TotalAvailable 为参与打分的候选数
	TotalAvailable int     `json:"total_available"`
	Serendipity    float64 `json:"serendipity_level"`
}

// CapsuleItem 是胶囊衣橱中的一件物品。
type CapsuleItem struct {
	Item        *core.Item `json:"item"`
	Similarity  float64    `json:"similarity"`
	Slot        string     `json:"slot"`
	Explanation string     `json:"explanation"`
}

// Capsule 是胶囊衣橱结果。
type Capsule struct {
	ItemIDs []int64             `json:"capsule_ids"`
	Items   []CapsuleItem       `json:"items"`
	Stats   rerank.CapsuleStats `json:"stats"`
	// Fallback 表示目录没有合法 embedding，结果为随机抽样
	Fallback bool `json:"fallback,omitempty"`
}
