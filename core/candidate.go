package core

import "github.com/rushteam/wardrobe/pkg/utils"

// Candidate 是推荐链路中的统一承载结构：目录物品 + 各阶段分数 + 标签 + 解释。
// Labels 用于解释与观测；Score 用于排序决策。
type Candidate struct {
	Item *Item

	Similarity float64
	Novelty    float64
	Diversity  float64
	Score      float64

	Explanation string

	Labels map[string]utils.Label
}

func NewCandidate(item *Item) *Candidate {
	return &Candidate{
		Item:   item,
		Labels: make(map[string]utils.Label),
	}
}

// ID 返回物品 ID，Item 为空时返回 0。
func (c *Candidate) ID() int64 {
	if c == nil || c.Item == nil {
		return 0
	}
	return c.Item.ID
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}
