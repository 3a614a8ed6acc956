package core

import "strings"

// UserProfile 是一次请求内的用户口味画像。
//
// 它只在单次计算中存在，不做持久化：
//   - Vector：喜欢物品 embedding 的均值（口味向量），无可用 embedding 时为零向量
//   - SubCategories / Colours / Usages：喜欢物品的属性计数，驱动解释文案
type UserProfile struct {
	Vector []float64

	// LikedCount 为在目录中命中的喜欢物品数（去重后）
	LikedCount int
	// EmbeddedCount 为参与均值计算的物品数
	EmbeddedCount int

	SubCategories map[string]int
	Colours       map[string]int
	Usages        map[string]int
}

// NewUserProfile 创建一个 dim 维零向量画像。
func NewUserProfile(dim int) *UserProfile {
	return &UserProfile{
		Vector:        make([]float64, dim),
		SubCategories: make(map[string]int),
		Colours:       make(map[string]int),
		Usages:        make(map[string]int),
	}
}

// IsZero 表示画像向量是否为零向量（退化但合法的状态）。
func (p *UserProfile) IsZero() bool {
	if p == nil {
		return true
	}
	for _, v := range p.Vector {
		if v != 0 {
			return false
		}
	}
	return true
}

// AddAttributes 累计一个喜欢物品的属性。
func (p *UserProfile) AddAttributes(it *Item) {
	if it == nil {
		return
	}
	addAttr(p.SubCategories, it.SubCategory)
	addAttr(p.Colours, it.BaseColour)
	addAttr(p.Usages, it.Usage)
}

// LikesSubCategory 判断用户喜欢的物品中是否出现过该子类目。
func (p *UserProfile) LikesSubCategory(v string) bool { return p != nil && hasAttr(p.SubCategories, v) }

// LikesColour 判断用户喜欢的物品中是否出现过该颜色。
func (p *UserProfile) LikesColour(v string) bool { return p != nil && hasAttr(p.Colours, v) }

// LikesUsage 判断用户喜欢的物品中是否出现过该场景。
func (p *UserProfile) LikesUsage(v string) bool { return p != nil && hasAttr(p.Usages, v) }

func addAttr(m map[string]int, v string) {
	if v == "" || m == nil {
		return
	}
	m[strings.ToLower(v)]++
}

func hasAttr(m map[string]int, v string) bool {
	if v == "" {
		return false
	}
	return m[strings.ToLower(v)] > 0
}
