package profile

import (
	"sort"
	"strings"

	"github.com/rushteam/wardrobe/core"
)

// 风格人格
const (
	PersonalityAdventurousCasual      = "Adventurous Casual"
	PersonalityClassicCasual          = "Classic Casual"
	PersonalityProfessionalMinimalist = "Professional Minimalist"
	PersonalityVersatileExplorer      = "Versatile Explorer"
	PersonalityBalancedStylist        = "Balanced Stylist"
)

// AttrCount 属性值及其出现次数。
type AttrCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Insights 是一组反馈（喜欢 / 不喜欢）的风格摘要。
type Insights struct {
	LikedCount    int `json:"liked_count"`
	DislikedCount int `json:"disliked_count"`

	TopCategories []AttrCount `json:"top_categories,omitempty"`
	TopColours    []AttrCount `json:"favorite_colors,omitempty"`
	TopUsages     []AttrCount `json:"style_usage,omitempty"`

	Personality string `json:"style_personality,omitempty"`
}

// Empty 表示没有可分析的喜欢物品。
func (in *Insights) Empty() bool { return in.Personality == "" }

// BuildInsights 汇总喜欢物品的类目、颜色、场景偏好并判定风格人格。
// liked 为空或全部不在目录中时只返回计数。
func BuildInsights(liked, disliked []int64, cat core.Catalog) *Insights {
	in := &Insights{LikedCount: len(liked), DislikedCount: len(disliked)}
	items := LikedItems(liked, cat)
	if len(items) == 0 {
		return in
	}
	in.TopCategories = topN(items, func(it *core.Item) string { return it.SubCategory }, 3)
	in.TopColours = topN(items, func(it *core.Item) string { return it.BaseColour }, 3)
	in.TopUsages = topN(items, func(it *core.Item) string { return it.Usage }, 2)
	in.Personality = Personality(items)
	return in
}

// Personality 按场景与多样性判定风格人格：
//   - Casual 多于 Formal 两倍：颜色种类 > 0.6n 为 Adventurous Casual，否则 Classic Casual
//   - Formal 多于 Casual：Professional Minimalist
//   - 其他：子类目种类 > 0.5n 为 Versatile Explorer，否则 Balanced Stylist
func Personality(items []*core.Item) string {
	var casual, formal int
	colours := make(map[string]struct{})
	cats := make(map[string]struct{})
	for _, it := range items {
		switch {
		case strings.EqualFold(it.Usage, "Casual"):
			casual++
		case strings.EqualFold(it.Usage, "Formal"):
			formal++
		}
		if it.BaseColour != "" {
			colours[strings.ToLower(it.BaseColour)] = struct{}{}
		}
		if it.SubCategory != "" {
			cats[strings.ToLower(it.SubCategory)] = struct{}{}
		}
	}
	n := float64(len(items))
	switch {
	case casual > 2*formal:
		if float64(len(colours)) > 0.6*n {
			return PersonalityAdventurousCasual
		}
		return PersonalityClassicCasual
	case formal > casual:
		return PersonalityProfessionalMinimalist
	case float64(len(cats)) > 0.5*n:
		return PersonalityVersatileExplorer
	default:
		return PersonalityBalancedStylist
	}
}

// topN 统计非空属性值，按次数降序、值升序取前 n 个。
func topN(items []*core.Item, attr func(*core.Item) string, n int) []AttrCount {
	counts := make(map[string]int)
	for _, it := range items {
		if v := attr(it); v != "" {
			counts[v]++
		}
	}
	out := make([]AttrCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, AttrCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
