// Package explain 为推荐结果与胶囊衣橱生成确定性的推荐理由。
//
// 理由只引用与喜欢列表共享的属性；不共享任何属性时，推荐结果按探索度区间给出说明，
// 胶囊物品按 ID 的哈希从固定模板中挑选。同样的输入总是得到同样的文案。
package explain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/rushteam/wardrobe/core"
)

// 探索度区间边界
const (
	SafeBelow        = 0.3
	AdventurousAbove = 0.7
)

// FallbackText 在没有任何可用属性时使用。
const FallbackText = "Adds variety to your wardrobe."

// Rule 标识生成文案所用的规则，写入候选的 explain label。
type Rule string

const (
	RuleShared      Rule = "shared"
	RuleSafe        Rule = "band.safe"
	RuleAdventurous Rule = "band.adventurous"
	RuleBalanced    Rule = "band.balanced"
	RuleTemplate    Rule = "template"
	RuleFallback    Rule = "fallback"
)

type template struct {
	attr   string
	format string
}

// capsuleTemplates 用于没有共享属性的胶囊物品，按顺序探测。
var capsuleTemplates = []template{
	{core.AttrUsage, "Selected for %s occasions."},
	{core.AttrBaseColour, "Matches your preference for %s items."},
	{core.AttrArticleType, "Perfect %s for your style."},
	{core.AttrSubCategory, "Essential %s piece."},
	{core.AttrSeason, "Versatile %s item."},
}

// Generator 生成推荐理由，零值可用。
type Generator struct{}

// SharedReasons 返回物品与喜欢列表共享属性的理由短语。
// includeVersatility 为 true 时，上装 / 下装额外加上“可搭配多套”。
func (g Generator) SharedReasons(it *core.Item, user *core.UserProfile, includeVersatility bool) []string {
	var reasons []string
	if user.LikesSubCategory(it.SubCategory) {
		reasons = append(reasons, "matches your preference for "+strings.ToLower(it.SubCategory))
	}
	if user.LikesColour(it.BaseColour) {
		reasons = append(reasons, "complements your favorite "+strings.ToLower(it.BaseColour)+" pieces")
	}
	if user.LikesUsage(it.Usage) {
		reasons = append(reasons, "fits your "+strings.ToLower(it.Usage)+" style")
	}
	if includeVersatility && len(reasons) > 0 && isVersatile(it) {
		reasons = append(reasons, "creates multiple outfit combinations")
	}
	return reasons
}

func isVersatile(it *core.Item) bool {
	return strings.EqualFold(it.SubCategory, "Topwear") || strings.EqualFold(it.SubCategory, "Bottomwear")
}

func joinReasons(reasons []string) string {
	return "Selected because it " + strings.Join(reasons, " and ") + "."
}

// Recommendation 为推荐结果生成理由。
func (g Generator) Recommendation(c *core.Candidate, user *core.UserProfile, serendipity float64) (string, Rule) {
	it := c.Item
	if reasons := g.SharedReasons(it, user, true); len(reasons) > 0 {
		return joinReasons(reasons), RuleShared
	}

	sub := strings.ToLower(it.SubCategory)
	colour := strings.ToLower(it.BaseColour)
	switch {
	case serendipity < SafeBelow:
		switch {
		case c.Similarity > 0.7 && sub != "":
			return fmt.Sprintf("Perfect match for your style preferences in %s.", sub), RuleSafe
		case colour != "":
			return fmt.Sprintf("Good fit based on your liked %s items.", colour), RuleSafe
		}
		return "Good fit based on the items you liked.", RuleSafe
	case serendipity > AdventurousAbove:
		switch {
		case c.Novelty > 0.6 && it.ArticleType != "" && it.BaseColour != "":
			return fmt.Sprintf("Something new to explore: %s in %s.", it.ArticleType, it.BaseColour), RuleAdventurous
		case sub != "":
			return fmt.Sprintf("Expands your style with this unique %s.", sub), RuleAdventurous
		}
		return "Something new to explore.", RuleAdventurous
	default:
		return "Balanced choice that matches your taste while adding variety.", RuleBalanced
	}
}

// Capsule 为胶囊物品生成理由。
func (g Generator) Capsule(c *core.Candidate, user *core.UserProfile) (string, Rule) {
	it := c.Item
	if reasons := g.SharedReasons(it, user, true); len(reasons) > 0 {
		return joinReasons(reasons), RuleShared
	}

	start := int(xxhash.Sum64String(strconv.FormatInt(it.ID, 10)) % uint64(len(capsuleTemplates)))
	for i := range capsuleTemplates {
		tpl := capsuleTemplates[(start+i)%len(capsuleTemplates)]
		if v := it.Attr(tpl.attr); v != "" {
			return fmt.Sprintf(tpl.format, strings.ToLower(v)), RuleTemplate
		}
	}
	return FallbackText, RuleFallback
}
