package explain

import (
	"context"
	"strings"
	"testing"

	"github.com/rushteam/wardrobe/core"
)

func likedProfile(items ...*core.Item) *core.UserProfile {
	p := core.NewUserProfile(0)
	for _, it := range items {
		p.AddAttributes(it)
	}
	return p
}

func TestRecommendation_SharedAttributes(t *testing.T) {
	user := likedProfile(&core.Item{SubCategory: "Topwear", BaseColour: "Blue", Usage: "Casual"})

	tests := []struct {
		name string
		item *core.Item
		want string
	}{
		{
			"all shared plus versatility",
			&core.Item{ID: 2, SubCategory: "Topwear", BaseColour: "Blue", Usage: "Casual"},
			"Selected because it matches your preference for topwear and complements your favorite blue pieces and fits your casual style and creates multiple outfit combinations.",
		},
		{
			"colour only",
			&core.Item{ID: 3, SubCategory: "Shoes", BaseColour: "BLUE"},
			"Selected because it complements your favorite blue pieces.",
		},
	}
	var g Generator
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := g.Recommendation(core.NewCandidate(tt.item), user, 0.5)
			if got != tt.want {
				t.Errorf("Recommendation() = %q, want %q", got, tt.want)
			}
			if rule != RuleShared {
				t.Errorf("rule = %s, want %s", rule, RuleShared)
			}
		})
	}
}

func TestRecommendation_Bands(t *testing.T) {
	user := likedProfile(&core.Item{SubCategory: "Watches", BaseColour: "Gold", Usage: "Formal"})
	it := &core.Item{ID: 9, SubCategory: "Topwear", ArticleType: "Tshirts", BaseColour: "Red"}

	tests := []struct {
		name        string
		serendipity float64
		sim, nov    float64
		want        string
		rule        Rule
	}{
		{"safe high similarity", 0.1, 0.9, 0.1, "Perfect match for your style preferences in topwear.", RuleSafe},
		{"safe low similarity", 0.1, 0.5, 0.5, "Good fit based on your liked red items.", RuleSafe},
		{"adventurous novel", 0.9, 0.2, 0.8, "Something new to explore: Tshirts in Red.", RuleAdventurous},
		{"adventurous familiar", 0.9, 0.6, 0.4, "Expands your style with this unique topwear.", RuleAdventurous},
		{"balanced", 0.5, 0.5, 0.5, "Balanced choice that matches your taste while adding variety.", RuleBalanced},
		{"boundary 0.3 is balanced", 0.3, 0.9, 0.1, "Balanced choice that matches your taste while adding variety.", RuleBalanced},
		{"boundary 0.7 is balanced", 0.7, 0.1, 0.9, "Balanced choice that matches your taste while adding variety.", RuleBalanced},
	}
	var g Generator
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := core.NewCandidate(it)
			c.Similarity, c.Novelty = tt.sim, tt.nov
			got, rule := g.Recommendation(c, user, tt.serendipity)
			if got != tt.want || rule != tt.rule {
				t.Errorf("Recommendation() = %q (%s), want %q (%s)", got, rule, tt.want, tt.rule)
			}
		})
	}
}

func TestRecommendation_NilUser(t *testing.T) {
	var g Generator
	got, rule := g.Recommendation(core.NewCandidate(&core.Item{ID: 1}), nil, 0.1)
	if got == "" || rule != RuleSafe {
		t.Errorf("Recommendation() = %q (%s)", got, rule)
	}
}

func TestCapsule_Template(t *testing.T) {
	var g Generator
	it := &core.Item{ID: 42, SubCategory: "Shoes", ArticleType: "Sneakers", BaseColour: "White", Season: "Summer", Usage: "Sports"}
	c := core.NewCandidate(it)

	got, rule := g.Capsule(c, nil)
	if rule != RuleTemplate {
		t.Fatalf("rule = %s, want %s", rule, RuleTemplate)
	}
	again, _ := g.Capsule(c, nil)
	if got != again {
		t.Errorf("Capsule() not deterministic: %q vs %q", got, again)
	}
	if !strings.HasSuffix(got, ".") || strings.Contains(got, "{") {
		t.Errorf("Capsule() = %q", got)
	}
}

func TestCapsule_TemplateSkipsMissingAttributes(t *testing.T) {
	var g Generator
	// 只有季节可用，任何起点都会探测到季节模板
	for id := int64(1); id <= 20; id++ {
		got, rule := g.Capsule(core.NewCandidate(&core.Item{ID: id, Season: "Winter"}), nil)
		if got != "Versatile winter item." || rule != RuleTemplate {
			t.Fatalf("id %d: Capsule() = %q (%s)", id, got, rule)
		}
	}
}

func TestCapsule_Fallback(t *testing.T) {
	var g Generator
	got, rule := g.Capsule(core.NewCandidate(&core.Item{ID: 5}), likedProfile(&core.Item{SubCategory: "Topwear"}))
	if got != FallbackText || rule != RuleFallback {
		t.Errorf("Capsule() = %q (%s)", got, rule)
	}
}

func TestCapsule_Shared(t *testing.T) {
	var g Generator
	user := likedProfile(&core.Item{SubCategory: "Bottomwear", Usage: "Casual"})
	got, rule := g.Capsule(core.NewCandidate(&core.Item{ID: 4, SubCategory: "Bottomwear", Usage: "Formal"}), user)
	want := "Selected because it matches your preference for bottomwear and creates multiple outfit combinations."
	if got != want || rule != RuleShared {
		t.Errorf("Capsule() = %q (%s), want %q", got, rule, want)
	}
}

func TestNode_Process(t *testing.T) {
	user := likedProfile(&core.Item{BaseColour: "Black"})
	rctx := &core.RecommendContext{User: user, Serendipity: 0.5}
	cands := []*core.Candidate{
		core.NewCandidate(&core.Item{ID: 1, BaseColour: "Black"}),
		core.NewCandidate(&core.Item{ID: 2, BaseColour: "Green"}),
		nil,
	}

	n := &Node{Mode: ModeRecommend}
	if n.Name() != "explain.recommend" {
		t.Errorf("Name() = %s", n.Name())
	}
	out, err := n.Process(context.Background(), rctx, cands)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d", len(out))
	}
	for _, c := range out[:2] {
		if c.Explanation == "" {
			t.Errorf("item %d has no explanation", c.ID())
		}
		if _, ok := c.Labels["explain"]; !ok {
			t.Errorf("item %d missing explain label", c.ID())
		}
	}
	if out[0].Labels["explain"].Value != string(RuleShared) {
		t.Errorf("label = %v", out[0].Labels["explain"])
	}
}
