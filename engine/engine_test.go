package engine

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/wardrobe/catalog"
	"github.com/rushteam/wardrobe/config"
	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pipeline"
)

func fixtureItems(withEmbeddings bool) []*core.Item {
	items := []*core.Item{
		{ID: 1, MasterCategory: "Apparel", SubCategory: "Topwear", ArticleType: "Tshirts", BaseColour: "Blue", Usage: "Casual", Season: "Summer"},
		{ID: 2, MasterCategory: "Apparel", SubCategory: "Topwear", ArticleType: "Shirts", BaseColour: "White", Usage: "Casual", Season: "Summer"},
		{ID: 3, MasterCategory: "Apparel", SubCategory: "Bottomwear", ArticleType: "Jeans", BaseColour: "Black", Usage: "Casual", Season: "Winter"},
		{ID: 4, MasterCategory: "Apparel", SubCategory: "Bottomwear", ArticleType: "Trousers", BaseColour: "Blue", Usage: "Formal", Season: "Fall"},
		{ID: 5, MasterCategory: "Footwear", SubCategory: "Shoes", ArticleType: "Sneakers", BaseColour: "White", Usage: "Sports", Season: "Summer"},
		{ID: 6, MasterCategory: "Accessories", SubCategory: "Accessories", ArticleType: "Belts", BaseColour: "Brown", Usage: "Formal", Season: "Winter"},
	}
	if withEmbeddings {
		embs := [][]float64{{1, 0, 0}, {0.9, 0.1, 0}, {0.2, 1, 0}, {0.1, 1, 0.1}, {0, 0.2, 1}, {0.3, 0.3, 0.3}}
		for i := range items {
			items[i].Embedding = embs[i]
		}
	}
	return items
}

func newEngine(t *testing.T, items []*core.Item, opts ...Option) *Engine {
	t.Helper()
	cat, err := catalog.New(items)
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(catalog.NewHolder(cat), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func recIDs(res *RecommendResult) []int64 {
	ids := make([]int64, len(res.Items))
	for i, r := range res.Items {
		ids[i] = r.Item.ID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecommend_InvalidInput(t *testing.T) {
	e := newEngine(t, fixtureItems(true))
	tests := []struct {
		name string
		req  RecommendRequest
	}{
		{"serendipity above 1", RecommendRequest{LikedIDs: []int64{1}, Serendipity: 1.5, Limit: 3}},
		{"serendipity negative", RecommendRequest{LikedIDs: []int64{1}, Serendipity: -0.1, Limit: 3}},
		{"limit zero", RecommendRequest{LikedIDs: []int64{1}, Limit: 0}},
		{"bad filter", RecommendRequest{LikedIDs: []int64{1}, Limit: 3, Filter: "item.season =="}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Recommend(context.Background(), tt.req)
			if !core.IsInvalidInput(err) {
				t.Fatalf("Recommend() error = %v, want INVALID_INPUT", err)
			}
			if de := core.GetDomainError(err); de.Module != core.ModuleEngine {
				t.Errorf("module = %s, want engine", de.Module)
			}
		})
	}
}

func TestRecommend_SafeOrderAndLimit(t *testing.T) {
	e := newEngine(t, fixtureItems(true))
	res, err := e.Recommend(context.Background(), RecommendRequest{LikedIDs: []int64{1}, Serendipity: 0, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{2, 6, 3}; !equalIDs(recIDs(res), want) {
		t.Errorf("ids = %v, want %v", recIDs(res), want)
	}
	if res.TotalAvailable != 5 {
		t.Errorf("TotalAvailable = %d, want 5", res.TotalAvailable)
	}
	for i, r := range res.Items {
		if r.Item.ID == 1 {
			t.Error("liked item returned")
		}
		if r.Similarity < -1 || r.Similarity > 1 {
			t.Errorf("similarity %v out of range", r.Similarity)
		}
		if math.Abs(r.Novelty-(1-r.Similarity)) > 1e-12 {
			t.Errorf("novelty %v != 1 - similarity %v", r.Novelty, r.Similarity)
		}
		if r.Explanation == "" {
			t.Errorf("item %d has no explanation", r.Item.ID)
		}
		if r.Item.Embedding != nil {
			t.Error("embedding should not be returned")
		}
		if i > 0 && r.Similarity > res.Items[i-1].Similarity {
			t.Error("serendipity 0 must sort by similarity")
		}
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	e := newEngine(t, fixtureItems(true))
	req := RecommendRequest{LikedIDs: []int64{1, 3}, Serendipity: 0.6, Limit: 4}
	a, err := e.Recommend(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		b, err := e.Recommend(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if !equalIDs(recIDs(a), recIDs(b)) {
			t.Fatalf("order changed: %v vs %v", recIDs(a), recIDs(b))
		}
		for i := range a.Items {
			if a.Items[i].Explanation != b.Items[i].Explanation {
				t.Fatalf("explanation changed for %d", a.Items[i].Item.ID)
			}
		}
	}
}

func TestRecommend_EmptyLiked(t *testing.T) {
	e := newEngine(t, fixtureItems(true))
	res, err := e.Recommend(context.Background(), RecommendRequest{Serendipity: 0.5, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 6 {
		t.Fatalf("len = %d, want 6", len(res.Items))
	}
	for _, r := range res.Items {
		if r.Similarity != 0 || r.Novelty != 1 {
			t.Errorf("item %d: similarity %v novelty %v", r.Item.ID, r.Similarity, r.Novelty)
		}
	}
}

func TestRecommend_Filter(t *testing.T) {
	e := newEngine(t, fixtureItems(true))
	res, err := e.Recommend(context.Background(), RecommendRequest{
		LikedIDs: []int64{1},
		Limit:    10,
		Filter:   `item.subCategory == "Bottomwear"`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{3, 4}; !equalIDs(recIDs(res), want) {
		t.Errorf("ids = %v, want %v", recIDs(res), want)
	}
}

func TestRecommend_NoEmbeddings(t *testing.T) {
	e := newEngine(t, fixtureItems(false))
	res, err := e.Recommend(context.Background(), RecommendRequest{LikedIDs: []int64{1}, Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 0 {
		t.Errorf("len = %d, want 0", len(res.Items))
	}
}

func TestRecommend_NoCatalog(t *testing.T) {
	e, err := New(catalog.NewHolder(nil))
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.Recommend(context.Background(), RecommendRequest{Limit: 1})
	if !core.IsUnavailable(err) {
		t.Errorf("error = %v, want UNAVAILABLE", err)
	}
}

func TestRecommend_Canceled(t *testing.T) {
	e := newEngine(t, fixtureItems(true))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Recommend(ctx, RecommendRequest{LikedIDs: []int64{1}, Limit: 3}); err == nil {
		t.Error("expected context error")
	}
}

func TestBuildCapsule_Scenario(t *testing.T) {
	e := newEngine(t, fixtureItems(true))
	res, err := e.BuildCapsule(context.Background(), CapsuleRequest{LikedIDs: []int64{1}, Budget: 4})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{2, 3, 4, 5}; !equalIDs(res.ItemIDs, want) {
		t.Fatalf("ids = %v, want %v", res.ItemIDs, want)
	}
	// 1 件上装 × 2 件下装 × 1 双鞋
	if res.Stats.OutfitsPossible != 2 {
		t.Errorf("OutfitsPossible = %d, want 2", res.Stats.OutfitsPossible)
	}
	if res.Stats.CategoriesCovered != 3 || res.Stats.ColorDiversity != 3 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Fallback {
		t.Error("unexpected fallback")
	}
	for _, it := range res.Items {
		if it.Explanation == "" || it.Slot == "" {
			t.Errorf("item %d: explanation %q slot %q", it.Item.ID, it.Explanation, it.Slot)
		}
	}
}

func TestBuildCapsule_IncludeLiked(t *testing.T) {
	e := newEngine(t, fixtureItems(true), WithCapsuleOptions(config.CapsuleOptions{IncludeLiked: true}))
	res, err := e.BuildCapsule(context.Background(), CapsuleRequest{LikedIDs: []int64{1}, Budget: 4})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{1, 2, 3, 4}; !equalIDs(res.ItemIDs, want) {
		t.Errorf("ids = %v, want %v", res.ItemIDs, want)
	}
}

func TestBuildCapsule_PoolExcludesLiked(t *testing.T) {
	e := newEngine(t, fixtureItems(true), WithCapsuleOptions(config.CapsuleOptions{PoolSize: 2}))
	res, err := e.BuildCapsule(context.Background(), CapsuleRequest{LikedIDs: []int64{1}, Budget: 4})
	if err != nil {
		t.Fatal(err)
	}
	// 池大小按排除喜欢物品之后计算：1 之外最相似的两件是 2 和 6
	got := make(map[int64]bool)
	for _, id := range res.ItemIDs {
		got[id] = true
	}
	if len(res.ItemIDs) != 2 || !got[2] || !got[6] {
		t.Errorf("ids = %v, want 2 and 6", res.ItemIDs)
	}
}

func TestBuildCapsule_Degenerate(t *testing.T) {
	e := newEngine(t, fixtureItems(true))
	for _, req := range []CapsuleRequest{
		{Budget: 4},
		{LikedIDs: []int64{1}, Budget: 0},
	} {
		res, err := e.BuildCapsule(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.ItemIDs) != 0 || res.Stats.OutfitsPossible != 0 || res.Stats.CategoriesCovered != 0 || res.Stats.ColorDiversity != 0 {
			t.Errorf("req %+v: got %+v", req, res)
		}
	}
	if _, err := e.BuildCapsule(context.Background(), CapsuleRequest{LikedIDs: []int64{1}, Budget: -1}); !core.IsInvalidInput(err) {
		t.Errorf("negative budget error = %v", err)
	}
}

func TestBuildCapsule_BudgetBound(t *testing.T) {
	e := newEngine(t, fixtureItems(true))
	for budget := 0; budget <= 8; budget++ {
		res, err := e.BuildCapsule(context.Background(), CapsuleRequest{LikedIDs: []int64{2}, Budget: budget})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.ItemIDs) > budget {
			t.Errorf("budget %d: len %d", budget, len(res.ItemIDs))
		}
		seen := map[int64]bool{}
		for _, id := range res.ItemIDs {
			if seen[id] {
				t.Errorf("budget %d: duplicate id %d", budget, id)
			}
			seen[id] = true
		}
	}
}

func TestBuildCapsule_Fallback(t *testing.T) {
	e := newEngine(t, fixtureItems(false), WithCapsuleOptions(config.CapsuleOptions{Seed: 42}))
	res, err := e.BuildCapsule(context.Background(), CapsuleRequest{LikedIDs: []int64{1}, Budget: 3})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Fallback || len(res.ItemIDs) != 3 {
		t.Fatalf("fallback = %v ids = %v", res.Fallback, res.ItemIDs)
	}
	again, _ := e.BuildCapsule(context.Background(), CapsuleRequest{LikedIDs: []int64{1}, Budget: 3})
	if !equalIDs(res.ItemIDs, again.ItemIDs) {
		t.Errorf("seeded fallback not reproducible: %v vs %v", res.ItemIDs, again.ItemIDs)
	}
}

func TestInsightsAndItem(t *testing.T) {
	e := newEngine(t, fixtureItems(true))
	in, err := e.Insights(context.Background(), []int64{1, 2, 3}, []int64{6})
	if err != nil {
		t.Fatal(err)
	}
	if in.LikedCount != 3 || in.DislikedCount != 1 || in.Personality == "" {
		t.Errorf("insights = %+v", in)
	}
	empty, err := e.Insights(context.Background(), nil, nil)
	if err != nil || !empty.Empty() {
		t.Errorf("empty insights = %+v, %v", empty, err)
	}

	it, err := e.Item(3)
	if err != nil || it.ArticleType != "Jeans" || it.Embedding != nil {
		t.Errorf("Item(3) = %+v, %v", it, err)
	}
	if _, err := e.Item(99); !core.IsNotFound(err) {
		t.Errorf("Item(99) error = %v", err)
	}
}

func TestNew_InvalidPipeline(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "broken"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "rank.unknown"}}
	if _, err := New(catalog.NewHolder(nil), WithRecommendPipeline(cfg)); !core.IsInvalidInput(err) {
		t.Errorf("New() error = %v", err)
	}
}
