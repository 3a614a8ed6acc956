package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/wardrobe/core"
)

func cand(id int64, sub, colour string, sim float64) *core.Candidate {
	c := core.NewCandidate(&core.Item{ID: id, SubCategory: sub, BaseColour: colour})
	c.Similarity = sim
	c.Novelty = 1 - sim
	return c
}

func TestWeights(t *testing.T) {
	levels := []float64{0, 0.1, 0.25, 0.3, 0.5, 0.7, 0.99, 1}
	for i := 0; i <= 1000; i++ {
		levels = append(levels, float64(i)/1000)
	}
	for _, s := range levels {
		sim, nov, div := Weights(s)
		if sim+nov+div != 1 {
			t.Errorf("s=%v: weights sum = %v", s, sim+nov+div)
		}
		if sim < 0 || nov < 0 || div < -1e-12 {
			t.Errorf("s=%v: negative weight %v %v %v", s, sim, nov, div)
		}
	}
	if sim, nov, div := Weights(0); sim != 1 || nov != 0 || div != 0 {
		t.Errorf("Weights(0) = %v %v %v", sim, nov, div)
	}
}

func TestDiversityTracker(t *testing.T) {
	d := NewDiversityTracker()
	a := &core.Item{SubCategory: "Topwear", BaseColour: "Blue"}
	if d.Score(a) != 1 {
		t.Errorf("empty set diversity = %v, want 1", d.Score(a))
	}
	d.Add(a)
	d.Add(&core.Item{SubCategory: "Bottomwear", BaseColour: "blue"})

	tests := []struct {
		name string
		it   *core.Item
		want float64
	}{
		{"same sub, same colour", &core.Item{SubCategory: "Topwear", BaseColour: "Blue"}, 0.25},
		{"new sub, same colour", &core.Item{SubCategory: "Shoes", BaseColour: "BLUE"}, 0.5},
		{"all new", &core.Item{SubCategory: "Shoes", BaseColour: "Red"}, 1},
		{"missing attributes never shared", &core.Item{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Score(tt.it); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSerendipityNode_SafeOrdersBySimilarity(t *testing.T) {
	in := []*core.Candidate{
		cand(5, "Topwear", "Blue", 0.2),
		cand(3, "Topwear", "Blue", 0.9),
		cand(4, "Topwear", "Blue", 0.9),
		cand(1, "Shoes", "Red", 0.5),
	}
	rctx := &core.RecommendContext{Serendipity: 0, Limit: 10}
	out, err := (&SerendipityNode{}).Process(context.Background(), rctx, in)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{3, 4, 1, 5}
	for i, c := range out {
		if c.ID() != want[i] {
			t.Fatalf("out[%d] = %d, want %v", i, c.ID(), want)
		}
		if c.Score != c.Similarity {
			t.Errorf("s=0: score %v should equal similarity %v", c.Score, c.Similarity)
		}
	}
	if lbl, _ := rctx.GetLabel("total_available"); lbl.Value != "4" {
		t.Errorf("total_available = %q, want 4", lbl.Value)
	}
}

func TestSerendipityNode_OnlineDiversity(t *testing.T) {
	in := []*core.Candidate{
		cand(1, "Topwear", "Blue", 0.9),
		cand(2, "Topwear", "Blue", 0.85),
		cand(3, "Bottomwear", "Red", 0.5),
	}
	rctx := &core.RecommendContext{Serendipity: 0.5, Limit: 3}
	out, err := (&SerendipityNode{}).Process(context.Background(), rctx, in)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		id    int64
		score float64
		div   float64
	}{
		{1, 0.5*0.9 + 0.35*0.1 + 0.15*1, 1},
		{3, 0.5*0.5 + 0.35*0.5 + 0.15*1, 1},
		{2, 0.5*0.85 + 0.35*0.15 + 0.15*0.5, 0.5},
	}
	for i, w := range want {
		c := out[i]
		if c.ID() != w.id || math.Abs(c.Score-w.score) > 1e-9 || math.Abs(c.Diversity-w.div) > 1e-12 {
			t.Errorf("out[%d] = id %d score %v div %v, want %+v", i, c.ID(), c.Score, c.Diversity, w)
		}
	}
}

func TestSerendipityNode_LimitAndDeterminism(t *testing.T) {
	build := func() []*core.Candidate {
		var in []*core.Candidate
		subs := []string{"Topwear", "Bottomwear", "Shoes", ""}
		colours := []string{"Blue", "Black", "", "Red", "White"}
		for i := int64(1); i <= 40; i++ {
			in = append(in, cand(i, subs[i%4], colours[i%5], float64(i%7)/7))
		}
		return in
	}
	node := &SerendipityNode{}
	a, _ := node.Process(context.Background(), &core.RecommendContext{Serendipity: 0.8, Limit: 12}, build())
	b, _ := node.Process(context.Background(), &core.RecommendContext{Serendipity: 0.8, Limit: 12}, build())
	if len(a) != 12 {
		t.Fatalf("len = %d, want 12", len(a))
	}
	seen := map[int64]bool{}
	for i := range a {
		if a[i].ID() != b[i].ID() {
			t.Fatalf("non-deterministic order at %d: %d vs %d", i, a[i].ID(), b[i].ID())
		}
		if seen[a[i].ID()] {
			t.Fatalf("duplicate id %d", a[i].ID())
		}
		seen[a[i].ID()] = true
		if a[i].Diversity < 0 || a[i].Diversity > 1 {
			t.Errorf("diversity out of range: %v", a[i].Diversity)
		}
		if i > 0 && ByScore(a[i-1], a[i]) > 0 {
			t.Errorf("not sorted at %d", i)
		}
	}
}

func TestSerendipityNode_Empty(t *testing.T) {
	out, err := (&SerendipityNode{}).Process(context.Background(), &core.RecommendContext{Limit: 5}, nil)
	if err != nil || len(out) != 0 {
		t.Errorf("Process(nil) = %v, %v", out, err)
	}
}

func TestSerendipityNode_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&SerendipityNode{}).Process(ctx, &core.RecommendContext{Limit: 1}, []*core.Candidate{cand(1, "", "", 0)})
	if err == nil {
		t.Error("expected context error")
	}
}
