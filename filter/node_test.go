package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/wardrobe/core"
)

func cands(items ...*core.Item) []*core.Candidate {
	out := make([]*core.Candidate, len(items))
	for i, it := range items {
		out[i] = core.NewCandidate(it)
	}
	return out
}

func ids(cs []*core.Candidate) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.ID()
	}
	return out
}

type errFilter struct{}

func (errFilter) Name() string { return "filter.err" }
func (errFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Candidate) (bool, error) {
	return true, errors.New("broken")
}

func TestFilterNode(t *testing.T) {
	in := cands(
		&core.Item{ID: 1, Season: "Summer"},
		&core.Item{ID: 2, Season: "Winter"},
		&core.Item{ID: 3, Season: "Summer"},
		&core.Item{ID: 4, Season: "Summer"},
	)
	tests := []struct {
		name    string
		filters []Filter
		rctx    *core.RecommendContext
		want    []int64
	}{
		{"no filters", nil, &core.RecommendContext{}, []int64{1, 2, 3, 4}},
		{"liked", []Filter{&LikedFilter{}}, &core.RecommendContext{LikedIDs: []int64{1, 1, 3}}, []int64{2, 4}},
		{"blacklist", []Filter{NewBlacklistFilter([]int64{4})}, &core.RecommendContext{}, []int64{1, 2, 3}},
		{"static expr", []Filter{&ExprFilter{Expr: `item.season == "Summer"`}}, &core.RecommendContext{}, []int64{1, 3, 4}},
		{"request expr", []Filter{&ExprFilter{}}, &core.RecommendContext{Filter: `item.season == "Winter"`}, []int64{2}},
		{"eval error removes", []Filter{&ExprFilter{Expr: `item.season == "Winter" || label.missing == "x"`}}, &core.RecommendContext{}, []int64{2}},
		{"combined", []Filter{&LikedFilter{}, &ExprFilter{Expr: `item.season == "Summer"`}}, &core.RecommendContext{LikedIDs: []int64{1}}, []int64{3, 4}},
		{"filter error keeps", []Filter{errFilter{}}, &core.RecommendContext{}, []int64{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &FilterNode{Filters: tt.filters}
			out, err := node.Process(context.Background(), tt.rctx, in)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			got := ids(out)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFilterNode_CountsLabel(t *testing.T) {
	rctx := &core.RecommendContext{LikedIDs: []int64{1, 2}}
	node := &FilterNode{Filters: []Filter{&LikedFilter{}}}
	_, _ = node.Process(context.Background(), rctx, cands(&core.Item{ID: 1}, &core.Item{ID: 2}, &core.Item{ID: 3}))
	lbl, ok := rctx.GetLabel("filtered.filter.liked")
	if !ok || lbl.Value != "2" {
		t.Errorf("label = %+v, %v; want 2 removed", lbl, ok)
	}
}
