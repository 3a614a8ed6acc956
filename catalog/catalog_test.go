package catalog

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/wardrobe/core"
)

func testItems() []*core.Item {
	return []*core.Item{
		{ID: 1, SubCategory: "Topwear", Embedding: []float64{1, 0}},
		{ID: 2, SubCategory: "Topwear", Embedding: []float64{0.9, 0.1}},
		{ID: 3, SubCategory: "Bottomwear", Embedding: []float64{0, 1}},
		{ID: 4, SubCategory: "Bottomwear"},
		{ID: 5, Embedding: []float64{1, 2, 3}},
		{ID: 6, Embedding: []float64{math.NaN(), 1}},
	}
}

func TestNew_Dimension(t *testing.T) {
	items := []*core.Item{
		{ID: 1, Embedding: []float64{1, 2}},
		{ID: 2, Embedding: []float64{1, 0, 0}},
		{ID: 3, Embedding: []float64{0, 1, 0}},
		{ID: 4, Embedding: []float64{0, 0, 1}},
	}
	tests := []struct {
		name         string
		opts         []Option
		wantDim      int
		wantEmbedded int
		wantMissing  int64
	}{
		{"most common length wins over first row", nil, 3, 3, 1},
		{"explicit dimension", []Option{WithDimension(2)}, 2, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(items, tt.opts...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if c.Dimension() != tt.wantDim {
				t.Errorf("Dimension() = %d, want %d", c.Dimension(), tt.wantDim)
			}
			if c.EmbeddedCount() != tt.wantEmbedded {
				t.Errorf("EmbeddedCount() = %d, want %d", c.EmbeddedCount(), tt.wantEmbedded)
			}
			if it, _ := c.Get(tt.wantMissing); it.HasEmbedding() {
				t.Errorf("item %d should be flagged without embedding", tt.wantMissing)
			}
		})
	}
}

func TestInferDimension_TieKeepsFirst(t *testing.T) {
	items := []*core.Item{
		{ID: 1, Embedding: []float64{1, 2, 3}},
		{ID: 2, Embedding: []float64{1, 2}},
		nil,
		{ID: 3, Embedding: []float64{math.Inf(1), 2}},
	}
	if got := inferDimension(items); got != 3 {
		t.Errorf("inferDimension() = %d, want 3", got)
	}
	if got := inferDimension(nil); got != 0 {
		t.Errorf("inferDimension(nil) = %d, want 0", got)
	}
}

func TestNew(t *testing.T) {
	src := testItems()
	c, err := New(src)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Dimension() != 2 {
		t.Errorf("Dimension() = %d, want 2", c.Dimension())
	}
	if c.Len() != 6 {
		t.Errorf("Len() = %d, want 6", c.Len())
	}
	if c.EmbeddedCount() != 3 {
		t.Errorf("EmbeddedCount() = %d, want 3", c.EmbeddedCount())
	}

	for i, it := range c.All() {
		if it.ID != src[i].ID {
			t.Errorf("All()[%d].ID = %d, want load order", i, it.ID)
		}
	}

	for _, id := range []int64{4, 5, 6} {
		it, ok := c.Get(id)
		if !ok {
			t.Fatalf("Get(%d) missing; invalid embeddings must stay queryable", id)
		}
		if it.HasEmbedding() {
			t.Errorf("item %d should be flagged without embedding", id)
		}
	}
	if len(src[4].Embedding) != 3 {
		t.Error("New must not modify the caller's items")
	}
	if _, ok := c.Get(99); ok {
		t.Error("Get(99) should be missing")
	}
}

func TestNew_DuplicateID(t *testing.T) {
	_, err := New([]*core.Item{{ID: 1}, {ID: 1}})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
	if !core.IsInvalidInput(err) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestNew_ExplicitDimension(t *testing.T) {
	c, err := New(testItems(), WithDimension(3))
	if err != nil {
		t.Fatal(err)
	}
	if c.EmbeddedCount() != 1 {
		t.Errorf("EmbeddedCount() = %d, want only the 3-dim item", c.EmbeddedCount())
	}
}

func TestNew_Empty(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 || c.EmbeddedCount() != 0 || c.Dimension() != 0 {
		t.Errorf("empty catalog: len=%d embedded=%d dim=%d", c.Len(), c.EmbeddedCount(), c.Dimension())
	}
}

func TestIndex_Similarity(t *testing.T) {
	c, err := New(testItems(), WithShardRows(1))
	if err != nil {
		t.Fatal(err)
	}
	idx := c.Index()
	sims, err := idx.Similarity(context.Background(), []float64{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(sims) != idx.Len() {
		t.Fatalf("len(sims) = %d, want %d", len(sims), idx.Len())
	}
	wantIDs := []int64{1, 2, 3}
	for row := 0; row < idx.Len(); row++ {
		if idx.ItemAt(row).ID != wantIDs[row] {
			t.Errorf("ItemAt(%d) = %d, want %d", row, idx.ItemAt(row).ID, wantIDs[row])
		}
	}
	if math.Abs(sims[0]-1) > 1e-12 || sims[2] != 0 {
		t.Errorf("sims = %v", sims)
	}
}
