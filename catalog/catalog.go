// Package catalog 构建并持有只读的商品目录快照。
//
// Catalog 在构建时一次性校验 embedding，并把所有合法 embedding 打包成 vector.Matrix，
// 之后不再修改，可被任意多个请求并发读取。更新目录时整体替换快照（见 Holder）。
package catalog

import (
	"context"
	"fmt"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pkg/logging"
	"github.com/rushteam/wardrobe/vector"
)

// Catalog 实现 core.Snapshot。
type Catalog struct {
	items []*core.Item
	byID  map[int64]*core.Item
	dim   int
	index *index
}

type options struct {
	dim       int
	shardRows int
}

// Option 目录构建选项
type Option func(*options)

// WithDimension 指定 embedding 维度；不指定时取出现次数最多的合法 embedding 长度。
func WithDimension(dim int) Option {
	return func(o *options) { o.dim = dim }
}

// WithShardRows 设置相似度计算的并行分片大小。
func WithShardRows(rows int) Option {
	return func(o *options) { o.shardRows = rows }
}

// New 从 items 构建目录。
//
// 重复 ID 返回 INVALID_INPUT 错误；embedding 长度不符或含 NaN/Inf 的物品保留在目录中，
// 但其 embedding 被置空，不参与相似度计算。入参 items 不会被修改。
func New(items []*core.Item, opts ...Option) (*Catalog, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.dim < 0 {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
			fmt.Sprintf("catalog: invalid dimension %d", o.dim))
	}
	if o.dim == 0 {
		o.dim = inferDimension(items)
	}

	c := &Catalog{
		items: make([]*core.Item, 0, len(items)),
		byID:  make(map[int64]*core.Item, len(items)),
		dim:   o.dim,
	}

	var (
		rows    []*core.Item
		vectors [][]float64
		invalid int
	)
	for _, src := range items {
		if src == nil {
			continue
		}
		if _, dup := c.byID[src.ID]; dup {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				fmt.Sprintf("catalog: duplicate item id %d", src.ID))
		}
		it := *src
		if len(it.Embedding) > 0 {
			if len(it.Embedding) != c.dim || !vector.Finite(it.Embedding) {
				invalid++
				logging.Debug().Int64("item_id", it.ID).Int("len", len(it.Embedding)).Int("dim", c.dim).
					Msg("catalog: invalid embedding dropped")
				it.Embedding = nil
			} else {
				it.Embedding = append([]float64(nil), it.Embedding...)
			}
		}
		p := &it
		c.items = append(c.items, p)
		c.byID[p.ID] = p
		if p.HasEmbedding() {
			rows = append(rows, p)
			vectors = append(vectors, p.Embedding)
		}
	}
	if invalid > 0 {
		logging.Warn().Int("items", invalid).Int("dim", c.dim).Msg("catalog: items kept without a valid embedding")
	}

	m, err := vector.NewMatrix(c.dim, vectors)
	if err != nil {
		return nil, fmt.Errorf("catalog: build matrix: %w", err)
	}
	if o.shardRows > 0 {
		m.ShardRows = o.shardRows
	}
	c.index = &index{rows: rows, matrix: m}
	return c, nil
}

// inferDimension 返回非空且有限的 embedding 中出现次数最多的长度，
// 次数相同时取先出现的长度。
func inferDimension(items []*core.Item) int {
	counts := make(map[int]int)
	var order []int
	for _, it := range items {
		if it == nil || len(it.Embedding) == 0 || !vector.Finite(it.Embedding) {
			continue
		}
		n := len(it.Embedding)
		if counts[n] == 0 {
			order = append(order, n)
		}
		counts[n]++
	}
	dim, best := 0, 0
	for _, n := range order {
		if counts[n] > best {
			dim, best = n, counts[n]
		}
	}
	return dim
}

// Get 实现 core.Catalog。
func (c *Catalog) Get(id int64) (*core.Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// All 按加载顺序返回全部物品；返回的切片与物品均只读。
func (c *Catalog) All() []*core.Item { return c.items }

// Dimension 实现 core.Catalog。
func (c *Catalog) Dimension() int { return c.dim }

// Len 返回物品总数。
func (c *Catalog) Len() int { return len(c.items) }

// EmbeddedCount 返回拥有合法 embedding 的物品数。
func (c *Catalog) EmbeddedCount() int { return c.index.Len() }

// Index 实现 core.Snapshot。
func (c *Catalog) Index() core.VectorIndex { return c.index }

type index struct {
	rows   []*core.Item
	matrix *vector.Matrix
}

func (x *index) Len() int { return len(x.rows) }

func (x *index) ItemAt(row int) *core.Item { return x.rows[row] }

func (x *index) Similarity(ctx context.Context, query []float64) ([]float64, error) {
	sims, err := x.matrix.Cosine(ctx, query)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeInternalError, "similarity", err)
	}
	return sims, nil
}

var _ core.Snapshot = (*Catalog)(nil)
