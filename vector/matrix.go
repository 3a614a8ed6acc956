// Package vector 提供批量余弦相似度计算：目录中所有合法 embedding 被打包进一块
// 连续的行主序矩阵，并在构建时预先算好每行的 L2 范数。
package vector

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// DefaultShardRows 是单个分片处理的行数；行数不超过它时不启动协程。
const DefaultShardRows = 4096

// Matrix 是只读的 embedding 矩阵，构建完成后可被多个请求并发读取。
type Matrix struct {
	dim   int
	rows  int
	data  []float64 // rows * dim，行主序
	norms []float64

	// ShardRows 控制并行分片大小，<= 0 时使用 DefaultShardRows
	ShardRows int
}

// NewMatrix 把 vectors 打包成矩阵。所有向量长度必须等于 dim。
func NewMatrix(dim int, vectors [][]float64) (*Matrix, error) {
	if dim <= 0 && len(vectors) > 0 {
		return nil, fmt.Errorf("vector: invalid dimension %d", dim)
	}
	m := &Matrix{
		dim:   dim,
		rows:  len(vectors),
		data:  make([]float64, 0, len(vectors)*dim),
		norms: make([]float64, len(vectors)),
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector: row %d has %d components, want %d", i, len(v), dim)
		}
		m.data = append(m.data, v...)
		m.norms[i] = Norm(v)
	}
	return m, nil
}

// Rows 返回行数。
func (m *Matrix) Rows() int { return m.rows }

// Dim 返回维度。
func (m *Matrix) Dim() int { return m.dim }

// Row 返回第 i 行（共享底层数组，调用方不得修改）。
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.dim : (i+1)*m.dim]
}

// Cosine 批量计算 query 与每一行的余弦相似度。
//
// query 或某行范数为 0 时该行结果为 0；结果截断在 [-1, 1]。
// 行数超过分片大小时按分片并行，ctx 取消时返回 ctx.Err()。
func (m *Matrix) Cosine(ctx context.Context, query []float64) ([]float64, error) {
	if len(query) != m.dim {
		return nil, fmt.Errorf("vector: query has %d components, want %d", len(query), m.dim)
	}
	out := make([]float64, m.rows)
	qn := Norm(query)
	if qn == 0 || m.rows == 0 {
		return out, nil
	}

	shard := m.ShardRows
	if shard <= 0 {
		shard = DefaultShardRows
	}
	if m.rows <= shard {
		m.cosineRange(query, qn, out, 0, m.rows)
		return out, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for start := 0; start < m.rows; start += shard {
		lo, hi := start, min(start+shard, m.rows)
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			m.cosineRange(query, qn, out, lo, hi)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// cosineRange 计算 [lo, hi) 行，各分片写入 out 的不同区间，无需加锁。
func (m *Matrix) cosineRange(query []float64, qn float64, out []float64, lo, hi int) {
	for r := lo; r < hi; r++ {
		rn := m.norms[r]
		if rn == 0 {
			out[r] = 0
			continue
		}
		row := m.data[r*m.dim : (r+1)*m.dim]
		out[r] = clamp(Dot(query, row) / (qn * rn))
	}
}

// CosineSimilarity 计算两个向量的余弦相似度；长度不同、为空或任一范数为 0 时返回 0。
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(Dot(a, b) / (na * nb))
}

// Dot 计算内积，调用方保证等长。
func Dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// Norm 计算 L2 范数。
func Norm(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// Finite 判断向量中是否不含 NaN / Inf。
func Finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Mean 计算若干等长向量的逐元素均值；vectors 为空时返回 dim 维零向量。
func Mean(dim int, vectors [][]float64) []float64 {
	out := make([]float64, dim)
	if len(vectors) == 0 {
		return out
	}
	for _, v := range vectors {
		for i := range out {
			out[i] += v[i]
		}
	}
	n := float64(len(vectors))
	for i := range out {
		out[i] /= n
	}
	return out
}

func clamp(x float64) float64 {
	switch {
	case x > 1:
		return 1
	case x < -1:
		return -1
	case math.IsNaN(x):
		return 0
	}
	return x
}
